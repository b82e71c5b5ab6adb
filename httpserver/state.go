package httpserver

import "go.uber.org/atomic"

// MaintenanceFlag is the shared maintenance-status indicator mutated by
// admin operations. Writes are last-writer-wins; there is at most one admin
// operation in flight by convention, not enforcement.
type MaintenanceFlag struct {
	message atomic.String
}

// NewMaintenanceFlag creates a cleared flag.
func NewMaintenanceFlag() *MaintenanceFlag {
	return &MaintenanceFlag{}
}

// SetMaintenance publishes a maintenance message.
func (f *MaintenanceFlag) SetMaintenance(message string) {
	f.message.Store(message)
}

// ClearMaintenance clears the maintenance message.
func (f *MaintenanceFlag) ClearMaintenance() {
	f.message.Store("")
}

// Message returns the current maintenance message, empty when clear.
func (f *MaintenanceFlag) Message() string {
	return f.message.Load()
}
