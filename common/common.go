// Package common contains shared constants and logging setup used by all
// binaries and packages in the enclave service.
package common

// PackageName is the service identifier used for logs and metrics.
const PackageName = "ternoa-enclaves"

// Version is set at build time via -ldflags.
var Version = "dev"
