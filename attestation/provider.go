// Package attestation produces enclave quotes consumed as a trust bootstrap
// signal. It only produces the binary quote; appraisal happens off-box.
package attestation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/go-tdx-guest/client"
)

// Provider produces a binary attestation quote over 64 bytes of report data.
type Provider interface {
	Quote(reportData [64]byte) ([]byte, error)
}

// SentinelNotEnclave is returned verbatim on platforms without an
// attestation device. Callers treat it as "no trust signal", not an error.
var SentinelNotEnclave = []byte("This is NOT inside an Enclave!")

// GramineProvider drives the Gramine attestation pseudo-files: it writes the
// report data, reads back the binary quote and persists it to a known
// location.
type GramineProvider struct {
	// DevicePath is the attestation pseudo-file directory.
	DevicePath string

	// QuotePath is where the produced quote is persisted.
	QuotePath string

	log *slog.Logger
}

// NewGramineProvider creates a provider with the platform default paths.
func NewGramineProvider(log *slog.Logger) *GramineProvider {
	return &GramineProvider{
		DevicePath: "/dev/attestation",
		QuotePath:  "/quote/enclave.quote",
		log:        log,
	}
}

// Quote produces a quote bound to reportData. Outside an enclave it returns
// SentinelNotEnclave.
func (p *GramineProvider) Quote(reportData [64]byte) ([]byte, error) {
	reportFile := filepath.Join(p.DevicePath, "user_report_data")

	if _, err := os.Stat(reportFile); os.IsNotExist(err) {
		p.log.Info("No attestation device present, not inside an enclave")
		return SentinelNotEnclave, nil
	}

	attestType, err := os.ReadFile(filepath.Join(p.DevicePath, "attestation_type"))
	if err == nil {
		p.log.Info("Attestation type", slog.String("type", string(attestType)))
	}

	if err := os.WriteFile(reportFile, reportData[:], 0o600); err != nil {
		return nil, fmt.Errorf("failed to write report data: %w", err)
	}

	quote, err := os.ReadFile(filepath.Join(p.DevicePath, "quote"))
	if err != nil {
		return nil, fmt.Errorf("failed to read quote: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.QuotePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create quote directory: %w", err)
	}
	if err := os.WriteFile(p.QuotePath, quote, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist quote: %w", err)
	}

	p.log.Info("Produced attestation quote", slog.Int("size", len(quote)))
	return quote, nil
}

// TDXProvider produces quotes through the TDX guest interface.
type TDXProvider struct {
	log *slog.Logger
}

// NewTDXProvider creates a TDX-backed provider.
func NewTDXProvider(log *slog.Logger) *TDXProvider {
	return &TDXProvider{log: log}
}

// Quote produces a raw TDX quote bound to reportData.
func (p *TDXProvider) Quote(reportData [64]byte) ([]byte, error) {
	quoteProvider, err := client.GetQuoteProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get TDX quote provider: %w", err)
	}

	quote, err := client.GetRawQuote(quoteProvider, reportData)
	if err != nil {
		return nil, fmt.Errorf("failed to get TDX quote: %w", err)
	}

	p.log.Info("Produced TDX quote", slog.Int("size", len(quote)))
	return quote, nil
}
