package attestation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGramineQuoteOutsideEnclave(t *testing.T) {
	p := NewGramineProvider(testLogger())
	p.DevicePath = t.TempDir()

	// No user_report_data pseudo-file present.
	os.Remove(filepath.Join(p.DevicePath, "user_report_data"))

	quote, err := p.Quote([64]byte{})
	require.NoError(t, err)
	assert.Equal(t, SentinelNotEnclave, quote)
}

func TestGramineQuote(t *testing.T) {
	dir := t.TempDir()
	p := NewGramineProvider(testLogger())
	p.DevicePath = dir
	p.QuotePath = filepath.Join(t.TempDir(), "enclave.quote")

	// Fake the Gramine pseudo-files.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_report_data"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attestation_type"), []byte("dcap"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quote"), []byte("binary-quote"), 0o600))

	var reportData [64]byte
	copy(reportData[:], "report")

	quote, err := p.Quote(reportData)
	require.NoError(t, err)
	assert.Equal(t, []byte("binary-quote"), quote)

	// Report data was written to the device.
	written, err := os.ReadFile(filepath.Join(dir, "user_report_data"))
	require.NoError(t, err)
	assert.Equal(t, reportData[:], written)

	// And the quote was persisted.
	persisted, err := os.ReadFile(p.QuotePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("binary-quote"), persisted)
}
