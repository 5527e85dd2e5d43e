package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_WriteTextfile(t *testing.T) {
	p := NewPrometheus()
	p.WindowFetched("acc")
	p.WindowFetched("acc")
	p.RateLimited("acc")
	p.TransactionsFetched("acc", 7)
	p.UploadSucceeded()
	p.UploadFailed("invalid response")
	p.UploadFailed("spliit: boom (status 500)")

	path := filepath.Join(t.TempDir(), "splitfeed.prom")
	require.NoError(t, p.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `splitfeed_statement_windows_total{account="acc"} 2`)
	assert.Contains(t, out, `splitfeed_statement_rate_limited_total{account="acc"} 1`)
	assert.Contains(t, out, `splitfeed_statement_transactions_total{account="acc"} 7`)
	assert.Contains(t, out, `splitfeed_upload_total{status="succeeded"} 1`)
	assert.Contains(t, out, `splitfeed_upload_total{status="failed"} 2`)
	assert.Contains(t, out, `splitfeed_upload_failed_total{reason="invalid response"} 1`)
	assert.Contains(t, out, `splitfeed_upload_failed_total{reason="error"} 1`)
}

func TestPrometheus_RegistriesIndependent(t *testing.T) {
	a, b := NewPrometheus(), NewPrometheus()
	a.UploadSucceeded()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "splitfeed_upload_total", f.GetName())
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.WindowFetched("a")
	r.RateLimited("a")
	r.TransactionsFetched("a", 1)
	r.UploadSucceeded()
	r.UploadFailed("x")
}
