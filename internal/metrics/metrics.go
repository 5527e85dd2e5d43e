// Package metrics records pipeline counters. The Prometheus recorder keeps
// its own registry and is flushed to a node-exporter textfile at the end of
// a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives pipeline events.
type Recorder interface {
	WindowFetched(account string)
	RateLimited(account string)
	TransactionsFetched(account string, n int)
	UploadSucceeded()
	UploadFailed(reason string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) WindowFetched(string)            {}
func (Nop) RateLimited(string)              {}
func (Nop) TransactionsFetched(string, int) {}
func (Nop) UploadSucceeded()                {}
func (Nop) UploadFailed(string)             {}

// Prometheus is a Recorder backed by client_golang counters.
type Prometheus struct {
	registry     *prometheus.Registry
	windows      *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	transactions *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	failures     *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the splitfeed counters on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		windows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfeed_statement_windows_total",
				Help: "Statement windows fetched from the bank",
			},
			[]string{"account"},
		),
		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfeed_statement_rate_limited_total",
				Help: "Statement calls rejected by the bank rate limit",
			},
			[]string{"account"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfeed_statement_transactions_total",
				Help: "Transactions returned by the bank",
			},
			[]string{"account"},
		),
		uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfeed_upload_total",
				Help: "Expense uploads by status",
			},
			[]string{"status"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfeed_upload_failed_total",
				Help: "Failed expense uploads by reason",
			},
			[]string{"reason"},
		),
	}
}

func (p *Prometheus) WindowFetched(account string) {
	p.windows.WithLabelValues(account).Inc()
}

func (p *Prometheus) RateLimited(account string) {
	p.rateLimited.WithLabelValues(account).Inc()
}

func (p *Prometheus) TransactionsFetched(account string, n int) {
	p.transactions.WithLabelValues(account).Add(float64(n))
}

func (p *Prometheus) UploadSucceeded() {
	p.uploads.WithLabelValues("succeeded").Inc()
}

// UploadFailed counts a failure. Reasons other than "invalid response" are
// free-form error text, so they are bucketed as "error" to bound label
// cardinality.
func (p *Prometheus) UploadFailed(reason string) {
	p.uploads.WithLabelValues("failed").Inc()
	if reason != "invalid response" {
		reason = "error"
	}
	p.failures.WithLabelValues(reason).Inc()
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile writes the current values in text exposition format,
// atomically replacing path.
func (p *Prometheus) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
