package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where a transaction entered the pipeline.
type Source string

const (
	SourceBank   Source = "bank"
	SourceManual Source = "manual"
	SourceCSV    Source = "csv"
)

// Transaction is the canonical record every source converges to.
type Transaction struct {
	ExternalID  string          // bank transaction id; empty for manual and CSV entries
	Amount      decimal.Decimal // always a positive magnitude
	Description string
	Category    string
	MCC         string // merchant category code, bank entries only
	OccurredAt  time.Time
	Selected    bool
	Source      Source
}

// HasExternalID reports whether the transaction came from a bank feed.
func (t Transaction) HasExternalID() bool {
	return t.ExternalID != ""
}

// HasDate reports whether the transaction carries its own date.
func (t Transaction) HasDate() bool {
	return !t.OccurredAt.IsZero()
}

// MinorUnits returns the amount in integer minor currency units (cents),
// rounded half away from zero.
func (t Transaction) MinorUnits() int64 {
	return t.Amount.Shift(2).Round(0).IntPart()
}
