package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"150.00", 15000},
		{"0.01", 1},
		{"12.345", 1235},
		{"12.344", 1234},
		{"99.999", 10000},
	}
	for _, tt := range tests {
		txn := Transaction{Amount: decimal.RequireFromString(tt.amount)}
		assert.Equal(t, tt.want, txn.MinorUnits(), "MinorUnits(%s)", tt.amount)
	}
}

func TestTransactionFlags(t *testing.T) {
	bank := Transaction{ExternalID: "abc", OccurredAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.True(t, bank.HasExternalID())
	assert.True(t, bank.HasDate())

	manual := Transaction{}
	assert.False(t, manual.HasExternalID())
	assert.False(t, manual.HasDate())
}

func TestGroupLookup(t *testing.T) {
	g := Group{Participants: []Participant{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}}}

	p, ok := g.ParticipantByName("Bob")
	assert.True(t, ok)
	assert.Equal(t, "p2", p.ID)

	_, ok = g.ParticipantByName("Carol")
	assert.False(t, ok)

	p, ok = g.ParticipantByID("p1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", p.Name)

	assert.Equal(t, []string{"Alice", "Bob"}, g.Names())
}

func TestUploadResultCounts(t *testing.T) {
	r := &UploadResult{
		Attempted: 3,
		Succeeded: 2,
		Created:   []CreatedExpense{{Index: 0}, {Index: 2}},
		Failures:  []UploadFailure{{Index: 1, Reason: "boom"}},
	}
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, []int{0, 2}, r.SucceededIndexes())
}
