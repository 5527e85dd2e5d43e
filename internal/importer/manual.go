package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/splitfeed/internal/model"
)

var (
	ErrEntryFields      = errors.New("entry needs at least amount and description")
	ErrEntryDescription = errors.New("entry description is empty")
	ErrEntryAmount      = errors.New("entry amount must be positive")
)

// ParseEntry reads one manual expense given in the simple row layout,
// amount,description[,category[,date]]. Fields may be quoted. Entries
// without a date are dated today.
func ParseEntry(entry string, today time.Time) (model.Transaction, error) {
	cr := newCSVReader(strings.NewReader(entry))
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("reading entry %q: %w", entry, err)
	}
	if len(rec) < simpleMinFields {
		return model.Transaction{}, fmt.Errorf("%w: %q", ErrEntryFields, entry)
	}

	txn, err := parseSimpleRow(rec)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("entry %q: %w", entry, err)
	}
	if txn.Description == "" {
		return model.Transaction{}, fmt.Errorf("%w: %q", ErrEntryDescription, entry)
	}
	if !txn.Amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: %q", ErrEntryAmount, entry)
	}
	if !txn.HasDate() {
		y, m, d := today.Date()
		txn.OccurredAt = time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	}
	txn.Source = model.SourceManual
	txn.Selected = true
	return txn, nil
}
