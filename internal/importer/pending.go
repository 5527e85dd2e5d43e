package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitfeed/internal/model"
)

// PendingParser reads the review file written by WritePending, so fetched
// transactions can be edited and selected before upload.
type PendingParser struct{}

var pendingHeader = []string{"external_id", "date", "amount", "description", "category", "mcc", "selected"}

const (
	pendingColExternalID = 0
	pendingColDate       = 1
	pendingColAmount     = 2
	pendingColDesc       = 3
	pendingColCategory   = 4
	pendingColMCC        = 5
	pendingColSelected   = 6
	pendingNumFields     = 7
)

// Format returns the parser name.
func (p *PendingParser) Format() string { return "pending" }

// Parse reads a pending review file.
func (p *PendingParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := newCSVReader(r)
	cr.FieldsPerRecord = pendingNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading pending CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	txns := make([]model.Transaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		txn, err := parsePendingRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parsePendingRow(rec []string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(rec[pendingColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[pendingColAmount], err)
	}

	txn := model.Transaction{
		ExternalID:  rec[pendingColExternalID],
		Amount:      amount,
		Description: rec[pendingColDesc],
		Category:    rec[pendingColCategory],
		MCC:         rec[pendingColMCC],
		Source:      model.SourceCSV,
	}
	if txn.ExternalID != "" {
		txn.Source = model.SourceBank
	}

	if d := rec[pendingColDate]; d != "" {
		date, err := parsePendingDate(d)
		if err != nil {
			return model.Transaction{}, err
		}
		txn.OccurredAt = date
	}

	if s := strings.TrimSpace(rec[pendingColSelected]); s != "" {
		sel, err := strconv.ParseBool(s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing selected %q: %w", s, err)
		}
		txn.Selected = sel
	}
	return txn, nil
}

func parsePendingDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// WritePending writes txns in the pending review format.
func WritePending(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pendingHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txns {
		var date string
		if t.HasDate() {
			date = t.OccurredAt.Format(time.RFC3339)
		}
		rec := []string{
			t.ExternalID,
			date,
			t.Amount.StringFixed(2),
			t.Description,
			t.Category,
			t.MCC,
			strconv.FormatBool(t.Selected),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
