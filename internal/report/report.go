// Package report renders the outcome of an upload as CSV and as a one-line
// summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cleared-dev/splitfeed/internal/model"
)

// Status of one report row.
const (
	StatusCreated = "created"
	StatusFailed  = "failed"
)

// Row is one attempted transaction.
type Row struct {
	Index       int
	Status      string
	ExternalID  string
	Description string
	Amount      string
	ExpenseID   string
	Reason      string
}

// Header is the CSV header of an upload report.
const Header = "index,status,external_id,description,amount,expense_id,reason"

const (
	numFields      = 7
	colIndex       = 0
	colStatus      = 1
	colExternalID  = 2
	colDescription = 3
	colAmount      = 4
	colExpenseID   = 5
	colReason      = 6
)

// Rows flattens a result into rows ordered by input index.
func Rows(res *model.UploadResult) []Row {
	rows := make([]Row, 0, len(res.Created)+len(res.Failures))
	for _, c := range res.Created {
		rows = append(rows, Row{
			Index:       c.Index,
			Status:      StatusCreated,
			ExternalID:  c.Transaction.ExternalID,
			Description: c.Transaction.Description,
			Amount:      c.Transaction.Amount.StringFixed(2),
			ExpenseID:   c.ExpenseID,
		})
	}
	for _, f := range res.Failures {
		rows = append(rows, Row{
			Index:       f.Index,
			Status:      StatusFailed,
			ExternalID:  f.Transaction.ExternalID,
			Description: f.Transaction.Description,
			Amount:      f.Transaction.Amount.StringFixed(2),
			Reason:      f.Reason,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colIndex] = strconv.Itoa(r.Index)
	rec[colStatus] = r.Status
	rec[colExternalID] = r.ExternalID
	rec[colDescription] = r.Description
	rec[colAmount] = r.Amount
	rec[colExpenseID] = r.ExpenseID
	rec[colReason] = r.Reason
	return rec
}

// Write renders res as CSV with a header.
func Write(w io.Writer, res *model.UploadResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range Rows(res) {
		if err := cw.Write(MarshalRow(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, replacing any existing file.
func WriteFile(path string, res *model.UploadResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Summary returns e.g. "uploaded 4 of 5 transactions, 1 failed".
func Summary(res *model.UploadResult) string {
	if res.Attempted == 0 {
		return "no valid transactions to upload"
	}
	s := fmt.Sprintf("uploaded %d of %d transactions", res.Succeeded, res.Attempted)
	if n := res.Failed(); n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	return s
}
