package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitfeed/internal/model"
)

// SimpleParser reads hand-written expense lists:
//
//	amount,description[,category[,date]]
//
// The first row is a header. Rows with fewer than two fields are skipped.
type SimpleParser struct{}

const (
	simpleColAmount   = 0
	simpleColDesc     = 1
	simpleColCategory = 2
	simpleColDate     = 3
	simpleMinFields   = 2
)

const simpleExample = `amount,description,category
100.50,Groceries,Food
25.00,Coffee,Drinks
`

// ExampleCSV returns a template in the simple format.
func ExampleCSV() string { return simpleExample }

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

// Parse reads a simple CSV and returns manual Transactions.
func (p *SimpleParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := newCSVReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading simple CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		if len(rec) < simpleMinFields {
			continue
		}
		txn, err := parseSimpleRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseSimpleRow(rec []string) (model.Transaction, error) {
	raw := strings.TrimSpace(rec[simpleColAmount])
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", raw, err)
	}

	txn := model.Transaction{
		Amount:      amount,
		Description: strings.TrimSpace(rec[simpleColDesc]),
		Source:      model.SourceCSV,
	}
	if len(rec) > simpleColCategory {
		txn.Category = strings.TrimSpace(rec[simpleColCategory])
	}
	if len(rec) > simpleColDate {
		if d := strings.TrimSpace(rec[simpleColDate]); d != "" {
			date, err := time.ParseInLocation(time.DateOnly, d, time.Local)
			if err != nil {
				return model.Transaction{}, fmt.Errorf("parsing date %q: %w", d, err)
			}
			txn.OccurredAt = date
		}
	}
	return txn, nil
}
