package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitfeed/internal/model"
)

func testResult() *model.UploadResult {
	coffee := model.Transaction{ExternalID: "12345", Description: "Coffee", Amount: decimal.RequireFromString("150")}
	taxi := model.Transaction{Description: "Taxi, airport", Amount: decimal.RequireFromString("32.5")}
	lunch := model.Transaction{Description: "Lunch", Amount: decimal.RequireFromString("12")}
	return &model.UploadResult{
		Attempted: 3,
		Succeeded: 2,
		Created: []model.CreatedExpense{
			{Index: 0, Transaction: coffee, ExpenseID: "e-1"},
			{Index: 4, Transaction: lunch, ExpenseID: "e-2"},
		},
		Failures: []model.UploadFailure{
			{Index: 2, Transaction: taxi, Reason: "invalid response"},
		},
	}
}

func TestRows_OrderedByIndex(t *testing.T) {
	rows := Rows(testResult())
	require.Len(t, rows, 3)
	assert.Equal(t, []int{0, 2, 4}, []int{rows[0].Index, rows[1].Index, rows[2].Index})
	assert.Equal(t, StatusFailed, rows[1].Status)
	assert.Equal(t, "invalid response", rows[1].Reason)
	assert.Equal(t, "32.50", rows[1].Amount)
	assert.Equal(t, "e-1", rows[0].ExpenseID)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"index", "status", "external_id", "description", "amount", "expense_id", "reason"}, records[0])
	assert.Equal(t, []string{"0", "created", "12345", "Coffee", "150.00", "e-1", ""}, records[1])
	assert.Equal(t, []string{"2", "failed", "", "Taxi, airport", "32.50", "", "invalid response"}, records[2])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "upload.csv")
	require.NoError(t, WriteFile(path, testResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), Header+"\n")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "uploaded 2 of 3 transactions, 1 failed", Summary(testResult()))
	assert.Equal(t, "uploaded 1 of 1 transactions", Summary(&model.UploadResult{Attempted: 1, Succeeded: 1}))
	assert.Equal(t, "no valid transactions to upload", Summary(&model.UploadResult{}))
}
