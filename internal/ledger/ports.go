// Package ledger defines the port the upload pipeline posts shared expenses
// to. Adapters live in subpackages.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cleared-dev/splitfeed/internal/model"
)

// ErrInvalidResponse is returned when the ledger answered but the response
// could not be parsed or carried no expense id.
var ErrInvalidResponse = errors.New("invalid response")

// SplitMode is how an expense is divided among PaidFor.
type SplitMode string

const (
	SplitEvenly       SplitMode = "EVENLY"
	SplitByShares     SplitMode = "BY_SHARES"
	SplitByPercentage SplitMode = "BY_PERCENTAGE"
	SplitByAmount     SplitMode = "BY_AMOUNT"
)

// PaidFor is one beneficiary of an expense. With SplitByPercentage, Shares
// is in basis points and all entries total 10000.
type PaidFor struct {
	ParticipantID string
	Shares        int
}

// ExpenseRequest is one expense to create. Amount is in minor currency
// units.
type ExpenseRequest struct {
	Title     string
	Amount    int64
	PaidBy    string
	PaidFor   []PaidFor
	Notes     string
	SplitMode SplitMode
	Date      time.Time
}

// CreatedExpense is the ledger's acknowledgement of a created expense.
type CreatedExpense struct {
	ID string
}

// GroupReader loads the bound group and its participants.
type GroupReader interface {
	Group(ctx context.Context) (*model.Group, error)
}

// ExpenseCreator posts one expense to the bound group.
type ExpenseCreator interface {
	AddExpense(ctx context.Context, req ExpenseRequest) (*CreatedExpense, error)
}

// Ledger is a group-bound expense ledger.
type Ledger interface {
	GroupReader
	ExpenseCreator
}
