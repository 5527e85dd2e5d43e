// Package bank defines the port the statement pipeline uses to read a bank
// account's history. Adapters live in subpackages.
package bank

import (
	"context"
	"errors"
	"time"
)

// ErrTooManyRequests is returned by a StatementSource when the provider's
// rate limit was hit. Callers wait and retry the same request.
var ErrTooManyRequests = errors.New("bank: too many requests")

// Account is one account from the client's profile.
type Account struct {
	ID           string
	Type         string
	CurrencyCode int
	// Balance is in minor currency units.
	Balance   int64
	MaskedPan []string
	IBAN      string
}

// ClientInfo is the profile of the token owner.
type ClientInfo struct {
	ClientID string
	Name     string
	Accounts []Account
}

// StatementItem is one raw statement entry as reported by the provider.
// Amount is signed and in minor currency units; Time is a unix timestamp.
type StatementItem struct {
	ID           string
	Time         int64
	Description  string
	MCC          int
	Amount       int64
	CurrencyCode int
	Balance      int64
}

// StatementSource returns the entries of one account between two calendar
// days, inclusive. The caller keeps the range within the provider window.
type StatementSource interface {
	Statements(ctx context.Context, accountID string, from, to time.Time) ([]StatementItem, error)
}

// AccountLister returns the token owner's profile and accounts.
type AccountLister interface {
	ClientInfo(ctx context.Context) (*ClientInfo, error)
}
