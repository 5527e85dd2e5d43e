// Package memory is an in-process ledger.Ledger used for dry runs and
// tests. It records every request and never talks to the network.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/cleared-dev/splitfeed/internal/ledger"
	"github.com/cleared-dev/splitfeed/internal/model"
)

// ErrNoGroup is returned by Group when the ledger was built without one.
var ErrNoGroup = errors.New("memory ledger: no group")

// Ledger serves a fixed group and stores created expenses.
type Ledger struct {
	mu       sync.Mutex
	group    *model.Group
	requests []ledger.ExpenseRequest
	created  []ledger.CreatedExpense
	failures map[int]error
	calls    int
}

var _ ledger.Ledger = (*Ledger)(nil)

// New returns a ledger bound to group. A nil group makes Group fail.
func New(group *model.Group) *Ledger {
	return &Ledger{group: group, failures: make(map[int]error)}
}

// FailCall makes the n-th AddExpense call (zero-based) return err.
func (l *Ledger) FailCall(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[n] = err
}

func (l *Ledger) Group(_ context.Context) (*model.Group, error) {
	if l.group == nil {
		return nil, ErrNoGroup
	}
	g := *l.group
	g.Participants = append([]model.Participant(nil), l.group.Participants...)
	return &g, nil
}

func (l *Ledger) AddExpense(ctx context.Context, req ledger.ExpenseRequest) (*ledger.CreatedExpense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.calls
	l.calls++
	l.requests = append(l.requests, req)
	if err, ok := l.failures[n]; ok {
		return nil, err
	}
	created := ledger.CreatedExpense{ID: uuid.NewString()}
	l.created = append(l.created, created)
	return &created, nil
}

// Requests returns every AddExpense request received, failed ones included.
func (l *Ledger) Requests() []ledger.ExpenseRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.ExpenseRequest(nil), l.requests...)
}

// Created returns the expenses that were stored.
func (l *Ledger) Created() []ledger.CreatedExpense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.CreatedExpense(nil), l.created...)
}
