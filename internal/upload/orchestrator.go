// Package upload posts transactions to a ledger group as shared expenses.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cleared-dev/splitfeed/internal/id"
	"github.com/cleared-dev/splitfeed/internal/ledger"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/metrics"
	"github.com/cleared-dev/splitfeed/internal/model"
	"github.com/cleared-dev/splitfeed/internal/shares"
)

var (
	ErrNoActiveGroup   = errors.New("no active group: load a group first")
	ErrNoPayerSelected = errors.New("no payer selected")
)

// ReasonInvalidResponse is the failure reason when the ledger's answer was
// unusable.
const ReasonInvalidResponse = "invalid response"

// Options configures an Orchestrator.
type Options struct {
	Metrics metrics.Recorder
	Logger  *slog.Logger
	// Now supplies the date for transactions without one.
	Now func() time.Time
}

// Orchestrator uploads one batch at a time, sequentially.
type Orchestrator struct {
	ledger  ledger.ExpenseCreator
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// New returns an orchestrator bound to l. A nil l makes every Upload fail
// with ErrNoActiveGroup.
func New(l ledger.ExpenseCreator, opts Options) *Orchestrator {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{ledger: l, metrics: opts.Metrics, logger: opts.Logger, now: opts.Now}
}

// Eligible reports whether t would be attempted by Upload. Amounts that
// round to zero minor units are not eligible.
func Eligible(t model.Transaction) bool {
	return strings.TrimSpace(t.Description) != "" && t.MinorUnits() > 0
}

// Upload posts every eligible transaction. Preconditions are checked before
// any call is made; after that, item failures are collected in the result
// and never abort the batch. The only error after the preconditions is a
// cancelled context, returned together with the partial result.
func (o *Orchestrator) Upload(ctx context.Context, payer *model.Participant, alloc *shares.Allocation, txns []model.Transaction) (*model.UploadResult, error) {
	if o.ledger == nil {
		return nil, ErrNoActiveGroup
	}
	if payer == nil || payer.ID == "" {
		return nil, ErrNoPayerSelected
	}
	if err := alloc.Validate(); err != nil {
		return nil, err
	}

	paidFor := toPaidFor(alloc.Weights())
	result := &model.UploadResult{}
	for i, t := range txns {
		if !Eligible(t) {
			o.logger.Debug("skipping transaction", "index", i, "description", t.Description, "amount", t.Amount.String())
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("upload interrupted after %d of %d: %w", result.Attempted, len(txns), err)
		}

		result.Attempted++
		req := o.request(payer.ID, paidFor, t)
		created, err := o.ledger.AddExpense(ctx, req)
		if err == nil && (created == nil || created.ID == "") {
			err = ledger.ErrInvalidResponse
		}
		if err != nil {
			reason := err.Error()
			if errors.Is(err, ledger.ErrInvalidResponse) {
				reason = ReasonInvalidResponse
			}
			o.logger.Warn("upload failed", "index", i, "title", req.Title,
				logging.FieldExternalID, t.ExternalID, logging.FieldReason, reason)
			o.metrics.UploadFailed(reason)
			result.Failures = append(result.Failures, model.UploadFailure{Index: i, Transaction: t, Reason: reason})
			continue
		}

		o.logger.Info("expense created", "index", i, "title", req.Title,
			logging.FieldExternalID, t.ExternalID, logging.FieldExpenseID, created.ID, logging.FieldAmount, req.Amount)
		o.metrics.UploadSucceeded()
		result.Succeeded++
		result.Created = append(result.Created, model.CreatedExpense{Index: i, Transaction: t, ExpenseID: created.ID})
	}
	return result, nil
}

func (o *Orchestrator) request(payerID string, paidFor []ledger.PaidFor, t model.Transaction) ledger.ExpenseRequest {
	var notes string
	if t.Category != "" {
		notes = "Category: " + t.Category
	}
	date := t.OccurredAt
	if !t.HasDate() {
		date = o.now()
	}
	return ledger.ExpenseRequest{
		Title:     id.Title(t.Description, t.ExternalID),
		Amount:    t.MinorUnits(),
		PaidBy:    payerID,
		PaidFor:   paidFor,
		Notes:     notes,
		SplitMode: ledger.SplitByPercentage,
		Date:      date,
	}
}

func toPaidFor(weights []shares.Weight) []ledger.PaidFor {
	out := make([]ledger.PaidFor, len(weights))
	for i, w := range weights {
		out[i] = ledger.PaidFor{ParticipantID: w.ParticipantID, Shares: w.BasisPoints}
	}
	return out
}
