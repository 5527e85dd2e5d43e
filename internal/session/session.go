// Package session holds the state of one import run: the bound group, the
// payer and share split, and the pending transactions awaiting upload.
// A Session is owned by a single caller and is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/splitfeed/internal/bank"
	"github.com/cleared-dev/splitfeed/internal/ledger"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/model"
	"github.com/cleared-dev/splitfeed/internal/shares"
	"github.com/cleared-dev/splitfeed/internal/upload"
)

// ErrNoAccounts is returned when no account lister was ever consulted.
var ErrNoAccounts = errors.New("no bank accounts loaded")

// Fetcher pulls normalized transactions for an account.
type Fetcher interface {
	Fetch(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error)
}

// Session is one import run.
type Session struct {
	id           string
	logger       *slog.Logger
	ledger       ledger.Ledger
	group        *model.Group
	payer        *model.Participant
	alloc        *shares.Allocation
	sharesEdited bool
	pending      []model.Transaction
	accounts     *bank.ClientInfo
}

// New starts an empty session.
func New(logger *slog.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{id: id, logger: logger.With(logging.FieldSession, id)}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// LoadGroup binds the session to l, loads its group and resets the payer
// and the share split to the equal default.
func (s *Session) LoadGroup(ctx context.Context, l ledger.Ledger) (*model.Group, error) {
	g, err := l.Group(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading group: %w", err)
	}
	s.ledger = l
	s.group = g
	s.payer = nil
	s.alloc = shares.Default(g.Participants, "")
	s.sharesEdited = false
	s.logger.Info("group loaded", logging.FieldGroup, g.ID, "name", g.Name, "participants", len(g.Participants))
	return g, nil
}

// Group returns the bound group, or nil.
func (s *Session) Group() *model.Group { return s.group }

// Payer returns the selected payer, or nil.
func (s *Session) Payer() *model.Participant { return s.payer }

// Allocation returns the current share split, or nil before LoadGroup.
func (s *Session) Allocation() *shares.Allocation { return s.alloc }

// SelectPayer picks the paying participant by name, or by participant ID
// when no name matches. Unless shares were edited, the default split is
// recomputed with the payer first.
func (s *Session) SelectPayer(name string) error {
	if s.group == nil {
		return upload.ErrNoActiveGroup
	}
	p, ok := s.group.ParticipantByName(name)
	if !ok {
		p, ok = s.group.ParticipantByID(name)
	}
	if !ok {
		return fmt.Errorf("%w: %q (group has %s)", shares.ErrUnknownParticipant, name, strings.Join(s.group.Names(), ", "))
	}
	s.payer = &p
	if !s.sharesEdited {
		s.alloc = shares.Default(s.group.Participants, p.ID)
	}
	return nil
}

// SetShare sets one participant's percent. Other shares are not adjusted;
// check ShareSum before uploading.
func (s *Session) SetShare(name string, percent int) error {
	if s.alloc == nil {
		return upload.ErrNoActiveGroup
	}
	if err := s.alloc.SetByName(name, percent); err != nil {
		return err
	}
	s.sharesEdited = true
	return nil
}

// SetShares replaces the whole split, keyed by participant name.
// Participants not named get 0. The current order is kept.
func (s *Session) SetShares(percents map[string]int) error {
	if s.alloc == nil {
		return upload.ErrNoActiveGroup
	}
	a, err := shares.FromPercents(s.alloc.Participants(), percents)
	if err != nil {
		return err
	}
	s.alloc = a
	s.sharesEdited = true
	return nil
}

// ShareSum is the live total of the split.
func (s *Session) ShareSum() int {
	if s.alloc == nil {
		return 0
	}
	return s.alloc.Sum()
}

// Accounts returns the bank accounts, asking lister only on first use or
// when refresh is set.
func (s *Session) Accounts(ctx context.Context, lister bank.AccountLister, refresh bool) ([]bank.Account, error) {
	if s.accounts == nil || refresh {
		if lister == nil {
			return nil, ErrNoAccounts
		}
		info, err := lister.ClientInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing accounts: %w", err)
		}
		s.accounts = info
		s.logger.Info("accounts loaded", "client", info.Name, "count", len(info.Accounts))
	}
	return append([]bank.Account(nil), s.accounts.Accounts...), nil
}

// FetchStatements replaces the pending list with the account's history.
// On failure any partial result replaces the list and the error is
// returned; a failure with nothing fetched leaves the list untouched.
func (s *Session) FetchStatements(ctx context.Context, f Fetcher, accountID string, start, end time.Time) (int, error) {
	txns, err := f.Fetch(ctx, accountID, start, end)
	if err != nil {
		if len(txns) > 0 {
			s.pending = txns
		}
		s.logger.Warn("fetch incomplete", logging.FieldAccount, accountID, "kept", len(txns), logging.FieldError, err)
		return len(txns), err
	}
	s.pending = txns
	s.logger.Info("statements fetched", logging.FieldAccount, accountID, "count", len(txns))
	return len(txns), nil
}

// AddTransactions appends manual or imported transactions.
func (s *Session) AddTransactions(txns ...model.Transaction) {
	s.pending = append(s.pending, txns...)
}

// Pending returns a copy of the pending list.
func (s *Session) Pending() []model.Transaction {
	return append([]model.Transaction(nil), s.pending...)
}

// SelectAll marks every pending transaction selected or not.
func (s *Session) SelectAll(selected bool) {
	for i := range s.pending {
		s.pending[i].Selected = selected
	}
}

// SelectCategories additionally selects every pending transaction whose
// category matches one of cats, case-insensitively. It returns how many
// transactions are now selected.
func (s *Session) SelectCategories(cats ...string) int {
	want := make(map[string]bool, len(cats))
	for _, c := range cats {
		want[strings.ToLower(strings.TrimSpace(c))] = true
	}
	n := 0
	for i := range s.pending {
		if want[strings.ToLower(s.pending[i].Category)] {
			s.pending[i].Selected = true
		}
		if s.pending[i].Selected {
			n++
		}
	}
	return n
}

// Categories lists the distinct categories of the pending list, sorted.
func (s *Session) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range s.pending {
		if t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}

// Selected returns the selected pending transactions in order.
func (s *Session) Selected() []model.Transaction {
	var out []model.Transaction
	for _, t := range s.pending {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

// UploadSelected posts the selected transactions to the bound group.
// Transactions that were created are removed from the pending list; failed
// and skipped ones stay for another attempt. Result indexes refer to the
// order of Selected().
func (s *Session) UploadSelected(ctx context.Context, opts upload.Options) (*model.UploadResult, error) {
	var positions []int
	var batch []model.Transaction
	for i, t := range s.pending {
		if t.Selected {
			positions = append(positions, i)
			batch = append(batch, t)
		}
	}

	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	res, err := upload.New(s.ledger, opts).Upload(ctx, s.payer, s.alloc, batch)
	if res != nil {
		s.removeCreated(positions, res)
	}
	return res, err
}

func (s *Session) removeCreated(positions []int, res *model.UploadResult) {
	if len(res.Created) == 0 {
		return
	}
	drop := make(map[int]bool, len(res.Created))
	for _, idx := range res.SucceededIndexes() {
		drop[positions[idx]] = true
	}
	kept := s.pending[:0]
	for i, t := range s.pending {
		if !drop[i] {
			kept = append(kept, t)
		}
	}
	s.pending = kept
}
