// Package statement pulls an account's history from a bank.StatementSource
// that only serves short windows, walking backward from the end date.
package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitfeed/internal/bank"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/metrics"
	"github.com/cleared-dev/splitfeed/internal/model"
)

const (
	DefaultWindowDays = 30
	DefaultCooldown   = 5 * time.Second
)

var (
	ErrInvalidRange     = errors.New("start date is after end date")
	ErrRateLimited      = errors.New("rate limit retries exhausted")
	ErrTransportFailure = errors.New("statement fetch failed")
)

// Resolver names a merchant category code.
type Resolver interface {
	ResolveMCC(ctx context.Context, mcc int) string
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Window is an inclusive range of calendar days.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) String() string {
	return w.From.Format(time.DateOnly) + ".." + w.To.Format(time.DateOnly)
}

// Progress is reported after every completed window.
type Progress struct {
	DaysProcessed int
	TotalDays     int
	Window        Window
	Found         int
}

// Fraction is DaysProcessed/TotalDays, reaching 1 on the last window.
func (p Progress) Fraction() float64 {
	if p.TotalDays == 0 {
		return 1
	}
	return float64(p.DaysProcessed) / float64(p.TotalDays)
}

// Options configures a Fetcher. Zero durations mean no wait.
type Options struct {
	WindowDays        int
	Cooldown          time.Duration
	RateLimitCooldown time.Duration
	// MaxRateLimitRetries caps retries of one window. Zero retries forever.
	MaxRateLimitRetries int
	Sleep               Sleeper
	OnProgress          func(Progress)
	Metrics             metrics.Recorder
	Logger              *slog.Logger
}

// DefaultOptions returns the provider's published limits.
func DefaultOptions() Options {
	return Options{
		WindowDays:        DefaultWindowDays,
		Cooldown:          DefaultCooldown,
		RateLimitCooldown: DefaultCooldown,
	}
}

// Fetcher turns a date range into a sequence of window calls.
type Fetcher struct {
	source     bank.StatementSource
	categories Resolver
	opts       Options
}

// New returns a fetcher. categories may be nil, in which case every
// category is a placeholder.
func New(source bank.StatementSource, categories Resolver, opts Options) *Fetcher {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{source: source, categories: categories, opts: opts}
}

// Fetch returns every transaction between start and end, inclusive by
// calendar day, most recent window first. On failure the transactions
// gathered so far are returned along with the error.
func (f *Fetcher) Fetch(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error) {
	start, end = day(start), day(end.In(start.Location()))
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	log := f.opts.Logger.With(logging.FieldAccount, accountID)
	total := daysBetween(start, end) + 1
	processed := 0
	var out []model.Transaction

	cursorEnd := end
	for {
		cursorStart := cursorEnd.AddDate(0, 0, -(f.opts.WindowDays - 1))
		if cursorStart.Before(start) {
			cursorStart = start
		}
		w := Window{From: cursorStart, To: cursorEnd}

		items, err := f.fetchWindow(ctx, log, accountID, w)
		if err != nil {
			return out, err
		}
		for _, it := range items {
			if it.Amount == 0 {
				log.Debug("dropping zero-amount item", logging.FieldExternalID, it.ID)
				continue
			}
			out = append(out, f.normalize(ctx, it))
		}
		f.opts.Metrics.WindowFetched(accountID)
		f.opts.Metrics.TransactionsFetched(accountID, len(items))

		processed += daysBetween(cursorStart, cursorEnd) + 1
		log.Debug("window fetched",
			logging.FieldWindowFrom, w.From.Format(time.DateOnly),
			logging.FieldWindowTo, w.To.Format(time.DateOnly),
			logging.FieldFound, len(items), "total", len(out))
		if f.opts.OnProgress != nil {
			f.opts.OnProgress(Progress{DaysProcessed: processed, TotalDays: total, Window: w, Found: len(out)})
		}

		if !cursorStart.After(start) {
			return out, nil
		}
		cursorEnd = cursorStart.AddDate(0, 0, -1)
		if err := f.opts.Sleep(ctx, f.opts.Cooldown); err != nil {
			return out, fmt.Errorf("waiting between windows: %w", err)
		}
	}
}

func (f *Fetcher) fetchWindow(ctx context.Context, log *slog.Logger, accountID string, w Window) ([]bank.StatementItem, error) {
	retries := 0
	for {
		items, err := f.source.Statements(ctx, accountID, w.From, w.To)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, bank.ErrTooManyRequests) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("window %s: %w", w, ctxErr)
			}
			return nil, fmt.Errorf("%w: window %s: %w", ErrTransportFailure, w, err)
		}

		f.opts.Metrics.RateLimited(accountID)
		retries++
		if limit := f.opts.MaxRateLimitRetries; limit > 0 && retries > limit {
			return nil, fmt.Errorf("%w: window %s after %d retries", ErrRateLimited, w, limit)
		}
		log.Warn("rate limited, waiting",
			logging.FieldWindowFrom, w.From.Format(time.DateOnly),
			logging.FieldWindowTo, w.To.Format(time.DateOnly),
			 "cooldown", f.opts.RateLimitCooldown, "attempt", retries)
		if err := f.opts.Sleep(ctx, f.opts.RateLimitCooldown); err != nil {
			return nil, fmt.Errorf("waiting out rate limit: %w", err)
		}
	}
}

func (f *Fetcher) normalize(ctx context.Context, it bank.StatementItem) model.Transaction {
	amount := it.Amount
	if amount < 0 {
		amount = -amount
	}
	var category string
	if f.categories != nil {
		category = f.categories.ResolveMCC(ctx, it.MCC)
	} else {
		category = fmt.Sprintf("Unknown (%04d)", it.MCC)
	}
	return model.Transaction{
		ExternalID:  it.ID,
		Amount:      decimal.New(amount, -2),
		Description: it.Description,
		Category:    category,
		MCC:         fmt.Sprintf("%04d", it.MCC),
		OccurredAt:  time.Unix(it.Time, 0),
		Selected:    false,
		Source:      model.SourceBank,
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, both at midnight.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
