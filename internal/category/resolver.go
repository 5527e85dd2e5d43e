// Package category resolves merchant category codes to descriptions.
// Lookups are best effort: any failure yields a placeholder label.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/cleared-dev/splitfeed/internal/logging"
)

const tableKey = "mcc-table"

// Options configures a Resolver.
type Options struct {
	// TTL is how long a loaded table is reused. Default 1h.
	TTL time.Duration
	// FailureTTL is how long an empty table is reused after a failed load.
	// Default 1m.
	FailureTTL time.Duration
	Logger     *slog.Logger
}

// Resolver maps codes to descriptions, loading the table lazily.
type Resolver struct {
	src        Source
	cache      *cache.Cache
	group      singleflight.Group
	ttl        time.Duration
	failureTTL time.Duration
	logger     *slog.Logger
}

// NewResolver returns a resolver reading from src.
func NewResolver(src Source, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		src:        src,
		cache:      cache.New(opts.TTL, 2*opts.TTL),
		ttl:        opts.TTL,
		failureTTL: opts.FailureTTL,
		logger:     opts.Logger,
	}
}

// Placeholder is the label for a code with no description.
func Placeholder(code string) string {
	return fmt.Sprintf("Unknown (%s)", code)
}

// Resolve returns the description for code, or Placeholder(code).
func (r *Resolver) Resolve(ctx context.Context, code string) string {
	code = Normalize(code)
	if desc, ok := r.table(ctx)[code]; ok {
		return desc
	}
	return Placeholder(code)
}

// ResolveMCC resolves a numeric code as reported by the bank.
func (r *Resolver) ResolveMCC(ctx context.Context, mcc int) string {
	return r.Resolve(ctx, fmt.Sprintf("%04d", mcc))
}

func (r *Resolver) table(ctx context.Context) map[string]string {
	if t, ok := r.cache.Get(tableKey); ok {
		return t.(map[string]string)
	}
	v, _, _ := r.group.Do(tableKey, func() (any, error) {
		if t, ok := r.cache.Get(tableKey); ok {
			return t, nil
		}
		t, err := r.src.Load(ctx)
		if err != nil {
			r.logger.Warn("failed to load MCC codes", logging.FieldError, err)
			t = map[string]string{}
			r.cache.Set(tableKey, t, r.failureTTL)
			return t, nil
		}
		r.logger.Debug("MCC codes loaded", "count", len(t))
		r.cache.Set(tableKey, t, r.ttl)
		return t, nil
	})
	return v.(map[string]string)
}
