package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/bank/monobank"
	"github.com/cleared-dev/splitfeed/internal/category"
	"github.com/cleared-dev/splitfeed/internal/config"
	"github.com/cleared-dev/splitfeed/internal/ledger"
	"github.com/cleared-dev/splitfeed/internal/ledger/memory"
	"github.com/cleared-dev/splitfeed/internal/ledger/spliit"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/metrics"
	"github.com/cleared-dev/splitfeed/internal/model"
	"github.com/cleared-dev/splitfeed/internal/session"
	"github.com/cleared-dev/splitfeed/internal/statement"
)

var (
	errNoGroupURL = errors.New("no group URL: set ledger.group_url or " + config.EnvGroupURL)
	errNoToken    = errors.New("no Monobank token: set " + config.EnvMonobankToken + " or bank.token")
	errNoAccount  = errors.New("no account: pass --account or set bank.account")
)

// app is the state shared by subcommands after flag parsing.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Prometheus
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	a.metrics = metrics.NewPrometheus()
	return nil
}

func (a *app) component(name string) *slog.Logger {
	return logging.WithComponent(a.logger, name)
}

// flushMetrics writes the textfile if one is configured.
func (a *app) flushMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("metrics not written", "path", path, logging.FieldError, err)
	}
}

func (a *app) spliitClient() (*spliit.Client, error) {
	if a.cfg.Ledger.GroupURL == "" {
		return nil, errNoGroupURL
	}
	return spliit.New(a.cfg.Ledger.GroupURL, spliit.Options{
		Logger: a.component(logging.ComponentSpliit),
	})
}

// dryRunLedger reads the real group but keeps expenses in memory.
type dryRunLedger struct {
	ledger.GroupReader
	*memory.Ledger
}

func (d dryRunLedger) Group(ctx context.Context) (*model.Group, error) {
	return d.GroupReader.Group(ctx)
}

func (a *app) ledgerFor(dryRun bool) (ledger.Ledger, error) {
	c, err := a.spliitClient()
	if err != nil {
		return nil, err
	}
	if dryRun || a.cfg.Ledger.DryRun {
		a.logger.Info("dry run: expenses stay in memory", logging.FieldGroup, c.GroupID())
		return dryRunLedger{GroupReader: c, Ledger: memory.New(nil)}, nil
	}
	a.logger.Debug("ledger bound", logging.FieldGroup, c.GroupID())
	return c, nil
}

func (a *app) bankClient() (*monobank.Client, error) {
	if a.cfg.Bank.Token == "" {
		return nil, errNoToken
	}
	return monobank.New(monobank.Options{
		BaseURL:         a.cfg.Bank.BaseURL,
		Token:           a.cfg.Bank.Token,
		Timeout:         a.cfg.Bank.Timeout,
		RequestInterval: a.cfg.Bank.RequestInterval,
		Logger:          a.component(logging.ComponentMonobank),
	})
}

func (a *app) categories() *category.Resolver {
	var src category.Source = category.HTTPSource{URL: a.cfg.Categories.SourceURL}
	if a.cfg.Categories.File != "" {
		src = category.FileSource{Path: a.cfg.Categories.File}
	}
	return category.NewResolver(src, category.Options{
		TTL:        a.cfg.Categories.TTL,
		FailureTTL: a.cfg.Categories.FailureTTL,
		Logger:     a.component(logging.ComponentCategory),
	})
}

func (a *app) fetcher(progress io.Writer) (*statement.Fetcher, error) {
	client, err := a.bankClient()
	if err != nil {
		return nil, err
	}
	log := a.component(logging.ComponentFetch)
	return statement.New(client, a.categories(), statement.Options{
		WindowDays:          a.cfg.Fetch.WindowDays,
		Cooldown:            a.cfg.Fetch.Cooldown,
		RateLimitCooldown:   a.cfg.Fetch.RateLimitCooldown,
		MaxRateLimitRetries: a.cfg.Fetch.MaxRateLimitRetries,
		Metrics:             a.metrics,
		Logger:              log,
		OnProgress: func(p statement.Progress) {
			fmt.Fprintf(progress, "fetched %s: %d transactions so far (%.0f%%)\n",
				p.Window, p.Found, p.Fraction()*100)
		},
	}), nil
}

// openSession loads the group and applies payer and share settings.
func (a *app) openSession(ctx context.Context, l ledger.Ledger, payer string) (*session.Session, error) {
	s := session.New(a.component(logging.ComponentSession))
	if _, err := s.LoadGroup(ctx, l); err != nil {
		return nil, err
	}
	if payer == "" {
		payer = a.cfg.Ledger.Payer
	}
	if payer != "" {
		if err := s.SelectPayer(payer); err != nil {
			return nil, err
		}
	}
	if len(a.cfg.Ledger.Shares) > 0 {
		if err := s.SetShares(a.cfg.Ledger.Shares); err != nil {
			return nil, fmt.Errorf("applying configured shares: %w", err)
		}
	}
	return s, nil
}

// dateRange resolves --from/--to, defaulting to the configured lookback
// ending today.
func (a *app) dateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --to: %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -a.cfg.Fetch.LookbackDays)
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --from: %w", err)
		}
		start = t
	}
	return start, end, nil
}
