package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/importer"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/model"
	"github.com/cleared-dev/splitfeed/internal/session"
)

// fetchFlags are shared by fetch and sync.
type fetchFlags struct {
	account    string
	from       string
	to         string
	categories []string
	selectAll  bool
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.account, "account", "", "Monobank account ID (default bank.account)")
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD (default: lookback_days before --to)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "select transactions in these categories")
}

// fetchInto pulls statements into s and applies the selection flags.
func (a *app) fetchInto(cmd *cobra.Command, s *session.Session, f fetchFlags) error {
	account := f.account
	if account == "" {
		account = a.cfg.Bank.Account
	}
	if account == "" {
		return errNoAccount
	}
	start, end, err := a.dateRange(f.from, f.to, time.Now())
	if err != nil {
		return err
	}
	fetcher, err := a.fetcher(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	n, fetchErr := s.FetchStatements(cmd.Context(), fetcher, account, start, end)
	if fetchErr != nil && n == 0 {
		return fmt.Errorf("fetching statements: %w", fetchErr)
	}

	if f.selectAll {
		s.SelectAll(true)
	}
	selected := len(s.Selected())
	if len(f.categories) > 0 {
		selected = s.SelectCategories(f.categories...)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d transactions from %s to %s, %d selected\n",
		n, start.Format(time.DateOnly), end.Format(time.DateOnly), selected)
	if cats := s.Categories(); len(cats) > 0 {
		fmt.Fprintf(out, "categories: %s\n", strings.Join(cats, ", "))
	}
	if fetchErr != nil {
		return fmt.Errorf("fetch incomplete, kept %d transactions: %w", n, fetchErr)
	}
	return nil
}

func newFetchCommand(a *app) *cobra.Command {
	var (
		flags fetchFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download Monobank statements into a pending CSV for review",
		Long: `Fetch walks the date range backwards in 30-day windows, pausing between
requests to stay inside the Monobank rate limit. The result is written as a
pending CSV; edit its "selected" column and pass it to "upload --format pending".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			s := session.New(a.component(logging.ComponentSession))
			fetchErr := a.fetchInto(cmd, s, flags)
			pending := s.Pending()
			if len(pending) == 0 {
				return fetchErr
			}

			if err := writePending(out, pending); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return fetchErr
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.selectAll, "select-all", false, "mark every transaction selected")
	cmd.Flags().StringVarP(&out, "out", "o", "pending.csv", "pending CSV to write")

	return cmd
}

func writePending(path string, txns []model.Transaction) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating pending file: %w", err)
	}
	if err := importer.WritePending(f, txns); err != nil {
		f.Close()
		return fmt.Errorf("writing pending file: %w", err)
	}
	return f.Close()
}
