package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/importer"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/model"
	"github.com/cleared-dev/splitfeed/internal/report"
	"github.com/cleared-dev/splitfeed/internal/session"
	"github.com/cleared-dev/splitfeed/internal/upload"
)

// uploadFlags are shared by upload and sync.
type uploadFlags struct {
	payer  string
	dryRun bool
	report string
}

func (f *uploadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.payer, "payer", "", "participant who paid (default ledger.payer)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "validate and report without posting expenses")
	cmd.Flags().StringVar(&f.report, "report", "", "write a CSV report of the upload to this path")
}

// uploadSelected posts the session's selection and reports the outcome.
// It returns an error when any attempted transaction was not posted.
func (a *app) uploadSelected(cmd *cobra.Command, s *session.Session, f uploadFlags) (*model.UploadResult, error) {
	res, err := s.UploadSelected(cmd.Context(), upload.Options{
		Metrics: a.metrics,
		Logger:  a.component(logging.ComponentUpload),
	})
	if res != nil {
		printResult(cmd.OutOrStdout(), res, f.dryRun || a.cfg.Ledger.DryRun)
		if f.report != "" {
			if werr := report.WriteFile(f.report, res); werr != nil {
				a.logger.Warn("report not written", "path", f.report, logging.FieldError, werr)
			}
		}
	}
	if err != nil {
		return res, fmt.Errorf("upload: %w", err)
	}
	if n := res.Failed(); n > 0 {
		return res, fmt.Errorf("%d of %d transactions failed", n, res.Attempted)
	}
	return res, nil
}

func printResult(out io.Writer, res *model.UploadResult, dryRun bool) {
	summary := report.Summary(res)
	if dryRun {
		summary = "dry run: " + summary
	}
	fmt.Fprintln(out, summary)
	for _, f := range res.Failures {
		fmt.Fprintf(out, "  failed #%d %s %s: %s\n",
			f.Index+1, f.Transaction.Amount.StringFixed(2), f.Transaction.Description, f.Reason)
	}
}

func newUploadCommand(a *app) *cobra.Command {
	var (
		flags  uploadFlags
		format string
		scan    string
		all     bool
		entries []string
	)

	cmd := &cobra.Command{
		Use:   "upload [file.csv...]",
		Short: "Post CSV transactions to the Spliit group",
		Long: `Upload reads each file with the chosen parser and posts every selected
transaction as an expense paid by the payer and split by percentage.

Files in the pending format keep their "selected" column unless --all is
given; every other format uploads all rows. Each --entry adds one manual
expense, "amount,description[,category[,date]]", dated today when no date
is given. With --scan the CSV files in
<dir>/import are read too and moved to <dir>/import/processed once every
transaction has been posted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			paths := append([]string(nil), args...)
			var scanned []importer.FileInfo
			if scan != "" {
				files, err := importer.Scan(scan)
				if err != nil {
					return err
				}
				scanned = files
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 && len(entries) == 0 {
				return fmt.Errorf("no input: pass CSV paths, --scan or --entry")
			}

			var manual []model.Transaction
			now := time.Now()
			for _, e := range entries {
				txn, err := importer.ParseEntry(e, now)
				if err != nil {
					return err
				}
				manual = append(manual, txn)
			}

			l, err := a.ledgerFor(flags.dryRun)
			if err != nil {
				return err
			}
			s, err := a.openSession(cmd.Context(), l, flags.payer)
			if err != nil {
				return err
			}

			reg := importer.DefaultRegistry()
			keepSelection := strings.EqualFold(format, "pending") && !all
			for _, p := range paths {
				txns, err := reg.ParseFile(p, format)
				if err != nil {
					return err
				}
				if !keepSelection {
					for i := range txns {
						txns[i].Selected = true
					}
				}
				s.AddTransactions(txns...)
			}
			s.AddTransactions(manual...)

			if _, err := a.uploadSelected(cmd, s, flags); err != nil {
				return err
			}

			if flags.dryRun || a.cfg.Ledger.DryRun {
				return nil
			}
			for _, f := range scanned {
				if err := importer.MarkProcessed(scan, f.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "simple", "input format (simple, chase, pending)")
	cmd.Flags().StringVar(&scan, "scan", "", "also upload CSVs from <dir>/import")
	cmd.Flags().BoolVar(&all, "all", false, "upload every row, ignoring the pending selected column")
	cmd.Flags().StringArrayVarP(&entries, "entry", "e", nil, `manual expense "amount,description[,category[,date]]" (repeatable)`)

	return cmd
}
