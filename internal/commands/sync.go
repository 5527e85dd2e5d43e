package commands

import (
	"github.com/spf13/cobra"
)

func newSyncCommand(a *app) *cobra.Command {
	var (
		fetch fetchFlags
		up    uploadFlags
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch statements and upload them in one step",
		Long: `Sync fetches the date range and uploads the selection without writing a
pending file. Every transaction is selected unless --category narrows it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			l, err := a.ledgerFor(up.dryRun)
			if err != nil {
				return err
			}
			s, err := a.openSession(cmd.Context(), l, up.payer)
			if err != nil {
				return err
			}

			fetch.selectAll = len(fetch.categories) == 0
			if err := a.fetchInto(cmd, s, fetch); err != nil {
				return err
			}
			_, err = a.uploadSelected(cmd, s, up)
			return err
		},
	}

	fetch.register(cmd)
	up.register(cmd)

	return cmd
}
