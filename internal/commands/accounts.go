package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/bank/monobank"
)

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the Monobank accounts available to the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.bankClient()
			if err != nil {
				return err
			}
			info, err := client.ClientInfo(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected to Monobank as %s\n", info.Name)
			for _, acc := range info.Accounts {
				fmt.Fprintf(out, "%s\t%s\n", acc.ID, monobank.Label(acc))
			}
			return nil
		},
	}
}
