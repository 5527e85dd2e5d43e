package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/importer"
)

func newExampleCSVCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "example-csv",
		Short: "Print a sample CSV in the simple import format",
		Args:  cobra.NoArgs,
		// No config is needed to print a sample.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), importer.ExampleCSV())
				return err
			}
			if err := os.WriteFile(out, []byte(importer.ExampleCSV()), 0o644); err != nil {
				return fmt.Errorf("writing example: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")

	return cmd
}
