package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/buildinfo"
	"github.com/cleared-dev/splitfeed/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "splitfeed",
		Short:   "Post bank transactions to a Spliit group as shared expenses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultFile, "config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with tokens")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newGroupCommand(a),
		newAccountsCommand(a),
		newFetchCommand(a),
		newUploadCommand(a),
		newSyncCommand(a),
		newExampleCSVCommand(),
	)

	return rootCmd
}
