package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitfeed/internal/config"
)

const envExample = `# Copy to .env and fill in. Never commit the real file.
MONOBANK_TOKEN=
SPLIIT_GROUP_URL=https://spliit.app/groups/your-group-id
SPLITFEED_PAYER=
`

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter splitfeed.yaml and import directory",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(out io.Writer, dir string, force bool) error {
	cfgPath := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	for _, d := range []string{"import", filepath.Join("import", "processed"), "reports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env.example"), []byte(envExample), 0o644); err != nil {
		return fmt.Errorf("writing .env.example: %w", err)
	}

	gitignore := ".env\nreports/\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(out, "Initialized splitfeed project at %s\n", dir)
	return nil
}
