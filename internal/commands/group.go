package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newGroupCommand(a *app) *cobra.Command {
	var payer string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Show the Spliit group, its participants and the share split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.ledgerFor(false)
			if err != nil {
				return err
			}
			s, err := a.openSession(cmd.Context(), l, payer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			g := s.Group()
			fmt.Fprintf(out, "Group: %s (%s)\n", g.Name, g.ID)
			alloc := s.Allocation()
			if p := s.Payer(); p != nil {
				pct, _ := alloc.Percent(p.ID)
				fmt.Fprintf(out, "Payer: %s (%d%%)\n", p.Name, pct)
			} else {
				fmt.Fprintln(out, "Payer: (none selected)")
			}

			fmt.Fprintf(out, "Participants: %d\n", alloc.Len())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PARTICIPANT\tID\tSHARE")
			for _, p := range alloc.Participants() {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\n", p.Name, p.ID, p.SharePercent)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if sum := s.ShareSum(); sum != 100 {
				fmt.Fprintf(out, "Warning: shares total %d%%, uploads need exactly 100%%\n", sum)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&payer, "payer", "", "participant who paid (overrides config)")

	return cmd
}
