package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var (
		name  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded proposal check runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := appCtx.History()
			if err != nil {
				return err
			}
			runs, err := h.ListRuns(cmd.Context(), name, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tPROPOSAL\tMODE\tBLOCK\tRESULT\tPCV\tDURATION")
			for _, r := range runs {
				result := "pass"
				if !r.Passed {
					result = fmt.Sprintf("fail (%d)", len(r.Failures))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Proposal, r.Mode, r.Block,
					result, r.PCVDelta, r.Duration.Round(time.Millisecond))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(runs) == 1 && !runs[0].Passed {
				fmt.Println("\n" + strings.Join(runs[0].Failures, "\n"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "proposal", "", "only runs of this proposal")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show (0 = all)")
	return cmd
}
