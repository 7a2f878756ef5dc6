package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type reconcileOptions struct {
	Date string
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Build the task list for a date and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, l, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer db.Close()

			loc, err := rootOpts.cfg.Location()
			if err != nil {
				return err
			}

			date := opts.Date
			if date == "" || date == "today" {
				date = l.Today()
			}
			list, err := l.EnsureDaily(date)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", date, err)
			}

			out := cmd.OutOrStdout()
			stats := l.DailyStats(date)
			fmt.Fprintf(out, "%s: %d tasks, %d completed, %d points\n", date, len(list), stats.Completed, stats.Points)
			for _, it := range list {
				if it.Completed {
					done := it.CompletedTime().In(loc).Format("15:04")
					fmt.Fprintf(out, "[x] %-30s %4d  %s\n", it.Title, it.Points, done)
					continue
				}
				fmt.Fprintf(out, "[ ] %-30s %4d\n", it.Title, it.Points)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "date as YYYY-MM-DD (default today)")

	return cmd
}
