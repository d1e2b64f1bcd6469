// Stats command prints the dashboard card numbers for both views.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/internal/view"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics for both views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "stats:", err)
			os.Exit(exitSysError)
		}
		defer cleanup()

		all, err := sess.Load(cmd.Context(), false)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}

		email := sess.User().Email
		mine := view.Compute(view.ForUser(all, email, view.ModeAssignedToMe))
		assigned := view.Compute(view.ForUser(all, email, view.ModeAssignedByMe))

		if flagJSON {
			out, err := json.MarshalIndent(map[string]view.Stats{
				"mine": mine, "assigned": assigned,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal stats: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		printStats := func(label string, s view.Stats) {
			fmt.Printf("%s: %d total, %d pending, %d in progress, %d completed (%d%%)\n",
				label, s.Total, s.Pending, s.InProgress, s.Completed, s.ProgressPercent)
		}
		printStats("Assigned to me", mine)
		printStats("Assigned by me", assigned)
		return nil
	},
}
