// List command renders one dashboard view with filters and pagination.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/internal/view"
)

var (
	listView    string
	listStatus  []string
	listRange   string
	listFrom    string
	listTo      string
	listOverdue bool
	listPage    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in one dashboard view",
	Long: `List shows the acting user's tasks, newest first.

The --view flag selects between the two dashboard views:
  mine       tasks assigned to you (default)
  assigned   tasks you created for others

Example:
  opsportal list
  opsportal list --view assigned --status Pending,In-Progress
  opsportal list --range this-week --page 2
  opsportal list --overdue`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	sess, cleanup, err := openSession(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}
	defer cleanup()

	all, err := sess.Load(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	var statuses []string
	for _, raw := range listStatus {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	rows := view.ForUser(all, sess.User().Email, listView)
	rows = view.Apply(rows, view.Filter{
		Statuses:    statuses,
		Range:       listRange,
		From:        listFrom,
		To:          listTo,
		OverdueOnly: listOverdue,
	})
	view.SortNewestFirst(rows)
	page, totalPages := view.Paginate(rows, listPage, view.RowsPerPage)

	if flagJSON {
		out, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal tasks: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(page) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	today := time.Now().UTC()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tASSIGNED TO\tASSIGNED BY\tDUE\tSTATUS")
	for _, t := range page {
		due := t.DueDate
		if view.IsOverdue(t, today) {
			due += " (overdue)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Title, t.AssignedTo, t.AssignedBy, due, t.Status)
	}
	w.Flush()
	fmt.Printf("page %d of %d (%d tasks)\n", min(max(listPage, 1), totalPages), totalPages, len(rows))
	return nil
}

func init() {
	listCmd.Flags().StringVar(&listView, "view", view.ModeAssignedToMe, "view: mine or assigned")
	listCmd.Flags().StringSliceVar(&listStatus, "status", nil, "filter by status (repeatable or comma-separated)")
	listCmd.Flags().StringVar(&listRange, "range", "", "date range: all, this-week, last-week, this-month, last-month, custom")
	listCmd.Flags().StringVar(&listFrom, "from", "", "custom range start (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "custom range end (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "only overdue tasks")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
}
