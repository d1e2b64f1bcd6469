// Set command writes one cell of one task row.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/pkg/types"
)

var setCmd = &cobra.Command{
	Use:   "set <row> <column> <value>",
	Short: "Set one cell of a task row",
	Long: `Set writes a single cell. Row numbers are 0-based positions as shown
by 'opsportal list --json'.

Valid column names: task, description, assigned_to, assigned_by, due_date,
status, created_at.

Example:
  opsportal set 3 status Completed
  opsportal set 0 due_date 2026-10-01`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "set: invalid row %q\n", args[0])
			os.Exit(exitUserError)
		}
		column, value := args[1], args[2]

		if column == types.ColStatus && !types.ValidStatus(value) {
			fmt.Fprintf(os.Stderr, "set: invalid status %q (valid: %s)\n",
				value, strings.Join([]string{types.StatusPending, types.StatusInProgress, types.StatusCompleted}, ", "))
			os.Exit(exitUserError)
		}

		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "set:", err)
			os.Exit(exitSysError)
		}
		defer cleanup()

		if err := sess.UpdateCell(cmd.Context(), pos, column, value); err != nil {
			if errors.Is(err, types.ErrUnknownColumn) || errors.Is(err, types.ErrRowOutOfRange) {
				fmt.Fprintln(os.Stderr, "set:", err)
				os.Exit(exitUserError)
			}
			return fmt.Errorf("update cell: %w", err)
		}

		fmt.Printf("Set %s of row %d to %q\n", column, pos, value)
		return nil
	},
}
