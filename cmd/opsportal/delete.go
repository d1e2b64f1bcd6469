// Delete command removes one task row.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/pkg/types"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <row>",
	Short: "Delete one task row",
	Long: `Delete removes the task at the given 0-based position. Backends that
cannot delete rows in place fall back to rewriting the whole worksheet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "delete: invalid row %q\n", args[0])
			os.Exit(exitUserError)
		}

		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete:", err)
			os.Exit(exitSysError)
		}
		defer cleanup()

		t, err := sess.Task(pos)
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete:", err)
			os.Exit(exitUserError)
		}

		if err := sess.DeleteRow(cmd.Context(), pos); err != nil {
			if errors.Is(err, types.ErrRowOutOfRange) {
				fmt.Fprintln(os.Stderr, "delete:", err)
				os.Exit(exitUserError)
			}
			return fmt.Errorf("delete row: %w", err)
		}

		fmt.Printf("Deleted task %q\n", t.Title)
		return nil
	},
}
