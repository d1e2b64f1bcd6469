// Create command appends a new task.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/pkg/types"
)

var (
	createTitle       string
	createDescription string
	createAssignee    string
	createDue         string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new task",
	Long: `Create appends a new task assigned by the acting user. New tasks
start Pending; the creation timestamp is set once and never rewritten.

Example:
  opsportal create --title "Prepare demo" --assignee bob@med-x.ai --due 2026-09-15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "create:", err)
			os.Exit(exitSysError)
		}
		defer cleanup()

		pos, t, err := sess.Create(cmd.Context(), createTitle, createDescription, createAssignee, createDue)
		if err != nil {
			if errors.Is(err, types.ErrEmptyTitle) || errors.Is(err, types.ErrInvalidEmail) {
				fmt.Fprintln(os.Stderr, "create:", err)
				os.Exit(exitUserError)
			}
			return fmt.Errorf("create task: %w", err)
		}

		if flagJSON {
			out, err := json.MarshalIndent(map[string]any{"position": pos, "task": t}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal task: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Printf("Created task %q at row %d\n", t.Title, pos)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "task title (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "task description")
	createCmd.Flags().StringVar(&createAssignee, "assignee", "", "assignee email")
	createCmd.Flags().StringVar(&createDue, "due", "", "due date (YYYY-MM-DD)")

	createCmd.MarkFlagRequired("title")
}
