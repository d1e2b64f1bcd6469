// Save command applies a batch of row edits from a file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/med-x/opsportal/internal/session"
)

var saveCmd = &cobra.Command{
	Use:   "save <edits-file>",
	Short: "Apply a batch of task edits",
	Long: `Save reads a list of row edits from a YAML or JSON file ("-" for
stdin) and reconciles them against the task sheet: deletions run first, in
descending row order, then cell updates.

Each edit carries created_at and assigned_by from the original row so it can
be matched even after other rows were deleted. Example file:

  - created_at: "2026-08-20T10:00:00Z"
    title: Prepare demo
    status: Completed
  - created_at: "2026-08-21T09:30:00Z"
    title: Stale draft
    delete: true

Rows that cannot be matched are skipped and reported; they never abort the
rest of the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		edits, err := readEdits(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "save:", err)
			os.Exit(exitUserError)
		}

		sess, cleanup, err := openSession(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "save:", err)
			os.Exit(exitSysError)
		}
		defer cleanup()

		outcome, err := sess.Reconcile(cmd.Context(), edits)
		if err != nil {
			return fmt.Errorf("reconcile edits: %w", err)
		}

		if flagJSON {
			out, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal outcome: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		if outcome.Total() == 0 && len(outcome.Errors) == 0 {
			fmt.Println("No changes to save")
		} else {
			fmt.Printf("Applied %d update(s), %d deletion(s)\n", outcome.Updated, outcome.Deleted)
		}
		for _, w := range outcome.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		for _, e := range outcome.Errors {
			fmt.Fprintln(os.Stderr, "error:", e)
		}
		if len(outcome.Errors) > 0 {
			os.Exit(exitUserError)
		}
		return nil
	},
}

// readEdits parses the edits file. YAML is a superset of JSON here, so one
// decoder covers both formats.
func readEdits(path string) ([]session.Edit, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var edits []session.Edit
	if err := yaml.Unmarshal(raw, &edits); err != nil {
		return nil, fmt.Errorf("parse edits: %w", err)
	}
	return edits, nil
}
