// Init command provisions the configured backend's worksheets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/internal/audit"
	"github.com/med-x/opsportal/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the portal storage",
	Long: `Init opens the configured backend and writes the task and audit
worksheet headers if the worksheets are empty. Existing data is left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		defer stores.close()

		ctx := cmd.Context()

		header, err := stores.tasks.Header(ctx)
		if err != nil {
			return fmt.Errorf("read task header: %w", err)
		}
		if len(header) == 0 {
			if err := stores.tasks.Rewrite(ctx, types.Columns, nil); err != nil {
				return fmt.Errorf("write task header: %w", err)
			}
		}

		audit.NewSheetSink(stores.audit).Provision(ctx)

		fmt.Println("Portal storage initialized")
		return nil
	},
}
