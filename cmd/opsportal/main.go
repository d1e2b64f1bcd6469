// Package main provides the opsportal CLI: a task dashboard over a shared
// spreadsheet, with local sqlite and in-memory backends for offline work.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
