// Root command wiring for the opsportal CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/med-x/opsportal/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagUser      string
)

// loadedConfig holds the config.yaml contents, set by PersistentPreRunE so
// all subcommands can use it.
var loadedConfig *cliConfig

var rootCmd = &cobra.Command{
	Use:     "opsportal",
	Short:   "opsportal is a team task dashboard over a shared spreadsheet",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.opsportal-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "acting user email (default: user from config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > OPSPORTAL_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory following the precedence chain:
// --data-dir flag > config.yaml data_dir > OPSPORTAL_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	var fromConfig string
	if loadedConfig != nil {
		fromConfig = loadedConfig.dataDir
	}
	return paths.ResolveDataDir(flagDataDir, fromConfig)
}
