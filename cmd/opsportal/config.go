// Config loading for the opsportal CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/med-x/opsportal/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyUser           = "user"
	cfgKeyAllowedDomains = "allowed_domains"
	cfgKeyRoles          = "roles"
	cfgKeySpreadsheetID  = "sheets.spreadsheet_id"
	cfgKeyWorksheet      = "sheets.worksheet"
	cfgKeyAuditWorksheet = "sheets.audit_worksheet"
	cfgKeyWorksheetGID   = "sheets.worksheet_gid"
	cfgKeyBaseURL        = "sheets.base_url"
	cfgKeyToken          = "sheets.token"

	defaultBackend        = types.BackendSQLite
	defaultWorksheet      = "Tasks"
	defaultAuditWorksheet = "audit_log"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# opsportal configuration

# Backend selection: sheets, sqlite, or memory
backend: sqlite

# Acting user email for CLI commands (overridable by --user flag)
# user: you@med-x.ai

# Email domains allowed to log in and be assigned tasks
allowed_domains:
  - med-x.ai

# Data directory for the sqlite backend (optional; overridable by --data-dir flag)
# data_dir:

# Remote spreadsheet settings for the sheets backend
sheets:
  # spreadsheet_id:
  worksheet: Tasks
  audit_worksheet: audit_log
  # worksheet_gid is the numeric grid id of the task worksheet; leave at -1
  # if unknown (row deletes then fall back to a full rewrite)
  worksheet_gid: -1
  # token:
`

// cliConfig is the parsed config.yaml plus derived values the subcommands
// need.
type cliConfig struct {
	portal  types.Config
	user    string
	dataDir string
}

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*cliConfig, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyWorksheet, defaultWorksheet)
	v.SetDefault(cfgKeyAuditWorksheet, defaultAuditWorksheet)
	v.SetDefault(cfgKeyWorksheetGID, -1)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &cliConfig{
		user:    v.GetString(cfgKeyUser),
		dataDir: v.GetString(cfgKeyDataDir),
		portal: types.Config{
			Backend:        v.GetString(cfgKeyBackend),
			DataDir:        v.GetString(cfgKeyDataDir),
			AllowedDomains: v.GetStringSlice(cfgKeyAllowedDomains),
			Roles:          v.GetStringMapString(cfgKeyRoles),
			Sheets: types.SheetsConfig{
				SpreadsheetID:  v.GetString(cfgKeySpreadsheetID),
				Worksheet:      v.GetString(cfgKeyWorksheet),
				AuditWorksheet: v.GetString(cfgKeyAuditWorksheet),
				WorksheetGID:   v.GetInt(cfgKeyWorksheetGID),
				BaseURL:        v.GetString(cfgKeyBaseURL),
				Token:          v.GetString(cfgKeyToken),
			},
		},
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
