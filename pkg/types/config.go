package types

import "errors"

// Supported store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SheetsConfig holds remote spreadsheet parameters for the sheets backend.
type SheetsConfig struct {
	SpreadsheetID  string `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	Worksheet      string `json:"worksheet" yaml:"worksheet"`
	AuditWorksheet string `json:"audit_worksheet" yaml:"audit_worksheet"`
	// WorksheetGID is the numeric grid ID needed for structural requests
	// (row deletes). Negative means unknown; row deletes then degrade to a
	// full rewrite.
	WorksheetGID int    `json:"worksheet_gid" yaml:"worksheet_gid"`
	BaseURL      string `json:"base_url" yaml:"base_url"`
	Token        string `json:"token" yaml:"token"`
}

// Config holds backend selection and portal-wide settings.
type Config struct {
	Backend        string            `json:"backend" yaml:"backend"`
	DataDir        string            `json:"data_dir" yaml:"data_dir"`
	Sheets         SheetsConfig      `json:"sheets" yaml:"sheets"`
	AllowedDomains []string          `json:"allowed_domains" yaml:"allowed_domains"`
	Roles          map[string]string `json:"roles" yaml:"roles"`
}

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrSpreadsheetIDEmpty = errors.New("sheets backend requires a spreadsheet id")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSheets: true,
	BackendSQLite: true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSheets && c.Sheets.SpreadsheetID == "" {
		return ErrSpreadsheetIDEmpty
	}
	return nil
}
