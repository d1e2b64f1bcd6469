// Shared helpers for opsportal CLI commands.
package main

import (
	"context"
	"fmt"

	"github.com/med-x/opsportal/internal/audit"
	"github.com/med-x/opsportal/internal/auth"
	"github.com/med-x/opsportal/internal/memstore"
	"github.com/med-x/opsportal/internal/session"
	"github.com/med-x/opsportal/internal/sheets"
	"github.com/med-x/opsportal/internal/sqlite"
	"github.com/med-x/opsportal/pkg/types"
)

// portalStores bundles the opened backend: the task worksheet, the audit
// worksheet, and the teardown hook.
type portalStores struct {
	tasks types.Store
	audit types.Store
	close func() error
}

// openStores opens the configured backend and returns its worksheets. The
// caller must invoke close when done.
func openStores() (*portalStores, error) {
	cfg := loadedConfig.portal

	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case types.BackendSheets:
		client := sheets.New(cfg.Sheets)
		return &portalStores{
			tasks: client.Worksheet(cfg.Sheets.Worksheet, cfg.Sheets.WorksheetGID),
			// The audit worksheet is append-only, so its grid id is never
			// needed.
			audit: client.Worksheet(cfg.Sheets.AuditWorksheet, -1),
			close: func() error { return nil },
		}, nil
	case types.BackendSQLite:
		backend := sqlite.NewBackend()
		if err := backend.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach backend: %w", err)
		}
		return &portalStores{
			tasks: backend.Sheet("tasks"),
			audit: backend.Sheet("audit_log"),
			close: backend.Detach,
		}, nil
	case types.BackendMemory:
		return &portalStores{
			tasks: memstore.New(types.Columns),
			audit: memstore.New(audit.Header),
			close: func() error { return nil },
		}, nil
	default:
		return nil, types.ErrBackendUnknown
	}
}

// newVerifier builds the login gate from config.
func newVerifier() *auth.Verifier {
	return auth.NewVerifier(loadedConfig.portal.AllowedDomains, loadedConfig.portal.Roles)
}

// actingUser resolves the CLI identity from --user or config.yaml and
// verifies it against the allowed domains.
func actingUser(verifier *auth.Verifier) (types.Identity, error) {
	email := flagUser
	if email == "" {
		email = loadedConfig.user
	}
	if email == "" {
		return types.Identity{}, fmt.Errorf("no acting user: pass --user or set user: in config.yaml")
	}
	return verifier.Verify(email, "")
}

// openSession opens the backend and builds a loaded session for the acting
// user. The returned cleanup closes both.
func openSession(ctx context.Context) (*session.Session, func(), error) {
	verifier := newVerifier()
	user, err := actingUser(verifier)
	if err != nil {
		return nil, nil, err
	}

	stores, err := openStores()
	if err != nil {
		return nil, nil, err
	}

	sess := session.New(user, stores.tasks, audit.NewSheetSink(stores.audit))
	sess.AssigneeRule = verifier.AllowedEmail

	if _, err := sess.Load(ctx, false); err != nil {
		_ = stores.close()
		return nil, nil, err
	}

	cleanup := func() {
		sess.Close()
		_ = stores.close()
	}
	return sess, cleanup, nil
}
