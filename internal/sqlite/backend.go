// Package sqlite implements a local worksheet store backed by SQLite. It
// gives the portal the same Store semantics as the remote sheets API, so the
// cache, mutation, and reconciliation layers run unchanged against a file on
// disk.
package sqlite

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/med-x/opsportal/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Backend owns the SQLite connection and hands out per-worksheet stores.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
	path     string
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database under cfg.DataDir and applies the
// schema. Existing data is preserved across attaches. Returns
// ErrAlreadyAttached if the backend is already attached.
func (b *Backend) Attach(cfg types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dataDir, "opsportal.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.path = path
	b.attached = true
	return nil
}

// Detach closes the connection. Idempotent; after Detach every worksheet
// operation returns ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Path returns the database file path, empty until attached.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Sheet returns a Store over the named worksheet. Worksheets spring into
// existence on first write; reading a never-written worksheet behaves like an
// empty remote sheet.
func (b *Backend) Sheet(name string) *Sheet {
	return &Sheet{backend: b, name: name}
}

// conn returns the live database handle or ErrDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}
