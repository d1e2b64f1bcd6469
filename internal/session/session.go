// Package session implements the cache-consistency core of the portal: an
// in-memory mirror of the task worksheet, a signature index for locating
// rows without full-table scans, the mutation primitives that keep mirror
// and remote store consistent, and batch reconciliation of edited views.
//
// A Session is owned by exactly one user login and is not safe for
// concurrent use; callers that share one across goroutines (the web server)
// serialize access themselves. Two sessions caching the same worksheet can
// diverge if the other one writes first: last writer wins, there is no
// cross-session coordination.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/med-x/opsportal/pkg/types"
)

// headerRowOffset converts a 0-based mirror position to the 1-based remote
// row number: one for 1-based addressing, one for the header row.
const headerRowOffset = 2

// Session holds one user's view of the task worksheet: the verified
// identity, the remote store, the audit sink, the cache mirror, and the
// signature index derived from it. Create one per login, Close on logout.
type Session struct {
	user  types.Identity
	store types.Store
	audit types.AuditSink

	// AssigneeRule validates assignee emails during reconciliation. Nil
	// accepts everything; the wiring layer installs the allowed-domain
	// check here.
	AssigneeRule func(email string) bool

	// mirror is the authoritative read path. Positions are 0-based offsets
	// into the remote store's data rows and stay valid only until the next
	// structural change; every mutation rebuilds the index.
	mirror []types.Task
	loaded bool

	idx sigIndex

	// now is swapped out by tests that need fixed timestamps.
	now func() time.Time
}

// New creates a session for the given user. The audit sink may be nil; a
// nil sink discards all records.
func New(user types.Identity, store types.Store, audit types.AuditSink) *Session {
	return &Session{user: user, store: store, audit: audit, now: time.Now}
}

// User returns the session's verified identity.
func (s *Session) User() types.Identity { return s.user }

// Loaded reports whether the cache mirror has been populated.
func (s *Session) Loaded() bool { return s.loaded }

// Len returns the number of rows in the cache mirror.
func (s *Session) Len() int { return len(s.mirror) }

// Task returns the mirror row at pos.
func (s *Session) Task(pos int) (types.Task, error) {
	if pos < 0 || pos >= len(s.mirror) {
		return types.Task{}, types.ErrRowOutOfRange
	}
	return s.mirror[pos], nil
}

// Close discards the mirror and index. The session must not be used after.
func (s *Session) Close() {
	s.mirror = nil
	s.loaded = false
	s.idx = sigIndex{}
}

// Load returns the task table. Unless force is set, an already-populated
// mirror is returned without a network call. A remote read failure never
// clobbers an existing valid mirror: the error surfaces and the cache stays
// as it was. Every returned row has exactly the seven canonical columns.
func (s *Session) Load(ctx context.Context, force bool) ([]types.Task, error) {
	if s.loaded && !force {
		return s.tasks(), nil
	}

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read task sheet: %w", err)
	}

	mirror := make([]types.Task, 0, len(records))
	for _, r := range records {
		mirror = append(mirror, types.TaskFromRecord(r))
	}

	s.mirror = mirror
	s.loaded = true
	s.rebuildIndex()
	return s.tasks(), nil
}

// tasks returns a copy of the mirror so callers cannot mutate it behind the
// index's back. All writes go through the mutation primitives.
func (s *Session) tasks() []types.Task {
	out := make([]types.Task, len(s.mirror))
	copy(out, s.mirror)
	return out
}

// appendLocal appends one row to the mirror without a remote read-back.
// Call only after the corresponding remote append succeeded.
func (s *Session) appendLocal(t types.Task) int {
	s.mirror = append(s.mirror, t)
	s.rebuildIndex()
	return len(s.mirror) - 1
}

// patchCell mutates a single cell of the mirror in place.
func (s *Session) patchCell(pos int, column, value string) {
	if pos < 0 || pos >= len(s.mirror) {
		return
	}
	s.mirror[pos].SetField(column, value)
	s.rebuildIndex()
}

// removeRow removes one mirror row, shifting every later position down by
// one. Any position greater than pos computed before this call is stale
// afterwards; batch deletions must run in descending position order.
func (s *Session) removeRow(pos int) {
	if pos < 0 || pos >= len(s.mirror) {
		return
	}
	s.mirror = append(s.mirror[:pos], s.mirror[pos+1:]...)
	s.rebuildIndex()
}

// recordAudit forwards to the audit sink if one is configured. Fire and
// forget: the sink swallows its own failures.
func (s *Session) recordAudit(ctx context.Context, action, title, old, new string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, action, title, s.user.Email, old, new)
}
