// Package audit implements the portal's best-effort audit sinks. Records
// are append-only, never read back by the portal, and failures are silently
// discarded: an audit problem must never block or fail a task mutation.
package audit

import (
	"context"
	"time"

	"github.com/med-x/opsportal/pkg/types"
)

// Header is the audit worksheet's column row, written when the worksheet is
// first provisioned.
var Header = []string{"timestamp", "action", "task", "user", "old_value", "new_value"}

// SheetSink appends audit rows to a worksheet (typically a second worksheet
// of the same spreadsheet the tasks live in).
type SheetSink struct {
	store types.Store

	// now is swapped out by tests that need fixed timestamps.
	now func() time.Time
}

// Compile-time interface check.
var _ types.AuditSink = (*SheetSink)(nil)

// NewSheetSink wraps a worksheet as an audit sink.
func NewSheetSink(store types.Store) *SheetSink {
	return &SheetSink{store: store, now: time.Now}
}

// Record appends one audit row. Errors are discarded.
func (s *SheetSink) Record(ctx context.Context, action, taskTitle, actorEmail, oldValue, newValue string) {
	_ = s.store.Append(ctx, []string{
		s.now().Format(time.RFC3339),
		action,
		taskTitle,
		actorEmail,
		oldValue,
		newValue,
	})
}

// Provision writes the header row if the worksheet is brand new. Like every
// other audit write this is best-effort; a failure leaves the sink usable.
func (s *SheetSink) Provision(ctx context.Context) {
	header, err := s.store.Header(ctx)
	if err != nil || len(header) > 0 {
		return
	}
	_ = s.store.Rewrite(ctx, Header, nil)
}

// Nop discards every record.
type Nop struct{}

// Compile-time interface check.
var _ types.AuditSink = Nop{}

// Record does nothing.
func (Nop) Record(ctx context.Context, action, taskTitle, actorEmail, oldValue, newValue string) {
}
