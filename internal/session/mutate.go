package session

import (
	"context"
	"fmt"
	"time"

	"github.com/med-x/opsportal/pkg/types"
)

// AppendTask writes one new row to the remote store and mirrors it locally,
// returning the new row's 0-based position.
//
// Column order is resolved from the store's live header, never from the
// compiled-in constant: the header is the single source of truth, so a
// reordered remote sheet still receives a correct row. An empty header
// (brand-new worksheet) falls back to the canonical order.
func (s *Session) AppendTask(ctx context.Context, t types.Task) (int, error) {
	header, err := s.store.Header(ctx)
	if err != nil {
		return 0, fmt.Errorf("read sheet header: %w", err)
	}
	if len(header) == 0 {
		header = types.Columns
	}

	if err := s.store.Append(ctx, t.ValuesFor(header)); err != nil {
		return 0, fmt.Errorf("append task row: %w", err)
	}

	if !s.loaded {
		// No mirror to patch; a forced load picks the new row up.
		if _, err := s.Load(ctx, true); err != nil {
			return 0, err
		}
		return len(s.mirror) - 1, nil
	}
	return s.appendLocal(t), nil
}

// Create validates and appends a brand-new task assigned by the session
// user. New tasks start Pending; created_at is set once, here, and is never
// rewritten afterwards.
func (s *Session) Create(ctx context.Context, title, description, assignee, dueDate string) (int, types.Task, error) {
	if title == "" {
		return 0, types.Task{}, types.ErrEmptyTitle
	}
	if s.AssigneeRule != nil && !s.AssigneeRule(assignee) {
		return 0, types.Task{}, types.ErrInvalidEmail
	}

	t := types.Task{
		Title:       title,
		Description: description,
		AssignedTo:  assignee,
		AssignedBy:  s.user.Email,
		DueDate:     dueDate,
		Status:      types.StatusPending,
		CreatedAt:   s.now().Format(time.RFC3339),
	}

	pos, err := s.AppendTask(ctx, t)
	if err != nil {
		return 0, types.Task{}, err
	}
	s.recordAudit(ctx, types.AuditCreated, title, "", "assigned_to="+assignee)
	return pos, t, nil
}

// UpdateCell writes a single remote cell and patches the mirror. Repeating
// the call with the same value is a no-op in effect: the cell reads the
// same before and after. The write failure propagates before any local
// state changes, so the user is never told a lost write succeeded.
func (s *Session) UpdateCell(ctx context.Context, pos int, column, value string) error {
	if pos < 0 || pos >= len(s.mirror) {
		return types.ErrRowOutOfRange
	}
	col, ok := types.ColumnIndex(column)
	if !ok {
		return types.ErrUnknownColumn
	}

	if err := s.store.UpdateCell(ctx, pos+headerRowOffset, col, value); err != nil {
		return fmt.Errorf("update %s at row %d: %w", column, pos, err)
	}

	s.patchCell(pos, column, value)
	return nil
}

// DeleteRow removes one row remotely and locally. When the store cannot
// delete in place (degraded mode) the whole worksheet is rewritten with the
// row excluded: a full-table write, used only as a last resort. If that
// rewrite fails too the operation is fatal and the mirror stays untouched:
// the cache must not claim a write the remote never saw.
func (s *Session) DeleteRow(ctx context.Context, pos int) error {
	if pos < 0 || pos >= len(s.mirror) {
		return types.ErrRowOutOfRange
	}

	if err := s.store.DeleteRow(ctx, pos+headerRowOffset); err != nil {
		rows := make([][]string, 0, len(s.mirror)-1)
		for i, t := range s.mirror {
			if i == pos {
				continue
			}
			rows = append(rows, t.Values())
		}
		if rerr := s.store.Rewrite(ctx, types.Columns, rows); rerr != nil {
			return fmt.Errorf("delete row %d: rewrite fallback: %w", pos, rerr)
		}
	}

	s.removeRow(pos)
	return nil
}
