package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/med-x/opsportal/pkg/types"
)

// fakeStore is an in-memory Store with call recording and failure
// injection, so tests can assert exactly which remote round-trips a
// mutation issued and what happens when one of them fails.
type fakeStore struct {
	header []string
	rows   [][]string

	calls []string

	failReadAll bool
	failDelete  bool
	failRewrite bool
	failAppend  bool
	failUpdate  bool
}

var errRemote = errors.New("remote API failure")

func newFakeStore(rows ...[]string) *fakeStore {
	header := make([]string, len(types.Columns))
	copy(header, types.Columns)
	return &fakeStore{header: header, rows: rows}
}

func (f *fakeStore) Header(ctx context.Context) ([]string, error) {
	f.calls = append(f.calls, "header")
	return f.header, nil
}

func (f *fakeStore) ReadAll(ctx context.Context) ([]types.Record, error) {
	f.calls = append(f.calls, "readAll")
	if f.failReadAll {
		return nil, errRemote
	}
	records := make([]types.Record, 0, len(f.rows))
	for _, row := range f.rows {
		rec := make(types.Record, len(f.header))
		for i, name := range f.header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (f *fakeStore) Append(ctx context.Context, values []string) error {
	f.calls = append(f.calls, "append")
	if f.failAppend {
		return errRemote
	}
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeStore) UpdateCell(ctx context.Context, row, col int, value string) error {
	f.calls = append(f.calls, fmt.Sprintf("updateCell(%d,%d,%s)", row, col, value))
	if f.failUpdate {
		return errRemote
	}
	i := row - 2
	if i < 0 || i >= len(f.rows) {
		return types.ErrRowOutOfRange
	}
	for len(f.rows[i]) < col {
		f.rows[i] = append(f.rows[i], "")
	}
	f.rows[i][col-1] = value
	return nil
}

func (f *fakeStore) DeleteRow(ctx context.Context, row int) error {
	f.calls = append(f.calls, fmt.Sprintf("deleteRow(%d)", row))
	if f.failDelete {
		return types.ErrDeleteUnsupported
	}
	i := row - 2
	if i < 0 || i >= len(f.rows) {
		return types.ErrRowOutOfRange
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

func (f *fakeStore) Rewrite(ctx context.Context, header []string, rows [][]string) error {
	f.calls = append(f.calls, "rewrite")
	if f.failRewrite {
		return errRemote
	}
	f.header = header
	f.rows = rows
	return nil
}

// row builds a worksheet row in canonical column order.
func row(title, description, assignedTo, assignedBy, dueDate, status, createdAt string) []string {
	return []string{title, description, assignedTo, assignedBy, dueDate, status, createdAt}
}

// taskAt builds a minimal task created by a@med-x.ai at the given time.
func taskAt(title, createdAt string) types.Task {
	return types.Task{
		Title:      title,
		AssignedTo: "b@med-x.ai",
		AssignedBy: "a@med-x.ai",
		Status:     types.StatusPending,
		CreatedAt:  createdAt,
	}
}

// auditRecord captures one call to a recording audit sink.
type auditRecord struct {
	action, task, actor, oldValue, newValue string
}

type recordingAudit struct {
	records []auditRecord
}

func (a *recordingAudit) Record(ctx context.Context, action, task, actor, oldValue, newValue string) {
	a.records = append(a.records, auditRecord{action, task, actor, oldValue, newValue})
}
