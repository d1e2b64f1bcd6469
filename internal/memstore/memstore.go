// Package memstore provides an in-memory worksheet implementing types.Store.
// It backs the portal's demo mode and the test suites; semantics mirror the
// remote sheets API, including 1-based addressing with a header row.
package memstore

import (
	"context"
	"sync"

	"github.com/med-x/opsportal/pkg/types"
)

// Compile-time interface check: Sheet must implement Store.
var _ types.Store = (*Sheet)(nil)

// Sheet is an in-memory worksheet. Safe for concurrent use.
type Sheet struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
}

// New creates a sheet with the given header and no data rows.
func New(header []string) *Sheet {
	h := make([]string, len(header))
	copy(h, header)
	return &Sheet{header: h}
}

// Header returns the header row.
func (s *Sheet) Header(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.header))
	copy(out, s.header)
	return out, nil
}

// ReadAll returns every data row keyed by header name. Short rows read as
// empty strings for the missing trailing cells.
func (s *Sheet) ReadAll(ctx context.Context) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]types.Record, 0, len(s.rows))
	for _, row := range s.rows {
		rec := make(types.Record, len(s.header))
		for i, name := range s.header {
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

// Append adds one data row.
func (s *Sheet) Append(ctx context.Context, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := make([]string, len(values))
	copy(row, values)
	s.rows = append(s.rows, row)
	return nil
}

// UpdateCell writes a single cell. Row 1 is the header and cannot be
// written through this method.
func (s *Sheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := row - 2
	if i < 0 || i >= len(s.rows) {
		return types.ErrRowOutOfRange
	}
	if col < 1 || col > len(s.header) {
		return types.ErrRowOutOfRange
	}
	// Grow short rows so sparse sheets accept writes anywhere in range.
	for len(s.rows[i]) < col {
		s.rows[i] = append(s.rows[i], "")
	}
	s.rows[i][col-1] = value
	return nil
}

// DeleteRow removes one data row, shifting later rows up.
func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := row - 2
	if i < 0 || i >= len(s.rows) {
		return types.ErrRowOutOfRange
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

// Rewrite replaces the entire sheet with header plus rows.
func (s *Sheet) Rewrite(ctx context.Context, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.header = make([]string, len(header))
	copy(s.header, header)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = make([]string, len(r))
		copy(s.rows[i], r)
	}
	return nil
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
