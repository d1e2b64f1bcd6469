package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/med-x/opsportal/pkg/types"
)

// Sheet is one named worksheet inside the backend's database. It implements
// the same 1-based, header-inclusive addressing as the remote sheets API:
// row 1 is the header, row 2 is the first data row.
type Sheet struct {
	backend *Backend
	name    string
}

// Compile-time interface check.
var _ types.Store = (*Sheet)(nil)

// Header reads the stored header row in column order.
func (s *Sheet) Header(ctx context.Context) ([]string, error) {
	db, err := s.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sheet_headers WHERE sheet = ? ORDER BY idx`, s.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		header = append(header, name)
	}
	return header, rows.Err()
}

// ReadAll returns every data row keyed by header name, in position order.
func (s *Sheet) ReadAll(ctx context.Context) ([]types.Record, error) {
	db, err := s.backend.conn()
	if err != nil {
		return nil, err
	}
	header, err := s.Header(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY pos`, s.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, err
		}
		rec := make(types.Record, len(header))
		for i, name := range header {
			if i < len(cells) {
				rec[name] = cells[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append stores one data row at the next free position.
func (s *Sheet) Append(ctx context.Context, values []string) error {
	db, err := s.backend.conn()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet, pos, cells)
		 VALUES (?, (SELECT COALESCE(MAX(pos), -1) + 1 FROM sheet_rows WHERE sheet = ?), ?)`,
		s.name, s.name, string(raw))
	return err
}

// UpdateCell writes one cell. Row 1 is the header and is not writable here.
// Short rows grow to fit the written column.
func (s *Sheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	db, err := s.backend.conn()
	if err != nil {
		return err
	}
	pos := row - 2
	if pos < 0 || col < 1 {
		return types.ErrRowOutOfRange
	}

	var raw string
	err = db.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? AND pos = ?`, s.name, pos).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrRowOutOfRange
	}
	if err != nil {
		return err
	}
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return err
	}
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value

	out, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE sheet_rows SET cells = ? WHERE sheet = ? AND pos = ?`,
		string(out), s.name, pos)
	return err
}

// DeleteRow removes one data row and renumbers later rows so positions stay
// contiguous.
func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	db, err := s.backend.conn()
	if err != nil {
		return err
	}
	pos := row - 2
	if pos < 0 {
		return types.ErrRowOutOfRange
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = ? AND pos = ?`, s.name, pos)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrRowOutOfRange
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET pos = pos - 1 WHERE sheet = ? AND pos > ?`,
		s.name, pos); err != nil {
		return err
	}
	return tx.Commit()
}

// Rewrite replaces the worksheet wholesale with header plus rows.
func (s *Sheet) Rewrite(ctx context.Context, header []string, rows [][]string) error {
	db, err := s.backend.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_headers WHERE sheet = ?`, s.name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = ?`, s.name); err != nil {
		return err
	}
	for i, name := range header {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_headers (sheet, idx, name) VALUES (?, ?, ?)`,
			s.name, i, name); err != nil {
			return err
		}
	}
	for pos, cells := range rows {
		raw, err := json.Marshal(cells)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, pos, cells) VALUES (?, ?, ?)`,
			s.name, pos, string(raw)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
