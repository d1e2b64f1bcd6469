package types

import (
	"context"
	"errors"
)

// Store is one remote worksheet. Row and column numbers are 1-based and
// include the header row, matching the remote API's addressing: row 1 is the
// header, row 2 is the first data row.
//
// Every method is a single network round-trip with no batching and no
// transactions. Implementations must tolerate a completely empty worksheet
// (ReadAll returns an empty slice) and sparse rows (missing cells read as
// empty strings, never as an error).
type Store interface {
	// Header returns the live header row. An empty worksheet yields an
	// empty slice, not an error.
	Header(ctx context.Context) ([]string, error)

	// ReadAll returns every data row as a Record keyed by header name.
	ReadAll(ctx context.Context) ([]Record, error)

	// Append writes one row after the last data row.
	Append(ctx context.Context, values []string) error

	// UpdateCell writes a single cell.
	UpdateCell(ctx context.Context, row, col int, value string) error

	// DeleteRow removes one row, shifting later rows up. Implementations
	// that cannot delete in place return ErrDeleteUnsupported; callers fall
	// back to Rewrite with the row excluded.
	DeleteRow(ctx context.Context, row int) error

	// Rewrite clears the worksheet and writes header plus rows wholesale.
	// Strictly more expensive than the other mutations; last resort only.
	Rewrite(ctx context.Context, header []string, rows [][]string) error
}

// Store operation errors.
var (
	ErrDeleteUnsupported = errors.New("row delete not supported by store")
	ErrAlreadyAttached   = errors.New("backend already attached")
	ErrDetached          = errors.New("backend not attached")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNotLoaded         = errors.New("task cache not loaded")
	ErrRowNotFound       = errors.New("row not found by signature")
)

// Validation errors shared by the CLI and the web layer.
var (
	ErrEmptyTitle    = errors.New("task title must not be empty")
	ErrInvalidStatus = errors.New("invalid status value")
	ErrInvalidEmail  = errors.New("invalid assignee email")
)
