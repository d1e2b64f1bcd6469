// Package view implements the dashboard read path over a loaded task table:
// the two per-user views, status/date/overdue filtering, newest-first
// ordering, the sidebar stats card numbers, and pagination. Everything here
// is pure computation over a slice the session already loaded; no network.
package view

import (
	"sort"
	"time"

	"github.com/med-x/opsportal/pkg/types"
)

// View modes.
const (
	ModeAssignedByMe = "assigned" // tasks I created for others
	ModeAssignedToMe = "mine"     // tasks on my plate
)

// Date range filter values.
const (
	RangeAll       = "all"
	RangeThisWeek  = "this-week"
	RangeLastWeek  = "last-week"
	RangeThisMonth = "this-month"
	RangeLastMonth = "last-month"
	RangeCustom    = "custom"
)

// RowsPerPage is the fixed page size of both dashboard tables.
const RowsPerPage = 10

// Filter narrows a view. The zero value keeps everything.
type Filter struct {
	// Statuses keeps rows whose status is in the set. Empty keeps all.
	Statuses []string
	// Range is one of the Range* values; empty means RangeAll.
	Range string
	// From/To bound RangeCustom, inclusive, as ISO dates.
	From string
	To   string
	// OverdueOnly keeps rows past their due date and not Completed.
	OverdueOnly bool
	// Now anchors the relative ranges; the zero value means time.Now().
	Now time.Time
}

// Stats holds the sidebar card numbers for one view.
type Stats struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	InProgress      int `json:"in_progress"`
	Pending         int `json:"pending"`
	ProgressPercent int `json:"progress_percent"`
}

// ForUser selects the rows belonging to a view mode. ModeAssignedByMe takes
// rows the user created for somebody else; ModeAssignedToMe takes rows
// assigned to the user, whoever created them.
func ForUser(tasks []types.Task, email, mode string) []types.Task {
	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		switch mode {
		case ModeAssignedByMe:
			if t.AssignedBy == email && t.AssignedTo != email {
				out = append(out, t)
			}
		default:
			if t.AssignedTo == email {
				out = append(out, t)
			}
		}
	}
	return out
}

// IsOverdue reports whether the task's due date has passed and the task is
// not completed. Tasks without a parseable due date are never overdue.
func IsOverdue(t types.Task, today time.Time) bool {
	due, ok := t.DueTime()
	if !ok {
		return false
	}
	if t.Status == types.StatusCompleted {
		return false
	}
	y, m, d := today.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Apply filters tasks by status set, date range, and overdue flag.
func Apply(tasks []types.Task, f Filter) []types.Task {
	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	statusSet := make(map[string]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		statusSet[s] = true
	}

	lo, hi, bounded := rangeBounds(f, now)

	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if len(statusSet) > 0 && !statusSet[t.Status] {
			continue
		}
		if f.OverdueOnly && !IsOverdue(t, now) {
			continue
		}
		if bounded {
			created, ok := t.CreatedTime()
			if !ok {
				continue
			}
			day := created.Truncate(24 * time.Hour)
			if day.Before(lo) || day.After(hi) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// rangeBounds resolves a Filter's date range to inclusive day bounds.
// The third return is false when the filter is unbounded.
func rangeBounds(f Filter, now time.Time) (time.Time, time.Time, bool) {
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	today := day(now)

	switch f.Range {
	case RangeThisWeek:
		weekStart := today.AddDate(0, 0, -int(mondayOffset(today)))
		return weekStart, today, true
	case RangeLastWeek:
		weekStart := today.AddDate(0, 0, -int(mondayOffset(today))-7)
		return weekStart, weekStart.AddDate(0, 0, 6), true
	case RangeThisMonth:
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return monthStart, today, true
	case RangeLastMonth:
		thisMonthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		lastMonthEnd := thisMonthStart.AddDate(0, 0, -1)
		lastMonthStart := time.Date(lastMonthEnd.Year(), lastMonthEnd.Month(), 1, 0, 0, 0, 0, time.UTC)
		return lastMonthStart, lastMonthEnd, true
	case RangeCustom:
		lo, errLo := time.Parse("2006-01-02", f.From)
		hi, errHi := time.Parse("2006-01-02", f.To)
		if errLo != nil || errHi != nil {
			return time.Time{}, time.Time{}, false
		}
		return lo, hi, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// mondayOffset returns days since Monday (0..6).
func mondayOffset(t time.Time) time.Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return 6
	}
	return wd - 1
}

// SortNewestFirst orders tasks by created_at descending. Rows without a
// parseable timestamp sink to the end, keeping their relative order.
func SortNewestFirst(tasks []types.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ti, iok := tasks[i].CreatedTime()
		tj, jok := tasks[j].CreatedTime()
		if iok != jok {
			return iok
		}
		return ti.After(tj)
	})
}

// Compute tallies the stats card for one view.
func Compute(tasks []types.Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case types.StatusCompleted:
			s.Completed++
		case types.StatusInProgress:
			s.InProgress++
		case types.StatusPending:
			s.Pending++
		}
	}
	if s.Total > 0 {
		s.ProgressPercent = s.Completed * 100 / s.Total
	}
	return s
}

// Paginate slices one page out of tasks. Pages are 1-based; out-of-range
// pages clamp to the nearest valid page. The second return is the total
// page count, at least 1 even for an empty table.
func Paginate(tasks []types.Task, page, perPage int) ([]types.Task, int) {
	if perPage <= 0 {
		perPage = RowsPerPage
	}
	totalPages := (len(tasks)-1)/perPage + 1
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(tasks) {
		start = len(tasks)
	}
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end], totalPages
}
