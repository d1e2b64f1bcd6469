package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/med-x/opsportal/pkg/types"
)

// Edit is one row of a user-edited page, reconciled against the cache
// mirror on save. CreatedAt and AssignedBy are the values captured when the
// page was rendered; they form the lookup signature together with the
// (possibly edited) title. An empty AssignedBy means the session user.
type Edit struct {
	CreatedAt  string `json:"created_at" yaml:"created_at"`
	AssignedBy string `json:"assigned_by" yaml:"assigned_by"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	AssignedTo  string `json:"assigned_to" yaml:"assigned_to"`
	DueDate     string `json:"due_date" yaml:"due_date"`
	Status      string `json:"status" yaml:"status"`
	Delete      bool   `json:"delete" yaml:"delete"`
}

// Outcome reports what a reconciliation pass applied. Zero changes with no
// errors is the distinct "nothing to save" case, not a failure.
type Outcome struct {
	Updated  int      `json:"updated"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Total returns the number of applied changes.
func (o Outcome) Total() int { return o.Updated + o.Deleted }

// cellUpdate is one queued single-cell write. The signature parts are kept
// so the target position can be re-resolved after the deletion phase;
// titleRef is the pre-edit title, which still matches the index (exactly or
// via the degraded creator key) while the new title lands.
type cellUpdate struct {
	createdAt  string
	assignedBy string
	titleRef   string
	column     string
	oldValue   string
	newValue   string
}

// Reconcile diffs an edited page against the cache mirror and applies the
// resulting mutations: deletions first, in strictly descending position
// order (a deletion shifts every later position down, so ascending order
// would delete the wrong rows), then single-cell updates, each re-resolved
// through the index rebuilt by the deletion phase.
//
// Per-row problems (unresolvable signatures, invalid emails, deletes of
// rows the user did not create) are reported in the Outcome and do not
// stop the rest of the batch.
func (s *Session) Reconcile(ctx context.Context, edits []Edit) (Outcome, error) {
	var out Outcome
	if !s.loaded {
		return out, types.ErrNotLoaded
	}

	deletions := make(map[int]bool)
	var updates []cellUpdate

	for _, e := range edits {
		creator := e.AssignedBy
		if creator == "" {
			creator = s.user.Email
		}

		pos, err := s.find(e.CreatedAt, creator, e.Title)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("could not find row for %q, skipping", e.Title))
			continue
		}
		original := s.mirror[pos]

		if e.Delete {
			if original.AssignedBy != s.user.Email {
				out.Warnings = append(out.Warnings, fmt.Sprintf("cannot delete %q: you did not create it", e.Title))
				continue
			}
			deletions[pos] = true
			continue
		}

		queue := func(column, oldValue, newValue string) {
			updates = append(updates, cellUpdate{
				createdAt:  original.CreatedAt,
				assignedBy: original.AssignedBy,
				titleRef:   original.Title,
				column:     column,
				oldValue:   oldValue,
				newValue:   newValue,
			})
		}

		if e.AssignedTo != original.AssignedTo {
			if s.AssigneeRule != nil && !s.AssigneeRule(e.AssignedTo) {
				out.Errors = append(out.Errors, fmt.Sprintf("invalid email: %s", e.AssignedTo))
			} else {
				queue(types.ColAssignedTo, original.AssignedTo, e.AssignedTo)
			}
		}
		if e.Title != original.Title {
			queue(types.ColTask, original.Title, e.Title)
		}
		if e.Description != original.Description {
			queue(types.ColDescription, original.Description, e.Description)
		}
		if e.DueDate != original.DueDate {
			queue(types.ColDueDate, original.DueDate, e.DueDate)
		}
		if e.Status != original.Status {
			if !types.ValidStatus(e.Status) {
				out.Errors = append(out.Errors, fmt.Sprintf("invalid status %q for %q", e.Status, e.Title))
			} else {
				queue(types.ColStatus, original.Status, e.Status)
			}
		}
	}

	// Deletion phase, descending. Each DeleteRow rebuilds the index, so the
	// next (smaller) queued position is still correct.
	positions := make([]int, 0, len(deletions))
	for p := range deletions {
		positions = append(positions, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, pos := range positions {
		title := s.mirror[pos].Title
		if err := s.DeleteRow(ctx, pos); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("delete %q: %v", title, err))
			continue
		}
		out.Deleted++
		s.recordAudit(ctx, types.AuditDeleted, title, "", "")
	}

	// Update phase. Queued positions are stale once anything was deleted;
	// every target is re-resolved against the rebuilt index immediately
	// before its write.
	for _, u := range updates {
		pos, ok := s.Find(u.createdAt, u.assignedBy, u.titleRef)
		if !ok {
			out.Errors = append(out.Errors, fmt.Sprintf("row for %q vanished before update, skipping", u.titleRef))
			continue
		}
		if err := s.UpdateCell(ctx, pos, u.column, u.newValue); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("update %s of %q: %v", u.column, u.titleRef, err))
			continue
		}
		out.Updated++
		action := types.AuditUpdated
		if u.column == types.ColStatus {
			action = types.AuditStatusChange
		}
		s.recordAudit(ctx, action, u.titleRef, u.oldValue, u.newValue)
	}

	return out, nil
}
