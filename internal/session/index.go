package session

import "github.com/med-x/opsportal/pkg/types"

// sigKey is the full natural key of a task row.
type sigKey struct {
	createdAt  string
	assignedBy string
	title      string
}

// sigIndex maps natural keys to mirror positions. It is derived state:
// rebuilt in full after every mirror change, never mutated incrementally and
// never persisted.
//
// Exact keys are last-write-wins: when two rows share the full signature the
// most recent row claims the key. The two degraded maps are first-write-wins
// so ambiguous partial lookups resolve to the earliest matching row.
type sigIndex struct {
	exact     map[sigKey]int
	byCreated map[[2]string]int // (created_at, assigned_by)
	byTitle   map[[2]string]int // (assigned_by, task)
}

// rebuildIndex derives the signature index from the current mirror.
func (s *Session) rebuildIndex() {
	idx := sigIndex{
		exact:     make(map[sigKey]int, len(s.mirror)),
		byCreated: make(map[[2]string]int, len(s.mirror)),
		byTitle:   make(map[[2]string]int, len(s.mirror)),
	}

	for i, t := range s.mirror {
		idx.exact[sigKey{t.CreatedAt, t.AssignedBy, t.Title}] = i

		ck := [2]string{t.CreatedAt, t.AssignedBy}
		if _, ok := idx.byCreated[ck]; !ok {
			idx.byCreated[ck] = i
		}
		tk := [2]string{t.AssignedBy, t.Title}
		if _, ok := idx.byTitle[tk]; !ok {
			idx.byTitle[tk] = i
		}
	}

	s.idx = idx
}

// Find resolves a row's mirror position from its signature. Probe order:
// exact key, then (createdAt, assignedBy) with any title, then (assignedBy,
// title) with any timestamp. If all three miss, the mirror is scanned in
// position order for the first row whose created_at matches exactly, a
// linear escape hatch that only triggers on stale or corrupted signatures,
// never on the hot path. Returns false only when no row shares the
// createdAt at all.
func (s *Session) Find(createdAt, assignedBy, title string) (int, bool) {
	if i, ok := s.idx.exact[sigKey{createdAt, assignedBy, title}]; ok {
		return i, true
	}
	if i, ok := s.idx.byCreated[[2]string{createdAt, assignedBy}]; ok {
		return i, true
	}
	if i, ok := s.idx.byTitle[[2]string{assignedBy, title}]; ok {
		return i, true
	}
	for i, t := range s.mirror {
		if t.CreatedAt == createdAt {
			return i, true
		}
	}
	return 0, false
}

// find is Find returning a sentinel error, for callers that report per-row
// failures.
func (s *Session) find(createdAt, assignedBy, title string) (int, error) {
	i, ok := s.Find(createdAt, assignedBy, title)
	if !ok {
		return 0, types.ErrRowNotFound
	}
	return i, nil
}
