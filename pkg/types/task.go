package types

import "time"

// Task statuses. These exact strings are stored in the sheet and used as
// filter keys; do not localize or re-case them.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In-Progress"
	StatusCompleted  = "Completed"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Canonical column names of the task worksheet.
const (
	ColTask        = "task"
	ColDescription = "description"
	ColAssignedTo  = "assigned_to"
	ColAssignedBy  = "assigned_by"
	ColDueDate     = "due_date"
	ColStatus      = "status"
	ColCreatedAt   = "created_at"
)

// Columns is the canonical column order of the task worksheet. Every
// normalized row materializes all seven fields; the sheet header is still
// read live before appends so column drift in the remote store does not
// corrupt writes.
var Columns = []string{
	ColTask,
	ColDescription,
	ColAssignedTo,
	ColAssignedBy,
	ColDueDate,
	ColStatus,
	ColCreatedAt,
}

// columnIndex maps column name to its 1-based sheet position.
var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c] = i + 1
	}
	return m
}()

// ColumnIndex returns the 1-based sheet position of the named column.
// The second return is false for unknown columns.
func ColumnIndex(name string) (int, bool) {
	i, ok := columnIndex[name]
	return i, ok
}

// Record is a raw worksheet row keyed by header name, as returned by
// Store.ReadAll. Values for missing cells are empty strings.
type Record map[string]string

// Task is one row of the task worksheet. All fields are stored as strings:
// DueDate is an ISO date or empty, CreatedAt is an RFC 3339 timestamp set
// once at creation and never rewritten; it is part of the row's natural key.
type Task struct {
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	DueDate     string
	Status      string
	CreatedAt   string
}

// TaskFromRecord normalizes a raw row to a Task. Missing columns become
// empty strings; extra columns are dropped.
func TaskFromRecord(r Record) Task {
	return Task{
		Title:       r[ColTask],
		Description: r[ColDescription],
		AssignedTo:  r[ColAssignedTo],
		AssignedBy:  r[ColAssignedBy],
		DueDate:     r[ColDueDate],
		Status:      r[ColStatus],
		CreatedAt:   r[ColCreatedAt],
	}
}

// Field returns the value of the named canonical column, or "" for an
// unknown column name.
func (t Task) Field(column string) string {
	switch column {
	case ColTask:
		return t.Title
	case ColDescription:
		return t.Description
	case ColAssignedTo:
		return t.AssignedTo
	case ColAssignedBy:
		return t.AssignedBy
	case ColDueDate:
		return t.DueDate
	case ColStatus:
		return t.Status
	case ColCreatedAt:
		return t.CreatedAt
	default:
		return ""
	}
}

// SetField sets the named canonical column. Unknown columns are ignored.
func (t *Task) SetField(column, value string) {
	switch column {
	case ColTask:
		t.Title = value
	case ColDescription:
		t.Description = value
	case ColAssignedTo:
		t.AssignedTo = value
	case ColAssignedBy:
		t.AssignedBy = value
	case ColDueDate:
		t.DueDate = value
	case ColStatus:
		t.Status = value
	case ColCreatedAt:
		t.CreatedAt = value
	}
}

// Values returns the row values in canonical column order.
func (t Task) Values() []string {
	return t.ValuesFor(Columns)
}

// ValuesFor returns the row values ordered by the given header. Columns the
// task does not know become empty strings, so a drifted remote header still
// receives a well-formed row.
func (t Task) ValuesFor(header []string) []string {
	values := make([]string, len(header))
	for i, h := range header {
		values[i] = t.Field(h)
	}
	return values
}

// CreatedTime parses the CreatedAt timestamp. The zero time and false are
// returned when the field is empty or malformed.
func (t Task) CreatedTime() (time.Time, bool) {
	if t.CreatedAt == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		// Tolerate a bare date; old rows were written that way.
		ts, err = time.Parse("2006-01-02", t.CreatedAt)
		if err != nil {
			return time.Time{}, false
		}
	}
	return ts, true
}

// DueTime parses the DueDate field. The zero time and false are returned
// when the field is empty or malformed.
func (t Task) DueTime() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
