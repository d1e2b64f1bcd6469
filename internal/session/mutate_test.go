package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med-x/opsportal/pkg/types"
)

func TestAppendTaskFollowsLiveHeaderOrder(t *testing.T) {
	// The remote header drifted: columns reversed. The append must follow
	// the live header, not the compiled-in order.
	store := newFakeStore()
	store.header = []string{"created_at", "status", "due_date", "assigned_by", "assigned_to", "description", "task"}

	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	_, err = s.AppendTask(context.Background(), types.Task{
		Title:      "drifted",
		AssignedTo: "b@med-x.ai",
		AssignedBy: "a@med-x.ai",
		Status:     "Pending",
		CreatedAt:  "2026-08-29T09:00:00Z",
	})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, []string{"2026-08-29T09:00:00Z", "Pending", "", "a@med-x.ai", "b@med-x.ai", "", "drifted"}, store.rows[0])
}

func TestAppendTaskEmptyHeaderFallsBackToCanonical(t *testing.T) {
	store := newFakeStore()
	store.header = nil

	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	_, err = s.AppendTask(context.Background(), taskAt("A", "2026-08-29T09:00:00Z"))
	require.NoError(t, err)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "A", store.rows[0][0])
	assert.Equal(t, "2026-08-29T09:00:00Z", store.rows[0][6])
}

func TestAppendTaskRemoteFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.failAppend = true
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	_, err = s.AppendTask(context.Background(), taskAt("A", "2026-08-29T09:00:00Z"))
	require.Error(t, err)
	assert.Equal(t, 0, s.Len(), "failed remote append must not patch the mirror")
}

func TestUpdateCellPatchesMirrorAndRemote(t *testing.T) {
	store := newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
	)
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCell(context.Background(), 1, types.ColStatus, "Completed"))

	// Remote row number is position+2 (1-based plus header row); status is
	// column 6 of the canonical schema.
	assert.Contains(t, store.calls, "updateCell(3,6,Completed)")
	got, err := s.Task(1)
	require.NoError(t, err)
	assert.Equal(t, "Completed", got.Status)
	assert.Equal(t, "Completed", store.rows[1][5])
}

func TestUpdateCellIdempotent(t *testing.T) {
	store := newFakeStore(row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"))
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	before, err := s.Task(0)
	require.NoError(t, err)

	// Writing the value the cell already holds changes nothing observable.
	require.NoError(t, s.UpdateCell(context.Background(), 0, types.ColStatus, "Pending"))
	require.NoError(t, s.UpdateCell(context.Background(), 0, types.ColStatus, "Pending"))

	after, err := s.Task(0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "Pending", store.rows[0][5])
}

func TestUpdateCellErrors(t *testing.T) {
	store := newFakeStore(row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"))
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpdateCell(context.Background(), 5, types.ColStatus, "x"), types.ErrRowOutOfRange)
	assert.ErrorIs(t, s.UpdateCell(context.Background(), 0, "no_such_column", "x"), types.ErrUnknownColumn)

	store.failUpdate = true
	err = s.UpdateCell(context.Background(), 0, types.ColStatus, "Completed")
	require.Error(t, err)
	got, terr := s.Task(0)
	require.NoError(t, terr)
	assert.Equal(t, "Pending", got.Status, "failed remote write must not patch the mirror")
}

func TestDeleteRowShiftsPositions(t *testing.T) {
	store := newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
		row("C", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-03T10:00:00Z"),
		row("D", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-04T10:00:00Z"),
	)
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(context.Background(), 1))

	require.Equal(t, 3, s.Len())
	titles := make([]string, 0, 3)
	for i := 0; i < s.Len(); i++ {
		task, terr := s.Task(i)
		require.NoError(t, terr)
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"A", "C", "D"}, titles)
	assert.Contains(t, store.calls, "deleteRow(3)")
}

func TestDeleteRowFallsBackToRewrite(t *testing.T) {
	store := newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
	)
	store.failDelete = true
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(context.Background(), 0))

	assert.Contains(t, store.calls, "rewrite")
	require.Len(t, store.rows, 1)
	assert.Equal(t, "B", store.rows[0][0])
	assert.Equal(t, 1, s.Len())
}

func TestDeleteRowRewriteFailureLeavesMirrorUntouched(t *testing.T) {
	store := newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
	)
	store.failDelete = true
	store.failRewrite = true
	s := newTestSession(t, store)
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	err = s.DeleteRow(context.Background(), 0)
	require.Error(t, err)

	// The remote write did not happen, so the mirror must not claim it did.
	assert.Equal(t, 2, s.Len())
	got, terr := s.Task(0)
	require.NoError(t, terr)
	assert.Equal(t, "A", got.Title)
}

func TestCreateValidatesAndAudits(t *testing.T) {
	store := newFakeStore()
	audit := &recordingAudit{}
	s := New(alice, store, audit)
	s.AssigneeRule = func(email string) bool { return email == "bob@med-x.ai" }
	s.now = func() time.Time { return time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC) }

	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	_, _, err = s.Create(context.Background(), "", "d", "bob@med-x.ai", "")
	assert.ErrorIs(t, err, types.ErrEmptyTitle)

	_, _, err = s.Create(context.Background(), "T", "d", "eve@elsewhere.com", "")
	assert.ErrorIs(t, err, types.ErrInvalidEmail)

	pos, task, err := s.Create(context.Background(), "T", "d", "bob@med-x.ai", "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.Equal(t, types.StatusPending, task.Status)
	assert.Equal(t, "2026-08-29T09:00:00Z", task.CreatedAt)
	assert.Equal(t, alice.Email, task.AssignedBy)

	require.Len(t, audit.records, 1)
	assert.Equal(t, types.AuditCreated, audit.records[0].action)
	assert.Equal(t, "assigned_to=bob@med-x.ai", audit.records[0].newValue)
}
