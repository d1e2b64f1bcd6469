package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExactKeyForEveryRow(t *testing.T) {
	var rows [][]string
	for i := 0; i < 20; i++ {
		rows = append(rows, row(
			fmt.Sprintf("task-%d", i), "", "b@med-x.ai", "a@med-x.ai",
			"", "Pending", fmt.Sprintf("2026-08-%02dT10:00:00Z", i+1),
		))
	}
	s := newTestSession(t, newFakeStore(rows...))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		pos, ok := s.Find(fmt.Sprintf("2026-08-%02dT10:00:00Z", i+1), "a@med-x.ai", fmt.Sprintf("task-%d", i))
		require.True(t, ok, "row %d should resolve", i)
		assert.Equal(t, i, pos)
	}
}

func TestFindAfterAppendResolvesNewPosition(t *testing.T) {
	s := newTestSession(t, newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
	))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	pos, err := s.AppendTask(context.Background(), taskAt("C", "2026-08-03T10:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	found, ok := s.Find("2026-08-03T10:00:00Z", "a@med-x.ai", "C")
	require.True(t, ok)
	assert.Equal(t, 2, found)
}

func TestDegradedKeyTieBreakEarliestWins(t *testing.T) {
	// Two rows share (created_at, assigned_by) but differ in title. A
	// degraded lookup with the wrong title must return the earlier row.
	s := newTestSession(t, newFakeStore(
		row("first", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("second", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
	))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	// Exact lookups still distinguish the two.
	pos, ok := s.Find("2026-08-01T10:00:00Z", "a@med-x.ai", "second")
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	// Degraded creator-key lookup: earliest inserted wins.
	pos, ok = s.Find("2026-08-01T10:00:00Z", "a@med-x.ai", "no-such-title")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestExactKeyCollisionLastWins(t *testing.T) {
	// Identical full signatures: the most recent row claims the exact key.
	s := newTestSession(t, newFakeStore(
		row("dup", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("dup", "", "c@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
	))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	pos, ok := s.Find("2026-08-01T10:00:00Z", "a@med-x.ai", "dup")
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestFindFallsBackToCreatedAtScan(t *testing.T) {
	s := newTestSession(t, newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
	))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	// Neither assigned_by nor title match anything, only the timestamp does.
	pos, ok := s.Find("2026-08-02T10:00:00Z", "someone-else@med-x.ai", "renamed")
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	// No row shares the created_at: genuine miss.
	_, ok = s.Find("2000-01-01T00:00:00Z", "someone-else@med-x.ai", "renamed")
	assert.False(t, ok)
}

func TestIndexReflectsPositionsAfterDelete(t *testing.T) {
	s := newTestSession(t, newFakeStore(
		row("A", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-01T10:00:00Z"),
		row("B", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-02T10:00:00Z"),
		row("C", "", "b@med-x.ai", "a@med-x.ai", "", "Pending", "2026-08-03T10:00:00Z"),
	))
	_, err := s.Load(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(context.Background(), 1))

	// Rows after the deleted position shift down by one and the rebuilt
	// index agrees.
	require.Equal(t, 2, s.Len())
	pos, ok := s.Find("2026-08-03T10:00:00Z", "a@med-x.ai", "C")
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	pos, ok = s.Find("2026-08-01T10:00:00Z", "a@med-x.ai", "A")
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	_, ok = s.Find("2026-08-02T10:00:00Z", "a@med-x.ai", "B")
	assert.False(t, ok)
}
