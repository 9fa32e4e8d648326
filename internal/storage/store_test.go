package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func result(room string, at time.Time) Result {
	return Result{
		RoomID:     room,
		WinnerID:   "p-" + room,
		WinnerName: "alice",
		Players:    []string{"alice", "Bot 2"},
		FinishedAt: at,
	}
}

func TestRecordResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordResult(ctx, result("ABC123", at)))

	got, err := s.GetResult(ctx, "ABC123")
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "ABC123", got.RoomID)
	assert.Equal(t, "p-ABC123", got.WinnerID)
	assert.Equal(t, "alice", got.WinnerName)
	assert.Equal(t, []string{"alice", "Bot 2"}, got.Players)
	assert.True(t, at.Equal(got.FinishedAt), "finished at %v", got.FinishedAt)
}

func TestGetResultNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetResult(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListResultsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordResult(ctx, result("AAA", base)))
	require.NoError(t, s.RecordResult(ctx, result("CCC", base.Add(2*time.Minute))))
	require.NoError(t, s.RecordResult(ctx, result("BBB", base.Add(time.Minute))))

	rows, err := s.ListResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "CCC", rows[0].RoomID)
	assert.Equal(t, "BBB", rows[1].RoomID)
	assert.Equal(t, "AAA", rows[2].RoomID)
}

func TestListResultsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, room := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, s.RecordResult(ctx, result(room, base.Add(time.Duration(i)*time.Second))))
	}

	rows, err := s.ListResults(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CCC", rows[0].RoomID)
}

func TestListResultsEmpty(t *testing.T) {
	s := newTestStore(t)
	rows, err := s.ListResults(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRecordResultCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.RecordResult(ctx, result("ABC123", time.Now())))
}
