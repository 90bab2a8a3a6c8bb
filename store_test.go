package blog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev, err := s.Record(ctx, AuditEvent{Action: ActionLoginSuccess, Actor: "sid@example.com", IP: "203.0.113.1"})
	require.NoError(t, err)
	_, err = ulid.ParseStrict(ev.ID)
	require.NoError(t, err)
	assert.False(t, ev.At.IsZero())

	events, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)
	assert.Equal(t, ActionLoginSuccess, events[0].Action)
	assert.Equal(t, "sid@example.com", events[0].Actor)
	assert.Equal(t, "203.0.113.1", events[0].IP)
	assert.True(t, ev.At.Equal(events[0].At))
}

func TestStoreRecentEventsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	for i, action := range []string{ActionLoginSuccess, ActionCreatePost, ActionPublish} {
		_, err := s.Record(ctx, AuditEvent{At: base.Add(time.Duration(i) * time.Minute), Action: action})
		require.NoError(t, err)
	}

	events, err := s.RecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionPublish, events[0].Action)
	assert.Equal(t, ActionCreatePost, events[1].Action)
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), AuditEvent{Action: ActionLogout})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	events, err := s.RecentEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
