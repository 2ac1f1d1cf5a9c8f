package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	payload := json.RawMessage(`{"total_users":42}`)
	require.NoError(t, store.Set(KeyPrefix+"dashboard_stats", payload))

	snap, ok := store.Get(KeyPrefix + "dashboard_stats")
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(snap.Data))
	assert.WithinDuration(t, time.Now(), snap.Timestamp, time.Minute)
}

func TestStoreMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("avida_admin_listings")
	assert.False(t, ok)
}

func TestStoreExpiredEntryTreatedAsAbsent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("avida_admin_users", json.RawMessage(`[]`)))

	// 読み取り時刻を有効期限の先まで進める
	store.now = func() time.Time {
		return time.Now().Add(domain.SnapshotTTL + time.Minute)
	}

	_, ok := store.Get("avida_admin_users")
	assert.False(t, ok)
}

func TestStoreOverwriteWins(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("avida_admin_polls", json.RawMessage(`{"v":1}`)))
	require.NoError(t, store.Set("avida_admin_polls", json.RawMessage(`{"v":2}`)))

	snap, ok := store.Get("avida_admin_polls")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(snap.Data))
}

func TestStoreCorruptEntryTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "avida_admin_broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, ok := store.Get("avida_admin_broken")
	assert.False(t, ok)
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("avida_admin_gone", json.RawMessage(`1`)))
	require.NoError(t, store.Delete("avida_admin_gone"))
	require.NoError(t, store.Delete("avida_admin_gone"))

	_, ok := store.Get("avida_admin_gone")
	assert.False(t, ok)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("avida_admin_a", json.RawMessage(`1`)))
	require.NoError(t, store.Set("avida_admin_b", json.RawMessage(`2`)))
	require.NoError(t, store.Clear())

	_, okA := store.Get("avida_admin_a")
	_, okB := store.Get("avida_admin_b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestStoreKeySanitization(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("avida_admin_listings/page:1", json.RawMessage(`[]`)))

	snap, ok := store.Get("avida_admin_listings/page:1")
	require.True(t, ok)
	assert.JSONEq(t, `[]`, string(snap.Data))
}

func TestSnapshotStalenessHint(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name      string
		timestamp time.Time
		stale     bool
		expired   bool
	}{
		{"fresh", now.Add(-time.Minute), false, false},
		{"stale but valid", now.Add(-10 * time.Minute), true, false},
		{"expired", now.Add(-25 * time.Hour), true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := &domain.Snapshot{Timestamp: tc.timestamp}
			assert.Equal(t, tc.stale, snap.IsStale(now))
			assert.Equal(t, tc.expired, snap.IsExpired(now))
		})
	}
}
