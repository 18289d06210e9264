package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func entry(i int) call.HistoryEntry {
	started := base.Add(time.Duration(i) * time.Hour)
	return call.HistoryEntry{
		ID:        fmt.Sprintf("h-%02d", i),
		SessionID: fmt.Sprintf("call-%02d", i),
		AIName:    "Alex",
		StartedAt: started,
		EndedAt:   started.Add(time.Duration(60+i) * time.Second),
		Summary: call.Summary{
			DurationSeconds: 60 + i,
			MessageCount:    i + 1,
			HasAlerts:       i%2 == 0,
		},
	}
}

func newRedisStore(t *testing.T, maxEntries int) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client, "test:history", maxEntries)
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(0),
		"sqlite": newSQLiteStore(t),
		"redis":  newRedisStore(t, 0),
	}
}

func TestStoresListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 3; i++ {
				require.NoError(t, store.Record(ctx, entry(i)))
			}

			got, err := store.List(ctx, 10)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []string{"h-03", "h-02", "h-01"}, []string{got[0].ID, got[1].ID, got[2].ID})

			want := entry(2)
			assert.Equal(t, want.SessionID, got[1].SessionID)
			assert.Equal(t, want.Summary, got[1].Summary)
			assert.True(t, want.StartedAt.Equal(got[1].StartedAt))
			assert.True(t, want.EndedAt.Equal(got[1].EndedAt))
		})
	}
}

func TestStoresRespectLimit(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 5; i++ {
				require.NoError(t, store.Record(ctx, entry(i)))
			}

			got, err := store.List(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "h-05", got[0].ID)
			assert.Equal(t, "h-04", got[1].ID)

			all, err := store.List(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 5)
		})
	}
}

func TestStoresRejectEntryWithoutID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Record(context.Background(), call.HistoryEntry{})
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestMemoryStoreCapsEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	for i := 1; i <= 4; i++ {
		require.NoError(t, store.Record(ctx, entry(i)))
	}

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h-04", got[0].ID)
	assert.Equal(t, "h-03", got[1].ID)
}

func TestRedisStoreTrimsList(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t, 3)
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, entry(i)))
	}

	n, err := store.client.LLen(ctx, "test:history").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "h-05", got[0].ID)
}

func TestRedisStoreSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t, 0)
	require.NoError(t, store.Record(ctx, entry(1)))
	require.NoError(t, store.client.LPush(ctx, "test:history", "{not json").Err())

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "h-01", got[0].ID)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", "k", 0)
	assert.Error(t, err)
}

func TestNewRedisStorePingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "", 0)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), entry(7)))
	assert.True(t, mr.Exists("guardian:history"))
}

func TestSQLiteStoreInMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", 0)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), entry(1)))
	got, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStoreTrimsToMaxEntries(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:", 3)
	require.NoError(t, err)
	defer store.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, entry(i)))
	}

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_history`).Scan(&n))
	assert.Equal(t, 3, n)

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"h-05", "h-04", "h-03"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSQLiteStoreSkipsCorruptTimestamps(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	require.NoError(t, store.Record(ctx, entry(1)))
	require.NoError(t, store.Record(ctx, entry(2)))

	_, err := store.db.ExecContext(ctx, `UPDATE call_history SET started_at = 'yesterday' WHERE id = ?`, "h-02")
	require.NoError(t, err)

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "h-01", got[0].ID)
	assert.False(t, got[0].StartedAt.IsZero())
}

func TestSQLiteStoreDuplicateID(t *testing.T) {
	store := newSQLiteStore(t)
	require.NoError(t, store.Record(context.Background(), entry(1)))
	assert.Error(t, store.Record(context.Background(), entry(1)))
}

func TestRecorderFunc(t *testing.T) {
	var got call.HistoryEntry
	rec := RecorderFunc(func(_ context.Context, e call.HistoryEntry) error {
		got = e
		return nil
	})
	require.NoError(t, rec.Record(context.Background(), entry(4)))
	assert.Equal(t, "h-04", got.ID)
}
