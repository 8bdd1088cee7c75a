package store

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomDoc() Document {
	return Document{
		"id":     "ROOM01",
		"status": "waiting",
		"players": map[string]any{
			"u1": map[string]any{"uid": "u1", "xp": 0.0, "status": "ready"},
		},
	}
}

func TestMemStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))

	got, err := m.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "waiting", got["status"])

	err = m.Create(ctx, "ROOM01", roomDoc())
	assert.ErrorIs(t, err, ErrRoomExists)

	_, err = m.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemStoreDottedPathUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))

	require.NoError(t, m.Update(ctx, "ROOM01", Document{
		"status":            "playing",
		"startTime":         int64(1234),
		"players.u1.status": "playing",
		"players.u2": map[string]any{
			"uid": "u2", "xp": 0.0, "status": "playing",
		},
	}))

	got, err := m.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "playing", got["status"])
	assert.Equal(t, int64(1234), got["startTime"])

	players := got["players"].(map[string]any)
	assert.Equal(t, "playing", players["u1"].(map[string]any)["status"])
	assert.Equal(t, "u2", players["u2"].(map[string]any)["uid"])

	// a nil value clears a field
	require.NoError(t, m.Update(ctx, "ROOM01", Document{"startTime": nil}))
	got, err = m.Get(ctx, "ROOM01")
	require.NoError(t, err)
	_, has := got["startTime"]
	assert.False(t, has)

	err = m.Update(ctx, "NOPE", Document{"status": "playing"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))

	var snaps []Document
	unsub, err := m.Subscribe(ctx, "ROOM01", func(d Document) { snaps = append(snaps, d) }, nil)
	require.NoError(t, err)

	// current document delivered immediately
	require.Len(t, snaps, 1)
	assert.Equal(t, "waiting", snaps[0]["status"])

	require.NoError(t, m.Update(ctx, "ROOM01", Document{"status": "playing"}))
	require.Len(t, snaps, 2)
	assert.Equal(t, "playing", snaps[1]["status"])

	unsub()
	unsub() // double-unsubscribe is safe
	require.NoError(t, m.Update(ctx, "ROOM01", Document{"status": "finished"}))
	assert.Len(t, snaps, 2)
}

func TestMemStoreSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))

	got, err := m.Get(ctx, "ROOM01")
	require.NoError(t, err)
	got["status"] = "corrupted"
	got["players"].(map[string]any)["u1"].(map[string]any)["status"] = "corrupted"

	fresh, err := m.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "waiting", fresh["status"])
	assert.Equal(t, "ready", fresh["players"].(map[string]any)["u1"].(map[string]any)["status"])
}

func TestMemStoreStalledWatcherDoesNotBlockStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))

	// the first callback is the synchronous initial snapshot; every later
	// one parks until released, wedging its mutating goroutine
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	_, err := m.Subscribe(ctx, "ROOM01", func(Document) {
		if calls.Add(1) == 1 {
			return
		}
		entered <- struct{}{}
		<-release
	}, nil)
	require.NoError(t, err)

	go func() { _ = m.Update(ctx, "ROOM01", Document{"status": "playing"}) }()
	<-entered

	// with one goroutine stuck inside the callback, the store itself must
	// still answer other clients
	done := make(chan struct{})
	go func() {
		defer close(done)
		doc, err := m.Get(ctx, "ROOM01")
		assert.NoError(t, err)
		assert.Equal(t, "playing", doc["status"])
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Get blocked behind a stalled snapshot callback")
	}
	close(release)
}

func TestMemStoreDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Create(ctx, "ROOM01", roomDoc()))
	assert.Equal(t, []string{"ROOM01"}, m.RoomIDs())

	m.Delete("ROOM01")
	assert.Empty(t, m.RoomIDs())
	_, err := m.Get(ctx, "ROOM01")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestFileKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "storage.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)

	_, ok, err := kv.Get("neon_rush_highscore")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("neon_rush_highscore", "1234"))
	require.NoError(t, kv.Set("neon_rush_level", "3"))

	// a second instance reads the persisted values back
	kv2, err := NewFileKV(path)
	require.NoError(t, err)
	v, ok, err := kv2.Get("neon_rush_highscore")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", v)
}
