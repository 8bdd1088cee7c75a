package roomsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonrush/rush-engine/engine/store"
	"github.com/neonrush/rush-engine/engine/store/wsstore"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer(DefaultConfig(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialTestClient(t *testing.T, url string) *wsstore.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := wsstore.Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testDoc(status string) store.Document {
	return store.Document{
		"id":     "ROOM01",
		"status": status,
		"players": map[string]any{
			"u1": map[string]any{"uid": "u1", "status": "ready"},
		},
	}
}

func TestCreateGetUpdateOverWire(t *testing.T) {
	_, url := startTestServer(t)
	c := dialTestClient(t, url)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "ROOM01", testDoc("waiting")))

	err := c.Create(ctx, "ROOM01", testDoc("waiting"))
	assert.ErrorIs(t, err, store.ErrRoomExists)

	doc, err := c.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "waiting", doc["status"])

	_, err = c.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, store.ErrRoomNotFound)

	require.NoError(t, c.Update(ctx, "ROOM01", store.Document{
		"status":            "playing",
		"players.u1.status": "playing",
	}))
	doc, err = c.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "playing", doc["status"])
	players := doc["players"].(map[string]any)
	assert.Equal(t, "playing", players["u1"].(map[string]any)["status"])
}

func TestSnapshotFanOutAcrossClients(t *testing.T) {
	_, url := startTestServer(t)
	writer := dialTestClient(t, url)
	watcher := dialTestClient(t, url)
	ctx := context.Background()

	require.NoError(t, writer.Create(ctx, "ROOM01", testDoc("waiting")))

	snaps := make(chan store.Document, 16)
	unsub, err := watcher.Subscribe(ctx, "ROOM01",
		func(d store.Document) { snaps <- d },
		func(error) {})
	require.NoError(t, err)

	// the subscription delivers the current document first
	select {
	case d := <-snaps:
		assert.Equal(t, "waiting", d["status"])
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	// a mutation by another client reaches the watcher
	require.NoError(t, writer.Update(ctx, "ROOM01", store.Document{"status": "playing"}))
	select {
	case d := <-snaps:
		assert.Equal(t, "playing", d["status"])
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after update")
	}

	unsub()
	require.NoError(t, writer.Update(ctx, "ROOM01", store.Document{"status": "finished"}))
	select {
	case <-snaps:
		t.Fatal("snapshot delivered after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStalledSubscriberDoesNotStallService(t *testing.T) {
	_, url := startTestServer(t)
	writer := dialTestClient(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, writer.Create(ctx, "ROOM01", testDoc("waiting")))

	// a raw connection that subscribes and then never reads a single frame
	laggard, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer laggard.Close(websocket.StatusNormalClosure, "")
	sub, err := json.Marshal(wsstore.Message{Op: wsstore.OpSubscribe, Seq: 1, Room: "ROOM01"})
	require.NoError(t, err)
	require.NoError(t, laggard.Write(ctx, websocket.MessageText, sub))

	// bulky snapshots overflow the laggard's socket and outbound queue;
	// the well-behaved client must keep getting acks regardless
	blob := strings.Repeat("x", 1<<16)
	for i := 0; i < 300; i++ {
		require.NoError(t, writer.Update(ctx, "ROOM01", store.Document{
			"status": "playing",
			"blob":   blob,
		}))
	}

	doc, err := writer.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "playing", doc["status"])
}

func TestSubscriberSeesErrorOnServerGone(t *testing.T) {
	s := NewServer(DefaultConfig(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	ts := httptest.NewServer(mux)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := wsstore.Dial(ctx, url)
	require.NoError(t, err)

	require.NoError(t, c.Create(ctx, "ROOM01", testDoc("waiting")))
	errCh := make(chan error, 1)
	_, err = c.Subscribe(ctx, "ROOM01", func(store.Document) {}, func(e error) { errCh <- e })
	require.NoError(t, err)

	ts.CloseClientConnections()
	ts.Close()

	select {
	case e := <-errCh:
		assert.Error(t, e)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never saw the connection loss")
	}
}

func TestSweepReapsIdleRooms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoomTTL = time.Minute
	s := NewServer(cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	require.NoError(t, s.store.Create(context.Background(), "OLD001", testDoc("waiting")))
	s.touch("OLD001")

	s.sweep(time.Now())
	assert.Contains(t, s.store.RoomIDs(), "OLD001", "young room survives")

	s.sweep(time.Now().Add(2 * time.Minute))
	assert.NotContains(t, s.store.RoomIDs(), "OLD001", "idle room is reaped")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "roomsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9999\"\nroom_ttl: 30m\nsweep_interval: 1m\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.RoomTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)

	// a missing file quietly falls back to defaults
	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("ROOMSYNC_ADDR", ":7777")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Addr)
}
