// Package roomsync hosts the shared room documents: a websocket service
// applying client mutations to an in-memory store and fanning out every
// resulting snapshot to the room's subscribers.
package roomsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/neonrush/rush-engine/engine/store"
	"github.com/neonrush/rush-engine/engine/store/wsstore"
)

// Server is one roomsync instance. Documents live in a MemStore; clients
// connect over websocket at /ws.
type Server struct {
	cfg    Config
	logger *slog.Logger
	store  *store.MemStore
	http   *http.Server

	mu       sync.Mutex
	activity map[string]time.Time // roomID -> last mutation
}

// NewServer creates a server with an empty document store
func NewServer(cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store.NewMemStore(),
		activity: make(map[string]time.Time),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.http = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Store exposes the document backend for tests
func (s *Server) Store() *store.MemStore { return s.store }

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("roomsync listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.sweepLoop(ctx)
		return nil
	})

	return g.Wait()
}

// sweepLoop reaps rooms whose last mutation is older than the TTL
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Server) sweep(now time.Time) {
	s.mu.Lock()
	var stale []string
	for id, last := range s.activity {
		if now.Sub(last) > s.cfg.RoomTTL {
			stale = append(stale, id)
			delete(s.activity, id)
		}
	}
	s.mu.Unlock()
	for _, id := range stale {
		s.store.Delete(id)
		s.logger.Info("swept idle room", "room", id)
	}
}

func (s *Server) touch(id string) {
	s.mu.Lock()
	s.activity[id] = time.Now()
	s.mu.Unlock()
}

// conn is one connected client with its subscriptions and outbound queue
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
	sendCh chan wsstore.Message
	unsubs map[string]store.UnsubscribeFunc
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // game clients connect from arbitrary origins
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "err", err)
		return
	}
	ws.SetReadLimit(1 << 20)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{
		ws:     ws,
		cancel: cancel,
		sendCh: make(chan wsstore.Message, 256),
		unsubs: make(map[string]store.UnsubscribeFunc),
	}
	defer func() {
		for _, unsub := range c.unsubs {
			unsub()
		}
		ws.Close(websocket.StatusNormalClosure, "")
	}()

	go s.writeLoop(ctx, c)

	s.logger.Debug("client connected", "remote", r.RemoteAddr)
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			s.logger.Debug("client disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}
		var msg wsstore.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("dropping malformed frame", "remote", r.RemoteAddr, "err", err)
			continue
		}
		s.handleMessage(ctx, c, msg)
	}
}

// writeLoop serializes all outbound frames for one connection, so snapshot
// fan-out from mutating goroutines never interleaves writes
func (s *Server) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.sendCh:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

// send queues one outbound frame without ever blocking the caller. Snapshot
// fan-out runs on other clients' goroutines, so a client that stops reading
// must not stall them: once its queue is full we drop the connection instead.
// The client recovers the authoritative document when it resubscribes.
func (c *conn) send(msg wsstore.Message) {
	select {
	case c.sendCh <- msg:
	default:
		c.cancel()
	}
}

func (s *Server) handleMessage(ctx context.Context, c *conn, msg wsstore.Message) {
	ack := wsstore.Message{Op: wsstore.OpAck, Seq: msg.Seq, Room: msg.Room}

	switch msg.Op {
	case wsstore.OpCreate:
		if err := s.store.Create(ctx, msg.Room, msg.Doc); err != nil {
			ack.Error = wireErrString(err)
		} else {
			s.touch(msg.Room)
		}

	case wsstore.OpGet:
		doc, err := s.store.Get(ctx, msg.Room)
		if err != nil {
			ack.Error = wireErrString(err)
		} else {
			ack.Doc = doc
		}

	case wsstore.OpUpdate:
		if err := s.store.Update(ctx, msg.Room, msg.Fields); err != nil {
			ack.Error = wireErrString(err)
		} else {
			s.touch(msg.Room)
		}

	case wsstore.OpSubscribe:
		room := msg.Room
		if _, dup := c.unsubs[room]; !dup {
			unsub, err := s.store.Subscribe(ctx, room, func(doc store.Document) {
				c.send(wsstore.Message{Op: wsstore.OpSnapshot, Room: room, Doc: doc})
			}, nil)
			if err != nil {
				ack.Error = err.Error()
			} else {
				c.unsubs[room] = unsub
			}
		}

	case wsstore.OpUnsubscribe:
		if unsub, ok := c.unsubs[msg.Room]; ok {
			unsub()
			delete(c.unsubs, msg.Room)
		}

	default:
		ack.Error = "unknown op"
	}

	c.send(ack)
}

// wireErrString flattens store sentinels to the protocol strings the client
// maps back
func wireErrString(err error) string {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return wsstore.ErrStrNotFound
	case errors.Is(err, store.ErrRoomExists):
		return wsstore.ErrStrExists
	default:
		return err.Error()
	}
}
