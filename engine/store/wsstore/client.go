package wsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"

	"github.com/neonrush/rush-engine/engine/store"
)

// ErrClosed reports an operation on a client whose connection is gone
var ErrClosed = errors.New("wsstore: connection closed")

type subscription struct {
	onSnapshot func(store.Document)
	onErr      func(error)
}

// Client implements store.RoomStore over a single websocket connection to a
// roomsync service. All operations are safe for concurrent use; snapshot
// callbacks run on the client's read goroutine.
type Client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan Message
	subs    map[string]*subscription
	closed  bool
	done    chan struct{}
}

var _ store.RoomStore = (*Client)(nil)

// Dial connects to a roomsync service at url (ws:// or wss://)
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wsstore: dial %s: %w", url, err)
	}
	// room documents can outgrow the default read limit once a room fills up
	conn.SetReadLimit(1 << 20)
	c := &Client{
		conn:    conn,
		pending: make(map[uint64]chan Message),
		subs:    make(map[string]*subscription),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. Pending requests fail with ErrClosed and
// every live subscription gets an error callback.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.fail(fmt.Errorf("wsstore: read: %w", err))
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // a garbled frame is dropped, not fatal
		}
		switch msg.Op {
		case OpSnapshot:
			c.mu.Lock()
			sub := c.subs[msg.Room]
			c.mu.Unlock()
			if sub != nil {
				sub.onSnapshot(msg.Doc)
			}
		case OpAck:
			c.mu.Lock()
			ch := c.pending[msg.Seq]
			delete(c.pending, msg.Seq)
			c.mu.Unlock()
			if ch != nil {
				ch <- msg
			}
		}
	}
}

// fail closes out all pending requests and notifies subscribers once
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]chan Message)
	subs := c.subs
	c.subs = make(map[string]*subscription)
	close(c.done)
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	for _, sub := range subs {
		if sub.onErr != nil {
			sub.onErr(err)
		}
	}
}

// request sends one frame and waits for its ack
func (c *Client) request(ctx context.Context, msg Message) (Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	c.seq++
	msg.Seq = c.seq
	ch := make(chan Message, 1)
	c.pending[msg.Seq] = ch
	c.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.mu.Lock()
		delete(c.pending, msg.Seq)
		c.mu.Unlock()
		return Message{}, fmt.Errorf("wsstore: write: %w", err)
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return Message{}, ErrClosed
		}
		if reply.Error != "" {
			return Message{}, wireError(reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, msg.Seq)
		c.mu.Unlock()
		return Message{}, ctx.Err()
	case <-c.done:
		return Message{}, ErrClosed
	}
}

// wireError maps protocol error strings back onto the store sentinels so
// callers can keep using errors.Is
func wireError(s string) error {
	switch s {
	case ErrStrNotFound:
		return store.ErrRoomNotFound
	case ErrStrExists:
		return store.ErrRoomExists
	default:
		return errors.New(s)
	}
}

func (c *Client) Create(ctx context.Context, id string, doc store.Document) error {
	_, err := c.request(ctx, Message{Op: OpCreate, Room: id, Doc: doc})
	return err
}

func (c *Client) Get(ctx context.Context, id string) (store.Document, error) {
	reply, err := c.request(ctx, Message{Op: OpGet, Room: id})
	if err != nil {
		return nil, err
	}
	return reply.Doc, nil
}

func (c *Client) Update(ctx context.Context, id string, fields store.Document) error {
	_, err := c.request(ctx, Message{Op: OpUpdate, Room: id, Fields: fields})
	return err
}

func (c *Client) Subscribe(ctx context.Context, id string, onSnapshot func(store.Document), onErr func(error)) (store.UnsubscribeFunc, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.subs[id] = &subscription{onSnapshot: onSnapshot, onErr: onErr}
	c.mu.Unlock()

	if _, err := c.request(ctx, Message{Op: OpSubscribe, Room: id}); err != nil {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				// best effort: the server drops the watch on its side
				_, _ = c.request(context.Background(), Message{Op: OpUnsubscribe, Room: id})
			}
		})
	}, nil
}
