package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemStore is an in-memory RoomStore. It backs the roomsync service, solo
// play, and tests. Snapshot callbacks run synchronously on the mutating
// goroutine, after the store's lock is released, and always receive an
// isolated deep copy of the document. A callback that stalls therefore holds
// up only its own caller, never the store.
type MemStore struct {
	mu       sync.Mutex
	rooms    map[string]Document
	watchers map[string]map[int]func(Document)
	nextID   int
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		rooms:    make(map[string]Document),
		watchers: make(map[string]map[int]func(Document)),
	}
}

func (m *MemStore) Create(_ context.Context, id string, doc Document) error {
	m.mu.Lock()
	if _, ok := m.rooms[id]; ok {
		m.mu.Unlock()
		return fmt.Errorf("create %q: %w", id, ErrRoomExists)
	}
	m.rooms[id] = copyDocument(doc)
	watchers, snap := m.fanOutLocked(id)
	m.mu.Unlock()
	notify(watchers, snap)
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, ErrRoomNotFound)
	}
	return copyDocument(doc), nil
}

func (m *MemStore) Update(_ context.Context, id string, fields Document) error {
	m.mu.Lock()
	doc, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("update %q: %w", id, ErrRoomNotFound)
	}
	for path, value := range fields {
		applyField(doc, path, value)
	}
	watchers, snap := m.fanOutLocked(id)
	m.mu.Unlock()
	notify(watchers, snap)
	return nil
}

func (m *MemStore) Subscribe(_ context.Context, id string, onSnapshot func(Document), _ func(error)) (UnsubscribeFunc, error) {
	m.mu.Lock()
	if m.watchers[id] == nil {
		m.watchers[id] = make(map[int]func(Document))
	}
	wid := m.nextID
	m.nextID++
	m.watchers[id][wid] = onSnapshot
	doc, ok := m.rooms[id]
	var initial Document
	if ok {
		initial = copyDocument(doc)
	}
	m.mu.Unlock()

	// the current document is delivered immediately, matching the remote
	// store's subscription behavior
	if initial != nil {
		onSnapshot(initial)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers[id], wid)
			m.mu.Unlock()
		})
	}, nil
}

// Delete removes a room outright. Not part of the RoomStore contract; the
// roomsync sweeper uses it to reap idle rooms.
func (m *MemStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	delete(m.watchers, id)
}

// RoomIDs returns the ids of all stored rooms
func (m *MemStore) RoomIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}

// fanOutLocked captures the room's watcher list and an isolated snapshot of
// the document so the caller can deliver callbacks after unlocking.
func (m *MemStore) fanOutLocked(id string) ([]func(Document), Document) {
	doc, ok := m.rooms[id]
	if !ok || len(m.watchers[id]) == 0 {
		return nil, nil
	}
	watchers := make([]func(Document), 0, len(m.watchers[id]))
	for _, w := range m.watchers[id] {
		watchers = append(watchers, w)
	}
	return watchers, copyDocument(doc)
}

func notify(watchers []func(Document), snap Document) {
	for _, w := range watchers {
		w(copyDocument(snap))
	}
}

// applyField sets or clears one dotted-path field, creating intermediate
// maps as needed. A nil value clears the leaf.
func applyField(doc Document, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	leaf := parts[len(parts)-1]
	if value == nil {
		delete(cur, leaf)
		return
	}
	cur[leaf] = copyValue(value)
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
