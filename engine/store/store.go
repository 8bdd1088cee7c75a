// Package store defines the external storage contracts the game core
// depends on: a durable key-value store for local progression and a shared
// room store holding the authoritative multiplayer documents.
package store

import (
	"context"
	"errors"
)

// Document is the generic wire representation of a room document. Typing and
// validation happen at the consumer boundary, not here.
type Document = map[string]any

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

// KeyValue is a durable last-write-wins string store
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// UnsubscribeFunc cancels a room subscription. Safe to call more than once.
type UnsubscribeFunc func()

// RoomStore is the shared multiplayer document store. Update takes partial
// fields keyed by dotted paths ("players.<uid>.xp"), so a single player's
// sub-fields can change without rewriting the whole player map; a nil value
// clears the field. Subscriptions deliver the current document immediately
// and every subsequent version after a mutation; the latest snapshot is
// always authoritative.
type RoomStore interface {
	Create(ctx context.Context, id string, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, id string, fields Document) error
	Subscribe(ctx context.Context, id string, onSnapshot func(Document), onErr func(error)) (UnsubscribeFunc, error)
}
