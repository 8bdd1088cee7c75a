// Package wsstore is the websocket-backed RoomStore client talking to a
// roomsync service. This file defines the JSON frames shared by both ends.
package wsstore

import "github.com/neonrush/rush-engine/engine/store"

// Op identifies a protocol frame
type Op string

const (
	// client -> server
	OpCreate      Op = "create"
	OpGet         Op = "get"
	OpUpdate      Op = "update"
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"

	// server -> client
	OpAck      Op = "ack"
	OpSnapshot Op = "snapshot"
)

// Wire error strings mapped back to the store sentinels on the client
const (
	ErrStrNotFound = "room not found"
	ErrStrExists   = "room already exists"
)

// Message is one protocol frame. Requests carry a client-chosen Seq which
// the matching ack echoes; snapshots are unsolicited and carry no Seq.
type Message struct {
	Op   Op     `json:"op"`
	Seq  uint64 `json:"seq,omitempty"`
	Room string `json:"room,omitempty"`

	Doc    store.Document `json:"doc,omitempty"`
	Fields store.Document `json:"fields,omitempty"`

	Error string `json:"error,omitempty"`
}
