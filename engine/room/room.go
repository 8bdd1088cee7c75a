// Package room models the shared multiplayer session: the typed room
// document, the reducer driving the top-level application state from store
// snapshots, and the optimistic mutation operations.
package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/neonrush/rush-engine/engine/store"
)

// Status is the match phase of a room. Transitions are strictly
// waiting -> playing -> finished -> waiting -> ...
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// PlayerStatus is a participant's sub-state within a room
type PlayerStatus string

const (
	PlayerReady    PlayerStatus = "ready"
	PlayerPlaying  PlayerStatus = "playing"
	PlayerCrashed  PlayerStatus = "crashed"
	PlayerFinished PlayerStatus = "finished"
)

// Player is one connected participant. Exactly one player per room has
// IsHost set (the creator); there is no host migration.
type Player struct {
	UID         string
	DisplayName string
	XP          int
	IsHost      bool
	Status      PlayerStatus
}

// Data is the local read-through cache of a room document. The store owns
// the authoritative copy; Data is rebuilt from every snapshot.
type Data struct {
	ID        string
	CreatedAt time.Time
	Status    Status
	StartTime time.Time // zero until the host starts a match
	Players   map[string]Player
}

// ActivePlayers counts participants still in the playing sub-state
func (d *Data) ActivePlayers() int {
	n := 0
	for _, p := range d.Players {
		if p.Status == PlayerPlaying {
			n++
		}
	}
	return n
}

// Host returns the room's host, or nil if the document has none
func (d *Data) Host() *Player {
	for uid := range d.Players {
		if d.Players[uid].IsHost {
			p := d.Players[uid]
			return &p
		}
	}
	return nil
}

// ErrBadDocument reports a room document that failed boundary validation
var ErrBadDocument = errors.New("malformed room document")

// FromDocument validates and types a raw store document. Snapshots cross an
// untrusted boundary, so unknown enum values and missing required fields are
// rejected rather than passed through.
func FromDocument(doc store.Document) (Data, error) {
	d := Data{Players: make(map[string]Player)}

	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return Data{}, fmt.Errorf("%w: missing id", ErrBadDocument)
	}
	d.ID = id

	status := Status(asString(doc["status"]))
	switch status {
	case StatusWaiting, StatusPlaying, StatusFinished:
		d.Status = status
	default:
		return Data{}, fmt.Errorf("%w: unknown status %q", ErrBadDocument, doc["status"])
	}

	if ms, ok := asInt64(doc["createdAt"]); ok {
		d.CreatedAt = time.UnixMilli(ms)
	}
	if ms, ok := asInt64(doc["startTime"]); ok {
		d.StartTime = time.UnixMilli(ms)
	}

	rawPlayers, ok := doc["players"].(map[string]any)
	if !ok {
		return Data{}, fmt.Errorf("%w: missing players", ErrBadDocument)
	}
	for uid, raw := range rawPlayers {
		pm, ok := raw.(map[string]any)
		if !ok {
			return Data{}, fmt.Errorf("%w: player %q is not a map", ErrBadDocument, uid)
		}
		p := Player{
			UID:         uid,
			DisplayName: asString(pm["displayName"]),
		}
		if xp, ok := asInt64(pm["xp"]); ok {
			p.XP = int(xp)
		}
		if host, ok := pm["isHost"].(bool); ok {
			p.IsHost = host
		}
		ps := PlayerStatus(asString(pm["status"]))
		switch ps {
		case PlayerReady, PlayerPlaying, PlayerCrashed, PlayerFinished:
			p.Status = ps
		default:
			return Data{}, fmt.Errorf("%w: player %q has unknown status %q", ErrBadDocument, uid, pm["status"])
		}
		d.Players[uid] = p
	}
	return d, nil
}

// Document converts typed room data back into the store representation
func (d *Data) Document() store.Document {
	players := make(map[string]any, len(d.Players))
	for uid, p := range d.Players {
		players[uid] = playerDocument(p)
	}
	doc := store.Document{
		"id":        d.ID,
		"createdAt": d.CreatedAt.UnixMilli(),
		"status":    string(d.Status),
		"players":   players,
	}
	if !d.StartTime.IsZero() {
		doc["startTime"] = d.StartTime.UnixMilli()
	}
	return doc
}

func playerDocument(p Player) map[string]any {
	return map[string]any{
		"uid":         p.UID,
		"displayName": p.DisplayName,
		"xp":          int64(p.XP),
		"isHost":      p.IsHost,
		"status":      string(p.Status),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt64 accepts the numeric shapes a document can arrive in: native ints
// from the memory store, float64 from JSON decoding.
func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}
