package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/neonrush/rush-engine/engine/store"
)

// User-displayable precondition failures. The attempted state change is
// aborted with no partial mutation; the caller decides whether to retry.
var (
	ErrRoomFull        = errors.New("room is full")
	ErrMatchInProgress = errors.New("match already in progress")
)

// MaxPlayersPerRoom caps room membership
const MaxPlayersPerRoom = 30

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

// Ops performs the optimistic, single-shot room mutations against the
// shared store. Every operation validates preconditions first and surfaces
// failures without retry. Local state is never assumed updated: the
// subsequent subscription snapshot is what confirms a write.
type Ops struct {
	Store      store.RoomStore
	MaxPlayers int

	rng *rand.Rand
	now func() time.Time
}

// NewOps creates room operations over the given store. nil rng and now pick
// real randomness and the wall clock.
func NewOps(st store.RoomStore, rng *rand.Rand, now func() time.Time) *Ops {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Ops{
		Store:      st,
		MaxPlayers: MaxPlayersPerRoom,
		rng:        rng,
		now:        now,
	}
}

// newRoomCode generates a short human-shareable room code
func (o *Ops) newRoomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[o.rng.Intn(len(codeAlphabet))]
	}
	return string(code)
}

// Create makes a new waiting room whose creator is the host, and returns
// the generated room code.
func (o *Ops) Create(ctx context.Context, uid, displayName string) (string, error) {
	d := Data{
		ID:        o.newRoomCode(),
		CreatedAt: o.now(),
		Status:    StatusWaiting,
		Players: map[string]Player{
			uid: {
				UID:         uid,
				DisplayName: displayName,
				IsHost:      true,
				Status:      PlayerReady,
			},
		},
	}
	if err := o.Store.Create(ctx, d.ID, d.Document()); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	return d.ID, nil
}

// Join adds a player to an existing waiting room. Fails with a distinct
// reason when the room is missing, full, or already racing.
func (o *Ops) Join(ctx context.Context, id, uid, displayName string) error {
	doc, err := o.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("join room %s: %w", id, err)
	}
	d, err := FromDocument(doc)
	if err != nil {
		return fmt.Errorf("join room %s: %w", id, err)
	}
	if len(d.Players) >= o.MaxPlayers {
		return ErrRoomFull
	}
	if d.Status == StatusPlaying {
		return ErrMatchInProgress
	}
	fields := store.Document{
		"players." + uid: playerDocument(Player{
			UID:         uid,
			DisplayName: displayName,
			Status:      PlayerReady,
		}),
	}
	if err := o.Store.Update(ctx, id, fields); err != nil {
		return fmt.Errorf("join room %s: %w", id, err)
	}
	return nil
}

// StartMatch transitions the room to playing, stamps the shared start time,
// and resets every participant to playing with zero score. Host only.
func (o *Ops) StartMatch(ctx context.Context, d *Data) error {
	fields := store.Document{
		"status":    string(StatusPlaying),
		"startTime": o.now().UnixMilli(),
	}
	for uid := range d.Players {
		fields["players."+uid+".status"] = string(PlayerPlaying)
		fields["players."+uid+".xp"] = int64(0)
	}
	if err := o.Store.Update(ctx, d.ID, fields); err != nil {
		return fmt.Errorf("start match %s: %w", d.ID, err)
	}
	return nil
}

// RestartLobby returns a finished room to the waiting phase. Host only.
func (o *Ops) RestartLobby(ctx context.Context, d *Data) error {
	fields := store.Document{
		"status":    string(StatusWaiting),
		"startTime": nil,
	}
	for uid := range d.Players {
		fields["players."+uid+".status"] = string(PlayerReady)
		fields["players."+uid+".xp"] = int64(0)
	}
	if err := o.Store.Update(ctx, d.ID, fields); err != nil {
		return fmt.Errorf("restart lobby %s: %w", d.ID, err)
	}
	return nil
}

// ReportResult writes the local player's final xp and terminal sub-status
// after their session ends. crashed means the run ended on zero lives
// rather than at the match deadline.
func (o *Ops) ReportResult(ctx context.Context, roomID, uid string, xp int, crashed bool) error {
	status := PlayerFinished
	if crashed {
		status = PlayerCrashed
	}
	fields := store.Document{
		"players." + uid + ".xp":     int64(xp),
		"players." + uid + ".status": string(status),
	}
	if err := o.Store.Update(ctx, roomID, fields); err != nil {
		return fmt.Errorf("report result %s: %w", roomID, err)
	}
	return nil
}

// WriteFinish is the host watchdog marking the match finished
func (o *Ops) WriteFinish(ctx context.Context, roomID string) error {
	fields := store.Document{"status": string(StatusFinished)}
	if err := o.Store.Update(ctx, roomID, fields); err != nil {
		return fmt.Errorf("finish match %s: %w", roomID, err)
	}
	return nil
}

// SyncScore pushes the local player's current experience value mid-match
func (o *Ops) SyncScore(ctx context.Context, roomID, uid string, xp int) error {
	fields := store.Document{"players." + uid + ".xp": int64(xp)}
	if err := o.Store.Update(ctx, roomID, fields); err != nil {
		return fmt.Errorf("sync score %s: %w", roomID, err)
	}
	return nil
}
