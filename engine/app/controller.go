// Package app wires the pieces of the game together: the fixed-timestep
// simulation, the room state machine, progression tracking and the shared
// room store. The controller runs entirely on the frame goroutine; room
// snapshots arriving on transport goroutines are funneled through an inbox
// channel and drained once per frame.
package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/neonrush/rush-engine/engine/core"
	"github.com/neonrush/rush-engine/engine/gate"
	"github.com/neonrush/rush-engine/engine/progress"
	"github.com/neonrush/rush-engine/engine/room"
	"github.com/neonrush/rush-engine/engine/sim"
	"github.com/neonrush/rush-engine/engine/store"
)

// opTimeout bounds every room-store write issued from the frame goroutine
const opTimeout = 5 * time.Second

// inboxSize holds snapshots arriving between frames. The latest snapshot is
// authoritative, so overflow drops the oldest entry.
const inboxSize = 64

// Controller owns the session lifecycle. All methods must be called from the
// same goroutine that calls Update.
type Controller struct {
	UID         string
	DisplayName string

	bus     *core.EventBus
	sim     *sim.Simulation
	loop    *core.Loop
	machine *room.Machine
	ops     *room.Ops
	tracker *progress.Tracker
	syncer  *progress.Syncer
	gate    gate.Gate
	store   store.RoomStore
	now     func() time.Time

	inbox chan room.Event

	roomID string
	unsub  store.UnsubscribeFunc

	input         sim.Input
	lastScore     sim.Score
	earnedXP      int
	sessionClosed bool
	lastErr       error
	alpha         float64
}

// Options carries the controller's collaborators. Nil Rand, Now and Gate
// select sensible defaults.
type Options struct {
	UID         string
	DisplayName string
	KV          store.KeyValue
	Rooms       store.RoomStore
	Gate        gate.Gate
	Rand        *rand.Rand
	Now         func() time.Time
}

// NewController builds a fully wired controller in the Menu state.
func NewController(opts Options) (*Controller, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Gate == nil {
		opts.Gate = gate.AllowAll{}
	}
	tracker, err := progress.NewTracker(opts.KV)
	if err != nil {
		return nil, err
	}

	bus := core.NewEventBus()
	c := &Controller{
		UID:         opts.UID,
		DisplayName: opts.DisplayName,
		bus:         bus,
		sim:         sim.NewSimulation(bus, opts.Rand, opts.Now),
		machine:     room.NewMachine(opts.UID, sim.MatchDuration, opts.Now),
		ops:         room.NewOps(opts.Rooms, opts.Rand, opts.Now),
		tracker:     tracker,
		gate:        opts.Gate,
		store:       opts.Rooms,
		now:         opts.Now,
		inbox:       make(chan room.Event, inboxSize),
	}
	c.loop = core.NewLoop(sim.StepRate, func() {
		c.sim.SetInput(c.input)
		c.sim.Step()
	})
	c.syncer = progress.NewSyncer(c.pushScore, opts.Now)

	bus.On(core.EvtScoreUpdate, c.onScoreUpdate)
	bus.On(core.EvtSessionEnded, c.onSessionEnded)
	return c, nil
}

// Update advances one frame: drains pending room snapshots, steps the
// simulation and dispatches queued game events. Returns the interpolation
// alpha for rendering.
func (c *Controller) Update() float64 {
	for {
		select {
		case ev := <-c.inbox:
			c.execute(c.machine.Apply(ev))
		default:
			c.alpha = c.loop.Update()
			c.bus.Dispatch()
			return c.alpha
		}
	}
}

// Bus exposes the event bus so the presentation layer can attach sound and
// feedback handlers
func (c *Controller) Bus() *core.EventBus { return c.bus }

// State returns the current application state
func (c *Controller) State() room.AppState { return c.machine.State() }

// Room returns the latest room snapshot, or nil outside a room
func (c *Controller) Room() *room.Data { return c.machine.Room() }

// RoomID returns the joined room's code, or "" outside a room
func (c *Controller) RoomID() string { return c.roomID }

// Snapshot returns a render-ready copy of the simulation state
func (c *Controller) Snapshot() sim.Snapshot { return c.sim.Snapshot() }

// Score returns the last score emitted by the simulation
func (c *Controller) Score() sim.Score { return c.lastScore }

// Progress exposes persisted progression for the HUD and menu
func (c *Controller) Progress() *progress.Tracker { return c.tracker }

// EarnedXP returns the experience gained by the most recent session
func (c *Controller) EarnedXP() int { return c.earnedXP }

// LastError returns the most recent non-fatal operation error, for the UI
func (c *Controller) LastError() error { return c.lastErr }

// IsHost reports whether the local player hosts the current room
func (c *Controller) IsHost() bool {
	d := c.machine.Room()
	if d == nil {
		return false
	}
	p, ok := d.Players[c.UID]
	return ok && p.IsHost
}

// SetInput records steering input applied on the next simulation step
func (c *Controller) SetInput(in sim.Input) { c.input = in }

// StartSolo begins a single-player run from the menu or game-over screen
func (c *Controller) StartSolo() {
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionStartSolo}))
}

// EnterMultiplayer checks the entitlement gate and, if the player holds or
// obtains a pass, moves to the lobby. Returns false when the gate refused.
func (c *Controller) EnterMultiplayer(ctx context.Context) (bool, error) {
	ok, err := c.gate.Check(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		if ok, err = c.gate.Request(ctx); err != nil || !ok {
			return false, err
		}
	}
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionEnterLobby}))
	return true, nil
}

// CreateRoom creates a new room with the local player as host and
// subscribes to it.
func (c *Controller) CreateRoom(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	id, err := c.ops.Create(ctx, c.UID, c.DisplayName)
	if err != nil {
		return err
	}
	return c.enterRoom(ctx, id)
}

// JoinRoom joins an existing room by code and subscribes to it
func (c *Controller) JoinRoom(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.ops.Join(ctx, id, c.UID, c.DisplayName); err != nil {
		return err
	}
	return c.enterRoom(ctx, id)
}

func (c *Controller) enterRoom(ctx context.Context, id string) error {
	unsub, err := c.store.Subscribe(ctx, id,
		func(doc store.Document) {
			d, err := room.FromDocument(doc)
			if err != nil {
				c.offer(room.Event{Kind: room.EvSnapshotError, Err: err})
				return
			}
			c.offer(room.Event{Kind: room.EvSnapshot, Snapshot: &d})
		},
		func(err error) {
			c.offer(room.Event{Kind: room.EvSnapshotError, Err: err})
		},
	)
	if err != nil {
		return err
	}
	c.roomID = id
	c.unsub = unsub
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionRoomJoined}))
	return nil
}

// offer enqueues a room event from any goroutine, dropping the oldest
// pending event when the inbox is full.
func (c *Controller) offer(ev room.Event) {
	for {
		select {
		case c.inbox <- ev:
			return
		default:
			select {
			case <-c.inbox:
			default:
			}
		}
	}
}

// StartMatch flips the room to playing; host only
func (c *Controller) StartMatch(ctx context.Context) error {
	d := c.machine.Room()
	if d == nil {
		return store.ErrRoomNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.ops.StartMatch(ctx, d)
}

// RestartLobby returns a finished room to the waiting state; host only
func (c *Controller) RestartLobby(ctx context.Context) error {
	d := c.machine.Room()
	if d == nil {
		return store.ErrRoomNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.ops.RestartLobby(ctx, d)
}

// LeaveRoom drops all local room state. The player's record stays in the
// shared document; the host watchdog finishes an abandoned match.
func (c *Controller) LeaveRoom() {
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionLeaveRoom}))
}

// ReturnToLobby moves from the game-over screen back to the room lobby
func (c *Controller) ReturnToLobby() {
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionReturnToLobby}))
}

// BackToMenu returns to the menu from the lobby or game-over screen
func (c *Controller) BackToMenu() {
	c.execute(c.machine.Apply(room.Event{Kind: room.EvUserAction, Action: room.ActionBackToMenu}))
}

// Close tears down the controller: any live subscription is cancelled and a
// running session aborted.
func (c *Controller) Close() {
	c.clearRoom()
	c.sim.Abort()
}

func (c *Controller) execute(effects []room.Effect) {
	for _, ef := range effects {
		switch ef.Kind {
		case room.EffectStartSession:
			c.startSession(ef.StartTime)
		case room.EffectEndSession:
			c.sim.Abort()
			c.closeSession(c.lastScore.Lives <= 0)
		case room.EffectWriteFinish:
			c.withTimeout(func(ctx context.Context) error {
				return c.ops.WriteFinish(ctx, c.roomID)
			})
		case room.EffectReportResult:
			c.closeSession(ef.Crashed)
		case room.EffectClearRoom:
			c.clearRoom()
		}
	}
}

func (c *Controller) startSession(startTime time.Time) {
	var deadline time.Time
	if !startTime.IsZero() {
		deadline = startTime.Add(sim.MatchDuration)
	}
	c.sessionClosed = false
	c.earnedXP = 0
	c.syncer.Reset()
	c.loop.Reset()
	c.sim.Start(c.tracker.Best, deadline)
	c.lastScore = c.sim.Score()
}

// closeSession persists progression and, inside a room, reports the final
// result. Guarded so the local-deadline and remote-finish paths cannot
// double-report.
func (c *Controller) closeSession(crashed bool) {
	if c.sessionClosed {
		return
	}
	c.sessionClosed = true

	earned, err := c.tracker.RecordSession(c.lastScore)
	if err != nil {
		log.Printf("persist progression: %v", err)
	}
	c.earnedXP = earned

	if c.roomID != "" {
		xp := progress.ExperienceFor(c.lastScore)
		c.withTimeout(func(ctx context.Context) error {
			return c.ops.ReportResult(ctx, c.roomID, c.UID, xp, crashed)
		})
	}
}

func (c *Controller) clearRoom() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.roomID = ""
}

func (c *Controller) withTimeout(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		c.lastErr = err
		log.Printf("room write failed: %v", err)
	}
}

func (c *Controller) onScoreUpdate(e core.Event) {
	sc, ok := e.Payload.(sim.Score)
	if !ok {
		return
	}
	c.lastScore = sc
	if c.roomID != "" && c.machine.State() == room.Playing {
		if _, err := c.syncer.Offer(progress.ExperienceFor(sc)); err != nil {
			log.Printf("score sync: %v", err)
		}
	}
}

func (c *Controller) onSessionEnded(e core.Event) {
	if sc, ok := e.Payload.(sim.Score); ok {
		c.lastScore = sc
	}
	crashed := c.lastScore.Lives <= 0
	c.execute(c.machine.Apply(room.Event{Kind: room.EvSessionEnded, SessionCrashed: crashed}))
	if !c.machine.InRoom() {
		// solo runs have no result to report but still persist progression
		c.closeSession(crashed)
	}
}

func (c *Controller) pushScore(xp int) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return c.ops.SyncScore(ctx, c.roomID, c.UID, xp)
}
