package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/neonrush/rush-engine/engine/core"
	"github.com/neonrush/rush-engine/engine/entity"
)

// State is the lifecycle of one session
type State uint8

const (
	Idle State = iota
	Running
	Ended
)

// Score is the per-session scoring snapshot carried by score events
type Score struct {
	Distance float64 // monotonic non-decreasing while alive
	Best     float64 // carried across sessions by the caller
	Pickups  int
	Lives    int
}

// Input is the steering state sampled by the host each frame
type Input struct {
	Left  bool
	Right bool
}

// Simulation owns all mutable state of one session and advances it one fixed
// step at a time. It performs no I/O: outcomes are expressed as events on the
// bus and, terminally, as the Ended state with a final score payload.
type Simulation struct {
	state State

	player    *entity.Entity
	obstacles []*entity.Entity
	pickups   []*entity.Entity
	particles *entity.ParticleSystem
	spawner   *entity.Spawner

	score Score
	lives int
	speed float64

	roadOffset       float64
	backgroundOffset float64

	input     Input
	lastHitAt time.Time
	deadline  time.Time // zero means no deadline (solo play)

	lastEmitted int // floored distance at last throttled score event

	bus *core.EventBus
	rng *rand.Rand
	now func() time.Time
}

// NewSimulation creates an idle simulation emitting onto bus. A nil rng or
// now selects real randomness and the wall clock; tests inject both.
func NewSimulation(bus *core.EventBus, rng *rand.Rand, now func() time.Time) *Simulation {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	s := &Simulation{
		state: Idle,
		bus:   bus,
		rng:   rng,
		now:   now,
	}
	s.spawner = entity.NewSpawner(rng)
	s.spawner.LaneCount = LaneCount
	s.spawner.LaneWidth = LaneWidth
	s.spawner.ObstacleSize = ObstacleSize
	s.spawner.PickupSize = PickupSize
	s.spawner.SpawnY = SpawnRowY
	s.spawner.MinSpawnGap = MinSpawnGap
	s.spawner.PickupChance = PickupChance
	s.particles = entity.NewParticleSystem(rng)
	return s
}

// State returns the current session state
func (s *Simulation) State() State { return s.state }

// Score returns the current score snapshot
func (s *Simulation) Score() Score { return s.score }

// Speed returns the current scroll speed
func (s *Simulation) Speed() float64 { return s.speed }

// SetInput replaces the sampled steering state for subsequent steps
func (s *Simulation) SetInput(in Input) { s.input = in }

// Start resets all mutable state and begins a new session. best is the
// persisted best distance shown alongside the live score; a non-zero
// deadline ends the session when the wall clock passes it (multiplayer
// match duration).
func (s *Simulation) Start(best float64, deadline time.Time) {
	s.player = &entity.Entity{
		ID:   entity.NextID(),
		Pos:  entity.Position{X: GameWidth/2 - PlayerSize.Width/2, Y: GameHeight - PlayerSize.Height - 20},
		Size: PlayerSize,
		Kind: entity.KindPlayer,
	}
	s.obstacles = nil
	s.pickups = nil
	s.particles.Reset()
	s.lives = InitialLives
	s.score = Score{Best: best, Lives: InitialLives}
	s.speed = InitialSpeed
	s.roadOffset = 0
	s.backgroundOffset = 0
	s.input = Input{}
	s.lastHitAt = time.Time{}
	s.deadline = deadline
	s.lastEmitted = 0
	s.state = Running
}

// Abort terminates a running session without emitting a final score event.
// Used when the room finishes remotely and the caller already holds the
// last known local score.
func (s *Simulation) Abort() {
	if s.state == Running {
		s.state = Ended
	}
}

// Step advances the session by one fixed step. Calling it while not Running
// is a no-op, so hosts can drive the loop unconditionally.
func (s *Simulation) Step() {
	if s.state != Running {
		return
	}

	if !s.deadline.IsZero() && !s.now().Before(s.deadline) {
		s.end()
		return
	}

	s.speed = math.Min(MaxSpeed, InitialSpeed+s.score.Distance/SpeedRampDivisor)
	s.score.Distance += s.speed / DistancePerStepDivisor
	s.score.Lives = s.lives

	if d := int(s.score.Distance); d > s.lastEmitted {
		s.lastEmitted = d
		s.emitScore()
	}

	if s.input.Left {
		s.player.Pos.X -= LateralSpeed
	}
	if s.input.Right {
		s.player.Pos.X += LateralSpeed
	}
	s.player.Pos.X = math.Max(0, math.Min(GameWidth-PlayerSize.Width, s.player.Pos.X))

	s.roadOffset = math.Mod(s.roadOffset+s.speed, 100)
	s.backgroundOffset = math.Mod(s.backgroundOffset+s.speed*0.5, 100)

	if s.rng.Float64() < BaseObstacleChance+s.speed/ObstacleChanceDivisor {
		if ob := s.spawner.SpawnObstacle(s.obstacles); ob != nil {
			s.obstacles = append(s.obstacles, ob)
		}
	}

	for _, ob := range s.obstacles {
		ob.Pos.Y += s.speed
		if !entity.Intersects(s.player, ob, ObstaclePadding, ObstaclePadding) {
			continue
		}
		now := s.now()
		if now.Sub(s.lastHitAt) <= InvulnerabilityWindow {
			continue // still invulnerable from the previous hit
		}
		s.lives--
		s.score.Lives = s.lives
		s.lastHitAt = now
		pc := s.player.Center()
		oc := ob.Center()
		s.particles.Burst(pc.X, pc.Y, ColorPlayer, 10)
		s.particles.Burst(oc.X, oc.Y, ColorObstacle, 10)
		ob.MarkedForRemoval = true
		s.bus.Emit(core.Event{Type: core.EvtPlayerHit, Payload: s.score})
		s.emitScore()
		if s.lives <= 0 {
			s.end()
			return
		}
	}

	s.obstacles = pruneEntities(s.obstacles)

	if p := s.spawner.SpawnPickup(); p != nil {
		s.pickups = append(s.pickups, p)
	}
	for _, pk := range s.pickups {
		pk.Pos.Y += s.speed
		if !entity.Intersects(s.player, pk, PickupPadding, PickupPadding) {
			continue
		}
		s.score.Pickups++
		s.score.Distance += PickupBonus
		s.particles.Burst(pk.Pos.X, pk.Pos.Y, ColorPickup, 5)
		pk.MarkedForRemoval = true
		s.bus.Emit(core.Event{Type: core.EvtPickupCollected, Payload: s.score})
		s.emitScore()
	}
	s.pickups = pruneEntities(s.pickups)

	s.particles.Advance()
}

// pruneEntities drops entities past the visible bottom or marked for removal
func pruneEntities(list []*entity.Entity) []*entity.Entity {
	alive := list[:0]
	for _, e := range list {
		if e.Pos.Y < GameHeight+PruneMargin && !e.MarkedForRemoval {
			alive = append(alive, e)
		}
	}
	return alive
}

// end transitions to Ended and reports the final score exactly once
func (s *Simulation) end() {
	s.state = Ended
	s.bus.Emit(core.Event{Type: core.EvtSessionEnded, Payload: s.score})
}

func (s *Simulation) emitScore() {
	s.bus.Emit(core.Event{Type: core.EvtScoreUpdate, Payload: s.score})
}
