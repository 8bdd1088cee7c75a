package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonrush/rush-engine/engine/core"
	"github.com/neonrush/rush-engine/engine/entity"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) set(d time.Duration)     { c.t = time.Unix(1_700_000_000, 0).Add(d) }

func newTestSim(seed int64) (*Simulation, *core.EventBus, *fakeClock) {
	bus := core.NewEventBus()
	clock := newFakeClock()
	s := NewSimulation(bus, rand.New(rand.NewSource(seed)), clock.now)
	return s, bus, clock
}

// overlapPlayer plants an obstacle directly on the player so the next step
// must test a collision
func overlapPlayer(s *Simulation) *entity.Entity {
	ob := &entity.Entity{
		ID:   entity.NextID(),
		Pos:  s.player.Pos,
		Size: ObstacleSize,
		Kind: entity.KindObstacle,
	}
	s.obstacles = append(s.obstacles, ob)
	return ob
}

func TestStartResetsSession(t *testing.T) {
	s, _, _ := newTestSim(1)
	assert.Equal(t, Idle, s.State())

	s.Start(420, time.Time{})
	assert.Equal(t, Running, s.State())
	assert.Equal(t, InitialLives, s.Score().Lives)
	assert.Equal(t, 420.0, s.Score().Best)
	assert.Zero(t, s.Score().Distance)
	assert.Zero(t, s.Score().Pickups)

	snap := s.Snapshot()
	assert.Equal(t, entity.KindPlayer, snap.Player.Kind)
	assert.Empty(t, snap.Obstacles)
	assert.Empty(t, snap.Particles)
}

func TestDistanceMonotonicAndLivesNeverNegative(t *testing.T) {
	s, bus, clock := newTestSim(2)
	s.Start(0, time.Time{})

	prevDistance := 0.0
	prevLives := InitialLives
	for i := 0; i < 600 && s.State() == Running; i++ {
		clock.advance(time.Second / StepRate)
		s.Step()
		bus.Dispatch()

		sc := s.Score()
		assert.GreaterOrEqual(t, sc.Distance, prevDistance, "distance regressed at step %d", i)
		assert.LessOrEqual(t, sc.Lives, prevLives, "lives increased at step %d", i)
		assert.GreaterOrEqual(t, sc.Lives, 0, "lives went negative at step %d", i)
		prevDistance = sc.Distance
		prevLives = sc.Lives
	}
}

func TestSpeedRampIsCapped(t *testing.T) {
	s, _, clock := newTestSim(3)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	// fresh session ramps from the base speed
	clock.advance(time.Second / StepRate)
	s.Step()
	assert.InDelta(t, InitialSpeed, s.Speed(), 0.01)

	// a long run has pushed distance far past the cap point
	s.score.Distance = 3 * MaxSpeed * SpeedRampDivisor
	clock.advance(time.Second / StepRate)
	s.obstacles = nil
	s.Step()
	assert.Equal(t, MaxSpeed, s.Speed())
}

func TestHitInsideInvulnerabilityWindowDoesNotCount(t *testing.T) {
	s, bus, clock := newTestSim(4)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	clock.set(1 * time.Second)
	overlapPlayer(s)
	s.Step()
	assert.Equal(t, InitialLives-1, s.Score().Lives, "first hit must count")

	// 500ms later: inside the 2000ms window, contact must be forgiven
	clock.set(1500 * time.Millisecond)
	overlapPlayer(s)
	s.Step()
	assert.Equal(t, InitialLives-1, s.Score().Lives, "hit inside window must not count")

	// exactly at the window boundary: strict >, still forgiven
	clock.set(3 * time.Second)
	overlapPlayer(s)
	s.Step()
	assert.Equal(t, InitialLives-1, s.Score().Lives, "boundary hit must not count")

	// past the boundary the next hit registers again
	clock.set(3*time.Second + time.Second/StepRate + time.Millisecond)
	overlapPlayer(s)
	s.Step()
	assert.Equal(t, InitialLives-2, s.Score().Lives)
	bus.Dispatch()
}

func TestHitRemovesObstacleAndSpawnsParticles(t *testing.T) {
	s, bus, clock := newTestSim(5)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	var hits int
	bus.On(core.EvtPlayerHit, func(core.Event) { hits++ })

	clock.set(1 * time.Second)
	ob := overlapPlayer(s)
	s.Step()
	bus.Dispatch()

	assert.Equal(t, 1, hits)
	assert.True(t, ob.MarkedForRemoval)
	for _, alive := range s.obstacles {
		assert.NotEqual(t, ob.ID, alive.ID, "hit obstacle must be pruned")
	}
	assert.NotZero(t, s.particles.Count())
}

func TestSessionEndsWhenLivesExhausted(t *testing.T) {
	s, bus, clock := newTestSim(6)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	var finals []Score
	bus.On(core.EvtSessionEnded, func(e core.Event) { finals = append(finals, e.Payload.(Score)) })

	// spec scenario: hits at 1s, 1.5s (forgiven), 4s, 5s (forgiven), 6.5s
	for _, h := range []struct {
		at        time.Duration
		wantLives int
	}{
		{1 * time.Second, 2},
		{1500 * time.Millisecond, 2},
		{4 * time.Second, 1},
		{5 * time.Second, 1},
		{6500 * time.Millisecond, 0},
	} {
		clock.set(h.at)
		overlapPlayer(s)
		s.Step()
		assert.Equal(t, h.wantLives, s.Score().Lives, "lives after hit at %v", h.at)
	}

	assert.Equal(t, Ended, s.State())
	bus.Dispatch()
	require.Len(t, finals, 1, "final score must be emitted exactly once")
	assert.Zero(t, finals[0].Lives)

	// a dead session ignores further steps
	before := s.Score().Distance
	s.Step()
	assert.Equal(t, before, s.Score().Distance)
	bus.Dispatch()
	assert.Len(t, finals, 1)
}

func TestDeadlineEndsSession(t *testing.T) {
	s, bus, clock := newTestSim(7)
	deadline := clock.now().Add(10 * time.Second)
	s.Start(0, deadline)

	var ended int
	bus.On(core.EvtSessionEnded, func(core.Event) { ended++ })

	clock.set(9 * time.Second)
	s.Step()
	assert.Equal(t, Running, s.State())

	clock.set(10 * time.Second)
	s.Step()
	assert.Equal(t, Ended, s.State())
	bus.Dispatch()
	assert.Equal(t, 1, ended)
}

func TestScoreEventsThrottledToIntegerDistance(t *testing.T) {
	s, bus, clock := newTestSim(8)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	var updates int
	bus.On(core.EvtScoreUpdate, func(core.Event) { updates++ })

	for i := 0; i < 50; i++ {
		clock.advance(time.Second / StepRate)
		s.obstacles = nil // no collisions, isolate the distance throttle
		s.Step()
	}
	bus.Dispatch()

	assert.Equal(t, int(s.Score().Distance), updates,
		"one update per integer distance crossed, not one per step")
}

func TestPickupCollection(t *testing.T) {
	s, bus, clock := newTestSim(9)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	var collected int
	bus.On(core.EvtPickupCollected, func(core.Event) { collected++ })

	before := s.Score().Distance
	pk := &entity.Entity{
		ID:   entity.NextID(),
		Pos:  s.player.Pos,
		Size: PickupSize,
		Kind: entity.KindPickup,
	}
	s.pickups = append(s.pickups, pk)
	clock.advance(time.Second / StepRate)
	s.Step()
	bus.Dispatch()

	assert.Equal(t, 1, collected)
	assert.Equal(t, 1, s.Score().Pickups)
	assert.Greater(t, s.Score().Distance, before+PickupBonus)
	assert.Empty(t, s.pickups, "collected pickup must be removed")
	assert.NotZero(t, s.particles.Count())
}

func TestPlayerClampedToPlayfield(t *testing.T) {
	s, _, clock := newTestSim(10)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	s.SetInput(Input{Left: true})
	for i := 0; i < 100; i++ {
		clock.advance(time.Second / StepRate)
		s.obstacles = nil
		s.Step()
	}
	assert.Equal(t, 0.0, s.player.Pos.X)

	s.SetInput(Input{Right: true})
	for i := 0; i < 100; i++ {
		clock.advance(time.Second / StepRate)
		s.obstacles = nil
		s.Step()
	}
	assert.Equal(t, GameWidth-PlayerSize.Width, s.player.Pos.X)
}

func TestOffscreenObstaclesPruned(t *testing.T) {
	s, _, clock := newTestSim(11)
	s.Start(0, time.Time{})
	s.spawner.PickupChance = 0

	s.obstacles = append(s.obstacles, &entity.Entity{
		ID:   entity.NextID(),
		Pos:  entity.Position{X: 0, Y: GameHeight + PruneMargin + 1},
		Size: ObstacleSize,
		Kind: entity.KindObstacle,
	})
	clock.advance(time.Second / StepRate)
	s.Step()
	assert.Empty(t, s.obstacles)
}
