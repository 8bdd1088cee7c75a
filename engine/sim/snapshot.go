package sim

import "github.com/neonrush/rush-engine/engine/entity"

// Snapshot is a read-only copy of the visible simulation state handed to the
// render adapter once per frame
type Snapshot struct {
	State State
	Score Score
	Speed float64

	Player    entity.Entity
	Obstacles []entity.Entity
	Pickups   []entity.Entity
	Particles []entity.Particle

	RoadOffset       float64
	BackgroundOffset float64

	// Invulnerable is true while the player is inside the post-hit grace
	// window, so the renderer can blink the player sprite
	Invulnerable bool
}

// Snapshot copies the current state for rendering. The returned value shares
// nothing with the live simulation.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		State:            s.state,
		Score:            s.score,
		Speed:            s.speed,
		RoadOffset:       s.roadOffset,
		BackgroundOffset: s.backgroundOffset,
	}
	if s.player != nil {
		snap.Player = *s.player
	}
	snap.Obstacles = make([]entity.Entity, len(s.obstacles))
	for i, e := range s.obstacles {
		snap.Obstacles[i] = *e
	}
	snap.Pickups = make([]entity.Entity, len(s.pickups))
	for i, e := range s.pickups {
		snap.Pickups[i] = *e
	}
	snap.Particles = append(snap.Particles, s.particles.Particles...)
	if !s.lastHitAt.IsZero() && s.now().Sub(s.lastHitAt) <= InvulnerabilityWindow {
		snap.Invulnerable = true
	}
	return snap
}
