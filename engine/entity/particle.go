package entity

import "math/rand"

// Particle is an ephemeral cosmetic unit spawned on impacts. It carries no
// gameplay meaning, but its lifecycle is part of the simulation contract so
// impact feedback timing stays consistent across hosts.
type Particle struct {
	Pos   Position
	VelX  float64
	VelY  float64
	Life  float64 // [0..1], removed at <= 0
	Size  float64
	Color uint32 // RGBA
}

// particleDecay is the fixed life drain per simulation step
const particleDecay = 0.05

// ParticleSystem owns all live particles for a session
type ParticleSystem struct {
	Particles []Particle

	rng *rand.Rand
}

// NewParticleSystem creates an empty particle system with the given random source
func NewParticleSystem(rng *rand.Rand) *ParticleSystem {
	return &ParticleSystem{rng: rng}
}

// Burst spawns count particles scattering from (x, y)
func (ps *ParticleSystem) Burst(x, y float64, color uint32, count int) {
	for i := 0; i < count; i++ {
		ps.Particles = append(ps.Particles, Particle{
			Pos:   Position{X: x, Y: y},
			VelX:  (ps.rng.Float64() - 0.5) * 8,
			VelY:  (ps.rng.Float64() - 0.5) * 8,
			Life:  1.0,
			Size:  ps.rng.Float64()*4 + 2,
			Color: color,
		})
	}
}

// Advance moves every particle by its velocity, decays life by the fixed
// rate, and prunes dead particles in place.
func (ps *ParticleSystem) Advance() {
	alive := ps.Particles[:0]
	for i := range ps.Particles {
		p := &ps.Particles[i]
		p.Pos.X += p.VelX
		p.Pos.Y += p.VelY
		p.Life -= particleDecay
		if p.Life > 0 {
			alive = append(alive, *p)
		}
	}
	ps.Particles = alive
}

// Reset discards all live particles
func (ps *ParticleSystem) Reset() {
	ps.Particles = ps.Particles[:0]
}

// Count returns the number of live particles
func (ps *ParticleSystem) Count() int {
	return len(ps.Particles)
}
