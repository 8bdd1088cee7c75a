package entity

import "math/rand"

// Spawner places obstacles and pickups into random lanes. All geometry is
// configured explicitly so the simulation owns the tuning constants; the
// random source is injectable for tests.
type Spawner struct {
	LaneCount    int
	LaneWidth    float64
	ObstacleSize Size
	PickupSize   Size
	SpawnY       float64 // row new entities appear on (above the visible top)
	MinSpawnGap  float64 // no obstacle spawn while another is within this many units of the top
	PickupChance float64 // independent per-tick draw

	rng *rand.Rand
}

// NewSpawner creates a spawner using the given random source
func NewSpawner(rng *rand.Rand) *Spawner {
	return &Spawner{rng: rng}
}

// laneX returns the x position centering a box of the given width in a lane
func (s *Spawner) laneX(lane int, width float64) float64 {
	return float64(lane)*s.LaneWidth + (s.LaneWidth-width)/2
}

// SpawnObstacle attempts to place an obstacle in a uniformly random lane.
// The attempt is rejected (nil) while any existing obstacle is still within
// MinSpawnGap of the top edge, which prevents unavoidable clusters. This is a
// probabilistic gate, not a scheduler: a rejected tick simply spawns nothing.
func (s *Spawner) SpawnObstacle(existing []*Entity) *Entity {
	for _, e := range existing {
		if e.Pos.Y < s.MinSpawnGap {
			return nil
		}
	}
	lane := s.rng.Intn(s.LaneCount)
	return &Entity{
		ID:   NextID(),
		Pos:  Position{X: s.laneX(lane, s.ObstacleSize.Width), Y: s.SpawnY},
		Size: s.ObstacleSize,
		Kind: KindObstacle,
	}
}

// SpawnPickup rolls the independent pickup draw and, on success, places a
// pickup in a uniformly random lane regardless of obstacle placement.
func (s *Spawner) SpawnPickup() *Entity {
	if s.rng.Float64() >= s.PickupChance {
		return nil
	}
	lane := s.rng.Intn(s.LaneCount)
	return &Entity{
		ID:   NextID(),
		Pos:  Position{X: s.laneX(lane, s.PickupSize.Width), Y: s.SpawnY},
		Size: s.PickupSize,
		Kind: KindPickup,
	}
}
