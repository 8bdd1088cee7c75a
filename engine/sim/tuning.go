package sim

import (
	"time"

	"github.com/neonrush/rush-engine/engine/entity"
)

// Playfield geometry. The playfield is a fixed logical size; the render
// adapter scales it to the window.
const (
	GameWidth  = 360.0
	GameHeight = 640.0

	LaneCount = 4
	LaneWidth = GameWidth / LaneCount
)

// Entity sizes
var (
	PlayerSize   = entity.Size{Width: 32, Height: 60}
	ObstacleSize = entity.Size{Width: 24, Height: 40}
	PickupSize   = entity.Size{Width: 20, Height: 20}
)

// Speed and scoring tuning
const (
	InitialSpeed = 6.0
	MaxSpeed     = 18.0

	// speed = min(MaxSpeed, InitialSpeed + distance/SpeedRampDivisor)
	SpeedRampDivisor = 500.0

	// distance advances by speed/DistancePerStepDivisor each fixed step
	DistancePerStepDivisor = 20.0

	LateralSpeed = 10.0 // player movement per step while steering

	PickupBonus = 100.0 // distance credit per collected pickup
)

// Lives and collision
const (
	InitialLives = 3

	// InvulnerabilityWindow is the grace period after a registered hit.
	// The boundary is strict: a second contact exactly at the window edge
	// does not register; only elapsed > window does.
	InvulnerabilityWindow = 2 * time.Second

	ObstaclePadding = 2.0 // forgiving hitbox shave for obstacle collisions
	PickupPadding   = 0.0 // pickups collect on any overlap
)

// Spawning
const (
	SpawnRowY             = -200.0
	MinSpawnGap           = 150.0
	BaseObstacleChance    = 0.02 // plus speed/ObstacleChanceDivisor per step
	ObstacleChanceDivisor = 500.0
	PickupChance          = 0.05

	PruneMargin = 100.0 // entities past GameHeight+PruneMargin are dropped
)

// Session
const (
	StepRate      = 60.0 // fixed simulation steps per second
	MatchDuration = 3 * time.Minute
)

// Particle palette (RGBA)
const (
	ColorPlayer   = 0xFFFF00FF
	ColorObstacle = 0xD32F2FFF
	ColorPickup   = 0x2979FFFF
)
