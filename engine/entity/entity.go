package entity

import "sync/atomic"

// ID is a unique identifier for game entities
type ID uint64

var idCounter uint64

// NextID generates a unique entity ID
func NextID() ID {
	return ID(atomic.AddUint64(&idCounter, 1))
}

// Kind identifies what an entity is to the simulation
type Kind uint8

const (
	KindPlayer Kind = iota
	KindObstacle
	KindPickup
)

// Position is a point in playfield coordinates (origin top-left, y grows down)
type Position struct {
	X, Y float64
}

// Size is an axis-aligned extent in playfield units
type Size struct {
	Width, Height float64
}

// Entity is a simulated game object. The player is a singleton owned by the
// simulation; obstacles and pickups live in slices iterated in insertion order.
type Entity struct {
	ID               ID
	Pos              Position
	Size             Size
	Kind             Kind
	MarkedForRemoval bool
}

// Center returns the center point of the entity's box
func (e *Entity) Center() Position {
	return Position{
		X: e.Pos.X + e.Size.Width/2,
		Y: e.Pos.Y + e.Size.Height/2,
	}
}
