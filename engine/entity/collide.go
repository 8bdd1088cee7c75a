package entity

// Intersects tests axis-aligned box overlap between two entities. The padding
// shrinks each box's effective hitbox by that amount on every side of the
// given axis, so positive padding makes collisions more forgiving. Obstacles
// use a small padding, pickups use zero.
func Intersects(a, b *Entity, padX, padY float64) bool {
	return a.Pos.X+padX < b.Pos.X+b.Size.Width-padX &&
		a.Pos.X+a.Size.Width-padX > b.Pos.X+padX &&
		a.Pos.Y+padY < b.Pos.Y+b.Size.Height-padY &&
		a.Pos.Y+a.Size.Height-padY > b.Pos.Y+padY
}
