// Package render draws the playfield from simulation snapshots. It owns no
// game state beyond a frame counter; everything it shows comes from the
// snapshot handed to Draw.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/neonrush/rush-engine/engine/entity"
	"github.com/neonrush/rush-engine/engine/sim"
)

var (
	roadBG      = color.RGBA{16, 10, 32, 255}
	skyBG       = color.RGBA{10, 6, 24, 255}
	gridLine    = color.RGBA{60, 30, 110, 70}
	laneLine    = color.RGBA{120, 70, 200, 90}
	laneDash    = color.RGBA{200, 160, 255, 150}
	speedStreak = color.RGBA{255, 255, 255, 40}
	glowStroke  = color.RGBA{255, 255, 255, 60}
)

const (
	dashLength = 20.0
	dashPeriod = 40.0 // dash plus gap
	gridPitch  = 40.0
)

// Renderer draws one frame of the run. Width and Height are the logical
// playfield size; the ebiten layout scales it to the window.
type Renderer struct {
	Width  int
	Height int

	backdrop *Backdrop
	tick     int
}

// NewRenderer builds a renderer with a freshly generated skyline
func NewRenderer(seed int64) *Renderer {
	w := int(sim.GameWidth)
	return &Renderer{
		Width:    w,
		Height:   int(sim.GameHeight),
		backdrop: NewBackdrop(w, seed),
	}
}

// Draw renders a snapshot. alpha is the interpolation fraction of the next
// fixed step already elapsed; moving entities are nudged by it so a fast
// display refresh doesn't show stepped motion.
func (r *Renderer) Draw(screen *ebiten.Image, snap sim.Snapshot, alpha float64) {
	r.tick++
	lead := snap.Speed * alpha

	screen.Fill(roadBG)
	r.drawBackdrop(screen, snap)
	r.drawGrid(screen, snap, lead)
	r.drawLanes(screen, snap, lead)
	if snap.Speed > 10 {
		r.drawSpeedStreaks(screen, snap)
	}

	for i := range snap.Obstacles {
		r.drawEntity(screen, &snap.Obstacles[i], lead)
	}
	for i := range snap.Pickups {
		r.drawEntity(screen, &snap.Pickups[i], lead)
	}
	r.drawPlayer(screen, snap)
	r.drawParticles(screen, snap.Particles)
}

func (r *Renderer) drawBackdrop(screen *ebiten.Image, snap sim.Snapshot) {
	vector.DrawFilledRect(screen, 0, 0, float32(r.Width), skylineHeight, skyBG, false)
	// the skyline drifts at half road speed for depth
	r.backdrop.Draw(screen, 0, snap.BackgroundOffset*0.5)
}

func (r *Renderer) drawGrid(screen *ebiten.Image, snap sim.Snapshot, lead float64) {
	phase := float32(mod(snap.BackgroundOffset+lead, gridPitch))
	for y := phase; y < float32(r.Height); y += gridPitch {
		vector.StrokeLine(screen, 0, y, float32(r.Width), y, 1, gridLine, false)
	}
	for x := float32(0); x <= float32(r.Width); x += gridPitch {
		vector.StrokeLine(screen, x, 0, x, float32(r.Height), 1, gridLine, false)
	}
}

func (r *Renderer) drawLanes(screen *ebiten.Image, snap sim.Snapshot, lead float64) {
	for i := 1; i < sim.LaneCount; i++ {
		x := float32(i) * float32(sim.LaneWidth)
		vector.StrokeLine(screen, x, 0, x, float32(r.Height), 1, laneLine, false)

		phase := mod(snap.RoadOffset+lead, dashPeriod)
		for y := phase - dashPeriod; y < float64(r.Height); y += dashPeriod {
			vector.DrawFilledRect(screen, x-1, float32(y), 2, dashLength, laneDash, false)
		}
	}
}

func (r *Renderer) drawSpeedStreaks(screen *ebiten.Image, snap sim.Snapshot) {
	// pseudo-random but stable per tick so streaks flicker
	for i := 0; i < 6; i++ {
		x := float32((r.tick*37 + i*61) % r.Width)
		y := float32((r.tick*23 + i*97) % r.Height)
		h := float32(20 + snap.Speed*3)
		vector.StrokeLine(screen, x, y, x, y+h, 1, speedStreak, false)
	}
}

func (r *Renderer) drawEntity(screen *ebiten.Image, e *entity.Entity, lead float64) {
	x := float32(e.Pos.X)
	y := float32(e.Pos.Y + lead)
	w := float32(e.Size.Width)
	h := float32(e.Size.Height)

	switch e.Kind {
	case entity.KindPickup:
		cx, cy := x+w/2, y+h/2
		vector.DrawFilledCircle(screen, cx, cy, w/2, rgba(sim.ColorPickup), false)
		vector.StrokeCircle(screen, cx, cy, w/2, 1, glowStroke, false)
	default:
		vector.DrawFilledRect(screen, x, y, w, h, rgba(sim.ColorObstacle), false)
		vector.StrokeRect(screen, x, y, w, h, 1, glowStroke, false)
	}
}

func (r *Renderer) drawPlayer(screen *ebiten.Image, snap sim.Snapshot) {
	if snap.State == sim.Idle {
		return
	}
	// blink through the post-hit grace window
	if snap.Invulnerable && (r.tick/6)%2 == 0 {
		return
	}
	p := snap.Player
	x, y := float32(p.Pos.X), float32(p.Pos.Y)
	w, h := float32(p.Size.Width), float32(p.Size.Height)
	vector.DrawFilledRect(screen, x, y, w, h, rgba(sim.ColorPlayer), false)
	vector.StrokeRect(screen, x, y, w, h, 1, glowStroke, false)
	// windshield
	vector.DrawFilledRect(screen, x+4, y+8, w-8, 12, color.RGBA{40, 40, 60, 255}, false)
}

func (r *Renderer) drawParticles(screen *ebiten.Image, ps []entity.Particle) {
	for i := range ps {
		p := &ps[i]
		c := rgba(p.Color)
		c.A = uint8(float64(c.A) * clamp01(p.Life))
		vector.DrawFilledCircle(screen, float32(p.Pos.X), float32(p.Pos.Y), float32(p.Size/2), c, false)
	}
}

func rgba(c uint32) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 24),
		G: uint8(c >> 16),
		B: uint8(c >> 8),
		A: uint8(c),
	}
}

func mod(v, m float64) float64 {
	v = v - float64(int(v/m))*m
	if v < 0 {
		v += m
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
