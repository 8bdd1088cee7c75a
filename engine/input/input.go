// Package input samples keyboard, mouse and touch state once per frame and
// reduces it to the handful of intents the game understands.
package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// InputState tracks per-frame input. Steering merges three sources: the
// keyboard (A/D and arrow keys), a held mouse button on either half of the
// playfield, and touches on either half. Holding both directions at once
// cancels out.
type InputState struct {
	Left  bool
	Right bool

	// MouseX, MouseY is the cursor in layout coordinates
	MouseX, MouseY  int
	LeftJustPressed bool

	// Typed is the printable characters entered this frame, for the room
	// code field
	Typed []rune

	ScreenW int

	touchIDs []ebiten.TouchID
}

// NewInputState creates input tracking for a layout screenW pixels wide.
// The width decides which half a touch or mouse hold steers toward.
func NewInputState(screenW int) *InputState {
	return &InputState{ScreenW: screenW}
}

// Update should be called once at the top of every frame
func (s *InputState) Update() {
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.LeftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	left := ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft)
	right := ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight)

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if s.MouseX < s.ScreenW/2 {
			left = true
		} else {
			right = true
		}
	}

	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		x, _ := ebiten.TouchPosition(id)
		if x < s.ScreenW/2 {
			left = true
		} else {
			right = true
		}
	}

	s.Left = left
	s.Right = right

	s.Typed = ebiten.AppendInputChars(s.Typed[:0])
}

// JustPressed reports whether key went down this frame
func (s *InputState) JustPressed(key ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(key)
}

// BackspaceRepeating reports backspace with key-repeat, for text fields
func (s *InputState) BackspaceRepeating() bool {
	d := inpututil.KeyPressDuration(ebiten.KeyBackspace)
	return d == 1 || (d > 20 && d%4 == 0)
}
