// Package ui draws the menu, lobby, HUD and game-over screens and turns
// clicks and key presses into the callbacks the game wires in.
package ui

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/neonrush/rush-engine/engine/input"
	"github.com/neonrush/rush-engine/engine/room"
	"github.com/neonrush/rush-engine/engine/sim"
)

var (
	menuBG      = color.RGBA{8, 6, 20, 255}
	menuPanel   = color.RGBA{16, 12, 36, 230}
	menuBorder  = color.RGBA{120, 60, 220, 255}
	menuAccent  = color.RGBA{200, 80, 255, 255}
	menuBtnNorm = color.RGBA{30, 22, 60, 240}
	menuBtnHov  = color.RGBA{55, 35, 100, 255}
	menuBtnDis  = color.RGBA{20, 18, 32, 200}
	menuText    = color.RGBA{220, 205, 255, 255}
	menuTextDim = color.RGBA{120, 105, 160, 255}
	menuGold    = color.RGBA{255, 200, 50, 255}
	menuRed     = color.RGBA{235, 70, 70, 255}
	menuGreen   = color.RGBA{70, 225, 120, 255}
	menuCyan    = color.RGBA{80, 200, 255, 255}
)

// MenuButton is a clickable rectangle
type MenuButton struct {
	X, Y, W, H int
	Text       string
	Disabled   bool
}

// View is the read-only application state the UI renders each frame
type View struct {
	State    room.AppState
	Room     *room.Data
	RoomID   string
	UID      string
	IsHost   bool
	Score    sim.Score
	Speed    float64
	TotalXP  int
	Level    int
	EarnedXP int
	Best     float64
	Muted    bool
	TimeLeft time.Duration
	Err      error
}

// UI manages all screens. Callbacks fire on the frame the click happens.
type UI struct {
	ScreenW int
	ScreenH int
	Tick    float64

	// RoomCode holds the join field's current text
	RoomCode string

	OnStartSolo     func()
	OnMultiplayer   func()
	OnCreateRoom    func()
	OnJoinRoom      func(code string)
	OnStartMatch    func()
	OnRestartLobby  func()
	OnLeaveRoom     func()
	OnReturnToLobby func()
	OnBackToMenu    func()
	OnToggleMute    func()

	hoverIdx int
	buttons  []MenuButton
}

func NewUI(screenW, screenH int) *UI {
	return &UI{ScreenW: screenW, ScreenH: screenH, hoverIdx: -1}
}

// Update handles one frame of UI interaction
func (u *UI) Update(in *input.InputState, v View) {
	u.Tick += 1.0 / 60
	switch v.State {
	case room.Menu:
		u.updateMenu(in, v)
	case room.Lobby:
		u.updateLobby(in, v)
	case room.Spectating:
		// spectators wait for the host watchdog; Escape bails to menu
		if in.JustPressed(ebiten.KeyEscape) {
			u.fire(u.OnLeaveRoom)
		}
	case room.GameOver:
		u.updateGameOver(in, v)
	}
}

// Draw renders the screen for the current state. During Playing and
// Spectating the world is drawn underneath by the render package; the UI
// only overlays the HUD.
func (u *UI) Draw(screen *ebiten.Image, v View) {
	switch v.State {
	case room.Menu:
		u.drawMenu(screen, v)
	case room.Lobby:
		u.drawLobby(screen, v)
	case room.Playing:
		u.drawHUD(screen, v)
	case room.Spectating:
		u.drawHUD(screen, v)
		u.drawLeaderboard(screen, v, "CRASHED - SPECTATING")
	case room.GameOver:
		u.drawGameOver(screen, v)
	}
}

// hover resolves which of buttons the cursor is over and stores the set for
// drawing
func (u *UI) hover(in *input.InputState, buttons []MenuButton) {
	u.buttons = buttons
	u.hoverIdx = -1
	for i, b := range buttons {
		if in.MouseX >= b.X && in.MouseX < b.X+b.W &&
			in.MouseY >= b.Y && in.MouseY < b.Y+b.H && !b.Disabled {
			u.hoverIdx = i
		}
	}
}

func (u *UI) clicked(in *input.InputState) int {
	if in.LeftJustPressed && u.hoverIdx >= 0 {
		return u.hoverIdx
	}
	return -1
}

func (u *UI) fire(f func()) {
	if f != nil {
		f()
	}
}

func (u *UI) drawButton(screen *ebiten.Image, b MenuButton, hovered bool) {
	bg := menuBtnNorm
	switch {
	case b.Disabled:
		bg = menuBtnDis
	case hovered:
		bg = menuBtnHov
	}
	vector.DrawFilledRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), bg, false)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), 1, menuBorder, false)
	printCentered(screen, b.Text, b.X+b.W/2, b.Y+b.H/2-6)
}

func (u *UI) drawPanel(screen *ebiten.Image, x, y, w, h int) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), menuPanel, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, menuBorder, false)
}

// printCentered centers text on cx using the debug font's 6px advance
func printCentered(screen *ebiten.Image, text string, cx, y int) {
	ebitenutil.DebugPrintAt(screen, text, cx-len(text)*3, y)
}
