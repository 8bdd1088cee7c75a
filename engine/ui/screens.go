package ui

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/neonrush/rush-engine/engine/input"
	"github.com/neonrush/rush-engine/engine/room"
	"github.com/neonrush/rush-engine/engine/sim"
)

const roomCodeLength = 6

// ==================== MENU ====================

func (u *UI) menuButtons(v View) []MenuButton {
	cx := u.ScreenW / 2
	bw, bh, gap := 220, 40, 10
	startY := u.ScreenH/2 - 30
	mute := "MUTE"
	if v.Muted {
		mute = "UNMUTE"
	}
	names := []string{"SOLO RUN", "MULTIPLAYER", mute}
	buttons := make([]MenuButton, len(names))
	for i, name := range names {
		buttons[i] = MenuButton{X: cx - bw/2, Y: startY + i*(bh+gap), W: bw, H: bh, Text: name}
	}
	return buttons
}

func (u *UI) updateMenu(in *input.InputState, v View) {
	u.hover(in, u.menuButtons(v))
	switch u.clicked(in) {
	case 0:
		u.fire(u.OnStartSolo)
	case 1:
		u.fire(u.OnMultiplayer)
	case 2:
		u.fire(u.OnToggleMute)
	}
}

func (u *UI) drawMenu(screen *ebiten.Image, v View) {
	screen.Fill(menuBG)
	cx := u.ScreenW / 2

	// title with a drifting glow shadow
	title := "N E O N   R U S H"
	ty := u.ScreenH / 4
	wobble := int(math.Sin(u.Tick*2) * 2)
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		printCentered(screen, title, cx+d[0]+wobble, ty+d[1])
	}
	printCentered(screen, title, cx+wobble, ty)
	vector.DrawFilledRect(screen, float32(cx-100), float32(ty+18), 200, 2, menuAccent, false)

	for i, b := range u.buttons {
		u.drawButton(screen, b, i == u.hoverIdx)
	}

	footer := fmt.Sprintf("LVL %d   XP %d   BEST %d", v.Level, v.TotalXP, int(v.Best))
	printCentered(screen, footer, cx, u.ScreenH-40)
	if v.Err != nil {
		printCentered(screen, "connection trouble - multiplayer may be unavailable", cx, u.ScreenH-22)
	}
}

// ==================== LOBBY ====================

func (u *UI) lobbyButtons(v View) []MenuButton {
	cx := u.ScreenW / 2
	bw, bh := 220, 36
	if v.Room == nil {
		return []MenuButton{
			{X: cx - bw/2, Y: 200, W: bw, H: bh, Text: "CREATE ROOM"},
			{X: cx - bw/2, Y: 330, W: bw, H: bh, Text: "JOIN ROOM",
				Disabled: len(u.RoomCode) != roomCodeLength},
			{X: cx - bw/2, Y: 390, W: bw, H: bh, Text: "BACK"},
		}
	}
	buttons := []MenuButton{
		{X: cx - bw/2, Y: u.ScreenH - 110, W: bw, H: bh, Text: "LEAVE ROOM"},
	}
	if v.IsHost {
		buttons = append(buttons, MenuButton{
			X: cx - bw/2, Y: u.ScreenH - 160, W: bw, H: bh, Text: "START MATCH",
			Disabled: len(v.Room.Players) == 0,
		})
	}
	return buttons
}

func (u *UI) updateLobby(in *input.InputState, v View) {
	if v.Room == nil {
		u.editRoomCode(in)
	}
	u.hover(in, u.lobbyButtons(v))
	idx := u.clicked(in)
	if idx < 0 {
		if in.JustPressed(ebiten.KeyEscape) {
			if v.Room != nil {
				u.fire(u.OnLeaveRoom)
			} else {
				u.fire(u.OnBackToMenu)
			}
		}
		if v.Room == nil && len(u.RoomCode) == roomCodeLength && in.JustPressed(ebiten.KeyEnter) {
			u.joinTyped()
		}
		return
	}

	if v.Room == nil {
		switch idx {
		case 0:
			u.fire(u.OnCreateRoom)
		case 1:
			u.joinTyped()
		case 2:
			u.fire(u.OnBackToMenu)
		}
		return
	}
	switch idx {
	case 0:
		u.fire(u.OnLeaveRoom)
	case 1:
		u.fire(u.OnStartMatch)
	}
}

func (u *UI) joinTyped() {
	if u.OnJoinRoom != nil {
		u.OnJoinRoom(u.RoomCode)
	}
}

// editRoomCode applies this frame's typing to the join field
func (u *UI) editRoomCode(in *input.InputState) {
	for _, r := range in.Typed {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		valid := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if valid && len(u.RoomCode) < roomCodeLength {
			u.RoomCode += string(r)
		}
	}
	if in.BackspaceRepeating() && len(u.RoomCode) > 0 {
		u.RoomCode = u.RoomCode[:len(u.RoomCode)-1]
	}
}

func (u *UI) drawLobby(screen *ebiten.Image, v View) {
	screen.Fill(menuBG)
	cx := u.ScreenW / 2

	if v.Room == nil {
		printCentered(screen, "MULTIPLAYER", cx, 120)
		vector.DrawFilledRect(screen, float32(cx-80), 138, 160, 2, menuAccent, false)

		// join code field with a blinking caret
		fieldW, fieldH := 160, 30
		fx, fy := cx-fieldW/2, 280
		u.drawPanel(screen, fx, fy, fieldW, fieldH)
		code := u.RoomCode
		if len(code) < roomCodeLength && int(u.Tick*2)%2 == 0 {
			code += "_"
		}
		printCentered(screen, code, cx, fy+fieldH/2-6)
		printCentered(screen, "ROOM CODE", cx, fy-16)

		for i, b := range u.buttons {
			u.drawButton(screen, b, i == u.hoverIdx)
		}
		if v.Err != nil {
			printCentered(screen, "could not join: check the code", cx, 440)
		}
		return
	}

	printCentered(screen, "ROOM  "+v.RoomID, cx, 60)
	vector.DrawFilledRect(screen, float32(cx-80), 78, 160, 2, menuAccent, false)

	u.drawPanel(screen, 30, 100, u.ScreenW-60, u.ScreenH-280)
	y := 115
	for _, p := range sortedPlayers(v.Room) {
		marker := " "
		if p.IsHost {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-14s %s", marker, clip(p.DisplayName, 14), p.Status)
		ebitenutil.DebugPrintAt(screen, line, 45, y)
		vector.DrawFilledRect(screen, 36, float32(y+4), 4, 4, statusColor(p.Status), false)
		y += 16
	}
	if !v.IsHost {
		printCentered(screen, "waiting for the host to start...", cx, u.ScreenH-150)
	}

	for i, b := range u.buttons {
		u.drawButton(screen, b, i == u.hoverIdx)
	}
}

// ==================== HUD ====================

func (u *UI) drawHUD(screen *ebiten.Image, v View) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SCORE %d", int(v.Score.Distance)), 8, 8)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("BEST  %d", int(v.Best)), 8, 22)

	// lives
	for i := 0; i < v.Score.Lives; i++ {
		x := float32(u.ScreenW - 20 - i*16)
		vector.DrawFilledRect(screen, x, 10, 12, 10, menuRed, false)
	}

	// speed bar along the bottom edge
	frac := (v.Speed - sim.InitialSpeed) / (sim.MaxSpeed - sim.InitialSpeed)
	if frac < 0 {
		frac = 0
	}
	w := float32(frac) * float32(u.ScreenW-16)
	vector.DrawFilledRect(screen, 8, float32(u.ScreenH-10), float32(u.ScreenW-16), 4, menuPanel, false)
	vector.DrawFilledRect(screen, 8, float32(u.ScreenH-10), w, 4, menuCyan, false)

	if v.Room != nil && v.TimeLeft > 0 {
		secs := int(v.TimeLeft.Seconds())
		printCentered(screen, fmt.Sprintf("%d:%02d", secs/60, secs%60), u.ScreenW/2, 8)
	}
}

// ==================== LEADERBOARD ====================

func (u *UI) drawLeaderboard(screen *ebiten.Image, v View, caption string) {
	if v.Room == nil {
		return
	}
	cx := u.ScreenW / 2
	pw, ph := 240, 200
	px, py := cx-pw/2, 80

	vector.DrawFilledRect(screen, 0, 0, float32(u.ScreenW), float32(u.ScreenH), color.RGBA{0, 0, 0, 120}, false)
	u.drawPanel(screen, px, py, pw, ph)
	printCentered(screen, caption, cx, py+12)
	vector.DrawFilledRect(screen, float32(px+20), float32(py+30), float32(pw-40), 2, menuAccent, false)

	y := py + 42
	for rank, p := range sortedPlayers(v.Room) {
		name := clip(p.DisplayName, 12)
		if p.UID == v.UID {
			name = "> " + name
		}
		line := fmt.Sprintf("%d. %-14s %5d", rank+1, name, p.XP)
		ebitenutil.DebugPrintAt(screen, line, px+20, y)
		vector.DrawFilledRect(screen, float32(px+10), float32(y+4), 4, 4, statusColor(p.Status), false)
		y += 16
		if y > py+ph-16 {
			break
		}
	}
}

// ==================== GAME OVER ====================

func (u *UI) gameOverButtons(v View) []MenuButton {
	cx := u.ScreenW / 2
	bw, bh, gap := 220, 36, 10
	startY := u.ScreenH/2 + 60
	var names []string
	if v.Room != nil {
		names = []string{"NEW MATCH", "LEAVE ROOM"}
	} else {
		names = []string{"RUN AGAIN", "MENU"}
	}
	buttons := make([]MenuButton, len(names))
	for i, name := range names {
		buttons[i] = MenuButton{X: cx - bw/2, Y: startY + i*(bh+gap), W: bw, H: bh, Text: name}
	}
	// only the host can rewind the room to waiting
	if v.Room != nil && !v.IsHost {
		buttons[0].Disabled = true
	}
	return buttons
}

func (u *UI) updateGameOver(in *input.InputState, v View) {
	u.hover(in, u.gameOverButtons(v))
	idx := u.clicked(in)
	if idx < 0 {
		return
	}
	if v.Room != nil {
		switch idx {
		case 0:
			if v.IsHost {
				u.fire(u.OnRestartLobby)
			}
		case 1:
			u.fire(u.OnLeaveRoom)
		}
		return
	}
	switch idx {
	case 0:
		u.fire(u.OnStartSolo)
	case 1:
		u.fire(u.OnBackToMenu)
	}
}

func (u *UI) drawGameOver(screen *ebiten.Image, v View) {
	vector.DrawFilledRect(screen, 0, 0, float32(u.ScreenW), float32(u.ScreenH), color.RGBA{0, 0, 0, 170}, false)
	cx := u.ScreenW / 2
	printCentered(screen, "RUN OVER", cx, u.ScreenH/4)
	vector.DrawFilledRect(screen, float32(cx-70), float32(u.ScreenH/4+16), 140, 2, menuRed, false)

	y := u.ScreenH/4 + 50
	lines := []string{
		fmt.Sprintf("SCORE     %d", int(v.Score.Distance)),
		fmt.Sprintf("BEST      %d", int(v.Best)),
		fmt.Sprintf("PICKUPS   %d", v.Score.Pickups),
		fmt.Sprintf("XP EARNED %d", v.EarnedXP),
		fmt.Sprintf("LEVEL     %d", v.Level),
	}
	for _, line := range lines {
		printCentered(screen, line, cx, y)
		y += 16
	}

	if v.Room != nil {
		u.drawLeaderboardInline(screen, v, y+10)
	}

	for i, b := range u.buttons {
		u.drawButton(screen, b, i == u.hoverIdx)
	}
}

func (u *UI) drawLeaderboardInline(screen *ebiten.Image, v View, y int) {
	cx := u.ScreenW / 2
	printCentered(screen, "RESULTS", cx, y)
	y += 16
	for rank, p := range sortedPlayers(v.Room) {
		line := fmt.Sprintf("%d. %-12s %5d", rank+1, clip(p.DisplayName, 12), p.XP)
		printCentered(screen, line, cx, y)
		y += 14
		if rank >= 3 {
			break
		}
	}
}

// ==================== HELPERS ====================

// sortedPlayers orders by score descending, then by uid for a stable list
func sortedPlayers(d *room.Data) []room.Player {
	players := make([]room.Player, 0, len(d.Players))
	for _, p := range d.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].XP != players[j].XP {
			return players[i].XP > players[j].XP
		}
		return players[i].UID < players[j].UID
	})
	return players
}

func statusColor(s room.PlayerStatus) color.RGBA {
	switch s {
	case room.PlayerPlaying:
		return menuGreen
	case room.PlayerCrashed:
		return menuRed
	case room.PlayerFinished:
		return menuGold
	}
	return menuTextDim
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
