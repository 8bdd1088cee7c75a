package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/neonrush/rush-engine/engine/app"
	"github.com/neonrush/rush-engine/engine/audio"
	"github.com/neonrush/rush-engine/engine/core"
	"github.com/neonrush/rush-engine/engine/gate"
	"github.com/neonrush/rush-engine/engine/identity"
	"github.com/neonrush/rush-engine/engine/input"
	"github.com/neonrush/rush-engine/engine/render"
	"github.com/neonrush/rush-engine/engine/room"
	"github.com/neonrush/rush-engine/engine/sim"
	"github.com/neonrush/rush-engine/engine/store"
	"github.com/neonrush/rush-engine/engine/store/wsstore"
	"github.com/neonrush/rush-engine/engine/ui"
)

const (
	ScreenWidth  = int(sim.GameWidth)
	ScreenHeight = int(sim.GameHeight)
)

// Game implements ebiten.Game
type Game struct {
	ctrl     *app.Controller
	input    *input.InputState
	ui       *ui.UI
	renderer *render.Renderer
	audio    *audio.AudioManager

	alpha   float64
	lastErr error
}

func NewGame(ctrl *app.Controller) *Game {
	g := &Game{
		ctrl:     ctrl,
		input:    input.NewInputState(ScreenWidth),
		ui:       ui.NewUI(ScreenWidth, ScreenHeight),
		renderer: render.NewRenderer(time.Now().UnixNano()),
		audio:    audio.NewAudioManager(),
	}

	g.ui.OnStartSolo = func() { g.click(); ctrl.StartSolo() }
	g.ui.OnMultiplayer = func() {
		g.click()
		ok, err := ctrl.EnterMultiplayer(context.Background())
		if err != nil {
			g.lastErr = err
		} else if ok {
			g.lastErr = nil
		}
	}
	g.ui.OnCreateRoom = func() { g.click(); g.lastErr = ctrl.CreateRoom(context.Background()) }
	g.ui.OnJoinRoom = func(code string) {
		g.click()
		g.lastErr = ctrl.JoinRoom(context.Background(), code)
	}
	g.ui.OnStartMatch = func() { g.click(); g.lastErr = ctrl.StartMatch(context.Background()) }
	g.ui.OnRestartLobby = func() { g.click(); g.lastErr = ctrl.RestartLobby(context.Background()) }
	g.ui.OnLeaveRoom = func() { g.click(); ctrl.LeaveRoom() }
	g.ui.OnReturnToLobby = func() { g.click(); ctrl.ReturnToLobby() }
	g.ui.OnBackToMenu = func() { g.click(); ctrl.BackToMenu() }
	g.ui.OnToggleMute = func() { g.audio.ToggleMute() }

	bus := ctrl.Bus()
	bus.On(core.EvtPlayerHit, func(core.Event) { g.audio.PlaySFX(audio.SndCrash) })
	bus.On(core.EvtPickupCollected, func(core.Event) { g.audio.PlaySFX(audio.SndPickup) })
	bus.On(core.EvtSessionEnded, func(core.Event) { g.audio.PlaySFX(audio.SndGameOver) })

	return g
}

func (g *Game) click() { g.audio.PlaySFX(audio.SndClick) }

func (g *Game) Update() error {
	g.input.Update()
	g.ctrl.SetInput(sim.Input{Left: g.input.Left, Right: g.input.Right})
	g.alpha = g.ctrl.Update()
	g.ui.Update(g.input, g.view())

	if g.ctrl.State() == room.Playing {
		g.audio.SetEngineSpeed(g.ctrl.Snapshot().Speed)
	} else {
		g.audio.SetEngineSpeed(0)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	switch g.ctrl.State() {
	case room.Playing, room.Spectating, room.GameOver:
		g.renderer.Draw(screen, g.ctrl.Snapshot(), g.alpha)
	}
	g.ui.Draw(screen, g.view())
}

func (g *Game) Layout(int, int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func (g *Game) view() ui.View {
	p := g.ctrl.Progress()
	v := ui.View{
		State:    g.ctrl.State(),
		Room:     g.ctrl.Room(),
		RoomID:   g.ctrl.RoomID(),
		UID:      g.ctrl.UID,
		IsHost:   g.ctrl.IsHost(),
		Score:    g.ctrl.Score(),
		Speed:    g.ctrl.Snapshot().Speed,
		TotalXP:  p.TotalXP,
		Level:    p.Level,
		EarnedXP: g.ctrl.EarnedXP(),
		Best:     p.Best,
		Muted:    g.audio.Muted,
		Err:      g.lastErr,
	}
	if v.Err == nil {
		v.Err = g.ctrl.LastError()
	}
	if d := v.Room; d != nil && d.Status == room.StatusPlaying && !d.StartTime.IsZero() {
		if left := time.Until(d.StartTime.Add(sim.MatchDuration)); left > 0 {
			v.TimeLeft = left
		}
	}
	return v
}

func savePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "neon-rush", "save.json")
}

func main() {
	server := flag.String("server", "", "room server websocket URL (empty = offline practice)")
	gateURL := flag.String("gate", "", "entitlement service URL (empty = allow all)")
	name := flag.String("name", "", "display name shown to other players")
	flag.Parse()

	kv, err := store.NewFileKV(savePath())
	if err != nil {
		log.Fatalf("open save file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uid, err := identity.Resolve(ctx, identity.Anonymous{}, kv)
	if err != nil {
		log.Fatalf("resolve identity: %v", err)
	}

	displayName := *name
	if displayName == "" && len(uid) >= 4 {
		displayName = "runner-" + uid[len(uid)-4:]
	}

	var rooms store.RoomStore
	if *server != "" {
		client, err := wsstore.Dial(ctx, *server)
		if err != nil {
			log.Fatalf("connect to room server: %v", err)
		}
		defer client.Close()
		rooms = client
	} else {
		// offline practice: rooms exist but never leave this process
		rooms = store.NewMemStore()
	}

	var entitlements gate.Gate = gate.AllowAll{}
	if *gateURL != "" {
		entitlements = gate.NewHTTPGate(*gateURL, uid)
	}

	ctrl, err := app.NewController(app.Options{
		UID:         uid,
		DisplayName: displayName,
		KV:          kv,
		Rooms:       rooms,
		Gate:        entitlements,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		log.Fatalf("init game: %v", err)
	}
	defer ctrl.Close()

	log.Printf("signed in as %s (level %d, %d xp)",
		displayName, ctrl.Progress().Level, ctrl.Progress().TotalXP)

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("Neon Rush — %s", displayName))
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(NewGame(ctrl)); err != nil {
		log.Fatal(err)
	}
}
