package room

import "time"

// AppState is the top-level application state driving which screen is shown
// and whether a local simulation runs
type AppState uint8

const (
	Menu AppState = iota
	Lobby
	Playing
	Spectating
	GameOver
)

func (s AppState) String() string {
	switch s {
	case Menu:
		return "menu"
	case Lobby:
		return "lobby"
	case Playing:
		return "playing"
	case Spectating:
		return "spectating"
	case GameOver:
		return "gameover"
	}
	return "unknown"
}

// EventKind discriminates reducer inputs
type EventKind uint8

const (
	EvSnapshot EventKind = iota
	EvSnapshotError
	EvSessionEnded
	EvUserAction
)

// Action is a user intent surfaced by the presentation layer
type Action uint8

const (
	ActionStartSolo Action = iota
	ActionEnterLobby
	ActionRoomJoined
	ActionLeaveRoom
	ActionReturnToLobby
	ActionBackToMenu
)

// Event is one reducer input
type Event struct {
	Kind     EventKind
	Snapshot *Data
	Err      error
	Action   Action

	// SessionCrashed marks a session that ended with zero lives rather
	// than by reaching the match deadline
	SessionCrashed bool
}

// EffectKind identifies a side effect the caller must execute. The reducer
// itself never touches the store or the simulation.
type EffectKind uint8

const (
	// EffectStartSession starts a fresh local simulation run
	EffectStartSession EffectKind = iota
	// EffectEndSession ends the local run using the last known local score
	EffectEndSession
	// EffectWriteFinish is the host watchdog writing status=finished
	EffectWriteFinish
	// EffectReportResult pushes the local player's final xp and sub-status
	EffectReportResult
	// EffectClearRoom unsubscribes and drops all local room state
	EffectClearRoom
)

// Effect is one side effect requested by the reducer
type Effect struct {
	Kind      EffectKind
	StartTime time.Time // for EffectStartSession: match start, zero for solo
	Crashed   bool      // for EffectReportResult
}

// Machine reconciles the local application state against room snapshots and
// local events. It holds no transport and performs no I/O: every state
// change is a pure function of (current state, event), with side effects
// returned for the caller to execute. Handlers stay idempotent against
// duplicate snapshots because transitions only fire out of the states named
// by the reconciliation rules.
type Machine struct {
	state         AppState
	uid           string
	matchDuration time.Duration
	now           func() time.Time

	room *Data
}

// NewMachine creates a machine in the Menu state for the given local player
func NewMachine(uid string, matchDuration time.Duration, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		state:         Menu,
		uid:           uid,
		matchDuration: matchDuration,
		now:           now,
	}
}

// State returns the current application state
func (m *Machine) State() AppState { return m.state }

// Room returns the latest observed room snapshot, or nil outside a room
func (m *Machine) Room() *Data { return m.room }

// InRoom reports whether a room snapshot is being tracked
func (m *Machine) InRoom() bool { return m.room != nil }

// Apply advances the machine by one event and returns the side effects the
// caller must execute, in order.
func (m *Machine) Apply(ev Event) []Effect {
	switch ev.Kind {
	case EvSnapshot:
		return m.applySnapshot(ev.Snapshot)
	case EvSnapshotError:
		// desync is fatal to the multiplayer session: clear local room
		// state and fall back to the menu rather than attempt repair
		m.room = nil
		m.state = Menu
		return []Effect{{Kind: EffectClearRoom}}
	case EvSessionEnded:
		return m.applySessionEnded(ev.SessionCrashed)
	case EvUserAction:
		return m.applyAction(ev.Action)
	}
	return nil
}

func (m *Machine) applySnapshot(d *Data) []Effect {
	if d == nil {
		return nil
	}
	m.room = d
	var effects []Effect

	me, inRoom := d.Players[m.uid]

	switch d.Status {
	case StatusPlaying:
		if inRoom && (me.Status == PlayerPlaying || me.Status == PlayerReady) {
			switch m.state {
			case Lobby, Spectating, GameOver:
				m.state = Playing
				effects = append(effects, Effect{Kind: EffectStartSession, StartTime: d.StartTime})
			}
		}
	case StatusFinished:
		switch m.state {
		case Playing:
			m.state = GameOver
			effects = append(effects, Effect{Kind: EffectEndSession})
		case Spectating:
			m.state = GameOver
		}
	case StatusWaiting:
		if m.state == GameOver || m.state == Spectating {
			m.state = Lobby
		}
	}

	// Host watchdog: only the host writes the finish, which keeps
	// concurrent clients from racing duplicate writes. At most one write
	// per snapshot evaluation.
	if inRoom && me.IsHost && d.Status == StatusPlaying {
		timeUp := !d.StartTime.IsZero() && m.now().Sub(d.StartTime) > m.matchDuration
		if timeUp || d.ActivePlayers() == 0 {
			effects = append(effects, Effect{Kind: EffectWriteFinish})
		}
	}

	return effects
}

func (m *Machine) applySessionEnded(crashed bool) []Effect {
	if m.state != Playing {
		return nil
	}
	if m.room != nil {
		// race continues without us: report the result and watch the rest
		m.state = Spectating
		return []Effect{{Kind: EffectReportResult, Crashed: crashed}}
	}
	m.state = GameOver
	return nil
}

func (m *Machine) applyAction(a Action) []Effect {
	switch a {
	case ActionStartSolo:
		if m.room == nil && (m.state == Menu || m.state == GameOver) {
			m.state = Playing
			return []Effect{{Kind: EffectStartSession}}
		}
	case ActionEnterLobby:
		if m.state == Menu {
			m.state = Lobby
		}
	case ActionRoomJoined:
		if m.state == Menu || m.state == Lobby {
			m.state = Lobby
		}
	case ActionLeaveRoom:
		m.room = nil
		m.state = Menu
		return []Effect{{Kind: EffectClearRoom}}
	case ActionReturnToLobby:
		if m.state == GameOver && m.room != nil {
			m.state = Lobby
		}
	case ActionBackToMenu:
		if m.state == GameOver || m.state == Lobby {
			m.state = Menu
		}
	}
	return nil
}
