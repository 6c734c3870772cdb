package match

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/dice"
	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// Lobby admission failures, surfaced to the declined client as
// user-facing reasons.
var (
	// ErrMatchFull is returned when every seat on the map is taken.
	ErrMatchFull = errors.New("match is full")
	// ErrMatchLocked is returned when the host has locked the lobby.
	ErrMatchLocked = errors.New("match is locked")
	// ErrMatchStarted is returned when the match has left the lobby.
	ErrMatchStarted = errors.New("match has already started")
)

// Deps bundles everything a session needs from the outside world.
type Deps struct {
	// Roller provides all randomness: dice, escape draws, stat rolls.
	Roller *dice.Roller
	// Logger is the session's structured logger.
	Logger *zap.Logger
	// Broadcaster, Events, and Tracker are the outbound collaborators.
	Broadcaster Broadcaster
	// Events receives the chat/log feed.
	Events EventLog
	// Tracker receives the statistics feed.
	Tracker Tracker
	// Bots drives bot-controlled players. NopBotDriver leaves bots
	// idle.
	Bots BotDriver
	// Timings holds every scheduled delay.
	Timings Timings
	// OnTerminal, if set, is called once when the session enters
	// Statistics; the registry uses it to schedule teardown.
	OnTerminal func(code string)
}

// Session is one running match instance, keyed by a short code. All
// state is exclusively owned by the session and mutated only under its
// mutex, which serializes inbound intents and timer callbacks exactly
// as the original single-threaded event loop did.
type Session struct {
	mu sync.Mutex

	code    string
	mapID   string
	mapName string
	mode    Mode
	state   State

	size   int
	tiles  [][]grid.Terrain
	items  map[item.Kind][]grid.Position
	spawns []grid.Position

	players []*Player
	lobby   Lobby
	turn    Turn
	combat  *Combat

	// turnDeadline bounds the active player's turn; it is suspended
	// while a combat runs, with combatStarted marking the suspension
	// point.
	turnDeadline  time.Time
	combatStarted time.Time

	winnerID string

	mainTimer Timer
	botTimer  Timer
	closed    bool

	deps Deps
}

// NewSession creates a lobby-state session on the given map with its
// creating player already seated as host.
//
// Precondition: def must be validated; deps.Roller, Logger, Broadcaster,
// Events, Tracker, and Bots must be non-nil.
// Postcondition: The session is in StateLobby with one connected player.
func NewSession(code string, def *gamemap.MapDefinition, mode Mode, hostName string, deps Deps) (*Session, *Player) {
	s := &Session{
		code:    code,
		mapID:   def.ID,
		mapName: def.Name,
		mode:    mode,
		state:   StateLobby,
		size:    def.Size,
		tiles:   def.CloneTiles(),
		items:   def.CloneItems(),
		spawns:  append([]grid.Position(nil), def.Spawns...),
		deps:    deps,
	}
	host := NewPlayer(hostName, KindHuman, deps.Roller)
	s.players = append(s.players, host)
	s.lobby = Lobby{HostIndex: 0}
	return s, host
}

// Code returns the session's match code.
func (s *Session) Code() string { return s.code }

// Join seats a new human player in the lobby.
//
// Postcondition: Returns the created player, or ErrMatchStarted,
// ErrMatchLocked, or ErrMatchFull.
func (s *Session) Join(name string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admitLocked(); err != nil {
		return nil, err
	}
	p := NewPlayer(name, KindHuman, s.deps.Roller)
	s.players = append(s.players, p)
	s.broadcastLocked()
	return p, nil
}

// AddBot seats a bot of the given personality. Host-only, lobby-only.
//
// Postcondition: Returns the created bot player, or an admission error;
// nil and no error when the requester is not the host.
func (s *Session) AddBot(requesterID string, kind PlayerKind) (*Player, error) {
	if !kind.IsBot() {
		return nil, errors.New("player kind is not a bot personality")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isHostLocked(requesterID) {
		return nil, nil
	}
	if s.state != StateLobby {
		return nil, ErrMatchStarted
	}
	if len(s.players) >= len(s.spawns) {
		return nil, ErrMatchFull
	}
	bot := NewPlayer(botName(kind, len(s.players)), kind, s.deps.Roller)
	s.players = append(s.players, bot)
	s.broadcastLocked()
	return bot, nil
}

func botName(kind PlayerKind, seat int) string {
	prefix := "Scrapper"
	if kind == KindBotDefensive {
		prefix = "Warden"
	}
	return prefix + string(rune('A'+seat))
}

// admitLocked checks the lobby admission rules.
func (s *Session) admitLocked() error {
	if s.state != StateLobby {
		return ErrMatchStarted
	}
	if s.lobby.Locked {
		return ErrMatchLocked
	}
	if len(s.players) >= len(s.spawns) {
		return ErrMatchFull
	}
	return nil
}

// ChangeAvatar sets the requesting player's avatar. Lobby-only;
// out-of-range values are dropped.
func (s *Session) ChangeAvatar(playerID string, avatar int) {
	if avatar < 0 || avatar >= AvatarCount {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLobby {
		return
	}
	if p := s.playerLocked(playerID); p != nil {
		p.Avatar = avatar
		s.broadcastLocked()
	}
}

// SetLocked toggles the lobby lock. Host-only, lobby-only.
func (s *Session) SetLocked(requesterID string, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLobby || !s.isHostLocked(requesterID) {
		return
	}
	s.lobby.Locked = locked
	s.broadcastLocked()
}

// SetDebug toggles debug mode. Host-only; allowed in any in-match
// state so the host can flip it while an animation timer is pending.
func (s *Session) SetDebug(requesterID string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isHostLocked(requesterID) {
		return
	}
	s.turn.DebugMode = on
	s.broadcastLocked()
}

// Kick removes a player from the lobby. Host-only; the host cannot
// kick themselves. Reports whether the target was actually removed so
// the registry can free the player's seat entry.
func (s *Session) Kick(requesterID, targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLobby || !s.isHostLocked(requesterID) || requesterID == targetID {
		return false
	}
	if !s.removeFromLobbyLocked(targetID) {
		return false
	}
	s.deps.Broadcaster.EmitRemovedFromMatch(targetID, "kicked by host")
	s.broadcastLocked()
	return true
}

// Leave removes the player in the lobby phase, or marks them
// disconnected once the match has started. Returns the number of
// connected human players remaining, which the registry uses to decide
// teardown.
func (s *Session) Leave(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLobby {
		s.removeFromLobbyLocked(playerID)
		s.broadcastLocked()
		return s.connectedHumansLocked()
	}

	p := s.playerLocked(playerID)
	if p == nil || !p.Connected {
		return s.connectedHumansLocked()
	}
	p.Connected = false
	s.deps.Events.PlayerLeft(s.code, p.Name)

	// A combatant leaving ends the combat in the opponent's favor.
	if s.combat != nil && (s.state == StateCombatWait || s.state == StateCombatAnimation) {
		if s.combat.Attacker.PlayerID == playerID || s.combat.Defender.PlayerID == playerID {
			winnerID := s.combat.Attacker.PlayerID
			if winnerID == playerID {
				winnerID = s.combat.Defender.PlayerID
			}
			s.finishCombatLocked(winnerID, playerID)
			return s.connectedHumansLocked()
		}
	}

	// If the leaver held the turn, advance immediately. A leaver who
	// was mid-drop-window settles their overflow first so nobody keeps
	// more items than the carry limit.
	if s.state != StateMatchEnd && s.state != StateStatistics &&
		s.turn.ActiveIndex < len(s.players) && s.players[s.turn.ActiveIndex].ID == playerID {
		if s.state == StateItemWait {
			for len(p.Items) > item.MaxHeld {
				s.dropItemLocked(p, item.LowestPriority(p.Items))
			}
		}
		s.beginTurnLocked()
		return s.connectedHumansLocked()
	}

	s.broadcastLocked()
	return s.connectedHumansLocked()
}

// removeFromLobbyLocked deletes a player outright, reassigning the host
// seat when needed. Only legal in the lobby phase, where player indices
// are not yet load-bearing.
func (s *Session) removeFromLobbyLocked(playerID string) bool {
	for i, p := range s.players {
		if p.ID != playerID {
			continue
		}
		s.players = append(s.players[:i], s.players[i+1:]...)
		switch {
		case len(s.players) == 0:
			s.lobby.HostIndex = 0
		case i < s.lobby.HostIndex:
			s.lobby.HostIndex--
		case i == s.lobby.HostIndex:
			s.lobby.HostIndex = 0
		}
		return true
	}
	return false
}

// Close cancels all pending timers. Called by the registry at teardown;
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.mainTimer.Stop()
	s.botTimer.Stop()
}

// ConnectedHumans returns the number of connected human players.
func (s *Session) ConnectedHumans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectedHumansLocked()
}

func (s *Session) connectedHumansLocked() int {
	n := 0
	for _, p := range s.players {
		if p.Kind == KindHuman && p.Connected {
			n++
		}
	}
	return n
}

func (s *Session) isHostLocked(playerID string) bool {
	return s.lobby.HostIndex < len(s.players) && s.players[s.lobby.HostIndex].ID == playerID
}

func (s *Session) playerLocked(playerID string) *Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// activePlayerLocked returns the turn holder, or nil outside a turn.
func (s *Session) activePlayerLocked() *Player {
	if s.turn.ActiveIndex < 0 || s.turn.ActiveIndex >= len(s.players) {
		return nil
	}
	return s.players[s.turn.ActiveIndex]
}

// snapshotLocked builds the grid view for queries on behalf of selfID.
// Tiles occupied by any other player are excluded from the movement
// graph; enemy marking is team-aware in objective mode.
func (s *Session) snapshotLocked(selfID string) grid.Snapshot {
	self := s.playerLocked(selfID)
	snap := grid.Snapshot{
		Size:     s.size,
		Tiles:    s.tiles,
		Occupied: make(map[grid.Position]bool),
		Enemies:  make(map[grid.Position]bool),
		Items:    make(map[grid.Position]bool),
	}
	for _, p := range s.players {
		if p.ID == selfID {
			continue
		}
		snap.Occupied[p.Pos] = true
		if self == nil || s.mode != ModeObjective || p.Team != self.Team {
			snap.Enemies[p.Pos] = true
		}
	}
	for _, positions := range s.items {
		for _, pos := range positions {
			snap.Items[pos] = true
		}
	}
	return snap
}

// itemAtLocked returns the first item kind lying on pos.
func (s *Session) itemAtLocked(pos grid.Position) (item.Kind, bool) {
	for _, kind := range item.AllKinds {
		for _, p := range s.items[kind] {
			if p == pos {
				return kind, true
			}
		}
	}
	return 0, false
}

// removeItemAtLocked deletes one item of the given kind from pos.
func (s *Session) removeItemAtLocked(kind item.Kind, pos grid.Position) {
	positions := s.items[kind]
	for i, p := range positions {
		if p == pos {
			s.items[kind] = append(positions[:i], positions[i+1:]...)
			return
		}
	}
}

// broadcastLocked pushes a full-session update through the transport
// collaborator. Called after every mutating transition.
func (s *Session) broadcastLocked() {
	s.deps.Broadcaster.SendUpdate(s.viewLocked())
}
