package match

import (
	"time"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// View is the full-session-state snapshot pushed to clients after every
// mutating transition. It is a value type built under the session lock
// and handed to collaborators, so nothing downstream can reach back into
// live session state.
type View struct {
	Code     string                     `json:"code"`
	MapID    string                     `json:"mapId"`
	MapName  string                     `json:"mapName"`
	Mode     string                     `json:"mode"`
	State    string                     `json:"state"`
	Size     int                        `json:"size"`
	Tiles    [][]grid.Terrain           `json:"tiles"`
	Items    map[string][]grid.Position `json:"items"`
	Players  []PlayerView               `json:"players"`
	HostID   string                     `json:"hostId"`
	Locked   bool                       `json:"locked"`
	Turn     TurnView                   `json:"turn"`
	Combat   *CombatView                `json:"combat,omitempty"`
	WinnerID string                     `json:"winnerId,omitempty"`
}

// PlayerView is the client-facing projection of one player.
type PlayerView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Avatar    int           `json:"avatar"`
	Kind      string        `json:"kind"`
	Team      int           `json:"team"`
	Connected bool          `json:"connected"`
	Pos       grid.Position `json:"pos"`
	Spawn     grid.Position `json:"spawn"`
	Speed     int           `json:"speed"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Wins      int           `json:"wins"`
	Items     []string      `json:"items"`
}

// TurnView is the client-facing projection of the active turn.
type TurnView struct {
	ActivePlayerID  string `json:"activePlayerId,omitempty"`
	TimeLeft        int    `json:"timeLeft"`
	MovementBudget  int    `json:"movementBudget"`
	ActionAvailable bool   `json:"actionAvailable"`
	DebugMode       bool   `json:"debugMode"`
}

// CombatView is the client-facing projection of a running combat.
type CombatView struct {
	Attacker       CombatantView `json:"attacker"`
	Defender       CombatantView `json:"defender"`
	ActingPlayerID string        `json:"actingPlayerId"`
	LastAttack     *AttackResult `json:"lastAttack,omitempty"`
}

// CombatantView is the client-facing projection of one combatant
// snapshot.
type CombatantView struct {
	PlayerID     string  `json:"playerId"`
	Name         string  `json:"name"`
	Health       int     `json:"health"`
	MaxHealth    int     `json:"maxHealth"`
	Attack       int     `json:"attack"`
	Defense      int     `json:"defense"`
	AttackDie    int     `json:"attackDie"`
	DefenseDie   int     `json:"defenseDie"`
	EscapesLeft  int     `json:"escapesLeft"`
	EscapeChance float64 `json:"escapeChance"`
}

// AttackResult carries the rolls of the most recent attack so clients
// can render the combat animation.
type AttackResult struct {
	AttackerID  string `json:"attackerId"`
	AttackRoll  int    `json:"attackRoll"`
	DefenseRoll int    `json:"defenseRoll"`
	Damage      int    `json:"damage"`
}

// GridSnapshot rebuilds a query snapshot from the view on behalf of
// selfID. Bots use this to run the same legality queries the session
// itself runs, without holding the session lock.
func (v View) GridSnapshot(selfID string) grid.Snapshot {
	var self *PlayerView
	for i := range v.Players {
		if v.Players[i].ID == selfID {
			self = &v.Players[i]
			break
		}
	}
	snap := grid.Snapshot{
		Size:     v.Size,
		Tiles:    v.Tiles,
		Occupied: make(map[grid.Position]bool),
		Enemies:  make(map[grid.Position]bool),
		Items:    make(map[grid.Position]bool),
	}
	for _, p := range v.Players {
		if p.ID == selfID {
			continue
		}
		snap.Occupied[p.Pos] = true
		if self == nil || v.Mode != ModeObjective.String() || p.Team != self.Team {
			snap.Enemies[p.Pos] = true
		}
	}
	for _, positions := range v.Items {
		for _, pos := range positions {
			snap.Items[pos] = true
		}
	}
	return snap
}

// Player returns the view of the player with the given ID, if seated.
func (v View) Player(id string) (PlayerView, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// View returns a snapshot of the current session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Code:     s.code,
		MapID:    s.mapID,
		MapName:  s.mapName,
		Mode:     s.mode.String(),
		State:    s.state.String(),
		Size:     s.size,
		Tiles:    cloneTiles(s.tiles),
		Items:    make(map[string][]grid.Position, len(s.items)),
		Locked:   s.lobby.Locked,
		WinnerID: s.winnerID,
	}
	for kind, positions := range s.items {
		if len(positions) == 0 {
			continue
		}
		v.Items[kind.String()] = append([]grid.Position(nil), positions...)
	}
	for _, p := range s.players {
		held := make([]string, 0, len(p.Items))
		for _, k := range p.Items {
			held = append(held, k.String())
		}
		v.Players = append(v.Players, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Kind:      p.Kind.String(),
			Team:      p.Team,
			Connected: p.Connected,
			Pos:       p.Pos,
			Spawn:     p.Spawn,
			Speed:     p.Speed,
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Wins:      p.Wins,
			Items:     held,
		})
	}
	if s.lobby.HostIndex < len(s.players) {
		v.HostID = s.players[s.lobby.HostIndex].ID
	}
	if s.state != StateLobby {
		v.Turn = TurnView{
			MovementBudget:  s.turn.MovementBudget,
			ActionAvailable: s.turn.ActionAvailable,
			DebugMode:       s.turn.DebugMode,
		}
		if active := s.activePlayerLocked(); active != nil {
			v.Turn.ActivePlayerID = active.ID
		}
		if !s.turnDeadline.IsZero() {
			if left := time.Until(s.turnDeadline); left > 0 {
				v.Turn.TimeLeft = int(left / time.Second)
			}
		}
	}
	if s.combat != nil {
		v.Combat = &CombatView{
			Attacker:       s.combat.Attacker.view(),
			Defender:       s.combat.Defender.view(),
			ActingPlayerID: s.combat.acting().PlayerID,
			LastAttack:     s.combat.LastAttack,
		}
	}
	return v
}

func cloneTiles(tiles [][]grid.Terrain) [][]grid.Terrain {
	out := make([][]grid.Terrain, len(tiles))
	for i, row := range tiles {
		out[i] = append([]grid.Terrain(nil), row...)
	}
	return out
}

// ItemPositions returns a copy of the on-grid positions of one item
// kind. Test helper surface.
func (s *Session) ItemPositions(kind item.Kind) []grid.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]grid.Position(nil), s.items[kind]...)
}
