package gameserver

import (
	"sync"

	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// PlayerStats is one player's accumulated counters for one match.
type PlayerStats struct {
	Turns          int `json:"turns"`
	TilesMoved     int `json:"tilesMoved"`
	DamageDealt    int `json:"damageDealt"`
	Kills          int `json:"kills"`
	Escapes        int `json:"escapes"`
	ItemsPickedUp  int `json:"itemsPickedUp"`
	BridgesToggled int `json:"bridgesToggled"`
}

// MatchStats is the aggregate read at the statistics screen.
type MatchStats struct {
	WinnerID string                 `json:"winnerId"`
	Players  map[string]PlayerStats `json:"players"`
}

// Tracker is the statistics collaborator: an in-memory aggregation of
// the engine's event mirror, keyed by match code. Counters for a match
// survive until released after the statistics screen.
type Tracker struct {
	mu      sync.Mutex
	matches map[string]*MatchStats
}

var _ match.Tracker = (*Tracker)(nil)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{matches: make(map[string]*MatchStats)}
}

func (t *Tracker) stats(code, playerID string) (*MatchStats, PlayerStats) {
	m, ok := t.matches[code]
	if !ok {
		m = &MatchStats{Players: make(map[string]PlayerStats)}
		t.matches[code] = m
	}
	return m, m.Players[playerID]
}

func (t *Tracker) TurnStarted(code, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.Turns++
	m.Players[playerID] = p
}

func (t *Tracker) TilesMoved(code, playerID string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.TilesMoved += count
	m.Players[playerID] = p
}

func (t *Tracker) DamageDealt(code, playerID string, damage int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.DamageDealt += damage
	m.Players[playerID] = p
}

func (t *Tracker) Kill(code, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.Kills++
	m.Players[playerID] = p
}

func (t *Tracker) EscapeSucceeded(code, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.Escapes++
	m.Players[playerID] = p
}

func (t *Tracker) ItemPickedUp(code, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.ItemsPickedUp++
	m.Players[playerID] = p
}

func (t *Tracker) BridgeToggled(code, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, p := t.stats(code, playerID)
	p.BridgesToggled++
	m.Players[playerID] = p
}

func (t *Tracker) MatchEnded(code, winnerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, _ := t.stats(code, winnerID)
	m.WinnerID = winnerID
}

// Snapshot returns a copy of one match's accumulated statistics.
func (t *Tracker) Snapshot(code string) (MatchStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.matches[code]
	if !ok {
		return MatchStats{}, false
	}
	out := MatchStats{WinnerID: m.WinnerID, Players: make(map[string]PlayerStats, len(m.Players))}
	for id, p := range m.Players {
		out.Players[id] = p
	}
	return out, true
}

// Release discards a finished match's counters.
func (t *Tracker) Release(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.matches, code)
}
