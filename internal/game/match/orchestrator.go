package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// Start leaves the lobby and begins the first turn. Host-only; requires
// at least two seated players.
//
// Postcondition: Every player stands on their assigned spawn tile and
// the session is in StateTurnStart for the first player.
func (s *Session) Start(requesterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLobby || !s.isHostLocked(requesterID) || len(s.players) < 2 {
		return
	}
	for i, p := range s.players {
		p.Spawn = s.spawns[i]
		p.Pos = s.spawns[i]
		if s.mode == ModeObjective {
			p.Team = i % 2
		}
	}
	s.deps.Logger.Info("match started",
		zap.String("code", s.code),
		zap.String("map", s.mapID),
		zap.String("mode", s.mode.String()),
		zap.Int("players", len(s.players)))
	s.turn.ActiveIndex = -1
	s.beginTurnLocked()
}

// beginTurnLocked advances to the next connected player and opens their
// turn. The round-robin scan is bounded by the player count; if no
// player is connected the session idles in TurnStart until the registry
// tears it down.
func (s *Session) beginTurnLocked() {
	if s.closed || s.state == StateMatchEnd || s.state == StateStatistics {
		return
	}
	if s.winCheckLocked() {
		return
	}

	next := -1
	for step := 1; step <= len(s.players); step++ {
		i := (s.turn.ActiveIndex + step) % len(s.players)
		if s.players[i].Connected {
			next = i
			break
		}
	}
	s.state = StateTurnStart
	s.combat = nil
	if next < 0 {
		s.broadcastLocked()
		return
	}

	p := s.players[next]
	s.turn = Turn{
		ActiveIndex:     next,
		MovementBudget:  p.Speed,
		ActionAvailable: true,
		DebugMode:       s.turn.DebugMode,
	}
	s.turnDeadline = time.Time{}
	s.deps.Events.TurnStarted(s.code, p.Name)
	s.deps.Tracker.TurnStarted(s.code, p.ID)
	s.broadcastLocked()
	s.afterMain(s.deps.Timings.TurnStartDelay, StateTurnStart, s.enterTurnWaitLocked)
}

// enterTurnWaitLocked opens (or re-opens) the intent window for the
// active player. Arms the turn clock on first entry, auto-ends the turn
// when the player has neither a legal move nor a legal action, and
// schedules the bot driver for bot-controlled players.
func (s *Session) enterTurnWaitLocked() {
	p := s.activePlayerLocked()
	if p == nil {
		return
	}
	s.state = StateTurnWait

	if p.Connected {
		snap := s.snapshotLocked(p.ID)
		// Spawn tiles cost nothing, so a spent budget can still leave
		// legal moves.
		hasMove := len(snap.LegalMoves(p.Pos, s.turn.MovementBudget)) > 0
		hasAction := s.turn.ActionAvailable && len(snap.LegalActions(p.Pos)) > 0
		if !hasMove && !hasAction {
			s.beginTurnLocked()
			return
		}
	}

	if s.turnDeadline.IsZero() {
		s.turnDeadline = time.Now().Add(s.deps.Timings.TurnSeconds)
	}
	s.broadcastLocked()
	s.afterMain(time.Until(s.turnDeadline), StateTurnWait, s.beginTurnLocked)

	if p.Kind.IsBot() {
		s.afterBot(s.deps.Timings.BotThink, func() {
			s.deps.Bots.TakeTurn(s)
		})
	}
}

// Move resolves a movement intent from the active player. The declared
// target is never trusted: the path and its cost are recomputed and
// checked against the remaining budget.
func (s *Session) Move(playerID string, target grid.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePlayerLocked()
	if s.state != StateTurnWait || p == nil || p.ID != playerID {
		return
	}
	snap := s.snapshotLocked(p.ID)
	path, ok := snap.ShortestPath(p.Pos, target)
	if !ok || len(path.Tiles) == 0 {
		return
	}
	if !s.turn.DebugMode {
		if path.Cost > s.turn.MovementBudget {
			return
		}
		s.turn.MovementBudget -= path.Cost
	}

	p.Pos = path.End(p.Pos)
	s.state = StateMovementAnimation
	s.deps.Events.MoveMade(s.code, p.Name, len(path.Tiles))
	s.deps.Tracker.TilesMoved(s.code, p.ID, len(path.Tiles))
	s.broadcastLocked()
	s.afterMain(time.Duration(len(path.Tiles))*s.deps.Timings.MovePerTile,
		StateMovementAnimation, s.onMoveFinishedLocked)
}

// DebugMove teleports the active player to any accessible, unoccupied,
// item-free tile without touching the movement budget. Only legal while
// debug mode is on.
func (s *Session) DebugMove(playerID string, target grid.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePlayerLocked()
	if s.state != StateTurnWait || !s.turn.DebugMode || p == nil || p.ID != playerID {
		return
	}
	snap := s.snapshotLocked(p.ID)
	for _, candidate := range snap.DebugMoves() {
		if candidate == target {
			p.Pos = target
			s.broadcastLocked()
			return
		}
	}
}

// onMoveFinishedLocked runs when the movement animation elapses: the
// arrival tile is checked for loot, which may open the item-drop window,
// and control returns to the turn-wait legality check.
func (s *Session) onMoveFinishedLocked() {
	p := s.activePlayerLocked()
	if p == nil {
		return
	}
	if kind, ok := s.itemAtLocked(p.Pos); ok {
		s.removeItemAtLocked(kind, p.Pos)
		p.Items = append(p.Items, kind)
		s.deps.Events.ItemPickedUp(s.code, p.Name, kind)
		s.deps.Tracker.ItemPickedUp(s.code, p.ID)
		if len(p.Items) > item.MaxHeld {
			s.enterItemWaitLocked()
			return
		}
	}
	if s.winCheckLocked() {
		return
	}
	s.enterTurnWaitLocked()
}

// Action resolves the active player's one per-turn action: starting a
// combat against an adjacent opposing player, or toggling an adjacent
// bridge tile.
func (s *Session) Action(playerID string, target grid.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePlayerLocked()
	if s.state != StateTurnWait || p == nil || p.ID != playerID || !s.turn.ActionAvailable {
		return
	}
	snap := s.snapshotLocked(p.ID)
	legal := false
	for _, candidate := range snap.LegalActions(p.Pos) {
		if candidate == target {
			legal = true
			break
		}
	}
	if !legal {
		return
	}

	if snap.Enemies[target] {
		for _, other := range s.players {
			if other.ID != p.ID && other.Pos == target {
				s.turn.ActionAvailable = false
				s.startCombatLocked(p, other)
				return
			}
		}
		return
	}

	// Bridge toggle.
	s.turn.ActionAvailable = false
	s.tiles[target.Y][target.X] = s.tiles[target.Y][target.X].Toggled()
	broken := s.tiles[target.Y][target.X] == grid.TerrainBrokenBridge
	s.deps.Events.BridgeToggled(s.code, p.Name, target, broken)
	s.deps.Tracker.BridgeToggled(s.code, p.ID)
	if s.winCheckLocked() {
		return
	}
	s.enterTurnWaitLocked()
}

// EndTurn ends the active player's turn voluntarily.
func (s *Session) EndTurn(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePlayerLocked()
	if s.state != StateTurnWait || p == nil || p.ID != playerID {
		return
	}
	s.beginTurnLocked()
}

// enterItemWaitLocked opens the bounded window for the active player to
// choose which excess item to surrender. On timeout the lowest-priority
// item is dropped for them.
func (s *Session) enterItemWaitLocked() {
	p := s.activePlayerLocked()
	if p == nil {
		return
	}
	s.state = StateItemWait
	s.broadcastLocked()
	s.afterMain(s.deps.Timings.ItemWait, StateItemWait, func() {
		if len(p.Items) > item.MaxHeld {
			s.dropItemLocked(p, item.LowestPriority(p.Items))
		}
		s.resumeAfterItemWaitLocked()
	})
	if p.Kind.IsBot() {
		s.afterBot(s.deps.Timings.BotThink, func() {
			s.deps.Bots.ChooseDrop(s)
		})
	}
}

// DropItem surrenders one held item during the item-drop window.
func (s *Session) DropItem(playerID string, kind item.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePlayerLocked()
	if s.state != StateItemWait || p == nil || p.ID != playerID || !p.Holds(kind) {
		return
	}
	s.dropItemLocked(p, kind)
	if len(p.Items) > item.MaxHeld {
		// Still over capacity; keep the window open.
		s.broadcastLocked()
		return
	}
	s.mainTimer.Stop()
	s.resumeAfterItemWaitLocked()
}

// dropItemLocked places one of p's held items on the nearest tile to p
// that carries no item.
func (s *Session) dropItemLocked(p *Player, kind item.Kind) {
	if !p.RemoveItem(kind) {
		return
	}
	snap := s.snapshotLocked(p.ID)
	pos := snap.NearestItemDropTile(p.Pos)
	s.items[kind] = append(s.items[kind], pos)
	s.deps.Events.ItemDropped(s.code, p.Name, kind)
}

func (s *Session) resumeAfterItemWaitLocked() {
	if s.winCheckLocked() {
		return
	}
	s.enterTurnWaitLocked()
}

// winCheckLocked evaluates the mode's win condition and, when met,
// drives the session into MatchEnd.
//
// Postcondition: Returns true exactly when the session left the normal
// turn flow.
func (s *Session) winCheckLocked() bool {
	var winner *Player
	for _, p := range s.players {
		switch s.mode {
		case ModeElimination:
			if p.Wins >= KillsToWin {
				winner = p
			}
		case ModeObjective:
			if p.Holds(item.KindFlag) && p.Pos == p.Spawn {
				winner = p
			}
		}
		if winner != nil {
			break
		}
	}
	if winner == nil {
		return false
	}
	s.enterMatchEndLocked(winner)
	return true
}

// enterMatchEndLocked announces the winner, then drops to the terminal
// Statistics state after a fixed delay.
func (s *Session) enterMatchEndLocked(winner *Player) {
	s.winnerID = winner.ID
	s.state = StateMatchEnd
	s.combat = nil
	s.botTimer.Stop()
	s.deps.Logger.Info("match ended",
		zap.String("code", s.code),
		zap.String("winner", winner.Name),
		zap.String("mode", s.mode.String()))
	s.deps.Events.MatchEnded(s.code, winner.Name)
	s.deps.Tracker.MatchEnded(s.code, winner.ID)
	s.broadcastLocked()
	s.afterMain(s.deps.Timings.MatchEnd, StateMatchEnd, func() {
		s.state = StateStatistics
		s.broadcastLocked()
		if s.deps.OnTerminal != nil {
			code := s.code
			fn := s.deps.OnTerminal
			go fn(code)
		}
	})
}

// afterMain schedules fn on the main timer. The callback re-acquires
// the session lock and is dropped when the session has been closed or
// has left the state it was scheduled in.
func (s *Session) afterMain(d time.Duration, guard State, fn func()) {
	s.mainTimer.Schedule(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.state != guard {
			return
		}
		fn()
	})
}

// afterBot schedules fn on the bot timer. fn runs WITHOUT the session
// lock: bot drivers act through the public entry points, which validate
// state themselves.
func (s *Session) afterBot(d time.Duration, fn func()) {
	s.botTimer.Schedule(d, func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			fn()
		}
	})
}
