package match

import (
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// Broadcaster fans session updates out to connected clients. The core
// never touches sockets; it hands a fully built View to the transport
// layer. Implementations must not call back into the session.
type Broadcaster interface {
	// SendUpdate pushes a full-session-state update to every client
	// in the session.
	SendUpdate(view View)
	// SendMessage pushes a user-facing notice to every client in the
	// session identified by code.
	SendMessage(code, text string, closeable bool)
	// EmitRemovedFromMatch notifies a single removed player why they
	// were removed.
	EmitRemovedFromMatch(playerID, reason string)
}

// EventLog is the chat/log feed collaborator. Calls are fire-and-forget
// and must never fail or block.
type EventLog interface {
	TurnStarted(code, player string)
	MoveMade(code, player string, tiles int)
	AttackResolved(code, attacker, defender string, attackRoll, defenseRoll, damage int)
	EscapeAttempted(code, player string, success bool)
	ItemPickedUp(code, player string, kind item.Kind)
	ItemDropped(code, player string, kind item.Kind)
	BridgeToggled(code, player string, pos grid.Position, broken bool)
	PlayerLeft(code, player string)
	MatchEnded(code, winner string)
}

// Tracker is the statistics collaborator, mirroring the event feed as
// pure counters. Same non-blocking contract as EventLog.
type Tracker interface {
	TurnStarted(code, playerID string)
	TilesMoved(code, playerID string, count int)
	DamageDealt(code, playerID string, damage int)
	Kill(code, playerID string)
	EscapeSucceeded(code, playerID string)
	ItemPickedUp(code, playerID string)
	BridgeToggled(code, playerID string)
	MatchEnded(code, winnerID string)
	// Release discards the counters for a finished match. Called by the
	// registry at teardown, after the statistics screen has been served.
	Release(code string)
}

// BotDriver is invoked by the orchestrator whenever a bot-controlled
// player must act. The driver is called without the session lock held
// and acts exclusively through the session's public entry points, the
// same ones a human client invokes.
type BotDriver interface {
	// TakeTurn performs one decision step of the bot's turn: a move,
	// an action, or endTurn.
	TakeTurn(s *Session)
	// CombatAct chooses attack or escape for the acting combatant.
	CombatAct(s *Session)
	// ChooseDrop drops one excess item during ItemWait.
	ChooseDrop(s *Session)
}

// NopBroadcaster discards all outbound traffic. Test default.
type NopBroadcaster struct{}

func (NopBroadcaster) SendUpdate(View)                     {}
func (NopBroadcaster) SendMessage(string, string, bool)    {}
func (NopBroadcaster) EmitRemovedFromMatch(string, string) {}

// NopEventLog discards all events. Test default.
type NopEventLog struct{}

func (NopEventLog) TurnStarted(string, string)                           {}
func (NopEventLog) MoveMade(string, string, int)                         {}
func (NopEventLog) AttackResolved(string, string, string, int, int, int) {}
func (NopEventLog) EscapeAttempted(string, string, bool)                 {}
func (NopEventLog) ItemPickedUp(string, string, item.Kind)               {}
func (NopEventLog) ItemDropped(string, string, item.Kind)                {}
func (NopEventLog) BridgeToggled(string, string, grid.Position, bool)    {}
func (NopEventLog) PlayerLeft(string, string)                            {}
func (NopEventLog) MatchEnded(string, string)                            {}

// NopTracker discards all counters. Test default.
type NopTracker struct{}

func (NopTracker) TurnStarted(string, string)      {}
func (NopTracker) TilesMoved(string, string, int)  {}
func (NopTracker) DamageDealt(string, string, int) {}
func (NopTracker) Kill(string, string)             {}
func (NopTracker) EscapeSucceeded(string, string)  {}
func (NopTracker) ItemPickedUp(string, string)     {}
func (NopTracker) BridgeToggled(string, string)    {}
func (NopTracker) MatchEnded(string, string)       {}
func (NopTracker) Release(string)                  {}

// NopBotDriver leaves bots idle; their turns end on the turn timer.
// Test default.
type NopBotDriver struct{}

func (NopBotDriver) TakeTurn(*Session)   {}
func (NopBotDriver) CombatAct(*Session)  {}
func (NopBotDriver) ChooseDrop(*Session) {}
