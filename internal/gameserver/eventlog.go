package gameserver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// EventLog is the chat/log collaborator: every notable match event is
// logged structurally and mirrored to the session's clients as a feed
// notice. All calls are fire-and-forget.
type EventLog struct {
	hub     *Hub
	tracker *Tracker
	logger  *zap.Logger
}

var _ match.EventLog = (*EventLog)(nil)

// NewEventLog creates the event feed over the given hub. The tracker
// supplies the end-of-match totals line.
func NewEventLog(hub *Hub, tracker *Tracker, logger *zap.Logger) *EventLog {
	return &EventLog{hub: hub, tracker: tracker, logger: logger}
}

func (e *EventLog) emit(code, text string) {
	e.hub.SendMessage(code, text, false)
}

func (e *EventLog) TurnStarted(code, player string) {
	e.logger.Info("turn started", zap.String("code", code), zap.String("player", player))
	e.emit(code, fmt.Sprintf("%s's turn.", player))
}

func (e *EventLog) MoveMade(code, player string, tiles int) {
	e.logger.Debug("move made",
		zap.String("code", code),
		zap.String("player", player),
		zap.Int("tiles", tiles))
	e.emit(code, fmt.Sprintf("%s moved %d tiles.", player, tiles))
}

func (e *EventLog) AttackResolved(code, attacker, defender string, attackRoll, defenseRoll, damage int) {
	e.logger.Info("attack resolved",
		zap.String("code", code),
		zap.String("attacker", attacker),
		zap.String("defender", defender),
		zap.Int("attack_roll", attackRoll),
		zap.Int("defense_roll", defenseRoll),
		zap.Int("damage", damage))
	if damage == 0 {
		e.emit(code, fmt.Sprintf("%s attacked %s but dealt no damage.", attacker, defender))
		return
	}
	e.emit(code, fmt.Sprintf("%s hit %s for %d damage.", attacker, defender, damage))
}

func (e *EventLog) EscapeAttempted(code, player string, success bool) {
	e.logger.Info("escape attempted",
		zap.String("code", code),
		zap.String("player", player),
		zap.Bool("success", success))
	if success {
		e.emit(code, fmt.Sprintf("%s escaped from combat.", player))
		return
	}
	e.emit(code, fmt.Sprintf("%s failed to escape.", player))
}

func (e *EventLog) ItemPickedUp(code, player string, kind item.Kind) {
	e.logger.Info("item picked up",
		zap.String("code", code),
		zap.String("player", player),
		zap.Stringer("item", kind))
	e.emit(code, fmt.Sprintf("%s picked up a %s.", player, kind))
}

func (e *EventLog) ItemDropped(code, player string, kind item.Kind) {
	e.logger.Info("item dropped",
		zap.String("code", code),
		zap.String("player", player),
		zap.Stringer("item", kind))
	e.emit(code, fmt.Sprintf("%s dropped a %s.", player, kind))
}

func (e *EventLog) BridgeToggled(code, player string, pos grid.Position, broken bool) {
	e.logger.Info("bridge toggled",
		zap.String("code", code),
		zap.String("player", player),
		zap.Stringer("pos", pos),
		zap.Bool("broken", broken))
	if broken {
		e.emit(code, fmt.Sprintf("%s broke the bridge at %s.", player, pos))
		return
	}
	e.emit(code, fmt.Sprintf("%s repaired the bridge at %s.", player, pos))
}

func (e *EventLog) PlayerLeft(code, player string) {
	e.logger.Info("player left", zap.String("code", code), zap.String("player", player))
	e.emit(code, fmt.Sprintf("%s left the match.", player))
}

func (e *EventLog) MatchEnded(code, winner string) {
	e.logger.Info("match ended", zap.String("code", code), zap.String("winner", winner))
	e.emit(code, fmt.Sprintf("%s wins the match!", winner))
	if stats, ok := e.tracker.Snapshot(code); ok {
		var turns, tiles, damage, kills int
		for _, p := range stats.Players {
			turns += p.Turns
			tiles += p.TilesMoved
			damage += p.DamageDealt
			kills += p.Kills
		}
		e.emit(code, fmt.Sprintf("Match totals: %d turns, %d tiles moved, %d damage dealt, %d kills.",
			turns, tiles, damage, kills))
	}
}
