package match

import "time"

// Timings holds every delay the orchestrator schedules. All values are
// configurable so tests can run the full state machine in milliseconds.
type Timings struct {
	// TurnSeconds is the active player's time budget per turn.
	TurnSeconds time.Duration
	// TurnStartDelay is the pause in TurnStart before TurnWait opens.
	TurnStartDelay time.Duration
	// MovePerTile is the movement-animation pause per path tile.
	MovePerTile time.Duration
	// ItemWait is the window to voluntarily drop an excess item.
	ItemWait time.Duration
	// CombatPhase is the combat-animation pause when a human is
	// involved.
	CombatPhase time.Duration
	// BotCombatPhase replaces CombatPhase when both combatants are
	// bots; nobody is watching the animation.
	BotCombatPhase time.Duration
	// BotThink is the pause before a bot-controlled player acts.
	BotThink time.Duration
	// MatchEnd is the pause between MatchEnd and Statistics.
	MatchEnd time.Duration
}

// DefaultTimings returns the production delays.
func DefaultTimings() Timings {
	return Timings{
		TurnSeconds:    60 * time.Second,
		TurnStartDelay: 2 * time.Second,
		MovePerTile:    300 * time.Millisecond,
		ItemWait:       10 * time.Second,
		CombatPhase:    2 * time.Second,
		BotCombatPhase: 100 * time.Millisecond,
		BotThink:       800 * time.Millisecond,
		MatchEnd:       5 * time.Second,
	}
}

// TestTimings returns delays short enough to drive the full state
// machine inside a unit test.
func TestTimings() Timings {
	return Timings{
		TurnSeconds:    250 * time.Millisecond,
		TurnStartDelay: time.Millisecond,
		MovePerTile:    time.Millisecond,
		ItemWait:       20 * time.Millisecond,
		CombatPhase:    time.Millisecond,
		BotCombatPhase: time.Millisecond,
		BotThink:       time.Millisecond,
		MatchEnd:       5 * time.Millisecond,
	}
}
