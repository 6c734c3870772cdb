// Package match implements the per-session match engine: the turn
// orchestrator state machine, the combat sub-engine, and the session
// aggregate they mutate. All state transitions are either direct
// consequences of a validated player intent or fire from one of the
// session's two cancellable timers.
package match

// State is the primary state of a match session. Exactly one state is
// active at a time, and only the sub-record associated with the active
// state is read or written during that phase.
type State int

const (
	// StateLobby is the pre-match phase: players join, pick avatars,
	// and the host configures and starts the match.
	StateLobby State = iota
	// StateTurnStart is the brief announcement phase at the top of
	// each turn.
	StateTurnStart
	// StateTurnWait accepts move, action, endTurn, and debugMove
	// intents from the active player.
	StateTurnWait
	// StateMovementAnimation is a timed pause while clients render
	// motion along the resolved path.
	StateMovementAnimation
	// StateCombatWait waits for the acting combatant's attack or
	// escape input.
	StateCombatWait
	// StateCombatAnimation is the timed resolution phase after a
	// combat input.
	StateCombatAnimation
	// StateItemWait gives the active player a bounded window to drop
	// an excess item.
	StateItemWait
	// StateMatchEnd announces the winner.
	StateMatchEnd
	// StateStatistics is terminal: downstream collaborators read the
	// final session data before the registry tears the session down.
	StateStatistics
)

// String returns the canonical state name.
func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateTurnStart:
		return "turnStart"
	case StateTurnWait:
		return "turnWait"
	case StateMovementAnimation:
		return "movementAnimation"
	case StateCombatWait:
		return "combatWait"
	case StateCombatAnimation:
		return "combatAnimation"
	case StateItemWait:
		return "itemWait"
	case StateMatchEnd:
		return "matchEnd"
	case StateStatistics:
		return "statistics"
	default:
		return "unknown"
	}
}

// Mode is the win-condition variant of a match.
type Mode int

const (
	// ModeElimination wins by reaching a fixed number of combat
	// victories.
	ModeElimination Mode = iota
	// ModeObjective wins by returning the flag to the carrier's own
	// spawn tile; players are split into two teams.
	ModeObjective
)

// String returns the canonical mode name.
func (m Mode) String() string {
	switch m {
	case ModeElimination:
		return "elimination"
	case ModeObjective:
		return "objective"
	default:
		return "unknown"
	}
}

// KillsToWin is the victory count that ends an elimination match.
const KillsToWin = 3

// PlayerKind distinguishes humans from the two bot personalities.
type PlayerKind int

const (
	// KindHuman is a player driven by a connected client.
	KindHuman PlayerKind = iota
	// KindBotAggressive is a bot that prioritizes combat.
	KindBotAggressive
	// KindBotDefensive is a bot that prioritizes items and
	// objectives, and escapes from losing fights.
	KindBotDefensive
)

// IsBot reports whether k is a server-driven player.
func (k PlayerKind) IsBot() bool {
	return k == KindBotAggressive || k == KindBotDefensive
}

// String returns the canonical kind name.
func (k PlayerKind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindBotAggressive:
		return "aggressiveBot"
	case KindBotDefensive:
		return "defensiveBot"
	default:
		return "unknown"
	}
}
