package match

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/gridlock/internal/game/dice"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// AvatarCount is the number of selectable avatars.
const AvatarCount = 8

// Base combat statistics before per-creation rolls and item buffs.
const (
	baseHealth       = 6
	baseAttackDie    = 6
	baseDefenseDie   = 6
	baseEscapes      = 3
	baseEscapeChance = 0.25
)

// Player is one participant of a session, human or bot. Players are
// created on lobby join or bot injection and never deleted while the
// match is active; leaving mid-match only clears the Connected flag.
type Player struct {
	// ID is the unique player identifier.
	ID string
	// Name is the display name.
	Name string
	// Avatar is the selected avatar index in [0, AvatarCount).
	Avatar int
	// Kind distinguishes humans from bot personalities.
	Kind PlayerKind
	// Team is the objective-mode team (0 or 1); unused in elimination.
	Team int
	// Connected is false once a human has left mid-match. Bots are
	// always connected until kicked at teardown.
	Connected bool
	// Pos is the current grid position.
	Pos grid.Position
	// Spawn is the assigned spawn tile; respawn target and
	// objective-mode goal.
	Spawn grid.Position
	// Speed is the per-turn movement budget and the combat
	// initiative stat.
	Speed int
	// MaxHealth and Health are the hit-point bounds.
	MaxHealth int
	Health    int
	// Attack and Defense are the flat combat stats added to rolls.
	Attack  int
	Defense int
	// AttackDie and DefenseDie are the face counts of the combat dice.
	AttackDie  int
	DefenseDie int
	// Items is the held inventory, bounded by item.MaxHeld plus one
	// transient slot while an ItemWait window is open.
	Items []item.Kind
	// Wins counts combat victories for the elimination win condition.
	Wins int
}

// NewPlayer creates a player with stats rolled from roller.
//
// Precondition: roller must be non-nil.
// Postcondition: Speed in [3,5], MaxHealth in [6,8], Attack in [1,2],
// Defense in [0,1], Health == MaxHealth, Avatar in [0, AvatarCount).
func NewPlayer(name string, kind PlayerKind, roller *dice.Roller) *Player {
	maxHealth := baseHealth + roller.Pick(3)
	return &Player{
		ID:         uuid.NewString(),
		Name:       name,
		Avatar:     roller.Pick(AvatarCount),
		Kind:       kind,
		Connected:  true,
		Speed:      3 + roller.Pick(3),
		MaxHealth:  maxHealth,
		Health:     maxHealth,
		Attack:     1 + roller.Pick(2),
		Defense:    roller.Pick(2),
		AttackDie:  baseAttackDie,
		DefenseDie: baseDefenseDie,
	}
}

// Holds reports whether the player carries an item of kind k.
func (p *Player) Holds(k item.Kind) bool {
	for _, held := range p.Items {
		if held == k {
			return true
		}
	}
	return false
}

// RemoveItem removes the first held item of kind k.
//
// Postcondition: Returns true and shrinks Items by one when k was held.
func (p *Player) RemoveItem(k item.Kind) bool {
	for i, held := range p.Items {
		if held == k {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Lobby is the pre-match sub-record.
type Lobby struct {
	// Locked prevents further joins.
	Locked bool
	// HostIndex is the index of the hosting player in the session's
	// player list.
	HostIndex int
}

// Turn is the per-turn sub-record, meaningful from TurnStart through
// ItemWait.
type Turn struct {
	// ActiveIndex is the index of the acting player.
	ActiveIndex int
	// TimeLeft is the remaining turn time in seconds, informational
	// for clients; expiry is enforced by the main timer.
	TimeLeft int
	// MovementBudget is the remaining movement allowance.
	MovementBudget int
	// ActionAvailable is true until the one per-turn action is spent.
	ActionAvailable bool
	// DebugMode bypasses movement-budget accounting and fixes all
	// dice at their maximum. Host-toggled.
	DebugMode bool
}
