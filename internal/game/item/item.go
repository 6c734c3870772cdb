// Package item defines the pick-uppable item kinds of the match engine
// and their combat effects.
package item

import "fmt"

// Kind identifies an item type.
type Kind int

const (
	// KindSword grants a flat attack bonus while held.
	KindSword Kind = iota
	// KindShield grants a flat defense bonus while held.
	KindShield
	// KindAmulet grants an extra escape attempt, and a defense bonus
	// while fighting in a swamp.
	KindAmulet
	// KindPotion passively restores health during combat while the
	// holder is below half health.
	KindPotion
	// KindFlag is the objective-mode capture item. Carrying it onto
	// the carrier's own spawn tile wins the match for their team.
	KindFlag
)

// MaxHeld is the inventory capacity. Picking up an item beyond this
// bound opens the item-drop window.
const MaxHeld = 3

// PotionHealAmount is the health restored per combat phase by a held
// potion when the holder is below half health.
const PotionHealAmount = 1

// AllKinds lists every item kind in declaration order.
var AllKinds = []Kind{KindSword, KindShield, KindAmulet, KindPotion, KindFlag}

// String returns the canonical lowercase item name.
func (k Kind) String() string {
	switch k {
	case KindSword:
		return "sword"
	case KindShield:
		return "shield"
	case KindAmulet:
		return "amulet"
	case KindPotion:
		return "potion"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// ParseKind converts a canonical item name into its Kind.
//
// Postcondition: Returns an error for any string String() never produces.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown item kind %q", s)
}

// AttackBonus returns the additive attack-stat bonus for holding k.
func (k Kind) AttackBonus() int {
	if k == KindSword {
		return 1
	}
	return 0
}

// DefenseBonus returns the additive defense-stat bonus for holding k.
func (k Kind) DefenseBonus() int {
	if k == KindShield {
		return 1
	}
	return 0
}

// EscapeBonus returns the additional escape attempts granted by k.
func (k Kind) EscapeBonus() int {
	if k == KindAmulet {
		return 1
	}
	return 0
}

// baseDropOrder is the default forced-drop priority: index 0 is
// surrendered first when the inventory overflows and the hold timer
// expires. The flag is always kept longest.
var baseDropOrder = []Kind{KindPotion, KindAmulet, KindShield, KindSword, KindFlag}

// DropPriority returns the forced-drop rank of k; lower ranks are
// dropped first.
func DropPriority(k Kind) int {
	for i, other := range baseDropOrder {
		if other == k {
			return i
		}
	}
	return len(baseDropOrder)
}

// LowestPriority returns the kind in held that is surrendered first
// under the default drop order.
//
// Precondition: held must be non-empty.
func LowestPriority(held []Kind) Kind {
	best := held[0]
	for _, k := range held[1:] {
		if DropPriority(k) < DropPriority(best) {
			best = k
		}
	}
	return best
}
