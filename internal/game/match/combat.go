package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// Combatant is the ephemeral derived view of one combat participant,
// computed once at combat start and discarded at combat end. During the
// combat it is the authoritative health record; the surviving player's
// health is written back when the combat resolves.
type Combatant struct {
	PlayerID     string
	Name         string
	Health       int
	MaxHealth    int
	Attack       int
	Defense      int
	AttackDie    int
	DefenseDie   int
	EscapesLeft  int
	EscapeChance float64
	// Tile is the position the player stood on when combat began.
	Tile  grid.Position
	IsBot bool
	// holdsPotion enables the passive heal at each CombatWait entry.
	holdsPotion bool
}

func (c *Combatant) view() CombatantView {
	return CombatantView{
		PlayerID:     c.PlayerID,
		Name:         c.Name,
		Health:       c.Health,
		MaxHealth:    c.MaxHealth,
		Attack:       c.Attack,
		Defense:      c.Defense,
		AttackDie:    c.AttackDie,
		DefenseDie:   c.DefenseDie,
		EscapesLeft:  c.EscapesLeft,
		EscapeChance: c.EscapeChance,
	}
}

// Combat is the running sub-state of one two-player fight.
type Combat struct {
	// Attacker initiated the combat; Defender was targeted. Initiation
	// does not imply acting first.
	Attacker *Combatant
	Defender *Combatant
	// actingAttacker is true while the attacker side holds the combat
	// turn.
	actingAttacker bool
	// TurnHolderID identifies the player who held the orchestrator turn
	// when combat began; if they lose, the turn passes on.
	TurnHolderID string
	// LastAttack carries the most recent rolls for the client-side
	// animation.
	LastAttack *AttackResult

	// Pending outcome applied when the animation timer fires.
	pendingDeath  bool
	pendingEscape bool
}

func (c *Combat) acting() *Combatant {
	if c.actingAttacker {
		return c.Attacker
	}
	return c.Defender
}

func (c *Combat) other() *Combatant {
	if c.actingAttacker {
		return c.Defender
	}
	return c.Attacker
}

func (c *Combat) combatant(playerID string) *Combatant {
	if c.Attacker.PlayerID == playerID {
		return c.Attacker
	}
	if c.Defender.PlayerID == playerID {
		return c.Defender
	}
	return nil
}

// newCombatantLocked derives the combat stats of p: base stats, the
// swamp attack penalty, per-held-item bonuses, and the amulet-in-swamp
// defense combo.
func (s *Session) newCombatantLocked(p *Player) *Combatant {
	c := &Combatant{
		PlayerID:     p.ID,
		Name:         p.Name,
		Health:       p.Health,
		MaxHealth:    p.MaxHealth,
		Attack:       p.Attack,
		Defense:      p.Defense,
		AttackDie:    p.AttackDie,
		DefenseDie:   p.DefenseDie,
		EscapesLeft:  baseEscapes,
		EscapeChance: baseEscapeChance,
		Tile:         p.Pos,
		IsBot:        p.Kind.IsBot(),
		holdsPotion:  p.Holds(item.KindPotion),
	}
	inSwamp := s.tiles[p.Pos.Y][p.Pos.X] == grid.TerrainSwamp
	if inSwamp {
		c.Attack--
	}
	for _, k := range p.Items {
		c.Attack += k.AttackBonus()
		c.Defense += k.DefenseBonus()
		c.EscapesLeft += k.EscapeBonus()
		if k == item.KindAmulet && inSwamp {
			c.Defense++
		}
	}
	return c
}

// startCombatLocked snapshots both fighters and opens the first
// CombatWait. The slower player acts second; on equal speed the
// initiator acts first. The orchestrator's turn clock is suspended for
// the duration of the combat.
func (s *Session) startCombatLocked(attacker, defender *Player) {
	s.mainTimer.Stop()
	s.combatStarted = time.Now()

	c := &Combat{
		Attacker:       s.newCombatantLocked(attacker),
		Defender:       s.newCombatantLocked(defender),
		actingAttacker: attacker.Speed >= defender.Speed,
	}
	if holder := s.activePlayerLocked(); holder != nil {
		c.TurnHolderID = holder.ID
	}
	s.combat = c
	s.deps.Logger.Debug("combat started",
		zap.String("code", s.code),
		zap.String("attacker", attacker.Name),
		zap.String("defender", defender.Name))
	s.enterCombatWaitLocked()
}

// enterCombatWaitLocked opens the input window for the acting
// combatant. Held potions passively heal each combatant below half
// health before anyone acts; bots and disconnected humans are scheduled
// to act automatically.
func (s *Session) enterCombatWaitLocked() {
	c := s.combat
	if c == nil {
		return
	}
	s.state = StateCombatWait
	for _, side := range []*Combatant{c.Attacker, c.Defender} {
		if side.holdsPotion && side.Health*2 < side.MaxHealth {
			side.Health += item.PotionHealAmount
			if side.Health > side.MaxHealth {
				side.Health = side.MaxHealth
			}
		}
	}
	s.broadcastLocked()

	acting := c.acting()
	if acting.IsBot {
		s.afterBot(s.deps.Timings.BotThink, func() {
			s.deps.Bots.CombatAct(s)
		})
		return
	}
	if p := s.playerLocked(acting.PlayerID); p != nil && !p.Connected {
		// A disconnected combatant cannot stall the fight; they swing
		// on a timer.
		s.afterMain(s.combatPhaseLocked(), StateCombatWait, func() {
			s.resolveAttackLocked()
		})
	}
}

// combatPhaseLocked returns the animation pause for this combat:
// drastically shorter when no human is watching.
func (s *Session) combatPhaseLocked() time.Duration {
	c := s.combat
	if c != nil && c.Attacker.IsBot && c.Defender.IsBot {
		return s.deps.Timings.BotCombatPhase
	}
	return s.deps.Timings.CombatPhase
}

// Attack resolves an attack intent from the acting combatant.
func (s *Session) Attack(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCombatWait || s.combat == nil || s.combat.acting().PlayerID != playerID {
		return
	}
	s.resolveAttackLocked()
}

// resolveAttackLocked rolls both dice, applies damage, and enters the
// animation phase. In debug mode both dice land on their maximum face.
func (s *Session) resolveAttackLocked() {
	c := s.combat
	atk, def := c.acting(), c.other()

	var attackRoll, defenseRoll int
	if s.turn.DebugMode {
		attackRoll, defenseRoll = atk.AttackDie, def.DefenseDie
	} else {
		attackRoll = s.deps.Roller.Die(atk.AttackDie)
		defenseRoll = s.deps.Roller.Die(def.DefenseDie)
	}
	damage := attackRoll + atk.Attack - defenseRoll - def.Defense
	if damage < 0 {
		damage = 0
	}
	def.Health -= damage
	if def.Health < 0 {
		def.Health = 0
	}

	c.LastAttack = &AttackResult{
		AttackerID:  atk.PlayerID,
		AttackRoll:  attackRoll,
		DefenseRoll: defenseRoll,
		Damage:      damage,
	}
	c.pendingDeath = def.Health == 0
	c.pendingEscape = false
	s.deps.Events.AttackResolved(s.code, atk.Name, def.Name, attackRoll, defenseRoll, damage)
	if damage > 0 {
		s.deps.Tracker.DamageDealt(s.code, atk.PlayerID, damage)
	}
	s.enterCombatAnimationLocked()
}

// Escape resolves an escape intent from the acting combatant. Consumes
// one escape attempt; in debug mode escapes always fail.
func (s *Session) Escape(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.combat
	if s.state != StateCombatWait || c == nil || c.acting().PlayerID != playerID {
		return
	}
	acting := c.acting()
	if acting.EscapesLeft <= 0 {
		return
	}
	acting.EscapesLeft--
	success := !s.turn.DebugMode && s.deps.Roller.Chance(acting.EscapeChance)
	c.LastAttack = nil
	c.pendingDeath = false
	c.pendingEscape = success
	s.deps.Events.EscapeAttempted(s.code, acting.Name, success)
	if success {
		s.deps.Tracker.EscapeSucceeded(s.code, acting.PlayerID)
	}
	s.enterCombatAnimationLocked()
}

// enterCombatAnimationLocked pauses for the animation, then applies the
// pending outcome: death bookkeeping, a successful escape, or passing
// the combat turn to the other side.
func (s *Session) enterCombatAnimationLocked() {
	s.state = StateCombatAnimation
	s.broadcastLocked()
	s.afterMain(s.combatPhaseLocked(), StateCombatAnimation, func() {
		c := s.combat
		if c == nil {
			return
		}
		switch {
		case c.pendingDeath:
			s.finishCombatLocked(c.acting().PlayerID, c.other().PlayerID)
		case c.pendingEscape:
			s.endCombatWithoutDeathLocked()
		default:
			c.actingAttacker = !c.actingAttacker
			s.enterCombatWaitLocked()
		}
	})
}

// endCombatWithoutDeathLocked closes a combat after a successful
// escape: both fighters keep their (possibly potion-healed) health and
// the interrupted turn resumes.
func (s *Session) endCombatWithoutDeathLocked() {
	c := s.combat
	for _, side := range []*Combatant{c.Attacker, c.Defender} {
		if p := s.playerLocked(side.PlayerID); p != nil {
			p.Health = side.Health
		}
	}
	s.combat = nil
	s.resumeTurnClockLocked()
	s.enterTurnWaitLocked()
}

// finishCombatLocked applies the death bookkeeping: the loser's items
// scatter near where they fell, the loser respawns at full health on
// the nearest unoccupied tile to their spawn, the winner's victory
// counter increments, and the interrupted turn resumes unless the loser
// held it.
func (s *Session) finishCombatLocked(winnerID, loserID string) {
	c := s.combat
	winner := s.playerLocked(winnerID)
	loser := s.playerLocked(loserID)
	if c == nil || winner == nil || loser == nil {
		return
	}
	if snap := c.combatant(winnerID); snap != nil {
		winner.Health = snap.Health
	}

	for len(loser.Items) > 0 {
		kind := loser.Items[0]
		loser.RemoveItem(kind)
		snap := s.snapshotLocked(loser.ID)
		pos := snap.NearestItemDropTile(loser.Pos)
		s.items[kind] = append(s.items[kind], pos)
		s.deps.Events.ItemDropped(s.code, loser.Name, kind)
	}

	snap := s.snapshotLocked(loser.ID)
	loser.Pos = snap.NearestEmptyTile(loser.Spawn)
	loser.Health = loser.MaxHealth
	winner.Wins++
	s.deps.Tracker.Kill(s.code, winner.ID)
	s.deps.Logger.Debug("combat resolved",
		zap.String("code", s.code),
		zap.String("winner", winner.Name),
		zap.String("loser", loser.Name))

	turnHolderLost := c.TurnHolderID == loserID
	s.combat = nil
	s.resumeTurnClockLocked()
	if s.winCheckLocked() {
		return
	}
	if turnHolderLost {
		s.beginTurnLocked()
		return
	}
	s.enterTurnWaitLocked()
}

// resumeTurnClockLocked extends the turn deadline by the time the
// combat consumed, so fighting does not burn the turn budget.
func (s *Session) resumeTurnClockLocked() {
	if !s.turnDeadline.IsZero() && !s.combatStarted.IsZero() {
		s.turnDeadline = s.turnDeadline.Add(time.Since(s.combatStarted))
	}
	s.combatStarted = time.Time{}
}
