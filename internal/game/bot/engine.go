package bot

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// Engine drives every bot-controlled player. It is stateless across
// calls: each invocation re-reads the session view and decides from
// scratch, so a stale scheduled callback can never act on outdated
// positions.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a bot engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

var _ match.BotDriver = (*Engine)(nil)

// TakeTurn performs one decision step for the active bot: the first
// strategy on the personality's priority list that yields a target is
// executed. Moving re-enters the turn-wait state, which schedules the
// next TakeTurn, so a bot turn unfolds as a sequence of single steps.
func (e *Engine) TakeTurn(s *match.Session) {
	v := s.View()
	if v.State != match.StateTurnWait.String() {
		return
	}
	self, ok := v.Player(v.Turn.ActivePlayerID)
	if !ok || self.Kind == match.KindHuman.String() {
		return
	}
	ctx := &turnContext{
		view:   v,
		self:   self,
		snap:   v.GridSnapshot(self.ID),
		budget: v.Turn.MovementBudget,
		canAct: v.Turn.ActionAvailable,
	}

	for _, strat := range priorities(self.Kind, v.Mode) {
		st := strat(ctx)
		if st == nil {
			continue
		}
		switch {
		case st.actAt != nil:
			e.logger.Debug("bot action",
				zap.String("code", v.Code),
				zap.String("bot", self.Name),
				zap.Stringer("target", *st.actAt))
			s.Action(self.ID, *st.actAt)
		case st.moveTo != nil && *st.moveTo != self.Pos:
			e.logger.Debug("bot move",
				zap.String("code", v.Code),
				zap.String("bot", self.Name),
				zap.Stringer("target", *st.moveTo))
			s.Move(self.ID, *st.moveTo)
		default:
			s.EndTurn(self.ID)
		}
		return
	}
	// No strategy produced a target.
	s.EndTurn(self.ID)
}

// CombatAct chooses the acting bot combatant's input: defensively
// postured, wounded bots with escape attempts remaining run; everyone
// else swings.
func (e *Engine) CombatAct(s *match.Session) {
	v := s.View()
	if v.State != match.StateCombatWait.String() || v.Combat == nil {
		return
	}
	self, ok := v.Player(v.Combat.ActingPlayerID)
	if !ok || self.Kind == match.KindHuman.String() {
		return
	}
	me := v.Combat.Attacker
	if v.Combat.Defender.PlayerID == self.ID {
		me = v.Combat.Defender
	}

	wounded := me.Health*2 < me.MaxHealth
	if self.Kind == match.KindBotDefensive.String() && wounded && me.EscapesLeft > 0 {
		e.logger.Debug("bot escapes",
			zap.String("code", v.Code),
			zap.String("bot", self.Name),
			zap.Int("health", me.Health))
		s.Escape(self.ID)
		return
	}
	s.Attack(self.ID)
}

// ChooseDrop surrenders the lowest-priority excess item during the
// item-drop window.
func (e *Engine) ChooseDrop(s *match.Session) {
	v := s.View()
	if v.State != match.StateItemWait.String() {
		return
	}
	self, ok := v.Player(v.Turn.ActivePlayerID)
	if !ok || self.Kind == match.KindHuman.String() || len(self.Items) <= item.MaxHeld {
		return
	}
	kind, ok := chooseDrop(self.Items, dropOrder(self.Kind))
	if !ok {
		return
	}
	e.logger.Debug("bot drops item",
		zap.String("code", v.Code),
		zap.String("bot", self.Name),
		zap.Stringer("item", kind))
	s.DropItem(self.ID, kind)
}
