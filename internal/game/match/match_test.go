package match

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/dice"
	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

func testDef(spawns ...grid.Position) *gamemap.MapDefinition {
	const size = 10
	tiles := make([][]grid.Terrain, size)
	for y := range tiles {
		tiles[y] = make([]grid.Terrain, size)
		for x := range tiles[y] {
			tiles[y][x] = grid.TerrainGrass
		}
	}
	for _, sp := range spawns {
		tiles[sp.Y][sp.X] = grid.TerrainSpawn
	}
	return &gamemap.MapDefinition{
		ID:        "test-map",
		Name:      "Test Map",
		Size:      size,
		Tiles:     tiles,
		Spawns:    spawns,
		Items:     map[item.Kind][]grid.Position{},
		Published: true,
	}
}

func testDeps() Deps {
	logger := zap.NewNop()
	return Deps{
		Roller:      dice.NewLoggedRoller(dice.NewSeededSource(7), logger),
		Logger:      logger,
		Broadcaster: NopBroadcaster{},
		Events:      NopEventLog{},
		Tracker:     NopTracker{},
		Bots:        NopBotDriver{},
		Timings:     TestTimings(),
	}
}

// newStartedPair builds a two-player session on the given spawns, pins
// both players' speed, and starts the match.
func newStartedPair(t *testing.T, mode Mode, spawns ...grid.Position) (*Session, *Player, *Player) {
	t.Helper()
	s, host := NewSession("TEST", testDef(spawns...), mode, "alice", testDeps())
	guest, err := s.Join("bob")
	require.NoError(t, err)
	s.mu.Lock()
	host.Speed = 4
	guest.Speed = 3
	s.mu.Unlock()
	s.Start(host.ID)
	t.Cleanup(s.Close)
	waitState(t, s, StateTurnWait)
	require.Equal(t, host.ID, s.View().Turn.ActivePlayerID)
	return s, host, guest
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.View().State == want.String()
	}, waitFor, tick, "expected state %s, got %s", want, s.View().State)
}

func TestLobbyAdmission(t *testing.T) {
	s, host := NewSession("TEST", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9}), ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)

	_, err := s.Join("bob")
	require.NoError(t, err)

	// Two spawns, two seats taken.
	_, err = s.Join("carol")
	assert.ErrorIs(t, err, ErrMatchFull)

	s.Kick(host.ID, s.View().Players[1].ID)
	s.SetLocked(host.ID, true)
	_, err = s.Join("dave")
	assert.ErrorIs(t, err, ErrMatchLocked)

	s.SetLocked(host.ID, false)
	_, err = s.Join("dave")
	require.NoError(t, err)

	s.Start(host.ID)
	waitState(t, s, StateTurnWait)
	_, err = s.Join("erin")
	assert.ErrorIs(t, err, ErrMatchStarted)
}

func TestLobbyHostReassignmentOnLeave(t *testing.T) {
	s, host := NewSession("TEST", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9}), ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)
	guest, err := s.Join("bob")
	require.NoError(t, err)

	s.Leave(host.ID)
	v := s.View()
	require.Len(t, v.Players, 1)
	assert.Equal(t, guest.ID, v.HostID, "remaining player becomes host")
}

type recordingBroadcaster struct {
	NopBroadcaster
	mu      sync.Mutex
	removed map[string]string
}

func (r *recordingBroadcaster) EmitRemovedFromMatch(playerID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed == nil {
		r.removed = map[string]string{}
	}
	r.removed[playerID] = reason
}

func TestKickNotifiesRemovedPlayer(t *testing.T) {
	deps := testDeps()
	rec := &recordingBroadcaster{}
	deps.Broadcaster = rec
	s, host := NewSession("TEST", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9}), ModeElimination, "alice", deps)
	t.Cleanup(s.Close)
	guest, err := s.Join("bob")
	require.NoError(t, err)

	s.Kick(guest.ID, host.ID)
	require.Len(t, s.View().Players, 2, "non-host cannot kick")

	s.Kick(host.ID, guest.ID)
	require.Len(t, s.View().Players, 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "kicked by host", rec.removed[guest.ID])
}

func TestChangeAvatarInLobbyOnly(t *testing.T) {
	s, host := NewSession("TEST", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9}), ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)
	_, err := s.Join("bob")
	require.NoError(t, err)

	s.ChangeAvatar(host.ID, 5)
	v, ok := s.View().Player(host.ID)
	require.True(t, ok)
	assert.Equal(t, 5, v.Avatar)

	s.ChangeAvatar(host.ID, AvatarCount)
	v, _ = s.View().Player(host.ID)
	assert.Equal(t, 5, v.Avatar, "out-of-range avatar dropped")

	s.Start(host.ID)
	waitState(t, s, StateTurnWait)
	s.ChangeAvatar(host.ID, 2)
	v, _ = s.View().Player(host.ID)
	assert.Equal(t, 5, v.Avatar, "avatar frozen once started")
}

func TestStartAssignsSpawnsAndOpensFirstTurn(t *testing.T) {
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	v := s.View()
	hv, _ := v.Player(host.ID)
	gv, _ := v.Player(guest.ID)
	assert.Equal(t, grid.Position{X: 0, Y: 0}, hv.Pos)
	assert.Equal(t, grid.Position{X: 9, Y: 9}, gv.Pos)
	assert.Equal(t, host.ID, v.Turn.ActivePlayerID)
	assert.Equal(t, 4, v.Turn.MovementBudget)
	assert.True(t, v.Turn.ActionAvailable)
}

func TestMoveDeductsBudgetAndReturnsToTurnWait(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	s.Move(host.ID, grid.Position{X: 0, Y: 2})
	require.Eventually(t, func() bool {
		v := s.View()
		hv, _ := v.Player(host.ID)
		return v.State == StateTurnWait.String() && hv.Pos == grid.Position{X: 0, Y: 2}
	}, waitFor, tick)
	assert.Equal(t, 2, s.View().Turn.MovementBudget)
}

func TestMoveRejectsOverBudgetTarget(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	s.Move(host.ID, grid.Position{X: 5, Y: 5})
	v := s.View()
	hv, _ := v.Player(host.ID)
	assert.Equal(t, grid.Position{X: 0, Y: 0}, hv.Pos)
	assert.Equal(t, 4, v.Turn.MovementBudget)
	assert.Equal(t, StateTurnWait.String(), v.State)
}

func TestMoveIgnoredFromInactivePlayer(t *testing.T) {
	s, _, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	s.Move(guest.ID, grid.Position{X: 9, Y: 7})
	gv, _ := s.View().Player(guest.ID)
	assert.Equal(t, grid.Position{X: 9, Y: 9}, gv.Pos)
}

func TestEndTurnAdvancesRoundRobin(t *testing.T) {
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	s.EndTurn(host.ID)
	require.Eventually(t, func() bool {
		return s.View().Turn.ActivePlayerID == guest.ID
	}, waitFor, tick)

	s.EndTurn(guest.ID)
	require.Eventually(t, func() bool {
		return s.View().Turn.ActivePlayerID == host.ID
	}, waitFor, tick)
}

func TestTurnClockExpiryAdvancesTurn(t *testing.T) {
	s, _, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	// No intents at all; the turn clock runs out.
	require.Eventually(t, func() bool {
		return s.View().Turn.ActivePlayerID == guest.ID
	}, waitFor, tick)
}

func TestLeaveMidMatchAdvancesAndDisconnects(t *testing.T) {
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	remaining := s.Leave(host.ID)
	assert.Equal(t, 1, remaining)
	require.Eventually(t, func() bool {
		return s.View().Turn.ActivePlayerID == guest.ID
	}, waitFor, tick)
	hv, ok := s.View().Player(host.ID)
	require.True(t, ok, "mid-match leavers stay seated")
	assert.False(t, hv.Connected)
}

// startAdjacentCombat starts a match on adjacent spawns with pinned
// combat stats and the given dice, then has the host attack the guest.
func startAdjacentCombat(t *testing.T, src dice.Source) (*Session, *Player, *Player) {
	t.Helper()
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1})
	s.mu.Lock()
	host.Attack = 4
	host.Health, host.MaxHealth = 6, 6
	guest.Defense = 2
	guest.Health, guest.MaxHealth = 6, 6
	s.deps.Roller = dice.NewLoggedRoller(src, zap.NewNop())
	s.mu.Unlock()

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateCombatWait)
	return s, host, guest
}

func TestCombatDamageFormula(t *testing.T) {
	// Attack roll 3, defense roll 1: damage = 3 + 4 - 1 - 2 = 4.
	s, host, _ := startAdjacentCombat(t, dice.NewFixedSource([]int{2, 0}, nil))

	v := s.View()
	require.NotNil(t, v.Combat)
	require.Equal(t, host.ID, v.Combat.ActingPlayerID, "faster player acts first")

	s.Attack(host.ID)
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateCombatWait.String() &&
			v.Combat != nil && v.Combat.Defender.Health == 2
	}, waitFor, tick)

	v = s.View()
	require.NotNil(t, v.Combat.LastAttack)
	assert.Equal(t, 3, v.Combat.LastAttack.AttackRoll)
	assert.Equal(t, 1, v.Combat.LastAttack.DefenseRoll)
	assert.Equal(t, 4, v.Combat.LastAttack.Damage)
	assert.NotEqual(t, host.ID, v.Combat.ActingPlayerID, "combat turn passes after a non-lethal attack")
}

func TestCombatDamageFlooredAtZero(t *testing.T) {
	// Attack roll 1 vs defense roll 6: 1 + 4 - 6 - 2 < 0 -> no damage.
	s, host, _ := startAdjacentCombat(t, dice.NewFixedSource([]int{0, 5}, nil))

	s.Attack(host.ID)
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateCombatWait.String() && v.Combat != nil &&
			v.Combat.LastAttack != nil
	}, waitFor, tick)
	v := s.View()
	assert.Equal(t, 0, v.Combat.LastAttack.Damage)
	assert.Equal(t, 6, v.Combat.Defender.Health)
}

func TestCombatKillRespawnsLoserAndCountsWin(t *testing.T) {
	s, host, guest := startAdjacentCombat(t, dice.NewFixedSource([]int{5, 0}, nil))
	s.mu.Lock()
	s.combat.Defender.Health = 1
	s.mu.Unlock()

	s.Attack(host.ID)
	waitState(t, s, StateTurnWait)

	v := s.View()
	hv, _ := v.Player(host.ID)
	gv, _ := v.Player(guest.ID)
	assert.Equal(t, 1, hv.Wins)
	assert.Equal(t, gv.MaxHealth, gv.Health, "loser respawns at full health")
	assert.Equal(t, gv.Spawn, gv.Pos, "loser respawns at their unoccupied spawn")
	assert.Equal(t, host.ID, v.Turn.ActivePlayerID, "winner keeps the turn they held")
	assert.Nil(t, v.Combat)
}

func TestCombatKillScattersLoserItems(t *testing.T) {
	s, host, guest := startAdjacentCombat(t, dice.NewFixedSource([]int{5, 0}, nil))
	s.mu.Lock()
	s.combat.Defender.Health = 1
	guest.Items = []item.Kind{item.KindSword, item.KindShield}
	s.mu.Unlock()

	s.Attack(host.ID)
	waitState(t, s, StateTurnWait)

	gv, _ := s.View().Player(guest.ID)
	assert.Empty(t, gv.Items)
	assert.Len(t, s.ItemPositions(item.KindSword), 1)
	assert.Len(t, s.ItemPositions(item.KindShield), 1)
}

func TestLoserHoldingTurnPassesIt(t *testing.T) {
	// Guest acts first and kills the turn-holding host.
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1})
	s.mu.Lock()
	host.Health, host.MaxHealth = 1, 6
	guest.Speed = 9 // slower host acts second
	guest.Attack = 5
	s.deps.Roller = dice.NewLoggedRoller(dice.NewFixedSource([]int{5, 0}, nil), zap.NewNop())
	s.mu.Unlock()

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateCombatWait)
	require.Equal(t, guest.ID, s.View().Combat.ActingPlayerID)

	s.Attack(guest.ID)
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateTurnWait.String() && v.Turn.ActivePlayerID == guest.ID
	}, waitFor, tick, "turn passes on when the holder dies")
}

func TestEscapeSuccessEndsCombatWithoutDeath(t *testing.T) {
	// Draw 0.1 < 0.25 escape chance: success.
	s, host, guest := startAdjacentCombat(t, dice.NewFixedSource(nil, []float64{0.1}))

	s.Escape(host.ID)
	waitState(t, s, StateTurnWait)
	v := s.View()
	assert.Nil(t, v.Combat)
	hv, _ := v.Player(host.ID)
	gv, _ := v.Player(guest.ID)
	assert.Equal(t, 6, hv.Health)
	assert.Equal(t, 6, gv.Health)
	assert.Equal(t, 0, hv.Wins+gv.Wins)
}

func TestEscapeFailurePassesCombatTurn(t *testing.T) {
	// Draw 0.9 >= 0.25: failure, attempt consumed.
	s, host, _ := startAdjacentCombat(t, dice.NewFixedSource(nil, []float64{0.9}))

	s.Escape(host.ID)
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateCombatWait.String() && v.Combat != nil &&
			v.Combat.ActingPlayerID != host.ID
	}, waitFor, tick)
	assert.Equal(t, baseEscapes-1, s.View().Combat.Attacker.EscapesLeft)
}

func TestEscapeWithNoAttemptsLeftIgnored(t *testing.T) {
	s, host, _ := startAdjacentCombat(t, dice.NewFixedSource(nil, []float64{0.1}))
	s.mu.Lock()
	s.combat.Attacker.EscapesLeft = 0
	s.mu.Unlock()

	s.Escape(host.ID)
	assert.Equal(t, StateCombatWait.String(), s.View().State)
	assert.Equal(t, host.ID, s.View().Combat.ActingPlayerID)
}

func TestPotionHealsEachWoundedCombatant(t *testing.T) {
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1})
	s.mu.Lock()
	host.Items = []item.Kind{item.KindPotion}
	host.Health, host.MaxHealth = 2, 6
	guest.Items = []item.Kind{item.KindPotion}
	guest.Health, guest.MaxHealth = 5, 6
	s.mu.Unlock()

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateCombatWait)

	v := s.View()
	assert.Equal(t, 2+item.PotionHealAmount, v.Combat.Attacker.Health,
		"below half health heals on combat-wait entry")
	assert.Equal(t, 5, v.Combat.Defender.Health,
		"at or above half health does not heal")
}

func TestCombatItemAndTerrainModifiers(t *testing.T) {
	def := testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1})
	def.Tiles[1][0] = grid.TerrainSwamp

	s, host := NewSession("TEST", def, ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)
	guest, err := s.Join("bob")
	require.NoError(t, err)
	s.mu.Lock()
	host.Speed, guest.Speed = 4, 3
	host.Attack, host.Defense = 1, 0
	guest.Attack, guest.Defense = 1, 0
	host.Items = []item.Kind{item.KindSword, item.KindShield}
	guest.Items = []item.Kind{item.KindAmulet}
	s.mu.Unlock()
	s.Start(host.ID)
	waitState(t, s, StateTurnWait)

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateCombatWait)

	v := s.View()
	assert.Equal(t, 2, v.Combat.Attacker.Attack, "sword adds attack")
	assert.Equal(t, 1, v.Combat.Attacker.Defense, "shield adds defense")
	assert.Equal(t, 0, v.Combat.Defender.Attack, "swamp penalizes attack")
	assert.Equal(t, 1, v.Combat.Defender.Defense, "amulet in swamp adds defense")
	assert.Equal(t, baseEscapes+1, v.Combat.Defender.EscapesLeft, "amulet adds an escape attempt")
}

func TestItemPickupTruncatesAndOverflowOpensDropWindow(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	s.mu.Lock()
	s.items[item.KindSword] = []grid.Position{{X: 0, Y: 2}}
	host.Items = []item.Kind{item.KindShield, item.KindAmulet, item.KindPotion}
	s.mu.Unlock()

	// Target beyond the item; movement stops on the loot tile.
	s.Move(host.ID, grid.Position{X: 0, Y: 3})
	waitState(t, s, StateItemWait)

	v := s.View()
	hv, _ := v.Player(host.ID)
	assert.Equal(t, grid.Position{X: 0, Y: 2}, hv.Pos)
	assert.Len(t, hv.Items, item.MaxHeld+1)
	assert.Empty(t, s.ItemPositions(item.KindSword))

	s.DropItem(host.ID, item.KindShield)
	waitState(t, s, StateTurnWait)
	hv, _ = s.View().Player(host.ID)
	assert.Len(t, hv.Items, item.MaxHeld)
	assert.NotContains(t, hv.Items, item.KindShield.String())
	assert.Len(t, s.ItemPositions(item.KindShield), 1)
}

func TestItemWaitTimeoutForcesLowestPriorityDrop(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	s.mu.Lock()
	s.items[item.KindSword] = []grid.Position{{X: 0, Y: 1}}
	host.Items = []item.Kind{item.KindShield, item.KindAmulet, item.KindPotion}
	s.mu.Unlock()

	s.Move(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateItemWait)
	// No drop intent; the window times out.
	waitState(t, s, StateTurnWait)

	hv, _ := s.View().Player(host.ID)
	assert.Len(t, hv.Items, item.MaxHeld)
	assert.NotContains(t, hv.Items, item.KindPotion.String(),
		"potion is surrendered first under the default drop order")
}

func TestSpentBudgetStillAllowsFreeSpawnStep(t *testing.T) {
	def := testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	def.Tiles[0][5] = grid.TerrainSpawn
	s, host := NewSession("TEST", def, ModeElimination, "alice", testDeps())
	guest, err := s.Join("bob")
	require.NoError(t, err)
	s.mu.Lock()
	host.Speed = 4
	guest.Speed = 3
	s.mu.Unlock()
	s.Start(host.ID)
	t.Cleanup(s.Close)
	waitState(t, s, StateTurnWait)

	// Spend the full budget stopping next to the zero-cost spawn tile.
	s.Move(host.ID, grid.Position{X: 4, Y: 0})
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateTurnWait.String() && v.Turn.MovementBudget == 0
	}, waitFor, tick)
	require.Equal(t, host.ID, s.View().Turn.ActivePlayerID,
		"turn stays open while a free spawn step remains")

	s.Move(host.ID, grid.Position{X: 5, Y: 0})
	require.Eventually(t, func() bool {
		hv, _ := s.View().Player(host.ID)
		return hv.Pos == (grid.Position{X: 5, Y: 0})
	}, waitFor, tick)
}

func TestLeaveDuringDropWindowSettlesOverflow(t *testing.T) {
	s, host, guest := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	s.mu.Lock()
	s.items[item.KindSword] = []grid.Position{{X: 0, Y: 1}}
	host.Items = []item.Kind{item.KindShield, item.KindAmulet, item.KindPotion}
	s.mu.Unlock()

	s.Move(host.ID, grid.Position{X: 0, Y: 1})
	waitState(t, s, StateItemWait)

	// The turn holder disconnects without answering the drop prompt.
	s.Leave(host.ID)
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateTurnWait.String() && v.Turn.ActivePlayerID == guest.ID
	}, waitFor, tick)

	hv, _ := s.View().Player(host.ID)
	assert.Len(t, hv.Items, item.MaxHeld, "overflow settled before the turn advanced")
	assert.NotContains(t, hv.Items, item.KindPotion.String(),
		"potion is surrendered first under the default drop order")
	assert.Len(t, s.ItemPositions(item.KindPotion), 1, "forced drop lands back on the grid")
}

func TestBridgeToggleConsumesAction(t *testing.T) {
	def := testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	def.Tiles[0][1] = grid.TerrainBridge

	s, host := NewSession("TEST", def, ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)
	_, err := s.Join("bob")
	require.NoError(t, err)
	s.Start(host.ID)
	waitState(t, s, StateTurnWait)

	s.Action(host.ID, grid.Position{X: 1, Y: 0})
	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateTurnWait.String() && !v.Turn.ActionAvailable
	}, waitFor, tick)
	assert.Equal(t, grid.TerrainBrokenBridge, s.View().Tiles[0][1])

	// Second toggle attempt is dropped: the action is spent.
	s.Action(host.ID, grid.Position{X: 1, Y: 0})
	assert.Equal(t, grid.TerrainBrokenBridge, s.View().Tiles[0][1])
}

func TestDebugMoveBypassesBudget(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeElimination,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})

	s.DebugMove(host.ID, grid.Position{X: 5, Y: 5})
	hv, _ := s.View().Player(host.ID)
	assert.Equal(t, grid.Position{X: 0, Y: 0}, hv.Pos, "debug move requires debug mode")

	s.SetDebug(host.ID, true)
	s.DebugMove(host.ID, grid.Position{X: 5, Y: 5})
	v := s.View()
	hv, _ = v.Player(host.ID)
	assert.Equal(t, grid.Position{X: 5, Y: 5}, hv.Pos)
	assert.Equal(t, 4, v.Turn.MovementBudget, "budget untouched")
}

func TestEliminationWinEndsMatch(t *testing.T) {
	done := make(chan string, 1)
	s, host, guest := startAdjacentCombat(t, dice.NewFixedSource([]int{5, 0}, nil))
	s.mu.Lock()
	host.Wins = KillsToWin - 1
	s.combat.Defender.Health = 1
	s.deps.OnTerminal = func(code string) { done <- code }
	s.mu.Unlock()

	s.Attack(host.ID)
	waitState(t, s, StateMatchEnd)
	assert.Equal(t, host.ID, s.View().WinnerID)
	_ = guest

	waitState(t, s, StateStatistics)
	select {
	case code := <-done:
		assert.Equal(t, "TEST", code)
	case <-time.After(waitFor):
		t.Fatal("terminal callback never fired")
	}
}

func TestObjectiveWinOnFlagAtOwnSpawn(t *testing.T) {
	s, host, _ := newStartedPair(t, ModeObjective,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	s.mu.Lock()
	host.Items = []item.Kind{item.KindFlag}
	s.mu.Unlock()

	// Host already stands on their spawn; the next win check fires.
	s.EndTurn(host.ID)
	waitState(t, s, StateMatchEnd)
	assert.Equal(t, host.ID, s.View().WinnerID)
}

func TestTurnAutoEndsWithNothingToDo(t *testing.T) {
	def := testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 9, Y: 9})
	// Wall the host in; no moves, no actions.
	def.Tiles[0][1] = grid.TerrainWater
	def.Tiles[1][0] = grid.TerrainWater

	s, host := NewSession("TEST", def, ModeElimination, "alice", testDeps())
	t.Cleanup(s.Close)
	guest, err := s.Join("bob")
	require.NoError(t, err)
	s.Start(host.ID)

	require.Eventually(t, func() bool {
		v := s.View()
		return v.State == StateTurnWait.String() && v.Turn.ActivePlayerID == guest.ID
	}, waitFor, tick, "walled-in host's turn ends immediately")
}

func TestTimerSupersession(t *testing.T) {
	var tm Timer
	fired := make(chan int, 2)
	tm.Schedule(5*time.Millisecond, func() { fired <- 1 })
	tm.Schedule(5*time.Millisecond, func() { fired <- 2 })

	select {
	case v := <-fired:
		assert.Equal(t, 2, v, "superseded callback must not run")
	case <-time.After(waitFor):
		t.Fatal("timer never fired")
	}
	select {
	case <-fired:
		t.Fatal("cancelled callback ran")
	case <-time.After(20 * time.Millisecond):
	}

	tm.Schedule(5*time.Millisecond, func() { fired <- 3 })
	tm.Stop()
	select {
	case <-fired:
		t.Fatal("stopped callback ran")
	case <-time.After(20 * time.Millisecond):
	}
}
