package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/dice"
	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

const (
	waitFor = 10 * time.Second
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

func testDeps(src dice.Source) match.Deps {
	logger := zap.NewNop()
	return match.Deps{
		Roller:      dice.NewLoggedRoller(src, logger),
		Logger:      logger,
		Broadcaster: match.NopBroadcaster{},
		Events:      match.NopEventLog{},
		Tracker:     match.NopTracker{},
		Bots:        NewEngine(logger),
		Timings:     match.TestTimings(),
	}
}

func gridSnapshot(tiles [][]grid.Terrain, occupied, enemies, items []grid.Position) grid.Snapshot {
	snap := grid.Snapshot{
		Size:     len(tiles),
		Tiles:    tiles,
		Occupied: map[grid.Position]bool{},
		Enemies:  map[grid.Position]bool{},
		Items:    map[grid.Position]bool{},
	}
	for _, p := range occupied {
		snap.Occupied[p] = true
	}
	for _, p := range enemies {
		snap.Enemies[p] = true
		snap.Occupied[p] = true
	}
	for _, p := range items {
		snap.Items[p] = true
	}
	return snap
}

func TestClosestReachablePrefersCheaperTarget(t *testing.T) {
	def := testDef()
	// Two items: one 3 grass tiles away, one 2 tiles away through a
	// swamp costing the same 3 movement. The tile count decides.
	def.Tiles[0][1] = grid.TerrainSwamp

	snap := gridSnapshot(def.Tiles, nil, nil, []grid.Position{
		{X: 3, Y: 0}, // cost 3 over grass
		{X: 0, Y: 2}, // cost 2 over grass
	})
	path, ok := closestReachable(snap, grid.Position{X: 0, Y: 0}, []grid.Position{
		{X: 3, Y: 0}, {X: 0, Y: 2},
	})
	require.True(t, ok)
	assert.Equal(t, 2, path.Cost)
	assert.Equal(t, grid.Position{X: 0, Y: 2}, path.End(grid.Position{X: 0, Y: 0}))
}

func TestAffordableEndWalksPathBackward(t *testing.T) {
	def := testDef()
	snap := gridSnapshot(def.Tiles, nil, nil, nil)
	path, ok := snap.ShortestPath(grid.Position{X: 0, Y: 0}, grid.Position{X: 5, Y: 0})
	require.True(t, ok)
	require.Equal(t, 5, path.Cost)

	end, ok := affordableEnd(snap, path, 3)
	require.True(t, ok)
	assert.Equal(t, grid.Position{X: 3, Y: 0}, end)

	_, ok = affordableEnd(snap, path, 0)
	assert.False(t, ok, "no budget, no move")
}

func TestAttackAdjacentRequiresUnspentAction(t *testing.T) {
	def := testDef()
	snap := gridSnapshot(def.Tiles, nil, []grid.Position{{X: 1, Y: 0}}, nil)
	ctx := &turnContext{
		self:   match.PlayerView{Pos: grid.Position{X: 0, Y: 0}},
		snap:   snap,
		budget: 3,
		canAct: true,
	}
	st := attackAdjacent(ctx)
	require.NotNil(t, st)
	require.NotNil(t, st.actAt)
	assert.Equal(t, grid.Position{X: 1, Y: 0}, *st.actAt)

	ctx.canAct = false
	assert.Nil(t, attackAdjacent(ctx))
}

func TestNearestTargetTieBreaksInRowOrder(t *testing.T) {
	def := testDef()
	// Two items at identical cost from (2,2). The row-order scan must
	// pick (2,0) every time; map iteration order must not leak through.
	items := []grid.Position{{X: 0, Y: 2}, {X: 2, Y: 0}}
	for i := 0; i < 25; i++ {
		snap := gridSnapshot(def.Tiles, nil, nil, items)
		ctx := &turnContext{
			self:   match.PlayerView{Pos: grid.Position{X: 2, Y: 2}},
			snap:   snap,
			budget: 2,
		}
		st := fetchNearestItem(ctx)
		require.NotNil(t, st)
		require.NotNil(t, st.moveTo)
		require.Equal(t, grid.Position{X: 2, Y: 0}, *st.moveTo)
	}

	// Same property for enemy chasing: equidistant enemies resolve to
	// the one scanned first.
	for i := 0; i < 25; i++ {
		snap := gridSnapshot(def.Tiles, nil, []grid.Position{{X: 0, Y: 2}, {X: 2, Y: 0}}, nil)
		ctx := &turnContext{
			self:   match.PlayerView{Pos: grid.Position{X: 2, Y: 2}},
			snap:   snap,
			budget: 1,
		}
		st := chaseNearestEnemy(ctx)
		require.NotNil(t, st)
		require.NotNil(t, st.moveTo)
		require.Equal(t, grid.Position{X: 2, Y: 1}, *st.moveTo)
	}
}

func TestChooseDropByPersonality(t *testing.T) {
	held := []string{
		item.KindSword.String(),
		item.KindPotion.String(),
		item.KindFlag.String(),
	}

	kind, ok := chooseDrop(held, dropOrder(match.KindBotAggressive.String()))
	require.True(t, ok)
	assert.Equal(t, item.KindPotion, kind, "aggressive bots surrender the potion first")

	kind, ok = chooseDrop(held, dropOrder(match.KindBotDefensive.String()))
	require.True(t, ok)
	assert.Equal(t, item.KindSword, kind, "defensive bots surrender the sword first")
}

func TestDefensiveBotEscapesWhenWounded(t *testing.T) {
	// Zeroed stat rolls; the single float draw makes the escape land.
	deps := testDeps(dice.NewFixedSource(nil, []float64{0.1}))
	s, host := match.NewSession("BOTS", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1}), match.ModeElimination, "alice", deps)
	t.Cleanup(s.Close)
	bot, err := s.AddBot(host.ID, match.KindBotDefensive)
	require.NoError(t, err)

	bot.Health, bot.MaxHealth = 2, 6
	bot.Speed = 9 // wounded bot acts first
	host.Speed = 3

	s.Start(host.ID)
	require.Eventually(t, func() bool {
		return s.View().State == match.StateTurnWait.String()
	}, waitFor, tick)

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	require.Eventually(t, func() bool {
		v := s.View()
		return v.Combat == nil && v.State == match.StateTurnWait.String()
	}, waitFor, tick, "combat ends without a death once the bot escapes")

	v := s.View()
	hv, _ := v.Player(host.ID)
	bv, _ := v.Player(bot.ID)
	assert.Equal(t, 0, hv.Wins+bv.Wins)
}

func TestAggressiveBotSwingsBack(t *testing.T) {
	deps := testDeps(dice.NewSeededSource(11))
	s, host := match.NewSession("BOTS", testDef(grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1}), match.ModeElimination, "alice", deps)
	t.Cleanup(s.Close)
	bot, err := s.AddBot(host.ID, match.KindBotAggressive)
	require.NoError(t, err)

	bot.Speed = 9
	host.Speed = 3
	host.Health, host.MaxHealth = 9, 9
	bot.Health, bot.MaxHealth = 9, 9

	s.Start(host.ID)
	require.Eventually(t, func() bool {
		return s.View().State == match.StateTurnWait.String()
	}, waitFor, tick)

	s.Action(host.ID, grid.Position{X: 0, Y: 1})
	require.Eventually(t, func() bool {
		v := s.View()
		return v.Combat != nil && v.Combat.LastAttack != nil &&
			v.Combat.LastAttack.AttackerID == bot.ID
	}, waitFor, tick, "the bot attacks rather than waiting")
}

func TestBotVersusBotMatchRunsToCompletion(t *testing.T) {
	deps := testDeps(dice.NewSeededSource(3))
	s, host := match.NewSession("BOTS", testDef(
		grid.Position{X: 0, Y: 0},
		grid.Position{X: 4, Y: 4},
		grid.Position{X: 4, Y: 5},
	), match.ModeElimination, "alice", deps)
	t.Cleanup(s.Close)

	_, err := s.AddBot(host.ID, match.KindBotAggressive)
	require.NoError(t, err)
	_, err = s.AddBot(host.ID, match.KindBotAggressive)
	require.NoError(t, err)

	s.Start(host.ID)
	// The only human leaves; the bots play each other out.
	s.Leave(host.ID)

	require.Eventually(t, func() bool {
		return s.View().State == match.StateStatistics.String()
	}, waitFor, tick, "bot-only elimination match must terminate")
	assert.NotEmpty(t, s.View().WinnerID)
}
