// Package bot implements the server-driven player personalities. Each
// bot turn evaluates a fixed priority list of strategies and executes
// the first one that produces a target, acting exclusively through the
// same public session entry points a human client invokes.
package bot

import (
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// step is one resolved bot decision: move somewhere, act on an adjacent
// tile, or end the turn.
type step struct {
	moveTo *grid.Position
	actAt  *grid.Position
}

// strategy inspects the session view and proposes a step, or nil when
// it has no viable target.
type strategy func(ctx *turnContext) *step

// turnContext bundles the per-decision inputs every strategy reads.
type turnContext struct {
	view match.View
	self match.PlayerView
	snap grid.Snapshot
	// budget is the remaining movement allowance this turn.
	budget int
	// canAct is true while the per-turn action is unspent.
	canAct bool
}

// attackAdjacent acts on an enemy standing on an orthogonal neighbor.
func attackAdjacent(ctx *turnContext) *step {
	if !ctx.canAct {
		return nil
	}
	for _, n := range ctx.snap.LegalActions(ctx.self.Pos) {
		if ctx.snap.Enemies[n] {
			return &step{actAt: &n}
		}
	}
	return nil
}

// chaseNearestEnemy moves toward the cheapest-to-reach enemy, stopping
// at the closest affordable tile along the path.
func chaseNearestEnemy(ctx *turnContext) *step {
	var candidates []grid.Position
	for _, pos := range positionsInRowOrder(ctx.snap, ctx.snap.Enemies) {
		// Enemies occupy their tile; approach through its neighbors.
		for _, n := range pos.Neighbors() {
			if n.In(ctx.snap.Size) {
				candidates = append(candidates, n)
			}
		}
	}
	return moveToward(ctx, candidates)
}

// fetchNearestItem moves toward the cheapest-to-reach loot tile.
func fetchNearestItem(ctx *turnContext) *step {
	return moveToward(ctx, positionsInRowOrder(ctx.snap, ctx.snap.Items))
}

// positionsInRowOrder collects the marked tiles scanning the grid top to
// bottom, left to right. Candidate order breaks path-cost ties, so
// feeding moveToward straight from a map would make those ties
// nondeterministic.
func positionsInRowOrder(snap grid.Snapshot, marked map[grid.Position]bool) []grid.Position {
	var out []grid.Position
	for y := 0; y < snap.Size; y++ {
		for x := 0; x < snap.Size; x++ {
			if p := (grid.Position{X: x, Y: y}); marked[p] {
				out = append(out, p)
			}
		}
	}
	return out
}

// toggleNearestBridge acts on an adjacent bridge, or moves toward the
// nearest one.
func toggleNearestBridge(ctx *turnContext) *step {
	if ctx.canAct {
		for _, n := range ctx.self.Pos.Neighbors() {
			if n.In(ctx.snap.Size) && ctx.snap.Terrain(n).IsBridge() {
				return &step{actAt: &n}
			}
		}
	}
	var candidates []grid.Position
	for y := 0; y < ctx.snap.Size; y++ {
		for x := 0; x < ctx.snap.Size; x++ {
			p := grid.Position{X: x, Y: y}
			if !ctx.snap.Terrain(p).IsBridge() {
				continue
			}
			for _, n := range p.Neighbors() {
				if n.In(ctx.snap.Size) {
					candidates = append(candidates, n)
				}
			}
		}
	}
	return moveToward(ctx, candidates)
}

// returnFlagHome carries a held flag back to the bot's own spawn tile.
func returnFlagHome(ctx *turnContext) *step {
	if !holds(ctx.self, item.KindFlag) {
		return nil
	}
	return moveToward(ctx, []grid.Position{ctx.self.Spawn})
}

// fetchFlag moves toward the flag when it lies on the grid.
func fetchFlag(ctx *turnContext) *step {
	if holds(ctx.self, item.KindFlag) {
		return nil
	}
	candidates := ctx.view.Items[item.KindFlag.String()]
	if len(candidates) == 0 {
		return nil
	}
	return moveToward(ctx, candidates)
}

// guardSpawn drifts back to the bot's own spawn tile.
func guardSpawn(ctx *turnContext) *step {
	if ctx.self.Pos == ctx.self.Spawn {
		return nil
	}
	return moveToward(ctx, []grid.Position{ctx.self.Spawn})
}

func holds(p match.PlayerView, kind item.Kind) bool {
	for _, held := range p.Items {
		if held == kind.String() {
			return true
		}
	}
	return false
}

// moveToward runs the closest-reachable-target reduction: shortest path
// to every candidate, discard the unreachable, take the cheapest, then
// walk the winning path backward to the furthest tile the remaining
// budget can pay for.
func moveToward(ctx *turnContext, candidates []grid.Position) *step {
	best, ok := closestReachable(ctx.snap, ctx.self.Pos, candidates)
	if !ok || len(best.Tiles) == 0 {
		return nil
	}
	target, ok := affordableEnd(ctx.snap, best, ctx.budget)
	if !ok {
		return nil
	}
	return &step{moveTo: &target}
}

// closestReachable returns the minimum-cost path to any candidate.
// Candidate order breaks cost ties: the first cheapest candidate wins,
// so results are deterministic for a fixed snapshot.
func closestReachable(snap grid.Snapshot, from grid.Position, candidates []grid.Position) (grid.Path, bool) {
	var best grid.Path
	found := false
	for _, c := range candidates {
		if c == from {
			continue
		}
		path, ok := snap.ShortestPath(from, c)
		if !ok || len(path.Tiles) == 0 {
			continue
		}
		if !found || path.Cost < best.Cost {
			best = path
			found = true
		}
	}
	return best, found
}

// affordableEnd walks path backward until its prefix cost fits budget.
func affordableEnd(snap grid.Snapshot, path grid.Path, budget int) (grid.Position, bool) {
	cost := 0
	var end grid.Position
	found := false
	for _, tile := range path.Tiles {
		c, _ := snap.Terrain(tile).MoveCost()
		cost += c
		if cost > budget {
			break
		}
		end = tile
		found = true
	}
	return end, found
}

// priorities returns the strategy list for one personality and mode.
// The first strategy that yields a step is executed; the rest are
// skipped.
func priorities(kind string, mode string) []strategy {
	objective := mode == match.ModeObjective.String()
	if kind == match.KindBotDefensive.String() {
		if objective {
			return []strategy{returnFlagHome, fetchFlag, fetchNearestItem, attackAdjacent, guardSpawn}
		}
		return []strategy{fetchNearestItem, attackAdjacent, toggleNearestBridge}
	}
	if objective {
		return []strategy{attackAdjacent, returnFlagHome, fetchFlag, chaseNearestEnemy, fetchNearestItem}
	}
	return []strategy{attackAdjacent, chaseNearestEnemy, fetchNearestItem, toggleNearestBridge}
}

// dropOrder is the personality-specific surrender order for the
// item-drop window: index 0 goes first.
func dropOrder(kind string) []item.Kind {
	if kind == match.KindBotDefensive.String() {
		// Defensive bots keep survival items longest.
		return []item.Kind{item.KindSword, item.KindShield, item.KindAmulet, item.KindPotion, item.KindFlag}
	}
	return []item.Kind{item.KindPotion, item.KindAmulet, item.KindShield, item.KindSword, item.KindFlag}
}

// chooseDrop picks which held item to surrender under the given order.
func chooseDrop(held []string, order []item.Kind) (item.Kind, bool) {
	for _, kind := range order {
		for _, h := range held {
			if h == kind.String() {
				return kind, true
			}
		}
	}
	return 0, false
}
