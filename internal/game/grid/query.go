package grid

// Snapshot is a read-only view of one match's spatial state, captured at
// query time. The grid and the item/occupancy maps are the single source
// of truth for what occupies a tile; snapshots are rebuilt from live
// session data on every query rather than cached.
type Snapshot struct {
	// Size is the grid edge length (10, 15, or 20).
	Size int
	// Tiles is the terrain grid, indexed Tiles[y][x].
	Tiles [][]Terrain
	// Occupied marks tiles occupied by a player other than the one
	// the query is asked for. Occupied tiles are excluded from the
	// movement graph entirely: paths may not route through them.
	Occupied map[Position]bool
	// Enemies marks tiles occupied by an attackable opposing player
	// (team-aware in objective mode).
	Enemies map[Position]bool
	// Items marks tiles carrying at least one item.
	Items map[Position]bool
}

// Terrain returns the terrain at p.
//
// Precondition: p must lie inside the grid.
func (s Snapshot) Terrain(p Position) Terrain {
	return s.Tiles[p.Y][p.X]
}

// passable reports whether a path may enter p: inside the grid, passable
// terrain, and not occupied by another player.
func (s Snapshot) passable(p Position) bool {
	if !p.In(s.Size) {
		return false
	}
	if _, ok := s.Terrain(p).MoveCost(); !ok {
		return false
	}
	return !s.Occupied[p]
}

// Path is the result of a shortest-path query.
type Path struct {
	// Tiles is the ordered sequence of tiles stepped onto, excluding
	// the start tile. Empty when start == target.
	Tiles []Position
	// Cost is the sum of the destination-tile movement costs over Tiles.
	Cost int
}

// End returns the final tile of the path, or start if the path is empty.
func (p Path) End(start Position) Position {
	if len(p.Tiles) == 0 {
		return start
	}
	return p.Tiles[len(p.Tiles)-1]
}

// relax runs the cost-bounded relaxation from start over the 4-connected
// movement graph. Edge cost is the destination tile's movement cost;
// impassable and occupied tiles are excluded from the graph. A FIFO
// frontier suffices because tile costs are small non-negative integers.
// budget < 0 means unbounded.
//
// Neighbor order is the fixed north, west, east, south order from
// Position.Neighbors, so results are reproducible for a fixed map.
func (s Snapshot) relax(start Position, budget int) (dist map[Position]int, prev map[Position]Position) {
	dist = map[Position]int{start: 0}
	prev = make(map[Position]Position)
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if !s.passable(n) {
				continue
			}
			cost, _ := s.Terrain(n).MoveCost()
			next := dist[cur] + cost
			if budget >= 0 && next > budget {
				continue
			}
			if old, seen := dist[n]; seen && old <= next {
				continue
			}
			dist[n] = next
			prev[n] = cur
			queue = append(queue, n)
		}
	}
	return dist, prev
}

// LegalMoves returns every tile reachable from start within the given
// movement budget, excluding the start tile itself.
//
// Postcondition: Every returned position has a finite relaxation cost
// <= budget; the result is deterministic for a fixed snapshot.
func (s Snapshot) LegalMoves(start Position, budget int) []Position {
	dist, _ := s.relax(start, budget)
	moves := make([]Position, 0, len(dist))
	// Iterate the grid in row order rather than the dist map so the
	// result order is deterministic.
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			p := Position{x, y}
			if p == start {
				continue
			}
			if _, ok := dist[p]; ok {
				moves = append(moves, p)
			}
		}
	}
	return moves
}

// ShortestPath returns the minimum-cost path from start to target, or
// (Path{}, false) when the target is unreachable, occupied, or
// impassable.
//
// The returned path is truncated at the first tile en route that carries
// an item, unless that tile is the requested target: movement stops
// early when loot is encountered, so a player cannot walk past an item
// in one uninterrupted move. Cost reflects the truncated path.
//
// Postcondition: When ok and no truncation applies, the last tile of the
// path equals target.
func (s Snapshot) ShortestPath(start, target Position) (Path, bool) {
	if start == target {
		return Path{}, true
	}
	if !s.passable(target) {
		return Path{}, false
	}
	dist, prev := s.relax(start, -1)
	if _, ok := dist[target]; !ok {
		return Path{}, false
	}

	// Reconstruct backwards.
	var reversed []Position
	for at := target; at != start; at = prev[at] {
		reversed = append(reversed, at)
	}
	tiles := make([]Position, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		tiles = append(tiles, reversed[i])
	}

	// Truncate at the first item-carrying tile short of the target.
	for i, p := range tiles {
		if p != target && s.Items[p] {
			tiles = tiles[:i+1]
			break
		}
	}

	cost := 0
	for _, p := range tiles {
		c, _ := s.Terrain(p).MoveCost()
		cost += c
	}
	return Path{Tiles: tiles, Cost: cost}, true
}

// LegalActions returns the orthogonal neighbors of start that contain
// either an opposing player or a togglable bridge tile, in the fixed
// north, west, east, south order.
func (s Snapshot) LegalActions(start Position) []Position {
	var actions []Position
	for _, n := range start.Neighbors() {
		if !n.In(s.Size) {
			continue
		}
		if s.Enemies[n] || s.Terrain(n).IsBridge() {
			actions = append(actions, n)
		}
	}
	return actions
}

// DebugMoves returns every tile that is accessible terrain, unoccupied,
// and item-free. Used only when the host has enabled debug mode, which
// bypasses movement-budget accounting.
func (s Snapshot) DebugMoves() []Position {
	var moves []Position
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			p := Position{x, y}
			if _, ok := s.Terrain(p).MoveCost(); !ok {
				continue
			}
			if s.Occupied[p] || s.Items[p] {
				continue
			}
			moves = append(moves, p)
		}
	}
	return moves
}

// NearestEmptyTile searches outward from start in breadth-first order
// and returns the first passable tile not occupied by any player.
//
// Postcondition: Falls back to start if the search exhausts the grid,
// which cannot happen on a well-formed map but must not crash.
func (s Snapshot) NearestEmptyTile(start Position) Position {
	return s.nearest(start, func(p Position) bool {
		_, ok := s.Terrain(p).MoveCost()
		return ok && !s.Occupied[p]
	})
}

// NearestItemDropTile searches outward from start in breadth-first order
// and returns the first passable tile carrying no item.
//
// Postcondition: Falls back to start if the search exhausts the grid.
func (s Snapshot) NearestItemDropTile(start Position) Position {
	return s.nearest(start, func(p Position) bool {
		_, ok := s.Terrain(p).MoveCost()
		return ok && !s.Items[p]
	})
}

// nearest is the shared BFS over the 4-connected grid, ignoring terrain
// costs and occupancy for traversal. The start tile itself is a
// candidate.
func (s Snapshot) nearest(start Position, match func(Position) bool) Position {
	visited := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if match(cur) {
			return cur
		}
		for _, n := range cur.Neighbors() {
			if !n.In(s.Size) || visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return start
}
