// Package grid implements the pure spatial queries of the match engine:
// legal-move enumeration, cost-bounded shortest paths, adjacent-action
// enumeration, and nearest-tile searches. All queries operate on an
// immutable Snapshot and never mutate session state.
package grid

import "fmt"

// Position is an integer tile coordinate on the match grid.
//
// Invariant: for a grid of size N, a valid position has 0 <= X < N and
// 0 <= Y < N.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the position in "(x,y)" format.
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// In reports whether p lies inside a size×size grid.
func (p Position) In(size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

// Neighbors returns the four orthogonal neighbors of p in the fixed
// deterministic order north, west, east, south. Callers that pick the
// first qualifying result depend on this order being stable.
//
// Postcondition: Returns exactly four positions; some may lie outside
// the grid and must be bounds-checked by the caller.
func (p Position) Neighbors() [4]Position {
	return [4]Position{
		{p.X, p.Y - 1}, // north
		{p.X - 1, p.Y}, // west
		{p.X + 1, p.Y}, // east
		{p.X, p.Y + 1}, // south
	}
}
