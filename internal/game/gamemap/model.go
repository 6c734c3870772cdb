// Package gamemap provides the match map model: terrain grids, spawn
// points, item placements, and their YAML representation.
package gamemap

import (
	"fmt"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// ValidSizes lists the supported grid edge lengths.
var ValidSizes = []int{10, 15, 20}

// MapDefinition is a complete, playable match map.
type MapDefinition struct {
	// ID uniquely identifies this map.
	ID string
	// Name is the display name shown in the lobby.
	Name string
	// Size is the grid edge length (10, 15, or 20).
	Size int
	// Tiles is the terrain grid, indexed Tiles[y][x].
	Tiles [][]grid.Terrain
	// Spawns are the player spawn points, in seat order.
	Spawns []grid.Position
	// Items maps item kinds to their starting grid positions.
	Items map[item.Kind][]grid.Position
	// Published marks the map as available for match creation.
	// Unpublished maps decline createMatch.
	Published bool
}

// MaxPlayers returns the number of seats this map supports.
func (m *MapDefinition) MaxPlayers() int {
	return len(m.Spawns)
}

// CloneTiles returns a deep copy of the terrain grid for a new session.
// Sessions mutate their copy (bridge toggles) and must not share tiles.
func (m *MapDefinition) CloneTiles() [][]grid.Terrain {
	tiles := make([][]grid.Terrain, len(m.Tiles))
	for y, row := range m.Tiles {
		tiles[y] = make([]grid.Terrain, len(row))
		copy(tiles[y], row)
	}
	return tiles
}

// CloneItems returns a deep copy of the item placement map.
func (m *MapDefinition) CloneItems() map[item.Kind][]grid.Position {
	items := make(map[item.Kind][]grid.Position, len(m.Items))
	for k, positions := range m.Items {
		cp := make([]grid.Position, len(positions))
		copy(cp, positions)
		items[k] = cp
	}
	return items
}

// Validate checks all map invariants.
//
// Postcondition: Returns nil only when the map has a supported size, a
// full rectangular terrain grid, at least two spawns on passable spawn
// tiles, and all item placements on passable non-spawn tiles.
func (m *MapDefinition) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("map ID must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("map %q: name must not be empty", m.ID)
	}
	sizeOK := false
	for _, s := range ValidSizes {
		if m.Size == s {
			sizeOK = true
		}
	}
	if !sizeOK {
		return fmt.Errorf("map %q: size must be one of %v, got %d", m.ID, ValidSizes, m.Size)
	}
	if len(m.Tiles) != m.Size {
		return fmt.Errorf("map %q: expected %d terrain rows, got %d", m.ID, m.Size, len(m.Tiles))
	}
	for y, row := range m.Tiles {
		if len(row) != m.Size {
			return fmt.Errorf("map %q: row %d has %d tiles, want %d", m.ID, y, len(row), m.Size)
		}
	}
	if len(m.Spawns) < 2 {
		return fmt.Errorf("map %q: must define at least two spawns, got %d", m.ID, len(m.Spawns))
	}
	seen := make(map[grid.Position]bool, len(m.Spawns))
	for i, sp := range m.Spawns {
		if !sp.In(m.Size) {
			return fmt.Errorf("map %q: spawn %d at %s is outside the grid", m.ID, i, sp)
		}
		if m.Tiles[sp.Y][sp.X] != grid.TerrainSpawn {
			return fmt.Errorf("map %q: spawn %d at %s is not on spawn terrain", m.ID, i, sp)
		}
		if seen[sp] {
			return fmt.Errorf("map %q: duplicate spawn at %s", m.ID, sp)
		}
		seen[sp] = true
	}
	for kind, positions := range m.Items {
		for _, p := range positions {
			if !p.In(m.Size) {
				return fmt.Errorf("map %q: %s at %s is outside the grid", m.ID, kind, p)
			}
			terr := m.Tiles[p.Y][p.X]
			if _, passable := terr.MoveCost(); !passable {
				return fmt.Errorf("map %q: %s at %s is on impassable terrain", m.ID, kind, p)
			}
			if terr == grid.TerrainSpawn {
				return fmt.Errorf("map %q: %s at %s may not start on a spawn tile", m.ID, kind, p)
			}
		}
	}
	return nil
}
