package grid

// Terrain is the kind of ground occupying one tile.
type Terrain int

const (
	// TerrainGrass is ordinary ground, movement cost 1.
	TerrainGrass Terrain = iota
	// TerrainSpawn is a player spawn tile, movement cost 0.
	TerrainSpawn
	// TerrainSwamp is slow ground, movement cost 2. Fighting while
	// standing in a swamp carries a combat penalty.
	TerrainSwamp
	// TerrainWater is impassable.
	TerrainWater
	// TerrainBridge is an intact bridge over water, movement cost 1.
	TerrainBridge
	// TerrainBrokenBridge is a destroyed bridge; impassable until repaired.
	TerrainBrokenBridge
)

// String returns a human-readable terrain label.
func (t Terrain) String() string {
	switch t {
	case TerrainGrass:
		return "grass"
	case TerrainSpawn:
		return "spawn"
	case TerrainSwamp:
		return "swamp"
	case TerrainWater:
		return "water"
	case TerrainBridge:
		return "bridge"
	case TerrainBrokenBridge:
		return "broken bridge"
	default:
		return "unknown"
	}
}

// MoveCost returns the cost of stepping onto a tile of this terrain and
// whether the tile is passable at all.
//
// Postcondition: Returns (cost >= 0, true) for passable terrain, or
// (0, false) for water and broken bridges.
func (t Terrain) MoveCost() (int, bool) {
	switch t {
	case TerrainSpawn:
		return 0, true
	case TerrainGrass, TerrainBridge:
		return 1, true
	case TerrainSwamp:
		return 2, true
	default:
		return 0, false
	}
}

// IsBridge reports whether t is a bridge tile, intact or broken.
func (t Terrain) IsBridge() bool {
	return t == TerrainBridge || t == TerrainBrokenBridge
}

// Toggled returns the opposite bridge kind for bridge tiles and t
// unchanged for everything else.
//
// Postcondition: Toggled(Toggled(t)) == t for bridge terrain.
func (t Terrain) Toggled() Terrain {
	switch t {
	case TerrainBridge:
		return TerrainBrokenBridge
	case TerrainBrokenBridge:
		return TerrainBridge
	default:
		return t
	}
}
