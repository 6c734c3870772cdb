package gamemap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
)

// terrainRunes maps the compact one-rune terrain encoding used in map
// YAML files. Rows read left-to-right, top-to-bottom.
var terrainRunes = map[rune]grid.Terrain{
	'G': grid.TerrainGrass,
	'P': grid.TerrainSpawn,
	'S': grid.TerrainSwamp,
	'W': grid.TerrainWater,
	'B': grid.TerrainBridge,
	'X': grid.TerrainBrokenBridge,
}

// yamlMapFile is the top-level YAML structure for map files.
type yamlMapFile struct {
	Map yamlMap `yaml:"map"`
}

type yamlMap struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Size      int            `yaml:"size"`
	Rows      []string       `yaml:"rows"`
	Spawns    []yamlPosition `yaml:"spawns"`
	Items     []yamlItem     `yaml:"items"`
	Published bool           `yaml:"published"`
}

type yamlPosition struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type yamlItem struct {
	Kind      string         `yaml:"kind"`
	Positions []yamlPosition `yaml:"positions"`
}

// LoadFromBytes parses and validates a map from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the map schema.
// Postcondition: Returns a validated MapDefinition or a non-nil error.
func LoadFromBytes(data []byte) (*MapDefinition, error) {
	var file yamlMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}
	def, err := convertYAMLMap(file.Map)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validating map: %w", err)
	}
	return def, nil
}

// LoadFromFile reads and validates a single map YAML file.
func LoadFromFile(path string) (*MapDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromDir loads all YAML files in a directory as maps.
//
// Postcondition: Returns all validated maps or the first error
// encountered; errors if the directory yields no maps.
func LoadFromDir(dir string) ([]*MapDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading map directory %s: %w", dir, err)
	}
	var maps []*MapDefinition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		def, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading map from %s: %w", name, err)
		}
		maps = append(maps, def)
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("no map files found in %s", dir)
	}
	return maps, nil
}

func convertYAMLMap(ym yamlMap) (*MapDefinition, error) {
	def := &MapDefinition{
		ID:        ym.ID,
		Name:      ym.Name,
		Size:      ym.Size,
		Items:     make(map[item.Kind][]grid.Position, len(ym.Items)),
		Published: ym.Published,
	}
	for y, row := range ym.Rows {
		tiles := make([]grid.Terrain, 0, len(row))
		for x, r := range row {
			terr, ok := terrainRunes[r]
			if !ok {
				return nil, fmt.Errorf("map %q: unknown terrain rune %q at row %d col %d", ym.ID, r, y, x)
			}
			tiles = append(tiles, terr)
		}
		def.Tiles = append(def.Tiles, tiles)
	}
	for _, sp := range ym.Spawns {
		def.Spawns = append(def.Spawns, grid.Position{X: sp.X, Y: sp.Y})
	}
	for _, yi := range ym.Items {
		kind, err := item.ParseKind(yi.Kind)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", ym.ID, err)
		}
		for _, p := range yi.Positions {
			def.Items[kind] = append(def.Items[kind], grid.Position{X: p.X, Y: p.Y})
		}
	}
	return def, nil
}
