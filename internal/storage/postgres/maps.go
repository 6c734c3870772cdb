package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/registry"
)

// MapRepository provides map persistence operations. It satisfies
// registry.MapFinder so the match registry can resolve maps at
// creation time.
type MapRepository struct {
	db *pgxpool.Pool
}

var _ registry.MapFinder = (*MapRepository)(nil)

// NewMapRepository creates a MapRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMapRepository(db *pgxpool.Pool) *MapRepository {
	return &MapRepository{db: db}
}

// mapRecord is the JSONB shape of a stored map definition. Terrain is
// stored as integer codes; item kinds as their canonical names.
type mapRecord struct {
	Tiles  [][]int                    `json:"tiles"`
	Spawns []grid.Position            `json:"spawns"`
	Items  map[string][]grid.Position `json:"items"`
}

func encodeDefinition(def *gamemap.MapDefinition) ([]byte, error) {
	rec := mapRecord{
		Tiles:  make([][]int, len(def.Tiles)),
		Spawns: def.Spawns,
		Items:  make(map[string][]grid.Position, len(def.Items)),
	}
	for y, row := range def.Tiles {
		rec.Tiles[y] = make([]int, len(row))
		for x, terr := range row {
			rec.Tiles[y][x] = int(terr)
		}
	}
	for kind, positions := range def.Items {
		rec.Items[kind.String()] = positions
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding map definition: %w", err)
	}
	return data, nil
}

func decodeDefinition(id, name string, size int, published bool, data []byte) (*gamemap.MapDefinition, error) {
	var rec mapRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding map definition %q: %w", id, err)
	}
	def := &gamemap.MapDefinition{
		ID:        id,
		Name:      name,
		Size:      size,
		Tiles:     make([][]grid.Terrain, len(rec.Tiles)),
		Spawns:    rec.Spawns,
		Items:     make(map[item.Kind][]grid.Position, len(rec.Items)),
		Published: published,
	}
	for y, row := range rec.Tiles {
		def.Tiles[y] = make([]grid.Terrain, len(row))
		for x, code := range row {
			if code < int(grid.TerrainGrass) || code > int(grid.TerrainBrokenBridge) {
				return nil, fmt.Errorf("map %q: unknown terrain code %d at row %d col %d", id, code, y, x)
			}
			def.Tiles[y][x] = grid.Terrain(code)
		}
	}
	for kindName, positions := range rec.Items {
		kind, err := item.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", id, err)
		}
		def.Items[kind] = positions
	}
	return def, nil
}

// FindMap retrieves a map by its ID.
//
// Postcondition: Returns the MapDefinition or registry.ErrMapNotFound.
func (r *MapRepository) FindMap(ctx context.Context, id string) (*gamemap.MapDefinition, error) {
	var (
		name      string
		size      int
		published bool
		data      []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT name, size, published, definition
		FROM maps WHERE id = $1`,
		id,
	).Scan(&name, &size, &published, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registry.ErrMapNotFound
		}
		return nil, fmt.Errorf("finding map %q: %w", id, err)
	}
	return decodeDefinition(id, name, size, published, data)
}

// SaveMap inserts or replaces a map definition.
//
// Precondition: def must pass its own Validate.
// Postcondition: A later FindMap with def.ID returns an equivalent definition.
func (r *MapRepository) SaveMap(ctx context.Context, def *gamemap.MapDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	data, err := encodeDefinition(def)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO maps (id, name, size, published, definition)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			size = EXCLUDED.size,
			published = EXCLUDED.published,
			definition = EXCLUDED.definition,
			updated_at = now()`,
		def.ID, def.Name, def.Size, def.Published, data,
	)
	if err != nil {
		return fmt.Errorf("upserting map %q: %w", def.ID, err)
	}
	return nil
}

// ListMaps returns all stored maps ordered by name. When publishedOnly
// is set, unpublished maps are filtered out.
func (r *MapRepository) ListMaps(ctx context.Context, publishedOnly bool) ([]*gamemap.MapDefinition, error) {
	query := `SELECT id, name, size, published, definition FROM maps ORDER BY name ASC`
	if publishedOnly {
		query = `SELECT id, name, size, published, definition FROM maps WHERE published ORDER BY name ASC`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing maps: %w", err)
	}
	defer rows.Close()

	maps := make([]*gamemap.MapDefinition, 0)
	for rows.Next() {
		var (
			id        string
			name      string
			size      int
			published bool
			data      []byte
		)
		if err := rows.Scan(&id, &name, &size, &published, &data); err != nil {
			return nil, fmt.Errorf("scanning map row: %w", err)
		}
		def, err := decodeDefinition(id, name, size, published, data)
		if err != nil {
			return nil, err
		}
		maps = append(maps, def)
	}
	return maps, rows.Err()
}

// DeleteMap removes a map by ID. Deleting an absent map is not an error.
func (r *MapRepository) DeleteMap(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM maps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting map %q: %w", id, err)
	}
	return nil
}
