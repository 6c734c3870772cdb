package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	pgstore "github.com/cory-johannsen/gridlock/internal/storage/postgres"
	"github.com/cory-johannsen/gridlock/internal/testutil"
)

// TestMapRepositoryAgainstContainer runs the full save/find/list cycle
// against a disposable PostgreSQL container. Requires Docker.
func TestMapRepositoryAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := pgstore.NewMapRepository(pc.RawPool)
	ctx := context.Background()

	const size = 10
	tiles := make([][]grid.Terrain, size)
	for y := range tiles {
		tiles[y] = make([]grid.Terrain, size)
		for x := range tiles[y] {
			tiles[y][x] = grid.TerrainGrass
		}
	}
	spawns := []grid.Position{{X: 0, Y: 0}, {X: 9, Y: 9}}
	for _, sp := range spawns {
		tiles[sp.Y][sp.X] = grid.TerrainSpawn
	}
	def := &gamemap.MapDefinition{
		ID: "container-map", Name: "Container Map", Size: size,
		Tiles: tiles, Spawns: spawns,
		Items:     map[item.Kind][]grid.Position{item.KindPotion: {{X: 5, Y: 5}}},
		Published: true,
	}

	require.NoError(t, repo.SaveMap(ctx, def))

	got, err := repo.FindMap(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	maps, err := repo.ListMaps(ctx, true)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "container-map", maps[0].ID)
}
