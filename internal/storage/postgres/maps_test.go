package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/registry"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		t.Skip("TEST_DSN not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func sampleDefinition() *gamemap.MapDefinition {
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
	tiles[5][5] = grid.TerrainSwamp
	tiles[4][5] = grid.TerrainWater
	tiles[4][6] = grid.TerrainBridge
	return &gamemap.MapDefinition{
		ID:     "crossing",
		Name:   "The Crossing",
		Size:   size,
		Tiles:  tiles,
		Spawns: spawns,
		Items: map[item.Kind][]grid.Position{
			item.KindSword:  {{X: 3, Y: 3}},
			item.KindPotion: {{X: 6, Y: 6}, {X: 2, Y: 7}},
		},
		Published: true,
	}
}

func TestDefinitionEncodeDecodeRoundTrip(t *testing.T) {
	def := sampleDefinition()

	data, err := encodeDefinition(def)
	require.NoError(t, err)

	got, err := decodeDefinition(def.ID, def.Name, def.Size, def.Published, data)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestDecodeRejectsUnknownTerrainCode(t *testing.T) {
	_, err := decodeDefinition("bad", "Bad", 10, true, []byte(`{"tiles":[[99]],"spawns":[],"items":{}}`))
	assert.ErrorContains(t, err, "unknown terrain code")
}

func TestDecodeRejectsUnknownItemKind(t *testing.T) {
	_, err := decodeDefinition("bad", "Bad", 10, true, []byte(`{"tiles":[],"spawns":[],"items":{"crown":[]}}`))
	assert.ErrorContains(t, err, "unknown item kind")
}

// TestPropertyTerrainCodesRoundTrip verifies that every terrain value
// survives the integer encoding used in the JSONB definition column.
func TestPropertyTerrainCodesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		terr := grid.Terrain(rapid.IntRange(int(grid.TerrainGrass), int(grid.TerrainBrokenBridge)).Draw(t, "terrain"))
		def := sampleDefinition()
		def.Tiles[5][4] = terr

		data, err := encodeDefinition(def)
		if err != nil {
			t.Fatalf("encoding: %v", err)
		}
		got, err := decodeDefinition(def.ID, def.Name, def.Size, def.Published, data)
		if err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if got.Tiles[5][4] != terr {
			t.Fatalf("terrain %v decoded as %v", terr, got.Tiles[5][4])
		}
	})
}

func TestMapRepositorySaveAndFind(t *testing.T) {
	pool := testPool(t)
	repo := NewMapRepository(pool)
	ctx := context.Background()

	def := sampleDefinition()
	require.NoError(t, repo.SaveMap(ctx, def))
	t.Cleanup(func() { _ = repo.DeleteMap(ctx, def.ID) })

	got, err := repo.FindMap(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	// Upsert replaces in place.
	def.Name = "The Crossing (revised)"
	def.Published = false
	require.NoError(t, repo.SaveMap(ctx, def))
	got, err = repo.FindMap(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Crossing (revised)", got.Name)
	assert.False(t, got.Published)
}

func TestMapRepositoryFindMissing(t *testing.T) {
	pool := testPool(t)
	repo := NewMapRepository(pool)

	_, err := repo.FindMap(context.Background(), "no-such-map")
	assert.ErrorIs(t, err, registry.ErrMapNotFound)
}

func TestMapRepositorySaveRejectsInvalidDefinition(t *testing.T) {
	pool := testPool(t)
	repo := NewMapRepository(pool)

	def := sampleDefinition()
	def.Spawns = def.Spawns[:1]
	assert.Error(t, repo.SaveMap(context.Background(), def))
}

func TestMapRepositoryListPublishedOnly(t *testing.T) {
	pool := testPool(t)
	repo := NewMapRepository(pool)
	ctx := context.Background()

	pub := sampleDefinition()
	pub.ID, pub.Name = "list-pub", "Listed"
	unpub := sampleDefinition()
	unpub.ID, unpub.Name, unpub.Published = "list-unpub", "Hidden", false
	require.NoError(t, repo.SaveMap(ctx, pub))
	require.NoError(t, repo.SaveMap(ctx, unpub))
	t.Cleanup(func() {
		_ = repo.DeleteMap(ctx, pub.ID)
		_ = repo.DeleteMap(ctx, unpub.ID)
	})

	maps, err := repo.ListMaps(ctx, true)
	require.NoError(t, err)
	for _, m := range maps {
		assert.True(t, m.Published, "map %q listed while unpublished", m.ID)
	}
}
