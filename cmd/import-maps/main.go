// Package main provides a CLI that imports YAML map definitions into
// the maps table, upserting by map ID.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/gridlock/internal/config"
	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "", "path to map YAML directory (defaults to game.maps_dir)")
	unpublish := flag.Bool("unpublish", false, "import all maps as unpublished drafts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = cfg.Game.MapsDir
	}

	defs, err := gamemap.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading maps: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewMapRepository(pool.DB())
	for _, def := range defs {
		if *unpublish {
			def.Published = false
		}
		if err := repo.SaveMap(ctx, def); err != nil {
			fmt.Fprintf(os.Stderr, "importing map %q: %v\n", def.ID, err)
			os.Exit(1)
		}
		fmt.Printf("imported %s (%q, %dx%d, published=%v)\n",
			def.ID, def.Name, def.Size, def.Size, def.Published)
	}
	fmt.Printf("import complete: %d maps in %s\n", len(defs), time.Since(start).Round(time.Millisecond))
}
