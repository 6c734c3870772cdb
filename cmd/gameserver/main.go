// Package main provides the match server binary: the WebSocket backend
// that hosts lobbies, runs matches, and persists map definitions.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/config"
	"github.com/cory-johannsen/gridlock/internal/game/bot"
	"github.com/cory-johannsen/gridlock/internal/game/dice"
	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/match"
	"github.com/cory-johannsen/gridlock/internal/game/registry"
	"github.com/cory-johannsen/gridlock/internal/gameserver"
	"github.com/cory-johannsen/gridlock/internal/observability"
	"github.com/cory-johannsen/gridlock/internal/server"
	"github.com/cory-johannsen/gridlock/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting match server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Connect to PostgreSQL for map persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	mapRepo := postgres.NewMapRepository(pool.DB())

	// Seed the maps table from the content directory on first run.
	if err := seedMaps(ctx, mapRepo, cfg.Game.MapsDir, logger); err != nil {
		logger.Fatal("seeding maps", zap.Error(err))
	}

	hub := gameserver.NewHub(observability.Component(logger, "hub"))
	tracker := gameserver.NewTracker()

	deps := match.Deps{
		Roller:      dice.NewLoggedRoller(dice.NewCryptoSource(), observability.Component(logger, "dice")),
		Logger:      observability.Component(logger, "match"),
		Broadcaster: hub,
		Events:      gameserver.NewEventLog(hub, tracker, observability.Component(logger, "events")),
		Tracker:     tracker,
		Bots:        bot.NewEngine(observability.Component(logger, "bot")),
		Timings:     cfg.Game.Timings(),
	}
	reg := registry.New(mapRepo, deps, observability.Component(logger, "registry"))

	srv := gameserver.NewServer(cfg.Server, hub, reg, observability.Component(logger, "server"))

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("websocket", &server.FuncService{
		StartFn: srv.Start,
		StopFn:  srv.Stop,
	})

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("match server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// seedMaps loads the YAML map content into an empty maps table. A table
// that already holds maps is left alone so editor changes survive
// restarts.
func seedMaps(ctx context.Context, repo *postgres.MapRepository, dir string, logger *zap.Logger) error {
	existing, err := repo.ListMaps(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("maps table already populated", zap.Int("count", len(existing)))
		return nil
	}

	defs, err := gamemap.LoadFromDir(dir)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := repo.SaveMap(ctx, def); err != nil {
			return err
		}
	}
	logger.Info("seeded maps from content directory",
		zap.String("dir", dir),
		zap.Int("count", len(defs)),
	)
	return nil
}
