// Command moulinette-server hosts the regulatory evaluation engine: it
// loads the reference data and department configurations, then serves the
// evaluate and plantation endpoints.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/MTES-MCT/envergo/internal/app/server"
	"github.com/MTES-MCT/envergo/internal/config"
	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geostore/memstore"
	"github.com/MTES-MCT/envergo/internal/geostore/raster"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/invalidation"
	"github.com/MTES-MCT/envergo/internal/invalidation/kafkaconsumer"
	"github.com/MTES-MCT/envergo/internal/logger"
	"github.com/MTES-MCT/envergo/internal/moulinette"
	"github.com/MTES-MCT/envergo/internal/moulinette/criteria"
	"github.com/MTES-MCT/envergo/internal/observability"
)

var Version = "dev"

func main() {
	cfg := config.FromEnv()
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "moulinette-server",
	}, nil)
	slogger := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	slogger.Info("starting moulinette-server", "addr", cfg.Addr, "version", Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// reference data snapshot
	store := memstore.New()
	zones, lines, err := memstore.LoadDir(cfg.DataDir)
	if err != nil {
		slogger.Error("loading reference maps failed", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	var tiles *raster.TileSet
	if cfg.RasterDir != "" {
		tiles = raster.NewTileSet()
		if err := tiles.LoadDir(cfg.RasterDir); err != nil {
			slogger.Error("loading catchment tiles failed", "dir", cfg.RasterDir, "err", err)
			os.Exit(1)
		}
	}
	store.Reload(zones, lines, tiles)
	slogger.Info("reference data loaded", "zones", len(zones), "lines", len(lines))

	// department configurations
	conf, crits, err := confstore.LoadDir(cfg.ConfDir)
	if err != nil {
		slogger.Error("loading configurations failed", "dir", cfg.ConfDir, "err", err)
		os.Exit(1)
	}
	registry := criteria.All()
	if err := registry.CheckCriteria(crits); err != nil {
		slogger.Error("configuration references unknown evaluator", "err", err)
		os.Exit(1)
	}
	slogger.Info("configurations loaded", "criteria", len(crits))

	// hedge document store
	var hedgeStore server.HedgeStore
	if cfg.RedisAddr != "" {
		rs, err := newRedisHedgeStore(ctx, cfg)
		if err != nil {
			slogger.Error("redis hedge store unavailable", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		defer func() { _ = rs.Close() }()
		hedgeStore = rs
	} else {
		slogger.Warn("no REDIS_ADDR configured, hedge sets are kept in memory")
		hedgeStore = hedges.NewMemSource()
	}

	engine := moulinette.New(store, conf, hedgeStore, registry, zl)

	if cfg.Invalidation.Enabled {
		reloader := &invalidation.StoreReloader{
			Store:     store,
			DataDir:   cfg.DataDir,
			RasterDir: cfg.RasterDir,
		}
		consumer := kafkaconsumer.New(
			kafkaconsumer.NewConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			slogger, reloader,
		)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slogger.Error("invalidation consumer stopped", "err", err)
			}
		}()
	}

	deps := server.Deps{
		Engine: engine,
		Conf:   conf,
		Hedges: hedgeStore,
		Readiness: []func() error{
			func() error {
				if len(zones) == 0 && len(lines) == 0 {
					return errors.New("no reference data loaded")
				}
				return nil
			},
		},
	}
	if err := server.Run(ctx, cfg, slogger, deps); err != nil {
		slogger.Error("server error", "err", err)
		os.Exit(1)
	}
	slogger.Info("server stopped")
}
