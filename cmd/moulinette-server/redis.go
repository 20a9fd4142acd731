package main

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/config"
	"github.com/MTES-MCT/envergo/internal/hedges/redistore"
)

func newRedisHedgeStore(ctx context.Context, cfg config.Config) (*redistore.Store, error) {
	return redistore.New(ctx, cfg.RedisAddr, cfg.HedgeTTL,
		redistore.WithDialTimeout(cfg.RedisOpTimeout),
		redistore.WithReadTimeout(cfg.RedisOpTimeout),
		redistore.WithPoolSize(cfg.RedisPoolSize),
	)
}
