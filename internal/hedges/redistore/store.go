// Package redistore persists hedge sets as JSON documents in Redis, one
// document per UUID. The map widget posts a hedge set once; evaluations
// then reference it by id.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/observability"
)

const keyPrefix = "hedges:"

type Option func(*redis.Options)

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ hedges.Source = (*Store)(nil)

// New connects and pings the server. A zero ttl keeps documents forever.
func New(ctx context.Context, addr string, ttl time.Duration, opts ...Option) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

func key(id uuid.UUID) string { return keyPrefix + id.String() }

// Put stores the hedge set under its own id.
func (s *Store) Put(ctx context.Context, d *hedges.Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode hedge set %s: %w", d.ID(), err)
	}
	if err := s.rdb.Set(ctx, key(d.ID()), raw, s.ttl).Err(); err != nil {
		observability.IncHedgeStore("put", "error")
		return fmt.Errorf("redis SET %q: %w", key(d.ID()), err)
	}
	observability.IncHedgeStore("put", "ok")
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*hedges.Data, error) {
	raw, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.IncHedgeStore("get", "miss")
		return nil, hedges.ErrNotFound
	}
	if err != nil {
		observability.IncHedgeStore("get", "error")
		return nil, fmt.Errorf("redis GET %q: %w", key(id), err)
	}
	observability.IncHedgeStore("get", "hit")
	var d hedges.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode hedge set %s: %w", id, err)
	}
	return &d, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis DEL %q: %w", key(id), err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
