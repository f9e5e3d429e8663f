package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics/store"
	"github.com/odyssey-erp/hrdash/internal/platform/cache"
	"github.com/odyssey-erp/hrdash/internal/platform/db"
	"github.com/odyssey-erp/hrdash/internal/rpc"
)

// Aggregates bundles the connections and services behind the dashboard
// queries. Pool and RPCServer are nil when the procedures are served remotely.
type Aggregates struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Cache     *hrmetrics.Cache
	RPCServer *rpc.Server
	Service   *hrmetrics.Service
}

// OpenAggregates connects the configured stores and wires the aggregate
// service. A Redis outage degrades to uncached queries.
func OpenAggregates(ctx context.Context, cfg *Config, logger *slog.Logger) (*Aggregates, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	out := &Aggregates{}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, PoolSize: cfg.RedisPoolSize})
	switch {
	case errors.Is(err, cache.ErrNoAddress):
		logger.Info("redis not configured, caching disabled")
	case err != nil:
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	default:
		out.Redis = redisClient
	}
	out.Cache = hrmetrics.NewCache(out.Redis, cfg.CacheTTL, logger)

	var querier rpc.Querier
	if cfg.InProcessRPC() {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		out.Pool = pool
		out.RPCServer = rpc.NewServer(logger)
		store.Register(out.RPCServer, store.New(pool, store.Options{}))
		querier = rpc.NewLocal(out.RPCServer)
	} else {
		querier = rpc.NewClient(cfg.RPCEndpoint, cfg.RPCTimeout, rpc.WithTokenSource(auth.TokenFromContext))
	}
	out.Service = hrmetrics.NewService(querier, out.Cache)
	return out, nil
}

// Migrate applies the embedded aggregate schema.
func (a *Aggregates) Migrate(ctx context.Context) ([]string, error) {
	if a == nil || a.Pool == nil {
		return nil, errors.New("app: migrations need an in-process postgres store")
	}
	return db.Migrate(ctx, a.Pool, store.Migrations())
}

// Close releases every connection.
func (a *Aggregates) Close() {
	if a == nil {
		return
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
