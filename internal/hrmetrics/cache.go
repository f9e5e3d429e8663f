package hrmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "hrdash:cache:version"
	// BumpChannel carries version numbers published by Bump.
	BumpChannel = "hrdash.bump"
)

// Cache is a versioned Redis JSON cache. Bumping the version orphans every
// key built before the bump.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	// local holds the newest version announced on the bump channel while a
	// listener runs. Zero means the shared key must be read.
	listening atomic.Bool
	local     atomic.Int64
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	if c.listening.Load() {
		if ver := c.local.Load(); ver > 0 {
			return ver, nil
		}
	}
	ver, err := c.sharedVersion(ctx)
	if err != nil {
		return 0, err
	}
	if c.listening.Load() {
		c.observe(ver)
	}
	return ver, nil
}

func (c *Cache) sharedVersion(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent initialiser or bump intact.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// observe raises the local version; it never moves backwards.
func (c *Cache) observe(ver int64) {
	for {
		current := c.local.Load()
		if current >= ver || c.local.CompareAndSwap(current, ver) {
			return
		}
	}
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"hrdash"}, parts...), ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Fetch resolves the versioned key for parts and loads through it. When the
// version cannot be read the loader runs uncached.
func (c *Cache) Fetch(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := c.BuildKey(ctx, parts...)
	if err != nil {
		c.logger.Warn("cache version unavailable", slog.Any("error", err))
		var bypass *Cache
		return bypass.FetchJSON(ctx, key, dest, loader)
	}
	return c.FetchJSON(ctx, key, dest, loader)
}

// FetchJSON loads a cached value or populates it using the loader. Redis
// read and write failures degrade to calling the loader directly.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(payload, dest); err == nil {
				return nil
			}
			c.logger.Warn("discard undecodable cache entry", slog.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.enabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the global version and publishing it.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, err
	}
	c.observe(ver)
	if err := c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, err
	}
	return ver, nil
}

// ListenForInvalidation follows version bumps published on channel until ctx
// is cancelled. Announcements only move the local view forward; the shared
// version key is left to Bump. A malformed announcement drops the local view
// so the next read goes back to Redis.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("cache: subscribe %s: %w", channel, err)
	}
	c.local.Store(0)
	c.listening.Store(true)
	go func() {
		defer func() {
			c.listening.Store(false)
			c.local.Store(0)
			_ = pubsub.Close()
		}()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil || ver <= 0 {
					c.logger.Warn("ignore malformed cache bump", slog.String("payload", msg.Payload))
					c.local.Store(0)
					continue
				}
				c.observe(ver)
			}
		}
	}()
	return nil
}
