package depgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

// Cache stores delivered graphs so new workspaces skip the upstream call.
type Cache interface {
	Get(ctx context.Context, key string) (matrix.DependencyGraph, bool, error)
	Set(ctx context.Context, key string, graph matrix.DependencyGraph, ttl time.Duration) error
}

type noopCache struct{}

// NoopCache never hits.
func NoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (matrix.DependencyGraph, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(context.Context, string, matrix.DependencyGraph, time.Duration) error {
	return nil
}

type RedisCacheConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// redisKV is the slice of the go-redis client the cache uses.
type redisKV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

type redisCache struct {
	log    *logger.Logger
	rdb    redisKV
	prefix string
}

func newRedisCache(log *logger.Logger, rdb redisKV, prefix string) *redisCache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "portfolio:depgraph:"
	}
	return &redisCache{
		log:    log.With("service", "DependencyGraphCache"),
		rdb:    rdb,
		prefix: prefix,
	}
}

// NewRedisCache connects and pings; an empty Addr yields NoopCache.
func NewRedisCache(log *logger.Logger, cfg RedisCacheConfig) (Cache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return NoopCache(), nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisCache(log, rdb, cfg.Prefix), nil
}

func (c *redisCache) Get(ctx context.Context, key string) (matrix.DependencyGraph, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var graph matrix.DependencyGraph
	if err := json.Unmarshal(raw, &graph); err != nil {
		c.log.Warn("dropping undecodable cached graph", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.prefix+key).Err()
		return nil, false, nil
	}
	return graph, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, graph matrix.DependencyGraph, ttl time.Duration) error {
	raw, err := json.Marshal(graph)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err()
}
