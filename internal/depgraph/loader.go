package depgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/observability"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

type LoaderConfig struct {
	CacheKey string
	CacheTTL time.Duration
}

// Loader fetches the dependency graph for new workspaces. Concurrent loads
// share one upstream call, and a delivered graph is cached for CacheTTL.
type Loader struct {
	log     *logger.Logger
	source  Source
	cache   Cache
	catalog *matrix.Catalog
	key     string
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time

	mu     sync.Mutex
	last   matrix.DependencyGraph
	lastAt time.Time
}

func NewLoader(log *logger.Logger, catalog *matrix.Catalog, source Source, cache Cache, cfg LoaderConfig) *Loader {
	if cache == nil {
		cache = NoopCache()
	}
	key := cfg.CacheKey
	if key == "" {
		key = "default"
	}
	return &Loader{
		log:     log.With("service", "DependencyGraphLoader"),
		source:  source,
		cache:   cache,
		catalog: catalog,
		key:     key,
		ttl:     cfg.CacheTTL,
		now:     time.Now,
	}
}

// Load returns a graph that fits the catalog, or an error wrapping ErrGraphLoad.
func (l *Loader) Load(ctx context.Context) (matrix.DependencyGraph, error) {
	if graph, ok := l.fromMemo(); ok {
		return graph, nil
	}
	if graph, ok := l.fromCache(ctx); ok {
		observability.Current().IncGraphLoad("cache", "ok")
		l.remember(graph)
		return graph.Clone(), nil
	}

	v, err, shared := l.group.Do(l.key, func() (interface{}, error) {
		graph, err := l.source.Fetch(ctx)
		if err != nil {
			if !errors.Is(err, ErrGraphLoad) {
				err = fmt.Errorf("%w: %v", ErrGraphLoad, err)
			}
			return nil, err
		}
		if err := l.check(graph); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGraphLoad, err)
		}
		l.remember(graph)
		if l.ttl > 0 {
			if err := l.cache.Set(ctx, l.key, graph, l.ttl); err != nil {
				l.log.Warn("graph cache write failed", "key", l.key, "error", err)
			}
		}
		return graph, nil
	})
	if err != nil {
		observability.Current().IncGraphLoad("source", "failed")
		return nil, err
	}
	observability.Current().IncGraphLoad("source", "ok")
	l.log.Debug("dependency graph loaded", "edges", v.(matrix.DependencyGraph).EdgeCount(), "shared", shared)
	return v.(matrix.DependencyGraph).Clone(), nil
}

func (l *Loader) fromCache(ctx context.Context) (matrix.DependencyGraph, bool) {
	if l.ttl <= 0 {
		return nil, false
	}
	graph, ok, err := l.cache.Get(ctx, l.key)
	if err != nil {
		l.log.Warn("graph cache read failed", "key", l.key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if err := l.check(graph); err != nil {
		l.log.Warn("cached graph does not fit catalog", "key", l.key, "error", err)
		return nil, false
	}
	return graph, true
}

// Levels groups the catalog by the precedence of the graph workspaces
// currently receive.
func (l *Loader) Levels(ctx context.Context) ([][]matrix.Module, error) {
	graph, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Levels(l.catalog, graph)
}

// check applies the rules every delivered graph must meet, whatever its origin.
func (l *Loader) check(graph matrix.DependencyGraph) error {
	if err := graph.Validate(l.catalog); err != nil {
		return err
	}
	_, err := Levels(l.catalog, graph)
	return err
}

func (l *Loader) fromMemo() (matrix.DependencyGraph, bool) {
	if l.ttl <= 0 {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil || l.now().Sub(l.lastAt) >= l.ttl {
		return nil, false
	}
	return l.last.Clone(), true
}

func (l *Loader) remember(graph matrix.DependencyGraph) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	l.last = graph.Clone()
	l.lastAt = l.now()
	l.mu.Unlock()
}
