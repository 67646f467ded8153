package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/portfolio-backend/internal/data/db"
	"github.com/yungbote/portfolio-backend/internal/data/repos"
	"github.com/yungbote/portfolio-backend/internal/depgraph"
	apphttp "github.com/yungbote/portfolio-backend/internal/http"
	httpH "github.com/yungbote/portfolio-backend/internal/http/handlers"
	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/observability"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
	"github.com/yungbote/portfolio-backend/internal/realtime"
	"github.com/yungbote/portfolio-backend/internal/services"
)

type App struct {
	Log        *logger.Logger
	Cfg        *Config
	DB         *gorm.DB
	Catalog    *matrix.Catalog
	Workspaces services.WorkspaceService
	Metrics    *observability.Metrics

	server        *apphttp.Server
	traceShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a, err := build(context.Background(), log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, log *logger.Logger, cfg *Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}

	a.traceShutdown = observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
		SampleRatio: cfg.Tracing.SampleRatio,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     cfg.Tracing.Headers,
		Insecure:    cfg.Tracing.Insecure,
	})
	a.Metrics = observability.Init(log, cfg.Metrics.Enabled)

	log.Info("Loading catalog definition...", "path", cfg.Catalog.Path)
	def, err := depgraph.LoadDefinition(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	a.Catalog = def.Catalog
	if _, err := depgraph.Levels(def.Catalog, def.Graph); err != nil {
		return nil, fmt.Errorf("catalog definition: %w", err)
	}

	loader, err := wireGraphLoader(log, cfg, def)
	if err != nil {
		return nil, err
	}

	opt, err := optimizer.New(optimizer.Config{
		BaseURL: cfg.Optimizer.BaseURL,
		RunPath: cfg.Optimizer.RunPath,
		Timeout: cfg.Optimizer.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init optimizer client: %w", err)
	}

	var (
		snapshots repos.WorkspaceSnapshotRepo
		runs      repos.OptimizationRunRepo
	)
	dbCfg := db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, SlowThreshold: cfg.Database.SlowThreshold}
	if dbCfg.Enabled() {
		gdb, err := db.Open(log, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.DB = gdb
		snapshots = repos.NewWorkspaceSnapshotRepo(gdb, log)
		runs = repos.NewOptimizationRunRepo(gdb, log)
	} else {
		log.Warn("No database configured; workspaces will not survive a restart")
	}

	hub := realtime.NewSSEHub(log)
	notify := services.NewWorkspaceNotifier(&services.HubEmitter{Hub: hub})

	a.Workspaces = services.NewWorkspaceService(log, def.Catalog, loader, opt, snapshots, runs, notify, services.WorkspaceConfig{
		InitialDefaults: map[matrix.ValueKind]matrix.Value{
			matrix.Interaction: matrix.Num(cfg.Workspace.InitialInteraction),
			matrix.Information: matrix.Num(cfg.Workspace.InitialInformation),
		},
		InitialParams:    optimizer.DefaultRunParams(),
		GraphLoadTimeout: cfg.Workspace.GraphLoadTimeout,
		IdleTTL:          cfg.Workspace.IdleTTL,
		MaxWorkspaces:    cfg.Workspace.MaxWorkspaces,
	})

	log.Info("Wiring handlers...")
	routerCfg := apphttp.RouterConfig{
		Log:              log,
		Metrics:          a.Metrics,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		HealthHandler:    httpH.NewHealthHandler(a.ping),
		CatalogHandler:   httpH.NewCatalogHandler(def.Catalog, loader),
		WorkspaceHandler: httpH.NewWorkspaceHandler(a.Workspaces),
		DetailHandler:    httpH.NewDetailHandler(a.Workspaces),
		AdoptionHandler:  httpH.NewAdoptionHandler(a.Workspaces),
		RealtimeHandler:  httpH.NewRealtimeHandler(log, hub, a.Workspaces),
	}
	if cfg.Tracing.Enabled {
		routerCfg.ServiceName = cfg.Tracing.ServiceName
	}
	a.server = apphttp.NewServer(cfg.HTTP.Addr, routerCfg)
	a.server.OnShutdown(hub.Close)
	return a, nil
}

func wireGraphLoader(log *logger.Logger, cfg *Config, def *depgraph.Definition) (*depgraph.Loader, error) {
	var source depgraph.Source = depgraph.StaticSource{Graph: def.Graph}
	cacheKey := "static:" + def.Fingerprint
	if cfg.Dependency.BaseURL != "" {
		src, err := depgraph.NewHTTPSource(depgraph.HTTPSourceConfig{
			BaseURL: cfg.Dependency.BaseURL,
			Path:    cfg.Dependency.Path,
			Timeout: cfg.Dependency.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init dependency source: %w", err)
		}
		source = src
		cacheKey = cfg.Dependency.BaseURL + cfg.Dependency.Path
		log.Info("Dependency graph from preprocessing service", "base_url", cfg.Dependency.BaseURL)
	}

	cache, err := depgraph.NewRedisCache(log, depgraph.RedisCacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		log.Warn("Redis unavailable; dependency graph cache disabled", "error", err)
		cache = depgraph.NoopCache()
	}

	return depgraph.NewLoader(log, def.Catalog, source, cache, depgraph.LoaderConfig{
		CacheKey: cacheKey,
		CacheTTL: cfg.Redis.GraphTTL,
	}), nil
}

func (a *App) ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Run serves until ctx is cancelled or the listener fails, then shuts the
// server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return errors.New("app not initialized")
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", a.server.Addr())
		return a.server.Run()
	})
	g.Go(func() error {
		a.sweepIdle(gctx, a.Cfg.Workspace.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.Log.Info("Shutting down server...")
		return a.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sweepIdle evicts idle workspaces every interval until ctx is done.
func (a *App) sweepIdle(ctx context.Context, interval time.Duration) {
	if a.Workspaces == nil || a.DB == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Workspaces.Sweep(ctx)
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(context.Background()); err != nil {
			a.Log.Warn("trace shutdown failed", "error", err)
		}
	}
	if err := db.Close(a.DB); err != nil {
		a.Log.Warn("database close failed", "error", err)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
