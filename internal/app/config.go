package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/portfolio-backend/internal/data/db"
	"github.com/yungbote/portfolio-backend/internal/platform/envutil"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is "postgres", "sqlite" or empty to keep workspaces in memory only.
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	GraphTTL time.Duration `yaml:"graph_ttl"`
}

type CatalogConfig struct {
	// Path overrides the embedded catalog definition.
	Path string `yaml:"path"`
}

type DependencyConfig struct {
	// BaseURL of the preprocessing service. Empty serves the graph shipped
	// with the catalog definition.
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type OptimizerConfig struct {
	BaseURL string        `yaml:"base_url"`
	RunPath string        `yaml:"run_path"`
	Timeout time.Duration `yaml:"timeout"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Addr starts a dedicated listener; /metrics on the API router is always
	// mounted when metrics are enabled.
	Addr string `yaml:"addr"`
}

type WorkspaceConfig struct {
	InitialInteraction float64       `yaml:"initial_interaction"`
	InitialInformation float64       `yaml:"initial_information"`
	GraphLoadTimeout   time.Duration `yaml:"graph_load_timeout"`
	// IdleTTL drops stored workspaces from memory after this long unused.
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxWorkspaces int           `yaml:"max_workspaces"`
}

type Config struct {
	Env        string           `yaml:"env"`
	Version    string           `yaml:"version"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Dependency DependencyConfig `yaml:"dependencies"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			SlowThreshold: 200 * time.Millisecond,
		},
		Redis: RedisConfig{
			Prefix:   "portfolio:depgraph:",
			GraphTTL: 10 * time.Minute,
		},
		Dependency: DependencyConfig{
			Path:    "/get-preprocessed-data",
			Timeout: 30 * time.Second,
		},
		Optimizer: OptimizerConfig{
			BaseURL: "http://localhost:5000",
			RunPath: "/run-ga",
			Timeout: 10 * time.Minute,
		},
		Tracing: TracingConfig{
			ServiceName: "portfolio-backend",
			SampleRatio: 1,
		},
		Workspace: WorkspaceConfig{
			InitialInteraction: 20,
			InitialInformation: 0,
			GraphLoadTimeout:   30 * time.Second,
			IdleTTL:            30 * time.Minute,
			SweepInterval:      time.Minute,
			MaxWorkspaces:      10000,
		},
	}
}

// LoadConfig layers defaults, the YAML file named by PO_CONFIG_PATH (or
// ./config/config.yaml when present) and environment overrides.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := envutil.String("PO_CONFIG_PATH", "")
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Unmarshal over the defaults so a partial file keeps the rest.
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.Version = envutil.String("PO_VERSION", cfg.Version)

	cfg.HTTP.Addr = envutil.String("PO_HTTP_ADDR", cfg.HTTP.Addr)
	if port := envutil.String("PORT", ""); port != "" && envutil.String("PO_HTTP_ADDR", "") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.ShutdownTimeout = envutil.Duration("PO_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
	if origins := envutil.String("PO_CORS_ORIGINS", ""); origins != "" {
		cfg.HTTP.AllowedOrigins = splitList(origins)
	}

	cfg.Database.Driver = envutil.String("PO_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("PO_DB_DSN", cfg.Database.DSN)
	cfg.Database.SlowThreshold = envutil.Duration("PO_DB_SLOW_THRESHOLD", cfg.Database.SlowThreshold)

	cfg.Redis.Addr = envutil.String("PO_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("PO_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("PO_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = envutil.String("PO_REDIS_PREFIX", cfg.Redis.Prefix)
	cfg.Redis.GraphTTL = envutil.Duration("PO_GRAPH_CACHE_TTL", cfg.Redis.GraphTTL)

	cfg.Catalog.Path = envutil.String("PO_CATALOG_PATH", cfg.Catalog.Path)

	cfg.Dependency.BaseURL = envutil.String("PO_DEPENDENCY_BASE_URL", cfg.Dependency.BaseURL)
	cfg.Dependency.Path = envutil.String("PO_DEPENDENCY_PATH", cfg.Dependency.Path)
	cfg.Dependency.Timeout = envutil.Duration("PO_DEPENDENCY_TIMEOUT", cfg.Dependency.Timeout)

	cfg.Optimizer.BaseURL = envutil.String("PO_OPTIMIZER_BASE_URL", cfg.Optimizer.BaseURL)
	cfg.Optimizer.RunPath = envutil.String("PO_OPTIMIZER_RUN_PATH", cfg.Optimizer.RunPath)
	cfg.Optimizer.Timeout = envutil.Duration("PO_OPTIMIZER_TIMEOUT", cfg.Optimizer.Timeout)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.SampleRatio = envutil.Float("OTEL_TRACES_SAMPLER_ARG", cfg.Tracing.SampleRatio)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	cfg.Tracing.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Tracing.Headers)

	cfg.Metrics.Enabled = envutil.Bool("PO_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("PO_METRICS_ADDR", cfg.Metrics.Addr)

	cfg.Workspace.InitialInteraction = envutil.Float("PO_INITIAL_INTERACTION", cfg.Workspace.InitialInteraction)
	cfg.Workspace.InitialInformation = envutil.Float("PO_INITIAL_INFORMATION", cfg.Workspace.InitialInformation)
	cfg.Workspace.GraphLoadTimeout = envutil.Duration("PO_GRAPH_LOAD_TIMEOUT", cfg.Workspace.GraphLoadTimeout)
	cfg.Workspace.IdleTTL = envutil.Duration("PO_WORKSPACE_IDLE_TTL", cfg.Workspace.IdleTTL)
	cfg.Workspace.SweepInterval = envutil.Duration("PO_WORKSPACE_SWEEP_INTERVAL", cfg.Workspace.SweepInterval)
	cfg.Workspace.MaxWorkspaces = envutil.Int("PO_MAX_WORKSPACES", cfg.Workspace.MaxWorkspaces)
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "", db.DriverSQLite:
	case db.DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q not supported", c.Database.Driver)
	}
	if strings.TrimSpace(c.Optimizer.BaseURL) == "" {
		return errors.New("optimizer.base_url is required")
	}
	if c.Workspace.MaxWorkspaces < 0 {
		return fmt.Errorf("workspace.max_workspaces %d is negative", c.Workspace.MaxWorkspaces)
	}
	if c.Workspace.IdleTTL > 0 && c.Workspace.SweepInterval <= 0 {
		c.Workspace.SweepInterval = time.Minute
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio %v outside [0,1]", c.Tracing.SampleRatio)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
