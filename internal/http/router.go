package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/portfolio-backend/internal/http/handlers"
	httpMW "github.com/yungbote/portfolio-backend/internal/http/middleware"
	"github.com/yungbote/portfolio-backend/internal/observability"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// ServiceName labels server spans; empty disables otelgin.
	ServiceName    string
	AllowedOrigins []string

	HealthHandler    *httpH.HealthHandler
	CatalogHandler   *httpH.CatalogHandler
	WorkspaceHandler *httpH.WorkspaceHandler
	DetailHandler    *httpH.DetailHandler
	AdoptionHandler  *httpH.AdoptionHandler
	RealtimeHandler  *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log.With("component", "http")))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", func(c *gin.Context) { cfg.Metrics.WriteHTTP(c.Writer, c.Request) })
	}

	api := r.Group("/api")
	{
		// Catalog
		if cfg.CatalogHandler != nil {
			api.GET("/catalog", cfg.CatalogHandler.GetCatalog)
		}

		// Workspace
		if cfg.WorkspaceHandler != nil {
			api.POST("/workspaces", cfg.WorkspaceHandler.CreateWorkspace)
			api.GET("/workspaces", cfg.WorkspaceHandler.ListWorkspaces)
			api.GET("/workspaces/:id", cfg.WorkspaceHandler.GetWorkspace)
			api.PUT("/workspaces/:id/defaults/:kind", cfg.WorkspaceHandler.SetGlobalDefault)
			api.PUT("/workspaces/:id/modules/:module/defaults/:kind", cfg.WorkspaceHandler.SetModuleDefault)
			api.PUT("/workspaces/:id/params", cfg.WorkspaceHandler.SetParams)
			api.GET("/workspaces/:id/matrices", cfg.WorkspaceHandler.GetMatrices)
			api.POST("/workspaces/:id/optimize", cfg.WorkspaceHandler.Optimize)
			api.GET("/workspaces/:id/runs", cfg.WorkspaceHandler.ListRuns)
		}

		// Detail view
		if cfg.DetailHandler != nil {
			api.POST("/workspaces/:id/modules/:module/details/:kind", cfg.DetailHandler.OpenDetail)
			api.PATCH("/workspaces/:id/modules/:module/details/:kind", cfg.DetailHandler.EditDetail)
			api.POST("/workspaces/:id/modules/:module/details/:kind/commit", cfg.DetailHandler.CommitDetail)
			api.DELETE("/workspaces/:id/modules/:module/details/:kind", cfg.DetailHandler.CancelDetail)
		}

		// Adoption rates
		if cfg.AdoptionHandler != nil {
			api.POST("/workspaces/:id/adoption", cfg.AdoptionHandler.OpenAdoption)
			api.PATCH("/workspaces/:id/adoption", cfg.AdoptionHandler.EditAdoption)
			api.POST("/workspaces/:id/adoption/commit", cfg.AdoptionHandler.CommitAdoption)
			api.DELETE("/workspaces/:id/adoption", cfg.AdoptionHandler.CancelAdoption)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/workspaces/:id/events", cfg.RealtimeHandler.WorkspaceEvents)
		}
	}

	return r
}
