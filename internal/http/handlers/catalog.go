package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
)

// LevelsSource groups modules by dependency depth in the graph workspaces
// are currently given.
type LevelsSource interface {
	Levels(ctx context.Context) ([][]matrix.Module, error)
}

type CatalogHandler struct {
	catalog *matrix.Catalog
	levels  LevelsSource
}

// NewCatalogHandler serves the module catalog. levels may be nil.
func NewCatalogHandler(catalog *matrix.Catalog, levels LevelsSource) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, levels: levels}
}

// GET /api/catalog
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	body := gin.H{
		"modules":        h.catalog.Names(),
		"kinds":          matrix.Kinds,
		"levels":         nil,
		"adoption_slots": matrix.AdoptionSlots,
		"default_params": optimizer.DefaultRunParams(),
	}
	if h.levels != nil {
		levels, err := h.levels.Levels(c.Request.Context())
		if err != nil {
			body["graph_error"] = err.Error()
		} else {
			body["levels"] = h.named(levels)
		}
	}
	response.RespondOK(c, body)
}

func (h *CatalogHandler) named(levels [][]matrix.Module) [][]string {
	out := make([][]string, 0, len(levels))
	for _, level := range levels {
		names := make([]string, 0, len(level))
		for _, m := range level {
			names = append(names, h.catalog.Name(m))
		}
		out = append(out, names)
	}
	return out
}
