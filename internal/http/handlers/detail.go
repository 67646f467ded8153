package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/services"
)

type DetailHandler struct {
	workspaces services.WorkspaceService
}

func NewDetailHandler(workspaces services.WorkspaceService) *DetailHandler {
	return &DetailHandler{workspaces: workspaces}
}

type editDetailRequest struct {
	// Edges maps "<from>-<to>" (names or 1-based indexes) to a value or null.
	Edges map[string]matrix.Value `json:"edges" binding:"required"`
}

// POST /api/workspaces/:id/modules/:module/details/:kind
func (h *DetailHandler) OpenDetail(c *gin.Context) {
	id, kind, m, ok := targetParams(c, h.workspaces.Catalog())
	if !ok {
		return
	}
	detail, err := h.workspaces.OpenDetail(c.Request.Context(), id, kind, m)
	if err != nil {
		respondErr(c, err, "open_detail_failed")
		return
	}
	response.RespondCreated(c, gin.H{"detail": detail})
}

// PATCH /api/workspaces/:id/modules/:module/details/:kind
func (h *DetailHandler) EditDetail(c *gin.Context) {
	catalog := h.workspaces.Catalog()
	id, kind, m, ok := targetParams(c, catalog)
	if !ok {
		return
	}
	var req editDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	edits := make(map[matrix.EdgeKey]matrix.Value, len(req.Edges))
	for raw, v := range req.Edges {
		key, err := catalog.ParseWireKey(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "unknown_edge", err)
			return
		}
		edits[key] = v
	}
	detail, err := h.workspaces.EditDetail(c.Request.Context(), id, kind, m, edits)
	if err != nil {
		respondErr(c, err, "edit_detail_failed")
		return
	}
	response.RespondOK(c, gin.H{"detail": detail})
}

// POST /api/workspaces/:id/modules/:module/details/:kind/commit
func (h *DetailHandler) CommitDetail(c *gin.Context) {
	id, kind, m, ok := targetParams(c, h.workspaces.Catalog())
	if !ok {
		return
	}
	view, err := h.workspaces.CommitDetail(c.Request.Context(), id, kind, m)
	if err != nil {
		respondErr(c, err, "commit_detail_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// DELETE /api/workspaces/:id/modules/:module/details/:kind
func (h *DetailHandler) CancelDetail(c *gin.Context) {
	id, kind, m, ok := targetParams(c, h.workspaces.Catalog())
	if !ok {
		return
	}
	view, err := h.workspaces.CancelDetail(c.Request.Context(), id, kind, m)
	if err != nil {
		respondErr(c, err, "cancel_detail_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}
