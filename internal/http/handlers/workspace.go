package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
	"github.com/yungbote/portfolio-backend/internal/services"
)

type WorkspaceHandler struct {
	workspaces services.WorkspaceService
}

func NewWorkspaceHandler(workspaces services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces}
}

// POST /api/workspaces
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	view, err := h.workspaces.Create(c.Request.Context())
	if err != nil {
		respondErr(c, err, "create_workspace_failed")
		return
	}
	response.RespondCreated(c, gin.H{"workspace": view})
}

// GET /api/workspaces
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	limit, ok := limitParam(c, 50)
	if !ok {
		return
	}
	ids, err := h.workspaces.List(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err, "list_workspaces_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspaces": ids})
}

// GET /api/workspaces/:id
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	view, err := h.workspaces.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "get_workspace_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// PUT /api/workspaces/:id/defaults/:kind
func (h *WorkspaceHandler) SetGlobalDefault(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := req.parse()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_value", err)
		return
	}
	view, err := h.workspaces.SetGlobalDefault(c.Request.Context(), id, kind, v)
	if err != nil {
		respondErr(c, err, "set_default_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// PUT /api/workspaces/:id/modules/:module/defaults/:kind
func (h *WorkspaceHandler) SetModuleDefault(c *gin.Context) {
	id, kind, m, ok := targetParams(c, h.workspaces.Catalog())
	if !ok {
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := req.parse()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_value", err)
		return
	}
	view, err := h.workspaces.SetDefault(c.Request.Context(), id, kind, m, v)
	if err != nil {
		respondErr(c, err, "set_default_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// PUT /api/workspaces/:id/params
func (h *WorkspaceHandler) SetParams(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	var req optimizer.RunParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.workspaces.SetParams(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err, "set_params_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// GET /api/workspaces/:id/matrices
func (h *WorkspaceHandler) GetMatrices(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	mats, err := h.workspaces.Assemble(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "assemble_failed")
		return
	}
	response.RespondOK(c, gin.H{"matrices": mats})
}

// POST /api/workspaces/:id/optimize
func (h *WorkspaceHandler) Optimize(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	res, err := h.workspaces.Submit(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "optimize_failed")
		return
	}
	response.RespondOK(c, gin.H{"result": res, "summary": res.Summary()})
}

// GET /api/workspaces/:id/runs?limit=20
func (h *WorkspaceHandler) ListRuns(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	limit, ok := limitParam(c, 20)
	if !ok {
		return
	}
	runs, err := h.workspaces.Runs(c.Request.Context(), id, limit)
	if err != nil {
		respondErr(c, err, "list_runs_failed")
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

func limitParam(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
		return 0, false
	}
	return n, true
}
