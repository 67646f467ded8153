package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/services"
)

type AdoptionHandler struct {
	workspaces services.WorkspaceService
}

func NewAdoptionHandler(workspaces services.WorkspaceService) *AdoptionHandler {
	return &AdoptionHandler{workspaces: workspaces}
}

type editAdoptionRequest struct {
	Rates map[string]float64 `json:"rates" binding:"required"`
}

// POST /api/workspaces/:id/adoption
func (h *AdoptionHandler) OpenAdoption(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	av, err := h.workspaces.OpenAdoption(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "open_adoption_failed")
		return
	}
	response.RespondCreated(c, gin.H{"adoption": av})
}

// PATCH /api/workspaces/:id/adoption
func (h *AdoptionHandler) EditAdoption(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	var req editAdoptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rates := make(map[int]float64, len(req.Rates))
	for raw, v := range req.Rates {
		i, err := parseAdoptionIndex(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_adoption_index", err)
			return
		}
		rates[i] = v
	}
	av, err := h.workspaces.EditAdoption(c.Request.Context(), id, rates)
	if err != nil {
		respondErr(c, err, "edit_adoption_failed")
		return
	}
	response.RespondOK(c, gin.H{"adoption": av})
}

// POST /api/workspaces/:id/adoption/commit
func (h *AdoptionHandler) CommitAdoption(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	view, err := h.workspaces.CommitAdoption(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "commit_adoption_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}

// DELETE /api/workspaces/:id/adoption
func (h *AdoptionHandler) CancelAdoption(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	view, err := h.workspaces.CancelAdoption(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "cancel_adoption_failed")
		return
	}
	response.RespondOK(c, gin.H{"workspace": view})
}
