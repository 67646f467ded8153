package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/platform/logger"
	"github.com/yungbote/portfolio-backend/internal/realtime"
	"github.com/yungbote/portfolio-backend/internal/services"
)

type RealtimeHandler struct {
	log        *logger.Logger
	hub        *realtime.SSEHub
	workspaces services.WorkspaceService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, workspaces services.WorkspaceService) *RealtimeHandler {
	return &RealtimeHandler{
		log:        log.With("handler", "RealtimeHandler"),
		hub:        hub,
		workspaces: workspaces,
	}
}

// GET /api/workspaces/:id/events
//
// The first frame is the current workspace; later frames follow every
// committed change, graph delivery and optimization run.
func (h *RealtimeHandler) WorkspaceEvents(c *gin.Context) {
	id, ok := workspaceParam(c)
	if !ok {
		return
	}
	view, err := h.workspaces.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "get_workspace_failed")
		return
	}

	client := h.hub.NewSSEClient(id)
	channel := realtime.WorkspaceChannel(id)
	// queued before subscribing so the buffer has room for it
	client.Outbound <- realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventWorkspaceUpdated,
		Data:    map[string]any{"workspace": view},
	}
	h.hub.AddChannel(client, channel)
	defer h.hub.CloseClient(client)

	h.log.Debug("SSE stream open", "workspace_id", id, "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
