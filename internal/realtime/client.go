package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

// SSEClient is one open event stream. Outbound is closed by CloseClient.
type SSEClient struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Channels    map[string]bool
	Outbound    chan SSEMessage
	done        chan struct{}
	Logger      *logger.Logger
}

// WorkspaceChannel names the channel carrying one workspace's events.
func WorkspaceChannel(id uuid.UUID) string {
	return "workspace:" + id.String()
}
