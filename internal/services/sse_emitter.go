package services

import (
	"context"

	"github.com/yungbote/portfolio-backend/internal/realtime"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// Watching reports whether any client listens on channel.
func (e *HubEmitter) Watching(channel string) bool {
	if e == nil || e.Hub == nil {
		return false
	}
	return e.Hub.Subscribers(channel) > 0
}
