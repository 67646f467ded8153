package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/portfolio-backend/internal/optimizer"
	"github.com/yungbote/portfolio-backend/internal/realtime"
)

// WorkspaceNotifier pushes workspace changes to open event streams.
type WorkspaceNotifier interface {
	WorkspaceUpdated(id uuid.UUID, view *WorkspaceView)
	GraphLoaded(id uuid.UUID, edges int)
	GraphLoadFailed(id uuid.UUID, reason string)
	OptimizationStarted(id uuid.UUID)
	OptimizationFinished(id uuid.UUID, res *optimizer.Result)
	OptimizationFailed(id uuid.UUID, reason string)
	// Watching reports whether a client has the workspace's stream open.
	Watching(id uuid.UUID) bool
}

// watcher is implemented by emitters that know their audience.
type watcher interface {
	Watching(channel string) bool
}

type workspaceNotifier struct {
	emit SSEEmitter
}

// NewWorkspaceNotifier returns a notifier that drops everything when emit is nil.
func NewWorkspaceNotifier(emit SSEEmitter) WorkspaceNotifier {
	return &workspaceNotifier{emit: emit}
}

func (n *workspaceNotifier) send(id uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || id == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.WorkspaceChannel(id),
		Event:   event,
		Data:    data,
	})
}

func (n *workspaceNotifier) WorkspaceUpdated(id uuid.UUID, view *WorkspaceView) {
	n.send(id, realtime.SSEEventWorkspaceUpdated, map[string]any{"workspace": view})
}

func (n *workspaceNotifier) GraphLoaded(id uuid.UUID, edges int) {
	n.send(id, realtime.SSEEventGraphLoaded, map[string]any{"edges": edges})
}

func (n *workspaceNotifier) GraphLoadFailed(id uuid.UUID, reason string) {
	n.send(id, realtime.SSEEventGraphLoadFailed, map[string]any{"error": reason})
}

func (n *workspaceNotifier) OptimizationStarted(id uuid.UUID) {
	n.send(id, realtime.SSEEventOptimizationStarted, nil)
}

func (n *workspaceNotifier) OptimizationFinished(id uuid.UUID, res *optimizer.Result) {
	n.send(id, realtime.SSEEventOptimizationFinished, map[string]any{"result": res, "summary": res.Summary()})
}

func (n *workspaceNotifier) OptimizationFailed(id uuid.UUID, reason string) {
	n.send(id, realtime.SSEEventOptimizationFailed, map[string]any{"error": reason})
}

func (n *workspaceNotifier) Watching(id uuid.UUID) bool {
	if n == nil || n.emit == nil {
		return false
	}
	w, ok := n.emit.(watcher)
	return ok && w.Watching(realtime.WorkspaceChannel(id))
}
