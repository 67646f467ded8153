package depgraph

import (
	"context"
	"errors"

	"github.com/yungbote/portfolio-backend/internal/matrix"
)

// ErrGraphLoad wraps every failure to obtain a dependency graph: transport,
// upstream status, malformed payload or a graph that does not fit the catalog.
var ErrGraphLoad = errors.New("dependency graph load failed")

// Source delivers the dependency graph for a workspace.
type Source interface {
	Fetch(ctx context.Context) (matrix.DependencyGraph, error)
}

// StaticSource serves a fixed graph, normally the one in the catalog definition.
type StaticSource struct {
	Graph matrix.DependencyGraph
}

func (s StaticSource) Fetch(ctx context.Context) (matrix.DependencyGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Graph.Clone(), nil
}
