package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/portfolio-backend/internal/matrix"
)

// Levels groups catalog modules into precedence levels: level 0 has no
// predecessors, level k depends only on earlier levels. It fails when the
// graph has a cycle.
func Levels(c *matrix.Catalog, g matrix.DependencyGraph) ([][]matrix.Module, error) {
	inDegree := make(map[matrix.Module]int, c.Len())
	successors := make(map[matrix.Module][]matrix.Module, c.Len())
	for _, m := range c.Modules() {
		inDegree[m] = len(g[m])
		for _, p := range g[m] {
			successors[p] = append(successors[p], m)
		}
	}

	var queue []matrix.Module
	for _, m := range c.Modules() {
		if inDegree[m] == 0 {
			queue = append(queue, m)
		}
	}

	var levels [][]matrix.Module
	placed := 0
	for len(queue) > 0 {
		level := queue
		levels = append(levels, level)
		placed += len(level)

		var next []matrix.Module
		for _, u := range level {
			for _, v := range successors[u] {
				inDegree[v]--
				if inDegree[v] == 0 {
					next = append(next, v)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		queue = next
	}

	if placed != c.Len() {
		var stuck []string
		for _, m := range c.Modules() {
			if inDegree[m] > 0 {
				stuck = append(stuck, c.Name(m))
			}
		}
		return nil, fmt.Errorf("%w: cycle through %s", matrix.ErrInvalidGraph, strings.Join(stuck, ", "))
	}
	return levels, nil
}
