package matrix

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EdgeKey is an ordered (predecessor, module) pair.
type EdgeKey struct {
	From Module
	To   Module
}

func (k EdgeKey) String() string {
	return strconv.Itoa(int(k.From)) + "-" + strconv.Itoa(int(k.To))
}

func (k EdgeKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EdgeKey) UnmarshalText(b []byte) error {
	from, to, ok := strings.Cut(string(b), "-")
	if !ok {
		return fmt.Errorf("edge key %q: want <from>-<to>", string(b))
	}
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return fmt.Errorf("edge key %q: %w", string(b), err)
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return fmt.Errorf("edge key %q: %w", string(b), err)
	}
	*k = EdgeKey{From: Module(f), To: Module(t)}
	return nil
}

// DependencyGraph maps a module to its predecessors, in delivery order. A
// module without an entry has no incoming edges.
type DependencyGraph map[Module][]Module

// Predecessors returns a copy of m's predecessor list.
func (g DependencyGraph) Predecessors(m Module) []Module {
	return append([]Module(nil), g[m]...)
}

// Edges lists m's incoming edges in predecessor order.
func (g DependencyGraph) Edges(m Module) []EdgeKey {
	preds := g[m]
	out := make([]EdgeKey, 0, len(preds))
	for _, p := range preds {
		out = append(out, EdgeKey{From: p, To: m})
	}
	return out
}

// EdgeCount is the number of (predecessor, module) pairs in the graph.
func (g DependencyGraph) EdgeCount() int {
	n := 0
	for _, preds := range g {
		n += len(preds)
	}
	return n
}

func (g DependencyGraph) Clone() DependencyGraph {
	out := make(DependencyGraph, len(g))
	for m, preds := range g {
		out[m] = append([]Module(nil), preds...)
	}
	return out
}

// Validate rejects modules outside the catalog, self-dependencies and
// repeated predecessors (each would produce an EdgeKey that is not unique or
// not assemblable).
func (g DependencyGraph) Validate(c *Catalog) error {
	modules := make([]Module, 0, len(g))
	for m := range g {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i] < modules[j] })

	for _, m := range modules {
		if !c.Contains(m) {
			return fmt.Errorf("%w: module %d is not in the catalog", ErrInvalidGraph, int(m))
		}
		seen := make(map[Module]struct{}, len(g[m]))
		for _, p := range g[m] {
			if !c.Contains(p) {
				return fmt.Errorf("%w: %s lists unknown predecessor %d", ErrInvalidGraph, c.Name(m), int(p))
			}
			if p == m {
				return fmt.Errorf("%w: %s depends on itself", ErrInvalidGraph, c.Name(m))
			}
			if _, dup := seen[p]; dup {
				return fmt.Errorf("%w: %s lists %s twice", ErrInvalidGraph, c.Name(m), c.Name(p))
			}
			seen[p] = struct{}{}
		}
	}
	return nil
}
