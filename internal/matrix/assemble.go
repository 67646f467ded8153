package matrix

import "encoding/json"

// Matrix is a dense N×(N-1) assignment of strengths over every ordered pair
// of distinct catalog modules.
type Matrix struct {
	catalog *Catalog
	kind    ValueKind
	cells   map[EdgeKey]float64
}

// Assemble builds the dense matrix for kind. For each ordered pair (m1, m2)
// it uses the stored edge value, else m1's default, else 0. Empty values
// count as missing at each step.
func (e *Engine) Assemble(kind ValueKind) (*Matrix, error) {
	if !kind.Valid() {
		return nil, invariantf("value kind %q", string(kind))
	}
	n := e.catalog.Len()
	out := &Matrix{
		catalog: e.catalog,
		kind:    kind,
		cells:   make(map[EdgeKey]float64, n*(n-1)),
	}
	for _, m1 := range e.catalog.Modules() {
		fallback, ok := e.defaults[kind][m1].Float()
		if !ok {
			fallback = 0
		}
		for _, m2 := range e.catalog.Modules() {
			if m1 == m2 {
				continue
			}
			key := EdgeKey{From: m1, To: m2}
			if v, ok := e.edges[kind][key].Float(); ok {
				out.cells[key] = v
				continue
			}
			out.cells[key] = fallback
		}
	}
	return out, nil
}

func (m *Matrix) Kind() ValueKind { return m.kind }

func (m *Matrix) Len() int { return len(m.cells) }

func (m *Matrix) At(from, to Module) (float64, bool) {
	v, ok := m.cells[EdgeKey{From: from, To: to}]
	return v, ok
}

// Keys returns every cell key ordered by (from, to).
func (m *Matrix) Keys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(m.cells))
	for k := range m.cells {
		keys = append(keys, k)
	}
	sortEdgeKeys(keys)
	return keys
}

// Wire keys the matrix by "<from name>-<to name>".
func (m *Matrix) Wire() map[string]float64 {
	out := make(map[string]float64, len(m.cells))
	for k, v := range m.cells {
		out[m.catalog.WireKey(k)] = v
	}
	return out
}

func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Wire())
}
