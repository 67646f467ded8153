package matrix

import "fmt"

// Snapshot is the persistable state of an Engine. Open editing sessions are
// transient and not part of it.
type Snapshot struct {
	GraphLoaded     bool                            `json:"graph_loaded"`
	Graph           DependencyGraph                 `json:"graph"`
	Defaults        map[ValueKind]map[Module]Value  `json:"defaults"`
	Edges           map[ValueKind]map[EdgeKey]Value `json:"edges"`
	Global          map[ValueKind]Value             `json:"global"`
	Adoption        AdoptionRates                   `json:"adoption"`
	AdoptionChanged bool                            `json:"adoption_changed"`
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		GraphLoaded:     e.loaded,
		Graph:           e.graph.Clone(),
		Defaults:        make(map[ValueKind]map[Module]Value, len(Kinds)),
		Edges:           make(map[ValueKind]map[EdgeKey]Value, len(Kinds)),
		Global:          make(map[ValueKind]Value, len(Kinds)),
		Adoption:        e.adoption,
		AdoptionChanged: e.adoptionChanged,
	}
	for _, k := range Kinds {
		s.Global[k] = e.global[k]
		s.Defaults[k] = make(map[Module]Value, len(e.defaults[k]))
		for m, v := range e.defaults[k] {
			s.Defaults[k][m] = v
		}
		s.Edges[k] = make(map[EdgeKey]Value, len(e.edges[k]))
		for key, v := range e.edges[k] {
			s.Edges[k][key] = v
		}
	}
	return s
}

// Restore rebuilds an Engine from a snapshot taken against the same catalog.
// Every module needs a default and every edge the graph implies needs a value.
func Restore(catalog *Catalog, s Snapshot) (*Engine, error) {
	e := NewEngine(catalog, nil)
	if s.Graph == nil {
		s.Graph = DependencyGraph{}
	}
	if err := s.Graph.Validate(catalog); err != nil {
		return nil, err
	}
	e.graph = s.Graph.Clone()
	e.loaded = s.GraphLoaded
	e.adoption = s.Adoption
	e.adoptionChanged = s.AdoptionChanged

	for _, k := range Kinds {
		defs := s.Defaults[k]
		for _, m := range catalog.Modules() {
			v, ok := defs[m]
			if !ok {
				return nil, fmt.Errorf("restore: %s default for %s missing", k, catalog.Name(m))
			}
			e.defaults[k][m] = v
		}
		store := make(map[EdgeKey]Value, e.graph.EdgeCount())
		for _, m := range catalog.Modules() {
			for _, key := range e.graph.Edges(m) {
				v, ok := s.Edges[k][key]
				if !ok {
					return nil, fmt.Errorf("restore: %s edge %s missing", k, catalog.WireKey(key))
				}
				store[key] = v
			}
		}
		if len(s.Edges[k]) != len(store) {
			return nil, fmt.Errorf("restore: %s has %d edges, graph implies %d", k, len(s.Edges[k]), len(store))
		}
		e.edges[k] = store
		if g, ok := s.Global[k]; ok {
			e.global[k] = g
		} else {
			e.syncGlobal(k)
		}
	}
	return e, nil
}
