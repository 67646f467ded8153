package matrix

import (
	"sort"
)

type detailTarget struct {
	kind   ValueKind
	module Module
}

// Engine owns the per-module defaults and the per-edge store for both value
// kinds, and is the only writer of either. Every write goes through
// SetDefault, SetGlobalDefault, ApplyDetailCommit or OnDependencyGraphLoaded.
//
// An Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	catalog *Catalog
	graph   DependencyGraph
	loaded  bool

	defaults map[ValueKind]map[Module]Value
	edges    map[ValueKind]map[EdgeKey]Value
	global   map[ValueKind]Value

	details map[detailTarget]*DetailSession

	adoption        AdoptionRates
	adoptionChanged bool
	adoptionEditor  *AdoptionEditor
}

// NewEngine seeds every module default of each kind with initial[kind]
// (0 when a kind is missing). No edges exist until a graph is loaded.
func NewEngine(catalog *Catalog, initial map[ValueKind]Value) *Engine {
	e := &Engine{
		catalog:  catalog,
		graph:    DependencyGraph{},
		defaults: make(map[ValueKind]map[Module]Value, len(Kinds)),
		edges:    make(map[ValueKind]map[EdgeKey]Value, len(Kinds)),
		global:   make(map[ValueKind]Value, len(Kinds)),
		details:  map[detailTarget]*DetailSession{},
	}
	for _, k := range Kinds {
		v, ok := initial[k]
		if !ok {
			v = Num(0)
		}
		e.global[k] = v
		e.defaults[k] = make(map[Module]Value, catalog.Len())
		for _, m := range catalog.Modules() {
			e.defaults[k][m] = v
		}
		e.edges[k] = map[EdgeKey]Value{}
	}
	return e
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

func (e *Engine) GraphLoaded() bool { return e.loaded }

func (e *Engine) Graph() DependencyGraph { return e.graph.Clone() }

func (e *Engine) check(kind ValueKind, m Module) error {
	if !kind.Valid() {
		return invariantf("value kind %q", string(kind))
	}
	if !e.catalog.Contains(m) {
		return invariantf("module %d is not in the catalog", int(m))
	}
	return nil
}

// SetDefault sets m's default under kind and fans it out to every incoming
// edge of m, so the module is never custom right after.
func (e *Engine) SetDefault(kind ValueKind, m Module, v Value) error {
	if err := e.check(kind, m); err != nil {
		return err
	}
	e.setDefault(kind, m, v)
	e.syncGlobal(kind)
	return nil
}

func (e *Engine) setDefault(kind ValueKind, m Module, v Value) {
	e.defaults[kind][m] = v
	for _, key := range e.graph.Edges(m) {
		e.edges[kind][key] = v
	}
}

// SetGlobalDefault applies SetDefault to every catalog module and updates the
// global display value for kind.
func (e *Engine) SetGlobalDefault(kind ValueKind, v Value) error {
	if !kind.Valid() {
		return invariantf("value kind %q", string(kind))
	}
	for _, m := range e.catalog.Modules() {
		e.setDefault(kind, m, v)
	}
	e.global[kind] = v
	return nil
}

// syncGlobal makes the global display value follow the module defaults
// whenever they all agree.
func (e *Engine) syncGlobal(kind ValueKind) {
	values := make([]Value, 0, e.catalog.Len())
	for _, m := range e.catalog.Modules() {
		values = append(values, e.defaults[kind][m])
	}
	if v, ok := uniform(values); ok {
		e.global[kind] = v
	}
}

// ApplyDetailCommit writes a full set of edge values for m. edits must cover
// exactly m's incoming edges. When every committed value is the same, m's
// default collapses to it.
func (e *Engine) ApplyDetailCommit(kind ValueKind, m Module, edits map[EdgeKey]Value) error {
	if err := e.check(kind, m); err != nil {
		return err
	}
	want := e.graph.Edges(m)
	if len(edits) != len(want) {
		return invariantf("detail commit for %s/%s has %d edges, want %d", kind, e.catalog.Name(m), len(edits), len(want))
	}
	values := make([]Value, 0, len(want))
	for _, key := range want {
		v, ok := edits[key]
		if !ok {
			return invariantf("detail commit for %s/%s is missing edge %s", kind, e.catalog.Name(m), e.catalog.WireKey(key))
		}
		values = append(values, v)
	}

	for i, key := range want {
		e.edges[kind][key] = values[i]
	}
	if v, ok := uniform(values); ok {
		e.defaults[kind][m] = v
		e.syncGlobal(kind)
	}
	return nil
}

// OnDependencyGraphLoaded installs graph and seeds every implied edge with its
// module's current default. A second call is a fresh load: edges are rebuilt
// and any open detail sessions are closed.
func (e *Engine) OnDependencyGraphLoaded(graph DependencyGraph) error {
	if graph == nil {
		graph = DependencyGraph{}
	}
	if err := graph.Validate(e.catalog); err != nil {
		return err
	}
	for target, s := range e.details {
		s.closed = true
		delete(e.details, target)
	}
	e.graph = graph.Clone()
	e.loaded = true
	for _, kind := range Kinds {
		store := make(map[EdgeKey]Value, e.graph.EdgeCount())
		for _, m := range e.catalog.Modules() {
			for _, key := range e.graph.Edges(m) {
				store[key] = e.defaults[kind][m]
			}
		}
		e.edges[kind] = store
	}
	return nil
}

// Custom reports whether m's incoming edges under kind are anything other
// than a single value equal to m's default. A module without incoming edges
// is never custom.
func (e *Engine) Custom(kind ValueKind, m Module) (bool, error) {
	if err := e.check(kind, m); err != nil {
		return false, err
	}
	return e.custom(kind, m), nil
}

func (e *Engine) custom(kind ValueKind, m Module) bool {
	def := e.defaults[kind][m]
	for _, key := range e.graph.Edges(m) {
		if !e.edges[kind][key].Equal(def) {
			return true
		}
	}
	return false
}

func (e *Engine) ModuleDefault(kind ValueKind, m Module) (Value, error) {
	if err := e.check(kind, m); err != nil {
		return Empty, err
	}
	return e.defaults[kind][m], nil
}

func (e *Engine) GlobalDefault(kind ValueKind) Value {
	return e.global[kind]
}

// Edge returns the stored value for key, if the graph implies that edge.
func (e *Engine) Edge(kind ValueKind, key EdgeKey) (Value, bool) {
	v, ok := e.edges[kind][key]
	return v, ok
}

// EdgeValue pairs an edge with its value.
type EdgeValue struct {
	Key   EdgeKey
	Value Value
}

// ModuleState is a read-only view of one module under one kind.
type ModuleState struct {
	Module  Module
	Name    string
	Default Value
	Custom  bool
	Edges   []EdgeValue
}

// Modules returns the state of every catalog module under kind, in catalog order.
func (e *Engine) Modules(kind ValueKind) ([]ModuleState, error) {
	if !kind.Valid() {
		return nil, invariantf("value kind %q", string(kind))
	}
	out := make([]ModuleState, 0, e.catalog.Len())
	for _, m := range e.catalog.Modules() {
		st := ModuleState{
			Module:  m,
			Name:    e.catalog.Name(m),
			Default: e.defaults[kind][m],
			Custom:  e.custom(kind, m),
		}
		for _, key := range e.graph.Edges(m) {
			st.Edges = append(st.Edges, EdgeValue{Key: key, Value: e.edges[kind][key]})
		}
		out = append(out, st)
	}
	return out, nil
}

// Incomplete lists every default and edge still holding the empty sentinel,
// as "<kind> default <module>" or "<kind> edge <from>-<to>".
func (e *Engine) Incomplete() []string {
	var out []string
	for _, kind := range Kinds {
		for _, m := range e.catalog.Modules() {
			if e.defaults[kind][m].IsEmpty() {
				out = append(out, string(kind)+" default "+e.catalog.Name(m))
			}
		}
		keys := make([]EdgeKey, 0, len(e.edges[kind]))
		for key, v := range e.edges[kind] {
			if v.IsEmpty() {
				keys = append(keys, key)
			}
		}
		sortEdgeKeys(keys)
		for _, key := range keys {
			out = append(out, string(kind)+" edge "+e.catalog.WireKey(key))
		}
	}
	return out
}

func sortEdgeKeys(keys []EdgeKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
}
