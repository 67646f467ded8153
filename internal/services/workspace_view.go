package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
)

type EdgeView struct {
	Key   string       `json:"key"`
	From  string       `json:"from"`
	To    string       `json:"to"`
	Value matrix.Value `json:"value"`
}

type ModuleView struct {
	Module  int          `json:"module"`
	Name    string       `json:"name"`
	Default matrix.Value `json:"default"`
	Custom  bool         `json:"custom"`
	Edges   []EdgeView   `json:"edges"`
}

type KindView struct {
	GlobalDefault matrix.Value `json:"global_default"`
	Modules       []ModuleView `json:"modules"`
}

type DetailView struct {
	Kind   matrix.ValueKind `json:"kind"`
	Module int              `json:"module"`
	Name   string           `json:"name"`
	Edges  []EdgeView       `json:"edges"`
}

type AdoptionView struct {
	Rates   matrix.AdoptionRates  `json:"rates"`
	Changed bool                  `json:"changed"`
	Working *matrix.AdoptionRates `json:"working,omitempty"`
}

// WorkspaceView is everything the configurator screen renders.
type WorkspaceView struct {
	ID          uuid.UUID                     `json:"id"`
	Version     int                           `json:"version"`
	GraphLoaded bool                          `json:"graph_loaded"`
	Kinds       map[matrix.ValueKind]KindView `json:"kinds"`
	Details     []DetailView                  `json:"details"`
	Adoption    AdoptionView                  `json:"adoption"`
	Params      optimizer.RunParams           `json:"params"`
	Submitting  bool                          `json:"submitting"`
	LastError   string                        `json:"last_error,omitempty"`
	LastResult  *optimizer.Result             `json:"last_result,omitempty"`
	Incomplete  []string                      `json:"incomplete,omitempty"`
}

type MatricesView struct {
	Interaction *matrix.Matrix `json:"interaction"`
	Information *matrix.Matrix `json:"information"`
}

func edgeViews(c *matrix.Catalog, edges []matrix.EdgeValue) []EdgeView {
	out := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeView{
			Key:   c.WireKey(e.Key),
			From:  c.Name(e.Key.From),
			To:    c.Name(e.Key.To),
			Value: e.Value,
		})
	}
	return out
}

func detailView(c *matrix.Catalog, s *matrix.DetailSession) *DetailView {
	return &DetailView{
		Kind:   s.Kind(),
		Module: int(s.Module()),
		Name:   c.Name(s.Module()),
		Edges:  edgeViews(c, s.Working()),
	}
}

func adoptionView(e *matrix.Engine) *AdoptionView {
	rates, changed := e.Adoption()
	v := &AdoptionView{Rates: rates, Changed: changed}
	if ed, ok := e.AdoptionEditor(); ok {
		working := ed.Working()
		v.Working = &working
	}
	return v
}

// view renders ws; callers hold ws.mu.
func (ws *workspace) view() (*WorkspaceView, error) {
	e := ws.engine
	c := e.Catalog()
	out := &WorkspaceView{
		ID:          ws.id,
		Version:     ws.version,
		GraphLoaded: e.GraphLoaded(),
		Kinds:       make(map[matrix.ValueKind]KindView, len(matrix.Kinds)),
		Details:     []DetailView{},
		Adoption:    *adoptionView(e),
		Params:      ws.params,
		Submitting:  ws.submitting,
		LastError:   ws.lastError,
		LastResult:  ws.lastResult,
		Incomplete:  e.Incomplete(),
	}
	for _, kind := range matrix.Kinds {
		states, err := e.Modules(kind)
		if err != nil {
			return nil, err
		}
		kv := KindView{GlobalDefault: e.GlobalDefault(kind), Modules: make([]ModuleView, 0, len(states))}
		for _, st := range states {
			kv.Modules = append(kv.Modules, ModuleView{
				Module:  int(st.Module),
				Name:    st.Name,
				Default: st.Default,
				Custom:  st.Custom,
				Edges:   edgeViews(c, st.Edges),
			})
		}
		out.Kinds[kind] = kv
	}
	for _, s := range e.OpenDetails() {
		out.Details = append(out.Details, *detailView(c, s))
	}
	return out, nil
}
