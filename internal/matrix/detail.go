package matrix

// DetailSession is a working copy of one module's incoming edges under one
// kind. Edits stay local until Commit; Cancel drops them.
type DetailSession struct {
	engine  *Engine
	target  detailTarget
	order   []EdgeKey
	working map[EdgeKey]Value
	closed  bool
}

// OpenDetail snapshots m's incoming edges under kind. Only one session per
// (kind, module) may be open. Before a graph is loaded the working copy is
// empty.
func (e *Engine) OpenDetail(kind ValueKind, m Module) (*DetailSession, error) {
	if err := e.check(kind, m); err != nil {
		return nil, err
	}
	target := detailTarget{kind: kind, module: m}
	if _, open := e.details[target]; open {
		return nil, ErrSessionActive
	}
	order := e.graph.Edges(m)
	working := make(map[EdgeKey]Value, len(order))
	for _, key := range order {
		v, ok := e.edges[kind][key]
		if !ok {
			v = e.defaults[kind][m]
		}
		working[key] = v
	}
	s := &DetailSession{engine: e, target: target, order: order, working: working}
	e.details[target] = s
	return s, nil
}

// Detail returns the open session for (kind, m), if any.
func (e *Engine) Detail(kind ValueKind, m Module) (*DetailSession, bool) {
	s, ok := e.details[detailTarget{kind: kind, module: m}]
	return s, ok
}

// OpenDetails lists the open sessions ordered by kind, then module.
func (e *Engine) OpenDetails() []*DetailSession {
	out := make([]*DetailSession, 0, len(e.details))
	for _, kind := range Kinds {
		for _, m := range e.catalog.Modules() {
			if s, ok := e.details[detailTarget{kind: kind, module: m}]; ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func (s *DetailSession) Kind() ValueKind { return s.target.kind }

func (s *DetailSession) Module() Module { return s.target.module }

func (s *DetailSession) Closed() bool { return s.closed }

// Working returns the current working copy in predecessor order.
func (s *DetailSession) Working() []EdgeValue {
	out := make([]EdgeValue, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, EdgeValue{Key: key, Value: s.working[key]})
	}
	return out
}

// Edit changes one edge of the working copy. The empty sentinel is allowed.
func (s *DetailSession) Edit(key EdgeKey, v Value) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.working[key]; !ok {
		return invariantf("%s is not an incoming edge of %s", s.engine.catalog.WireKey(key), s.engine.catalog.Name(s.target.module))
	}
	s.working[key] = v
	return nil
}

// Commit hands the complete working copy to the engine and closes the session.
func (s *DetailSession) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	edits := make(map[EdgeKey]Value, len(s.working))
	for k, v := range s.working {
		edits[k] = v
	}
	if err := s.engine.ApplyDetailCommit(s.target.kind, s.target.module, edits); err != nil {
		return err
	}
	s.close()
	return nil
}

func (s *DetailSession) Cancel() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.close()
	return nil
}

func (s *DetailSession) close() {
	s.closed = true
	s.working = nil
	if cur, ok := s.engine.details[s.target]; ok && cur == s {
		delete(s.engine.details, s.target)
	}
}
