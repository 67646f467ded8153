package matrix

// AdoptionSlots is the number of products with an adoption rate.
const AdoptionSlots = 9

type AdoptionRates [AdoptionSlots]float64

// AdoptionEditor is a working copy of the adoption vector.
type AdoptionEditor struct {
	engine  *Engine
	working AdoptionRates
	closed  bool
}

// Adoption returns the committed vector and whether it has ever been committed.
func (e *Engine) Adoption() (AdoptionRates, bool) {
	return e.adoption, e.adoptionChanged
}

func (e *Engine) OpenAdoption() (*AdoptionEditor, error) {
	if e.adoptionEditor != nil {
		return nil, ErrSessionActive
	}
	a := &AdoptionEditor{engine: e, working: e.adoption}
	e.adoptionEditor = a
	return a, nil
}

// AdoptionEditor returns the open editor, if any.
func (e *Engine) AdoptionEditor() (*AdoptionEditor, bool) {
	return e.adoptionEditor, e.adoptionEditor != nil
}

func (a *AdoptionEditor) Working() AdoptionRates { return a.working }

func (a *AdoptionEditor) Edit(index int, v float64) error {
	if a.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= AdoptionSlots {
		return invariantf("adoption index %d outside [0,%d)", index, AdoptionSlots)
	}
	a.working[index] = v
	return nil
}

// Commit replaces the vector and marks it changed, whether or not any value
// differs from before.
func (a *AdoptionEditor) Commit() error {
	if a.closed {
		return ErrSessionClosed
	}
	a.engine.adoption = a.working
	a.engine.adoptionChanged = true
	a.close()
	return nil
}

func (a *AdoptionEditor) Cancel() error {
	if a.closed {
		return ErrSessionClosed
	}
	a.close()
	return nil
}

func (a *AdoptionEditor) close() {
	a.closed = true
	if a.engine.adoptionEditor == a {
		a.engine.adoptionEditor = nil
	}
}
