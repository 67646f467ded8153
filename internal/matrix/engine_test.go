package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoadedEngine(t *testing.T, n int, graph DependencyGraph, initial map[ValueKind]Value) *Engine {
	t.Helper()
	e := NewEngine(NumberedCatalog(n), initial)
	require.NoError(t, e.OnDependencyGraphLoaded(graph))
	return e
}

func scenarioGraph() DependencyGraph {
	return DependencyGraph{
		2: {1, 3, 4},
		3: {1},
		5: {2, 4},
	}
}

func TestOnDependencyGraphLoadedSeedsEveryEdge(t *testing.T) {
	e := NewEngine(NumberedCatalog(5), map[ValueKind]Value{Interaction: Num(20), Information: Num(0)})
	require.NoError(t, e.SetDefault(Interaction, 5, Num(7)))
	require.NoError(t, e.OnDependencyGraphLoaded(scenarioGraph()))

	for m, preds := range scenarioGraph() {
		for _, p := range preds {
			key := EdgeKey{From: p, To: m}
			for _, kind := range Kinds {
				v, ok := e.Edge(kind, key)
				require.Truef(t, ok, "%s edge %s missing", kind, key)
				def, err := e.ModuleDefault(kind, m)
				require.NoError(t, err)
				assert.Truef(t, v.Equal(def), "%s edge %s = %s, want module default %s", kind, key, v, def)
			}
		}
	}
	v, _ := e.Edge(Interaction, EdgeKey{From: 2, To: 5})
	assert.Equal(t, "7", v.String())
}

func TestAssembleCoversEveryOrderedPair(t *testing.T) {
	graphs := map[string]DependencyGraph{
		"empty":    {},
		"scenario": scenarioGraph(),
		"chain":    {2: {1}, 3: {2}, 4: {3}, 5: {4}},
	}
	for name, g := range graphs {
		t.Run(name, func(t *testing.T) {
			e := newLoadedEngine(t, 5, g, map[ValueKind]Value{Interaction: Num(20)})
			for _, kind := range Kinds {
				mat, err := e.Assemble(kind)
				require.NoError(t, err)
				assert.Equal(t, 5*4, mat.Len())
				for _, m1 := range e.Catalog().Modules() {
					for _, m2 := range e.Catalog().Modules() {
						_, ok := mat.At(m1, m2)
						assert.Equalf(t, m1 != m2, ok, "cell (%d,%d)", m1, m2)
					}
				}
			}
		})
	}
}

func TestAssembleFallbackOrder(t *testing.T) {
	e := newLoadedEngine(t, 3, DependencyGraph{2: {1}}, map[ValueKind]Value{Information: Num(0)})
	require.NoError(t, e.SetDefault(Information, 1, Num(4)))
	require.NoError(t, e.SetDefault(Information, 2, Num(9)))
	require.NoError(t, e.SetDefault(Information, 3, Empty))

	mat, err := e.Assemble(Information)
	require.NoError(t, err)

	v, _ := mat.At(1, 2)
	assert.Equal(t, 9.0, v, "explicit edge wins")
	v, _ = mat.At(1, 3)
	assert.Equal(t, 4.0, v, "non-edge pair uses the source module default")
	v, _ = mat.At(3, 1)
	assert.Equal(t, 0.0, v, "empty source default falls back to zero")
}

func TestAssembleTreatsEmptyEdgeAsMissing(t *testing.T) {
	e := newLoadedEngine(t, 3, DependencyGraph{2: {1, 3}}, map[ValueKind]Value{Interaction: Num(20)})
	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 1, To: 2}, Empty))
	require.NoError(t, s.Edit(EdgeKey{From: 3, To: 2}, Num(6)))
	require.NoError(t, s.Commit())

	mat, err := e.Assemble(Interaction)
	require.NoError(t, err)
	v, _ := mat.At(1, 2)
	assert.Equal(t, 20.0, v)
	v, _ = mat.At(3, 2)
	assert.Equal(t, 6.0, v)
}

func TestScenarioTwoModules(t *testing.T) {
	e := newLoadedEngine(t, 2, DependencyGraph{2: {1}}, nil)
	require.NoError(t, e.SetGlobalDefault(Interaction, Num(20)))

	mat, err := e.Assemble(Interaction)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Module 1-Module 2": 20, "Module 2-Module 1": 20}, mat.Wire())
	assert.Equal(t, "20", e.GlobalDefault(Interaction).String())
}

func TestSetDefaultFansOut(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Interaction: Num(20)})

	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 3, To: 2}, Num(99)))
	require.NoError(t, s.Commit())
	custom, err := e.Custom(Interaction, 2)
	require.NoError(t, err)
	require.True(t, custom)

	require.NoError(t, e.SetDefault(Interaction, 2, Num(12)))
	for _, p := range []Module{1, 3, 4} {
		v, ok := e.Edge(Interaction, EdgeKey{From: p, To: 2})
		require.True(t, ok)
		assert.Equal(t, "12", v.String())
	}
	custom, err = e.Custom(Interaction, 2)
	require.NoError(t, err)
	assert.False(t, custom)
}

func TestDetailCommitUniformCollapses(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Information: Num(0)})

	s, err := e.OpenDetail(Information, 2)
	require.NoError(t, err)
	for _, p := range []Module{1, 3, 4} {
		require.NoError(t, s.Edit(EdgeKey{From: p, To: 2}, Num(5)))
	}
	require.NoError(t, s.Commit())

	def, err := e.ModuleDefault(Information, 2)
	require.NoError(t, err)
	assert.Equal(t, "5", def.String())
	custom, err := e.Custom(Information, 2)
	require.NoError(t, err)
	assert.False(t, custom)
	assert.True(t, s.Closed())
}

func TestDetailCommitNonUniformFlagsCustom(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Information: Num(0)})

	s, err := e.OpenDetail(Information, 2)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 1, To: 2}, Num(5)))
	require.NoError(t, s.Edit(EdgeKey{From: 3, To: 2}, Num(7)))
	require.NoError(t, s.Edit(EdgeKey{From: 4, To: 2}, Num(5)))
	require.NoError(t, s.Commit())

	custom, err := e.Custom(Information, 2)
	require.NoError(t, err)
	assert.True(t, custom)
	def, err := e.ModuleDefault(Information, 2)
	require.NoError(t, err)
	assert.Equal(t, "0", def.String())

	other, err := e.Custom(Interaction, 2)
	require.NoError(t, err)
	assert.False(t, other, "kinds never interact")
}

func TestDetailCommitWithEmptySentinel(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Interaction: Num(20)})

	s, err := e.OpenDetail(Interaction, 5)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 2, To: 5}, Empty))
	require.NoError(t, s.Commit())
	custom, _ := e.Custom(Interaction, 5)
	assert.True(t, custom, "empty mixed with a number is not uniform")

	s, err = e.OpenDetail(Interaction, 5)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 4, To: 5}, Empty))
	require.NoError(t, s.Commit())
	def, _ := e.ModuleDefault(Interaction, 5)
	assert.True(t, def.IsEmpty(), "all-empty commit collapses to the empty default")
	assert.Equal(t, []string{"interaction default Module 5", "interaction edge Module 2-Module 5", "interaction edge Module 4-Module 5"}, e.Incomplete())
}

func TestCancelLeavesStateUntouched(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Interaction: Num(20), Information: Num(3)})
	s, err := e.OpenDetail(Information, 2)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 1, To: 2}, Num(8)))
	require.NoError(t, s.Commit())
	before := e.Snapshot()

	for _, kind := range Kinds {
		for _, m := range e.Catalog().Modules() {
			s, err := e.OpenDetail(kind, m)
			require.NoError(t, err)
			for _, ev := range s.Working() {
				require.NoError(t, s.Edit(ev.Key, Num(1234)))
			}
			require.NoError(t, s.Cancel())
		}
	}
	assert.Equal(t, before, e.Snapshot())
	custom, _ := e.Custom(Information, 2)
	assert.True(t, custom)
}

func TestOpenDetailRejectsSecondSession(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), nil)
	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)

	_, err = e.OpenDetail(Interaction, 2)
	assert.ErrorIs(t, err, ErrSessionActive)

	_, err = e.OpenDetail(Information, 2)
	assert.NoError(t, err, "other kind is a different target")

	require.NoError(t, s.Cancel())
	_, err = e.OpenDetail(Interaction, 2)
	assert.NoError(t, err)
	assert.ErrorIs(t, s.Commit(), ErrSessionClosed)
}

func TestDetailEditUnknownEdgeIsInvariantViolation(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), nil)
	s, err := e.OpenDetail(Interaction, 3)
	require.NoError(t, err)
	err = s.Edit(EdgeKey{From: 4, To: 3}, Num(1))
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestApplyDetailCommitRequiresExactCoverage(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Interaction: Num(20)})
	before := e.Snapshot()

	err := e.ApplyDetailCommit(Interaction, 2, map[EdgeKey]Value{
		{From: 1, To: 2}: Num(1),
		{From: 3, To: 2}: Num(1),
	})
	assert.ErrorIs(t, err, ErrInvariant)

	err = e.ApplyDetailCommit(Interaction, 2, map[EdgeKey]Value{
		{From: 1, To: 2}: Num(1),
		{From: 3, To: 2}: Num(1),
		{From: 5, To: 2}: Num(1),
	})
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, before, e.Snapshot(), "a rejected commit applies nothing")
}

func TestOpenDetailBeforeGraphIsEmpty(t *testing.T) {
	e := NewEngine(NumberedCatalog(4), nil)
	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)
	assert.Empty(t, s.Working())
	require.NoError(t, s.Commit())
	custom, _ := e.Custom(Interaction, 2)
	assert.False(t, custom)
}

func TestGraphReloadClosesOpenSessions(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), nil)
	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)

	require.NoError(t, e.OnDependencyGraphLoaded(DependencyGraph{2: {1}}))
	assert.ErrorIs(t, s.Commit(), ErrSessionClosed)
	_, ok := e.Edge(Interaction, EdgeKey{From: 3, To: 2})
	assert.False(t, ok)
}

func TestOnDependencyGraphLoadedRejectsInvalidGraph(t *testing.T) {
	e := NewEngine(NumberedCatalog(3), nil)
	for name, g := range map[string]DependencyGraph{
		"unknown module":      {7: {1}},
		"unknown predecessor": {2: {9}},
		"self edge":           {2: {2}},
		"duplicate":           {3: {1, 1}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, e.OnDependencyGraphLoaded(g), ErrInvalidGraph)
		})
	}
	assert.False(t, e.GraphLoaded())
}

func TestGlobalDefaultFollowsUniformModuleDefaults(t *testing.T) {
	e := newLoadedEngine(t, 3, DependencyGraph{2: {1}}, map[ValueKind]Value{Interaction: Num(20)})
	require.NoError(t, e.SetDefault(Interaction, 1, Num(5)))
	assert.Equal(t, "20", e.GlobalDefault(Interaction).String(), "mixed defaults leave the global value alone")

	require.NoError(t, e.SetDefault(Interaction, 2, Num(5)))
	require.NoError(t, e.SetDefault(Interaction, 3, Num(5)))
	assert.Equal(t, "5", e.GlobalDefault(Interaction).String())
}

func TestUnknownModuleAndKindAreInvariantViolations(t *testing.T) {
	e := NewEngine(NumberedCatalog(3), nil)
	assert.ErrorIs(t, e.SetDefault(Interaction, 4, Num(1)), ErrInvariant)
	assert.ErrorIs(t, e.SetDefault(ValueKind("bogus"), 1, Num(1)), ErrInvariant)
	_, err := e.OpenDetail(Information, 0)
	assert.ErrorIs(t, err, ErrInvariant)
}
