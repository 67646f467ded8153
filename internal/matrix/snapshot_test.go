package matrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSurvivesJSONAndRestore(t *testing.T) {
	e := newLoadedEngine(t, 5, scenarioGraph(), map[ValueKind]Value{Interaction: Num(20), Information: Num(0)})
	s, err := e.OpenDetail(Interaction, 2)
	require.NoError(t, err)
	require.NoError(t, s.Edit(EdgeKey{From: 4, To: 2}, Num(3.5)))
	require.NoError(t, s.Commit())
	require.NoError(t, e.SetDefault(Information, 1, Empty))
	a, err := e.OpenAdoption()
	require.NoError(t, err)
	require.NoError(t, a.Edit(8, 0.75))
	require.NoError(t, a.Commit())

	raw, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored, err := Restore(e.Catalog(), decoded)
	require.NoError(t, err)
	assert.Equal(t, e.Snapshot(), restored.Snapshot())

	custom, err := restored.Custom(Interaction, 2)
	require.NoError(t, err)
	assert.True(t, custom)
	rates, changed := restored.Adoption()
	assert.True(t, changed)
	assert.Equal(t, 0.75, rates[8])
}

func TestRestoreRejectsMissingEdge(t *testing.T) {
	e := newLoadedEngine(t, 3, DependencyGraph{2: {1}}, nil)
	snap := e.Snapshot()
	delete(snap.Edges[Interaction], EdgeKey{From: 1, To: 2})

	_, err := Restore(e.Catalog(), snap)
	assert.Error(t, err)
}
