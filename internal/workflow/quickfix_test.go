package workflow

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GraphStore {
	t.Helper()
	return NewGraphStore(testSchemas(t), zerolog.Nop())
}

// ============ Quick fix application ============

func TestGraphStore_RemoveEdgeFixIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())
	require.Len(t, store.Edges(), 2)

	store.ApplyQuickFix(RemoveEdgeFix{EdgeID: "e1"})
	afterFirst := store.Edges()
	require.Len(t, afterFirst, 1)

	assert.NotPanics(t, func() {
		store.ApplyQuickFix(RemoveEdgeFix{EdgeID: "e1"})
	})
	assert.Equal(t, afterFirst, store.Edges())
}

func TestGraphStore_ConnectNodesFixInsertsEdge(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())
	before := len(store.Edges())

	store.ApplyQuickFix(ConnectNodesFix{SourceID: "source", TargetID: "sink"})

	edges := store.Edges()
	require.Len(t, edges, before+1)
	inserted := edges[len(edges)-1]
	assert.Equal(t, "source", inserted.Source)
	assert.Equal(t, "sink", inserted.Target)
	assert.NotEmpty(t, inserted.ID)
}

func TestGraphStore_GenerateLabelFixOverwritesLabel(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())

	store.ApplyQuickFix(GenerateLabelFix{NodeID: "chunk", Value: "chunk"})

	for _, node := range store.Nodes() {
		if node.ID == "chunk" {
			assert.Equal(t, "chunk", node.Data["label"])
		}
	}
}

func TestGraphStore_FillParametersFixReplacesNotMerges(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())

	store.ApplyQuickFix(FillParametersFix{
		NodeID:     "chunk",
		Parameters: map[string]any{"chunkSize": 1024},
	})

	for _, node := range store.Nodes() {
		if node.ID == "chunk" {
			params, ok := node.Data["parameters"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, map[string]any{"chunkSize": 1024}, params,
				"previous parameter keys must not survive a fill")
		}
	}
}

// ============ Mutate-then-revalidate discipline ============

func TestGraphStore_EveryMutationRefreshesReport(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())
	require.Equal(t, 0, store.Report().Errors)

	// Disconnecting the sink leaves the output node without producers.
	store.Disconnect("e2")
	assert.Greater(t, store.Report().Errors, 0)

	// Reconnecting resolves it again.
	store.Connect("chunk", "sink")
	assert.Equal(t, 0, store.Report().Errors)
}

func TestGraphStore_QuickFixResolvesReportedIssue(t *testing.T) {
	store := newTestStore(t)
	def := canonicalDefinition()
	def.Edges = append(def.Edges, EdgeDefinition{
		ID:     "dangling",
		Source: Connector{NodeID: "ghost"},
		Target: Connector{NodeID: "chunk"},
	})
	store.Load(def)

	var removeFix *RemoveEdgeFix
	for _, issue := range store.Report().Issues {
		if issue.TargetID != "dangling" {
			continue
		}
		for _, fix := range issue.Fixes {
			if typed, ok := fix.(RemoveEdgeFix); ok {
				removeFix = &typed
			}
		}
	}
	require.NotNil(t, removeFix)

	store.ApplyQuickFix(*removeFix)

	for _, issue := range store.Report().Issues {
		assert.NotEqual(t, "dangling", issue.TargetID)
	}
}

func TestGraphStore_UpdateNodeLabel(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())

	assert.True(t, store.UpdateNodeLabel("chunk", "Splitter"))
	assert.False(t, store.UpdateNodeLabel("ghost", "anything"))

	def := store.Definition()
	for _, node := range def.Nodes {
		if node.ID == "chunk" {
			assert.Equal(t, "Splitter", node.Label)
		}
	}
}

func TestGraphStore_UpdateNodeKind(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())

	require.True(t, store.UpdateNodeKind("chunk", KindOutput))

	def := store.Definition()
	for _, node := range def.Nodes {
		if node.ID == "chunk" {
			assert.Equal(t, KindOutput, node.Kind)
		}
	}
}

func TestGraphStore_UpdateNodeParametersNormalizes(t *testing.T) {
	store := newTestStore(t)
	store.Load(canonicalDefinition())

	require.True(t, store.UpdateNodeParameters("chunk", map[string]int{"chunkSize": 256}))

	for _, node := range store.Nodes() {
		if node.ID == "chunk" {
			assert.Equal(t, map[string]any{"chunkSize": 256}, node.Data["parameters"])
		}
	}
}

func TestGraphStore_DefinitionRestoresReactFlowSettings(t *testing.T) {
	store := newTestStore(t)
	def := canonicalDefinition()
	def.Extensions = map[string]any{
		"reactFlow": map[string]any{"viewport": map[string]any{"x": 1.0, "y": 2.0, "zoom": 0.8}},
	}
	store.Load(def)

	serialized := store.Definition()

	require.NotNil(t, serialized.Extensions)
	reactFlow, ok := serialized.Extensions["reactFlow"].(map[string]any)
	require.True(t, ok)
	viewport, ok := reactFlow["viewport"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.8, viewport["zoom"])
}

func TestGraphStore_RoundTripThroughStore(t *testing.T) {
	store := newTestStore(t)
	def := canonicalDefinition()
	store.Load(def)

	assert.Equal(t, def, store.Definition())
}
