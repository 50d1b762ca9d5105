package workflow

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalDefinition() *Definition {
	return &Definition{
		Version: CurrentVersion,
		Metadata: Metadata{
			Name: "RAG ingestion",
			Tags: []string{"rag", "ingestion"},
		},
		Nodes: []NodeDefinition{
			{
				ID:       "source",
				Kind:     KindInput,
				Label:    "Dataset",
				Position: Point{X: 0, Y: 0},
				Data: map[string]any{
					"component":  "datapizza.source.dataset",
					"parameters": map[string]any{"format": "csv"},
				},
			},
			{
				ID:       "chunk",
				Kind:     KindTask,
				Label:    "Chunker",
				Position: Point{X: 200, Y: 0},
				Data: map[string]any{
					"component":  "datapizza.task.chunker",
					"parameters": map[string]any{"chunkSize": 512},
				},
			},
			{
				ID:       "sink",
				Kind:     KindOutput,
				Label:    "Vector store",
				Position: Point{X: 400, Y: 0},
			},
		},
		Edges: []EdgeDefinition{
			{
				ID:     "e1",
				Source: Connector{NodeID: "source"},
				Target: Connector{NodeID: "chunk", PortID: "in"},
				Label:  "documents",
			},
			{
				ID:       "e2",
				Source:   Connector{NodeID: "chunk"},
				Target:   Connector{NodeID: "sink"},
				Metadata: map[string]any{"weight": 1.0},
			},
		},
	}
}

// ============ ToGraph ============

func TestAdapter_ToGraph_MapsKindsAndLabels(t *testing.T) {
	adapter := NewAdapter(zerolog.Nop())
	nodes, edges, reactFlow := adapter.ToGraph(canonicalDefinition())

	require.Len(t, nodes, 3)
	assert.Equal(t, NodeTypeInput, nodes[0].Type)
	assert.Equal(t, NodeTypeTask, nodes[1].Type)
	assert.Equal(t, NodeTypeOutput, nodes[2].Type)
	assert.Equal(t, "Dataset", nodes[0].Data["label"])
	assert.Equal(t, "datapizza.source.dataset", nodes[0].Data["component"])

	require.Len(t, edges, 2)
	assert.Equal(t, "source", edges[0].Source)
	assert.Equal(t, "in", edges[0].TargetHandle)
	assert.Equal(t, "documents", edges[0].Data["label"])
	assert.Equal(t, 1.0, edges[1].Data["weight"])

	assert.Nil(t, reactFlow)
}

func TestAdapter_ToGraph_ReturnsReactFlowSettings(t *testing.T) {
	def := canonicalDefinition()
	def.Extensions = map[string]any{
		"reactFlow": map[string]any{
			"viewport": map[string]any{"x": 10.0, "y": 20.0, "zoom": 1.5},
		},
	}

	adapter := NewAdapter(zerolog.Nop())
	_, _, reactFlow := adapter.ToGraph(def)

	require.NotNil(t, reactFlow)
	viewport, ok := reactFlow["viewport"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.5, viewport["zoom"])
}

func TestAdapter_ToGraph_CopiesAreIndependent(t *testing.T) {
	def := canonicalDefinition()
	adapter := NewAdapter(zerolog.Nop())
	nodes, _, _ := adapter.ToGraph(def)

	nodes[0].Data["label"] = "mutated"
	params := nodes[0].Data["parameters"].(map[string]any)
	params["format"] = "json"

	assert.Equal(t, "Dataset", def.Nodes[0].Label)
	assert.Equal(t, "csv", def.Nodes[0].Data["parameters"].(map[string]any)["format"])
}

// ============ FromGraph ============

func TestAdapter_RoundTrip(t *testing.T) {
	def := canonicalDefinition()
	adapter := NewAdapter(zerolog.Nop())

	nodes, edges, _ := adapter.ToGraph(def)
	back := adapter.FromGraph(nodes, edges, def.Metadata, def.Version, def.Extensions)

	assert.Equal(t, *def, back)
}

func TestAdapter_RoundTrip_WithExtensions(t *testing.T) {
	def := canonicalDefinition()
	def.Extensions = map[string]any{
		"backend":   map[string]any{"queue": "gpu"},
		"reactFlow": map[string]any{"viewport": map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0}},
	}
	adapter := NewAdapter(zerolog.Nop())

	nodes, edges, _ := adapter.ToGraph(def)
	back := adapter.FromGraph(nodes, edges, def.Metadata, def.Version, def.Extensions)

	assert.Equal(t, *def, back)
}

func TestAdapter_FromGraph_LabelFallsBackToNodeID(t *testing.T) {
	adapter := NewAdapter(zerolog.Nop())
	nodes := []Node{
		{ID: "n1", Type: NodeTypeTask, Data: map[string]any{}},
		{ID: "n2", Type: NodeTypeTask, Data: map[string]any{"label": 42}},
	}

	def := adapter.FromGraph(nodes, nil, Metadata{Name: "wf"}, CurrentVersion, nil)

	assert.Equal(t, "n1", def.Nodes[0].Label)
	assert.Equal(t, "n2", def.Nodes[1].Label)
}

func TestAdapter_FromGraph_NormalizesParameters(t *testing.T) {
	adapter := NewAdapter(zerolog.Nop())
	nodes := []Node{
		{
			ID:   "n1",
			Type: NodeTypeTask,
			Data: map[string]any{
				"label":      "Task",
				"parameters": map[string]int{"chunkSize": 512},
			},
		},
	}

	def := adapter.FromGraph(nodes, nil, Metadata{Name: "wf"}, CurrentVersion, nil)

	params, ok := def.Nodes[0].Data["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 512, params["chunkSize"])
}

func TestAdapter_FromGraph_PromotesEdgeLabel(t *testing.T) {
	adapter := NewAdapter(zerolog.Nop())
	edges := []Edge{
		{
			ID:     "e1",
			Source: "a",
			Target: "b",
			Data:   map[string]any{"label": "docs", "weight": 2.0},
		},
	}

	def := adapter.FromGraph(nil, edges, Metadata{Name: "wf"}, CurrentVersion, nil)

	require.Len(t, def.Edges, 1)
	assert.Equal(t, "docs", def.Edges[0].Label)
	assert.Equal(t, map[string]any{"weight": 2.0}, def.Edges[0].Metadata)
}

func TestAdapter_FromGraph_UnknownTypeBecomesTask(t *testing.T) {
	adapter := NewAdapter(zerolog.Nop())
	nodes := []Node{{ID: "n1", Type: "fancy-custom", Data: map[string]any{"label": "X"}}}

	def := adapter.FromGraph(nodes, nil, Metadata{Name: "wf"}, CurrentVersion, nil)

	assert.Equal(t, KindTask, def.Nodes[0].Kind)
}
