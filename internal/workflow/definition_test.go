package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"version": "datapizza.workflow/v1",
	"metadata": {"name": "Minimal", "tags": ["demo"]},
	"nodes": [
		{"id": "a", "kind": "input", "label": "A", "position": {"x": 0, "y": 0}},
		{"id": "b", "kind": "output", "label": "B", "position": {"x": 10, "y": 0}}
	],
	"edges": [
		{"id": "e1", "source": {"nodeId": "a"}, "target": {"nodeId": "b"}}
	]
}`

const sampleYAML = `
version: datapizza.workflow/v1
metadata:
  name: Minimal
  tags: [demo]
nodes:
  - id: a
    kind: input
    label: A
    position: {x: 0, y: 0}
  - id: b
    kind: output
    label: B
    position: {x: 10, y: 0}
edges:
  - id: e1
    source: {nodeId: a}
    target: {nodeId: b}
`

// ============ ParseDefinition ============

func TestParseDefinition_JSON(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, def.Version)
	assert.Equal(t, "Minimal", def.Metadata.Name)
	require.Len(t, def.Nodes, 2)
	assert.Equal(t, KindInput, def.Nodes[0].Kind)
	require.Len(t, def.Edges, 1)
	assert.Equal(t, "a", def.Edges[0].Source.NodeID)
}

func TestParseDefinition_YAML(t *testing.T) {
	fromYAML, err := ParseDefinition([]byte(sampleYAML))
	require.NoError(t, err)
	fromJSON, err := ParseDefinition([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
}

func TestParseDefinition_GarbageFails(t *testing.T) {
	_, err := ParseDefinition([]byte("{not json: [nor yaml"))

	var malformed *MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
}

func TestParseDefinition_DanglingEdgeStillParses(t *testing.T) {
	raw := `{
		"version": "datapizza.workflow/v1",
		"metadata": {"name": "Dangling"},
		"nodes": [{"id": "b", "kind": "output", "label": "B", "position": {"x": 0, "y": 0}}],
		"edges": [{"id": "e1", "source": {"nodeId": "missing"}, "target": {"nodeId": "b"}}]
	}`

	def, err := ParseDefinition([]byte(raw))
	require.NoError(t, err, "dangling endpoints are a validator finding, not a parse failure")
	assert.Equal(t, "missing", def.Edges[0].Source.NodeID)
}

// ============ CheckDocumentShape ============

func TestCheckDocumentShape_ReportsAllViolations(t *testing.T) {
	err := CheckDocumentShape(map[string]any{
		"version": 1,
		"nodes":   "nope",
	})

	var malformed *MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
	assert.Len(t, malformed.Issues, 4)
}

func TestCheckDocumentShape_AcceptsMinimalDocument(t *testing.T) {
	err := CheckDocumentShape(map[string]any{
		"version":  CurrentVersion,
		"metadata": map[string]any{"name": "ok"},
		"nodes":    []any{},
		"edges":    []any{},
	})
	assert.NoError(t, err)
}

// ============ Clone ============

func TestDefinition_CloneIsIndependent(t *testing.T) {
	def := canonicalDefinition()
	clone := def.Clone()

	clone.Metadata.Name = "mutated"
	clone.Nodes[0].Data["component"] = "other"
	clone.Metadata.Tags[0] = "changed"

	assert.Equal(t, "RAG ingestion", def.Metadata.Name)
	assert.Equal(t, "datapizza.source.dataset", def.Nodes[0].Data["component"])
	assert.Equal(t, "rag", def.Metadata.Tags[0])
}

func TestDefinition_DocumentRendersPlainMap(t *testing.T) {
	doc := canonicalDefinition().Document()

	assert.Equal(t, CurrentVersion, doc["version"])
	meta, ok := doc["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RAG ingestion", meta["name"])
	nodes, ok := doc["nodes"].([]any)
	require.True(t, ok)
	assert.Len(t, nodes, 3)
}
