package workflow

import (
	"github.com/rs/zerolog"
)

// Graph node types as the canvas understands them. Any document kind other
// than input or output maps to the generic task type.
const (
	NodeTypeInput  = "input"
	NodeTypeOutput = "output"
	NodeTypeTask   = "task"
)

// Node is the editable canvas representation of a NodeDefinition. The label
// and the definition's free-form data live together in Data.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Point          `json:"position"`
	Data     map[string]any `json:"data"`
}

// Edge is the editable canvas representation of an EdgeDefinition. The
// document's connectors become endpoint ids plus optional handles, and the
// label/metadata are folded into Data.
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	SourceHandle string         `json:"sourceHandle,omitempty"`
	TargetHandle string         `json:"targetHandle,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// GraphStore owns the mutable graph of a single editing session. It is the
// one writer: every mutation runs the same mutate-then-revalidate sequence,
// so the report read through Report() is always consistent with the graph it
// was computed from. The store is not safe for concurrent use; the editing
// session is single threaded by design.
type GraphStore struct {
	logger   zerolog.Logger
	schemas  *SchemaRegistry
	adapter  *Adapter
	metadata *Metadata
	version  string

	nodes      []Node
	edges      []Edge
	extensions map[string]any
	reactFlow  map[string]any
	report     Report
}

func NewGraphStore(schemas *SchemaRegistry, logger zerolog.Logger) *GraphStore {
	return &GraphStore{
		logger:  logger,
		schemas: schemas,
		adapter: NewAdapter(logger),
		version: CurrentVersion,
	}
}

// Load replaces the session graph with the contents of a definition and
// validates it.
func (slf *GraphStore) Load(def *Definition) {
	nodes, edges, reactFlow := slf.adapter.ToGraph(def)
	slf.nodes = nodes
	slf.edges = edges
	slf.reactFlow = reactFlow
	slf.metadata = cloneMetadata(&def.Metadata)
	slf.version = def.Version
	slf.extensions = cloneAnyMap(def.Extensions)
	slf.revalidate()
}

// Definition serializes the session graph back into a portable document.
func (slf *GraphStore) Definition() *Definition {
	var meta Metadata
	if slf.metadata != nil {
		meta = *cloneMetadata(slf.metadata)
	}
	extensions := cloneAnyMap(slf.extensions)
	if slf.reactFlow != nil {
		if extensions == nil {
			extensions = map[string]any{}
		}
		extensions["reactFlow"] = cloneAnyMap(slf.reactFlow)
	}
	def := slf.adapter.FromGraph(slf.nodes, slf.edges, meta, slf.version, extensions)
	return &def
}

// Report returns the validation report of the current graph state. The
// report is recomputed wholesale on every mutation; issue ids are not stable
// across passes and must not be persisted.
func (slf *GraphStore) Report() Report {
	return slf.report
}

func (slf *GraphStore) Nodes() []Node {
	out := make([]Node, len(slf.nodes))
	for i, node := range slf.nodes {
		node.Data = cloneAnyMap(node.Data)
		out[i] = node
	}
	return out
}

func (slf *GraphStore) Edges() []Edge {
	out := make([]Edge, len(slf.edges))
	for i, edge := range slf.edges {
		edge.Data = cloneAnyMap(edge.Data)
		out[i] = edge
	}
	return out
}

// SetMetadata replaces the workflow metadata.
func (slf *GraphStore) SetMetadata(meta *Metadata) {
	slf.metadata = cloneMetadata(meta)
	slf.revalidate()
}

// UpdateNodeLabel overwrites a node's label; it reports whether the node
// exists.
func (slf *GraphStore) UpdateNodeLabel(nodeID, label string) bool {
	return slf.updateNodeData(nodeID, "label", label)
}

// UpdateNodeKind changes the node's role on the canvas.
func (slf *GraphStore) UpdateNodeKind(nodeID string, kind NodeKind) bool {
	found := false
	for i := range slf.nodes {
		if slf.nodes[i].ID == nodeID {
			slf.nodes[i].Type = graphTypeForKind(kind)
			found = true
		}
	}
	slf.revalidate()
	return found
}

// UpdateNodeParameters replaces the node's parameter payload after
// normalization.
func (slf *GraphStore) UpdateNodeParameters(nodeID string, parameters any) bool {
	return slf.updateNodeData(nodeID, "parameters", NormalizeParameters(slf.logger, parameters))
}

// Connect inserts a new edge between two nodes.
func (slf *GraphStore) Connect(sourceID, targetID string) Edge {
	edge := newGeneratedEdge(sourceID, targetID)
	slf.edges = append(slf.edges, edge)
	slf.revalidate()
	return edge
}

// Disconnect removes an edge by id. Removing a missing edge is a no-op.
func (slf *GraphStore) Disconnect(edgeID string) {
	slf.nodes, slf.edges = applyQuickFix(slf.nodes, slf.edges, RemoveEdgeFix{EdgeID: edgeID})
	slf.revalidate()
}

// ApplyQuickFix executes a remediation blueprint against the live graph and
// revalidates.
func (slf *GraphStore) ApplyQuickFix(fix QuickFix) {
	slf.nodes, slf.edges = applyQuickFix(slf.nodes, slf.edges, fix)
	slf.revalidate()
}

func (slf *GraphStore) updateNodeData(nodeID, key string, value any) bool {
	found := false
	for i := range slf.nodes {
		if slf.nodes[i].ID == nodeID {
			if slf.nodes[i].Data == nil {
				slf.nodes[i].Data = map[string]any{}
			}
			slf.nodes[i].Data[key] = value
			found = true
		}
	}
	slf.revalidate()
	return found
}

func (slf *GraphStore) revalidate() {
	slf.report = ValidateGraph(slf.nodes, slf.edges, slf.metadata, slf.schemas)
}

func graphTypeForKind(kind NodeKind) string {
	switch kind {
	case KindInput:
		return NodeTypeInput
	case KindOutput:
		return NodeTypeOutput
	default:
		return NodeTypeTask
	}
}

func kindForGraphType(nodeType string) NodeKind {
	switch nodeType {
	case NodeTypeInput:
		return KindInput
	case NodeTypeOutput:
		return KindOutput
	default:
		return KindTask
	}
}
