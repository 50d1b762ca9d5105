package workflow

import (
	"github.com/rs/zerolog"
)

// Adapter converts between the portable document and the editable graph.
// Both directions are pure transforms: every map they return is an
// independently mutable copy, never an alias of caller-owned state, and for
// documents whose payloads already hold canonical values
// FromGraph(ToGraph(d)) reproduces d.
type Adapter struct {
	logger zerolog.Logger
}

func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// ToGraph maps a definition onto canvas nodes and edges. The third return
// value is the extensions.reactFlow payload, handed back unchanged so the
// caller can restore viewport state.
func (slf *Adapter) ToGraph(def *Definition) ([]Node, []Edge, map[string]any) {
	nodes := make([]Node, 0, len(def.Nodes))
	for _, nodeDef := range def.Nodes {
		data := cloneAnyMap(nodeDef.Data)
		if data == nil {
			data = map[string]any{}
		}
		data["label"] = nodeDef.Label
		nodes = append(nodes, Node{
			ID:       nodeDef.ID,
			Type:     graphTypeForKind(nodeDef.Kind),
			Position: nodeDef.Position,
			Data:     data,
		})
	}

	edges := make([]Edge, 0, len(def.Edges))
	for _, edgeDef := range def.Edges {
		data := cloneAnyMap(edgeDef.Metadata)
		if edgeDef.Label != "" {
			if data == nil {
				data = map[string]any{}
			}
			data["label"] = edgeDef.Label
		}
		edges = append(edges, Edge{
			ID:           edgeDef.ID,
			Source:       edgeDef.Source.NodeID,
			Target:       edgeDef.Target.NodeID,
			SourceHandle: edgeDef.Source.PortID,
			TargetHandle: edgeDef.Target.PortID,
			Data:         data,
		})
	}

	var reactFlow map[string]any
	if def.Extensions != nil {
		if settings, ok := def.Extensions["reactFlow"].(map[string]any); ok {
			reactFlow = cloneAnyMap(settings)
		}
	}
	return nodes, edges, reactFlow
}

// FromGraph is the inverse mapping. The node label is read back from the
// payload (the node id stands in when it is absent or not a string), the
// remaining payload becomes the definition data with parameters normalized,
// and an edge's label key is promoted back to the first-class field.
func (slf *Adapter) FromGraph(nodes []Node, edges []Edge, meta Metadata, version string, extensions map[string]any) Definition {
	nodeDefs := make([]NodeDefinition, 0, len(nodes))
	for _, node := range nodes {
		label := node.ID
		if raw, ok := node.Data["label"].(string); ok && raw != "" {
			label = raw
		}

		var data map[string]any
		for key, value := range node.Data {
			if key == "label" {
				continue
			}
			if data == nil {
				data = map[string]any{}
			}
			if key == "parameters" {
				data[key] = NormalizeParameters(slf.logger, value)
				continue
			}
			data[key] = cloneAnyValue(value)
		}

		nodeDefs = append(nodeDefs, NodeDefinition{
			ID:       node.ID,
			Kind:     kindForGraphType(node.Type),
			Label:    label,
			Position: node.Position,
			Data:     data,
		})
	}

	edgeDefs := make([]EdgeDefinition, 0, len(edges))
	for _, edge := range edges {
		label := ""
		var metadata map[string]any
		for key, value := range edge.Data {
			if key == "label" {
				if raw, ok := value.(string); ok {
					label = raw
					continue
				}
			}
			if metadata == nil {
				metadata = map[string]any{}
			}
			metadata[key] = cloneAnyValue(value)
		}

		edgeDefs = append(edgeDefs, EdgeDefinition{
			ID:       edge.ID,
			Source:   Connector{NodeID: edge.Source, PortID: edge.SourceHandle},
			Target:   Connector{NodeID: edge.Target, PortID: edge.TargetHandle},
			Label:    label,
			Metadata: metadata,
		})
	}

	return Definition{
		Version:    version,
		Metadata:   *cloneMetadata(&meta),
		Nodes:      nodeDefs,
		Edges:      edgeDefs,
		Extensions: cloneAnyMap(extensions),
	}
}
