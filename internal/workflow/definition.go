package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the format tag every document must carry after migration.
const CurrentVersion = "datapizza.workflow/v1"

// LegacyVersionV0 is the oldest format tag a registered migration step covers.
const LegacyVersionV0 = "datapizza.workflow/v0"

type NodeKind string

const (
	KindInput  NodeKind = "input"
	KindTask   NodeKind = "task"
	KindOutput NodeKind = "output"
)

// Point is a position on the editor canvas.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Metadata describes a workflow independently from its graph.
type Metadata struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author      *Author  `json:"author,omitempty" yaml:"author,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	ExternalID  string   `json:"externalId,omitempty" yaml:"externalId,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Connector references one endpoint of an edge.
type Connector struct {
	NodeID string `json:"nodeId" yaml:"nodeId"`
	PortID string `json:"portId,omitempty" yaml:"portId,omitempty"`
}

type NodeDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     NodeKind       `json:"kind" yaml:"kind"`
	Label    string         `json:"label" yaml:"label"`
	Position Point          `json:"position" yaml:"position"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

type EdgeDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	Source   Connector      `json:"source" yaml:"source"`
	Target   Connector      `json:"target" yaml:"target"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Definition is the portable workflow document shared with the editor.
//
// Node and edge ids must be unique within a definition. An edge whose
// endpoints do not exist is still a parseable document; the graph validator
// reports it as an error instead of rejecting the load.
type Definition struct {
	Version    string           `json:"version" yaml:"version"`
	Metadata   Metadata         `json:"metadata" yaml:"metadata"`
	Nodes      []NodeDefinition `json:"nodes" yaml:"nodes"`
	Edges      []EdgeDefinition `json:"edges" yaml:"edges"`
	Extensions map[string]any   `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// MalformedDocumentError is returned when a payload cannot be decoded or does
// not pass the minimal document shape check. It is meant to be caught at the
// load boundary and rendered as a user facing message.
type MalformedDocumentError struct {
	Reason string
	Issues []string
}

func (e *MalformedDocumentError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("malformed workflow document: %s", e.Reason)
	}
	return fmt.Sprintf("malformed workflow document: %s (%s)", e.Reason, strings.Join(e.Issues, "; "))
}

// DecodeDocument parses raw JSON or YAML bytes into a generic document map.
// YAML is only attempted when the payload is not valid JSON.
func DecodeDocument(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedDocumentError{Reason: "payload is neither valid JSON nor valid YAML"}
	}
	if doc == nil {
		return nil, &MalformedDocumentError{Reason: "payload is empty"}
	}
	return normalizeDocumentMap(doc), nil
}

// CheckDocumentShape performs the minimal structural check a document must
// pass before migration: top-level object with a string version, an object
// metadata and array nodes/edges. Anything finer grained (dangling edges,
// duplicated ids, blank labels) is the graph validator's job.
func CheckDocumentShape(doc map[string]any) error {
	var issues []string
	if _, ok := doc["version"].(string); !ok {
		issues = append(issues, `"version" must be a string`)
	}
	if _, ok := doc["metadata"].(map[string]any); !ok {
		issues = append(issues, `"metadata" must be an object`)
	}
	if _, ok := doc["nodes"].([]any); !ok {
		issues = append(issues, `"nodes" must be an array`)
	}
	if _, ok := doc["edges"].([]any); !ok {
		issues = append(issues, `"edges" must be an array`)
	}
	if len(issues) > 0 {
		return &MalformedDocumentError{Reason: "document failed the shape check", Issues: issues}
	}
	return nil
}

// DecodeDefinition converts a shape-checked document map into a typed
// Definition. The returned value shares no memory with the input map.
func DecodeDefinition(doc map[string]any) (*Definition, error) {
	if err := CheckDocumentShape(doc); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, &MalformedDocumentError{Reason: fmt.Sprintf("document is not serializable: %v", err)}
	}
	var def Definition
	if err := json.Unmarshal(encoded, &def); err != nil {
		return nil, &MalformedDocumentError{Reason: fmt.Sprintf("document does not match the workflow contract: %v", err)}
	}
	return &def, nil
}

// ParseDefinition decodes raw JSON or YAML bytes into a Definition after the
// minimal shape check. No migration is applied; see Migrator for that.
func ParseDefinition(raw []byte) (*Definition, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return DecodeDefinition(doc)
}

// Document renders the definition back into a generic map, for callers that
// need to hand it to migration or to a remote API as plain JSON.
func (d *Definition) Document() map[string]any {
	encoded, err := json.Marshal(d)
	if err != nil {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return map[string]any{}
	}
	return doc
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (d *Definition) Clone() *Definition {
	clone := *d
	clone.Metadata = *cloneMetadata(&d.Metadata)
	clone.Nodes = make([]NodeDefinition, len(d.Nodes))
	for i, node := range d.Nodes {
		node.Data = cloneAnyMap(node.Data)
		clone.Nodes[i] = node
	}
	clone.Edges = make([]EdgeDefinition, len(d.Edges))
	for i, edge := range d.Edges {
		edge.Metadata = cloneAnyMap(edge.Metadata)
		clone.Edges[i] = edge
	}
	clone.Extensions = cloneAnyMap(d.Extensions)
	return &clone
}

func cloneMetadata(meta *Metadata) *Metadata {
	if meta == nil {
		return nil
	}
	clone := *meta
	if meta.Tags != nil {
		clone.Tags = append([]string(nil), meta.Tags...)
	}
	if meta.Author != nil {
		author := *meta.Author
		clone.Author = &author
	}
	return &clone
}

func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneAnyValue(value)
	}
	return dst
}

func cloneAnyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneAnyMap(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = cloneAnyValue(item)
		}
		return items
	default:
		return value
	}
}

// normalizeDocumentMap rewrites the map[any]any values the YAML decoder can
// still produce for nested nodes into JSON compatible map[string]any.
func normalizeDocumentMap(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		out[key] = normalizeDocumentValue(value)
	}
	return out
}

func normalizeDocumentValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normalizeDocumentMap(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalizeDocumentValue(item)
		}
		return out
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = normalizeDocumentValue(item)
		}
		return items
	default:
		return value
	}
}
