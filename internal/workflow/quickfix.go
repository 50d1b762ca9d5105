package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QuickFix is a structured, executable remediation attached to a validation
// issue. The four concrete kinds form a closed set: the unexported marker
// keeps external packages from adding variants, so the resolver can match
// exhaustively and the compiler flags any kind left unhandled.
type QuickFix interface {
	Label() string
	Description() string
	quickFix()
}

// ConnectNodesFix inserts a new edge from SourceID to TargetID.
type ConnectNodesFix struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func (f ConnectNodesFix) Label() string { return "Connect nodes" }
func (f ConnectNodesFix) Description() string {
	return fmt.Sprintf("Create a connection from %q to %q.", f.SourceID, f.TargetID)
}
func (f ConnectNodesFix) quickFix() {}

// GenerateLabelFix overwrites the target node's label.
type GenerateLabelFix struct {
	NodeID string `json:"nodeId"`
	Value  string `json:"label"`
}

func (f GenerateLabelFix) Label() string { return "Generate label" }
func (f GenerateLabelFix) Description() string {
	return fmt.Sprintf("Set the node label to %q.", f.Value)
}
func (f GenerateLabelFix) quickFix() {}

// FillParametersFix replaces the target node's parameters with the given
// mapping. The payload replaces, it never merges.
type FillParametersFix struct {
	NodeID     string         `json:"nodeId"`
	Parameters map[string]any `json:"parameters"`
}

func (f FillParametersFix) Label() string { return "Fill parameters" }
func (f FillParametersFix) Description() string {
	return "Populate the node with a starter parameter set."
}
func (f FillParametersFix) quickFix() {}

// RemoveEdgeFix deletes the edge by id. Removing an edge that no longer
// exists is a no-op, so the fix can be applied twice without failing.
type RemoveEdgeFix struct {
	EdgeID string `json:"edgeId"`
}

func (f RemoveEdgeFix) Label() string { return "Remove edge" }
func (f RemoveEdgeFix) Description() string {
	return fmt.Sprintf("Delete the invalid edge %q.", f.EdgeID)
}
func (f RemoveEdgeFix) quickFix() {}

// applyQuickFix executes a blueprint against the graph and returns the
// mutated node and edge slices. Callers are expected to revalidate right
// after; the issue list is wholly derived state.
func applyQuickFix(nodes []Node, edges []Edge, fix QuickFix) ([]Node, []Edge) {
	switch typed := fix.(type) {
	case ConnectNodesFix:
		return nodes, append(edges, newGeneratedEdge(typed.SourceID, typed.TargetID))
	case GenerateLabelFix:
		for i := range nodes {
			if nodes[i].ID == typed.NodeID {
				if nodes[i].Data == nil {
					nodes[i].Data = map[string]any{}
				}
				nodes[i].Data["label"] = typed.Value
			}
		}
		return nodes, edges
	case FillParametersFix:
		for i := range nodes {
			if nodes[i].ID == typed.NodeID {
				if nodes[i].Data == nil {
					nodes[i].Data = map[string]any{}
				}
				nodes[i].Data["parameters"] = cloneAnyMap(typed.Parameters)
			}
		}
		return nodes, edges
	case RemoveEdgeFix:
		kept := edges[:0]
		for _, edge := range edges {
			if edge.ID != typed.EdgeID {
				kept = append(kept, edge)
			}
		}
		return nodes, kept
	default:
		// The marker method makes this unreachable for outside callers.
		return nodes, edges
	}
}

// newGeneratedEdge builds the edge a connect-nodes fix inserts, with the
// default rendering attributes new editor connections get.
func newGeneratedEdge(sourceID, targetID string) Edge {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Edge{
		ID:     fmt.Sprintf("edge_%s", suffix),
		Source: sourceID,
		Target: targetID,
		Data:   map[string]any{"animated": true},
	}
}
