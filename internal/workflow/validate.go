package workflow

import (
	"fmt"
	"math"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type IssueScope string

const (
	ScopeWorkflow IssueScope = "workflow"
	ScopeNode     IssueScope = "node"
	ScopeEdge     IssueScope = "edge"
)

// Issue is a single validation finding. Ids are assigned from a counter that
// restarts on every validation pass; two passes over the same graph hand out
// different ids, so they must never be persisted or compared across passes.
type Issue struct {
	ID          string     `json:"id"`
	Scope       IssueScope `json:"scope"`
	TargetID    string     `json:"targetId,omitempty"`
	Severity    Severity   `json:"severity"`
	Message     string     `json:"message"`
	Description string     `json:"description,omitempty"`
	Fixes       []QuickFix `json:"fixes,omitempty"`
}

// Report is the outcome of one full validation pass. It is derived state:
// recomputed wholesale after every graph mutation, never patched
// incrementally. NodeValidationErrors keeps the full per-node schema error
// lists for synchronous lookup without re-validating.
type Report struct {
	Issues               []Issue             `json:"issues"`
	Errors               int                 `json:"errors"`
	Warnings             int                 `json:"warnings"`
	NodeValidationErrors map[string][]string `json:"nodeValidationErrors"`
}

// Valid reports whether the pass found no errors. Warnings do not block
// serialization or execution.
func (r Report) Valid() bool {
	return r.Errors == 0
}

// issueCollector assigns ids and keeps the severity tallies while a pass
// walks the graph.
type issueCollector struct {
	issues   []Issue
	errors   int
	warnings int
	counter  int
}

func (c *issueCollector) add(scope IssueScope, targetID string, severity Severity, message, description string, fixes ...QuickFix) {
	c.counter++
	c.issues = append(c.issues, Issue{
		ID:          fmt.Sprintf("issue_%d", c.counter),
		Scope:       scope,
		TargetID:    targetID,
		Severity:    severity,
		Message:     message,
		Description: description,
		Fixes:       fixes,
	})
	if severity == SeverityError {
		c.errors++
	} else {
		c.warnings++
	}
}

// ValidateGraph runs one full structural and schema pass over a graph.
// Structural findings and schema violations are data, never errors: the
// function is total for any node/edge combination.
func ValidateGraph(nodes []Node, edges []Edge, meta *Metadata, schemas *SchemaRegistry) Report {
	collector := &issueCollector{}

	nodeByID := make(map[string]Node, len(nodes))
	for _, node := range nodes {
		nodeByID[node.ID] = node
	}

	// One pass over edges builds the per-node incidence summary used by the
	// degree rules below.
	incoming := make(map[string][]Edge, len(nodes))
	outgoing := make(map[string][]Edge, len(nodes))
	for _, edge := range edges {
		outgoing[edge.Source] = append(outgoing[edge.Source], edge)
		incoming[edge.Target] = append(incoming[edge.Target], edge)
	}

	validateMetadata(collector, meta)
	validateEdges(collector, edges, nodeByID)
	validateNodes(collector, nodes, incoming, outgoing)
	nodeValidationErrors := validateSchemas(collector, nodes, schemas)

	return Report{
		Issues:               collector.issues,
		Errors:               collector.errors,
		Warnings:             collector.warnings,
		NodeValidationErrors: nodeValidationErrors,
	}
}

func validateMetadata(collector *issueCollector, meta *Metadata) {
	if meta == nil {
		collector.add(ScopeWorkflow, "", SeverityError,
			"Workflow metadata is missing.",
			"The workflow cannot be serialized without metadata.")
		return
	}
	if strings.TrimSpace(meta.Name) == "" {
		collector.add(ScopeWorkflow, "", SeverityError,
			"Workflow name is missing.",
			"Give the workflow a name before saving it.")
	}
	for _, tag := range meta.Tags {
		if strings.TrimSpace(tag) == "" {
			collector.add(ScopeWorkflow, "", SeverityWarning,
				"Workflow tags contain a blank entry.", "")
			break
		}
	}
	if meta.Category != "" && strings.TrimSpace(meta.Category) == "" {
		collector.add(ScopeWorkflow, "", SeverityWarning,
			"Workflow category is blank.", "")
	}
}

func validateEdges(collector *issueCollector, edges []Edge, nodeByID map[string]Node) {
	for _, edge := range edges {
		if _, ok := nodeByID[edge.Source]; !ok {
			collector.add(ScopeEdge, edge.ID, SeverityError,
				fmt.Sprintf("Edge %q references missing source node %q.", edge.ID, edge.Source),
				"",
				RemoveEdgeFix{EdgeID: edge.ID})
		}
		if _, ok := nodeByID[edge.Target]; !ok {
			collector.add(ScopeEdge, edge.ID, SeverityError,
				fmt.Sprintf("Edge %q references missing target node %q.", edge.ID, edge.Target),
				"",
				RemoveEdgeFix{EdgeID: edge.ID})
		}
		if edge.Source == edge.Target {
			collector.add(ScopeEdge, edge.ID, SeverityWarning,
				fmt.Sprintf("Edge %q is a self-loop.", edge.ID),
				"Connecting a node to itself has no effect on execution.",
				RemoveEdgeFix{EdgeID: edge.ID})
		}
	}
}

func validateNodes(collector *issueCollector, nodes []Node, incoming, outgoing map[string][]Edge) {
	for _, node := range nodes {
		in := incoming[node.ID]
		out := outgoing[node.ID]

		switch node.Type {
		case NodeTypeInput:
			if len(out) == 0 {
				collector.add(ScopeNode, node.ID, SeverityError,
					fmt.Sprintf("Input node %q has no outgoing connection.", nodeDisplayName(node)),
					"Input nodes must feed at least one downstream node.",
					connectFixes(node, nodes, outgoing[node.ID], directionOutgoing)...)
			}
			if len(in) > 0 {
				collector.add(ScopeNode, node.ID, SeverityWarning,
					fmt.Sprintf("Input node %q has incoming connections.", nodeDisplayName(node)),
					"Input nodes are expected to be graph entry points.")
			}
		case NodeTypeOutput:
			if len(in) == 0 {
				collector.add(ScopeNode, node.ID, SeverityError,
					fmt.Sprintf("Output node %q has no incoming connection.", nodeDisplayName(node)),
					"Output nodes must consume at least one upstream node.",
					connectFixes(node, nodes, incoming[node.ID], directionIncoming)...)
			}
			if len(out) > 0 {
				collector.add(ScopeNode, node.ID, SeverityWarning,
					fmt.Sprintf("Output node %q has outgoing connections.", nodeDisplayName(node)),
					"Output nodes are expected to be graph exit points.")
			}
		default:
			if len(in) == 0 {
				collector.add(ScopeNode, node.ID, SeverityWarning,
					fmt.Sprintf("Task node %q has no incoming connection.", nodeDisplayName(node)),
					"",
					connectFixes(node, nodes, incoming[node.ID], directionIncoming)...)
			}
			if len(out) == 0 {
				collector.add(ScopeNode, node.ID, SeverityWarning,
					fmt.Sprintf("Task node %q has no outgoing connection.", nodeDisplayName(node)),
					"",
					connectFixes(node, nodes, outgoing[node.ID], directionOutgoing)...)
			}
		}

		if label, ok := node.Data["label"].(string); !ok || strings.TrimSpace(label) == "" {
			collector.add(ScopeNode, node.ID, SeverityError,
				fmt.Sprintf("Node %q has no label.", node.ID),
				"",
				GenerateLabelFix{NodeID: node.ID, Value: node.ID})
		}

		if node.Type != NodeTypeInput && node.Type != NodeTypeOutput && !hasParameters(node) {
			collector.add(ScopeNode, node.ID, SeverityWarning,
				fmt.Sprintf("Task node %q has no parameters.", nodeDisplayName(node)),
				"Configure the node before executing the workflow.",
				FillParametersFix{NodeID: node.ID, Parameters: placeholderParameters()})
		}
	}
}

func validateSchemas(collector *issueCollector, nodes []Node, schemas *SchemaRegistry) map[string][]string {
	nodeValidationErrors := make(map[string][]string)
	if schemas == nil {
		return nodeValidationErrors
	}
	for _, node := range nodes {
		component, ok := node.Data["component"].(string)
		if !ok || component == "" {
			continue
		}
		parameters, _ := node.Data["parameters"].(map[string]any)
		validation := schemas.ValidateComponentParameters(component, parameters)
		if validation.Valid {
			continue
		}
		nodeValidationErrors[node.ID] = validation.Errors
		description := ""
		if len(validation.Errors) > 1 {
			description = strings.Join(validation.Errors[1:], " ")
		}
		collector.add(ScopeNode, node.ID, SeverityError,
			fmt.Sprintf("Node %q has invalid parameters: %s", nodeDisplayName(node), validation.Errors[0]),
			description)
	}
	return nodeValidationErrors
}

type connectDirection int

const (
	directionIncoming connectDirection = iota
	directionOutgoing
)

// connectFixes proposes connecting the node to the nearest node by Euclidean
// canvas distance that is not itself and not already linked in the relevant
// direction. Zero and non-finite distances are skipped; ties break on the
// iteration order of the node slice (first minimum wins). This is a
// convenience heuristic, not a guaranteed optimal match.
func connectFixes(node Node, nodes []Node, linked []Edge, direction connectDirection) []QuickFix {
	alreadyLinked := make(map[string]bool, len(linked))
	for _, edge := range linked {
		if direction == directionOutgoing {
			alreadyLinked[edge.Target] = true
		} else {
			alreadyLinked[edge.Source] = true
		}
	}

	best := ""
	bestDistance := math.Inf(1)
	for _, candidate := range nodes {
		if candidate.ID == node.ID || alreadyLinked[candidate.ID] {
			continue
		}
		dx := candidate.Position.X - node.Position.X
		dy := candidate.Position.Y - node.Position.Y
		distance := math.Hypot(dx, dy)
		if distance == 0 || math.IsInf(distance, 0) || math.IsNaN(distance) {
			continue
		}
		if distance < bestDistance {
			bestDistance = distance
			best = candidate.ID
		}
	}
	if best == "" {
		return nil
	}
	if direction == directionOutgoing {
		return []QuickFix{ConnectNodesFix{SourceID: node.ID, TargetID: best}}
	}
	return []QuickFix{ConnectNodesFix{SourceID: best, TargetID: node.ID}}
}

func hasParameters(node Node) bool {
	parameters, ok := node.Data["parameters"]
	if !ok || parameters == nil {
		return false
	}
	if mapped, ok := parameters.(map[string]any); ok {
		return len(mapped) > 0
	}
	return true
}

// placeholderParameters is the starter payload a fill-parameters fix applies.
func placeholderParameters() map[string]any {
	return map[string]any{"configured": false}
}

func nodeDisplayName(node Node) string {
	if label, ok := node.Data["label"].(string); ok && strings.TrimSpace(label) != "" {
		return label
	}
	return node.ID
}
