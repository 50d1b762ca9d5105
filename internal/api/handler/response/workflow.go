package response

import "time"

// ServiceInfo is the root endpoint payload.
type ServiceInfo struct {
	Service         string `json:"service"`
	WorkflowVersion string `json:"workflowVersion"`
}

// Validation is the outcome of validating a workflow document.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Schema wraps the JSON schema of the workflow document format.
type Schema struct {
	Schema map[string]any `json:"schema"`
}

// QuickFix is a serialized remediation suggestion.
type QuickFix struct {
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Arguments   map[string]any `json:"arguments"`
}

// ValidationIssue is one finding from a graph validation pass.
type ValidationIssue struct {
	ID          string     `json:"id"`
	Scope       string     `json:"scope"`
	TargetID    string     `json:"targetId,omitempty"`
	Severity    string     `json:"severity"`
	Message     string     `json:"message"`
	Description string     `json:"description,omitempty"`
	Fixes       []QuickFix `json:"fixes,omitempty"`
}

// ValidationReport is the full structured report for the editor.
type ValidationReport struct {
	Valid    bool              `json:"valid"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	Issues   []ValidationIssue `json:"issues"`
}

// StoredWorkflow is the API view of a persisted workflow.
type StoredWorkflow struct {
	ExternalID  string         `json:"externalId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Version     string         `json:"version"`
	Document    map[string]any `json:"document,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
