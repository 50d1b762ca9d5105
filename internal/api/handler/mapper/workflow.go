package mapper

import (
	"encoding/json"

	"studio/internal/api/handler/response"
	"studio/internal/api/models"
	"studio/internal/workflow"
)

// ToQuickFixResponse flattens a fix variant into its wire representation.
func ToQuickFixResponse(fix workflow.QuickFix) response.QuickFix {
	out := response.QuickFix{
		Label:       fix.Label(),
		Description: fix.Description(),
		Arguments:   map[string]any{},
	}
	switch typed := fix.(type) {
	case workflow.ConnectNodesFix:
		out.Type = "connect_nodes"
		out.Arguments["sourceId"] = typed.SourceID
		out.Arguments["targetId"] = typed.TargetID
	case workflow.GenerateLabelFix:
		out.Type = "generate_label"
		out.Arguments["nodeId"] = typed.NodeID
		out.Arguments["label"] = typed.Value
	case workflow.FillParametersFix:
		out.Type = "fill_parameters"
		out.Arguments["nodeId"] = typed.NodeID
		out.Arguments["parameters"] = typed.Parameters
	case workflow.RemoveEdgeFix:
		out.Type = "remove_edge"
		out.Arguments["edgeId"] = typed.EdgeID
	}
	return out
}

// ToValidationReportResponse converts a validation pass into the wire report.
func ToValidationReportResponse(report workflow.Report) response.ValidationReport {
	issues := make([]response.ValidationIssue, 0, len(report.Issues))
	for _, issue := range report.Issues {
		fixes := make([]response.QuickFix, 0, len(issue.Fixes))
		for _, fix := range issue.Fixes {
			fixes = append(fixes, ToQuickFixResponse(fix))
		}
		issues = append(issues, response.ValidationIssue{
			ID:          issue.ID,
			Scope:       string(issue.Scope),
			TargetID:    issue.TargetID,
			Severity:    string(issue.Severity),
			Message:     issue.Message,
			Description: issue.Description,
			Fixes:       fixes,
		})
	}
	return response.ValidationReport{
		Valid:    report.Valid(),
		Errors:   report.Errors,
		Warnings: report.Warnings,
		Issues:   issues,
	}
}

// ToStoredWorkflowResponse maps a database record, optionally including the
// document body.
func ToStoredWorkflowResponse(stored models.StoredWorkflow, includeDocument bool) response.StoredWorkflow {
	out := response.StoredWorkflow{
		ExternalID:  stored.ExternalID,
		Name:        stored.Name,
		Description: stored.Description,
		Version:     stored.Version,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}
	if includeDocument && stored.Document != nil {
		var document map[string]any
		if err := json.Unmarshal(stored.Document, &document); err == nil {
			out.Document = document
		}
	}
	return out
}

// ToStoredWorkflowResponses maps a listing without document bodies.
func ToStoredWorkflowResponses(stored []models.StoredWorkflow) []response.StoredWorkflow {
	out := make([]response.StoredWorkflow, 0, len(stored))
	for _, record := range stored {
		out = append(out, ToStoredWorkflowResponse(record, false))
	}
	return out
}
