package request

import (
	"studio/internal/api/models"
)

// ExecuteWorkflow is the wrapped execution payload carrying runtime options.
// Endpoints also accept a bare workflow document for older editor builds.
type ExecuteWorkflow struct {
	Workflow map[string]any         `json:"workflow" validate:"required"`
	Options  *models.RuntimeOptions `json:"options"`
}

// SaveWorkflow creates or updates a stored workflow.
type SaveWorkflow struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Document    map[string]any `json:"document" validate:"required"`
}
