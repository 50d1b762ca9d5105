package websocket

import (
	"time"

	"studio/internal/api/models"
)

// ErrorMessage represents an error message
type ErrorMessage struct {
	CustomMessage string `json:"customMessage"`
}

// NewErrorMessage creates a new error message
func NewErrorMessage(runID string, errorText string) Message {
	return Message{
		Type:      MessageTypeError,
		RunID:     runID,
		Timestamp: time.Now(),
		Data: ErrorMessage{
			CustomMessage: errorText,
		},
	}
}

// NewRunStatusMessage creates a message for a run level status transition
func NewRunStatusMessage(runID string, status models.RunStatus) Message {
	return Message{
		Type:      MessageTypeRunStatus,
		RunID:     runID,
		Timestamp: time.Now(),
		Data:      map[string]any{"status": status},
	}
}

// NewRunStepMessage creates a message for a per-node step transition
func NewRunStepMessage(runID string, step models.RunStepStatus) Message {
	return Message{
		Type:      MessageTypeRunStep,
		RunID:     runID,
		Timestamp: time.Now(),
		Data:      step,
	}
}

// NewRunLogMessage creates a message carrying one execution log entry
func NewRunLogMessage(runID string, entry models.RunLogEntry) Message {
	return Message{
		Type:      MessageTypeRunLog,
		RunID:     runID,
		Timestamp: time.Now(),
		Data:      entry,
	}
}
