package websocket

import (
	"time"
)

type MessageType string

const (
	// MessageTypeRunStatus signals a run level status transition
	MessageTypeRunStatus MessageType = "run_status"

	// MessageTypeRunStep signals a per-node step transition
	MessageTypeRunStep MessageType = "run_step"

	// MessageTypeRunLog carries one execution log entry
	MessageTypeRunLog MessageType = "run_log"

	// MessageTypeError reports a server side problem to the subscriber
	MessageTypeError MessageType = "error"
)

// Message is the base message structure
// Data field uses 'any' to allow different types through channels
type Message struct {
	Type      MessageType `json:"type"`
	RunID     string      `json:"runId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
