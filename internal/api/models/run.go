package models

// Run and step states exposed while polling an execution.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailure RunStatus = "failure"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ExecutionStep is a single state transition reported by an executor.
type ExecutionStep struct {
	NodeID  string     `json:"nodeId"`
	Status  StepStatus `json:"status"`
	Details string     `json:"details,omitempty"`
}

// ExecutionResult is the final outcome of one workflow execution.
type ExecutionResult struct {
	RunID   string          `json:"runId"`
	Status  RunStatus       `json:"status"`
	Steps   []ExecutionStep `json:"steps"`
	Outputs map[string]any  `json:"outputs"`
}

// RuntimeOptions influence how the backend executes a workflow.
type RuntimeOptions struct {
	Environment          string            `json:"environment,omitempty"`
	ComponentSearchPaths []string          `json:"componentSearchPaths,omitempty"`
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
	Credentials          map[string]string `json:"credentials,omitempty"`
	ConfigOverrides      map[string]any    `json:"configOverrides,omitempty"`
}

// RunStepStatus is the aggregated per-node state returned when polling.
type RunStepStatus struct {
	NodeID      string     `json:"nodeId"`
	Status      StepStatus `json:"status"`
	Details     string     `json:"details,omitempty"`
	StartedAt   string     `json:"startedAt,omitempty"`
	CompletedAt string     `json:"completedAt,omitempty"`
}

// RunSummary is the lightweight run representation for history timelines.
type RunSummary struct {
	RunID        string    `json:"runId"`
	Status       RunStatus `json:"status"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
	WorkflowName string    `json:"workflowName"`
	Archived     bool      `json:"archived"`
}

// RunStatusDetail is the full status payload for a specific run.
type RunStatusDetail struct {
	RunSummary
	Steps  []RunStepStatus  `json:"steps"`
	Result *ExecutionResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// RunLogEntry is one log line captured during execution.
type RunLogEntry struct {
	ID        string   `json:"id"`
	Sequence  int      `json:"sequence"`
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Level     LogLevel `json:"level"`
	NodeID    string   `json:"nodeId,omitempty"`
}

// RunLogChunk is the incremental slice of logs returned while polling with a
// cursor. NextCursor is monotonically increasing; passing it back as the
// `after` value guarantees no entry is delivered twice.
type RunLogChunk struct {
	RunID      string        `json:"runId"`
	Logs       []RunLogEntry `json:"logs"`
	NextCursor int           `json:"nextCursor"`
}
