package service

import (
	"context"
	"fmt"
	"time"

	"studio/internal/api/models"
	"studio/internal/client"
	"studio/internal/workflow"
)

// RunObserver receives execution events while a workflow run is in flight.
// Implementations must be safe for use from the executor goroutine.
type RunObserver interface {
	StepChanged(step models.ExecutionStep, timestamp string)
	LogEmitted(level models.LogLevel, nodeID string, message string, timestamp string)
}

// Executor runs a workflow definition and reports progress through the
// observer. A nil observer is allowed and silently drops events.
type Executor interface {
	Run(ctx context.Context, def *workflow.Definition, opts *models.RuntimeOptions, observer RunObserver) (models.ExecutionResult, error)
}

func utcTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// EmptyWorkflowStepID marks the placeholder step reported when a workflow
// without nodes is executed.
const EmptyWorkflowStepID = "__empty__"

// MockExecutor simulates an execution without touching any runtime. Each node
// transitions running then completed; a workflow without nodes produces a
// single pending placeholder step and a failure status.
type MockExecutor struct {
	// StepDelay spaces out simulated transitions so the UI poll loop has
	// something to observe. Zero keeps the run instantaneous.
	StepDelay time.Duration
}

func NewMockExecutor(stepDelay time.Duration) *MockExecutor {
	return &MockExecutor{StepDelay: stepDelay}
}

func (slf *MockExecutor) Run(ctx context.Context, def *workflow.Definition, opts *models.RuntimeOptions, observer RunObserver) (models.ExecutionResult, error) {
	steps := make([]models.ExecutionStep, 0, len(def.Nodes)*2)

	for _, node := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return models.ExecutionResult{}, err
		}

		running := models.ExecutionStep{
			NodeID:  node.ID,
			Status:  models.StepStatusRunning,
			Details: simulatedRunningDetails(node.Kind),
		}
		steps = append(steps, running)
		emitStep(observer, running)
		emitLog(observer, models.LogLevelInfo, node.ID, fmt.Sprintf("Executing node %q", node.ID))

		if slf.StepDelay > 0 {
			select {
			case <-ctx.Done():
				return models.ExecutionResult{}, ctx.Err()
			case <-time.After(slf.StepDelay):
			}
		}

		completed := models.ExecutionStep{
			NodeID:  node.ID,
			Status:  models.StepStatusCompleted,
			Details: simulatedCompletedDetails(node.Kind),
		}
		steps = append(steps, completed)
		emitStep(observer, completed)
	}

	status := models.RunStatusSuccess
	if len(def.Nodes) == 0 {
		placeholder := models.ExecutionStep{
			NodeID:  EmptyWorkflowStepID,
			Status:  models.StepStatusPending,
			Details: "Workflow does not contain any node to execute",
		}
		steps = append(steps, placeholder)
		emitStep(observer, placeholder)
		emitLog(observer, models.LogLevelWarning, "", "Workflow does not contain any node to execute")
		status = models.RunStatusFailure
	}

	return models.ExecutionResult{
		Status: status,
		Steps:  steps,
		Outputs: map[string]any{
			"completedAt": utcTimestamp(),
			"nodeCount":   len(def.Nodes),
			"edgeCount":   len(def.Edges),
		},
	}, nil
}

func simulatedRunningDetails(kind workflow.NodeKind) string {
	if kind == workflow.KindInput {
		return "Simulated execution entry point"
	}
	return "Simulated task execution"
}

func simulatedCompletedDetails(kind workflow.NodeKind) string {
	if kind == workflow.KindInput {
		return "Input node preparation completed"
	}
	return "Node execution finished"
}

// RemoteExecutor delegates the run to the real execution backend over HTTP.
type RemoteExecutor struct {
	client *client.Client
}

func NewRemoteExecutor(c *client.Client) *RemoteExecutor {
	return &RemoteExecutor{client: c}
}

func (slf *RemoteExecutor) Run(ctx context.Context, def *workflow.Definition, opts *models.RuntimeOptions, observer RunObserver) (models.ExecutionResult, error) {
	emitLog(observer, models.LogLevelInfo, "", "Delegating execution to the remote backend")
	result, err := slf.client.Execute(ctx, def.Document(), opts)
	if err != nil {
		return models.ExecutionResult{}, err
	}
	for _, step := range result.Steps {
		emitStep(observer, step)
	}
	return result, nil
}

func emitStep(observer RunObserver, step models.ExecutionStep) {
	if observer == nil {
		return
	}
	observer.StepChanged(step, utcTimestamp())
}

func emitLog(observer RunObserver, level models.LogLevel, nodeID, message string) {
	if observer == nil {
		return
	}
	observer.LogEmitted(level, nodeID, message, utcTimestamp())
}
