package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/api/models"
	"studio/internal/workflow"
)

// eventRecorder captures observer callbacks for assertions.
type eventRecorder struct {
	steps []models.ExecutionStep
	logs  []string
}

func (slf *eventRecorder) StepChanged(step models.ExecutionStep, timestamp string) {
	slf.steps = append(slf.steps, step)
}

func (slf *eventRecorder) LogEmitted(level models.LogLevel, nodeID string, message string, timestamp string) {
	slf.logs = append(slf.logs, message)
}

func sampleDefinition() *workflow.Definition {
	return &workflow.Definition{
		Version:  workflow.CurrentVersion,
		Metadata: workflow.Metadata{Name: "Sample"},
		Nodes: []workflow.NodeDefinition{
			{ID: "in", Kind: workflow.KindInput, Label: "In"},
			{ID: "task", Kind: workflow.KindTask, Label: "Task"},
		},
		Edges: []workflow.EdgeDefinition{
			{ID: "e1", Source: workflow.Connector{NodeID: "in"}, Target: workflow.Connector{NodeID: "task"}},
		},
	}
}

// ============ MockExecutor ============

func TestMockExecutor_SuccessfulRun(t *testing.T) {
	executor := NewMockExecutor(0)

	result, err := executor.Run(context.Background(), sampleDefinition(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, result.Status)
	require.Len(t, result.Steps, 4, "each node transitions running then completed")
	assert.Equal(t, models.StepStatusRunning, result.Steps[0].Status)
	assert.Equal(t, models.StepStatusCompleted, result.Steps[1].Status)
	assert.Equal(t, "in", result.Steps[0].NodeID)
	assert.Equal(t, 2, result.Outputs["nodeCount"])
	assert.Equal(t, 1, result.Outputs["edgeCount"])
	assert.NotEmpty(t, result.Outputs["completedAt"])
}

func TestMockExecutor_InputNodeDetails(t *testing.T) {
	executor := NewMockExecutor(0)

	result, err := executor.Run(context.Background(), sampleDefinition(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Simulated execution entry point", result.Steps[0].Details)
	assert.Equal(t, "Input node preparation completed", result.Steps[1].Details)
	assert.Equal(t, "Simulated task execution", result.Steps[2].Details)
	assert.Equal(t, "Node execution finished", result.Steps[3].Details)
}

func TestMockExecutor_EmptyWorkflowFails(t *testing.T) {
	executor := NewMockExecutor(0)
	def := &workflow.Definition{
		Version:  workflow.CurrentVersion,
		Metadata: workflow.Metadata{Name: "Empty"},
	}

	result, err := executor.Run(context.Background(), def, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailure, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, EmptyWorkflowStepID, result.Steps[0].NodeID)
	assert.Equal(t, models.StepStatusPending, result.Steps[0].Status)
}

func TestMockExecutor_ObserverReceivesEvents(t *testing.T) {
	executor := NewMockExecutor(0)
	recorder := &eventRecorder{}

	_, err := executor.Run(context.Background(), sampleDefinition(), nil, recorder)
	require.NoError(t, err)

	assert.Len(t, recorder.steps, 4)
	assert.Len(t, recorder.logs, 2, "one log line per node")
}

func TestMockExecutor_CancelledContext(t *testing.T) {
	executor := NewMockExecutor(50 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.Run(ctx, sampleDefinition(), nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
