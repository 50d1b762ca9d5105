package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/api/models"
	"studio/internal/api/websocket"
	"studio/internal/workflow"
)

// ErrRunNotFound is returned for run ids the store has never seen.
var ErrRunNotFound = errors.New("run not found")

func newRunID() string {
	return "run_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func newLogID() string {
	return "log_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

type stepState struct {
	nodeID      string
	status      models.StepStatus
	details     string
	startedAt   string
	completedAt string
}

func (slf *stepState) toModel() models.RunStepStatus {
	return models.RunStepStatus{
		NodeID:      slf.nodeID,
		Status:      slf.status,
		Details:     slf.details,
		StartedAt:   slf.startedAt,
		CompletedAt: slf.completedAt,
	}
}

type runRecord struct {
	runID        string
	def          *workflow.Definition
	opts         *models.RuntimeOptions
	workflowName string
	status       models.RunStatus
	createdAt    time.Time
	updatedAt    time.Time
	archived     bool
	result       *models.ExecutionResult
	errText      string
	steps        map[string]*stepState
	stepOrder    []string
	logs         []models.RunLogEntry
	nextSequence int
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func (slf *runRecord) toSummary() models.RunSummary {
	return models.RunSummary{
		RunID:        slf.runID,
		Status:       slf.status,
		CreatedAt:    isoTime(slf.createdAt),
		UpdatedAt:    isoTime(slf.updatedAt),
		WorkflowName: slf.workflowName,
		Archived:     slf.archived,
	}
}

func (slf *runRecord) toStatus() models.RunStatusDetail {
	steps := make([]models.RunStepStatus, 0, len(slf.stepOrder))
	for _, nodeID := range slf.stepOrder {
		steps = append(steps, slf.steps[nodeID].toModel())
	}
	return models.RunStatusDetail{
		RunSummary: slf.toSummary(),
		Steps:      steps,
		Result:     slf.result,
		Error:      slf.errText,
	}
}

// RunStore tracks workflow executions in memory so the editor can poll their
// progress. Events are additionally pushed to the websocket hub when one is
// attached.
type RunStore struct {
	mu     sync.Mutex
	runs   map[string]*runRecord
	hub    *websocket.Hub
	logger zerolog.Logger
}

func NewRunStore(hub *websocket.Hub, logger zerolog.Logger) *RunStore {
	return &RunStore{
		runs:   make(map[string]*runRecord),
		hub:    hub,
		logger: logger,
	}
}

// StartRun snapshots the definition, seeds one pending step per node and
// executes the workflow on a background goroutine. The returned status is the
// initial one; callers poll GetStatus/GetLogs for progress.
func (slf *RunStore) StartRun(def *workflow.Definition, opts *models.RuntimeOptions, executor Executor) models.RunStatusDetail {
	snapshot := def.Clone()
	now := time.Now()

	record := &runRecord{
		runID:        newRunID(),
		def:          snapshot,
		opts:         cloneRuntimeOptions(opts),
		workflowName: snapshot.Metadata.Name,
		status:       models.RunStatusRunning,
		createdAt:    now,
		updatedAt:    now,
		steps:        make(map[string]*stepState, len(snapshot.Nodes)),
	}
	for _, node := range snapshot.Nodes {
		record.steps[node.ID] = &stepState{nodeID: node.ID, status: models.StepStatusPending}
		record.stepOrder = append(record.stepOrder, node.ID)
	}

	slf.mu.Lock()
	slf.runs[record.runID] = record
	status := record.toStatus()
	slf.mu.Unlock()

	go slf.executeRun(record.runID, executor)

	slf.logger.Info().Str("runId", record.runID).Str("workflow", record.workflowName).Msg("Workflow run enqueued")
	return status
}

// RetryRun starts a fresh run reusing the stored snapshot of a previous one.
func (slf *RunStore) RetryRun(runID string, executor Executor) (models.RunStatusDetail, error) {
	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return models.RunStatusDetail{}, ErrRunNotFound
	}
	def := record.def
	opts := record.opts
	slf.mu.Unlock()

	return slf.StartRun(def, opts, executor), nil
}

// ArchiveRun hides a run from active listings without deleting it.
func (slf *RunStore) ArchiveRun(runID string) (models.RunSummary, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	record, ok := slf.runs[runID]
	if !ok {
		return models.RunSummary{}, ErrRunNotFound
	}
	record.archived = true
	record.updatedAt = time.Now()
	slf.logger.Info().Str("runId", runID).Msg("Workflow run archived")
	return record.toSummary(), nil
}

func (slf *RunStore) GetStatus(runID string) (models.RunStatusDetail, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	record, ok := slf.runs[runID]
	if !ok {
		return models.RunStatusDetail{}, ErrRunNotFound
	}
	return record.toStatus(), nil
}

// ListRuns returns run summaries, newest first.
func (slf *RunStore) ListRuns(includeArchived bool) []models.RunSummary {
	slf.mu.Lock()
	summaries := make([]models.RunSummary, 0, len(slf.runs))
	for _, record := range slf.runs {
		if !includeArchived && record.archived {
			continue
		}
		summaries = append(summaries, record.toSummary())
	}
	slf.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})
	return summaries
}

// GetLogs returns entries with sequence strictly greater than after, plus the
// cursor to pass on the next call.
func (slf *RunStore) GetLogs(runID string, after int) (models.RunLogChunk, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	record, ok := slf.runs[runID]
	if !ok {
		return models.RunLogChunk{}, ErrRunNotFound
	}

	logs := make([]models.RunLogEntry, 0)
	for _, entry := range record.logs {
		if entry.Sequence > after {
			logs = append(logs, entry)
		}
	}
	return models.RunLogChunk{
		RunID:      runID,
		Logs:       logs,
		NextCursor: record.nextSequence,
	}, nil
}

// runObserver routes executor events for one run back into the store.
type runObserver struct {
	store *RunStore
	runID string
}

func (slf *runObserver) StepChanged(step models.ExecutionStep, timestamp string) {
	slf.store.updateStep(slf.runID, step, timestamp)
}

func (slf *runObserver) LogEmitted(level models.LogLevel, nodeID string, message string, timestamp string) {
	slf.store.appendLog(slf.runID, level, nodeID, message, timestamp)
}

func (slf *RunStore) executeRun(runID string, executor Executor) {
	slf.appendLog(runID, models.LogLevelInfo, "", "Workflow execution started", utcTimestamp())

	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return
	}
	def := record.def
	opts := record.opts
	slf.mu.Unlock()

	observer := &runObserver{store: slf, runID: runID}
	result, err := executor.Run(context.Background(), def, opts, observer)
	if err != nil {
		slf.logger.Error().Err(err).Str("runId", runID).Msg("Workflow run failed")
		slf.failRun(runID, err.Error())
		return
	}
	result.RunID = runID
	slf.finalizeRun(runID, result)
}

func (slf *RunStore) updateStep(runID string, step models.ExecutionStep, timestamp string) {
	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return
	}

	state, ok := record.steps[step.NodeID]
	if !ok {
		state = &stepState{nodeID: step.NodeID, status: models.StepStatusPending}
		record.steps[step.NodeID] = state
		record.stepOrder = append(record.stepOrder, step.NodeID)
	}
	state.status = step.Status
	if step.Details != "" {
		state.details = step.Details
	}
	if step.Status == models.StepStatusRunning && state.startedAt == "" {
		state.startedAt = timestamp
	}
	if step.Status == models.StepStatusCompleted || step.Status == models.StepStatusFailed {
		if state.completedAt == "" {
			state.completedAt = timestamp
		}
		if step.Status == models.StepStatusFailed && record.errText == "" {
			record.errText = step.Details
		}
	}
	record.updatedAt = time.Now()
	snapshot := state.toModel()
	slf.mu.Unlock()

	if slf.hub != nil {
		slf.hub.Publish(websocket.NewRunStepMessage(runID, snapshot))
	}
}

func (slf *RunStore) appendLog(runID string, level models.LogLevel, nodeID, message, timestamp string) {
	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return
	}

	record.nextSequence++
	entry := models.RunLogEntry{
		ID:        newLogID(),
		Sequence:  record.nextSequence,
		Timestamp: timestamp,
		Message:   message,
		Level:     level,
		NodeID:    nodeID,
	}
	record.logs = append(record.logs, entry)
	record.updatedAt = time.Now()
	slf.mu.Unlock()

	if slf.hub != nil {
		slf.hub.Publish(websocket.NewRunLogMessage(runID, entry))
	}
}

func (slf *RunStore) finalizeRun(runID string, result models.ExecutionResult) {
	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return
	}

	record.result = &result
	record.status = result.Status
	record.updatedAt = time.Now()
	record.syncSteps(result.Steps)
	if result.Status != models.RunStatusSuccess && record.errText == "" {
		record.errText = "Workflow finished with errors"
	}
	status := record.status
	slf.mu.Unlock()

	if status == models.RunStatusSuccess {
		slf.appendLog(runID, models.LogLevelInfo, "", "Workflow execution completed successfully", utcTimestamp())
	} else {
		slf.appendLog(runID, models.LogLevelError, "", "Workflow execution finished with errors", utcTimestamp())
	}
	if slf.hub != nil {
		slf.hub.Publish(websocket.NewRunStatusMessage(runID, status))
	}
}

func (slf *RunStore) failRun(runID string, message string) {
	slf.mu.Lock()
	record, ok := slf.runs[runID]
	if !ok {
		slf.mu.Unlock()
		return
	}
	record.status = models.RunStatusFailure
	record.errText = message
	record.updatedAt = time.Now()
	slf.mu.Unlock()

	slf.appendLog(runID, models.LogLevelError, "", message, utcTimestamp())
	if slf.hub != nil {
		slf.hub.Publish(websocket.NewRunStatusMessage(runID, models.RunStatusFailure))
	}
}

// syncSteps folds the executor's final step list back into the per-node state
// so a step never stays pending after its run finished. Caller holds the lock.
func (slf *runRecord) syncSteps(steps []models.ExecutionStep) {
	for _, step := range steps {
		state, ok := slf.steps[step.NodeID]
		if !ok {
			state = &stepState{nodeID: step.NodeID, status: models.StepStatusPending}
			slf.steps[step.NodeID] = state
			slf.stepOrder = append(slf.stepOrder, step.NodeID)
		}
		state.status = step.Status
		state.details = step.Details
		if (step.Status == models.StepStatusCompleted || step.Status == models.StepStatusFailed) && state.completedAt == "" {
			state.completedAt = isoTime(time.Now())
		}
		if step.Status == models.StepStatusFailed && slf.errText == "" && step.Details != "" {
			slf.errText = step.Details
		}
	}
}

func cloneRuntimeOptions(opts *models.RuntimeOptions) *models.RuntimeOptions {
	if opts == nil {
		return nil
	}
	clone := &models.RuntimeOptions{Environment: opts.Environment}
	if opts.ComponentSearchPaths != nil {
		clone.ComponentSearchPaths = append([]string(nil), opts.ComponentSearchPaths...)
	}
	if opts.EnvironmentVariables != nil {
		clone.EnvironmentVariables = make(map[string]string, len(opts.EnvironmentVariables))
		for key, value := range opts.EnvironmentVariables {
			clone.EnvironmentVariables[key] = value
		}
	}
	if opts.Credentials != nil {
		clone.Credentials = make(map[string]string, len(opts.Credentials))
		for key, value := range opts.Credentials {
			clone.Credentials[key] = value
		}
	}
	if opts.ConfigOverrides != nil {
		clone.ConfigOverrides = make(map[string]any, len(opts.ConfigOverrides))
		for key, value := range opts.ConfigOverrides {
			clone.ConfigOverrides[key] = value
		}
	}
	return clone
}
