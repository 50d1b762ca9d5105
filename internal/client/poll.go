package client

import (
	"context"
	"time"

	"studio/internal/api/models"
)

// PollObserver receives run progress while PollRun is watching a run.
type PollObserver interface {
	StatusChanged(status models.RunStatusDetail)
	LogReceived(entry models.RunLogEntry)
}

func isTerminal(status models.RunStatus) bool {
	return status == models.RunStatusSuccess || status == models.RunStatusFailure
}

// PollRun watches a run until it reaches a terminal status, forwarding status
// snapshots and new log entries to the observer. The log cursor only moves
// forward so no entry is delivered twice. Returns the final status, or
// ctx.Err() when the context is cancelled first.
func (slf *Client) PollRun(ctx context.Context, runID string, interval time.Duration, observer PollObserver) (models.RunStatusDetail, error) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cursor := 0
	lastStatus := models.RunStatus("")

	for {
		status, err := slf.GetRunStatus(ctx, runID)
		if err != nil {
			return models.RunStatusDetail{}, err
		}
		if observer != nil && status.Status != lastStatus {
			observer.StatusChanged(status)
			lastStatus = status.Status
		}

		chunk, err := slf.GetRunLogs(ctx, runID, cursor)
		if err != nil {
			return models.RunStatusDetail{}, err
		}
		if chunk.NextCursor > cursor {
			cursor = chunk.NextCursor
		}
		if observer != nil {
			for _, entry := range chunk.Logs {
				observer.LogReceived(entry)
			}
		}

		if isTerminal(status.Status) {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return models.RunStatusDetail{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
