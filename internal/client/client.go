// Package client is a typed HTTP client for the workflow backend API. It is
// used by the remote executor and by external tools that drive runs
// programmatically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/api/models"
)

// RemoteAPIError carries the status code and decoded body of a non-2xx
// response from the backend.
type RemoteAPIError struct {
	StatusCode int
	Message    string
	Issues     []string
}

func (slf *RemoteAPIError) Error() string {
	if len(slf.Issues) > 0 {
		return fmt.Sprintf("backend returned %d: %s (%s)", slf.StatusCode, slf.Message, strings.Join(slf.Issues, "; "))
	}
	return fmt.Sprintf("backend returned %d: %s", slf.StatusCode, slf.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string
	logger  zerolog.Logger
}

type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHeaders attaches extra headers to every request, e.g. auth tokens.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

func New(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: map[string]string{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// executionPayload wraps a document with its runtime options. The backend also
// accepts a bare document; the wrapper is only sent when options are present.
type executionPayload struct {
	Workflow map[string]any         `json:"workflow"`
	Options  *models.RuntimeOptions `json:"options,omitempty"`
}

func executionBody(document map[string]any, opts *models.RuntimeOptions) any {
	if opts == nil {
		return document
	}
	return executionPayload{Workflow: document, Options: opts}
}

// Execute runs the workflow synchronously on the backend.
func (slf *Client) Execute(ctx context.Context, document map[string]any, opts *models.RuntimeOptions) (models.ExecutionResult, error) {
	var result models.ExecutionResult
	err := slf.post(ctx, "/api/v1/workflow/execute", executionBody(document, opts), &result)
	return result, err
}

// ValidateRemote asks the backend to validate the document and returns the
// reported issues.
func (slf *Client) ValidateRemote(ctx context.Context, document map[string]any) (bool, []string, error) {
	var response struct {
		Valid  bool     `json:"valid"`
		Issues []string `json:"issues"`
	}
	if err := slf.post(ctx, "/api/v1/workflow/validate", document, &response); err != nil {
		return false, nil, err
	}
	return response.Valid, response.Issues, nil
}

// StartRun enqueues an asynchronous run and returns its initial status.
func (slf *Client) StartRun(ctx context.Context, document map[string]any, opts *models.RuntimeOptions) (models.RunStatusDetail, error) {
	var status models.RunStatusDetail
	err := slf.post(ctx, "/api/v1/workflow/runs", executionBody(document, opts), &status)
	return status, err
}

// ListRuns returns the run history known to the backend.
func (slf *Client) ListRuns(ctx context.Context, includeArchived bool) ([]models.RunSummary, error) {
	var runs []models.RunSummary
	path := "/api/v1/workflow/runs?includeArchived=" + strconv.FormatBool(includeArchived)
	err := slf.get(ctx, path, &runs)
	return runs, err
}

// GetRunStatus fetches the current status of a run.
func (slf *Client) GetRunStatus(ctx context.Context, runID string) (models.RunStatusDetail, error) {
	var status models.RunStatusDetail
	err := slf.get(ctx, "/api/v1/workflow/runs/"+url.PathEscape(runID), &status)
	return status, err
}

// GetRunLogs fetches log entries with sequence strictly greater than after.
func (slf *Client) GetRunLogs(ctx context.Context, runID string, after int) (models.RunLogChunk, error) {
	var chunk models.RunLogChunk
	path := fmt.Sprintf("/api/v1/workflow/runs/%s/logs?after=%d", url.PathEscape(runID), after)
	err := slf.get(ctx, path, &chunk)
	return chunk, err
}

// RetryRun starts a fresh run from the stored definition of a previous one.
func (slf *Client) RetryRun(ctx context.Context, runID string) (models.RunStatusDetail, error) {
	var status models.RunStatusDetail
	err := slf.post(ctx, "/api/v1/workflow/runs/"+url.PathEscape(runID)+"/retry", nil, &status)
	return status, err
}

// ArchiveRun hides a run from active listings.
func (slf *Client) ArchiveRun(ctx context.Context, runID string) (models.RunSummary, error) {
	var summary models.RunSummary
	err := slf.post(ctx, "/api/v1/workflow/runs/"+url.PathEscape(runID)+"/archive", nil, &summary)
	return summary, err
}

func (slf *Client) get(ctx context.Context, path string, out any) error {
	return slf.do(ctx, http.MethodGet, path, nil, out)
}

func (slf *Client) post(ctx context.Context, path string, body any, out any) error {
	return slf.do(ctx, http.MethodPost, path, body, out)
}

func (slf *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, slf.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range slf.headers {
		req.Header.Set(key, value)
	}

	resp, err := slf.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, payload)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// decodeAPIError understands the `{"message": "..."}` and `{"error": "..."}`
// envelopes plus the validation shape `{"detail": {"valid": false,
// "issues": [...]}}`.
func decodeAPIError(status int, payload []byte) error {
	apiErr := &RemoteAPIError{StatusCode: status, Message: strings.TrimSpace(string(payload))}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return apiErr
	}
	if envelope.Message != "" {
		apiErr.Message = envelope.Message
	}
	if envelope.Error != "" {
		apiErr.Message = envelope.Error
	}
	switch detail := envelope.Detail.(type) {
	case string:
		apiErr.Message = detail
	case map[string]any:
		if issues, ok := detail["issues"].([]any); ok {
			apiErr.Message = "workflow validation failed"
			for _, issue := range issues {
				if text, ok := issue.(string); ok {
					apiErr.Issues = append(apiErr.Issues, text)
				}
			}
		}
	}
	return apiErr
}
