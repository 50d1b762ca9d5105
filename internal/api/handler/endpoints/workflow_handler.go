package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/mapper"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/models"
	"studio/internal/api/service"
	"studio/internal/client"
	"studio/internal/workflow"
)

type workflowHandler struct {
	workflowService *service.WorkflowService
	config          studio.AppConfig
	logger          zerolog.Logger
}

func newWorkflowHandler() *workflowHandler {
	return &workflowHandler{
		workflowService: service.NewWorkflowService(),
		config:          studio.GetConfig(),
		logger:          studio.Logger,
	}
}

// WorkflowHandler sets up the document pipeline routes.
func WorkflowHandler(router *graceful.Graceful) {
	h := newWorkflowHandler()

	router.GET("/", h.serviceInfo)

	routes := router.Group("/api/v1/workflow")
	{
		routes.POST("/import", h.importWorkflow)
		routes.POST("/export", h.exportWorkflow)
		routes.POST("/validate", h.validate)
		routes.POST("/validate/report", h.validationReport)
		routes.POST("/execute", h.execute)
		routes.GET("/schema", h.schema)
	}
}

func (slf *workflowHandler) serviceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, response.ServiceInfo{
		Service:         "studio-workflow-backend",
		WorkflowVersion: workflow.CurrentVersion,
	})
}

// bindDocument reads the request body as a raw JSON object.
func bindDocument(c *gin.Context) (map[string]any, bool) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Request body must be a JSON object"})
		return nil, false
	}
	return payload, true
}

// parseExecutionRequest accepts both a bare document and the wrapped
// `{workflow, options}` contract.
func parseExecutionRequest(payload map[string]any) (map[string]any, *models.RuntimeOptions, error) {
	_, hasWorkflow := payload["workflow"]
	_, hasOptions := payload["options"]
	if !hasWorkflow && !hasOptions {
		return payload, nil, nil
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	var req request.ExecuteWorkflow
	if err := json.Unmarshal(encoded, &req); err != nil {
		return nil, nil, err
	}
	if req.Workflow == nil {
		return nil, nil, errors.New("missing workflow document")
	}
	return req.Workflow, req.Options, nil
}

// rejectDocument renders parse and migration failures. Malformed documents
// come back as 422 with the issue list so the editor can show them inline.
func rejectDocument(c *gin.Context, err error) {
	var malformed *workflow.MalformedDocumentError
	if errors.As(err, &malformed) {
		c.JSON(http.StatusUnprocessableEntity, response.Validation{Valid: false, Issues: malformed.Issues})
		return
	}
	var cycle *workflow.MigrationCycleError
	if errors.As(err, &cycle) {
		c.JSON(http.StatusUnprocessableEntity, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
}

// importWorkflow migrates and normalizes an incoming document.
func (slf *workflowHandler) importWorkflow(c *gin.Context) {
	payload, ok := bindDocument(c)
	if !ok {
		return
	}

	def, err := slf.workflowService.ImportDocument(payload)
	if err != nil {
		rejectDocument(c, err)
		return
	}
	c.JSON(http.StatusOK, def.Document())
}

// exportWorkflow validates an outgoing document before the editor persists it.
func (slf *workflowHandler) exportWorkflow(c *gin.Context) {
	payload, ok := bindDocument(c)
	if !ok {
		return
	}

	def, err := slf.workflowService.ImportDocument(payload)
	if err != nil {
		rejectDocument(c, err)
		return
	}
	c.JSON(http.StatusOK, def.Document())
}

func (slf *workflowHandler) validate(c *gin.Context) {
	payload, ok := bindDocument(c)
	if !ok {
		return
	}

	valid, issues := slf.workflowService.ValidateDocument(payload)
	c.JSON(http.StatusOK, response.Validation{Valid: valid, Issues: issues})
}

// validationReport returns the full structured report with quick fixes.
func (slf *workflowHandler) validationReport(c *gin.Context) {
	payload, ok := bindDocument(c)
	if !ok {
		return
	}

	def, err := slf.workflowService.ImportDocument(payload)
	if err != nil {
		rejectDocument(c, err)
		return
	}
	report := slf.workflowService.ValidationReport(def)
	c.JSON(http.StatusOK, mapper.ToValidationReportResponse(report))
}

func (slf *workflowHandler) schema(c *gin.Context) {
	c.JSON(http.StatusOK, response.Schema{Schema: slf.workflowService.DocumentSchema()})
}

// execute runs the workflow synchronously with the configured executor.
func (slf *workflowHandler) execute(c *gin.Context) {
	payload, ok := bindDocument(c)
	if !ok {
		return
	}

	document, opts, err := parseExecutionRequest(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	def, err := slf.workflowService.ImportDocument(document)
	if err != nil {
		rejectDocument(c, err)
		return
	}

	executor, err := resolveExecutor(slf.config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	timeout := time.Duration(slf.config.ExecutorConfig.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	result, err := executor.Run(ctx, def, opts, nil)
	if err != nil {
		var remoteErr *client.RemoteAPIError
		if errors.As(err, &remoteErr) {
			slf.logger.Error().Err(err).Msg("Remote execution failed")
			c.JSON(http.StatusBadGateway, response.APIError{Message: remoteErr.Message})
			return
		}
		slf.logger.Error().Err(err).Msg("Workflow execution failed")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	if opts != nil {
		attachRuntimeMetadata(&result, opts)
	}
	c.JSON(http.StatusOK, result)
}

// attachRuntimeMetadata mirrors the runtime options into the result outputs
// so the editor can display what the run was configured with.
func attachRuntimeMetadata(result *models.ExecutionResult, opts *models.RuntimeOptions) {
	if result.Outputs == nil {
		result.Outputs = map[string]any{}
	}
	runtime, _ := result.Outputs["runtime"].(map[string]any)
	if runtime == nil {
		runtime = map[string]any{}
	}
	if opts.Environment != "" {
		runtime["environment"] = opts.Environment
	}
	if len(opts.ConfigOverrides) > 0 {
		overrides := make(map[string]any, len(opts.ConfigOverrides))
		for key, value := range opts.ConfigOverrides {
			overrides[key] = value
		}
		runtime["configOverrides"] = overrides
	}
	if len(runtime) > 0 {
		result.Outputs["runtime"] = runtime
	}
}

// resolveExecutor builds the executor selected by configuration.
func resolveExecutor(config studio.AppConfig) (service.Executor, error) {
	switch config.ExecutorConfig.Mode {
	case "remote":
		if config.ExecutorConfig.RemoteURL == "" {
			return nil, errors.New("remote executor URL is not configured")
		}
		timeout := time.Duration(config.ExecutorConfig.TimeoutSeconds) * time.Second
		backend := client.New(config.ExecutorConfig.RemoteURL, studio.Logger, client.WithTimeout(timeout))
		return service.NewRemoteExecutor(backend), nil
	case "mock", "":
		delay := time.Duration(config.ExecutorConfig.StepDelayMs) * time.Millisecond
		return service.NewMockExecutor(delay), nil
	default:
		return nil, errors.New("unsupported executor mode '" + config.ExecutorConfig.Mode + "'")
	}
}
