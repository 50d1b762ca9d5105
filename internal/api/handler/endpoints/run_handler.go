package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
)

type runHandler struct {
	workflowService *service.WorkflowService
	runStore        *service.RunStore
	config          studio.AppConfig
	logger          zerolog.Logger
}

func newRunHandler(runStore *service.RunStore) *runHandler {
	return &runHandler{
		workflowService: service.NewWorkflowService(),
		runStore:        runStore,
		config:          studio.GetConfig(),
		logger:          studio.Logger,
	}
}

// RunHandler sets up the asynchronous run routes.
func RunHandler(router *graceful.Graceful, runStore *service.RunStore) {
	h := newRunHandler(runStore)

	routes := router.Group("/api/v1/workflow/runs")
	{
		routes.POST("", h.start)
		routes.GET("", h.list)
		routes.GET("/:id", h.status)
		routes.GET("/:id/logs", h.logs)
		routes.POST("/:id/retry", h.retry)
		routes.POST("/:id/archive", h.archive)
	}
}

func (slf *runHandler) notFound(c *gin.Context, runID string) {
	c.JSON(http.StatusNotFound, response.APIError{Message: "Run '" + runID + "' not found"})
}

// start enqueues a run and returns its initial status for polling.
func (slf *runHandler) start(c *gin.Context) {
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

	c.JSON(http.StatusOK, slf.runStore.StartRun(def, opts, executor))
}

func (slf *runHandler) list(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("includeArchived", "false"))
	c.JSON(http.StatusOK, slf.runStore.ListRuns(includeArchived))
}

func (slf *runHandler) status(c *gin.Context) {
	runID := c.Param("id")
	status, err := slf.runStore.GetStatus(runID)
	if err != nil {
		slf.notFound(c, runID)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (slf *runHandler) logs(c *gin.Context) {
	runID := c.Param("id")

	after := 0
	if raw := c.Query("after"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "Query parameter 'after' must be a non-negative integer"})
			return
		}
		after = parsed
	}

	chunk, err := slf.runStore.GetLogs(runID, after)
	if err != nil {
		slf.notFound(c, runID)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

func (slf *runHandler) retry(c *gin.Context) {
	runID := c.Param("id")

	executor, err := resolveExecutor(slf.config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	status, err := slf.runStore.RetryRun(runID, executor)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			slf.notFound(c, runID)
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (slf *runHandler) archive(c *gin.Context) {
	runID := c.Param("id")

	summary, err := slf.runStore.ArchiveRun(runID)
	if err != nil {
		slf.notFound(c, runID)
		return
	}
	c.JSON(http.StatusOK, summary)
}
