package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/mapper"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
	"studio/pkg"
)

type storedWorkflowHandler struct {
	workflowService *service.WorkflowService
	logger          zerolog.Logger
}

func newStoredWorkflowHandler() *storedWorkflowHandler {
	return &storedWorkflowHandler{
		workflowService: service.NewWorkflowService(),
		logger:          studio.Logger,
	}
}

// StoredWorkflowHandler sets up CRUD routes for persisted workflows.
func StoredWorkflowHandler(router *graceful.Graceful) {
	h := newStoredWorkflowHandler()

	routes := router.Group("/api/v1/workflows")
	{
		routes.GET("", h.list)
		routes.GET("/:id", h.getByID)
		routes.POST("", h.create)
		routes.PUT("/:id", h.update)
		routes.DELETE("/:id", h.delete)
	}
}

func (slf *storedWorkflowHandler) list(c *gin.Context) {
	query := c.Query("q")

	var err error
	var workflows []response.StoredWorkflow
	if query != "" {
		entities, searchErr := slf.workflowService.SearchWorkflows(query)
		err = searchErr
		workflows = mapper.ToStoredWorkflowResponses(entities)
	} else {
		entities, listErr := slf.workflowService.ListWorkflows()
		err = listErr
		workflows = mapper.ToStoredWorkflowResponses(entities)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve workflows"})
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (slf *storedWorkflowHandler) getByID(c *gin.Context) {
	externalID := c.Param("id")

	stored, document, err := slf.workflowService.GetWorkflow(externalID)
	if err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Workflow not found"})
			return
		}
		slf.logger.Error().Err(err).Str("externalId", externalID).Msg("Failed to load workflow")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve workflow"})
		return
	}

	out := mapper.ToStoredWorkflowResponse(*stored, false)
	out.Document = document
	c.JSON(http.StatusOK, out)
}

func (slf *storedWorkflowHandler) create(c *gin.Context) {
	var req request.SaveWorkflow
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse create workflow request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	stored, err := slf.workflowService.SaveWorkflow("", req.Name, req.Description, req.Document)
	if err != nil {
		rejectDocument(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.ToStoredWorkflowResponse(*stored, true))
}

func (slf *storedWorkflowHandler) update(c *gin.Context) {
	externalID := c.Param("id")

	var req request.SaveWorkflow
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse update workflow request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	stored, err := slf.workflowService.SaveWorkflow(externalID, req.Name, req.Description, req.Document)
	if err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Workflow not found"})
			return
		}
		rejectDocument(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToStoredWorkflowResponse(*stored, true))
}

func (slf *storedWorkflowHandler) delete(c *gin.Context) {
	externalID := c.Param("id")

	if err := slf.workflowService.DeleteWorkflow(externalID); err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Workflow not found"})
			return
		}
		slf.logger.Error().Err(err).Str("externalId", externalID).Msg("Failed to delete workflow")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete workflow"})
		return
	}
	c.Status(http.StatusNoContent)
}
