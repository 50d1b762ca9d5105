package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studio"
	"studio/internal/api/models"
	"studio/internal/api/repo"
	"studio/internal/workflow"
)

var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowService owns the document pipeline: migration to the current
// version, parsing, validation and persistence of stored workflows.
type WorkflowService struct {
	workflowRepo *repo.WorkflowRepository
	migrator     *workflow.Migrator
	schemas      *workflow.SchemaRegistry
	logger       zerolog.Logger
}

func NewWorkflowService() *WorkflowService {
	return &WorkflowService{
		workflowRepo: repo.NewWorkflowRepository(),
		migrator:     workflow.NewMigrator(studio.Logger),
		schemas:      workflow.NewSchemaRegistry(workflow.BuiltinComponentSchemas(), studio.Logger),
		logger:       studio.Logger,
	}
}

// ImportDocument migrates a raw document to the current version and parses it.
func (slf *WorkflowService) ImportDocument(document map[string]any) (*workflow.Definition, error) {
	def, err := slf.migrator.EnsureCurrentDefinition(document)
	if err != nil {
		slf.logger.Warn().Err(err).Msg("Workflow import rejected")
		return nil, err
	}
	return def, nil
}

// ValidateDocument migrates and parses the document, then runs graph
// validation. Structural findings come back as issue strings; warnings do not
// make the document invalid.
func (slf *WorkflowService) ValidateDocument(document map[string]any) (bool, []string) {
	def, err := slf.migrator.EnsureCurrentDefinition(document)
	if err != nil {
		var malformed *workflow.MalformedDocumentError
		if errors.As(err, &malformed) && len(malformed.Issues) > 0 {
			return false, malformed.Issues
		}
		return false, []string{err.Error()}
	}

	store := workflow.NewGraphStore(slf.schemas, slf.logger)
	store.Load(def)
	report := store.Report()

	issues := make([]string, 0)
	for _, issue := range report.Issues {
		if issue.Severity == workflow.SeverityError {
			issues = append(issues, fmt.Sprintf("%s: %s", issue.TargetID, issue.Message))
		}
	}
	return len(issues) == 0, issues
}

// ValidationReport exposes the full graph validation report for a document
// that already parsed.
func (slf *WorkflowService) ValidationReport(def *workflow.Definition) workflow.Report {
	store := workflow.NewGraphStore(slf.schemas, slf.logger)
	store.Load(def)
	return store.Report()
}

// DocumentSchema returns the JSON schema describing the document format.
func (slf *WorkflowService) DocumentSchema() map[string]any {
	return workflow.DocumentSchema()
}

// SaveWorkflow migrates and shape-checks the document before persisting it.
// An empty external id creates a new record.
func (slf *WorkflowService) SaveWorkflow(externalID, name, description string, document map[string]any) (*models.StoredWorkflow, error) {
	def, err := slf.migrator.EnsureCurrentDefinition(document)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = def.Metadata.Name
	}

	encoded, err := json.Marshal(def.Document())
	if err != nil {
		return nil, fmt.Errorf("encoding workflow document: %w", err)
	}

	if externalID == "" {
		stored := &models.StoredWorkflow{
			ExternalID:  uuid.NewString(),
			Name:        name,
			Description: description,
			Version:     def.Version,
			Document:    encoded,
		}
		if err := slf.workflowRepo.Create(stored); err != nil {
			slf.logger.Error().Err(err).Msg("Error creating workflow")
			return nil, err
		}
		return stored, nil
	}

	stored, err := slf.workflowRepo.FindByExternalID(externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		slf.logger.Error().Err(err).Str("externalId", externalID).Msg("Error loading workflow")
		return nil, err
	}

	stored.Name = name
	stored.Description = description
	stored.Version = def.Version
	stored.Document = encoded
	if err := slf.workflowRepo.Update(&stored); err != nil {
		slf.logger.Error().Err(err).Str("externalId", externalID).Msg("Error updating workflow")
		return nil, err
	}
	return &stored, nil
}

// GetWorkflow loads a stored workflow and migrates its document on read, so
// records saved by older releases come back in the current format.
func (slf *WorkflowService) GetWorkflow(externalID string) (*models.StoredWorkflow, map[string]any, error) {
	stored, err := slf.workflowRepo.FindByExternalID(externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWorkflowNotFound
		}
		slf.logger.Error().Err(err).Str("externalId", externalID).Msg("Error loading workflow")
		return nil, nil, err
	}

	var document map[string]any
	if err := json.Unmarshal(stored.Document, &document); err != nil {
		return nil, nil, fmt.Errorf("decoding stored workflow %s: %w", externalID, err)
	}
	migrated, err := slf.migrator.EnsureCurrentVersion(document)
	if err != nil {
		return nil, nil, err
	}
	return &stored, migrated, nil
}

func (slf *WorkflowService) ListWorkflows() ([]models.StoredWorkflow, error) {
	workflows, err := slf.workflowRepo.GetAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing workflows")
		return nil, err
	}
	return workflows, nil
}

func (slf *WorkflowService) SearchWorkflows(query string) ([]models.StoredWorkflow, error) {
	workflows, err := slf.workflowRepo.SearchByName(query)
	if err != nil {
		slf.logger.Error().Err(err).Str("query", query).Msg("Error searching workflows")
		return nil, err
	}
	return workflows, nil
}

func (slf *WorkflowService) DeleteWorkflow(externalID string) error {
	exists, err := slf.workflowRepo.ExistsByExternalID(externalID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWorkflowNotFound
	}
	return slf.workflowRepo.DeleteByExternalID(externalID)
}
