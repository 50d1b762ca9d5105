package repo

import (
	"studio"
	"studio/internal/api/models"

	"gorm.io/gorm"
)

type WorkflowRepository struct {
	Db *gorm.DB
}

func NewWorkflowRepository() *WorkflowRepository {
	return &WorkflowRepository{Db: studio.DB}
}

func (slf *WorkflowRepository) FindByExternalID(externalID string) (models.StoredWorkflow, error) {
	var workflow models.StoredWorkflow
	err := slf.Db.Where("external_id = ?", externalID).First(&workflow).Error
	return workflow, err
}

func (slf *WorkflowRepository) Create(workflow *models.StoredWorkflow) error {
	return slf.Db.Create(workflow).Error
}

func (slf *WorkflowRepository) Update(workflow *models.StoredWorkflow) error {
	return slf.Db.Save(workflow).Error
}

func (slf *WorkflowRepository) DeleteByExternalID(externalID string) error {
	return slf.Db.Where("external_id = ?", externalID).Delete(&models.StoredWorkflow{}).Error
}

func (slf *WorkflowRepository) ExistsByExternalID(externalID string) (bool, error) {
	var count int64
	err := slf.Db.Model(&models.StoredWorkflow{}).Where("external_id = ?", externalID).Count(&count).Error
	return count > 0, err
}

func (slf *WorkflowRepository) GetAll() ([]models.StoredWorkflow, error) {
	var workflows []models.StoredWorkflow
	err := slf.Db.Order("updated_at DESC").Find(&workflows).Error
	return workflows, err
}

func (slf *WorkflowRepository) SearchByName(query string) ([]models.StoredWorkflow, error) {
	var workflows []models.StoredWorkflow
	pattern := "%" + query + "%"
	err := slf.Db.Where("name ILIKE ?", pattern).
		Limit(20).
		Find(&workflows).Error
	return workflows, err
}
