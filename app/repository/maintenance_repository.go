package repository

import (
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// maintenanceRepository implements the MaintenanceRepository interface
type maintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository creates a new maintenance repository instance
func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

// Create creates a new maintenance record in the database
func (r *maintenanceRepository) Create(record *models.MaintenanceRecord) error {
	return r.db.Create(record).Error
}

// GetByID retrieves one company's maintenance record with attachments
func (r *maintenanceRepository) GetByID(companyID, id uint) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	err := r.db.Where("company_id = ?", companyID).
		Preload("Attachments").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update updates an existing maintenance record in the database
func (r *maintenanceRepository) Update(record *models.MaintenanceRecord) error {
	return r.db.Save(record).Error
}

// Delete soft deletes a maintenance record within the company scope
func (r *maintenanceRepository) Delete(companyID, id uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.MaintenanceRecord{}, id).Error
}

// ListByClient retrieves a client's service history, newest first
func (r *maintenanceRepository) ListByClient(companyID, clientID uint) ([]models.MaintenanceRecord, error) {
	var records []models.MaintenanceRecord
	err := r.db.Where("company_id = ? AND client_id = ?", companyID, clientID).
		Preload("Attachments").
		Order("performed_at DESC").
		Find(&records).Error
	return records, err
}

// ListDueSoon returns records whose next service date falls inside the window
func (r *maintenanceRepository) ListDueSoon(companyID uint, within time.Duration) ([]models.MaintenanceRecord, error) {
	now := time.Now()
	var records []models.MaintenanceRecord
	err := r.db.Where("company_id = ? AND next_due_at IS NOT NULL AND next_due_at <= ?", companyID, now.Add(within)).
		Order("next_due_at ASC").
		Find(&records).Error
	return records, err
}

// AddAttachment links an uploaded file to a maintenance record
func (r *maintenanceRepository) AddAttachment(att *models.Attachment) error {
	return r.db.Create(att).Error
}

// GetAttachment retrieves one company's attachment
func (r *maintenanceRepository) GetAttachment(companyID, attachmentID uint) (*models.Attachment, error) {
	var att models.Attachment
	err := r.db.Where("company_id = ?", companyID).First(&att, attachmentID).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// DeleteAttachment removes an attachment row within the company scope
func (r *maintenanceRepository) DeleteAttachment(companyID, attachmentID uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Attachment{}, attachmentID).Error
}
