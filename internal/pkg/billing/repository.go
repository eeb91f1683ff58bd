package billing

import (
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetCompanyByID(id uint) (*models.Company, error)
	GetCompanyByStripeCustomerID(customerID string) (*models.Company, error)
	UpdateCompanySubscription(companyID uint, fields map[string]interface{}) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCompanyByID(id uint) (*models.Company, error) {
	var co models.Company
	if err := r.db.First(&co, id).Error; err != nil {
		return nil, err
	}
	return &co, nil
}

func (r *gormRepository) GetCompanyByStripeCustomerID(customerID string) (*models.Company, error) {
	var co models.Company
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&co).Error
	if err != nil {
		return nil, err
	}
	return &co, nil
}

func (r *gormRepository) UpdateCompanySubscription(companyID uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Company{}).Where("id = ?", companyID).Updates(fields).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
