package repository

import (
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// clientRepository implements the ClientRepository interface
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository instance
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// Create creates a new client in the database
func (r *clientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

// GetByID retrieves one company's client; other tenants' rows are invisible
func (r *clientRepository) GetByID(companyID, id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.Where("company_id = ?", companyID).First(&client, id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// Update updates an existing client in the database
func (r *clientRepository) Update(client *models.Client) error {
	return r.db.Save(client).Error
}

// Delete soft deletes a client within the company scope
func (r *clientRepository) Delete(companyID, id uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Client{}, id).Error
}

// ListByCompany retrieves a paginated list of one company's clients
func (r *clientRepository) ListByCompany(companyID uint, offset, limit int) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Where("company_id = ?", companyID).
		Order("last_name ASC, first_name ASC").
		Offset(offset).Limit(limit).
		Find(&clients).Error
	return clients, err
}

// CountByCompany returns the number of clients a company has
func (r *clientRepository) CountByCompany(companyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Client{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

// Search finds clients by name, email or city within the company scope
func (r *clientRepository) Search(companyID uint, query string) ([]models.Client, error) {
	var clients []models.Client
	like := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("company_id = ?", companyID).
		Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR city LIKE ?", like, like, like, like).
		Order("last_name ASC, first_name ASC").
		Limit(50).
		Find(&clients).Error
	return clients, err
}
