package repository

import (
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// companyRepository implements the CompanyRepository interface
type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository instance
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// Create creates a new company in the database
func (r *companyRepository) Create(company *models.Company) error {
	return r.db.Create(company).Error
}

// GetByID retrieves a company by its ID
func (r *companyRepository) GetByID(id uint) (*models.Company, error) {
	var company models.Company
	err := r.db.First(&company, id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByStripeCustomerID retrieves a company by its billing customer id
func (r *companyRepository) GetByStripeCustomerID(customerID string) (*models.Company, error) {
	trimmed := strings.TrimSpace(customerID)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var company models.Company
	err := r.db.Where("stripe_customer_id = ?", trimmed).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Update updates an existing company in the database
func (r *companyRepository) Update(company *models.Company) error {
	return r.db.Save(company).Error
}

// Delete soft deletes a company by its ID
func (r *companyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Company{}, id).Error
}

// List retrieves a paginated list of companies
func (r *companyRepository) List(offset, limit int) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.Order("name ASC").Offset(offset).Limit(limit).Find(&companies).Error
	return companies, err
}

// Count returns the total number of companies
func (r *companyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Company{}).Count(&count).Error
	return count, err
}

// Search finds companies whose name or email matches the query
func (r *companyRepository) Search(query string) ([]models.Company, error) {
	var companies []models.Company
	like := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", like, like).
		Order("name ASC").
		Limit(50).
		Find(&companies).Error
	return companies, err
}
