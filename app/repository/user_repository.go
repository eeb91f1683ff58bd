package repository

import (
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an API key hash to its user.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", trimmed).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// ListByCompany retrieves a paginated list of one company's users
func (r *userRepository) ListByCompany(companyID uint, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("company_id = ?", companyID).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

// CountByCompanyAndRole counts company members with the given role
func (r *userRepository) CountByCompanyAndRole(companyID uint, role string) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("company_id = ? AND role = ?", companyID, role).
		Count(&count).Error
	return count, err
}

// ListTechnicians returns a company's active technicians
func (r *userRepository) ListTechnicians(companyID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("company_id = ? AND role = ? AND status = ?",
		companyID, models.ROLE_TECHNICIAN, models.STATUS_ACTIVE).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
