package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned by AdjustStock when a negative delta would
// drive the on-hand quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// partRepository implements the PartRepository interface
type partRepository struct {
	db *gorm.DB
}

// NewPartRepository creates a new part repository instance
func NewPartRepository(db *gorm.DB) PartRepository {
	return &partRepository{db: db}
}

// Create creates a new part in the database
func (r *partRepository) Create(part *models.Part) error {
	return r.db.Create(part).Error
}

// GetByID retrieves one company's part
func (r *partRepository) GetByID(companyID, id uint) (*models.Part, error) {
	var part models.Part
	err := r.db.Where("company_id = ?", companyID).First(&part, id).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// GetBySKU retrieves a part by SKU within the company scope
func (r *partRepository) GetBySKU(companyID uint, sku string) (*models.Part, error) {
	var part models.Part
	err := r.db.Where("company_id = ? AND sku = ?", companyID, strings.TrimSpace(sku)).
		First(&part).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// Update updates an existing part in the database
func (r *partRepository) Update(part *models.Part) error {
	return r.db.Save(part).Error
}

// Delete soft deletes a part within the company scope
func (r *partRepository) Delete(companyID, id uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Part{}, id).Error
}

// ListByCompany retrieves a paginated list of one company's parts
func (r *partRepository) ListByCompany(companyID uint, offset, limit int) ([]models.Part, error) {
	var parts []models.Part
	err := r.db.Where("company_id = ?", companyID).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&parts).Error
	return parts, err
}

// ListLowStock returns parts at or below their reorder threshold
func (r *partRepository) ListLowStock(companyID uint) ([]models.Part, error) {
	var parts []models.Part
	err := r.db.Where("company_id = ? AND quantity_on_hand <= reorder_threshold", companyID).
		Order("name ASC").
		Find(&parts).Error
	return parts, err
}

// AdjustStock atomically changes a part's on-hand quantity. Negative deltas
// that would drive stock below zero fail without modifying the row.
func (r *partRepository) AdjustStock(companyID, id uint, delta int) (*models.Part, error) {
	var part models.Part
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", companyID).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&part, id).Error; err != nil {
			return err
		}
		next := part.QuantityOnHand + delta
		if next < 0 {
			return fmt.Errorf("part %d (have %d, delta %d): %w", id, part.QuantityOnHand, delta, ErrInsufficientStock)
		}
		part.QuantityOnHand = next
		return tx.Save(&part).Error
	})
	if err != nil {
		return nil, err
	}
	return &part, nil
}
