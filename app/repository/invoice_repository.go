package repository

import (
	"fmt"
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create creates a new invoice with its items in the database
func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// GetByID retrieves one company's invoice with items and client
func (r *invoiceRepository) GetByID(companyID, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("company_id = ?", companyID).
		Preload("Items").
		Preload("Client").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByUUID retrieves an invoice by its public UUID within the company scope
func (r *invoiceRepository) GetByUUID(companyID uint, uuid string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("company_id = ? AND uuid = ?", companyID, uuid).
		Preload("Items").
		Preload("Client").
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update updates an existing invoice in the database
func (r *invoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

// Delete soft deletes an invoice within the company scope
func (r *invoiceRepository) Delete(companyID, id uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Invoice{}, id).Error
}

// ListByCompany retrieves a paginated list of one company's invoices,
// optionally filtered by status
func (r *invoiceRepository) ListByCompany(companyID uint, status string, offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	q := r.db.Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Preload("Client").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

// NextNumber produces the next sequential invoice number for a company in the
// form INV-YYYY-NNNN. The per-company unique index on (company_id, number)
// catches the rare concurrent collision.
func (r *invoiceRepository) NextNumber(companyID uint) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("INV-%d-", year)

	var count int64
	err := r.db.Model(&models.Invoice{}).
		Unscoped().
		Where("company_id = ? AND number LIKE ?", companyID, prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// ReplaceItems swaps an invoice's line items inside a transaction
func (r *invoiceRepository) ReplaceItems(invoiceID uint, items []models.InvoiceItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].InvoiceID = invoiceID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}
