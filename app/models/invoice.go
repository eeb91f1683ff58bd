package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
	InvoiceStatusVoid  = "void"
)

const (
	InvoiceItemKindLabor = "labor"
	InvoiceItemKindPart  = "part"
	InvoiceItemKindOther = "other"
)

// Invoice is issued from a completed appointment. All amounts are cents.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CompanyID     uint           `gorm:"not null;index:ux_invoices_company_number,unique,priority:1" json:"company_id"`
	ClientID      uint           `gorm:"not null;index" json:"client_id"`
	AppointmentID *uint          `gorm:"index" json:"appointment_id,omitempty"`
	Number        string         `gorm:"type:varchar(50);not null;index:ux_invoices_company_number,unique,priority:2" json:"number"`
	Status        string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status" validate:"oneof=draft sent paid void"`
	SubtotalCents int64          `gorm:"not null;default:0" json:"subtotal_cents"`
	TaxCents      int64          `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents    int64          `gorm:"not null;default:0" json:"total_cents"`
	IssuedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"issued_at,omitempty"`
	PaidAt        *time.Time     `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	EmailSentAt   *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Client *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

func (i *Invoice) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

// BeforeCreate assigns the public UUID.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return nil
}

// Recalculate recomputes subtotal and total from the line items. Tax is a
// stored amount, not a rate, so it is preserved.
func (i *Invoice) Recalculate() {
	var subtotal int64
	for _, item := range i.Items {
		subtotal += item.AmountCents()
	}
	i.SubtotalCents = subtotal
	i.TotalCents = subtotal + i.TaxCents
}

// InvoiceItem is a single labor/part/other line.
type InvoiceItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InvoiceID      uint      `gorm:"not null;index" json:"invoice_id"`
	Kind           string    `gorm:"type:varchar(20);not null;default:'other'" json:"kind" validate:"oneof=labor part other"`
	Description    string    `gorm:"type:varchar(500);not null" json:"description" validate:"required,max=500"`
	Quantity       int       `gorm:"not null;default:1" json:"quantity" validate:"gt=0"`
	UnitPriceCents int64     `gorm:"not null;default:0" json:"unit_price_cents" validate:"gte=0"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (it *InvoiceItem) Validate() error {
	v := validator.New()

	return v.Struct(it)
}

// AmountCents is the extended line amount.
func (it *InvoiceItem) AmountCents() int64 {
	return int64(it.Quantity) * it.UnitPriceCents
}
