package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Part is an inventory item owned by a company. TimesUsed is flushed in
// batches from redis counters, not incremented per request.
type Part struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CompanyID        uint           `gorm:"not null;index:ux_parts_company_sku,unique,priority:1" json:"company_id"`
	SKU              string         `gorm:"type:varchar(100);not null;index:ux_parts_company_sku,unique,priority:2" json:"sku" validate:"required,max=100"`
	Name             string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Description      string         `gorm:"type:text" json:"description" validate:"max=2000"`
	QuantityOnHand   int            `gorm:"not null;default:0" json:"quantity_on_hand" validate:"gte=0"`
	ReorderThreshold int            `gorm:"not null;default:0" json:"reorder_threshold" validate:"gte=0"`
	UnitCostCents    int64          `gorm:"not null;default:0" json:"unit_cost_cents" validate:"gte=0"`
	UnitPriceCents   int64          `gorm:"not null;default:0" json:"unit_price_cents" validate:"gte=0"`
	TimesUsed        int64          `gorm:"default:0" json:"times_used"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Part) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// NeedsReorder reports whether stock has fallen to the reorder threshold.
func (p *Part) NeedsReorder() bool {
	return p.QuantityOnHand <= p.ReorderThreshold
}
