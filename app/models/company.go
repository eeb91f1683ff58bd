package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Subscription plan constants shared across billing and entitlements.
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// Company is a tenant account. The Stripe* fields mirror provider state and
// are written only by the billing reconciler; StripeCustomerID stays NULL
// until the first checkout (so the unique index admits any number of
// unbilled tenants) and, once set, must match the customer id on any event
// used to mutate this row.
type Company struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Email                string         `gorm:"uniqueIndex;type:varchar(200);not null" json:"email" validate:"required,email,min=5,max=200"`
	Phone                string         `gorm:"type:varchar(30);default:null" json:"phone" validate:"max=30"`
	AddressLine1         string         `gorm:"type:varchar(255);default:null" json:"address_line1" validate:"max=255"`
	AddressLine2         string         `gorm:"type:varchar(255);default:null" json:"address_line2" validate:"max=255"`
	City                 string         `gorm:"type:varchar(100);default:null" json:"city" validate:"max=100"`
	State                string         `gorm:"type:varchar(50);default:null" json:"state" validate:"max=50"`
	PostalCode           string         `gorm:"type:varchar(20);default:null" json:"postal_code" validate:"max=20"`
	Plan                 string         `gorm:"type:varchar(50);not null;default:'starter'" json:"plan"`
	StripeCustomerID     *string        `gorm:"type:varchar(191);default:null;index:ux_companies_stripe_customer,unique" json:"-"`
	StripeSubscriptionID string         `gorm:"type:varchar(191);default:''" json:"-"`
	SubscriptionStatus   string         `gorm:"type:varchar(32);not null;default:'trialing'" json:"subscription_status"`
	CurrentPeriodEnd     *time.Time     `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool           `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (co *Company) Validate() error {
	v := validator.New()

	return v.Struct(co)
}

// HasActiveSubscription reports whether the company is currently entitled to
// paid features.
func (co *Company) HasActiveSubscription() bool {
	switch co.SubscriptionStatus {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
