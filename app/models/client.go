package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Client is a customer record owned by a company.
type Client struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CompanyID    uint           `gorm:"not null;index" json:"company_id"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,max=100"`
	Email        string         `gorm:"type:varchar(200);default:null;index" json:"email" validate:"omitempty,email,max=200"`
	Phone        string         `gorm:"type:varchar(30);default:null" json:"phone" validate:"max=30"`
	AddressLine1 string         `gorm:"type:varchar(255);default:null" json:"address_line1" validate:"max=255"`
	AddressLine2 string         `gorm:"type:varchar(255);default:null" json:"address_line2" validate:"max=255"`
	City         string         `gorm:"type:varchar(100);default:null" json:"city" validate:"max=100"`
	State        string         `gorm:"type:varchar(50);default:null" json:"state" validate:"max=50"`
	PostalCode   string         `gorm:"type:varchar(20);default:null" json:"postal_code" validate:"max=20"`
	Notes        string         `gorm:"type:text" json:"notes" validate:"max=5000"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (cl *Client) Validate() error {
	v := validator.New()

	return v.Struct(cl)
}

// FullName joins first and last name for display and search.
func (cl *Client) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", cl.FirstName, cl.LastName))
}
