package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// MaintenanceRecord is a service-history entry for a client, usually created
// when an appointment is completed.
type MaintenanceRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"not null;index" json:"company_id"`
	ClientID      uint           `gorm:"not null;index:idx_maintenance_client_performed,priority:1" json:"client_id"`
	AppointmentID *uint          `gorm:"index" json:"appointment_id,omitempty"`
	TechnicianID  *uint          `gorm:"index" json:"technician_id,omitempty"`
	Equipment     string         `gorm:"type:varchar(255);not null" json:"equipment" validate:"required,max=255"`
	WorkPerformed string         `gorm:"type:text;not null" json:"work_performed" validate:"required,max=10000"`
	PerformedAt   time.Time      `gorm:"not null;index:idx_maintenance_client_performed,priority:2" json:"performed_at" validate:"required"`
	NextDueAt     *time.Time     `gorm:"type:timestamp;default:null" json:"next_due_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Attachments []Attachment `gorm:"foreignKey:MaintenanceRecordID" json:"attachments,omitempty"`
}

func (m *MaintenanceRecord) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// Attachment is a photo or document stored in S3 and linked to a maintenance
// record. ObjectKey is the S3 key; downloads go through signed tokens.
type Attachment struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	MaintenanceRecordID uint      `gorm:"not null;index" json:"maintenance_record_id"`
	CompanyID           uint      `gorm:"not null;index" json:"company_id"`
	FileName            string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType         string    `gorm:"type:varchar(100);not null;default:'application/octet-stream'" json:"content_type"`
	SizeBytes           int64     `gorm:"not null;default:0" json:"size_bytes"`
	ObjectKey           string    `gorm:"type:varchar(512);not null" json:"-"`
	UploadedByID        uint      `gorm:"not null" json:"uploaded_by_id"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}
