package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentStatusScheduled  = "scheduled"
	AppointmentStatusEnRoute    = "en_route"
	AppointmentStatusInProgress = "in_progress"
	AppointmentStatusCompleted  = "completed"
	AppointmentStatusCanceled   = "canceled"
)

const (
	JobTypeInstall     = "install"
	JobTypeRepair      = "repair"
	JobTypeMaintenance = "maintenance"
	JobTypeInspection  = "inspection"
)

// Appointment is a scheduled job for a client, optionally assigned to a
// technician. Completion captures labor and the parts consumed.
type Appointment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CompanyID      uint           `gorm:"not null;index:idx_appointments_company_start,priority:1" json:"company_id"`
	ClientID       uint           `gorm:"not null;index" json:"client_id"`
	TechnicianID   *uint          `gorm:"index" json:"technician_id,omitempty"`
	JobType        string         `gorm:"type:varchar(32);not null;default:'repair'" json:"job_type" validate:"oneof=install repair maintenance inspection"`
	Status         string         `gorm:"type:varchar(32);not null;default:'scheduled';index" json:"status" validate:"oneof=scheduled en_route in_progress completed canceled"`
	ScheduledStart time.Time      `gorm:"not null;index:idx_appointments_company_start,priority:2" json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time      `gorm:"not null" json:"scheduled_end" validate:"required"`
	Description    string         `gorm:"type:text" json:"description" validate:"max=5000"`
	LaborMinutes   int            `gorm:"default:0" json:"labor_minutes" validate:"gte=0"`
	LaborRateCents int64          `gorm:"default:0" json:"labor_rate_cents" validate:"gte=0"`
	CompletedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	ReminderSentAt *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Client     *Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Technician *User             `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Parts      []AppointmentPart `gorm:"foreignKey:AppointmentID" json:"parts,omitempty"`
}

func (a *Appointment) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// BeforeCreate assigns the public UUID.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// Overlaps reports whether two time windows intersect; used for technician
// double-booking checks.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledStart.Before(end) && start.Before(a.ScheduledEnd)
}

// AppointmentPart records a part consumed on a job with a price snapshot so
// later catalog changes do not rewrite history.
type AppointmentPart struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AppointmentID  uint      `gorm:"not null;index:ux_appointment_parts,unique,priority:1" json:"appointment_id"`
	PartID         uint      `gorm:"not null;index:ux_appointment_parts,unique,priority:2" json:"part_id"`
	Quantity       int       `gorm:"not null;default:1" json:"quantity" validate:"gt=0"`
	UnitPriceCents int64     `gorm:"not null;default:0" json:"unit_price_cents"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Part *Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}
