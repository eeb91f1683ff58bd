package repository

import (
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// appointmentRepository implements the AppointmentRepository interface
type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository instance
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create creates a new appointment in the database
func (r *appointmentRepository) Create(appt *models.Appointment) error {
	return r.db.Create(appt).Error
}

// GetByID retrieves one company's appointment with client and technician
func (r *appointmentRepository) GetByID(companyID, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.Where("company_id = ?", companyID).
		Preload("Client").
		Preload("Technician").
		Preload("Parts.Part").
		First(&appt, id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetByUUID retrieves an appointment by its public UUID within the company scope
func (r *appointmentRepository) GetByUUID(companyID uint, uuid string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.Where("company_id = ? AND uuid = ?", companyID, uuid).
		Preload("Client").
		Preload("Technician").
		Preload("Parts.Part").
		First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Update updates an existing appointment in the database
func (r *appointmentRepository) Update(appt *models.Appointment) error {
	return r.db.Save(appt).Error
}

// Delete soft deletes an appointment within the company scope
func (r *appointmentRepository) Delete(companyID, id uint) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Appointment{}, id).Error
}

// ListByCompany retrieves one company's appointments in a time range
func (r *appointmentRepository) ListByCompany(companyID uint, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Where("company_id = ? AND scheduled_start >= ? AND scheduled_start < ?", companyID, from, to).
		Preload("Client").
		Preload("Technician").
		Order("scheduled_start ASC").
		Find(&appts).Error
	return appts, err
}

// ListByTechnician retrieves one technician's appointments in a time range
func (r *appointmentRepository) ListByTechnician(companyID, technicianID uint, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Where("company_id = ? AND technician_id = ? AND scheduled_start >= ? AND scheduled_start < ?",
		companyID, technicianID, from, to).
		Preload("Client").
		Order("scheduled_start ASC").
		Find(&appts).Error
	return appts, err
}

// FindConflicts returns the technician's non-canceled appointments overlapping
// the given window, excluding the appointment being edited.
func (r *appointmentRepository) FindConflicts(companyID, technicianID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	var appts []models.Appointment
	q := r.db.Where("company_id = ? AND technician_id = ?", companyID, technicianID).
		Where("status <> ?", models.AppointmentStatusCanceled).
		Where("scheduled_start < ? AND scheduled_end > ?", end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Find(&appts).Error
	return appts, err
}

// AddPart records a part used on an appointment, accumulating quantity on
// conflict so a technician can log the same part twice.
func (r *appointmentRepository) AddPart(apptPart *models.AppointmentPart) error {
	existing := models.AppointmentPart{}
	err := r.db.Where("appointment_id = ? AND part_id = ?", apptPart.AppointmentID, apptPart.PartID).
		First(&existing).Error
	if err == nil {
		existing.Quantity += apptPart.Quantity
		return r.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.Create(apptPart).Error
}

// RemovePart removes a part usage line from an appointment
func (r *appointmentRepository) RemovePart(appointmentID, partID uint) error {
	return r.db.Where("appointment_id = ? AND part_id = ?", appointmentID, partID).
		Delete(&models.AppointmentPart{}).Error
}

// GetParts lists the parts used on an appointment
func (r *appointmentRepository) GetParts(appointmentID uint) ([]models.AppointmentPart, error) {
	var parts []models.AppointmentPart
	err := r.db.Where("appointment_id = ?", appointmentID).
		Preload("Part").
		Find(&parts).Error
	return parts, err
}
