package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/mail"
)

// processAppointmentReminderJob mails the client ahead of a scheduled visit
// and stamps the appointment so the scan never enqueues it twice.
func (q *Queue) processAppointmentReminderJob(ctx context.Context, job *Job) error {
	payload, err := AppointmentReminderJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid reminder payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	var appt models.Appointment
	if err := db.First(&appt, payload.AppointmentID).Error; err != nil {
		return fmt.Errorf("appointment %d not found: %w", payload.AppointmentID, err)
	}

	// Canceled or already-reminded appointments are a no-op, not a failure.
	if appt.Status == models.AppointmentStatusCanceled || appt.ReminderSentAt != nil {
		return nil
	}

	var client models.Client
	if err := db.First(&client, appt.ClientID).Error; err != nil {
		return fmt.Errorf("client %d not found: %w", appt.ClientID, err)
	}

	var company models.Company
	if err := db.First(&company, appt.CompanyID).Error; err != nil {
		return fmt.Errorf("company %d not found: %w", appt.CompanyID, err)
	}

	if err := mail.SendAppointmentReminder(&appt, &client, company.Name); err != nil {
		return err
	}

	now := time.Now()
	if err := db.Model(&models.Appointment{}).
		Where("id = ?", appt.ID).
		Update("reminder_sent_at", now).Error; err != nil {
		log.Errorf("[JobQueue] Failed to stamp reminder for appointment %d: %v", appt.ID, err)
	}

	return nil
}
