package jobqueue

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/entitlements"
)

// ReminderWindow is how far ahead of the scheduled start a client is notified.
const ReminderWindow = 24 * time.Hour

// EnqueueDueReminders scans for scheduled appointments entering the reminder
// window and enqueues one reminder job each. The ReminderSentAt stamp keeps
// replays from double-mailing even if the scan and a worker race.
func (q *Queue) EnqueueDueReminders() error {
	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	now := time.Now()
	var appts []models.Appointment
	err := db.
		Where("status = ?", models.AppointmentStatusScheduled).
		Where("reminder_sent_at IS NULL").
		Where("scheduled_start > ? AND scheduled_start <= ?", now, now.Add(ReminderWindow)).
		Limit(500).
		Find(&appts).Error
	if err != nil {
		return fmt.Errorf("reminder scan failed: %w", err)
	}

	enqueued := 0
	for _, appt := range appts {
		var company models.Company
		if err := db.First(&company, appt.CompanyID).Error; err != nil {
			continue
		}
		limits := entitlements.EffectiveLimits(&company)
		if !limits.RemindersEnabled {
			continue
		}

		payload := AppointmentReminderJobPayload{
			AppointmentID: appt.ID,
			CompanyID:     appt.CompanyID,
			ClientID:      appt.ClientID,
		}
		if _, err := q.EnqueueJob(JobTypeAppointmentReminder, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue] Failed to enqueue reminder for appointment %d: %v", appt.ID, err)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		log.Infof("[JobQueue] Enqueued %d appointment reminders", enqueued)
	}
	return nil
}
