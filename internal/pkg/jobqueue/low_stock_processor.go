package jobqueue

import (
	"context"
	"fmt"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/mail"
)

// processLowStockAlertJob mails every company admin when a part crosses its
// reorder threshold. Stock may have been replenished since enqueue, so the
// threshold is re-checked here.
func (q *Queue) processLowStockAlertJob(ctx context.Context, job *Job) error {
	payload, err := LowStockAlertJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid low stock payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	var part models.Part
	if err := db.First(&part, payload.PartID).Error; err != nil {
		return fmt.Errorf("part %d not found: %w", payload.PartID, err)
	}

	if !part.NeedsReorder() {
		return nil
	}

	var admins []models.User
	if err := db.Where("company_id = ? AND role = ? AND status = ?",
		payload.CompanyID, models.ROLE_ADMIN, models.STATUS_ACTIVE).
		Find(&admins).Error; err != nil {
		return fmt.Errorf("failed to load admins for company %d: %w", payload.CompanyID, err)
	}

	var lastErr error
	for _, admin := range admins {
		if err := mail.SendLowStockMail(admin.Email, &part); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
