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

// processInvoiceEmailJob delivers an issued invoice to the client.
func (q *Queue) processInvoiceEmailJob(ctx context.Context, job *Job) error {
	payload, err := InvoiceEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid invoice email payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	var inv models.Invoice
	if err := db.Preload("Items").First(&inv, payload.InvoiceID).Error; err != nil {
		return fmt.Errorf("invoice %d not found: %w", payload.InvoiceID, err)
	}

	// Draft and void invoices never go out; a duplicate send is a no-op.
	if inv.Status == models.InvoiceStatusDraft || inv.Status == models.InvoiceStatusVoid || inv.EmailSentAt != nil {
		return nil
	}

	var client models.Client
	if err := db.First(&client, inv.ClientID).Error; err != nil {
		return fmt.Errorf("client %d not found: %w", inv.ClientID, err)
	}

	var company models.Company
	if err := db.First(&company, inv.CompanyID).Error; err != nil {
		return fmt.Errorf("company %d not found: %w", inv.CompanyID, err)
	}

	if err := mail.SendInvoiceMail(&inv, &client, company.Name); err != nil {
		return err
	}

	now := time.Now()
	if err := db.Model(&models.Invoice{}).
		Where("id = ?", inv.ID).
		Update("email_sent_at", now).Error; err != nil {
		log.Errorf("[JobQueue] Failed to stamp email sent for invoice %d: %v", inv.ID, err)
	}

	return nil
}
