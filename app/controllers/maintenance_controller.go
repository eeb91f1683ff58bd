package controllers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/attachments"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/constants"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/entitlements"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/security"
)

const (
	maxAttachmentSize = 25 * 1024 * 1024
	downloadTokenTTL  = 15 * time.Minute
)

var (
	attachmentStore  *attachments.Store
	attachmentConfig *attachments.Config
)

// SetAttachmentStore wires the S3-backed store at startup. A nil store
// disables uploads.
func SetAttachmentStore(store *attachments.Store, cfg *attachments.Config) {
	attachmentStore = store
	attachmentConfig = cfg
}

func downloadTokenSecret() string {
	return env.GetEnv("DOWNLOAD_TOKEN_SECRET", env.GetEnv("SESSION_SECRET", ""))
}

type maintenanceRequest struct {
	ClientID      uint   `json:"client_id" form:"client_id"`
	AppointmentID *uint  `json:"appointment_id" form:"appointment_id"`
	TechnicianID  *uint  `json:"technician_id" form:"technician_id"`
	Equipment     string `json:"equipment" form:"equipment"`
	WorkPerformed string `json:"work_performed" form:"work_performed"`
	PerformedAt   string `json:"performed_at" form:"performed_at"`
	NextDueAt     string `json:"next_due_at" form:"next_due_at"`
}

func HandleMaintenanceList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetMaintenanceRepository()

	if c.Query("due_soon") == "true" {
		days := c.QueryInt("days", 30)
		if days < 1 {
			days = 30
		}
		records, err := repo.ListDueSoon(uc.CompanyID, time.Duration(days)*24*time.Hour)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
		}
		return c.JSON(fiber.Map{"records": records, "total": len(records)})
	}

	clientID := paramQueryUint(c, "client_id")
	if clientID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "client_id is required"})
	}
	records, err := repo.ListByClient(uc.CompanyID, clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	return c.JSON(fiber.Map{"records": records, "total": len(records)})
}

func HandleMaintenanceGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid record id"})
	}

	record, err := repository.GetGlobalFactory().GetMaintenanceRepository().GetByID(uc.CompanyID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "record not found"})
	}
	return c.JSON(record)
}

func HandleMaintenanceCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req maintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetClientRepository().GetByID(uc.CompanyID, req.ClientID); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "client not found"})
	}

	performedAt := time.Now()
	if req.PerformedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PerformedAt)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "performed_at must be RFC 3339"})
		}
		performedAt = t
	}

	record := models.MaintenanceRecord{
		CompanyID:     uc.CompanyID,
		ClientID:      req.ClientID,
		AppointmentID: req.AppointmentID,
		TechnicianID:  req.TechnicianID,
		Equipment:     strings.TrimSpace(req.Equipment),
		WorkPerformed: req.WorkPerformed,
		PerformedAt:   performedAt,
	}
	if req.NextDueAt != "" {
		t, err := time.Parse(time.RFC3339, req.NextDueAt)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "next_due_at must be RFC 3339"})
		}
		record.NextDueAt = &t
	}
	if err := record.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetMaintenanceRepository().Create(&record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create record"})
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func HandleMaintenanceUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid record id"})
	}

	repo := repository.GetGlobalFactory().GetMaintenanceRepository()
	record, err := repo.GetByID(uc.CompanyID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "record not found"})
	}

	var req maintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	if req.Equipment != "" {
		record.Equipment = strings.TrimSpace(req.Equipment)
	}
	if req.WorkPerformed != "" {
		record.WorkPerformed = req.WorkPerformed
	}
	if req.PerformedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PerformedAt)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "performed_at must be RFC 3339"})
		}
		record.PerformedAt = t
	}
	if req.NextDueAt != "" {
		t, err := time.Parse(time.RFC3339, req.NextDueAt)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "next_due_at must be RFC 3339"})
		}
		record.NextDueAt = &t
	}
	if err := record.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Update(record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update record"})
	}
	return c.JSON(record)
}

func HandleMaintenanceDelete(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid record id"})
	}

	if err := repository.GetGlobalFactory().GetMaintenanceRepository().Delete(uc.CompanyID, id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "record not found"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// companyAttachmentsEnabled checks both the deployment (S3 configured) and
// the company's plan.
func companyAttachmentsEnabled(c *fiber.Ctx, companyID uint) bool {
	if attachmentStore == nil || attachmentConfig == nil || !attachmentConfig.IsEnabled() {
		_ = c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "attachments_disabled", "message": "attachment storage is not configured"})
		return false
	}
	co, err := repository.GetGlobalFactory().GetCompanyRepository().GetByID(companyID)
	if err != nil || !entitlements.EffectiveLimits(co).AttachmentsEnabled {
		_ = c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "plan_limit", "message": "attachments require the pro plan"})
		return false
	}
	return true
}

// HandleAttachmentUpload stores a multipart file in S3 and links it to a
// maintenance record.
func HandleAttachmentUpload(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	recordID := paramID(c, "id")
	if recordID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid record id"})
	}
	if !companyAttachmentsEnabled(c, uc.CompanyID) {
		return nil
	}

	repo := repository.GetGlobalFactory().GetMaintenanceRepository()
	record, err := repo.GetByID(uc.CompanyID, recordID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "record not found"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "multipart field 'file' is required"})
	}
	if fileHeader.Size > maxAttachmentSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file_too_large", "message": "attachments are limited to 25 MB"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType := attachments.ContentTypeForExt(ext)

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not read upload"})
	}
	defer f.Close()

	objectKey := attachmentConfig.ObjectKey(uc.CompanyID, record.ID, uuid.New().String(), ext)
	if err := attachmentStore.Put(c.Context(), objectKey, f, fileHeader.Size, contentType); err != nil {
		log.Errorf("attachment upload for record %d: %v", record.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "upload failed"})
	}

	att := models.Attachment{
		MaintenanceRecordID: record.ID,
		CompanyID:           uc.CompanyID,
		FileName:            filepath.Base(fileHeader.Filename),
		ContentType:         contentType,
		SizeBytes:           fileHeader.Size,
		ObjectKey:           objectKey,
		UploadedByID:        uc.UserID,
	}
	if err := repo.AddAttachment(&att); err != nil {
		if derr := attachmentStore.Delete(c.Context(), objectKey); derr != nil {
			log.Errorf("orphaned attachment object %s: %v", objectKey, derr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not save attachment"})
	}

	return c.Status(fiber.StatusCreated).JSON(att)
}

// HandleAttachmentLink issues a short-lived signed download URL so the S3
// object never needs to be public.
func HandleAttachmentLink(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	attID := paramID(c, "attachmentId")
	if attID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid attachment id"})
	}

	att, err := repository.GetGlobalFactory().GetMaintenanceRepository().GetAttachment(uc.CompanyID, attID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "attachment not found"})
	}

	secret := downloadTokenSecret()
	if secret == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "download tokens are not configured"})
	}
	token, err := security.GenerateDownloadToken(uc.UserID, uc.CompanyID, att.ID, downloadTokenTTL, secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not sign download token"})
	}

	return c.JSON(fiber.Map{
		"url":        fmt.Sprintf("/%s/download?token=%s", constants.AttachmentsPath, token),
		"expires_in": int(downloadTokenTTL.Seconds()),
	})
}

// HandleAttachmentDownload streams the object for a valid token. The token
// carries the tenant scope so no session is needed.
func HandleAttachmentDownload(c *fiber.Ctx) error {
	secret := downloadTokenSecret()
	if secret == "" || attachmentStore == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "attachments_disabled", "message": "attachment storage is not configured"})
	}

	claims, err := security.VerifyDownloadToken(c.Query("token"), secret)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_token", "message": "download link is invalid or expired"})
	}

	att, err := repository.GetGlobalFactory().GetMaintenanceRepository().GetAttachment(claims.CompanyID, claims.AttachmentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "attachment not found"})
	}

	body, contentType, size, err := attachmentStore.Get(c.Context(), att.ObjectKey)
	if err != nil {
		log.Errorf("attachment download %s: %v", att.ObjectKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "download failed"})
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.FileName))
	if size > 0 {
		c.Set(fiber.HeaderContentLength, fmt.Sprintf("%d", size))
	}
	return c.SendStream(body)
}

func HandleAttachmentDelete(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	attID := paramID(c, "attachmentId")
	if attID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid attachment id"})
	}

	repo := repository.GetGlobalFactory().GetMaintenanceRepository()
	att, err := repo.GetAttachment(uc.CompanyID, attID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "attachment not found"})
	}

	if err := repo.DeleteAttachment(uc.CompanyID, attID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not delete attachment"})
	}
	if attachmentStore != nil {
		if err := attachmentStore.Delete(c.Context(), att.ObjectKey); err != nil {
			log.Errorf("delete attachment object %s: %v", att.ObjectKey, err)
		}
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
