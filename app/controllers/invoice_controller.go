package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/jobqueue"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/statistics"
)

type invoiceItemRequest struct {
	Kind           string `json:"kind" form:"kind"`
	Description    string `json:"description" form:"description"`
	Quantity       int    `json:"quantity" form:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents" form:"unit_price_cents"`
}

type invoiceRequest struct {
	ClientID uint                 `json:"client_id" form:"client_id"`
	TaxCents int64                `json:"tax_cents" form:"tax_cents"`
	Items    []invoiceItemRequest `json:"items"`
}

func buildInvoiceItems(reqs []invoiceItemRequest) ([]models.InvoiceItem, error) {
	items := make([]models.InvoiceItem, 0, len(reqs))
	for _, r := range reqs {
		kind := strings.TrimSpace(r.Kind)
		if kind == "" {
			kind = models.InvoiceItemKindOther
		}
		qty := r.Quantity
		if qty == 0 {
			qty = 1
		}
		item := models.InvoiceItem{
			Kind:           kind,
			Description:    strings.TrimSpace(r.Description),
			Quantity:       qty,
			UnitPriceCents: r.UnitPriceCents,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func HandleInvoiceList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}
	status := strings.TrimSpace(c.Query("status"))

	invoices, err := repository.GetGlobalFactory().GetInvoiceRepository().ListByCompany(uc.CompanyID, status, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	return c.JSON(fiber.Map{"invoices": invoices, "page": page, "per_page": perPage})
}

func HandleInvoiceGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	invoice, ok := findInvoice(c, uc.CompanyID)
	if !ok {
		return nil
	}
	return c.JSON(invoice)
}

// HandleInvoiceCreate creates a draft invoice from explicit line items.
func HandleInvoiceCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req invoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetClientRepository().GetByID(uc.CompanyID, req.ClientID); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "client not found"})
	}

	items, err := buildInvoiceItems(req.Items)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	number, err := factory.GetInvoiceRepository().NextNumber(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not allocate invoice number"})
	}

	invoice := models.Invoice{
		CompanyID: uc.CompanyID,
		ClientID:  req.ClientID,
		Number:    number,
		Status:    models.InvoiceStatusDraft,
		TaxCents:  req.TaxCents,
		Items:     items,
	}
	invoice.Recalculate()

	if err := factory.GetInvoiceRepository().Create(&invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create invoice"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// HandleInvoiceFromAppointment drafts an invoice off a completed
// appointment: one labor line from the recorded minutes plus one line per
// consumed part at its snapshot price.
func HandleInvoiceFromAppointment(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	apptID := paramID(c, "id")
	if apptID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid appointment id"})
	}

	factory := repository.GetGlobalFactory()
	appt, err := factory.GetAppointmentRepository().GetByID(uc.CompanyID, apptID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "appointment not found"})
	}
	if appt.Status != models.AppointmentStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_completed", "message": "only completed appointments can be invoiced"})
	}

	var req struct {
		TaxCents int64 `json:"tax_cents" form:"tax_cents"`
	}
	_ = c.BodyParser(&req)

	var items []models.InvoiceItem
	if appt.LaborMinutes > 0 && appt.LaborRateCents > 0 {
		laborCents := int64(appt.LaborMinutes) * appt.LaborRateCents / 60
		items = append(items, models.InvoiceItem{
			Kind:           models.InvoiceItemKindLabor,
			Description:    fmt.Sprintf("Labor (%d min)", appt.LaborMinutes),
			Quantity:       1,
			UnitPriceCents: laborCents,
		})
	}

	apptParts, err := factory.GetAppointmentRepository().GetParts(appt.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load parts"})
	}
	for _, ap := range apptParts {
		desc := fmt.Sprintf("Part #%d", ap.PartID)
		if part, perr := factory.GetPartRepository().GetByID(uc.CompanyID, ap.PartID); perr == nil {
			desc = fmt.Sprintf("%s (%s)", part.Name, part.SKU)
		}
		items = append(items, models.InvoiceItem{
			Kind:           models.InvoiceItemKindPart,
			Description:    desc,
			Quantity:       ap.Quantity,
			UnitPriceCents: ap.UnitPriceCents,
		})
	}
	if len(items) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "appointment has no billable labor or parts"})
	}

	number, err := factory.GetInvoiceRepository().NextNumber(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not allocate invoice number"})
	}

	invoice := models.Invoice{
		CompanyID:     uc.CompanyID,
		ClientID:      appt.ClientID,
		AppointmentID: &appt.ID,
		Number:        number,
		Status:        models.InvoiceStatusDraft,
		TaxCents:      req.TaxCents,
		Items:         items,
	}
	invoice.Recalculate()

	if err := factory.GetInvoiceRepository().Create(&invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create invoice"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// HandleInvoiceUpdate replaces the line items of a draft.
func HandleInvoiceUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	invoice, ok := findInvoice(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_draft", "message": "only draft invoices can be edited"})
	}

	var req invoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	items, err := buildInvoiceItems(req.Items)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	factory := repository.GetGlobalFactory()
	if err := factory.GetInvoiceRepository().ReplaceItems(invoice.ID, items); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update items"})
	}

	invoice.Items = items
	invoice.TaxCents = req.TaxCents
	invoice.Recalculate()
	if err := factory.GetInvoiceRepository().Update(invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update invoice"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(invoice)
}

// HandleInvoiceIssue moves a draft to sent and queues the email delivery.
func HandleInvoiceIssue(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	invoice, ok := findInvoice(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_draft", "message": "only draft invoices can be issued"})
	}
	if invoice.TotalCents <= 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "invoice total must be positive"})
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusSent
	invoice.IssuedAt = &now
	if err := repository.GetGlobalFactory().GetInvoiceRepository().Update(invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not issue invoice"})
	}

	payload := jobqueue.InvoiceEmailJobPayload{InvoiceID: invoice.ID, CompanyID: uc.CompanyID, ClientID: invoice.ClientID}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeInvoiceEmail, payload.ToMap()); err != nil {
		log.Errorf("invoice email job for invoice %d: %v", invoice.ID, err)
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(invoice)
}

// HandleInvoiceMarkPaid records payment. Sent invoices only.
func HandleInvoiceMarkPaid(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	invoice, ok := findInvoice(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if invoice.Status != models.InvoiceStatusSent {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_sent", "message": "only sent invoices can be marked paid"})
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	if err := repository.GetGlobalFactory().GetInvoiceRepository().Update(invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update invoice"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(invoice)
}

// HandleInvoiceVoid voids a draft or sent invoice. Paid invoices stay paid.
func HandleInvoiceVoid(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	invoice, ok := findInvoice(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if invoice.Status == models.InvoiceStatusPaid || invoice.Status == models.InvoiceStatusVoid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_transition", "message": "paid or void invoices cannot be voided"})
	}

	invoice.Status = models.InvoiceStatusVoid
	if err := repository.GetGlobalFactory().GetInvoiceRepository().Update(invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not void invoice"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(invoice)
}

func findInvoice(c *fiber.Ctx, companyID uint) (*models.Invoice, bool) {
	repo := repository.GetGlobalFactory().GetInvoiceRepository()
	raw := c.Params("id")
	if id := paramID(c, "id"); id != 0 {
		invoice, err := repo.GetByID(companyID, id)
		if err != nil {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "invoice not found"})
			return nil, false
		}
		return invoice, true
	}
	invoice, err := repo.GetByUUID(companyID, raw)
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "invoice not found"})
		return nil, false
	}
	return invoice, true
}
