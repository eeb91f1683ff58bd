package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/jobqueue"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/metrics/counter"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/statistics"
)

type appointmentRequest struct {
	ClientID       uint   `json:"client_id" form:"client_id"`
	TechnicianID   *uint  `json:"technician_id" form:"technician_id"`
	JobType        string `json:"job_type" form:"job_type"`
	ScheduledStart string `json:"scheduled_start" form:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end" form:"scheduled_end"`
	Description    string `json:"description" form:"description"`
	LaborRateCents int64  `json:"labor_rate_cents" form:"labor_rate_cents"`
}

// Allowed status transitions. Completed and canceled are terminal.
var appointmentTransitions = map[string][]string{
	models.AppointmentStatusScheduled:  {models.AppointmentStatusEnRoute, models.AppointmentStatusInProgress, models.AppointmentStatusCanceled},
	models.AppointmentStatusEnRoute:    {models.AppointmentStatusInProgress, models.AppointmentStatusCanceled},
	models.AppointmentStatusInProgress: {models.AppointmentStatusCompleted, models.AppointmentStatusCanceled},
}

func transitionAllowed(from, to string) bool {
	for _, s := range appointmentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func parseScheduleWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("scheduled_start must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("scheduled_end must be RFC 3339")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("scheduled_end must be after scheduled_start")
	}
	return start, end, nil
}

// validateTechnician checks the assignee belongs to the company and can be
// put on a job.
func validateTechnician(companyID, technicianID uint) error {
	tech, err := repository.GetGlobalFactory().GetUserRepository().GetByID(technicianID)
	if err != nil {
		return errors.New("technician not found")
	}
	if tech.CompanyID == nil || *tech.CompanyID != companyID {
		return errors.New("technician not found")
	}
	if tech.Role != models.ROLE_TECHNICIAN && tech.Role != models.ROLE_ADMIN {
		return errors.New("user cannot be assigned to appointments")
	}
	if !tech.IsActive() {
		return errors.New("technician is not active")
	}
	return nil
}

// HandleAppointmentList returns appointments in a date range. Technicians
// only see their own schedule.
func HandleAppointmentList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now.AddDate(0, 0, 30)
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	repo := repository.GetGlobalFactory().GetAppointmentRepository()

	var (
		appts []models.Appointment
		err   error
	)
	if uc.Role == models.ROLE_TECHNICIAN {
		appts, err = repo.ListByTechnician(uc.CompanyID, uc.UserID, from, to)
	} else if techID := paramQueryUint(c, "technician_id"); techID != 0 {
		appts, err = repo.ListByTechnician(uc.CompanyID, techID, from, to)
	} else {
		appts, err = repo.ListByCompany(uc.CompanyID, from, to)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}

	return c.JSON(fiber.Map{"appointments": appts, "from": from, "to": to})
}

func HandleAppointmentGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}
	return c.JSON(appt)
}

func HandleAppointmentCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req appointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	start, end, err := parseScheduleWindow(req.ScheduledStart, req.ScheduledEnd)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetClientRepository().GetByID(uc.CompanyID, req.ClientID); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "client not found"})
	}

	if req.TechnicianID != nil {
		if err := validateTechnician(uc.CompanyID, *req.TechnicianID); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
		conflicts, err := factory.GetAppointmentRepository().FindConflicts(uc.CompanyID, *req.TechnicianID, start, end, 0)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "conflict check failed"})
		}
		if len(conflicts) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "schedule_conflict", "message": "technician is already booked in that window", "conflicts": conflicts})
		}
	}

	jobType := strings.TrimSpace(req.JobType)
	if jobType == "" {
		jobType = models.JobTypeRepair
	}

	appt := models.Appointment{
		CompanyID:      uc.CompanyID,
		ClientID:       req.ClientID,
		TechnicianID:   req.TechnicianID,
		JobType:        jobType,
		Status:         models.AppointmentStatusScheduled,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Description:    req.Description,
		LaborRateCents: req.LaborRateCents,
	}
	if err := appt.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetAppointmentRepository().Create(&appt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create appointment"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// HandleAppointmentUpdate reschedules or reassigns an appointment. Terminal
// appointments are immutable.
func HandleAppointmentUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if appt.Status == models.AppointmentStatusCompleted || appt.Status == models.AppointmentStatusCanceled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "appointment_closed", "message": "completed or canceled appointments cannot be changed"})
	}

	var req appointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	factory := repository.GetGlobalFactory()

	start, end := appt.ScheduledStart, appt.ScheduledEnd
	if req.ScheduledStart != "" || req.ScheduledEnd != "" {
		startStr, endStr := req.ScheduledStart, req.ScheduledEnd
		if startStr == "" {
			startStr = appt.ScheduledStart.Format(time.RFC3339)
		}
		if endStr == "" {
			endStr = appt.ScheduledEnd.Format(time.RFC3339)
		}
		var err error
		start, end, err = parseScheduleWindow(startStr, endStr)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
	}

	techID := appt.TechnicianID
	if req.TechnicianID != nil {
		if *req.TechnicianID == 0 {
			techID = nil
		} else {
			if err := validateTechnician(uc.CompanyID, *req.TechnicianID); err != nil {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
			}
			techID = req.TechnicianID
		}
	}

	if techID != nil {
		conflicts, err := factory.GetAppointmentRepository().FindConflicts(uc.CompanyID, *techID, start, end, appt.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "conflict check failed"})
		}
		if len(conflicts) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "schedule_conflict", "message": "technician is already booked in that window", "conflicts": conflicts})
		}
	}

	rescheduled := !start.Equal(appt.ScheduledStart)

	appt.TechnicianID = techID
	appt.ScheduledStart = start
	appt.ScheduledEnd = end
	if req.JobType != "" {
		appt.JobType = strings.TrimSpace(req.JobType)
	}
	if req.Description != "" {
		appt.Description = req.Description
	}
	if req.LaborRateCents > 0 {
		appt.LaborRateCents = req.LaborRateCents
	}
	// A moved appointment gets a fresh reminder for the new slot.
	if rescheduled {
		appt.ReminderSentAt = nil
	}
	if err := appt.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetAppointmentRepository().Update(appt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update appointment"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(appt)
}

type appointmentStatusRequest struct {
	Status       string `json:"status" form:"status"`
	LaborMinutes int    `json:"labor_minutes" form:"labor_minutes"`

	// Completion may record a service-history entry in one step.
	Equipment     string `json:"equipment" form:"equipment"`
	WorkPerformed string `json:"work_performed" form:"work_performed"`
	NextDueDays   int    `json:"next_due_days" form:"next_due_days"`
}

// HandleAppointmentStatus moves an appointment through its lifecycle.
// Completion stamps completed_at, credits the technician's job counter and
// may create a maintenance record.
func HandleAppointmentStatus(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}

	var req appointmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	next := strings.TrimSpace(req.Status)
	if !transitionAllowed(appt.Status, next) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_transition", "message": "cannot move appointment from " + appt.Status + " to " + next})
	}

	// Technicians may only work their own jobs.
	if uc.Role == models.ROLE_TECHNICIAN && (appt.TechnicianID == nil || *appt.TechnicianID != uc.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "appointment is assigned to someone else"})
	}

	appt.Status = next
	if next == models.AppointmentStatusCompleted {
		now := time.Now()
		appt.CompletedAt = &now
		if req.LaborMinutes > 0 {
			appt.LaborMinutes = req.LaborMinutes
		}
	}

	factory := repository.GetGlobalFactory()
	if err := factory.GetAppointmentRepository().Update(appt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update appointment"})
	}

	if next == models.AppointmentStatusCompleted {
		if appt.TechnicianID != nil {
			if err := counter.AddTechnicianJob(*appt.TechnicianID); err != nil {
				log.Errorf("job counter for technician %d: %v", *appt.TechnicianID, err)
			}
		}
		if req.WorkPerformed != "" {
			record := models.MaintenanceRecord{
				CompanyID:     uc.CompanyID,
				ClientID:      appt.ClientID,
				AppointmentID: &appt.ID,
				TechnicianID:  appt.TechnicianID,
				Equipment:     req.Equipment,
				WorkPerformed: req.WorkPerformed,
				PerformedAt:   *appt.CompletedAt,
			}
			if req.NextDueDays > 0 {
				due := appt.CompletedAt.AddDate(0, 0, req.NextDueDays)
				record.NextDueAt = &due
			}
			if err := record.Validate(); err != nil {
				log.Errorf("maintenance record for appointment %d rejected: %v", appt.ID, err)
			} else if err := factory.GetMaintenanceRepository().Create(&record); err != nil {
				log.Errorf("maintenance record for appointment %d: %v", appt.ID, err)
			}
		}
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(appt)
}

func HandleAppointmentDelete(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if appt.Status == models.AppointmentStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "appointment_closed", "message": "completed appointments cannot be deleted"})
	}

	if err := repository.GetGlobalFactory().GetAppointmentRepository().Delete(uc.CompanyID, appt.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not delete appointment"})
	}
	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(fiber.Map{"status": "deleted"})
}

type appointmentPartRequest struct {
	PartID   uint `json:"part_id" form:"part_id"`
	Quantity int  `json:"quantity" form:"quantity"`
}

// HandleAppointmentAddPart consumes inventory for a job: decrements stock,
// snapshots the price and bumps the usage counter. Stock that hits the
// reorder threshold queues a low-stock alert.
func HandleAppointmentAddPart(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}
	if appt.Status == models.AppointmentStatusCanceled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "appointment_closed", "message": "canceled appointments cannot consume parts"})
	}

	var req appointmentPartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	if req.PartID == 0 || req.Quantity <= 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "part_id and a positive quantity are required"})
	}

	factory := repository.GetGlobalFactory()
	part, err := factory.GetPartRepository().AdjustStock(uc.CompanyID, req.PartID, -req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "insufficient_stock", "message": "not enough stock on hand"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
	}

	ap := models.AppointmentPart{
		AppointmentID:  appt.ID,
		PartID:         part.ID,
		Quantity:       req.Quantity,
		UnitPriceCents: part.UnitPriceCents,
	}
	if err := factory.GetAppointmentRepository().AddPart(&ap); err != nil {
		// Put the stock back; the line item never landed.
		if _, rerr := factory.GetPartRepository().AdjustStock(uc.CompanyID, part.ID, req.Quantity); rerr != nil {
			log.Errorf("restock part %d after failed line item: %v", part.ID, rerr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not record part usage"})
	}

	if err := counter.AddPartUsage(part.ID, req.Quantity); err != nil {
		log.Errorf("usage counter for part %d: %v", part.ID, err)
	}

	if part.NeedsReorder() {
		payload := jobqueue.LowStockAlertJobPayload{PartID: part.ID, CompanyID: uc.CompanyID}
		if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeLowStockAlert, payload.ToMap()); err != nil {
			log.Errorf("low stock alert for part %d: %v", part.ID, err)
		}
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment_part": ap, "part": part})
}

// HandleAppointmentRemovePart undoes a line item and returns its quantity to
// stock.
func HandleAppointmentRemovePart(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}
	partID := paramID(c, "partId")
	if partID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid part id"})
	}

	factory := repository.GetGlobalFactory()
	parts, err := factory.GetAppointmentRepository().GetParts(appt.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load parts"})
	}
	var removed *models.AppointmentPart
	for i := range parts {
		if parts[i].PartID == partID {
			removed = &parts[i]
			break
		}
	}
	if removed == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part is not on this appointment"})
	}

	if err := factory.GetAppointmentRepository().RemovePart(appt.ID, partID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not remove part"})
	}
	if _, err := factory.GetPartRepository().AdjustStock(uc.CompanyID, partID, removed.Quantity); err != nil {
		log.Errorf("restock part %d after removal: %v", partID, err)
	}
	if err := counter.AddPartUsage(partID, -removed.Quantity); err != nil {
		log.Errorf("usage counter for part %d: %v", partID, err)
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(fiber.Map{"status": "removed"})
}

func HandleAppointmentListParts(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	appt, ok := findAppointment(c, uc.CompanyID)
	if !ok {
		return nil
	}

	parts, err := repository.GetGlobalFactory().GetAppointmentRepository().GetParts(appt.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load parts"})
	}
	return c.JSON(fiber.Map{"parts": parts})
}

// findAppointment resolves the :id path segment (numeric id or public UUID)
// within the company scope, writing the error response on failure.
func findAppointment(c *fiber.Ctx, companyID uint) (*models.Appointment, bool) {
	repo := repository.GetGlobalFactory().GetAppointmentRepository()
	raw := c.Params("id")
	if id := paramID(c, "id"); id != 0 {
		appt, err := repo.GetByID(companyID, id)
		if err != nil {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "appointment not found"})
			return nil, false
		}
		return appt, true
	}
	appt, err := repo.GetByUUID(companyID, raw)
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "appointment not found"})
		return nil, false
	}
	return appt, true
}

// paramQueryUint parses an optional numeric query parameter.
func paramQueryUint(c *fiber.Ctx, name string) uint {
	v := c.QueryInt(name, 0)
	if v < 0 {
		return 0
	}
	return uint(v)
}
