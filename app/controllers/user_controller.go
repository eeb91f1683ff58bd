package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/entitlements"
)

type userRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func companyRoleAllowed(role string) bool {
	switch role {
	case models.ROLE_ADMIN, models.ROLE_DISPATCHER, models.ROLE_TECHNICIAN:
		return true
	}
	return false
}

func HandleUserList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetUserRepository()

	if c.Query("role") == models.ROLE_TECHNICIAN {
		techs, err := repo.ListTechnicians(uc.CompanyID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
		}
		return c.JSON(fiber.Map{"users": techs, "total": len(techs)})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	users, err := repo.ListByCompany(uc.CompanyID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	return c.JSON(fiber.Map{"users": users, "page": page, "per_page": perPage})
}

func HandleUserGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid user id"})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(id)
	if err != nil || user.CompanyID == nil || *user.CompanyID != uc.CompanyID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "user not found"})
	}
	return c.JSON(user)
}

// HandleUserCreate adds a company member. Technician seats are limited by
// the plan.
func HandleUserCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.ROLE_TECHNICIAN
	}
	if !companyRoleAllowed(role) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "role must be admin, dispatcher or technician"})
	}

	factory := repository.GetGlobalFactory()

	if role == models.ROLE_TECHNICIAN {
		co, err := factory.GetCompanyRepository().GetByID(uc.CompanyID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load company"})
		}
		limits := entitlements.EffectiveLimits(co)
		if limits.MaxTechnicians > 0 {
			count, err := factory.GetUserRepository().CountByCompanyAndRole(uc.CompanyID, models.ROLE_TECHNICIAN)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not count technicians"})
			}
			if count >= int64(limits.MaxTechnicians) {
				return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "plan_limit", "message": "technician limit reached for the current plan"})
			}
		}
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := factory.GetUserRepository().GetByEmail(email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_email", "message": "a user with this email already exists"})
	}

	companyID := uc.CompanyID
	user, err := models.CreateUser(&companyID, strings.TrimSpace(req.Name), email, req.Password, role)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	// Members added by an admin skip the activation mail flow.
	user.Status = models.STATUS_ACTIVE

	if err := factory.GetUserRepository().Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create user"})
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func HandleUserUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid user id"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil || user.CompanyID == nil || *user.CompanyID != uc.CompanyID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "user not found"})
	}

	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
	}
	if role := strings.TrimSpace(req.Role); role != "" && role != user.Role {
		if !companyRoleAllowed(role) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "role must be admin, dispatcher or technician"})
		}
		user.Role = role
	}

	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update user"})
	}
	return c.JSON(user)
}

// HandleUserDeactivate disables a member without deleting their history.
func HandleUserDeactivate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid user id"})
	}
	if id == uc.UserID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "self_deactivate", "message": "you cannot deactivate your own account"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil || user.CompanyID == nil || *user.CompanyID != uc.CompanyID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "user not found"})
	}

	user.Status = models.STATUS_DISABLED
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not deactivate user"})
	}
	return c.JSON(fiber.Map{"status": "deactivated"})
}
