package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/entitlements"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/impersonation"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
)

var adminImpersonationGuard *impersonation.Guard

// SetImpersonationGuard wires the shared guard at startup.
func SetImpersonationGuard(g *impersonation.Guard) {
	adminImpersonationGuard = g
}

// HandleAdminCompanyList lists tenants for the platform console. q switches
// to name/email search.
func HandleAdminCompanyList(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCompanyRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		companies, err := repo.Search(q)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "search failed"})
		}
		return c.JSON(fiber.Map{"companies": companies, "total": len(companies)})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	companies, err := repo.List((page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "count failed"})
	}

	return c.JSON(fiber.Map{"companies": companies, "total": total, "page": page, "per_page": perPage})
}

// HandleAdminCompanyGet returns one tenant with its effective limits.
func HandleAdminCompanyGet(c *fiber.Ctx) error {
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid company id"})
	}

	co, err := repository.GetGlobalFactory().GetCompanyRepository().GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company not found"})
	}

	limits := entitlements.EffectiveLimits(co)
	return c.JSON(fiber.Map{"company": co, "limits": limits})
}

type impersonationStartRequest struct {
	CompanyID uint   `json:"company_id" form:"company_id"`
	UserID    uint   `json:"user_id" form:"user_id"`
	Reason    string `json:"reason" form:"reason"`
}

// HandleImpersonationStart opens a time-boxed support session acting as a
// member of the target company. A new grant replaces any previous one held
// by the same admin.
func HandleImpersonationStart(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if adminImpersonationGuard == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "impersonation_disabled", "message": "impersonation is not configured"})
	}

	var req impersonationStartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	if req.CompanyID == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "company_id is required"})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetCompanyRepository().GetByID(req.CompanyID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company not found"})
	}

	var target *models.User
	if req.UserID != 0 {
		u, err := factory.GetUserRepository().GetByID(req.UserID)
		if err != nil || u.CompanyID == nil || *u.CompanyID != req.CompanyID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "user not found in that company"})
		}
		target = u
	} else {
		// Default to the first company admin.
		users, err := factory.GetUserRepository().ListByCompany(req.CompanyID, 0, 100)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load company users"})
		}
		for i := range users {
			if users[i].Role == models.ROLE_ADMIN {
				target = &users[i]
				break
			}
		}
		if target == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company has no admin to impersonate"})
		}
	}
	if target.IsPlatformAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "platform admins cannot be impersonated"})
	}

	grant, err := adminImpersonationGuard.Start(c.Context(), impersonation.Grant{
		AdminID:         uc.UserID,
		AdminName:       uc.Username,
		TargetUserID:    target.ID,
		TargetCompanyID: req.CompanyID,
		TargetName:      target.Name,
		TargetRole:      target.Role,
		Reason:          req.Reason,
	})
	if err != nil {
		if errors.Is(err, impersonation.ErrReasonRequired) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "a reason is required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not start impersonation"})
	}

	return c.Status(fiber.StatusCreated).JSON(grant)
}

// HandleImpersonationStatus reports the admin's current grant with both
// countdowns.
func HandleImpersonationStatus(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if adminImpersonationGuard == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "impersonation_disabled", "message": "impersonation is not configured"})
	}

	if !uc.IsPlatformAdmin() && !uc.Impersonating {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "platform admin only"})
	}
	adminID := uc.UserID
	if uc.Impersonating {
		adminID = uc.ActingAdminID
	}
	status, err := adminImpersonationGuard.Status(c.Context(), adminID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not read impersonation state"})
	}
	return c.JSON(status)
}

// HandleImpersonationStop ends the support session immediately.
func HandleImpersonationStop(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if adminImpersonationGuard == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "impersonation_disabled", "message": "impersonation is not configured"})
	}

	if !uc.IsPlatformAdmin() && !uc.Impersonating {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "platform admin only"})
	}
	adminID := uc.UserID
	if uc.Impersonating {
		adminID = uc.ActingAdminID
	}
	if err := adminImpersonationGuard.Stop(c.Context(), adminID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not stop impersonation"})
	}
	return c.JSON(fiber.Map{"status": "stopped"})
}
