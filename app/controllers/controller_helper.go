package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
)

// Session keys shared with the auth flow
const (
	AUTH_KEY  string = "authenticated"
	USER_ID   string = "user_id"
	USER_NAME string = "username"
)

// requireCompanyContext returns the effective identity for tenant-scoped
// handlers, or writes the JSON error response and reports failure.
func requireCompanyContext(c *fiber.Ctx) (usercontext.UserContext, bool) {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
		return uc, false
	}
	if uc.CompanyID == 0 {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "no company scope"})
		return uc, false
	}
	return uc, true
}

// paramID parses a numeric path parameter; 0 means missing or malformed.
func paramID(c *fiber.Ctx, name string) uint {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// GetClientIP determines the actual client IP address considering proxies
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	return c.IP()
}
