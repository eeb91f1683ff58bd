package middleware

import (
	icuser "github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// RequireCompanyAdmin ensures the effective identity administers its company.
// Platform admins pass only while impersonating a company admin.
func RequireCompanyAdmin(c *fiber.Ctx) error {
	uc := icuser.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !uc.IsCompanyAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "company admin only",
		})
	}
	return c.Next()
}

// RequirePlatformAdmin guards the platform admin area. Impersonated requests
// carry the target's role, so an admin mid-impersonation is rejected here and
// must stop the session before returning to the admin panel.
func RequirePlatformAdmin(c *fiber.Ctx) error {
	uc := icuser.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !uc.IsPlatformAdmin() || uc.Impersonating {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "platform admin only",
		})
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireRole returns a middleware that allows only the given roles. Company
// admins implicitly satisfy dispatcher-level checks.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := icuser.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		}
		for _, r := range roles {
			if uc.Role == r {
				return c.Next()
			}
		}
		if uc.IsCompanyAdmin() {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "insufficient role",
		})
	}
}
