package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the complete user context for a request. When a
// platform admin is impersonating, UserID/CompanyID/Role reflect the target
// identity and ActingAdminID carries the admin's own id.
type UserContext struct {
	UserID        uint   `json:"user_id"`
	CompanyID     uint   `json:"company_id"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Plan          string `json:"plan"`
	IsLoggedIn    bool   `json:"is_logged_in"`
	Impersonating bool   `json:"impersonating"`
	ActingAdminID uint   `json:"acting_admin_id,omitempty"`
}

// IsPlatformAdmin reports whether the effective identity is a platform admin.
func (uc UserContext) IsPlatformAdmin() bool {
	return uc.Role == "platform_admin"
}

// IsCompanyAdmin reports whether the effective identity administers its company.
func (uc UserContext) IsCompanyAdmin() bool {
	return uc.Role == "admin"
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false}
}

// SetUserContext stores the user context on the request.
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals("USER_CONTEXT", uc)
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetCompanyID returns the effective company id, or 0 for platform admins.
func GetCompanyID(c *fiber.Ctx) uint {
	return GetUserContext(c).CompanyID
}
