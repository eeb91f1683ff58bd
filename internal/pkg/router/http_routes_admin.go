package router

import (
	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

// registerAdminRoutes wires the platform console. The platform-admin gate is
// applied per route, never on the group prefix: group middleware runs for
// every path under /admin, and while a grant is active the request runs
// under the target identity, so a prefix gate would lock the acting admin
// out of the impersonation status poll and the stop switch.
func (h *HttpRouter) registerAdminRoutes(app *fiber.App) {
	platform := middleware.RequirePlatformAdmin

	admin := app.Group("/admin", middleware.RequireAPISessionAuth)
	admin.Get("/companies", platform, controllers.HandleAdminCompanyList)
	admin.Get("/companies/:id", platform, controllers.HandleAdminCompanyGet)
	admin.Post("/impersonation", platform, controllers.HandleImpersonationStart)
	admin.Get("/impersonation/status", controllers.HandleImpersonationStatus)
	admin.Delete("/impersonation", controllers.HandleImpersonationStop)
}
