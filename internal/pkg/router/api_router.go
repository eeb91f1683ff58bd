package router

import (
	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

// InstallRouter wires the key-authenticated API used by the technician
// field app. It mirrors the browser routes but authenticates per request,
// so it works from mobile clients without cookies.
func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"name":    "hvacpm api",
			"version": "v1",
		})
	})

	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	v1.Get("/me", controllers.HandleMe)
	v1.Get("/appointments", controllers.HandleAppointmentList)
	v1.Get("/appointments/:id", controllers.HandleAppointmentGet)
	v1.Post("/appointments/:id/status", controllers.HandleAppointmentStatus)
	v1.Get("/appointments/:id/parts", controllers.HandleAppointmentListParts)
	v1.Post("/appointments/:id/parts", controllers.HandleAppointmentAddPart)
	v1.Get("/clients/:id", controllers.HandleClientGet)
	v1.Get("/parts", controllers.HandlePartList)
	v1.Get("/maintenance", controllers.HandleMaintenanceList)
	v1.Post("/maintenance", controllers.HandleMaintenanceCreate)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
