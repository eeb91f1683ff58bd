package router

import (
	"github.com/freezeflowai/hvac-pm-platform/app/controllers"

	"github.com/gofiber/fiber/v2"
)

// registerPublicRoutes wires everything reachable without a session.
func (h *HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/register", controllers.HandleRegister)
	app.Get("/activate", controllers.HandleActivate)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", controllers.HandleLogout)

	// OAuth flow; /auth/* is skipped by the UserContext middleware.
	// The static logout route must register before the provider param route.
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
	app.Get("/auth/:provider", controllers.HandleOAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Attachment downloads authenticate via the signed token in the URL.
	app.Get("/attachments/download", controllers.HandleAttachmentDownload)
}
