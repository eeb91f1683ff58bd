package router

import (
	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/middleware"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/oauth"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// The Stripe webhook verifies the raw request body, so it is mounted
	// before any middleware that could touch it.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerAppRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
