package router

import (
	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

// registerAppRoutes wires the session-authenticated company application.
func (h *HttpRouter) registerAppRoutes(app *fiber.App) {
	me := app.Group("/me", middleware.RequireAPISessionAuth)
	me.Get("/", controllers.HandleMe)
	me.Post("/api-key", controllers.HandleGenerateAPIKey)

	dash := app.Group("/dashboard", middleware.RequireAPISessionAuth)
	dash.Get("/", controllers.HandleDashboard)
	dash.Get("/history", controllers.HandleDashboardHistory)

	dispatch := middleware.RequireRole(models.ROLE_DISPATCHER)

	clients := app.Group("/clients", middleware.RequireAPISessionAuth)
	clients.Get("/", controllers.HandleClientList)
	clients.Get("/:id", controllers.HandleClientGet)
	clients.Post("/", dispatch, controllers.HandleClientCreate)
	clients.Put("/:id", dispatch, controllers.HandleClientUpdate)
	clients.Delete("/:id", dispatch, controllers.HandleClientDelete)

	appts := app.Group("/appointments", middleware.RequireAPISessionAuth)
	appts.Get("/", controllers.HandleAppointmentList)
	appts.Get("/:id", controllers.HandleAppointmentGet)
	appts.Post("/", dispatch, controllers.HandleAppointmentCreate)
	appts.Put("/:id", dispatch, controllers.HandleAppointmentUpdate)
	appts.Delete("/:id", dispatch, controllers.HandleAppointmentDelete)
	appts.Post("/:id/status", controllers.HandleAppointmentStatus)
	appts.Get("/:id/parts", controllers.HandleAppointmentListParts)
	appts.Post("/:id/parts", controllers.HandleAppointmentAddPart)
	appts.Delete("/:id/parts/:partId", controllers.HandleAppointmentRemovePart)
	appts.Post("/:id/invoice", dispatch, controllers.HandleInvoiceFromAppointment)

	parts := app.Group("/parts", middleware.RequireAPISessionAuth)
	parts.Get("/", controllers.HandlePartList)
	parts.Get("/:id", controllers.HandlePartGet)
	parts.Post("/", dispatch, controllers.HandlePartCreate)
	parts.Put("/:id", dispatch, controllers.HandlePartUpdate)
	parts.Post("/:id/stock", dispatch, controllers.HandlePartAdjustStock)
	parts.Delete("/:id", middleware.RequireCompanyAdmin, controllers.HandlePartDelete)

	maint := app.Group("/maintenance", middleware.RequireAPISessionAuth)
	maint.Get("/", controllers.HandleMaintenanceList)
	maint.Get("/:id", controllers.HandleMaintenanceGet)
	maint.Post("/", controllers.HandleMaintenanceCreate)
	maint.Put("/:id", controllers.HandleMaintenanceUpdate)
	maint.Delete("/:id", middleware.RequireCompanyAdmin, controllers.HandleMaintenanceDelete)
	maint.Post("/:id/attachments", controllers.HandleAttachmentUpload)
	maint.Get("/attachments/:attachmentId/link", controllers.HandleAttachmentLink)
	maint.Delete("/attachments/:attachmentId", middleware.RequireCompanyAdmin, controllers.HandleAttachmentDelete)

	invoices := app.Group("/invoices", middleware.RequireAPISessionAuth, dispatch)
	invoices.Get("/", controllers.HandleInvoiceList)
	invoices.Get("/:id", controllers.HandleInvoiceGet)
	invoices.Post("/", controllers.HandleInvoiceCreate)
	invoices.Put("/:id", controllers.HandleInvoiceUpdate)
	invoices.Post("/:id/issue", controllers.HandleInvoiceIssue)
	invoices.Post("/:id/pay", controllers.HandleInvoiceMarkPaid)
	invoices.Post("/:id/void", controllers.HandleInvoiceVoid)

	users := app.Group("/users", middleware.RequireAPISessionAuth, middleware.RequireCompanyAdmin)
	users.Get("/", controllers.HandleUserList)
	users.Get("/:id", controllers.HandleUserGet)
	users.Post("/", controllers.HandleUserCreate)
	users.Put("/:id", controllers.HandleUserUpdate)
	users.Post("/:id/deactivate", controllers.HandleUserDeactivate)

	billing := app.Group("/billing", middleware.RequireAPISessionAuth)
	billing.Get("/", controllers.HandleBillingStatus)
	billing.Post("/checkout", middleware.RequireCompanyAdmin, controllers.HandleBillingCheckout)
	billing.Post("/portal", middleware.RequireCompanyAdmin, controllers.HandleBillingPortal)
}
