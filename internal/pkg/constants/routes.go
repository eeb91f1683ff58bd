package constants

// Static route constants
const (
	PublicRoute    = "/"
	DashboardRoute = "/dashboard"
	LoginRoute     = "/login"
	// Attachment path without leading slash for URL construction
	AttachmentsPath = "attachments"
)
