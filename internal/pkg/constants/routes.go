package constants

// Route constants shared by the router and the OpenAPI document.
const (
	APIRoute      = "/api"
	AdminRoute    = "/api/admin"
	WebhooksRoute = "/webhooks"
	HealthRoute   = "/healthz"
	DocsRoute     = "/docs/api/"
	DocsVersion   = "v1"

	// DocsFile is relative to the project root.
	DocsFile = "public/docs/v1/openapi.yml"
)
