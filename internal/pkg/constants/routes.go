package constants

// Static route constants
const (
	APIRoute    = "/api"
	APIV1Route  = "/api/v1"
	UnlockRoute = "/unlock"
	WalletRoute = "/wallet"
	AdminRoute  = "/admin"

	MetricsRoute = "/metrics"
	HealthRoute  = "/health"

	DocsBasePath = "/docs/api/"
	// Relative to the project root
	OpenAPIFile = "public/docs/v1/openapi.yml"
)
