package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin          = "/api/auth/login"
	RouteAuthSignup         = "/api/auth/signup"
	RouteAuthLogout         = "/api/auth/logout"
	RouteAuthSession        = "/api/auth/session"
	RouteAuthGoogle         = "/api/auth/google"
	RouteAuthGoogleCallback = "/api/auth/google/callback"

	// FAQ Routes
	RouteFAQ         = "/api/faq"
	RouteFAQByID     = "/api/faq/{id}"
	RouteFAQDownload = "/api/faq/{id}/download"

	// Content Routes
	RouteScrape    = "/api/scrape"
	RouteUploadPDF = "/api/upload-pdf"

	// Misc Routes
	RouteStatistics = "/api/statistics"
	RouteWS         = "/api/ws"
	RouteHealth     = "/healthz"
)
