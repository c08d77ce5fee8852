package server

import "net/http"

func (s *Server) initRoutes() {
	api := s.APIMiddleware()

	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteAuthSignup, ChainMiddleware(s.SignupHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteAuthGoogle, ChainMiddleware(s.GoogleLoginHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteAuthGoogleCallback, ChainMiddleware(s.GoogleCallbackHandler(), api...))

	// FAQs
	s.RegisterRouteHandler("GET "+RouteFAQ, ChainMiddleware(s.ListFAQsHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteFAQ, ChainMiddleware(s.CreateFAQHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteFAQByID, ChainMiddleware(s.GetFAQHandler(), api...))
	s.RegisterRouteHandler("PATCH "+RouteFAQByID, ChainMiddleware(s.UpdateFAQHandler(), api...))
	s.RegisterRouteHandler("DELETE "+RouteFAQByID, ChainMiddleware(s.DeleteFAQHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteFAQDownload, ChainMiddleware(s.DownloadFAQHandler(), api...))

	// Content extraction
	s.RegisterRouteHandler("POST "+RouteScrape, ChainMiddleware(s.ScrapeHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteUploadPDF, ChainMiddleware(s.UploadPDFHandler(), api...))

	s.RegisterRouteHandler("GET "+RouteStatistics, ChainMiddleware(s.StatisticsHandler(), api...))

	// Generation stream bridge (no CORS - same-origin upgrade only)
	s.RegisterRouteHandler("GET "+RouteWS, ChainMiddleware(s.StreamBridgeHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
