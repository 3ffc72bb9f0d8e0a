package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	// Authorization code + PKCE flow
	s.RegisterRouteHandler("POST "+RouteAPIAuth, ChainMiddleware(s.AuthActionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIAuth, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAPIAuth, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIAuth, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// Protected downstream proxy
	s.RegisterRouteHandler("GET "+RouteAPIGetRecords, ChainMiddleware(s.GetRecordsHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIGetRecords, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
