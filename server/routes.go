package server

import (
	"net/http"

	"github.com/jrsteele09/consulta-dashboard/users"
)

func (s *Server) initRoutes() {
	// Public pages
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.PageHandler(pageHome), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRegistration, ChainMiddleware(s.PageHandler(pageRegistration), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.PageHandler(pageForgotPassword), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLoading, ChainMiddleware(s.PageHandler(pageAuthLoading), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RoutePublicPlans, ChainMiddleware(s.PageHandler(pagePublicPlans), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteReferrals, ChainMiddleware(s.PageHandler(pageReferrals), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Protected pages
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.PageHandler(pageDashboard), s.HTMLMiddleWare(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteWallet, ChainMiddleware(s.PageHandler(pageWallet), s.HTMLMiddleWare(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteModules, ChainMiddleware(s.PageHandler(pageModules), s.HTMLMiddleWare(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.PageHandler(pageAdminUsers), s.HTMLMiddleWare(s.RequireSession(), s.RequireRole(users.RoleSupport))...))

	// Session API
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAPISession(true))...))
	s.RegisterRouteHandler("POST "+RouteAPINavigation, ChainMiddleware(s.NavigationHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("POST "+RouteAPIActivity, ChainMiddleware(s.ActivityHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("GET "+RouteAPIToasts, ChainMiddleware(s.ToastsHandler(), s.APIMiddleware(s.RequireAPISession(true))...))

	// Panel data
	s.RegisterRouteHandler("GET "+RouteAPIModules, ChainMiddleware(s.ModulesHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("GET "+RouteAPIReferrals, ChainMiddleware(s.ReferralStatsHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("GET "+RouteAPILookupCPF, ChainMiddleware(s.LookupCPFHandler(), s.APIMiddleware(s.RequireAPISession(false))...))

	// Payments
	s.RegisterRouteHandler("POST "+RouteAPIPaymentIntents, ChainMiddleware(s.CreatePaymentIntentHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("POST "+RouteAPIPaymentConfirm, ChainMiddleware(s.ConfirmPaymentHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("DELETE "+RouteAPIPaymentModal, ChainMiddleware(s.CloseModalHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("GET "+RouteAPIPaymentState, ChainMiddleware(s.PaymentStateHandler(), s.APIMiddleware(s.RequireAPISession(false))...))
	s.RegisterRouteHandler("POST "+RouteAPIPaymentPolling, ChainMiddleware(s.PollingHandler(), s.APIMiddleware(s.RequireAPISession(false))...))

	// Support
	s.RegisterRouteHandler("GET "+RouteAPIAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), s.APIMiddleware(s.RequireAPISession(false), s.RequireRole(users.RoleSupport))...))
	s.RegisterRouteHandler("PATCH "+RouteAPIAdminUserStatus, ChainMiddleware(s.AdminUserStatusHandler(), s.APIMiddleware(s.RequireAPISession(false), s.RequireRole(users.RoleSupport))...))

	// CORS preflight for the API surface
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {}, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}
