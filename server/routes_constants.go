package server

import "github.com/jrsteele09/consulta-dashboard/guard"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Public pages
	RouteHome           = guard.PathHome
	RouteLogin          = guard.PathLogin
	RouteRegistration   = guard.PathRegistration
	RouteForgotPassword = guard.PathForgotPassword
	RouteAuthLoading    = guard.PathAuthLoading
	RoutePublicPlans    = guard.PathPublicPlans
	RouteReferrals      = guard.PathReferrals
	RouteHealth         = "/healthz"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Protected pages
	RouteDashboard  = "/dashboard"
	RouteWallet     = "/carteira"
	RouteModules    = "/modulos"
	RouteAdminUsers = "/admin/usuarios"

	// API Routes - session
	RouteAPIMe         = "/api/me"
	RouteAPINavigation = "/api/navigation"
	RouteAPIActivity   = "/api/activity"
	RouteAPIToasts     = "/api/toasts"

	// API Routes - panel data
	RouteAPIModules   = "/api/modules"
	RouteAPIReferrals = "/api/referrals/stats"
	RouteAPILookupCPF = "/api/lookup/cpf/{cpf}"

	// API Routes - payments
	RouteAPIPaymentIntents = "/api/payments/intents"
	RouteAPIPaymentConfirm = "/api/payments/intents/{id}/confirm"
	RouteAPIPaymentModal   = "/api/payments/modals/{modal}"
	RouteAPIPaymentState   = "/api/payments/state"
	RouteAPIPaymentPolling = "/api/payments/polling"

	// API Routes - support
	RouteAPIAdminUsers      = "/api/admin/users"
	RouteAPIAdminUserStatus = "/api/admin/users/{id}/status"

	// Static Asset Routes (patterns)
	RouteStaticJS = "/js/{file}"
)
