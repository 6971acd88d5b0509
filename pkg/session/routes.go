package session

import "strings"

// Client route layout. Entry routes are where a user lands to sign in;
// completing authentication from one of them navigates to the role
// landing page. Public routes stay reachable without a session.

const (
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteAuthCallback   = "/auth/callback"
	RouteAdminHome      = "/admin"
	RouteHome           = "/dashboard"
)

// IsEntryRoute reports whether path is a sign-in entry point.
func IsEntryRoute(path string) bool {
	return path == RouteLogin || path == RouteRegister
}

// IsPublicRoute reports whether path is reachable without authentication.
// Reset-password links carry a token segment, so that route matches by
// prefix.
func IsPublicRoute(path string) bool {
	switch path {
	case RouteLogin, RouteRegister, RouteForgotPassword, RouteAuthCallback:
		return true
	}
	return path == RouteResetPassword || strings.HasPrefix(path, RouteResetPassword+"/")
}

// LandingFor returns the post-authentication route for a role.
func LandingFor(role string) string {
	if role == "admin" {
		return RouteAdminHome
	}
	return RouteHome
}
