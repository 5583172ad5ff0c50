// File: internal/common/roles.go
package common

// User roles as returned by the upstream marketplace API. The French names are
// part of the wire contract and must not be translated.
const (
	RoleAdmin       = "admin"
	RoleAgent       = "agent"
	RoleVendeur     = "vendeur"
	RoleUtilisateur = "utilisateur"
)

// HomeRoute is where every logout lands.
const HomeRoute = "/"

// dashboardRoutes maps each role to its dashboard entry point.
var dashboardRoutes = map[string]string{
	RoleAdmin:       "/admin/dashboard",
	RoleAgent:       "/agent/dashboard",
	RoleVendeur:     "/vendeur/dashboard",
	RoleUtilisateur: "/utilisateur/dashboard",
}

// KnownRole reports whether the role is one of the four marketplace roles.
func KnownRole(role string) bool {
	_, ok := dashboardRoutes[role]
	return ok
}

// DashboardRoute returns the dashboard route for a role, or the empty string
// for unknown roles. Callers decide how to react to the empty string; this
// function never navigates and never errors.
func DashboardRoute(role string) string {
	return dashboardRoutes[role]
}
