// File: internal/nav/routes.go
package nav

import (
	"vitrine_backend/internal/common"
)

// Links is the set of navigation targets the header renders for a user.
// Every field is always populated; unknown roles get the fallback set so the
// front-end never receives an undefined route.
type Links struct {
	Dashboard string `json:"dashboard"`
	Profile   string `json:"profile"`
	Listings  string `json:"listings"`
	Messages  string `json:"messages"`
}

var roleLinks = map[string]Links{
	common.RoleAdmin: {
		Dashboard: "/admin/dashboard",
		Profile:   "/admin/profil",
		Listings:  "/admin/annonces",
		Messages:  "/admin/messages",
	},
	common.RoleAgent: {
		Dashboard: "/agent/dashboard",
		Profile:   "/agent/profil",
		Listings:  "/agent/annonces",
		Messages:  "/agent/messages",
	},
	common.RoleVendeur: {
		Dashboard: "/vendeur/dashboard",
		Profile:   "/vendeur/profil",
		Listings:  "/vendeur/annonces",
		Messages:  "/vendeur/messages",
	},
	common.RoleUtilisateur: {
		Dashboard: "/utilisateur/dashboard",
		Profile:   "/utilisateur/profil",
		Listings:  "/utilisateur/annonces",
		Messages:  "/utilisateur/messages",
	},
}

// fallbackLinks is used for unknown or absent roles.
var fallbackLinks = Links{
	Dashboard: common.HomeRoute,
	Profile:   "/profil",
	Listings:  "/annonces",
	Messages:  "/messages",
}

// LinksForRole returns the navigation links for a role. Pure function of the
// role; unknown roles map to the fallback set.
func LinksForRole(role string) Links {
	if links, ok := roleLinks[role]; ok {
		return links
	}
	return fallbackLinks
}
