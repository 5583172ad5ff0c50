// File: internal/shared/core.go
package shared

import (
	"context"
)

// User is the identity portion of a session, as returned by the upstream
// marketplace API on login. Field names follow the upstream JSON contract.
type User struct {
	UUID        string     `json:"uuid"`
	Type        string     `json:"type"`
	Email       string     `json:"email,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	NomComplet  string     `json:"nom_complet,omitempty"`
	HasBoutique bool       `json:"has_boutique,omitempty"`
	Boutiques   []Boutique `json:"boutiques,omitempty"`
}

// AuthPayload is the raw login-success payload. The upstream has historically
// returned the credential under either "token" or "temp_token"; BearerToken
// resolves that.
type AuthPayload struct {
	User
	Token     string `json:"token,omitempty"`
	TempToken string `json:"temp_token,omitempty"`
}

// BearerToken returns the usable credential from the payload, preferring the
// canonical field.
func (p AuthPayload) BearerToken() string {
	if p.Token != "" {
		return p.Token
	}
	return p.TempToken
}

// Session is a committed, persisted login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// IsLoggedIn holds iff both a user identity and a token exist. A token without
// a user, or a user without a token, is an inconsistent state and is treated
// as logged out everywhere.
func (s Session) IsLoggedIn() bool {
	return s.User.UUID != "" && s.Token != ""
}

// Boutique is a vendor's shop entity within the marketplace.
type Boutique struct {
	UUID string `json:"uuid"`
	Nom  string `json:"nom"`
	Slug string `json:"slug,omitempty"`
}

// Upload carries a file part for multipart requests.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// BoutiqueCreate is the shop-creation DTO posted upstream as multipart form data.
type BoutiqueCreate struct {
	Nom                   string
	TypeBoutiqueUUID      string
	Description           string
	PolitiqueRetour       string
	ConditionsUtilisation string
	VendeurUUID           string
	Logo                  *Upload
	Banniere              *Upload
}

// Profile is the extended, role-specific profile fetched after login. It is a
// superset of the session's display fields and is never persisted.
type Profile struct {
	UUID       string `json:"uuid"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	NomComplet string `json:"nom_complet,omitempty"`
	Telephone  string `json:"telephone,omitempty"`
	Adresse    string `json:"adresse,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// ModalState holds the auth modal visibility flags. The two flags are mutually
// exclusive; the store enforces that on every mutation.
type ModalState struct {
	ShowLoginModal    bool `json:"show_login_modal"`
	ShowRegisterModal bool `json:"show_register_modal"`
}

// Store is the single writer over session state. No other component may touch
// session persistence directly.
type Store interface {
	// Login commits a session. The returned route is non-empty only when
	// shouldRedirect is true and the user's role maps to a dashboard.
	Login(ctx context.Context, clientID string, payload AuthPayload, shouldRedirect bool) (Session, string, error)
	// Logout clears the session and all persisted keys together. Idempotent;
	// always returns the home route.
	Logout(ctx context.Context, clientID string) (string, error)
	// Current restores the session for a client, failing closed on malformed
	// or partial persisted state. It never produces a redirect.
	Current(ctx context.Context, clientID string) (Session, bool)
	// RedirectToDashboard is a pure routing helper. With no userType it falls
	// back to the current session's type; with neither it returns "".
	RedirectToDashboard(ctx context.Context, clientID, userType string) string
	// TokenForClient resolves a persisted bearer token, checking the canonical
	// key first and then the legacy keys older login paths wrote.
	TokenForClient(ctx context.Context, clientID string) string
	// SetRememberedEmail persists the remembered-email key for login forms.
	SetRememberedEmail(ctx context.Context, clientID, email string) error
	// RememberedEmail returns the persisted remembered-email, if any.
	RememberedEmail(ctx context.Context, clientID string) string

	// Modal visibility management.
	Modals(ctx context.Context, clientID string) ModalState
	OpenLoginModal(ctx context.Context, clientID string) (ModalState, error)
	OpenRegisterModal(ctx context.Context, clientID string) (ModalState, error)
	SwitchToLogin(ctx context.Context, clientID string) (ModalState, error)
	SwitchToRegister(ctx context.Context, clientID string) (ModalState, error)
	CloseModals(ctx context.Context, clientID string) (ModalState, error)

	// Subscribe registers an observer notified after every committed session
	// mutation. The returned function removes the subscription.
	Subscribe(fn func(clientID string, s Session)) func()
}

// UpstreamClient is the contract with the marketplace REST API. The gateway
// consumes it and never implements any of it.
type UpstreamClient interface {
	Authenticate(ctx context.Context, email, password string) (AuthPayload, error)
	FetchProfile(ctx context.Context, role, token string) (*Profile, error)
	ListBoutiques(ctx context.Context, token string) ([]Boutique, error)
	CreateBoutique(ctx context.Context, token string, req BoutiqueCreate) (string, error)
}
