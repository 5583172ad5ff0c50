// File: internal/nav/service.go
package nav

import (
	"context"

	"vitrine_backend/internal/config"
	"vitrine_backend/internal/shared"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ViewModel is what the header renders. Session fields are present as soon as
// a session exists; extended profile data is merged in when the fetch
// succeeds and simply absent when it does not.
type ViewModel struct {
	IsLoggedIn  bool   `json:"is_logged_in"`
	UUID        string `json:"uuid,omitempty"`
	Type        string `json:"type,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Telephone   string `json:"telephone,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	HasBoutique bool   `json:"has_boutique,omitempty"`
	Links       Links  `json:"links"`
}

// Service builds navigation view-models. It observes the session store, so a
// session change anywhere (login, logout, boutique creation finalizing a
// login) invalidates the cached profile without any manual signaling.
type Service struct {
	store  shared.Store
	client shared.UpstreamClient
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewService creates a new navigation service subscribed to the session store.
func NewService(store shared.Store, client shared.UpstreamClient, cfg *config.Config, logger *zap.Logger) *Service {
	s := &Service{
		store:  store,
		client: client,
		cache:  gocache.New(cfg.NavCacheTTL, 2*cfg.NavCacheTTL),
		logger: logger.Named("Nav"),
	}
	store.Subscribe(func(clientID string, _ shared.Session) {
		s.cache.Delete(clientID)
	})
	return s
}

// ViewModel builds the navigation view-model for a client. The session-derived
// view renders immediately; a profile-fetch failure is logged and never
// downgrades it.
func (s *Service) ViewModel(ctx context.Context, clientID string) ViewModel {
	sess, ok := s.store.Current(ctx, clientID)
	if !ok {
		return ViewModel{IsLoggedIn: false, Links: fallbackLinks}
	}

	vm := ViewModel{
		IsLoggedIn:  true,
		UUID:        sess.User.UUID,
		Type:        sess.User.Type,
		Email:       sess.User.Email,
		DisplayName: displayName(sess.User.NomComplet, sess.User.FirstName, sess.User.LastName),
		HasBoutique: sess.User.HasBoutique,
		Links:       LinksForRole(sess.User.Type),
	}

	profile := s.profileFor(ctx, clientID, sess)
	if profile != nil {
		mergeProfile(&vm, profile)
	}
	return vm
}

func (s *Service) profileFor(ctx context.Context, clientID string, sess shared.Session) *shared.Profile {
	if cached, found := s.cache.Get(clientID); found {
		if profile, ok := cached.(*shared.Profile); ok {
			return profile
		}
	}

	profile, err := s.client.FetchProfile(ctx, sess.User.Type, sess.Token)
	if err != nil {
		// Keep showing the session-derived view; the richer data can wait.
		s.logger.Warn("Extended profile fetch failed",
			zap.Error(err),
			zap.String("userUUID", sess.User.UUID),
			zap.String("userType", sess.User.Type))
		return nil
	}
	s.cache.SetDefault(clientID, profile)
	return profile
}

// mergeProfile overlays extended profile data onto the session-derived view.
// Profile wins for display fields; the session keeps identity and role.
func mergeProfile(vm *ViewModel, p *shared.Profile) {
	if name := displayName(p.NomComplet, p.FirstName, p.LastName); name != "" {
		vm.DisplayName = name
	}
	if p.Email != "" {
		vm.Email = p.Email
	}
	if p.Telephone != "" {
		vm.Telephone = p.Telephone
	}
	if p.PhotoURL != "" {
		vm.PhotoURL = p.PhotoURL
	}
}

func displayName(nomComplet, firstName, lastName string) string {
	if nomComplet != "" {
		return nomComplet
	}
	switch {
	case firstName != "" && lastName != "":
		return firstName + " " + lastName
	case firstName != "":
		return firstName
	default:
		return lastName
	}
}
