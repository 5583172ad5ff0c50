// File: internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/config"
	"vitrine_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the single writer over session state. Every persistence mutation in
// the gateway funnels through it; the flow coordinator and the navigation
// service only ever read through its API.
type Store struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger

	subsMu    sync.RWMutex
	subs      map[int]func(clientID string, s shared.Session)
	nextSubID int
}

var _ shared.Store = (*Store)(nil)

// NewStore creates a new session store.
func NewStore(repo Repository, cfg *config.Config, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("SessionStore"),
		subs:   make(map[int]func(clientID string, s shared.Session)),
	}
}

// Login commits a session for the client. The user JSON and the token are
// written in the same save so they can never diverge. The canonical token
// column is the only one written; legacy columns are cleared on every fresh
// login.
func (s *Store) Login(ctx context.Context, clientID string, payload shared.AuthPayload, shouldRedirect bool) (shared.Session, string, error) {
	if clientID == "" {
		return shared.Session{}, "", common.ErrBadRequest.WithDetails("Missing client identifier.")
	}
	token := payload.BearerToken()
	if payload.UUID == "" || token == "" {
		// Committing either half alone would create the inconsistent state the
		// whole store exists to prevent.
		return shared.Session{}, "", common.ErrBadRequest.WithDetails("Login payload is missing the user identity or the token.")
	}

	userJSON, err := json.Marshal(payload.User)
	if err != nil {
		s.logger.Error("Failed to marshal user payload", zap.Error(err), zap.String("userUUID", payload.UUID))
		return shared.Session{}, "", common.ErrInternalServer.WithDetails("Could not persist session.")
	}

	record, err := s.loadOrNewRecord(ctx, clientID)
	if err != nil {
		return shared.Session{}, "", err
	}

	userStr := string(userJSON)
	record.UserJSON = &userStr
	record.Token = &token
	record.TempToken = nil
	record.VendeurToken = nil
	record.ShowLoginModal = false
	record.ShowRegisterModal = false
	record.ExpiresAt = time.Now().Add(s.cfg.SessionTTL)

	if err := s.saveRecord(ctx, record); err != nil {
		s.logger.Error("Failed to persist session on login", zap.Error(err), zap.String("clientID", clientID))
		return shared.Session{}, "", common.ErrInternalServer.WithDetails("Could not persist session.")
	}

	committed := shared.Session{User: payload.User, Token: token}

	route := ""
	if shouldRedirect {
		route = common.DashboardRoute(payload.User.Type)
		if route == "" {
			s.logger.Warn("No dashboard route for user type, skipping redirect",
				zap.String("userType", payload.User.Type),
				zap.String("userUUID", payload.UUID))
		}
	}

	s.logger.Info("Session committed",
		zap.String("clientID", clientID),
		zap.String("userUUID", payload.UUID),
		zap.String("userType", payload.User.Type),
		zap.Bool("redirect", route != ""))

	s.notify(clientID, committed)
	return committed, route, nil
}

// Logout clears the session record entirely: user JSON, every token column and
// the remembered email go together. Calling it when already logged out is a
// no-op apart from the returned home route.
func (s *Store) Logout(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return common.HomeRoute, nil
	}
	if err := s.repo.DeleteByClientID(ctx, clientID); err != nil {
		s.logger.Error("Failed to delete session record on logout", zap.Error(err), zap.String("clientID", clientID))
		return common.HomeRoute, err
	}
	s.logger.Info("Session cleared", zap.String("clientID", clientID))
	s.notify(clientID, shared.Session{})
	return common.HomeRoute, nil
}

// Current restores the client's session from persistence. Malformed user JSON
// or a missing token fails closed: the identity and credential columns are
// cleared and the client is logged out. Restoration never redirects.
func (s *Store) Current(ctx context.Context, clientID string) (shared.Session, bool) {
	if clientID == "" {
		return shared.Session{}, false
	}
	record, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		if _, ok := common.IsAPIError(err); !ok {
			s.logger.Error("Failed to load session record", zap.Error(err), zap.String("clientID", clientID))
		}
		return shared.Session{}, false
	}

	if !record.ExpiresAt.IsZero() && record.ExpiresAt.Before(time.Now()) {
		s.logger.Info("Session expired, clearing", zap.String("clientID", clientID))
		s.failClosed(ctx, record)
		return shared.Session{}, false
	}

	token := firstNonEmpty(deref(record.Token), deref(record.TempToken), deref(record.VendeurToken))
	if deref(record.UserJSON) == "" || token == "" {
		if deref(record.UserJSON) != "" || record.HasCredential() {
			// Half a session is worse than none.
			s.logger.Warn("Inconsistent persisted session, failing closed", zap.String("clientID", clientID))
			s.failClosed(ctx, record)
		}
		return shared.Session{}, false
	}

	var user shared.User
	if err := json.Unmarshal([]byte(deref(record.UserJSON)), &user); err != nil || user.UUID == "" {
		s.logger.Warn("Malformed persisted user JSON, failing closed",
			zap.String("clientID", clientID), zap.Error(err))
		s.failClosed(ctx, record)
		return shared.Session{}, false
	}

	return shared.Session{User: user, Token: token}, true
}

// RedirectToDashboard is a pure routing helper. If no type is supplied it uses
// the current session's type; if neither is available it logs and returns the
// empty route. It never errors.
func (s *Store) RedirectToDashboard(ctx context.Context, clientID, userType string) string {
	if userType == "" {
		if sess, ok := s.Current(ctx, clientID); ok {
			userType = sess.User.Type
		}
	}
	if userType == "" {
		s.logger.Info("No user type available for dashboard redirect", zap.String("clientID", clientID))
		return ""
	}
	route := common.DashboardRoute(userType)
	if route == "" {
		s.logger.Warn("Unknown user type for dashboard redirect", zap.String("userType", userType))
	}
	return route
}

// TokenForClient resolves a persisted bearer token for the client, canonical
// column first, then the legacy columns older login paths wrote.
func (s *Store) TokenForClient(ctx context.Context, clientID string) string {
	record, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return ""
	}
	return firstNonEmpty(deref(record.Token), deref(record.TempToken), deref(record.VendeurToken))
}

// SetRememberedEmail persists the remembered-email key.
func (s *Store) SetRememberedEmail(ctx context.Context, clientID, email string) error {
	record, err := s.loadOrNewRecord(ctx, clientID)
	if err != nil {
		return err
	}
	if email == "" {
		record.RememberedEmail = nil
	} else {
		record.RememberedEmail = &email
	}
	return s.saveRecord(ctx, record)
}

// RememberedEmail returns the persisted remembered-email, if any.
func (s *Store) RememberedEmail(ctx context.Context, clientID string) string {
	record, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return ""
	}
	return deref(record.RememberedEmail)
}

// Modals returns the current modal visibility flags.
func (s *Store) Modals(ctx context.Context, clientID string) shared.ModalState {
	record, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return shared.ModalState{}
	}
	return shared.ModalState{
		ShowLoginModal:    record.ShowLoginModal,
		ShowRegisterModal: record.ShowRegisterModal,
	}
}

// OpenLoginModal shows the login modal, hiding the register modal.
func (s *Store) OpenLoginModal(ctx context.Context, clientID string) (shared.ModalState, error) {
	return s.setModals(ctx, clientID, true, false)
}

// OpenRegisterModal shows the register modal, hiding the login modal.
func (s *Store) OpenRegisterModal(ctx context.Context, clientID string) (shared.ModalState, error) {
	return s.setModals(ctx, clientID, false, true)
}

// SwitchToLogin swaps the register modal for the login modal in one mutation.
func (s *Store) SwitchToLogin(ctx context.Context, clientID string) (shared.ModalState, error) {
	return s.setModals(ctx, clientID, true, false)
}

// SwitchToRegister swaps the login modal for the register modal in one mutation.
func (s *Store) SwitchToRegister(ctx context.Context, clientID string) (shared.ModalState, error) {
	return s.setModals(ctx, clientID, false, true)
}

// CloseModals hides both modals.
func (s *Store) CloseModals(ctx context.Context, clientID string) (shared.ModalState, error) {
	return s.setModals(ctx, clientID, false, false)
}

// setModals writes both flags in a single save. Both flags are never true at
// the same time because every transition goes through here.
func (s *Store) setModals(ctx context.Context, clientID string, login, register bool) (shared.ModalState, error) {
	record, err := s.loadOrNewRecord(ctx, clientID)
	if err != nil {
		return shared.ModalState{}, err
	}
	record.ShowLoginModal = login
	record.ShowRegisterModal = register
	if err := s.saveRecord(ctx, record); err != nil {
		return shared.ModalState{}, err
	}
	return shared.ModalState{ShowLoginModal: login, ShowRegisterModal: register}, nil
}

// Subscribe registers an observer notified after every committed session
// mutation. Dependent views re-render off this instead of ad hoc signals.
func (s *Store) Subscribe(fn func(clientID string, sess shared.Session)) func() {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// SweepExpired removes expired session records. Used by the cron job and the
// purge-sessions command.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now())
}

// ListActive returns a page of active sessions plus the total count, for the
// admin surface.
func (s *Store) ListActive(ctx context.Context, page, pageSize int) ([]SessionSummary, int64, error) {
	records, total, err := s.repo.ListActive(ctx, time.Now(), page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]SessionSummary, 0, len(records))
	for i := range records {
		r := &records[i]
		summary := SessionSummary{
			ClientID:  r.ClientID,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
		}
		var user shared.User
		if deref(r.UserJSON) != "" && json.Unmarshal([]byte(deref(r.UserJSON)), &user) == nil {
			summary.UserUUID = user.UUID
			summary.UserType = user.Type
			summary.Email = user.Email
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *Store) notify(clientID string, sess shared.Session) {
	s.subsMu.RLock()
	fns := make([]func(string, shared.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()
	for _, fn := range fns {
		fn(clientID, sess)
	}
}

// failClosed clears the identity and credential columns together. The
// remembered email survives; it is only removed by an explicit logout.
func (s *Store) failClosed(ctx context.Context, record *ClientSession) {
	record.UserJSON = nil
	record.Token = nil
	record.TempToken = nil
	record.VendeurToken = nil
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("Failed to clear inconsistent session record", zap.Error(err), zap.String("clientID", record.ClientID))
	}
}

func (s *Store) loadOrNewRecord(ctx context.Context, clientID string) (*ClientSession, error) {
	record, err := s.repo.FindByClientID(ctx, clientID)
	if err == nil {
		return record, nil
	}
	if apiErr, ok := common.IsAPIError(err); !ok || apiErr.Code != common.ErrNotFound.Code {
		return nil, err
	}
	record = &ClientSession{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ClientID:  clientID,
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Store) saveRecord(ctx context.Context, record *ClientSession) error {
	return s.repo.Save(ctx, record)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
