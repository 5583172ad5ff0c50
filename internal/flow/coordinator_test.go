// File: internal/flow/coordinator_test.go
package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/shared"
	"vitrine_backend/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is a hand-rolled shared.Store capturing Login calls.
type fakeStore struct {
	mu          sync.Mutex
	loginCalls  []loginCall
	loginErr    error
	current     shared.Session
	hasCurrent  bool
	token       string
	remembered  string
	rememberErr error
}

type loginCall struct {
	clientID       string
	payload        shared.AuthPayload
	shouldRedirect bool
}

func (s *fakeStore) Login(ctx context.Context, clientID string, payload shared.AuthPayload, shouldRedirect bool) (shared.Session, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return shared.Session{}, "", s.loginErr
	}
	if payload.UUID == "" || payload.BearerToken() == "" {
		return shared.Session{}, "", common.ErrBadRequest
	}
	s.loginCalls = append(s.loginCalls, loginCall{clientID, payload, shouldRedirect})
	route := ""
	if shouldRedirect {
		route = common.DashboardRoute(payload.User.Type)
	}
	s.current = shared.Session{User: payload.User, Token: payload.BearerToken()}
	s.hasCurrent = true
	return s.current, route, nil
}

func (s *fakeStore) Logout(ctx context.Context, clientID string) (string, error) {
	return common.HomeRoute, nil
}

func (s *fakeStore) Current(ctx context.Context, clientID string) (shared.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasCurrent
}

func (s *fakeStore) RedirectToDashboard(ctx context.Context, clientID, userType string) string {
	return common.DashboardRoute(userType)
}

func (s *fakeStore) TokenForClient(ctx context.Context, clientID string) string {
	return s.token
}

func (s *fakeStore) SetRememberedEmail(ctx context.Context, clientID, email string) error {
	if s.rememberErr != nil {
		return s.rememberErr
	}
	s.remembered = email
	return nil
}

func (s *fakeStore) RememberedEmail(ctx context.Context, clientID string) string { return s.remembered }

func (s *fakeStore) Modals(ctx context.Context, clientID string) shared.ModalState {
	return shared.ModalState{}
}
func (s *fakeStore) OpenLoginModal(ctx context.Context, clientID string) (shared.ModalState, error) {
	return shared.ModalState{ShowLoginModal: true}, nil
}
func (s *fakeStore) OpenRegisterModal(ctx context.Context, clientID string) (shared.ModalState, error) {
	return shared.ModalState{ShowRegisterModal: true}, nil
}
func (s *fakeStore) SwitchToLogin(ctx context.Context, clientID string) (shared.ModalState, error) {
	return shared.ModalState{ShowLoginModal: true}, nil
}
func (s *fakeStore) SwitchToRegister(ctx context.Context, clientID string) (shared.ModalState, error) {
	return shared.ModalState{ShowRegisterModal: true}, nil
}
func (s *fakeStore) CloseModals(ctx context.Context, clientID string) (shared.ModalState, error) {
	return shared.ModalState{}, nil
}
func (s *fakeStore) Subscribe(fn func(clientID string, sess shared.Session)) func() {
	return func() {}
}

func (s *fakeStore) loginCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loginCalls)
}

// fakeUpstream is a hand-rolled shared.UpstreamClient with per-method hooks.
type fakeUpstream struct {
	authenticateFn   func(ctx context.Context, email, password string) (shared.AuthPayload, error)
	listBoutiquesFn  func(ctx context.Context, token string) ([]shared.Boutique, error)
	createBoutiqueFn func(ctx context.Context, token string, req shared.BoutiqueCreate) (string, error)

	mu          sync.Mutex
	createCalls []createCall
}

type createCall struct {
	token string
	req   shared.BoutiqueCreate
}

func (u *fakeUpstream) Authenticate(ctx context.Context, email, password string) (shared.AuthPayload, error) {
	return u.authenticateFn(ctx, email, password)
}

func (u *fakeUpstream) FetchProfile(ctx context.Context, role, token string) (*shared.Profile, error) {
	return nil, errors.New("not implemented")
}

func (u *fakeUpstream) ListBoutiques(ctx context.Context, token string) ([]shared.Boutique, error) {
	if u.listBoutiquesFn == nil {
		return nil, nil
	}
	return u.listBoutiquesFn(ctx, token)
}

func (u *fakeUpstream) CreateBoutique(ctx context.Context, token string, req shared.BoutiqueCreate) (string, error) {
	u.mu.Lock()
	u.createCalls = append(u.createCalls, createCall{token, req})
	u.mu.Unlock()
	if u.createBoutiqueFn == nil {
		return "b-1", nil
	}
	return u.createBoutiqueFn(ctx, token, req)
}

func authenticateAs(user shared.User, token string) func(context.Context, string, string) (shared.AuthPayload, error) {
	return func(ctx context.Context, email, password string) (shared.AuthPayload, error) {
		return shared.AuthPayload{User: user, Token: token}, nil
	}
}

func newTestCoordinator(store *fakeStore, client *fakeUpstream) *Coordinator {
	return NewCoordinator(store, client, zap.NewNop())
}

func TestBeginLogin_NonVendorCommitsWithoutRedirect(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "u-1", Type: common.RoleUtilisateur}, "tok"),
	}
	coord := newTestCoordinator(store, client)

	result, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "secret", false)
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Empty(t, result.RedirectRoute, "non-vendors stay on the current page")
	assert.False(t, result.PromptPending)

	require.Len(t, store.loginCalls, 1)
	assert.False(t, store.loginCalls[0].shouldRedirect)
}

func TestBeginLogin_RememberMePersistsEmail(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "u-1", Type: common.RoleUtilisateur}, "tok"),
	}
	coord := newTestCoordinator(store, client)

	_, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "secret", true)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", store.remembered)
}

func TestBeginLogin_VendorWithBoutiquesCommitsAndRedirects(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "v-1", Type: common.RoleVendeur}, "tok"),
		listBoutiquesFn: func(ctx context.Context, token string) ([]shared.Boutique, error) {
			assert.Equal(t, "tok", token, "the boutique check uses the fresh login token")
			return []shared.Boutique{{UUID: "b-1", Nom: "Ma Boutique"}}, nil
		},
	}
	coord := newTestCoordinator(store, client)

	result, err := coord.BeginLogin(context.Background(), "client-1", "v@example.com", "secret", false)
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, "/vendeur/dashboard", result.RedirectRoute)
	require.NotNil(t, result.User)
	assert.True(t, result.User.HasBoutique)

	require.Len(t, store.loginCalls, 1)
	assert.True(t, store.loginCalls[0].shouldRedirect)
	assert.True(t, store.loginCalls[0].payload.User.HasBoutique)
	assert.Len(t, store.loginCalls[0].payload.User.Boutiques, 1)
}

func TestBeginLogin_NewVendorDefersCommitBehindPrompt(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "v-1", Type: common.RoleVendeur}, "tok"),
		listBoutiquesFn: func(ctx context.Context, token string) ([]shared.Boutique, error) {
			return []shared.Boutique{}, nil
		},
	}
	coord := newTestCoordinator(store, client)

	result, err := coord.BeginLogin(context.Background(), "client-1", "v@example.com", "secret", false)
	require.NoError(t, err)
	assert.False(t, result.Committed)
	assert.True(t, result.PromptPending)
	assert.Equal(t, "closing", result.PromptState)
	assert.Zero(t, store.loginCount(), "nothing is persisted until the prompt resolves")
}

func TestBeginLogin_BoutiqueCheckFailureFailsOpen(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "v-1", Type: common.RoleVendeur}, "tok"),
		listBoutiquesFn: func(ctx context.Context, token string) ([]shared.Boutique, error) {
			return nil, errors.New("upstream exploded")
		},
	}
	coord := newTestCoordinator(store, client)

	result, err := coord.BeginLogin(context.Background(), "client-1", "v@example.com", "secret", false)
	require.NoError(t, err)
	assert.True(t, result.PromptPending, "an unverifiable vendor is routed into the creation prompt")
	assert.Zero(t, store.loginCount())
}

func TestBeginLogin_InvalidCredentials(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: func(ctx context.Context, email, password string) (shared.AuthPayload, error) {
			return shared.AuthPayload{}, &upstream.Error{StatusCode: 401, Message: "Identifiants invalides."}
		},
	}
	coord := newTestCoordinator(store, client)

	_, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "wrong", false)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	assert.Equal(t, "Identifiants invalides.", apiErr.Details)
}

func TestBeginLogin_UpstreamUnavailable(t *testing.T) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: func(ctx context.Context, email, password string) (shared.AuthPayload, error) {
			return shared.AuthPayload{}, errors.New("connection refused")
		},
	}
	coord := newTestCoordinator(store, client)

	_, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "secret", false)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrServiceUnavailable.Code, apiErr.Code)
}

func TestBeginLogin_RejectsConcurrentAttempt(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: func(ctx context.Context, email, password string) (shared.AuthPayload, error) {
			close(started)
			<-release
			return shared.AuthPayload{User: shared.User{UUID: "u-1", Type: common.RoleUtilisateur}, Token: "tok"}, nil
		},
	}
	coord := newTestCoordinator(store, client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "secret", false)
		assert.NoError(t, err)
	}()

	<-started
	_, err := coord.BeginLogin(context.Background(), "client-1", "u@example.com", "secret", false)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrLoginInProgress.Code, apiErr.Code)

	close(release)
	<-done
	assert.Equal(t, 1, store.loginCount(), "only the first attempt commits")
}

// beginDeferredVendorLogin drives a vendor with zero boutiques up to the
// pending prompt.
func beginDeferredVendorLogin(t *testing.T, coord *Coordinator, clientID string) {
	t.Helper()
	result, err := coord.BeginLogin(context.Background(), clientID, "v@example.com", "secret", false)
	require.NoError(t, err)
	require.True(t, result.PromptPending)
}

func newDeferredVendorSetup(token string) (*fakeStore, *fakeUpstream) {
	store := &fakeStore{}
	client := &fakeUpstream{
		authenticateFn: authenticateAs(shared.User{UUID: "v-1", Type: common.RoleVendeur}, token),
		listBoutiquesFn: func(ctx context.Context, tok string) ([]shared.Boutique, error) {
			return nil, nil
		},
	}
	return store, client
}

func TestNotifyTransitionEnd_AdvancesChoreography(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")
	ctx := context.Background()

	state, err := coord.NotifyTransitionEnd(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "opening", state)

	state, err = coord.NotifyTransitionEnd(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "open", state)

	// Stray signals once open are harmless.
	state, err = coord.NotifyTransitionEnd(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "open", state)
}

func TestNotifyTransitionEnd_WithoutPromptIsRejected(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	coord := newTestCoordinator(store, client)

	_, err := coord.NotifyTransitionEnd(context.Background(), "client-1")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
}

func TestSubmitBoutique_SuccessFinalizesLoginWithRedirect(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	client.createBoutiqueFn = func(ctx context.Context, token string, req shared.BoutiqueCreate) (string, error) {
		return "b-99", nil
	}
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")

	result, err := coord.SubmitBoutique(context.Background(), "client-1", shared.BoutiqueCreate{
		Nom:              "Ma Boutique",
		TypeBoutiqueUUID: "type-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, "/vendeur/dashboard", result.RedirectRoute)

	require.Len(t, store.loginCalls, 1)
	committed := store.loginCalls[0].payload
	assert.True(t, committed.User.HasBoutique)
	require.Len(t, committed.User.Boutiques, 1)
	assert.Equal(t, "b-99", committed.User.Boutiques[0].UUID)

	// The vendor UUID defaults to the candidate's when the form omits it.
	require.Len(t, client.createCalls, 1)
	assert.Equal(t, "v-1", client.createCalls[0].req.VendeurUUID)
	assert.Equal(t, "tok", client.createCalls[0].token)
}

func TestSubmitBoutique_FailureKeepsPromptOpenAndLoginUncommitted(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	client.createBoutiqueFn = func(ctx context.Context, token string, req shared.BoutiqueCreate) (string, error) {
		return "", &upstream.Error{StatusCode: 422, Message: "Le nom est déjà pris."}
	}
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")

	result, err := coord.SubmitBoutique(context.Background(), "client-1", shared.BoutiqueCreate{Nom: "Ma Boutique"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "BOUTIQUE_CREATION_FAILED", apiErr.Code)

	assert.False(t, result.Committed)
	assert.True(t, result.PromptPending)
	assert.Equal(t, "Le nom est déjà pris.", result.CreationError)
	assert.Zero(t, store.loginCount(), "a failed creation never commits the login")

	state, creationError := coord.PromptStateFor("client-1")
	assert.Equal(t, "closing", state)
	assert.Equal(t, "Le nom est déjà pris.", creationError)
}

func TestSubmitBoutique_FallsBackToPersistedToken(t *testing.T) {
	// The login payload carried no token; the persisted legacy chain serves.
	store, client := newDeferredVendorSetup("")
	store.token = "persisted-tok"
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")

	_, err := coord.SubmitBoutique(context.Background(), "client-1", shared.BoutiqueCreate{Nom: "Ma Boutique"})
	require.Error(t, err, "the deferred commit still fails without a committable token")
	require.Len(t, client.createCalls, 1)
	assert.Equal(t, "persisted-tok", client.createCalls[0].token)
}

func TestSubmitBoutique_NoTokenAnywhereIsRejectedBeforeAnyCall(t *testing.T) {
	store, client := newDeferredVendorSetup("")
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")

	_, err := coord.SubmitBoutique(context.Background(), "client-1", shared.BoutiqueCreate{Nom: "Ma Boutique"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	assert.Empty(t, client.createCalls, "no upstream call happens without a token")
}

func TestSkipAndDismiss_CommitExactlyOnce(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")
	ctx := context.Background()

	result, err := coord.SkipPrompt(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, "/vendeur/dashboard", result.RedirectRoute)

	// A racing dismiss after the commit observes the committed session.
	result, err = coord.DismissPrompt(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, 1, store.loginCount(), "terminal actions converge on a single commit")
}

func TestFinalize_LoginErrorAllowsRetry(t *testing.T) {
	store, client := newDeferredVendorSetup("tok")
	store.loginErr = common.ErrInternalServer
	coord := newTestCoordinator(store, client)
	beginDeferredVendorLogin(t, coord, "client-1")
	ctx := context.Background()

	_, err := coord.SkipPrompt(ctx, "client-1")
	require.Error(t, err)

	store.loginErr = nil
	result, err := coord.SkipPrompt(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, result.Committed)
}
