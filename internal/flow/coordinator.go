// File: internal/flow/coordinator.go
package flow

import (
	"context"
	"errors"
	"sync"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/shared"
	"vitrine_backend/internal/upstream"

	"go.uber.org/zap"
)

// PromptState models the boutique-creation prompt's modal choreography. The
// login modal must finish closing before the prompt opens, so the prompt walks
// closed -> closing -> opening -> open, advanced by transition-end signals
// from the front-end rather than fixed delays.
type PromptState int

const (
	PromptClosed PromptState = iota
	PromptClosing
	PromptOpening
	PromptOpen
)

func (s PromptState) String() string {
	switch s {
	case PromptClosing:
		return "closing"
	case PromptOpening:
		return "opening"
	case PromptOpen:
		return "open"
	default:
		return "closed"
	}
}

// Result is the outcome of a login-flow step.
type Result struct {
	Committed     bool         `json:"committed"`
	User          *shared.User `json:"user,omitempty"`
	RedirectRoute string       `json:"redirect_route,omitempty"`
	PromptPending bool         `json:"prompt_pending"`
	PromptState   string       `json:"prompt_state,omitempty"`
	CreationError string       `json:"creation_error,omitempty"`
}

// genericCreationError is shown when the upstream gives us nothing better.
const genericCreationError = "La création de la boutique a échoué. Veuillez réessayer."

// loginFlow is the transient per-client state between a vendor's credential
// login and the final session commit.
type loginFlow struct {
	inProgress    bool
	candidate     shared.AuthPayload
	prompt        PromptState
	committed     bool
	creationError string
}

// Coordinator orchestrates the login flow: credential submit, the vendor
// boutique-existence check, the creation prompt, and the final session
// commit. All three terminal paths (create, skip, dismiss) converge on a
// single commit through the session store; the coordinator never writes
// persistence itself.
type Coordinator struct {
	store  shared.Store
	client shared.UpstreamClient
	logger *zap.Logger

	mu    sync.Mutex
	flows map[string]*loginFlow
}

// NewCoordinator creates a new login flow coordinator.
func NewCoordinator(store shared.Store, client shared.UpstreamClient, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		client: client,
		logger: logger.Named("Flow"),
		flows:  make(map[string]*loginFlow),
	}
}

// BeginLogin runs one login attempt for the client. A second attempt while the
// first is still in flight is rejected, so a double-clicked submit can never
// interleave boutique checks or commit the session twice.
func (c *Coordinator) BeginLogin(ctx context.Context, clientID, email, password string, rememberMe bool) (Result, error) {
	c.mu.Lock()
	if f, ok := c.flows[clientID]; ok && f.inProgress {
		c.mu.Unlock()
		return Result{}, common.ErrLoginInProgress
	}
	f := &loginFlow{inProgress: true}
	c.flows[clientID] = f
	c.mu.Unlock()

	result, err := c.runLogin(ctx, clientID, f, email, password, rememberMe)

	c.mu.Lock()
	f.inProgress = false
	if err != nil || result.Committed {
		// Nothing left to coordinate; only a pending prompt keeps flow state.
		if c.flows[clientID] == f && f.prompt == PromptClosed {
			delete(c.flows, clientID)
		}
	}
	c.mu.Unlock()

	return result, err
}

func (c *Coordinator) runLogin(ctx context.Context, clientID string, f *loginFlow, email, password string, rememberMe bool) (Result, error) {
	payload, err := c.client.Authenticate(ctx, email, password)
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.StatusCode >= 400 && upErr.StatusCode < 500 {
			message := upErr.Message
			if message == "" {
				message = "Invalid email or password."
			}
			return Result{}, common.ErrUnauthorized.WithDetails(message)
		}
		c.logger.Error("Upstream authentication unavailable", zap.Error(err))
		return Result{}, common.ErrServiceUnavailable.WithDetails("Could not reach the authentication service.")
	}

	if rememberMe {
		if err := c.store.SetRememberedEmail(ctx, clientID, email); err != nil {
			c.logger.Warn("Failed to persist remembered email", zap.Error(err), zap.String("clientID", clientID))
		}
	}

	if payload.User.Type != common.RoleVendeur {
		// Non-vendors commit immediately and stay on the current page.
		sess, _, err := c.store.Login(ctx, clientID, payload, false)
		if err != nil {
			return Result{}, err
		}
		return Result{Committed: true, User: &sess.User}, nil
	}

	// Vendor branch: check for existing boutiques with the token returned by
	// this login, not whatever a previous session may have persisted.
	boutiques, listErr := c.client.ListBoutiques(ctx, payload.BearerToken())
	if listErr != nil {
		// Fail open: a vendor we cannot verify is routed into the creation
		// prompt rather than dropped into an undefined state.
		c.logger.Warn("Boutique existence check failed, assuming new vendor",
			zap.Error(listErr), zap.String("vendeurUUID", payload.UUID))
		boutiques = nil
	}

	if len(boutiques) > 0 {
		payload.User.HasBoutique = true
		payload.User.Boutiques = boutiques
		sess, route, err := c.store.Login(ctx, clientID, payload, true)
		if err != nil {
			return Result{}, err
		}
		return Result{Committed: true, User: &sess.User, RedirectRoute: route}, nil
	}

	// Zero boutiques: defer the commit and start the prompt choreography. The
	// login modal closes first; the prompt opens only after the front-end
	// reports the close transition finished.
	c.mu.Lock()
	f.candidate = payload
	f.prompt = PromptClosing
	c.mu.Unlock()

	c.logger.Info("Vendor has no boutique, deferring commit for creation prompt",
		zap.String("vendeurUUID", payload.UUID))
	return Result{PromptPending: true, PromptState: PromptClosing.String()}, nil
}

// NotifyTransitionEnd advances the prompt choreography one step when the
// front-end reports a modal transition has finished.
func (c *Coordinator) NotifyTransitionEnd(ctx context.Context, clientID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.flows[clientID]
	if !ok || f.prompt == PromptClosed {
		return "", common.ErrBadRequest.WithDetails("No onboarding prompt is in progress.")
	}
	switch f.prompt {
	case PromptClosing:
		f.prompt = PromptOpening
	case PromptOpening:
		f.prompt = PromptOpen
	}
	return f.prompt.String(), nil
}

// SubmitBoutique creates the vendor's shop and, on success, finalizes the
// deferred login with a redirect. On failure the prompt stays open, the error
// text is kept for inline display, and the login is not committed.
func (c *Coordinator) SubmitBoutique(ctx context.Context, clientID string, dto shared.BoutiqueCreate) (Result, error) {
	c.mu.Lock()
	f, ok := c.flows[clientID]
	if !ok || f.prompt == PromptClosed {
		c.mu.Unlock()
		return Result{}, common.ErrBadRequest.WithDetails("No boutique onboarding is in progress.")
	}
	candidate := f.candidate
	c.mu.Unlock()

	// Token resolution order: candidate vendor data first, then the persisted
	// canonical key, then the legacy keys older login paths wrote. Missing
	// everywhere is an explicit error before any network call.
	token := candidate.BearerToken()
	if token == "" {
		token = c.store.TokenForClient(ctx, clientID)
	}
	if token == "" {
		return Result{}, common.ErrUnauthorized.WithDetails("No authentication token available for boutique creation.")
	}

	if dto.VendeurUUID == "" {
		dto.VendeurUUID = candidate.UUID
	}

	createdUUID, err := c.client.CreateBoutique(ctx, token, dto)
	if err != nil {
		message := genericCreationError
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.Message != "" {
			message = upErr.Message
		}
		c.mu.Lock()
		f.creationError = message
		state := f.prompt.String()
		c.mu.Unlock()
		c.logger.Warn("Boutique creation failed",
			zap.Error(err), zap.String("vendeurUUID", candidate.UUID))
		return Result{PromptPending: true, PromptState: state, CreationError: message},
			common.NewAPIError(422, "BOUTIQUE_CREATION_FAILED", message)
	}

	c.mu.Lock()
	f.candidate.User.HasBoutique = true
	f.candidate.User.Boutiques = []shared.Boutique{{UUID: createdUUID, Nom: dto.Nom}}
	c.mu.Unlock()

	return c.finalize(ctx, clientID)
}

// SkipPrompt finalizes the deferred login without boutique data ("later").
func (c *Coordinator) SkipPrompt(ctx context.Context, clientID string) (Result, error) {
	return c.finalize(ctx, clientID)
}

// DismissPrompt finalizes the deferred login without boutique data (close
// button). Equivalent terminal path to SkipPrompt.
func (c *Coordinator) DismissPrompt(ctx context.Context, clientID string) (Result, error) {
	return c.finalize(ctx, clientID)
}

// finalize commits the deferred vendor login exactly once. Racing terminal
// actions (skip vs dismiss vs a successful creation) all land here; only the
// first commits, the rest observe the committed session.
func (c *Coordinator) finalize(ctx context.Context, clientID string) (Result, error) {
	c.mu.Lock()
	f, ok := c.flows[clientID]
	if !ok || f.prompt == PromptClosed {
		c.mu.Unlock()
		// A racing terminal action may have already committed and cleaned up.
		if sess, logged := c.store.Current(ctx, clientID); logged {
			return Result{Committed: true, User: &sess.User}, nil
		}
		return Result{}, common.ErrBadRequest.WithDetails("No boutique onboarding is in progress.")
	}
	if f.committed {
		candidate := f.candidate
		c.mu.Unlock()
		return Result{Committed: true, User: &candidate.User}, nil
	}
	f.committed = true
	candidate := f.candidate
	c.mu.Unlock()

	sess, route, err := c.store.Login(ctx, clientID, candidate, true)
	if err != nil {
		// Allow a retry; the commit did not happen.
		c.mu.Lock()
		f.committed = false
		c.mu.Unlock()
		return Result{}, err
	}

	c.mu.Lock()
	delete(c.flows, clientID)
	c.mu.Unlock()

	return Result{Committed: true, User: &sess.User, RedirectRoute: route}, nil
}

// PromptStateFor reports the current prompt state for a client, for the
// front-end to resynchronize after a reload mid-onboarding.
func (c *Coordinator) PromptStateFor(clientID string) (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flows[clientID]
	if !ok {
		return PromptClosed.String(), ""
	}
	return f.prompt.String(), f.creationError
}
