// File: internal/upstream/client.go
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/config"
	"vitrine_backend/internal/shared"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Error carries the upstream's HTTP status and message so callers can surface
// the backend's own wording to the user.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream: status=%d message=%s", e.StatusCode, e.Message)
}

// Client talks to the marketplace REST API. The gateway only consumes this
// contract; authentication, uploads and commerce all live upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ shared.UpstreamClient = (*Client)(nil)

// NewClient creates a new upstream API client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.UpstreamBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		logger:     logger.Named("UpstreamClient"),
	}
}

// profilePaths maps each role to its profile endpoint.
var profilePaths = map[string]string{
	common.RoleAdmin:       "/api/admins/profile",
	common.RoleAgent:       "/api/agents/profile",
	common.RoleVendeur:     "/api/vendeurs/profile",
	common.RoleUtilisateur: "/api/utilisateurs/profile",
}

// Authenticate performs a credential login and returns the raw auth payload.
func (c *Client) Authenticate(ctx context.Context, email, password string) (shared.AuthPayload, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return shared.AuthPayload{}, fmt.Errorf("could not encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return shared.AuthPayload{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload shared.AuthPayload
	if err := c.do(req, &payload); err != nil {
		return shared.AuthPayload{}, err
	}
	return payload, nil
}

// FetchProfile retrieves the extended profile from the role-specific endpoint.
func (c *Client) FetchProfile(ctx context.Context, role, token string) (*shared.Profile, error) {
	path, ok := profilePaths[role]
	if !ok {
		return nil, fmt.Errorf("no profile endpoint for role %q", role)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, token)

	var profile shared.Profile
	if err := c.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListBoutiques returns the vendor's shops. The upstream has returned both a
// bare array and a {data: [...]} envelope over time; both are accepted.
func (c *Client) ListBoutiques(ctx context.Context, token string) ([]shared.Boutique, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/boutiques", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, token)

	raw, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}

	var boutiques []shared.Boutique
	if err := json.Unmarshal(raw, &boutiques); err == nil {
		return boutiques, nil
	}
	var envelope struct {
		Data []shared.Boutique `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("could not parse boutique list response: %w", err)
	}
	return envelope.Data, nil
}

// CreateBoutique posts the shop-creation DTO as multipart form data and
// returns the created shop's identifier.
func (c *Client) CreateBoutique(ctx context.Context, token string, dto shared.BoutiqueCreate) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"nom":                    dto.Nom,
		"slug":                   slug.Make(dto.Nom),
		"type_boutique_uuid":     dto.TypeBoutiqueUUID,
		"description":            dto.Description,
		"politique_retour":       dto.PolitiqueRetour,
		"conditions_utilisation": dto.ConditionsUtilisation,
		"vendeur_uuid":           dto.VendeurUUID,
	}
	for name, value := range fields {
		if value == "" {
			switch name {
			case "nom", "slug", "type_boutique_uuid", "vendeur_uuid":
				// Required fields go through even empty; upstream validates.
			default:
				continue
			}
		}
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("could not write form field %s: %w", name, err)
		}
	}

	for name, upload := range map[string]*shared.Upload{"logo": dto.Logo, "banniere": dto.Banniere} {
		if upload == nil {
			continue
		}
		part, err := writer.CreateFormFile(name, upload.Filename)
		if err != nil {
			return "", fmt.Errorf("could not create form file %s: %w", name, err)
		}
		if _, err := part.Write(upload.Content); err != nil {
			return "", fmt.Errorf("could not write form file %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/boutiques", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req, token)

	var created struct {
		UUID string `json:"uuid"`
	}
	if err := c.do(req, &created); err != nil {
		return "", err
	}
	return created.UUID, nil
}

func (c *Client) authorize(req *http.Request, token string) {
	req.Header.Set(common.AuthorizationHeader, common.AuthorizationTypeBearer+" "+token)
}

// do executes the request and decodes the JSON body into out, unwrapping a
// {data: {...}} envelope when present.
func (c *Client) do(req *http.Request, out interface{}) error {
	raw, err := c.doRaw(req)
	if err != nil {
		return err
	}

	// Try the enveloped form first; fall back to the bare object.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err == nil {
			return nil
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("could not parse upstream response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := extractMessage(raw)
		c.logger.Warn("Upstream returned error status",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		return nil, &Error{StatusCode: resp.StatusCode, Message: message}
	}
	return raw, nil
}

func extractMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return ""
}
