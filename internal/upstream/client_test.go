// File: internal/upstream/client_test.go
package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitrine_backend/internal/config"
	"vitrine_backend/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := &config.Config{
		UpstreamBaseURL: server.URL,
		UpstreamTimeout: 5 * time.Second,
	}
	return NewClient(cfg, zap.NewNop())
}

func TestAuthenticate_UnwrapsDataEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"uuid":"v-1","type":"vendeur","email":"v@example.com","token":"tok-abc"}}`))
	})

	payload, err := client.Authenticate(context.Background(), "v@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "v-1", payload.UUID)
	assert.Equal(t, "vendeur", payload.Type)
	assert.Equal(t, "tok-abc", payload.BearerToken())
}

func TestAuthenticate_BareObjectAndTempToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uuid":"u-1","type":"utilisateur","temp_token":"tmp-1"}`))
	})

	payload, err := client.Authenticate(context.Background(), "u@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tmp-1", payload.BearerToken(), "temp_token serves when token is absent")
}

func TestAuthenticate_SurfacesUpstreamMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Identifiants invalides."}`))
	})

	_, err := client.Authenticate(context.Background(), "u@example.com", "wrong")
	require.Error(t, err)
	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "Identifiants invalides.", upErr.Message)
}

func TestListBoutiques_AcceptsBothResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"uuid":"b-1","nom":"Une"},{"uuid":"b-2","nom":"Deux"}]`, 2},
		{"data envelope", `{"data":[{"uuid":"b-1","nom":"Une"}]}`, 1},
		{"empty envelope", `{"data":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/boutiques", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.Write([]byte(tt.body))
			})

			boutiques, err := client.ListBoutiques(context.Background(), "tok")
			require.NoError(t, err)
			assert.Len(t, boutiques, tt.want)
		})
	}
}

func TestCreateBoutique_SendsMultipartFormWithSlug(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		assert.Equal(t, "Ma Belle Boutique", r.FormValue("nom"))
		assert.Equal(t, "ma-belle-boutique", r.FormValue("slug"))
		assert.Equal(t, "type-1", r.FormValue("type_boutique_uuid"))
		assert.Equal(t, "v-1", r.FormValue("vendeur_uuid"))
		assert.Equal(t, "30 jours", r.FormValue("politique_retour"))

		file, header, err := r.FormFile("logo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "logo.png", header.Filename)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"uuid":"b-42"}}`))
	})

	uuid, err := client.CreateBoutique(context.Background(), "tok", shared.BoutiqueCreate{
		Nom:              "Ma Belle Boutique",
		TypeBoutiqueUUID: "type-1",
		PolitiqueRetour:  "30 jours",
		VendeurUUID:      "v-1",
		Logo: &shared.Upload{
			Filename:    "logo.png",
			ContentType: "image/png",
			Content:     []byte("png-bytes"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "b-42", uuid)
}

func TestFetchProfile_RoutesByRole(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":{"uuid":"v-1","nom_complet":"Awa Diop","telephone":"+221770000000"}}`))
	})

	profile, err := client.FetchProfile(context.Background(), "vendeur", "tok")
	require.NoError(t, err)
	assert.Equal(t, "/api/vendeurs/profile", gotPath)
	assert.Equal(t, "Awa Diop", profile.NomComplet)
	assert.Equal(t, "+221770000000", profile.Telephone)
}

func TestFetchProfile_UnknownRoleNeverCallsUpstream(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.FetchProfile(context.Background(), "ghost", "tok")
	require.Error(t, err)
	assert.False(t, called)
}
