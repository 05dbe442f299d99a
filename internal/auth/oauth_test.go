package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/repoedit/internal/apperror"
)

func newTestProvider(tokenURL string) *GitHubProvider {
	return NewGitHubProvider(ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/auth/github/callback",
		Scopes:       []string{"repo", "read:user"},
		Endpoint: &oauth2.Endpoint{
			AuthURL:  "https://github.example/login/oauth/authorize",
			TokenURL: tokenURL,
		},
	})
}

// ============================================================
// AuthURL
// ============================================================

func TestAuthURL_CarriesClientStateAndScopes(t *testing.T) {
	p := newTestProvider("http://unused")

	raw := p.AuthURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "github.example", u.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "repo read:user", q.Get("scope"))
	assert.Equal(t, "http://localhost:8080/auth/github/callback", q.Get("redirect_uri"))
}

// ============================================================
// Exchange
// ============================================================

func TestExchange_Success(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer","scope":"repo"}`))
	}))
	defer srv.Close()

	token, err := newTestProvider(srv.URL).Exchange(context.Background(), "the-code", "the-state")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", token)

	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "the-state", form.Get("state"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))
	assert.Equal(t, "http://localhost:8080/auth/github/callback", form.Get("redirect_uri"))
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing access_token", http.StatusOK, `{"token_type":"bearer"}`},
		{"oauth error field", http.StatusOK, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`},
		{"non-2xx status", http.StatusUnauthorized, `{"error":"invalid_client"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			token, err := newTestProvider(srv.URL).Exchange(context.Background(), "code", "state")
			assert.Empty(t, token)
			assert.ErrorIs(t, err, apperror.ErrAuth)
		})
	}
}

func TestExchange_EmptyCode(t *testing.T) {
	_, err := newTestProvider("http://unused").Exchange(context.Background(), "", "state")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestExchange_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tokenURL := srv.URL
	srv.Close()

	_, err := newTestProvider(tokenURL).Exchange(context.Background(), "code", "state")
	assert.ErrorIs(t, err, apperror.ErrTransport)
}
