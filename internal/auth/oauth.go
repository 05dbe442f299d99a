package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/repoedit/internal/apperror"
)

// ProviderConfig holds the OAuth App registration.
//
// You get ClientID and ClientSecret by registering an OAuth App at:
// https://github.com/settings/developers → "OAuth Apps" → "New OAuth App"
//
// RedirectURI must match the "Authorization callback URL" you configured exactly.
// Endpoint defaults to GitHub's; tests point it at an httptest server.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Endpoint     *oauth2.Endpoint
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Your server redirects the user to GitHub's authorization endpoint,
//    with your ClientID, the requested scopes and a random state.
// 2. The user approves (or denies) the authorization request on GitHub.
// 3. GitHub redirects back to your RedirectURI with a short-lived "code".
// 4. Your server exchanges the code for an access token (server-to-server call).
//
// The access token never touches the client's browser: it is encrypted and
// stored server-side, and the browser only ever holds the session id.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider.
//
// Scopes: "repo" is what lets RepoWriter create blobs, trees, commits and
// move refs on the user's behalf; "read:user" and "user:email" cover the profile.
func NewGitHubProvider(cfg ProviderConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	// GitHub accepts client credentials as form params; sending them there
	// skips oauth2's header-then-params probing.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a random string we generate and store in a cookie before
// redirecting. When GitHub calls back, the handler verifies the returned
// state matches our cookie. This prevents CSRF attacks where an attacker
// tricks your browser into completing an OAuth flow for their account.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code (and the state GitHub echoed back)
// for an access token.
//
// The token request carries client_id, client_secret, code, redirect_uri and
// state. A response without access_token, or one carrying an OAuth "error"
// field (e.g. bad_verification_code), is apperror.ErrAuth. A network failure
// is apperror.ErrTransport.
func (p *GitHubProvider) Exchange(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", apperror.ValidationFailed("code", "missing OAuth code")
	}

	tok, err := p.config.Exchange(ctx, code, oauth2.SetAuthURLParam("state", state))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		var urlErr *url.Error
		switch {
		case errors.As(err, &retrieveErr):
			reason := retrieveErr.ErrorCode
			if reason == "" {
				reason = fmt.Sprintf("token endpoint returned %d", retrieveErr.Response.StatusCode)
			}
			return "", fmt.Errorf("auth: exchanging OAuth code: %w", apperror.AuthFailed("GitHub rejected the authorization code: "+reason))
		case errors.As(err, &urlErr):
			return "", fmt.Errorf("auth: exchanging OAuth code: %w", apperror.Transport("POST token endpoint", err))
		default:
			// oauth2 reports a 200 without access_token this way.
			return "", fmt.Errorf("auth: exchanging OAuth code: %w", apperror.AuthFailed(err.Error()))
		}
	}

	if tok.AccessToken == "" {
		return "", apperror.AuthFailed("GitHub returned no access_token")
	}
	return tok.AccessToken, nil
}
