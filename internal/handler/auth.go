package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/model"
	"github.com/sakif/repoedit/internal/service"
)

const stateCookie = "oauth_state"

// LoginRedirector builds the provider's authorization URL.
// *auth.GitHubProvider satisfies it.
type LoginRedirector interface {
	AuthURL(state string) string
}

// Authenticator is the slice of *service.AuthService the auth routes use.
type Authenticator interface {
	Authenticate(ctx context.Context, code, state string) (*service.AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	Profile(ctx context.Context, sessionID string) (*model.Profile, error)
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool          // HTTPS only; turn on in production
	MaxAge time.Duration // should match the session token TTL
}

// AuthHandler manages the GitHub OAuth login flow and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive code+state, create an account, set the session cookie
//   - HandleLogout         → delete the session's account and clear the cookie
//   - HandleMe             → return the session's login and avatar
type AuthHandler struct {
	login   LoginRedirector
	auth    Authenticator
	cookies CookieOptions
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(login LoginRedirector, authn Authenticator, cookies CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		login:   login,
		auth:    authn,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.login.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange code+state for a token and register a NEW account
//  3. Store the signed session token in an HttpOnly cookie
//  4. Redirect to the app home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// --- Step 1: Validate CSRF state ---
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}
	if query.Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}

	// Single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange + register ---
	result, err := h.auth.Authenticate(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		logFailure(h.logger, r, "auth callback failed", err)
		writeError(w, err)
		return
	}

	// --- Step 3: Session cookie ---
	h.setSessionCookie(w, result.Token, int(h.cookies.MaxAge.Seconds()))

	// --- Step 4: Redirect to the app ---
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout deletes the session's account and clears the cookie.
//
// HTTP: POST /auth/logout
//
// Unlike a stateless JWT logout, this is a real revocation: the account row
// (and with it the encrypted GitHub token) is gone, so a copied cookie is
// useless afterwards.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())

	if err := h.auth.Logout(r.Context(), sessionID); err != nil {
		logFailure(h.logger, r, "logout failed", err)
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the session's GitHub login and avatar.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets the session id in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := auth.SessionIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid session required"})
		return
	}

	profile, err := h.auth.Profile(r.Context(), sessionID)
	if err != nil {
		logFailure(h.logger, r, "profile lookup failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// setSessionCookie writes the session cookie. maxAge < 0 deletes it.
//
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
