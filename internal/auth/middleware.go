package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookie is the HttpOnly cookie that carries the signed session token.
const SessionCookie = "session"

// contextKey is an unexported type used for context keys in this package.
//
// A package-private key type means no other package can read or shadow the
// session id stored in the request context.
type contextKey string

const sessionIDKey contextKey = "sessionID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the signed session token from the "session" HttpOnly cookie (or an
// "Authorization: Bearer" header, for API clients), validates it, and stores
// the session id in the request context. If the token is missing or invalid,
// it returns 401 Unauthorized and stops the request chain.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
//
// The session id is NOT the GitHub token. The GitHub token stays encrypted in
// the account store and is only decrypted for the duration of one operation.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := extractSessionID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid session required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// WithSessionID returns a copy of ctx carrying the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext retrieves the authenticated session id from the request context.
//
// Returns ("", false) if the request did not pass through RequireAuth.
//
//	sessionID, ok := auth.SessionIDFromContext(r.Context())
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// extractSessionID reads the session token and validates it.
//
// COOKIE FLOW:
// 1. Set-Cookie: session=<jwt>; HttpOnly; SameSite=Lax (set on OAuth callback)
// 2. Browser automatically sends Cookie: session=<jwt> on subsequent requests
// 3. We read r.Cookie("session") and validate it
func extractSessionID(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(h, "Bearer "))
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
