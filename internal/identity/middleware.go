package identity

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity ID we store.
type contextKey string

const identityIDKey contextKey = "identityID"

// SessionCookie is where handlers store the session JWT. HttpOnly, so
// page scripts cannot read it.
const SessionCookie = "token"

// RequireAuth enforces authentication on protected routes. It validates the
// session token (cookie or Authorization bearer), stores the identity ID in
// the request context, and returns 401 when the token is missing or
// invalid.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identityID, err := extractIdentityID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthenticated","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityIDKey, identityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the identity if a valid token is present but never
// blocks the request. Public listings use it so known viewers get their
// viewer-relative isStarred flags while anonymous viewers still read.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identityID, err := extractIdentityID(r, tokens); err == nil && identityID != "" {
				ctx := context.WithValue(r.Context(), identityIDKey, identityID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromContext retrieves the authenticated identity ID from the request
// context. Returns ("", false) for anonymous requests.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityIDKey).(string)
	return id, ok && id != ""
}

// WithIdentity returns a context carrying the given identity ID. Used by
// tests and internal callers that act on behalf of a known identity.
func WithIdentity(ctx context.Context, identityID string) context.Context {
	return context.WithValue(ctx, identityIDKey, identityID)
}

// extractIdentityID reads the session token from the cookie or the
// Authorization header and validates it.
func extractIdentityID(r *http.Request, tokens *TokenService) (string, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return tokens.Validate(cookie.Value)
	}

	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(h, "Bearer "))
	}

	return "", http.ErrNoCookie
}
