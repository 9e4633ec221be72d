package session

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const sessionContextKey contextKey = "session"

// ExtractToken extracts the access token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Middleware resolves the request's Session and puts it in the context.
// A missing or invalid token yields the anonymous session rather than an
// error: browsing never requires login. A nil verifier (no JWT_SECRET
// configured) treats every request as anonymous.
func Middleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := Anonymous
			if verifier != nil {
				if tokenString := ExtractToken(r); tokenString != "" {
					if verified, err := verifier.Verify(tokenString); err == nil {
						sess = verified
					}
				}
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext retrieves the Session; absent means anonymous.
func FromContext(ctx context.Context) Session {
	if sess, ok := ctx.Value(sessionContextKey).(Session); ok {
		return sess
	}
	return Anonymous
}
