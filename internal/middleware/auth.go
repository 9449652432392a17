package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/session"
)

type contextKey string

const SessionContextKey contextKey = "session"

// SessionFrom returns the authenticated session stored by Auth, or nil.
func SessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(SessionContextKey).(*session.Session)
	return sess
}

// Auth verifies the bearer token and attaches the session to the request
// context. Validation also slides the session TTL forward.
func Auth(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			sess, err := manager.Validate(r.Context(), parts[1])
			if err != nil {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the named roles through. It must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFrom(r)
			if sess == nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[sess.Role]; !ok {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePathAccess gates requests by the role's allowed path prefixes. It
// must run after Auth.
func RequirePathAccess(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFrom(r)
			if sess == nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !auth.CanAccess(sess.Role, prefix) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
