package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

// Middleware authenticates from dev headers, a bearer token or the assertion
// cookie, in that order. A presented but invalid credential is a 401; no
// credential continues unauthenticated and the route guard decides.
func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.devBypass {
				if u := devUserFromHeaders(r); u.Username != "" {
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
					return
				}
			}

			raw := bearer(r)
			if raw == "" {
				if c, _ := r.Cookie(m.cookieName); c != nil {
					raw = c.Value
				}
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := m.validateAssertion(raw)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Dev-only user injection via headers when AUTH_DEV_BYPASS=true
func devUserFromHeaders(r *http.Request) User {
	user := r.Header.Get("X-Dev-User")
	if user == "" {
		return User{}
	}
	return User{
		Username:             user,
		AuthenticationSource: AuthenticationSource{Provider: r.Header.Get("X-Dev-Provider")},
		Role:                 Role{Name: r.Header.Get("X-Dev-Role")},
	}
}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

func (m *Middleware) GetUser(ctx context.Context) User {
	u, _ := ctx.Value(userCtxKey).(User)
	return u
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	return m.GetUser(ctx).Username != ""
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	return m.adminRole != "" && m.GetUser(ctx).Role.Name == m.adminRole
}

// IsRole is true for the role itself or the admin role.
func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	if !m.IsAuthenticated(ctx) {
		return false
	}
	return m.GetUser(ctx).Role.Name == role.Name || m.IsAdmin(ctx)
}

func (m *Middleware) IsUser(ctx context.Context, username string) bool {
	if !m.IsAuthenticated(ctx) {
		return false
	}
	return m.GetUser(ctx).Username == username || m.IsAdmin(ctx)
}
