package core

import (
	"net/http"
	"slices"

	"github.com/joeydtaylor/steeze-effects/pkg/manifest"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	httpx "github.com/joeydtaylor/steeze-effects/pkg/transport/httpx"
)

// authorize returns 0 when g admits the request, else the HTTP status to send.
// Users are checked before roles; the admin role passes any role list.
func authorize(r *http.Request, a *auth.Middleware, g manifest.Guard) int {
	restricted := g.RequireAuth || len(g.Users) > 0 || len(g.Roles) > 0
	if a == nil {
		if restricted {
			return http.StatusUnauthorized
		}
		return 0
	}
	ctx := r.Context()
	if restricted && !a.IsAuthenticated(ctx) {
		return http.StatusUnauthorized
	}
	u := a.GetUser(ctx)
	switch {
	case len(g.Users) > 0:
		if !slices.Contains(g.Users, u.Username) {
			return http.StatusForbidden
		}
	case len(g.Roles) > 0:
		if !a.IsAdmin(ctx) && !slices.Contains(g.Roles, u.Role.Name) {
			return http.StatusForbidden
		}
	}
	return 0
}

func guard(a *auth.Middleware, g manifest.Guard) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code := authorize(r, a, g); code != 0 {
				http.Error(w, http.StatusText(code), code)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
