// pkg/transport/httpx/router.go
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware wraps a handler.
type Middleware = func(http.Handler) http.Handler

// Router is what the service mounts routes on. Middleware must be added
// before any route on the same Router.
type Router interface {
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	Use(mw ...Middleware)
	// Route mounts a sub-router at prefix. Middleware added inside fn only
	// applies to the group.
	Route(prefix string, fn func(Router))
	Mux() http.Handler
}

type chiRouter struct{ r chi.Router }

func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Get(path string, h http.Handler)  { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler) { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Use(mw ...Middleware)             { c.r.Use(mw...) }
func (c *chiRouter) Mux() http.Handler                { return c.r }

func (c *chiRouter) Route(prefix string, fn func(Router)) {
	c.r.Route(prefix, func(sub chi.Router) { fn(&chiRouter{r: sub}) })
}

// URLParam reads a path parameter captured by the router.
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }
