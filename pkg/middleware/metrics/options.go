package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var (
	skipMu    sync.RWMutex
	skipPaths = map[string]struct{}{"/metrics": {}, "/ping": {}}
)

// AddSkipPaths excludes more paths from collection.
func AddSkipPaths(paths ...string) {
	skipMu.Lock()
	defer skipMu.Unlock()
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			skipPaths[p] = struct{}{}
		}
	}
}

func isSkipPath(r *http.Request) bool {
	skipMu.RLock()
	defer skipMu.RUnlock()
	_, ok := skipPaths[r.URL.Path]
	return ok
}

// routeLabel prefers the matched chi pattern (e.g. /actions/{type}) so one
// label covers every action type.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
