package logger

import (
	"net/http"
	"strings"
	"sync"
)

var (
	bodyLogMu       sync.RWMutex
	bodyLogPrefixes []string
)

// AddBodyLogPrefixes allowlists request paths whose small JSON bodies are
// logged. A prefix matches itself and anything below it.
func AddBodyLogPrefixes(prefixes ...string) {
	bodyLogMu.Lock()
	defer bodyLogMu.Unlock()
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			bodyLogPrefixes = append(bodyLogPrefixes, p)
		}
	}
}

func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 { // 64 KiB cap
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	path := r.URL.Path
	bodyLogMu.RLock()
	defer bodyLogMu.RUnlock()
	for _, p := range bodyLogPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
