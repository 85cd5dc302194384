// pkg/registry/hosts.go
package registry

import (
	"sort"
	"sync"
)

// Hosts maps manifest names to effect hosts (instances) and free functions.
type Hosts struct {
	mu    sync.RWMutex
	hosts map[string]any
	funcs map[string]any
}

func NewHosts() *Hosts {
	return &Hosts{hosts: map[string]any{}, funcs: map[string]any{}}
}

// Default is the process-wide host set used by the fx module.
var Default = NewHosts()

// RegisterHost binds name to an instance whose methods are effects.
func (h *Hosts) RegisterHost(name string, host any) {
	if name == "" || host == nil {
		panic("registry: host name and value required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.hosts[name]; dup {
		panic("registry: duplicate host " + name)
	}
	h.hosts[name] = host
}

// RegisterFunc binds name to a free-function effect.
func (h *Hosts) RegisterFunc(name string, fn any) {
	if name == "" || fn == nil {
		panic("registry: func name and value required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.funcs[name]; dup {
		panic("registry: duplicate func " + name)
	}
	h.funcs[name] = fn
}

func (h *Hosts) Host(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.hosts[name]
	return v, ok
}

func (h *Hosts) Func(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.funcs[name]
	return v, ok
}

// HostNames returns registered host names, sorted.
func (h *Hosts) HostNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.hosts))
	for n := range h.hosts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
