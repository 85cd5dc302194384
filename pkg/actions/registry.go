// pkg/actions/registry.go
package actions

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-effects/pkg/codec"
)

// Binding ties a symbolic action name to its Go type and wire codec.
type Binding struct {
	Name  string
	Type  reflect.Type
	Codec codec.Codec
}

// Zero returns a pointer to a fresh zero value of the action type.
func (b Binding) Zero() any { return reflect.New(b.Type).Interface() }

// Decode unmarshals data into a new action and returns it by value (T, not *T).
func (b Binding) Decode(data []byte) (any, error) {
	dst := reflect.New(b.Type)
	if err := b.Codec.Unmarshal(data, dst.Interface()); err != nil {
		return nil, fmt.Errorf("action %q invalid: %w", b.Name, err)
	}
	return dst.Elem().Interface(), nil
}

// Registry maps action names to types and back. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Binding
	byType map[reflect.Type]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Binding),
		byType: make(map[reflect.Type]string),
	}
}

// Default is the process-wide registry used by the manifest and ingress.
var Default = NewRegistry()

// Register binds name to t. Both the name and the type must be new.
func (r *Registry) Register(name string, t reflect.Type, c codec.Codec) error {
	if name == "" || t == nil || c == nil {
		return fmt.Errorf("actions: name, type and codec required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("actions: %q already registered", name)
	}
	if prev, ok := r.byType[t]; ok {
		return fmt.Errorf("actions: type %s already registered as %q", t, prev)
	}
	r.byName[name] = Binding{Name: name, Type: t, Codec: c}
	r.byType[t] = name
	return nil
}

// RegisterType registers T under name.
func RegisterType[T any](r *Registry, name string, c codec.Codec) error {
	return r.Register(name, reflect.TypeOf((*T)(nil)).Elem(), c)
}

func MustRegisterType[T any](r *Registry, name string, c codec.Codec) {
	if err := RegisterType[T](r, name, c); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	return b, ok
}

// TypeOf returns the Go type registered under name.
func (r *Registry) TypeOf(name string) (reflect.Type, bool) {
	b, ok := r.Lookup(name)
	return b.Type, ok
}

// NameOf returns the name registered for v's dynamic type.
func (r *Registry) NameOf(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return r.NameOfType(reflect.TypeOf(v))
}

func (r *Registry) NameOfType(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byType[t]
	return n, ok
}

// Decode unmarshals data as the action registered under name.
func (r *Registry) Decode(name string, data []byte) (any, error) {
	b, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unregistered action %q", name)
	}
	return b.Decode(data)
}

// Encode marshals v with the codec of its registered name.
func (r *Registry) Encode(v any) (string, []byte, error) {
	name, ok := r.NameOf(v)
	if !ok {
		return "", nil, fmt.Errorf("unregistered action type %T", v)
	}
	b, _ := r.Lookup(name)
	out, err := b.Codec.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("encode %q: %w", name, err)
	}
	return name, out, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
