// pkg/relay/forwarder.go
package relay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/joeydtaylor/steeze-effects/pkg/manifest"
	"github.com/joeydtaylor/steeze-effects/pkg/registry"
)

// RelayFailed is dispatched when a forward could not be published.
type RelayFailed struct {
	Type  string
	Topic string
	Err   string
}

// Forwarder is an effect host that publishes every T it sees to Topic.
type Forwarder[T any] struct {
	Type    string
	Topic   string
	Codec   codec.Codec
	Pub     Publisher
	Timeout time.Duration
}

// Forward encodes action and publishes it off the caller's goroutine. A
// failure resolves the completion with the error and dispatches RelayFailed.
func (f *Forwarder[T]) Forward(action T, d effect.Dispatcher) *effect.Completion {
	return effect.Go(func() error {
		err := f.publish(action)
		if err != nil {
			d.Dispatch(RelayFailed{Type: f.Type, Topic: f.Topic, Err: err.Error()})
			return fmt.Errorf("relay %s -> %s: %w", f.Type, f.Topic, err)
		}
		return nil
	})
}

func (f *Forwarder[T]) publish(action T) error {
	body, err := f.Codec.Marshal(action)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	return f.Pub.Publish(ctx, Message{
		Topic:   f.Topic,
		Type:    f.Type,
		Body:    body,
		Headers: map[string]string{"Content-Type": f.Codec.ContentType(), "X-Relay-Type": f.Type},
	})
}

type factory func(topic string, c codec.Codec, pub Publisher, timeout time.Duration) (*effect.Invoker, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// EnableRelayType lets [[relay]] entries name typeName. T must be the type
// registered under typeName in the action registry. Repeat calls are no-ops.
func EnableRelayType[T any](typeName string) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[typeName]; exists {
		return
	}
	factories[typeName] = func(topic string, c codec.Codec, pub Publisher, timeout time.Duration) (*effect.Invoker, error) {
		f := &Forwarder[T]{Type: typeName, Topic: topic, Codec: c, Pub: pub, Timeout: timeout}
		return registry.Declare(f, "Forward", nil)
	}
}

// Enabled lists the enabled type names, sorted.
func Enabled() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Bind builds one forwarding effect per relay declaration. The action's
// registered codec encodes the payload.
func Bind(relays []manifest.Relay, pub Publisher, reg *actions.Registry, timeout time.Duration) ([]*effect.Invoker, error) {
	if reg == nil {
		reg = actions.Default
	}
	out := make([]*effect.Invoker, 0, len(relays))
	for i, r := range relays {
		mu.RLock()
		mk, ok := factories[r.DataType]
		mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("relay %d: datatype not enabled: %s", i, r.DataType)
		}
		c := codec.JSON
		if b, ok := reg.Lookup(r.DataType); ok && b.Codec != nil {
			c = b.Codec
		}
		inv, err := mk(r.Topic, c, pub, timeout)
		if err != nil {
			return nil, fmt.Errorf("relay %d: %w", i, err)
		}
		out = append(out, inv)
	}
	return out, nil
}
