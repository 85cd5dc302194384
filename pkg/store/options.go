// pkg/store/options.go
package store

import (
	"reflect"
	"time"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultBufferSize = 256

type Option func(*Store)

// WithBufferSize sets the queue capacity. n <= 0 keeps the default.
func WithBufferSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithEffectTimeout bounds how long the store waits on one completion.
// Zero waits until Stop.
func WithEffectTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithRegisterer selects where the store's collectors go. nil disables
// registration; the default is prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(s *Store) { s.registerer = r }
}

// WithActions names actions for logs and metric labels.
func WithActions(r *actions.Registry) Option {
	return func(s *Store) {
		if r != nil {
			s.actions = r
		}
	}
}

func (s *Store) typeName(action any) string {
	if action == nil {
		return "<nil>"
	}
	if n, ok := s.actions.NameOf(action); ok {
		return n
	}
	return reflect.TypeOf(action).String()
}
