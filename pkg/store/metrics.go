// pkg/store/metrics.go
package store

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	dispatched  *prometheus.CounterVec
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func newCollectors(reg prometheus.Registerer) (*collectors, error) {
	c := &collectors{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "effects_actions_dispatched_total", Help: "actions dispatched by type"},
			[]string{"type"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "effects_invocations_total", Help: "effect invocations"},
			[]string{"effect"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "effects_failures_total", Help: "effect invocations that failed or panicked"},
			[]string{"effect"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "effects_latency_seconds",
				Help:    "time from invocation to completion",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"effect"},
		),
	}
	if reg == nil {
		return c, nil
	}
	var err error
	if c.dispatched, err = register(reg, c.dispatched); err != nil {
		return nil, err
	}
	if c.invocations, err = register(reg, c.invocations); err != nil {
		return nil, err
	}
	if c.failures, err = register(reg, c.failures); err != nil {
		return nil, err
	}
	if c.latency, err = register(reg, c.latency); err != nil {
		return nil, err
	}
	return c, nil
}

// register adopts an identical collector that is already registered so two
// stores can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
