// pkg/core/router.go
package core

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/effect"
	"github.com/joeydtaylor/steeze-effects/pkg/manifest"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/steeze-effects/pkg/middleware/metrics"
	httpx "github.com/joeydtaylor/steeze-effects/pkg/transport/httpx"
	"go.uber.org/zap"
)

// Dispatcher is the store surface the ingress needs.
type Dispatcher interface {
	TryDispatch(action any) error
	Invokers() []*effect.Invoker
}

type BuildDeps struct {
	Auth    *auth.Middleware
	LogMW   *logger.Middleware
	Metrics http.Handler
	Router  httpx.Router
	Store   Dispatcher
	Actions *actions.Registry
	Log     *zap.Logger
}

// BuildRouter mounts the ingress, the effect listing and /metrics. It fails
// on an ingress codec name it does not know.
func BuildRouter(cfg manifest.Config, d BuildDeps) (http.Handler, error) {
	c, err := ingressCodec(cfg.Ingress.Codec)
	if err != nil {
		return nil, err
	}
	if d.Router == nil {
		d.Router = httpx.NewChi()
	}
	if d.Actions == nil {
		d.Actions = actions.Default
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Auth))
	}
	r.Use(hmetrics.Collect(d.Auth))

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics)
	}
	r.Get("/effects", guard(d.Auth, cfg.Ingress.Guard)(listEffects(d)))

	if !cfg.Ingress.Disabled {
		r.Route(cfg.Ingress.Path, func(sub httpx.Router) {
			sub.Use(guard(d.Auth, cfg.Ingress.Guard))
			sub.Get("/", listActions(d))
			sub.Post("/{type}", dispatchAction(d, c))
		})
	}
	return r.Mux(), nil
}
