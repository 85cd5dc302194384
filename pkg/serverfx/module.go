package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/steeze-effects/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-effects/pkg/core"
	"github.com/joeydtaylor/steeze-effects/pkg/manifest"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-effects/pkg/registry"
	"github.com/joeydtaylor/steeze-effects/pkg/relay"
	"github.com/joeydtaylor/steeze-effects/pkg/store"
	"github.com/joeydtaylor/steeze-effects/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module returns the full service graph: manifest, relay, store, effect
// binding, router and HTTP server. Register hosts, funcs, action types and
// relay types before fx starts.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		bundlefx.Module,
		fx.Provide(httpx.NewChi),
		fx.Provide(func() Config { return cfg }),
		fx.Provide(provideManifest),
		fx.Provide(provideRelay),
		fx.Provide(provideStore),
		fx.Provide(fx.Annotate(
			provideRouter,
			fx.ParamTags(``, ``, ``, ``, `name:"metrics"`, ``, ``, ``),
			fx.ResultTags(`name:"app"`),
		)),
		fx.Invoke(bindEffects),
		fx.Invoke(registerHooks),
	)
}

func provideManifest(cfg Config, zl *zap.Logger) (manifest.Config, error) {
	path := cfg.manifestPath()
	man, err := manifest.LoadWith(path, cfg.Actions)
	if err != nil {
		zl.Error("manifest load failed", zap.String("path", path), zap.Error(err))
		return manifest.Config{}, err
	}
	zl.Info("manifest loaded",
		zap.String("path", path),
		zap.Int("effects", len(man.Effects)),
		zap.Int("relays", len(man.Relays)),
	)
	return man, nil
}

func provideRelay(man manifest.Config, zl *zap.Logger) (relay.Publisher, error) {
	if len(man.Relays) > 0 && os.Getenv("ELECTRICIAN_TARGET") == "" {
		zl.Warn("relays configured but ELECTRICIAN_TARGET unset; forwards are discarded")
	}
	return relay.NewBuilderRelayFromEnv(zl)
}

func provideStore(lc fx.Lifecycle, cfg Config, man manifest.Config, zl *zap.Logger) (*store.Store, error) {
	s, err := store.New(zl,
		store.WithBufferSize(man.Dispatch.BufferSize),
		store.WithEffectTimeout(time.Duration(man.Dispatch.TimeoutMS)*time.Millisecond),
		store.WithActions(cfg.Actions),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	return s, nil
}

// bindEffects turns [[effect]] and [[relay]] entries into invokers on the
// store. Without fail_fast, bad effects are logged by the scanner and skipped.
func bindEffects(cfg Config, man manifest.Config, s *store.Store, pub relay.Publisher, zl *zap.Logger) error {
	sc := &registry.Scanner{
		Hosts:    cfg.Hosts,
		Actions:  cfg.Actions,
		Log:      zl.Named("registry"),
		FailFast: man.Dispatch.FailFast,
	}
	invs, err := sc.Bind(man.Effects)
	if err != nil && man.Dispatch.FailFast {
		return err
	}
	fwd, err := relay.Bind(man.Relays, pub, cfg.Actions, time.Duration(man.Dispatch.TimeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}
	s.Register(invs...)
	s.Register(fwd...)
	zl.Info("effects bound", zap.Int("effects", len(invs)), zap.Int("relays", len(fwd)))
	return nil
}

func provideRouter(
	cfg Config,
	man manifest.Config,
	a *auth.Middleware,
	lm *logger.Middleware,
	/* name:"metrics" */ m http.Handler,
	r httpx.Router,
	s *store.Store,
	zl *zap.Logger,
) (http.Handler, error) {
	logger.AddBodyLogPrefixes(man.Ingress.Path)
	return core.BuildRouter(man, core.BuildDeps{
		Auth:    a,
		LogMW:   lm,
		Metrics: m,
		Router:  r,
		Store:   s,
		Actions: cfg.Actions,
		Log:     zl.Named("ingress"),
	})
}

type serverDeps struct {
	fx.In
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, cfg Config, d serverDeps) {
	addr := envOr(cfg.ListenEnv, ":4000")
	cert := os.Getenv(cfg.TLSCertEnv)
	key := os.Getenv(cfg.TLSKeyEnv)
	useTLS := fileExists(cert) && fileExists(key)

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			d.Logger.Info("server starting",
				zap.String("service", cfg.Service),
				zap.String("addr", ln.Addr().String()),
				zap.Bool("tls", useTLS),
			)
			go func() {
				var err error
				if useTLS {
					err = srv.ServeTLS(ln, cert, key)
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping")
			return srv.Shutdown(ctx)
		},
	})
}
