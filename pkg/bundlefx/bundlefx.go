// bundlefx/bundlefx.go
package bundlefx

import (
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides *zap.Logger, *logger.Middleware, *auth.Middleware and the
// /metrics handler tagged name:"metrics".
var Module = fx.Options(
	auth.Module,
	logger.Module,
	fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
)
