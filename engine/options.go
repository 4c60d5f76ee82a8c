package engine

import (
	"go.uber.org/zap"

	"github.com/arloliu/deepzoom/approx"
	"github.com/arloliu/deepzoom/diag"
	"github.com/arloliu/deepzoom/internal/options"
)

type config struct {
	logger *zap.Logger
	cache  *approx.TableCache
	sink   diag.Sink
	status func(message string)
}

// Option configures New.
type Option = options.Option[*config]

// WithLogger sets the logger for lifecycle events and, unless WithDiagnostics
// is given, for build diagnostics. The default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTableCache shares cache with other engines. Only one build can hold a
// cache at a time; a concurrent build fails with errs.ErrTableBusy.
func WithTableCache(cache *approx.TableCache) Option {
	return options.NoError(func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	})
}

// WithDiagnostics overrides the sink that receives table build warnings.
func WithDiagnostics(sink diag.Sink) Option {
	return options.NoError(func(c *config) { c.sink = sink })
}

// WithStatus registers a callback for short progress lines such as "P : 1200"
// while the orbit runs, "A : 40%" while the table builds and
// "P : 1200 (1201, 31)" once both are done. It runs on the worker goroutine.
func WithStatus(fn func(message string)) Option {
	return options.NoError(func(c *config) { c.status = fn })
}
