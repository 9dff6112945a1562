package catalogaccess

import (
	"errors"
	"time"

	"github.com/oarkflow/catalogaccess/logger"
)

// WithLogger installs a Logger on the Engine.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) error {
		if l == nil {
			return errors.New("nil logger")
		}
		e.logger = l
		return nil
	}
}

// WithTraceIDFunc installs a custom id generator used for audit entry ids.
func WithTraceIDFunc(f logger.TraceIDFunc) EngineOption {
	return func(e *Engine) error {
		if f == nil {
			return errors.New("nil trace id func")
		}
		e.traceIDFunc = f
		return nil
	}
}

// WithPermissionCache installs a permission cache. Without one the engine
// recomputes every resolution from the rule store.
func WithPermissionCache(c PermissionCache) EngineOption {
	return func(e *Engine) error {
		e.cache = c
		return nil
	}
}

// WithCacheTTL overrides the default effective-permission TTL.
func WithCacheTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) error {
		if ttl <= 0 {
			return errors.New("cache ttl must be positive")
		}
		e.cacheTTL = ttl
		return nil
	}
}
