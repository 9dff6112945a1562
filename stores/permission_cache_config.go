package stores

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oarkflow/catalogaccess"
)

// NewPermissionCacheFromConfig builds a permission cache from engine
// configuration: Redis when an address is set, ristretto when sizing is
// given, nil (no caching) otherwise. This lives here rather than on the
// engine because the engine package must not depend on its store
// implementations.
func NewPermissionCacheFromConfig(cfg catalogaccess.EngineConfig) (catalogaccess.PermissionCache, error) {
	ttl := time.Duration(cfg.CacheTTL) * time.Millisecond
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache := NewRedisPermissionCache(client, ttl)
		if cfg.RedisKeyPrefix != "" {
			cache.WithKeyPrefix(cfg.RedisKeyPrefix)
		}
		return cache, nil
	}
	if cfg.RistrettoNumCounter > 0 || cfg.RistrettoMaxCost > 0 {
		return NewRistrettoPermissionCache(cfg.RistrettoNumCounter, cfg.RistrettoMaxCost, cfg.RistrettoBuffer, ttl)
	}
	return nil, nil
}
