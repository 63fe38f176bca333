package cache

import (
	"time"

	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-catalog-cache/internal/cacheinfra"
)

// Clock is the time source used for entry expiry. Tests pass
// sturdyc.NewTestClock to move time forward deterministically.
type Clock = sturdyc.Clock

// Config sizes the cache. Every entry lives for DefaultTTL; the lifetime is
// not configurable.
type Config struct {
	Capacity           int
	NumShards          int
	EvictionPercentage int
	// EvictionInterval is how often expired entries are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
	Clock            Clock
}

// DefaultConfig returns the sizing of cacheinfra.DefaultConfig.
func DefaultConfig() Config {
	d := cacheinfra.DefaultConfig()
	return Config{
		Capacity:           d.Capacity,
		NumShards:          d.NumShards,
		EvictionPercentage: d.EvictionPercentage,
		EvictionInterval:   d.EvictionInterval,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.internal().Validate()
}

// NewCacheService constructs the sturdyc backed cache service.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg.internal())
}

// internal fixes the entry lifetime and leaves early refresh and
// missing-record storage off, so an entry is live until exactly DefaultTTL.
func (c Config) internal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                DefaultTTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		Clock:              c.Clock,
	}
}
