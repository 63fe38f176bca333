package repositorycache

import (
	"context"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/repository"
	"github.com/goliatone/go-catalog-cache/specification"
)

const (
	methodList  = "list"
	methodCount = "count"
)

// Stats is a snapshot of the decorator counters.
type Stats struct {
	Hits          int64 `json:"hits" msgpack:"hits"`
	Misses        int64 `json:"misses" msgpack:"misses"`
	Invalidations int64 `json:"invalidations" msgpack:"invalidations"`
	Bypassed      int64 `json:"bypassed" msgpack:"bypassed"`
	Tracked       int   `json:"tracked" msgpack:"tracked"`
	Entries       int   `json:"entries" msgpack:"entries"`
}

type settings struct {
	namespace         string
	invalidateOnWrite bool
	logger            zerolog.Logger
}

// Option configures a CachedRepository.
type Option func(*settings)

// WithNamespace overrides the key namespace derived from the entity type.
func WithNamespace(ns string) Option {
	return func(s *settings) {
		if ns = strings.TrimSpace(ns); ns != "" {
			s.namespace = strings.ToLower(ns)
		}
	}
}

// WithInvalidateOnWrite controls whether successful writes drop the cached
// query results of the namespace. Enabled by default.
func WithInvalidateOnWrite(enabled bool) Option {
	return func(s *settings) {
		s.invalidateOnWrite = enabled
	}
}

// WithLogger sets the logger used for hit/miss and invalidation events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// CachedRepository decorates a base repository with read-through caching of
// List and Count results.
type CachedRepository[T repository.Entity] struct {
	base          repository.Repository[T]
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	settings      settings

	// keyRegistry tracks keys stored under the namespace for invalidation.
	keyRegistry *xsync.MapOf[string, struct{}]

	hits          *xsync.Counter
	misses        *xsync.Counter
	invalidations *xsync.Counter
	bypassed      *xsync.Counter
}

// New wraps base with caching. The namespace defaults to the pluralized
// snake_case name of T, so catalog.Item keys start with "items::".
func New[T repository.Entity](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository[T] {
	s := settings{
		namespace:         namespaceFor[T](),
		invalidateOnWrite: true,
		logger:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &CachedRepository[T]{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		settings:      s,
		keyRegistry:   xsync.NewMapOf[string, struct{}](),
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		invalidations: xsync.NewCounter(),
		bypassed:      xsync.NewCounter(),
	}
}

// Namespace returns the key prefix shared by every entry of this repository.
func (c *CachedRepository[T]) Namespace() string {
	return c.settings.namespace
}

// GetCached returns the records matching spec, serving a live cached result
// when one exists. On a miss the base repository runs once and its result is
// stored for one TTL. Base errors are returned unchanged and never stored.
func (c *CachedRepository[T]) GetCached(ctx context.Context, spec specification.Spec[T]) ([]T, error) {
	key, ok := c.cacheKey(ctx, methodList, spec)
	if !ok {
		return c.base.List(ctx, spec)
	}

	var fetched atomic.Bool
	records, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]T, error) {
		fetched.Store(true)
		return c.base.List(ctx, spec)
	})
	if err != nil {
		return nil, err
	}

	c.record(ctx, key, fetched.Load())
	return records, nil
}

// List implements repository.Repository through GetCached.
func (c *CachedRepository[T]) List(ctx context.Context, spec specification.Spec[T]) ([]T, error) {
	return c.GetCached(ctx, spec)
}

// Count returns the cached count for spec, fetching it on a miss.
func (c *CachedRepository[T]) Count(ctx context.Context, spec specification.Spec[T]) (int, error) {
	key, ok := c.cacheKey(ctx, methodCount, spec)
	if !ok {
		return c.base.Count(ctx, spec)
	}

	var fetched atomic.Bool
	total, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (int, error) {
		fetched.Store(true)
		return c.base.Count(ctx, spec)
	})
	if err != nil {
		return 0, err
	}

	c.record(ctx, key, fetched.Load())
	return total, nil
}

// GetByID reads through to the base repository; identity lookups are not cached.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	return c.base.GetByID(ctx, id)
}

// Add creates a record. Write operations pass through to base repository.
func (c *CachedRepository[T]) Add(ctx context.Context, record *T) (*T, error) {
	result, err := c.base.Add(ctx, record)
	if err == nil {
		c.afterWrite(ctx, "add")
	}
	return result, err
}

// Update updates a record.
func (c *CachedRepository[T]) Update(ctx context.Context, record *T) error {
	err := c.base.Update(ctx, record)
	if err == nil {
		c.afterWrite(ctx, "update")
	}
	return err
}

// Delete deletes a record.
func (c *CachedRepository[T]) Delete(ctx context.Context, record *T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.afterWrite(ctx, "delete")
	}
	return err
}

// Invalidate drops every tracked entry in the namespace and returns how many
// keys were removed.
func (c *CachedRepository[T]) Invalidate(ctx context.Context) (int, error) {
	return c.invalidateByPrefix(ctx, c.settings.namespace+cache.KeySeparator)
}

// Stats returns the current counters.
func (c *CachedRepository[T]) Stats() Stats {
	return Stats{
		Hits:          c.hits.Value(),
		Misses:        c.misses.Value(),
		Invalidations: c.invalidations.Value(),
		Bypassed:      c.bypassed.Value(),
		Tracked:       c.keyRegistry.Size(),
		Entries:       c.cache.Size(),
	}
}

// cacheKey builds and registers the key for method over spec. It reports
// false when the request must go straight to the base repository.
func (c *CachedRepository[T]) cacheKey(ctx context.Context, method string, spec specification.Spec[T]) (string, bool) {
	if cacheBypassed(ctx) {
		c.bypassed.Inc()
		return "", false
	}

	key, err := c.keySerializer.SerializeKey(c.settings.namespace+cache.KeySeparator+method, spec)
	if err != nil {
		c.bypassed.Inc()
		c.loggerFor(ctx).Warn().Err(err).Str("method", method).Msg("cache key unavailable, reading from store")
		return "", false
	}

	c.trackKey(key)
	return key, true
}

func (c *CachedRepository[T]) record(ctx context.Context, key string, fetched bool) {
	if fetched {
		c.misses.Inc()
	} else {
		c.hits.Inc()
	}
	c.loggerFor(ctx).Debug().Str("key", key).Bool("hit", !fetched).Msg("cache lookup")
}

func (c *CachedRepository[T]) afterWrite(ctx context.Context, op string) {
	if !c.settings.invalidateOnWrite {
		return
	}

	removed, err := c.Invalidate(ctx)
	logger := c.loggerFor(ctx)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("cache invalidation failed")
		return
	}
	logger.Debug().Str("op", op).Int("keys", removed).Msg("cache invalidated")
}

// trackKey registers a cache key in the key registry for later invalidation
func (c *CachedRepository[T]) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})
}

// invalidateByPrefix removes all cached keys that start with the given prefix
func (c *CachedRepository[T]) invalidateByPrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string
	c.keyRegistry.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})

	if len(keys) == 0 {
		return 0, nil
	}

	// keys stay tracked until the cache has dropped them, so a failed
	// invalidation is retried by the next write
	if err := c.cache.InvalidateKeys(ctx, keys); err != nil {
		return 0, err
	}
	for _, key := range keys {
		c.keyRegistry.Delete(key)
	}

	c.invalidations.Add(int64(len(keys)))
	return len(keys), nil
}

// loggerFor prefers the request scoped logger carried by ctx.
func (c *CachedRepository[T]) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.settings.logger
}

func namespaceFor[T any]() string {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	if name == "" {
		return "records"
	}
	return pluralSnake(name)
}
