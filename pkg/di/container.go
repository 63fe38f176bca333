package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/config"
	"github.com/goliatone/go-catalog-cache/internal/httpapi"
	"github.com/goliatone/go-catalog-cache/internal/logging"
	"github.com/goliatone/go-catalog-cache/internal/storage"
	"github.com/goliatone/go-catalog-cache/repository"
	"github.com/goliatone/go-catalog-cache/repositorycache"
)

// Container owns the process-wide components: logger, store, cache and the
// cached item repository, and builds the HTTP handler on top of them.
type Container struct {
	config        config.Config
	logger        zerolog.Logger
	db            *bun.DB
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	items         *repositorycache.CachedRepository[catalog.Item]
}

type containerOptions struct {
	logger *zerolog.Logger
	clock  cache.Clock
}

// Option customizes NewContainer.
type Option func(*containerOptions)

// WithLogger replaces the logger built from the logging section.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *containerOptions) {
		o.logger = &logger
	}
}

// WithClock sets the time source of the query cache.
func WithClock(clock cache.Clock) Option {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// NewContainer wires config -> logger -> store -> repository -> cache ->
// cached repository. The store is closed again if a later step fails.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var logger zerolog.Logger
	if o.logger != nil {
		logger = *o.logger
	} else {
		l, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	db, err := storage.Open(ctx, storage.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Migrate:         cfg.Database.Migrate,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Capacity = cfg.Cache.Capacity
	cacheCfg.NumShards = cfg.Cache.NumShards
	cacheCfg.EvictionPercentage = cfg.Cache.EvictionPercentage
	cacheCfg.Clock = o.clock

	cacheService, err := cache.NewCacheService(cacheCfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}

	c := &Container{
		config:        cfg,
		logger:        logger,
		db:            db,
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
	}

	c.items = NewCachedRepository[catalog.Item](c, repository.NewBunRepository[catalog.Item](db),
		repositorycache.WithInvalidateOnWrite(cfg.Cache.InvalidateOnWrite),
	)

	logger.Info().
		Int("cache_capacity", cacheCfg.Capacity).
		Dur("cache_ttl", cache.DefaultTTL).
		Bool("invalidate_on_write", cfg.Cache.InvalidateOnWrite).
		Msg("container ready")

	return c, nil
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the root logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// DB returns the store handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Items returns the cached item repository.
func (c *Container) Items() *repositorycache.CachedRepository[catalog.Item] {
	return c.items
}

// Handler builds the HTTP handler over the cached item repository.
func (c *Container) Handler() http.Handler {
	return httpapi.NewHandler(httpapi.Options{
		Items:          c.items,
		Stats:          c.items,
		Health:         c.db,
		Logger:         c.logger,
		RequestLogging: c.config.Server.RequestLogging,
	})
}

// Server returns an http.Server configured from the server section.
func (c *Container) Server() *http.Server {
	return &http.Server{
		Addr:         c.config.Server.Addr,
		Handler:      c.Handler(),
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
	}
}

// Close releases the store.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// NewCachedRepository wraps base with the container's cache service, key
// serializer and logger.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[catalog.Item](container, base)
func NewCachedRepository[T repository.Entity](c *Container, base repository.Repository[T], opts ...repositorycache.Option) *repositorycache.CachedRepository[T] {
	opts = append([]repositorycache.Option{repositorycache.WithLogger(c.logger)}, opts...)
	return repositorycache.New[T](base, c.cacheService, c.keySerializer, opts...)
}
