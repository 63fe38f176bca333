package di

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/config"
	"github.com/goliatone/go-catalog-cache/specification"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Addr:            ":0",
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			DSN:          ":memory:",
			MaxOpenConns: 1,
			Migrate:      true,
		},
		Cache: config.CacheConfig{
			Capacity:           1000,
			NumShards:          16,
			EvictionPercentage: 10,
			InvalidateOnWrite:  true,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestContainer(t *testing.T, cfg config.Config, opts ...Option) *Container {
	t.Helper()

	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	container, err := NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig()
	container := newTestContainer(t, cfg)

	if container.CacheService() == nil {
		t.Error("Container should have a non-nil cache service")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Items() == nil {
		t.Error("Container should have a cached item repository")
	}
	if container.Items().Namespace() != "items" {
		t.Errorf("expected items namespace, got %q", container.Items().Namespace())
	}

	stored := container.Config()
	if stored.Cache.Capacity != cfg.Cache.Capacity {
		t.Errorf("Expected capacity %d, got %d", cfg.Cache.Capacity, stored.Cache.Capacity)
	}

	if err := container.DB().PingContext(context.Background()); err != nil {
		t.Errorf("expected store to be reachable: %v", err)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := map[string]func(*config.Config){
		"zero capacity":      func(c *config.Config) { c.Cache.Capacity = 0 },
		"unsupported driver": func(c *config.Config) { c.Database.Driver = "mysql" },
		"empty dsn":          func(c *config.Config) { c.Database.DSN = "" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)

			if _, err := NewContainer(context.Background(), cfg, WithLogger(zerolog.Nop())); err == nil {
				t.Error("NewContainer() should fail with invalid config")
			}
		})
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newTestContainer(t, testConfig())

	if container.CacheService() != container.CacheService() {
		t.Error("CacheService() should return the same instance (singleton behavior)")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance (singleton behavior)")
	}
	if container.Items() != container.Items() {
		t.Error("Items() should return the same instance (singleton behavior)")
	}
}

func TestCachedItemsEndToEnd(t *testing.T) {
	clock := sturdyc.NewTestClock(time.Now())
	container := newTestContainer(t, testConfig(), WithClock(clock))
	items := container.Items()
	ctx := context.Background()

	for _, name := range []string{"Phone", "Laptop"} {
		it := catalog.Item{Name: name, Price: decimal.NewFromInt(10)}
		if _, err := items.Add(ctx, &it); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}

	spec, err := catalog.NewListSpec(catalog.DefaultListParams())
	if err != nil {
		t.Fatalf("NewListSpec() failed: %v", err)
	}

	first, err := items.GetCached(ctx, spec)
	if err != nil {
		t.Fatalf("GetCached() failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first))
	}

	// a row written behind the decorator's back stays invisible until the TTL passes
	if _, err := container.DB().NewInsert().Model(&catalog.Item{Name: "Cable", Price: decimal.NewFromInt(1)}).Exec(ctx); err != nil {
		t.Fatalf("direct insert failed: %v", err)
	}

	clock.Add(cache.DefaultTTL - time.Second)
	cached, _ := items.GetCached(ctx, spec)
	if len(cached) != 2 {
		t.Errorf("expected cached result of 2 items before TTL, got %d", len(cached))
	}

	clock.Add(2 * time.Second)
	fresh, _ := items.GetCached(ctx, spec)
	if len(fresh) != 3 {
		t.Errorf("expected fresh result of 3 items after TTL, got %d", len(fresh))
	}

	stats := items.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("expected 1 hit and 2 misses, got %+v", stats)
	}
}

func TestNewCachedRepository_SharesCache(t *testing.T) {
	container := newTestContainer(t, testConfig())
	ctx := context.Background()

	base := container.Items()
	other := NewCachedRepository[catalog.Item](container, base)

	spec, _ := specification.New[catalog.Item](specification.Paginate(1, 5))
	if _, err := other.GetCached(ctx, spec); err != nil {
		t.Fatalf("GetCached() failed: %v", err)
	}

	// both decorators derive the same "items" keys over one cache service
	if _, err := base.GetCached(ctx, spec); err != nil {
		t.Fatalf("GetCached() failed: %v", err)
	}
	if got := base.Stats(); got.Hits != 1 || got.Misses != 0 {
		t.Errorf("expected the second decorator to hit the shared entry, got %+v", got)
	}
}

func TestContainerHandler(t *testing.T) {
	container := newTestContainer(t, testConfig())
	handler := container.Handler()

	body, _ := json.Marshal(map[string]any{"name": "Phone", "price": "10"})
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items?search=PHO", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Phone"`) {
		t.Errorf("expected Phone in list, got %s", rec.Body.String())
	}

	srv := container.Server()
	if srv.Addr != ":0" || srv.Handler == nil {
		t.Errorf("unexpected server configuration: addr=%q", srv.Addr)
	}
}
