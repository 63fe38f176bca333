package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viccon/sturdyc"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.NumShards = 2
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if cfg.Clock != nil {
		t.Error("expected the wall clock by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		errorMsg string
	}{
		{name: "valid default config", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, field: "Capacity", errorMsg: "must be greater than 0"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, field: "NumShards", errorMsg: "must be greater than 0"},
		{name: "more shards than capacity", mutate: func(c *Config) { c.NumShards = c.Capacity + 1 }, field: "NumShards", errorMsg: "must not exceed Capacity"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, field: "TTL", errorMsg: "must be longer than 1ns"},
		{name: "one nanosecond ttl", mutate: func(c *Config) { c.TTL = time.Nanosecond }, field: "TTL", errorMsg: "must be longer than 1ns"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, field: "EvictionPercentage", errorMsg: "must be between 1 and 100"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, field: "EvictionPercentage", errorMsg: "must be between 1 and 100"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, field: "EvictionInterval", errorMsg: "must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
			if !strings.Contains(cfgErr.Message, tt.errorMsg) {
				t.Errorf("expected message containing %q, got %q", tt.errorMsg, cfgErr.Message)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options for default config, got %d", got)
	}

	cfg.EvictionInterval = time.Minute
	cfg.Clock = sturdyc.NewTestClock(time.Now())

	if got := len(cfg.ToSturdycOptions()); got != 2 {
		t.Errorf("expected 2 options, got %d", got)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	want := "config error in field TTL: must be greater than 0"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = 0

	if _, err := NewSturdycService(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the first result", func(t *testing.T) {
		svc, err := NewSturdycService(testConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var calls int32
		fetch := func(ctx context.Context) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "value", nil
		}

		for i := 0; i < 3; i++ {
			got, err := svc.GetOrFetch(ctx, "k", fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "value" {
				t.Errorf("expected value, got %v", got)
			}
		}

		if calls != 1 {
			t.Errorf("expected 1 fetch, got %d", calls)
		}
	})

	t.Run("does not store failed fetches", func(t *testing.T) {
		svc, _ := NewSturdycService(testConfig())
		boom := errors.New("boom")

		var calls int32
		fetch := func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, boom
		}

		for i := 0; i < 2; i++ {
			if _, err := svc.GetOrFetch(ctx, "k", fetch); !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
		}

		if calls != 2 {
			t.Errorf("expected 2 fetches, got %d", calls)
		}
		if svc.Size() != 0 {
			t.Errorf("expected empty cache, got %d entries", svc.Size())
		}
	})

	t.Run("rejects malformed fetch functions", func(t *testing.T) {
		svc, _ := NewSturdycService(testConfig())

		invalid := []any{
			nil,
			"not a function",
			func() (int, error) { return 0, nil },
			func(ctx context.Context) int { return 0 },
			func(s string) (int, error) { return 0, nil },
			func(ctx context.Context) (int, string) { return 0, "" },
		}

		for i, fn := range invalid {
			if _, err := svc.GetOrFetch(ctx, "k", fn); err == nil {
				t.Errorf("case %d: expected validation error", i)
			}
		}
	})

	t.Run("typed nil pointers are cached", func(t *testing.T) {
		svc, _ := NewSturdycService(testConfig())

		var calls int32
		fetch := func(ctx context.Context) (*int, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		}

		for i := 0; i < 2; i++ {
			got, err := svc.GetOrFetch(ctx, "absent", fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p, ok := got.(*int); !ok || p != nil {
				t.Fatalf("expected typed nil pointer, got %#v", got)
			}
		}

		if calls != 1 {
			t.Errorf("expected 1 fetch, got %d", calls)
		}
	})
}

func TestSturdycService_ConcurrentFetchIsShared(t *testing.T) {
	svc, _ := NewSturdycService(testConfig())

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const callers = 10
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)

	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], _ = svc.GetOrFetch(context.Background(), "hot", fetch)
		}(i)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	if calls != 1 {
		t.Errorf("expected a single fetch, got %d", calls)
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("caller %d got %v", i, r)
		}
	}
}

func TestSturdycService_TTL(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		wantCalls int32
	}{
		{name: "one second before expiry", elapsed: 5*time.Minute - time.Second, wantCalls: 1},
		{name: "one nanosecond before expiry", elapsed: 5*time.Minute - time.Nanosecond, wantCalls: 1},
		{name: "exactly at expiry", elapsed: 5 * time.Minute, wantCalls: 2},
		{name: "after expiry", elapsed: 5*time.Minute + time.Second, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := sturdyc.NewTestClock(time.Now())
			cfg := testConfig()
			cfg.Clock = clock

			svc, err := NewSturdycService(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var calls int32
			fetch := func(ctx context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			}

			if _, err := svc.GetOrFetch(context.Background(), "k", fetch); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			clock.Add(tt.elapsed)
			v, err := svc.GetOrFetch(context.Background(), "k", fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != 42 {
				t.Errorf("expected 42, got %v", v)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("expected %d fetches after %v, got %d", tt.wantCalls, tt.elapsed, got)
			}
		})
	}
}

func TestSturdycService_InvalidateKeys(t *testing.T) {
	ctx := context.Background()
	svc, _ := NewSturdycService(testConfig())

	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	for _, k := range []string{"a", "b", "c"} {
		if _, err := svc.GetOrFetch(ctx, k, fetch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if svc.Size() != 3 {
		t.Fatalf("expected 3 entries, got %d", svc.Size())
	}

	if err := svc.InvalidateKeys(ctx, []string{"a", "b", "missing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Size() != 1 {
		t.Errorf("expected 1 entry left, got %d", svc.Size())
	}

	if _, err := svc.GetOrFetch(ctx, "a", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetOrFetch(ctx, "c", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("expected only the invalidated key to be fetched again, got %d fetches", got)
	}
}
