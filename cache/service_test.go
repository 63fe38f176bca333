package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-catalog-cache/internal/cacheinfra"
)

var _ CacheService = (*cacheinfra.SturdycService)(nil)

// mockCacheService returns a canned result for GetOrFetch.
type mockCacheService struct {
	result any
	err    error
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *mockCacheService) InvalidateKeys(ctx context.Context, keys []string) error {
	return nil
}

func (m *mockCacheService) Size() int {
	return 0
}

func TestGetOrFetch_NilInterfaceResult(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type Named interface {
		Name() string
	}

	result, err := GetOrFetch[Named](context.Background(), mock, "test-key", func(ctx context.Context) (Named, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointer(t *testing.T) {
	mock := &mockCacheService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "test-key", func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}

	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	mock := &mockCacheService{result: 7, err: boom}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", func(ctx context.Context) (int, error) {
		return 7, nil
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected boom but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value on error but got: %v", result)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	expected := []string{"a", "b"}
	mock := &mockCacheService{result: expected}

	result, err := GetOrFetch[[]string](context.Background(), mock, "test-key", func(ctx context.Context) ([]string, error) {
		return expected, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if len(result) != 2 || result[0] != "a" || result[1] != "b" {
		t.Errorf("expected %v but got: %v", expected, result)
	}
}

func TestNewCacheService_RoundTrip(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return 99, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrFetch(ctx, svc, "n", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 99 {
			t.Errorf("expected 99, got %d", got)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Capacity != 10000 || cfg.NumShards != 256 {
		t.Errorf("unexpected default sizing: %+v", cfg)
	}
	if got := cfg.internal().TTL; got != DefaultTTL {
		t.Errorf("expected TTL %v, got %v", DefaultTTL, got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}
