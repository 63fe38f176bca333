// Package cache provides the read-through cache used in front of the catalog
// repository, together with key serialization for query arguments.
//
// # Overview
//
//   - CacheService: get-or-fetch, set and invalidation over string keys
//   - KeySerializer: builds stable keys from a method name and arguments
//   - GetOrFetch: the type-safe generic wrapper over CacheService
//
// Entries live for DefaultTTL. Once it has passed an entry reads as absent
// and the next request fetches again.
// Concurrent requests for a key that is not yet cached share one fetch.
// Fetches that fail are never stored.
//
// # Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	key, err := cache.NewDefaultKeySerializer().SerializeKey("list", spec)
//	if err != nil {
//		return err
//	}
//
//	items, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) ([]Item, error) {
//		return repo.List(ctx, spec)
//	})
//
// # Keys
//
// Arguments that implement Keyer contribute their own CacheKey. Basic values
// are printed, slices and arrays are serialized element by element and maps or
// structs fall back to JSON with sorted map keys. Funcs and channels have no
// structural form, so SerializeKey returns ErrUnserializableKey for them
// instead of keying on their address. The full key is lower-cased.
package cache
