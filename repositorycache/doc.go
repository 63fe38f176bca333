// Package repositorycache provides a read-through caching decorator for
// repository.Repository.
//
// # Overview
//
// CachedRepository wraps a base repository and serves List and Count from a
// cache.CacheService. Keys are built from the repository namespace, the
// method and the structural key of the specification:
//
//	items::list::name:contains:"phone"::skip:0::take:10::order:name:asc
//	items::count::all::skip:0::take:0::order:none
//
// # Basic Usage
//
//	base := repository.NewBunRepository[catalog.Item](db)
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//
//	cached := repositorycache.New[catalog.Item](base, svc, cache.NewDefaultKeySerializer(),
//		repositorycache.WithLogger(logger),
//	)
//
//	items, err := cached.GetCached(ctx, spec)
//
// # Cached vs Pass-through Operations
//
// Cached: GetCached, List, Count.
//
// Pass-through: GetByID, Add, Update, Delete. A successful write drops every
// key the decorator registered in its namespace unless the decorator was
// built with WithInvalidateOnWrite(false), in which case cached results age
// out after their TTL.
//
// A context produced by WithoutCache reads straight from the base repository.
// The same happens when the key serializer rejects the arguments.
//
// # Consistency
//
// A live entry is returned without consulting the base repository. A read
// that races a write can store the pre-write result; that entry is served
// until the next write or until its TTL passes. Errors from the base
// repository are returned unchanged and never stored.
package repositorycache
