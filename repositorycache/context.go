package repositorycache

import "context"

type bypassContextKey struct{}

// WithoutCache marks ctx so reads skip the cache and go to the base
// repository. Results fetched this way are not stored.
func WithoutCache(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassContextKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(bypassContextKey{}).(bool)
	return bypass
}
