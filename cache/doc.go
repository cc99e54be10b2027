// Package cache provides the read-through caching interfaces and key
// serialization used by the article-read decorator.
//
// CacheService is the untyped cache boundary; GetOrFetch restores type
// safety with generics. KeySerializer turns a method name and its arguments
// into a stable string key, so that identical reads map to one cache entry:
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("ByID", 42)
//	article, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (store.Article, error) {
//		return articles.ByID(ctx, 42)
//	})
//
// Keys are built from method-name prefixes, which is also what the decorator
// relies on for prefix invalidation. The default implementation backing
// CacheService lives in internal/cacheinfra and wraps sturdyc.
package cache
