// Package storecache decorates the article reader with an in-process
// read-through cache. Article rows are immutable once ingested, so cached
// reads only ever go stale when the external ingestion process adds rows;
// the short TTL plus the explicit invalidation hooks cover that.
package storecache

import (
	"context"
	"strings"
	"sync"

	"github.com/buzzbrief/buzzbrief/cache"
	"github.com/buzzbrief/buzzbrief/store"
)

// pageResult wraps the tuple result of ListPage for caching.
type pageResult struct {
	Records []store.Article `json:"records"`
	HasMore bool            `json:"has_more"`
}

// CachedArticles decorates a base article reader with caching.
type CachedArticles struct {
	base          store.ArticleReader
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *sync.Map // active cache keys, for prefix invalidation
}

var _ store.ArticleReader = (*CachedArticles)(nil)

// New wraps base with the given cache service and key serializer.
func New(base store.ArticleReader, cacheService cache.CacheService, keySerializer cache.KeySerializer) *CachedArticles {
	return &CachedArticles{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		keyRegistry:   &sync.Map{},
	}
}

// ByID retrieves a single article, with caching.
func (c *CachedArticles) ByID(ctx context.Context, id int64) (store.Article, error) {
	key := c.keySerializer.SerializeKey("ByID", id)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (store.Article, error) {
		return c.base.ByID(ctx, id)
	})
}

// ByDate retrieves one day's articles, with caching.
func (c *CachedArticles) ByDate(ctx context.Context, month, day, year int) ([]store.Article, error) {
	key := c.keySerializer.SerializeKey("ByDate", month, day, year)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]store.Article, error) {
		return c.base.ByDate(ctx, month, day, year)
	})
}

// ByCategory retrieves a category's articles, with caching.
func (c *CachedArticles) ByCategory(ctx context.Context, category string) ([]store.Article, error) {
	key := c.keySerializer.SerializeKey("ByCategory", category)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]store.Article, error) {
		return c.base.ByCategory(ctx, category)
	})
}

// ListPage retrieves one listing page, with caching. The page and its
// hasMore flag are cached as one unit so they stay mutually consistent for
// the cache lifetime.
func (c *CachedArticles) ListPage(ctx context.Context, offset, limit int) ([]store.Article, bool, error) {
	key := c.keySerializer.SerializeKey("ListPage", offset, limit)
	c.trackKey(key)
	res, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (pageResult, error) {
		records, hasMore, err := c.base.ListPage(ctx, offset, limit)
		return pageResult{Records: records, HasMore: hasMore}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.Records, res.HasMore, nil
}

// InvalidateArticle drops cached reads for one article. Listing pages are
// dropped too: a newly ingested or re-ingested article shifts pagination.
func (c *CachedArticles) InvalidateArticle(ctx context.Context, id int64) error {
	if err := c.invalidateByPrefix(ctx, c.keySerializer.SerializeKey("ByID", id)); err != nil {
		return err
	}
	return c.invalidateListings(ctx)
}

// InvalidateAll drops every tracked key. Operational hook for bulk
// re-ingestion.
func (c *CachedArticles) InvalidateAll(ctx context.Context) error {
	return c.invalidateByPrefix(ctx, "")
}

func (c *CachedArticles) invalidateListings(ctx context.Context) error {
	for _, prefix := range []string{"ListPage", "ByDate", "ByCategory"} {
		if err := c.invalidateByPrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

func (c *CachedArticles) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})
}

func (c *CachedArticles) invalidateByPrefix(ctx context.Context, prefix string) error {
	var keys []string
	c.keyRegistry.Range(func(k, _ any) bool {
		if key, ok := k.(string); ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})

	for _, key := range keys {
		if err := c.cache.Delete(ctx, key); err != nil {
			return err
		}
		c.keyRegistry.Delete(key)
	}
	return nil
}
