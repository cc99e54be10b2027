package storecache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/cache"
	"github.com/buzzbrief/buzzbrief/store"
	"github.com/buzzbrief/buzzbrief/storecache"
)

// countingReader is a hand-rolled ArticleReader that counts hits per method
// invocation, so tests can tell a cache hit from a pass-through.
type countingReader struct {
	mu    sync.Mutex
	calls map[string]int

	failByID bool
}

func newCountingReader() *countingReader {
	return &countingReader{calls: make(map[string]int)}
}

func (r *countingReader) record(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[key]++
	return r.calls[key]
}

func (r *countingReader) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

func (r *countingReader) ByID(ctx context.Context, id int64) (store.Article, error) {
	r.record(fmt.Sprintf("ByID:%d", id))
	if r.failByID {
		return store.Article{}, fmt.Errorf("%w: article %d", apperr.ErrNotFound, id)
	}
	return store.Article{ID: id, Title: fmt.Sprintf("Article %d", id)}, nil
}

func (r *countingReader) ByDate(ctx context.Context, month, day, year int) ([]store.Article, error) {
	r.record(fmt.Sprintf("ByDate:%d-%d-%d", year, month, day))
	return []store.Article{{ID: 1, PublishedAt: time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)}}, nil
}

func (r *countingReader) ByCategory(ctx context.Context, category string) ([]store.Article, error) {
	r.record("ByCategory:" + category)
	return []store.Article{{ID: 1, Category: category}}, nil
}

func (r *countingReader) ListPage(ctx context.Context, offset, limit int) ([]store.Article, bool, error) {
	n := r.record(fmt.Sprintf("ListPage:%d:%d", offset, limit))
	// Vary the payload per underlying call so a re-fetch is observable.
	return []store.Article{{ID: int64(n)}}, true, nil
}

func newCached(t *testing.T, base store.ArticleReader) *storecache.CachedArticles {
	t.Helper()
	svc, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to build cache service: %v", err)
	}
	return storecache.New(base, svc, cache.NewDefaultKeySerializer())
}

func TestByID_SecondReadIsCached(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	first, err := cached.ByID(ctx, 7)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	second, err := cached.ByID(ctx, 7)
	if err != nil {
		t.Fatalf("cached ByID failed: %v", err)
	}
	if first.Title != second.Title {
		t.Errorf("cached read diverged: %q vs %q", first.Title, second.Title)
	}
	if got := base.count("ByID:7"); got != 1 {
		t.Errorf("base reader hit %d times, want 1", got)
	}
}

func TestByID_DistinctIDsDistinctEntries(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	if _, err := cached.ByID(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.ByID(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if got := base.count("ByID:1") + base.count("ByID:2"); got != 2 {
		t.Errorf("base reader hit %d times for two distinct ids, want 2", got)
	}
}

func TestByID_MissingArticleRemembered(t *testing.T) {
	base := newCountingReader()
	base.failByID = true
	cached := newCached(t, base)
	ctx := context.Background()

	// Not-found survives the cache boundary, and with missing-record
	// storage on by default the absence itself is cached.
	for i := 0; i < 2; i++ {
		if _, err := cached.ByID(ctx, 7); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("lookup %d: error = %v, want ErrNotFound", i, err)
		}
	}
	if got := base.count("ByID:7"); got != 1 {
		t.Errorf("base reader hit %d times for a missing article, want 1", got)
	}
}

func TestByDateAndCategory_Cached(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cached.ByDate(ctx, 3, 10, 2025); err != nil {
			t.Fatalf("ByDate failed: %v", err)
		}
		if _, err := cached.ByCategory(ctx, "tech"); err != nil {
			t.Fatalf("ByCategory failed: %v", err)
		}
	}
	if got := base.count("ByDate:2025-3-10"); got != 1 {
		t.Errorf("ByDate base hits = %d, want 1", got)
	}
	if got := base.count("ByCategory:tech"); got != 1 {
		t.Errorf("ByCategory base hits = %d, want 1", got)
	}
}

func TestListPage_TupleCachedAsUnit(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	records, hasMore, err := cached.ListPage(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if !hasMore {
		t.Error("hasMore lost through the cache")
	}
	again, _, err := cached.ListPage(ctx, 0, 10)
	if err != nil {
		t.Fatalf("cached ListPage failed: %v", err)
	}
	if records[0].ID != again[0].ID {
		t.Errorf("cached page re-fetched: first saw id %d, second id %d", records[0].ID, again[0].ID)
	}
	if got := base.count("ListPage:0:10"); got != 1 {
		t.Errorf("base reader hit %d times, want 1", got)
	}

	// A different window is a different entry.
	if _, _, err := cached.ListPage(ctx, 10, 10); err != nil {
		t.Fatalf("ListPage second window failed: %v", err)
	}
	if got := base.count("ListPage:10:10"); got != 1 {
		t.Errorf("second window base hits = %d, want 1", got)
	}
}

func TestInvalidateArticle(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	if _, err := cached.ByID(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cached.ListPage(ctx, 0, 10); err != nil {
		t.Fatal(err)
	}

	if err := cached.InvalidateArticle(ctx, 7); err != nil {
		t.Fatalf("InvalidateArticle failed: %v", err)
	}

	// Both the article and the listing page must be re-fetched.
	if _, err := cached.ByID(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cached.ListPage(ctx, 0, 10); err != nil {
		t.Fatal(err)
	}
	if got := base.count("ByID:7"); got != 2 {
		t.Errorf("ByID base hits after invalidation = %d, want 2", got)
	}
	if got := base.count("ListPage:0:10"); got != 2 {
		t.Errorf("ListPage base hits after invalidation = %d, want 2", got)
	}
}

func TestInvalidateAll(t *testing.T) {
	base := newCountingReader()
	cached := newCached(t, base)
	ctx := context.Background()

	if _, err := cached.ByID(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.ByCategory(ctx, "tech"); err != nil {
		t.Fatal(err)
	}

	if err := cached.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	if _, err := cached.ByID(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.ByCategory(ctx, "tech"); err != nil {
		t.Fatal(err)
	}
	if got := base.count("ByID:1"); got != 2 {
		t.Errorf("ByID base hits = %d, want 2", got)
	}
	if got := base.count("ByCategory:tech"); got != 2 {
		t.Errorf("ByCategory base hits = %d, want 2", got)
	}
}
