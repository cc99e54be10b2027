package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/pool"
)

// ByDateLimit caps date-filtered listings, matching the homepage feed.
const ByDateLimit = 20

// ArticleReader is the read-only surface the HTTP layer and the caching
// decorator consume.
type ArticleReader interface {
	ByID(ctx context.Context, id int64) (Article, error)
	ByDate(ctx context.Context, month, day, year int) ([]Article, error)
	ByCategory(ctx context.Context, category string) ([]Article, error)
	ListPage(ctx context.Context, offset, limit int) ([]Article, bool, error)
}

// ArticleStore reads article rows through the shared pool. Every method
// acquires a connection for the duration of the call and releases it on all
// exit paths.
type ArticleStore struct {
	pool *pool.Pool
}

var _ ArticleReader = (*ArticleStore)(nil)

// NewArticleStore returns a store backed by the given pool.
func NewArticleStore(p *pool.Pool) *ArticleStore {
	return &ArticleStore{pool: p}
}

// ByID fetches a single article, or ErrNotFound.
func (s *ArticleStore) ByID(ctx context.Context, id int64) (Article, error) {
	var a Article
	err := s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		return idb.NewSelect().
			Model(&a).
			Where("id = ?", id).
			Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Article{}, fmt.Errorf("%w: article %d", apperr.ErrNotFound, id)
		}
		return Article{}, fmt.Errorf("fetch article %d: %w", id, err)
	}
	return a, nil
}

// ByDate returns up to ByDateLimit articles published on the given calendar
// day (UTC), newest first. The day filter is a half-open range scan on
// published_at rather than per-part date extraction.
func (s *ArticleStore) ByDate(ctx context.Context, month, day, year int) ([]Article, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var articles []Article
	err := s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		return idb.NewSelect().
			Model(&articles).
			Where("published_at >= ?", start).
			Where("published_at < ?", end).
			OrderExpr("published_at DESC").
			Limit(ByDateLimit).
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch articles for %04d-%02d-%02d: %w", year, month, day, err)
	}
	return articles, nil
}

// ByCategory returns every article in a category, in store order.
func (s *ArticleStore) ByCategory(ctx context.Context, category string) ([]Article, error) {
	var articles []Article
	err := s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		return idb.NewSelect().
			Model(&articles).
			Where("category = ?", category).
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch articles for category %q: %w", category, err)
	}
	return articles, nil
}

// ListPage returns one page of articles ordered by publication time
// descending, plus whether more pages exist.
//
// hasMore comes from a separate full-table count performed after the listing
// read, with no shared snapshot. A concurrent insert or delete between the
// two reads can make it stale for one render; that looseness is accepted for
// the homepage feed.
func (s *ArticleStore) ListPage(ctx context.Context, offset, limit int) ([]Article, bool, error) {
	var articles []Article
	var total int

	err := s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		if err := idb.NewSelect().
			Model(&articles).
			OrderExpr("published_at DESC").
			Offset(offset).
			Limit(limit).
			Scan(ctx); err != nil {
			return err
		}

		n, err := idb.NewSelect().Model((*Article)(nil)).Count(ctx)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("list articles (offset=%d limit=%d): %w", offset, limit, err)
	}

	return articles, (offset + limit) < total, nil
}
