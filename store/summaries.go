package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// SummaryStore persists derived summaries. Methods take a bun.IDB so the
// caller decides the connection scope; the summary request path holds a
// single pooled connection across its lookup and write.
type SummaryStore struct{}

// NewSummaryStore returns a SummaryStore.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{}
}

// ByArticle returns the stored summary for an article, or ErrNotFound.
// The join guarantees a summary is only reported for a still-existing
// article.
func (s *SummaryStore) ByArticle(ctx context.Context, idb bun.IDB, articleID int64) (Summary, error) {
	var sum Summary
	err := idb.NewSelect().
		Model(&sum).
		Join("JOIN articles AS a ON a.id = s.article_id").
		Where("s.article_id = ?", articleID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("%w: summary for article %d", apperr.ErrNotFound, articleID)
		}
		return Summary{}, fmt.Errorf("fetch summary for article %d: %w", articleID, err)
	}
	return sum, nil
}

// ArticleContent loads the full content for an article, or ErrNotFound.
func (s *SummaryStore) ArticleContent(ctx context.Context, idb bun.IDB, articleID int64) (string, error) {
	var a Article
	err := idb.NewSelect().
		Model(&a).
		Column("content").
		Where("id = ?", articleID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: article %d", apperr.ErrNotFound, articleID)
		}
		return "", fmt.Errorf("fetch content for article %d: %w", articleID, err)
	}
	return a.Content, nil
}

// Upsert stores a summary keyed on article_id. The store-level uniqueness
// constraint is the concurrency control: two racing first-requests both
// succeed and the last writer's text wins, with no uniqueness violation
// reaching the caller.
func (s *SummaryStore) Upsert(ctx context.Context, idb bun.IDB, articleID int64, text string) error {
	sum := &Summary{ArticleID: articleID, Summary: text}
	_, err := idb.NewInsert().
		Model(sum).
		On("CONFLICT (article_id) DO UPDATE").
		Set("summary = EXCLUDED.summary").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert summary for article %d: %w", articleID, err)
	}
	return nil
}
