package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/pkg/testsupport"
	"github.com/buzzbrief/buzzbrief/store"
)

func TestSummaryStore_UpsertThenRead(t *testing.T) {
	db := testsupport.NewBunDB(t)
	testsupport.SeedArticles(t, db, testsupport.MakeArticles(1, seedBase))
	s := store.NewSummaryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, db, 1, "first pass"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	sum, err := s.ByArticle(ctx, db, 1)
	if err != nil {
		t.Fatalf("ByArticle failed: %v", err)
	}
	if sum.Summary != "first pass" {
		t.Errorf("summary = %q, want %q", sum.Summary, "first pass")
	}
}

func TestSummaryStore_UpsertOverwritesInPlace(t *testing.T) {
	db := testsupport.NewBunDB(t)
	testsupport.SeedArticles(t, db, testsupport.MakeArticles(1, seedBase))
	s := store.NewSummaryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, db, 1, "first pass"); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	// A second upsert for the same article must update, not raise a
	// uniqueness violation or duplicate the row.
	if err := s.Upsert(ctx, db, 1, "second pass"); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	count, err := db.NewSelect().Model((*store.Summary)(nil)).Where("article_id = ?", 1).Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("found %d summary rows for article 1, want exactly 1", count)
	}

	sum, err := s.ByArticle(ctx, db, 1)
	if err != nil {
		t.Fatalf("ByArticle failed: %v", err)
	}
	if sum.Summary != "second pass" {
		t.Errorf("summary = %q, want last writer's %q", sum.Summary, "second pass")
	}
}

func TestSummaryStore_ByArticle_NotFound(t *testing.T) {
	db := testsupport.NewBunDB(t)
	testsupport.SeedArticles(t, db, testsupport.MakeArticles(1, seedBase))
	s := store.NewSummaryStore()

	_, err := s.ByArticle(context.Background(), db, 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ByArticle with no summary: error = %v, want ErrNotFound", err)
	}
}

func TestSummaryStore_ArticleContent(t *testing.T) {
	db := testsupport.NewBunDB(t)
	testsupport.SeedArticles(t, db, testsupport.MakeArticles(1, seedBase))
	s := store.NewSummaryStore()
	ctx := context.Background()

	content, err := s.ArticleContent(ctx, db, 1)
	if err != nil {
		t.Fatalf("ArticleContent failed: %v", err)
	}
	if content != "Body of article number 1" {
		t.Errorf("content = %q", content)
	}

	if _, err := s.ArticleContent(ctx, db, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ArticleContent(99) error = %v, want ErrNotFound", err)
	}
}
