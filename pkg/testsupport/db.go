// Package testsupport builds throwaway sqlite-backed databases that exercise
// the same bun query paths the Postgres deployment uses.
package testsupport

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/buzzbrief/buzzbrief/pool"
	"github.com/buzzbrief/buzzbrief/store"
)

// Logger returns a quiet logger for tests.
func Logger() *log.Logger {
	return log.New(io.Discard)
}

// OpenDB opens a file-backed sqlite database under the test's temp dir.
// File-backed (not :memory:) so multiple pooled connections see one
// database, with WAL and a busy timeout so concurrent writers queue instead
// of failing.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })
	return sqldb
}

// NewBunDB opens a test database, wraps it in bun, and creates the schema.
func NewBunDB(t *testing.T) *bun.DB {
	t.Helper()

	db := bun.NewDB(OpenDB(t), sqlitedialect.New())
	CreateSchema(t, db)
	return db
}

// NewPool opens a test database with the schema in place and builds a pool
// over it, so tests run the real acquire/release discipline. The returned
// bun.DB shares the pool's underlying database and is handy for seeding and
// assertions outside the pool.
func NewPool(t *testing.T, cfg pool.Config) (*pool.Pool, *bun.DB) {
	t.Helper()

	sqldb := OpenDB(t)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	CreateSchema(t, db)

	p, err := pool.NewWithDB(context.Background(), sqldb, sqlitedialect.New(), cfg, Logger())
	if err != nil {
		t.Fatalf("failed to build test pool: %v", err)
	}
	return p, db
}

// CreateSchema creates the three relations the service owns or reads.
func CreateSchema(t *testing.T, idb bun.IDB) {
	t.Helper()

	ctx := context.Background()
	for _, model := range []any{
		(*store.Article)(nil),
		(*store.Summary)(nil),
		(*store.AudioRequest)(nil),
	} {
		if _, err := idb.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("failed to create table for %T: %v", model, err)
		}
	}
}

// SeedArticles inserts the given articles.
func SeedArticles(t *testing.T, idb bun.IDB, articles []store.Article) {
	t.Helper()

	if len(articles) == 0 {
		return
	}
	if _, err := idb.NewInsert().Model(&articles).Exec(context.Background()); err != nil {
		t.Fatalf("failed to seed articles: %v", err)
	}
}

// MakeArticles builds n articles with ids 1..n. Publication times step one
// minute apart, so article n is the newest.
func MakeArticles(n int, base time.Time) []store.Article {
	articles := make([]store.Article, 0, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		articles = append(articles, store.Article{
			ID:          int64(i),
			Title:       "Article " + id,
			Content:     "Body of article number " + id,
			URL:         "https://news.test/articles/" + id,
			Category:    "general",
			Source:      "newswire",
			PublishedAt: base.Add(time.Duration(i) * time.Minute),
			CreatedAt:   base,
		})
	}
	return articles
}
