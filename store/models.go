// Package store contains the persistence models and the query layer for
// articles and their derived artifacts.
package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Article is a news article row. Articles are written by the ingestion
// pipeline; this service only ever reads them.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID          int64     `bun:"id,pk" json:"id"`
	Title       string    `bun:"title" json:"title"`
	Content     string    `bun:"content" json:"content"`
	URL         string    `bun:"url" json:"url"`
	Category    string    `bun:"category" json:"category"`
	Source      string    `bun:"source" json:"source"`
	PublishedAt time.Time `bun:"published_at" json:"published_at"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}

// Summary is the derived summary for an article. At most one row exists per
// article; recomputation overwrites the text in place.
type Summary struct {
	bun.BaseModel `bun:"table:summaries,alias:s"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	ArticleID int64  `bun:"article_id,unique" json:"article_id"`
	Summary   string `bun:"summary" json:"summary"`
}

// AudioTypeSummary tags audio rows derived from an article's summary text.
const AudioTypeSummary = "summary"

// AudioRequest records one synthesis event. Rows are append-only; the current
// audio reference for an article+type is the most recently requested row,
// never looked up by a unique key.
type AudioRequest struct {
	bun.BaseModel `bun:"table:audio_requests,alias:ar"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	ArticleID   int64     `bun:"article_id" json:"article_id"`
	Type        string    `bun:"type" json:"type"`
	AudioURL    string    `bun:"audio_url" json:"audio_url"`
	RequestedAt time.Time `bun:"requested_at" json:"requested_at"`
}
