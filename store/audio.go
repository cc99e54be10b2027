package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// AudioStore persists synthesis events. The table is append-only: rows are
// never updated or deleted, and the current reference for an article+type is
// whichever row was requested most recently.
type AudioStore struct{}

// NewAudioStore returns an AudioStore.
func NewAudioStore() *AudioStore {
	return &AudioStore{}
}

// Latest returns the most recent audio request for an article+type, or
// ErrNotFound. Reads must order by requested_at and take the first match;
// multiple rows per article are expected.
func (s *AudioStore) Latest(ctx context.Context, idb bun.IDB, articleID int64, audioType string) (AudioRequest, error) {
	var req AudioRequest
	err := idb.NewSelect().
		Model(&req).
		Where("article_id = ?", articleID).
		Where("type = ?", audioType).
		OrderExpr("requested_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AudioRequest{}, fmt.Errorf("%w: audio for article %d", apperr.ErrNotFound, articleID)
		}
		return AudioRequest{}, fmt.Errorf("fetch audio for article %d: %w", articleID, err)
	}
	return req, nil
}

// Append records one synthesis event. RequestedAt defaults to now.
func (s *AudioStore) Append(ctx context.Context, idb bun.IDB, req *AudioRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	if _, err := idb.NewInsert().Model(req).Exec(ctx); err != nil {
		return fmt.Errorf("record audio request for article %d: %w", req.ArticleID, err)
	}
	return nil
}
