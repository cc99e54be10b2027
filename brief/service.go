// Package brief produces the derived artifacts for an article: its summary
// and, on request, a synthesized-speech reference for that summary. Both are
// computed lazily, persisted exactly once, and served from the backing store
// on subsequent requests.
package brief

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/uptrace/bun"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/pool"
	"github.com/buzzbrief/buzzbrief/speech"
	"github.com/buzzbrief/buzzbrief/store"
	"github.com/buzzbrief/buzzbrief/summarize"
)

// Result is a summary plus an optional audio reference. AudioErr is set when
// synthesis failed but the summary itself is good: a partial success, not a
// request failure.
type Result struct {
	Summary  string
	AudioURL string
	AudioErr error
}

// Invalidator drops cached article reads after a write. Satisfied by
// *storecache.CachedArticles.
type Invalidator interface {
	InvalidateArticle(ctx context.Context, id int64) error
}

// Service orchestrates the two artifact caches over the shared pool.
type Service struct {
	pool       *pool.Pool
	summaries  *store.SummaryStore
	audio      *store.AudioStore
	summarizer summarize.Summarizer
	synth      speech.Synthesizer
	invalidate Invalidator
	log        *log.Logger
}

// NewService wires the artifact caches. The summarizer is pluggable; pass
// summarize.NewTruncate() for the placeholder policy.
func NewService(p *pool.Pool, summarizer summarize.Summarizer, synth speech.Synthesizer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		pool:       p,
		summaries:  store.NewSummaryStore(),
		audio:      store.NewAudioStore(),
		summarizer: summarizer,
		synth:      synth,
		log:        logger,
	}
}

// SetInvalidator registers a hook run after a summary is first created, so
// the article read cache drops entries the write made stale. Invalidation is
// best effort; a hook failure never fails the request.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidate = inv
}

// Get returns the article's summary, creating and persisting it on first
// request, and optionally its audio reference.
//
// One pooled connection covers the summary lookup/create and the audio-cache
// lookup, and is released before the synthesis call: a slow TTS request must
// not pin a pool slot. Persisting a fresh audio row re-acquires briefly.
func (s *Service) Get(ctx context.Context, articleID int64, includeAudio bool) (Result, error) {
	var (
		summaryText string
		audioURL    string
		needsAudio  bool
	)

	err := s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		text, err := s.summaryText(ctx, idb, articleID)
		if err != nil {
			return err
		}
		summaryText = text

		if !includeAudio {
			return nil
		}
		req, err := s.audio.Latest(ctx, idb, articleID, store.AudioTypeSummary)
		switch {
		case err == nil:
			audioURL = req.AudioURL
		case errors.Is(err, apperr.ErrNotFound):
			needsAudio = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Summary: summaryText, AudioURL: audioURL}
	if !needsAudio {
		return res, nil
	}

	url, err := s.synth.Synthesize(ctx, summaryText)
	if err != nil {
		// Nothing is persisted on synthesis failure; the summary still
		// stands.
		s.log.Error("audio synthesis failed", "article_id", articleID, "error", err)
		res.AudioErr = fmt.Errorf("%w: article %d", apperr.ErrSynthesisFailed, articleID)
		return res, nil
	}

	err = s.pool.With(ctx, func(ctx context.Context, idb bun.IDB) error {
		return s.audio.Append(ctx, idb, &store.AudioRequest{
			ArticleID: articleID,
			Type:      store.AudioTypeSummary,
			AudioURL:  url,
		})
	})
	if err != nil {
		return Result{}, err
	}

	res.AudioURL = url
	return res, nil
}

// summaryText implements the get-or-create contract for summaries. A lookup
// hit returns without writing. On a miss the article content is loaded
// (NotFound if the article itself is absent), summarized, and upserted keyed
// on article_id, so two racing first-requests both succeed and exactly one
// row remains.
func (s *Service) summaryText(ctx context.Context, idb bun.IDB, articleID int64) (string, error) {
	sum, err := s.summaries.ByArticle(ctx, idb, articleID)
	if err == nil {
		return sum.Summary, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	content, err := s.summaries.ArticleContent(ctx, idb, articleID)
	if err != nil {
		return "", err
	}

	text := s.summarizer.Summarize(content)
	if err := s.summaries.Upsert(ctx, idb, articleID, text); err != nil {
		return "", err
	}
	s.log.Info("summary created", "article_id", articleID, "chars", len(text))

	if s.invalidate != nil {
		if err := s.invalidate.InvalidateArticle(ctx, articleID); err != nil {
			s.log.Warn("cache invalidation failed", "article_id", articleID, "error", err)
		}
	}
	return text, nil
}
