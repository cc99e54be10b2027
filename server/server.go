// Package server exposes the article and summary endpoints over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/brief"
	"github.com/buzzbrief/buzzbrief/store"
)

// Server holds the collaborators the handlers need.
type Server struct {
	articles store.ArticleReader
	briefs   *brief.Service
	log      *log.Logger
}

// New returns a Server. The article reader is typically the cached decorator
// from storecache.
func New(articles store.ArticleReader, briefs *brief.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{articles: articles, briefs: briefs, log: logger}
}

// Options tunes the middleware applied by Handler.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// Handler builds the routed and middleware-wrapped handler for the service.
func (s *Server) Handler(opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /articles", s.handleListPage)
	mux.HandleFunc("GET /article/{id}", s.handleArticleByID)
	mux.HandleFunc("GET /article/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /category/{category}", s.handleByCategory)
	mux.HandleFunc("GET /{month}/{day}/{year}", s.handleByDate)

	var h http.Handler = mux
	if opts.RateLimitRPS > 0 {
		h = NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, s.log).Wrap(h)
	}
	h = s.logRequests(h)
	h = withRequestID(h)
	return h
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

type errorPayload struct {
	Error string `json:"error"`
}

// writeError converts internal failures into structured payloads. Raw
// backing-store errors never reach the client, but every one is logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorPayload{Error: "Article not found"})
	case errors.Is(err, apperr.ErrResourceExhausted):
		s.log.Warn("request rejected, pool exhausted", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()))
		s.writeJSON(w, http.StatusServiceUnavailable, errorPayload{Error: "Service busy, try again later"})
	default:
		s.log.Error("request failed", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "Internal server error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
