package server

import (
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/buzzbrief/buzzbrief/store"
)

type articlesPayload struct {
	Articles []store.Article `json:"articles"`
}

type pagePayload struct {
	Articles []store.Article `json:"articles"`
	HasMore  bool            `json:"has_more"`
}

type summaryPayload struct {
	Summary  string `json:"summary"`
	AudioURL string `json:"audio_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type dateParams struct {
	Month, Day, Year int
}

func (p dateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Month, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&p.Day, validation.Required, validation.Min(1), validation.Max(31)),
		validation.Field(&p.Year, validation.Required, validation.Min(1970)),
	)
}

type pageParams struct {
	Offset, Limit int
}

func (p pageParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

func (s *Server) handleByDate(w http.ResponseWriter, r *http.Request) {
	month, errM := strconv.Atoi(r.PathValue("month"))
	day, errD := strconv.Atoi(r.PathValue("day"))
	year, errY := strconv.Atoi(r.PathValue("year"))
	if errM != nil || errD != nil || errY != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Invalid date"})
		return
	}

	params := dateParams{Month: month, Day: day, Year: year}
	if err := params.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}

	articles, err := s.articles.ByDate(r.Context(), month, day, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, articlesPayload{Articles: emptyIfNil(articles)})
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	articles, err := s.articles.ByCategory(r.Context(), category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, articlesPayload{Articles: emptyIfNil(articles)})
}

func (s *Server) handleArticleByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Invalid article id"})
		return
	}

	article, err := s.articles.ByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Invalid article id"})
		return
	}
	includeAudio, _ := strconv.ParseBool(r.URL.Query().Get("include_audio"))

	res, err := s.briefs.Get(r.Context(), id, includeAudio)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	payload := summaryPayload{Summary: res.Summary, AudioURL: res.AudioURL}
	if res.AudioErr != nil {
		// Partial success: the summary stands, the audio does not.
		payload.Error = "Failed to generate audio"
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	params := pageParams{Offset: 0, Limit: 10}
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Invalid offset"})
			return
		}
		params.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Invalid limit"})
			return
		}
		params.Limit = n
	}
	if err := params.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}

	articles, hasMore, err := s.articles.ListPage(r.Context(), params.Offset, params.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pagePayload{Articles: emptyIfNil(articles), HasMore: hasMore})
}

// emptyIfNil keeps empty listings rendering as [] instead of null.
func emptyIfNil(articles []store.Article) []store.Article {
	if articles == nil {
		return []store.Article{}
	}
	return articles
}
