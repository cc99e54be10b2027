package speech_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buzzbrief/buzzbrief/apperr"
	"github.com/buzzbrief/buzzbrief/pkg/testsupport"
	"github.com/buzzbrief/buzzbrief/speech"
)

func newClient(url string) *speech.Client {
	return speech.NewClient(speech.ClientConfig{
		APIURL: url,
		APIKey: "test-key",
	}, testsupport.Logger())
}

func TestSynthesize(t *testing.T) {
	var gotText, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotText = body.Text
		json.NewEncoder(w).Encode(map[string]string{"audio_url": "https://cdn.test/out.mp3"})
	}))
	defer srv.Close()

	url, err := newClient(srv.URL).Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if url != "https://cdn.test/out.mp3" {
		t.Errorf("url = %q", url)
	}
	if gotText != "hello there" {
		t.Errorf("API received text %q", gotText)
	}
	if gotKey != "test-key" {
		t.Errorf("API received key %q", gotKey)
	}
}

func TestSynthesize_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newClient(srv.URL).Synthesize(context.Background(), "text")
		srv.Close()
		if !errors.Is(err, apperr.ErrSynthesisFailed) {
			t.Errorf("status %d: error = %v, want ErrSynthesisFailed", status, err)
		}
	}
}

func TestSynthesize_EmptyAudioURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"audio_url": ""})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Synthesize(context.Background(), "text")
	if !errors.Is(err, apperr.ErrSynthesisFailed) {
		t.Fatalf("error = %v, want ErrSynthesisFailed on empty reference", err)
	}
}

func TestSynthesize_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Synthesize(context.Background(), "text")
	if !errors.Is(err, apperr.ErrSynthesisFailed) {
		t.Fatalf("error = %v, want ErrSynthesisFailed on malformed body", err)
	}
}

func TestSynthesize_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).Synthesize(context.Background(), "text")
	if !errors.Is(err, apperr.ErrSynthesisFailed) {
		t.Fatalf("error = %v, want ErrSynthesisFailed on connection failure", err)
	}
}

func TestMock_DistinctURLsAndFailure(t *testing.T) {
	m := speech.NewMock()
	ctx := context.Background()

	a, err := m.Synthesize(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Synthesize(ctx, "second")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("mock returned the same reference twice: %q", a)
	}
	if m.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", m.Calls())
	}

	m.Fail = true
	if _, err := m.Synthesize(ctx, "third"); !errors.Is(err, apperr.ErrSynthesisFailed) {
		t.Errorf("failing mock error = %v", err)
	}
	if m.Calls() != 2 {
		t.Errorf("failed call counted: Calls() = %d", m.Calls())
	}
}
