// Package speech is the boundary to the third-party text-to-speech service.
// Synthesis is the expensive, potentially flaky step of the audio path; the
// client is treated as a black box that returns an opaque audio reference or
// fails.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// Synthesizer turns plain text into an audio reference (a URL or handle).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// ClientConfig configures the HTTP synthesis client. Credentials and
// endpoint come from the environment; see internal/config.
type ClientConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// Client calls an ElevenLabs-style HTTP synthesis API.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  *log.Logger
}

var _ Synthesizer = (*Client)(nil)

// NewClient returns a synthesis client with its own request timeout,
// independent of any database deadline.
func NewClient(cfg ClientConfig, logger *log.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

type synthesizeResponse struct {
	AudioURL string `json:"audio_url"`
}

// Synthesize implements Synthesizer. Every failure mode maps to
// ErrSynthesisFailed so callers can distinguish it from backing-store errors
// and degrade to a summary-only response.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", apperr.ErrSynthesisFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", apperr.ErrSynthesisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("xi-api-key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("synthesis API returned non-success status", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", apperr.ErrSynthesisFailed, resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", apperr.ErrSynthesisFailed, err)
	}
	if out.AudioURL == "" {
		return "", fmt.Errorf("%w: empty audio reference", apperr.ErrSynthesisFailed)
	}
	return out.AudioURL, nil
}
