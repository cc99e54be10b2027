package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// Mock is an in-process Synthesizer for tests. It counts invocations so
// cache-hit tests can assert synthesis never happened, and can be told to
// fail.
type Mock struct {
	mu    sync.Mutex
	calls int

	// Fail makes every Synthesize call return ErrSynthesisFailed.
	Fail bool

	// BaseURL prefixes generated references. Defaults to a placeholder host.
	BaseURL string
}

var _ Synthesizer = (*Mock)(nil)

// NewMock returns a Mock synthesizer.
func NewMock() *Mock {
	return &Mock{BaseURL: "https://audio.test"}
}

// Synthesize returns a distinct reference per invocation, so a test that
// accidentally re-synthesizes observes a different URL.
func (m *Mock) Synthesize(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return "", fmt.Errorf("%w: mock engine failure", apperr.ErrSynthesisFailed)
	}

	m.calls++
	return fmt.Sprintf("%s/clip-%d.mp3", m.BaseURL, m.calls), nil
}

// Calls reports how many successful syntheses ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
