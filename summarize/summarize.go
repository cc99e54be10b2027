// Package summarize turns article content into summary text. The algorithm
// is a pure function of the content, isolated behind an interface so a real
// model-backed summarizer can replace the truncation placeholder without
// touching caching or persistence.
package summarize

// NoContent is returned for articles with empty content.
const NoContent = "No content to summarize."

// DefaultLimit is the truncation length, in characters.
const DefaultLimit = 300

// Summarizer derives summary text from article content. Implementations must
// be deterministic: the caching layer relies on recomputation producing the
// same text.
type Summarizer interface {
	Summarize(content string) string
}

// Truncate is the placeholder summarizer: the first Limit characters of the
// content followed by an ellipsis marker. Limits are counted in runes so
// multi-byte content is never split mid-character.
type Truncate struct {
	Limit int
}

// NewTruncate returns a Truncate with the default limit.
func NewTruncate() Truncate {
	return Truncate{Limit: DefaultLimit}
}

// Summarize implements Summarizer.
func (t Truncate) Summarize(content string) string {
	if content == "" {
		return NoContent
	}
	limit := t.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	runes := []rune(content)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
