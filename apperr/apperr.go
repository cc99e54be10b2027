// Package apperr defines the error taxonomy shared across the service.
// Callers classify failures with errors.Is against these sentinels; the HTTP
// boundary maps them onto response codes and payloads.
package apperr

import "errors"

var (
	// ErrConnectionFailed means the backing store could not be reached at
	// all. Fatal for the request; surfaced as a generic failure.
	ErrConnectionFailed = errors.New("backing store connection failed")

	// ErrResourceExhausted means no pooled connection became available
	// within the acquire timeout. The caller may retry later.
	ErrResourceExhausted = errors.New("connection pool exhausted")

	// ErrNotFound means the requested article (or its summary target) does
	// not exist. Surfaced as a structured not-found result, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrSynthesisFailed means the speech synthesis backend failed.
	// The summary is still usable; only the audio reference is missing.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// IsRetryable reports whether the caller can reasonably retry the request
// later without any operator intervention.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}
