package store

import (
	"net/http"
	"time"
)

// Entry is an immutable snapshot of an HTTP response captured at write time.
// It is never mutated after insertion; a write is a full replace.
type Entry struct {
	// StatusCode is the HTTP status code of the captured response.
	StatusCode int `json:"status_code"`

	// Headers are the response headers at capture time.
	Headers http.Header `json:"headers"`

	// Body is the response body.
	Body []byte `json:"body"`

	// StoredAt is when the snapshot was taken.
	StoredAt time.Time `json:"stored_at"`
}

// Size returns the body size in bytes, used for cache size metrics.
func (e *Entry) Size() int {
	return len(e.Body)
}
