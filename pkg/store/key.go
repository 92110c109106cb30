package store

import (
	"net/http"
	"strings"
)

// Key identifies a cached response within a generation.
// It is the canonical (method, path) pair used for lookup.
type Key struct {
	// Method is the HTTP method, normalized to upper case.
	Method string

	// Path is the request path including the query string, if any.
	Path string
}

// KeyForRequest builds the canonical key for an HTTP request.
func KeyForRequest(r *http.Request) Key {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return Key{
		Method: strings.ToUpper(r.Method),
		Path:   path,
	}
}

// String generates a deterministic key string.
// Format: method + space + path, e.g. "GET /css/site.css".
func (k Key) String() string {
	return k.Method + " " + k.Path
}

// Cacheable reports whether the key participates in caching.
// Only the read-only retrieval method does; all other methods pass
// straight through with no cache interaction.
func (k Key) Cacheable() bool {
	return k.Method == http.MethodGet
}
