package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newsdigest/offline-client/pkg/store"
	"github.com/newsdigest/offline-client/pkg/strategy"
)

// ManifestError reports which manifest paths failed during install.
// Any failure aborts promotion of the new generation.
type ManifestError struct {
	// Failures maps each failed path to its error.
	Failures map[string]error
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	paths := make([]string, 0, len(e.Failures))
	for path := range e.Failures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return fmt.Sprintf("manifest fetch failed for %d path(s): %s",
		len(paths), strings.Join(paths, ", "))
}

// prefetchConfig bounds the concurrency of install-time fetching.
type prefetchConfig struct {
	// maxConcurrency is the number of parallel manifest fetches.
	maxConcurrency int

	// timeout applies per path fetch.
	timeout time.Duration
}

func defaultPrefetchConfig() prefetchConfig {
	return prefetchConfig{
		maxConcurrency: 4,
		timeout:        15 * time.Second,
	}
}

// prefetcher fetches manifest paths in parallel and writes successful
// results into a generation.
type prefetcher struct {
	fetcher strategy.Fetcher
	store   store.Store
	config  prefetchConfig
	retry   retryConfig
}

// pathResult is the outcome of fetching a single manifest path.
type pathResult struct {
	path string
	err  error
}

// fetchAll fetches every manifest path and stores each 2xx result in the
// named generation. It returns a ManifestError listing every failed path,
// or nil when all paths succeeded.
func (p *prefetcher) fetchAll(ctx context.Context, origin, generation string, paths []string) error {
	jobs := make(chan string, len(paths))
	results := make(chan pathResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < p.config.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- pathResult{path: path, err: p.fetchOne(ctx, origin, generation, path)}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	wg.Wait()
	close(results)

	failures := make(map[string]error)
	for result := range results {
		if result.err != nil {
			failures[result.path] = result.err
		}
	}
	if len(failures) > 0 {
		return &ManifestError{Failures: failures}
	}
	return nil
}

// fetchOne fetches a single manifest path with retries and stores the
// result. Non-2xx responses are permanent failures; network errors and 5xx
// responses are retried as transient.
func (p *prefetcher) fetchOne(ctx context.Context, origin, generation, path string) error {
	return retryTransient(ctx, p.retry, func() (error, bool) {
		fetchCtx, cancel := context.WithTimeout(ctx, p.config.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, origin+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err), false
		}

		resp, err := p.fetcher.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", path, err), true
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			transient := resp.StatusCode >= 500
			return fmt.Errorf("fetch %s: status %d", path, resp.StatusCode), transient
		}

		entry, err := store.ResponseToEntry(resp)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", path, err), false
		}

		key := store.Key{Method: http.MethodGet, Path: path}
		if err := p.store.Put(ctx, generation, key, entry); err != nil {
			return fmt.Errorf("store %s: %w", path, err), false
		}
		return nil, false
	})
}
