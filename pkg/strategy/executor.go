package strategy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/newsdigest/offline-client/pkg/classify"
	"github.com/newsdigest/offline-client/pkg/store"
)

// Fetcher issues a network request. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Generations provides the currently active generation name per role.
// The lifecycle manager implements it; activation swaps the names under
// the executors without restarting them.
type Generations interface {
	// Active returns the active static and dynamic generation names.
	Active() (staticGen, dynamicGen string)
}

// FixedGenerations is a static Generations implementation for construction
// before the first activate, and for tests.
type FixedGenerations struct {
	StaticName  string
	DynamicName string
}

// Active returns the fixed generation pair.
func (g FixedGenerations) Active() (string, string) {
	return g.StaticName, g.DynamicName
}

// Executor runs the cache-first and network-first strategies against the
// active cache generations.
type Executor struct {
	store        store.Store
	fetcher      Fetcher
	generations  Generations
	fallbackPath string
	tasks        *BackgroundTasks
	logger       zerolog.Logger
}

// NewExecutor creates a strategy executor.
func NewExecutor(s store.Store, fetcher Fetcher, generations Generations, fallbackPath string, tasks *BackgroundTasks, logger zerolog.Logger) *Executor {
	return &Executor{
		store:        s,
		fetcher:      fetcher,
		generations:  generations,
		fallbackPath: fallbackPath,
		tasks:        tasks,
		logger:       logger,
	}
}

// Tasks exposes the background task runner so callers can drain it on
// shutdown.
func (e *Executor) Tasks() *BackgroundTasks {
	return e.tasks
}

// CacheFirst serves from the active static generation, falling back to the
// network. A cache hit makes zero network calls.
func (e *Executor) CacheFirst(ctx context.Context, req *http.Request) (*http.Response, error) {
	key := store.KeyForRequest(req)
	staticGen, _ := e.generations.Active()

	entry, err := e.store.Get(ctx, staticGen, key)
	if err == nil {
		e.logger.Debug().Str("key", key.String()).Str("generation", staticGen).Msg("Cache hit")
		requestsTotal.WithLabelValues(string(DecisionCacheFirst), outcomeCache).Inc()
		return store.EntryToResponse(entry), nil
	}
	if !errors.Is(err, store.ErrCacheMiss) {
		e.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache lookup failed")
	}

	resp, err := e.fetcher.Do(req)
	if err != nil {
		e.logger.Warn().Err(err).Str("key", key.String()).Msg("Network request failed")
		if fb := e.fallback(ctx, req); fb != nil {
			requestsTotal.WithLabelValues(string(DecisionCacheFirst), outcomeFallback).Inc()
			return fb, nil
		}
		requestsTotal.WithLabelValues(string(DecisionCacheFirst), outcomeError).Inc()
		return nil, err
	}

	e.storeCopy(resp, staticGen, key, string(DecisionCacheFirst))
	requestsTotal.WithLabelValues(string(DecisionCacheFirst), outcomeNetwork).Inc()
	return resp, nil
}

// NetworkFirst serves from the network, falling back to the active dynamic
// generation, then to the offline document or a synthesized unavailable
// response depending on the destination.
func (e *Executor) NetworkFirst(ctx context.Context, req *http.Request) (*http.Response, error) {
	key := store.KeyForRequest(req)
	_, dynamicGen := e.generations.Active()

	resp, err := e.fetcher.Do(req)
	if err == nil {
		// Non-2xx responses pass through untouched: neither cached nor
		// treated as an error.
		e.storeCopy(resp, dynamicGen, key, string(DecisionNetworkFirst))
		requestsTotal.WithLabelValues(string(DecisionNetworkFirst), outcomeNetwork).Inc()
		return resp, nil
	}
	e.logger.Warn().Err(err).Str("key", key.String()).Msg("Network request failed")

	entry, getErr := e.store.Get(ctx, dynamicGen, key)
	if getErr == nil {
		e.logger.Debug().Str("key", key.String()).Str("generation", dynamicGen).Msg("Serving cached copy offline")
		requestsTotal.WithLabelValues(string(DecisionNetworkFirst), outcomeCache).Inc()
		return store.EntryToResponse(entry), nil
	}
	if !errors.Is(getErr, store.ErrCacheMiss) {
		e.logger.Warn().Err(getErr).Str("key", key.String()).Msg("Cache lookup failed")
	}

	class := classify.Classify(req.URL.Path)
	if classify.IsNavigable(class) {
		if fb := e.fallback(ctx, req); fb != nil {
			requestsTotal.WithLabelValues(string(DecisionNetworkFirst), outcomeFallback).Inc()
			return fb, nil
		}
	}

	if class == classify.ClassAudio {
		requestsTotal.WithLabelValues(string(DecisionNetworkFirst), outcomeUnavailable).Inc()
		return unavailableResponse("audio not available offline"), nil
	}

	requestsTotal.WithLabelValues(string(DecisionNetworkFirst), outcomeError).Inc()
	return nil, err
}

// Bypass forwards the request with no cache interaction on either side.
func (e *Executor) Bypass(ctx context.Context, req *http.Request) (*http.Response, error) {
	return e.fetcher.Do(req)
}

// storeCopy snapshots a success response and writes it into the given
// generation as a detached task. The snapshot happens synchronously so the
// caller can consume the body; the write itself never delays the response
// and its failure is only logged.
func (e *Executor) storeCopy(resp *http.Response, generation string, key store.Key, strategyName string) {
	if !key.Cacheable() || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	entry, err := store.ResponseToEntry(resp)
	if err != nil {
		e.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to snapshot response")
		return
	}

	e.tasks.Go("store-"+strategyName, func() error {
		// Detached from the request context: an abandoned request leaves
		// the write to complete or fail on its own.
		return e.store.Put(context.Background(), generation, key, entry)
	})
}

// fallback returns the offline document from the static generation for
// navigable destinations, or nil if the destination is not navigable or the
// document is absent.
func (e *Executor) fallback(ctx context.Context, req *http.Request) *http.Response {
	if !classify.IsNavigable(classify.Classify(req.URL.Path)) {
		return nil
	}

	staticGen, _ := e.generations.Active()
	key := store.Key{Method: http.MethodGet, Path: e.fallbackPath}

	entry, err := e.store.Get(ctx, staticGen, key)
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			e.logger.Warn().Err(err).Str("path", e.fallbackPath).Msg("Fallback lookup failed")
		}
		return nil
	}

	e.logger.Info().Str("path", req.URL.Path).Msg("Serving offline fallback document")
	return store.EntryToResponse(entry)
}

// unavailableResponse synthesizes a service-unavailable response with a
// short human-readable reason.
func unavailableResponse(reason string) *http.Response {
	body := []byte(reason)
	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        http.StatusText(http.StatusServiceUnavailable),
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
}
