package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

// memoryLifeWindow bounds how long entries survive between deploys.
// Generations are normally deleted explicitly during activate; the life
// window only caps memory held by an instance that never redeploys.
const memoryLifeWindow = 24 * time.Hour

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps generations in process memory, one bigcache instance
// per generation. Deleting a generation drops the whole instance.
type MemoryStore struct {
	mu          sync.RWMutex
	generations map[string]*bigcache.BigCache
}

// NewMemoryStore creates an in-memory generation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		generations: make(map[string]*bigcache.BigCache),
	}
}

// cacheFor returns the bigcache instance for a generation, creating it if
// create is set.
func (s *MemoryStore) cacheFor(generation string, create bool) (*bigcache.BigCache, error) {
	s.mu.RLock()
	cache, ok := s.generations[generation]
	s.mu.RUnlock()
	if ok || !create {
		return cache, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cache, ok := s.generations[generation]; ok {
		return cache, nil
	}

	cfg := bigcache.DefaultConfig(memoryLifeWindow)
	cfg.Verbose = false
	cfg.CleanWindow = 0

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create generation cache: %w", err)
	}
	s.generations[generation] = cache
	return cache, nil
}

// Get retrieves an entry from the named generation.
func (s *MemoryStore) Get(ctx context.Context, generation string, key Key) (*Entry, error) {
	cache, err := s.cacheFor(generation, false)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	data, err := cache.Get(key.String())
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("memory get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues("memory").Inc()
	return &entry, nil
}

// Put stores an entry in the named generation.
func (s *MemoryStore) Put(ctx context.Context, generation string, key Key, entry *Entry) error {
	if !storable(entry) {
		return ErrNotStorable
	}

	cache, err := s.cacheFor(generation, true)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := cache.Set(key.String(), data); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("memory set: %w", err)
	}

	CacheWriteBytes.WithLabelValues("memory").Add(float64(entry.Size()))
	return nil
}

// DeleteGeneration drops the named generation entirely.
func (s *MemoryStore) DeleteGeneration(ctx context.Context, generation string) error {
	s.mu.Lock()
	cache, ok := s.generations[generation]
	delete(s.generations, generation)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := cache.Close(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("close generation cache: %w", err)
	}
	return nil
}

// Close releases every generation's cache. The store is unusable after.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, cache := range s.generations {
		if err := cache.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close generation %s: %w", name, err)
		}
		delete(s.generations, name)
	}
	return firstErr
}

// Generations returns all generation names, sorted for determinism.
func (s *MemoryStore) Generations(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.generations))
	for name := range s.generations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
