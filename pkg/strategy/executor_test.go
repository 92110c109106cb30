package strategy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsdigest/offline-client/pkg/store"
)

// fakeFetcher is a scriptable network. Setting offline makes every request
// fail with a network error.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	offline bool
	status  int
	body    string
}

var errNetworkDown = errors.New("network down")

func (f *fakeFetcher) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.offline {
		return nil, errNetworkDown
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
	}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) setOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

func newTestExecutor(fetcher Fetcher) (*Executor, store.Store) {
	s := store.NewMemoryStore()
	gens := FixedGenerations{StaticName: "static-assets-v1", DynamicName: "dynamic-content-v1"}
	tasks := NewBackgroundTasks(zerolog.Nop())
	return NewExecutor(s, fetcher, gens, "/offline.html", tasks, zerolog.Nop()), s
}

func putEntry(t *testing.T, s store.Store, generation, path, body string) {
	t.Helper()
	key := store.Key{Method: http.MethodGet, Path: path}
	entry := &store.Entry{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
		StoredAt:   time.Now(),
	}
	if err := s.Put(context.Background(), generation, key, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Reading body failed: %v", err)
	}
	resp.Body.Close()
	return string(body)
}

func TestCacheFirst_HitMakesNoNetworkCall(t *testing.T) {
	fetcher := &fakeFetcher{}
	e, s := newTestExecutor(fetcher)
	putEntry(t, s, "static-assets-v1", "/css/site.css", "body { margin: 0 }")

	req := httptest.NewRequest("GET", "/css/site.css", nil)
	resp, err := e.CacheFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("CacheFirst failed: %v", err)
	}

	if got := readBody(t, resp); got != "body { margin: 0 }" {
		t.Errorf("Body = %q", got)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("Cache hit must make zero network calls, made %d", fetcher.callCount())
	}
}

func TestCacheFirst_MissFetchesAndStores(t *testing.T) {
	fetcher := &fakeFetcher{body: "body { margin: 0 }"}
	e, _ := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/css/site.css", nil)
	resp, err := e.CacheFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("CacheFirst failed: %v", err)
	}
	if got := readBody(t, resp); got != "body { margin: 0 }" {
		t.Errorf("Live body = %q", got)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("Expected 1 network call, made %d", fetcher.callCount())
	}

	// The opportunistic store is detached; join it before going offline.
	e.Tasks().Wait()
	fetcher.setOffline(true)

	resp, err = e.CacheFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("CacheFirst offline failed: %v", err)
	}
	if got := readBody(t, resp); got != "body { margin: 0 }" {
		t.Errorf("Cached body = %q, want stored copy unchanged", got)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("Offline hit must not touch the network, calls = %d", fetcher.callCount())
	}
}

func TestCacheFirst_NonSuccessNotStored(t *testing.T) {
	fetcher := &fakeFetcher{status: 404, body: "not found"}
	e, s := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/css/missing.css", nil)
	resp, err := e.CacheFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("CacheFirst failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Non-2xx must pass through, got %d", resp.StatusCode)
	}
	e.Tasks().Wait()

	key := store.Key{Method: http.MethodGet, Path: "/css/missing.css"}
	if _, err := s.Get(context.Background(), "static-assets-v1", key); !errors.Is(err, store.ErrCacheMiss) {
		t.Errorf("Non-2xx response must never be cached, got %v", err)
	}
}

func TestCacheFirst_NetworkErrorPropagatesForAssets(t *testing.T) {
	fetcher := &fakeFetcher{offline: true}
	e, _ := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/css/site.css", nil)
	if _, err := e.CacheFirst(context.Background(), req); !errors.Is(err, errNetworkDown) {
		t.Errorf("Expected network error to propagate, got %v", err)
	}
}

func TestNetworkFirst_SuccessStoredAndRetrievableOffline(t *testing.T) {
	fetcher := &fakeFetcher{body: "<html>today's digest</html>"}
	e, _ := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/en_GB/news.html", nil)
	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst failed: %v", err)
	}
	if got := readBody(t, resp); got != "<html>today's digest</html>" {
		t.Errorf("Live body = %q", got)
	}

	e.Tasks().Wait()
	fetcher.setOffline(true)

	resp, err = e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst offline failed: %v", err)
	}
	if got := readBody(t, resp); got != "<html>today's digest</html>" {
		t.Errorf("Cached body = %q", got)
	}
}

func TestNetworkFirst_NonSuccessPassedThroughUncached(t *testing.T) {
	fetcher := &fakeFetcher{status: 500, body: "oops"}
	e, s := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/en_GB/news.html", nil)
	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst failed: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("Status = %d, want pass-through 500", resp.StatusCode)
	}
	if got := readBody(t, resp); got != "oops" {
		t.Errorf("Body = %q, want untouched", got)
	}
	e.Tasks().Wait()

	key := store.Key{Method: http.MethodGet, Path: "/en_GB/news.html"}
	if _, err := s.Get(context.Background(), "dynamic-content-v1", key); !errors.Is(err, store.ErrCacheMiss) {
		t.Errorf("Non-2xx must never be cached, got %v", err)
	}
}

func TestNetworkFirst_DocumentFallsBackToOfflinePage(t *testing.T) {
	fetcher := &fakeFetcher{offline: true}
	e, s := newTestExecutor(fetcher)
	putEntry(t, s, "static-assets-v1", "/offline.html", "<html>you are offline</html>")

	req := httptest.NewRequest("GET", "/en_GB/news.html", nil)
	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst failed: %v", err)
	}
	if got := readBody(t, resp); got != "<html>you are offline</html>" {
		t.Errorf("Body = %q, want fallback document", got)
	}
}

func TestNetworkFirst_AudioUnavailableOffline(t *testing.T) {
	fetcher := &fakeFetcher{offline: true}
	e, _ := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/en_GB/audio/digest_2026_01_05.mp3", nil)
	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
	body := readBody(t, resp)
	if body == "" {
		t.Error("Synthesized response must have a non-empty descriptive body")
	}
	if !strings.Contains(body, "audio not available offline") {
		t.Errorf("Body = %q, want offline audio reason", body)
	}
}

func TestNetworkFirst_CachedAudioServedOffline(t *testing.T) {
	fetcher := &fakeFetcher{body: "mp3bytes"}
	e, _ := newTestExecutor(fetcher)

	req := httptest.NewRequest("GET", "/en_GB/audio/digest_2026_01_05.mp3", nil)
	if _, err := e.NetworkFirst(context.Background(), req); err != nil {
		t.Fatalf("NetworkFirst failed: %v", err)
	}
	e.Tasks().Wait()
	fetcher.setOffline(true)

	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("NetworkFirst offline failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Cached audio should be served before synthesizing 503, got %d", resp.StatusCode)
	}
	if got := readBody(t, resp); got != "mp3bytes" {
		t.Errorf("Body = %q", got)
	}
}

func TestNetworkFirst_FallbackAbsentPropagatesError(t *testing.T) {
	fetcher := &fakeFetcher{offline: true}
	e, _ := newTestExecutor(fetcher)

	// No offline.html in the static generation: document fallback degrades
	// to no response.
	req := httptest.NewRequest("GET", "/en_GB/news.html", nil)
	if _, err := e.NetworkFirst(context.Background(), req); !errors.Is(err, errNetworkDown) {
		t.Errorf("Expected network error to propagate, got %v", err)
	}
}

// failingStore wraps a store and fails every Put.
type failingStore struct {
	store.Store
}

var errDiskFull = errors.New("disk full")

func (f failingStore) Put(ctx context.Context, generation string, key store.Key, entry *store.Entry) error {
	return errDiskFull
}

func TestOpportunisticStoreFailureIsSwallowed(t *testing.T) {
	fetcher := &fakeFetcher{body: "content"}
	s := failingStore{store.NewMemoryStore()}
	gens := FixedGenerations{StaticName: "static-assets-v1", DynamicName: "dynamic-content-v1"}
	tasks := NewBackgroundTasks(zerolog.Nop())
	e := NewExecutor(s, fetcher, gens, "/offline.html", tasks, zerolog.Nop())

	req := httptest.NewRequest("GET", "/en_GB/news.html", nil)
	resp, err := e.NetworkFirst(context.Background(), req)
	if err != nil {
		t.Fatalf("Store failure must not surface to the caller: %v", err)
	}
	if got := readBody(t, resp); got != "content" {
		t.Errorf("Body = %q", got)
	}
	e.Tasks().Wait()
}
