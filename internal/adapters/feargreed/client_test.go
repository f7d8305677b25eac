package feargreed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/selivandex/fng-signal/internal/adapters/config"
)

func TestClient_FetchHistory(t *testing.T) {
	var gotPath, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"fear_and_greed_historical":{"data":[]}}`))
	}))
	defer server.Close()

	client := NewClient(&config.FearGreedConfig{
		BaseURL:   server.URL,
		UserAgent: "Mozilla/5.0 test",
		Timeout:   5 * time.Second,
	})

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	body, err := client.FetchHistory(context.Background(), start)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if gotPath != "/index/fearandgreed/graphdata/2024-06-01" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotUA != "Mozilla/5.0 test" {
		t.Errorf("Unexpected User-Agent %q", gotUA)
	}
	if !strings.Contains(string(body), "fear_and_greed_historical") {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestClient_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("I'm a teapot"))
	}))
	defer server.Close()

	client := NewClient(&config.FearGreedConfig{BaseURL: server.URL, Timeout: 5 * time.Second})

	_, err := client.FetchHistory(context.Background(), time.Now())
	if err == nil || !strings.Contains(err.Error(), "418") {
		t.Errorf("Expected 418 error, got %v", err)
	}
}

const validPayload = `{"fear_and_greed_historical":{"data":[{"x":1717200000000,"y":42}]}}`

type fakeSource struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeSource) FetchHistory(ctx context.Context, start time.Time) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

type memoryCache struct {
	items    map[string][]byte
	readErr  error
	writeErr error
	ttl      time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memoryCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.items[key] = value
	m.ttl = ttl
	return nil
}

func TestCachedSource(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("second fetch served from cache", func(t *testing.T) {
		source := &fakeSource{payload: []byte(validPayload)}
		cache := newMemoryCache()
		cached := NewCachedSource(source, cache, time.Hour)

		for i := 0; i < 2; i++ {
			body, err := cached.FetchHistory(context.Background(), start)
			if err != nil || string(body) != validPayload {
				t.Fatalf("Fetch %d: unexpected %q, %v", i, body, err)
			}
		}

		if source.calls != 1 {
			t.Errorf("Expected 1 upstream call, got %d", source.calls)
		}
		if cache.ttl != time.Hour {
			t.Errorf("Expected TTL 1h, got %v", cache.ttl)
		}
		if _, ok := cache.items[CacheKey(start)]; !ok {
			t.Error("Payload not cached under expected key")
		}
	})

	for _, body := range []string{`<html>`, `{}`, `{"fear_and_greed_historical":{}}`} {
		t.Run("unusable payload not cached "+body, func(t *testing.T) {
			source := &fakeSource{payload: []byte(body)}
			cache := newMemoryCache()
			cached := NewCachedSource(source, cache, time.Hour)

			got, err := cached.FetchHistory(context.Background(), start)
			if err != nil || string(got) != body {
				t.Fatalf("Expected upstream payload, got %q, %v", got, err)
			}
			if len(cache.items) != 0 {
				t.Errorf("Payload %s should not be cached", body)
			}

			// the next run goes upstream again
			if _, err := cached.FetchHistory(context.Background(), start); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if source.calls != 2 {
				t.Errorf("Expected 2 upstream calls, got %d", source.calls)
			}
		})
	}

	t.Run("cache failures fall through", func(t *testing.T) {
		source := &fakeSource{payload: []byte(validPayload)}
		cache := newMemoryCache()
		cache.readErr = errors.New("redis down")
		cache.writeErr = errors.New("redis down")
		cached := NewCachedSource(source, cache, time.Hour)

		body, err := cached.FetchHistory(context.Background(), start)
		if err != nil || string(body) != validPayload {
			t.Errorf("Expected upstream payload, got %q, %v", body, err)
		}
	})

	t.Run("upstream error propagates", func(t *testing.T) {
		sentinel := errors.New("cnn down")
		cached := NewCachedSource(&fakeSource{err: sentinel}, newMemoryCache(), time.Hour)

		if _, err := cached.FetchHistory(context.Background(), start); !errors.Is(err, sentinel) {
			t.Errorf("Expected upstream error, got %v", err)
		}
	})
}
