package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentpress/agentpress/internal/config"
	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// newTestClient builds a client against a test server with backoff collapsed
// so retry tests run in milliseconds.
func newTestClient(url string) *Client {
	cfg := config.DefaultConfig()
	cfg.EmbeddingAPIURL = url
	cfg.EmbeddingAPIKey = "test-key"

	c := NewClient(cfg)
	c.backoffBase = time.Millisecond
	return c
}

// embeddingResponse writes a valid provider success envelope.
func embeddingResponse(w http.ResponseWriter, dims int) {
	vector := make([]float32, dims)
	vector[0] = 0.25
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  []map[string]any{{"embedding": vector, "index": 0}},
		"model": "text-embedding-bge-m3",
	})
}

func TestEmbedSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Input != "some text" {
			t.Errorf("input = %q, want some text", req.Input)
		}

		embeddingResponse(w, entry.EmbeddingDimension)
	}))
	defer srv.Close()

	vector, err := newTestClient(srv.URL).Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vector) != entry.EmbeddingDimension {
		t.Errorf("vector length = %d, want %d", len(vector), entry.EmbeddingDimension)
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestEmbedRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
			})
			return
		}
		embeddingResponse(w, entry.EmbeddingDimension)
	}))
	defer srv.Close()

	vector, err := newTestClient(srv.URL).Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vector) != entry.EmbeddingDimension {
		t.Errorf("vector length = %d", len(vector))
	}
	if calls != 3 {
		t.Errorf("provider calls = %d, want 3", calls)
	}
}

func TestEmbedExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "some text")
	if err == nil {
		t.Fatal("Embed() expected error after exhausted retries")
	}
	if calls != MaxAttempts {
		t.Errorf("provider calls = %d, want %d", calls, MaxAttempts)
	}
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "input too long", "type": "invalid_request"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "some text")
	if err == nil {
		t.Fatal("Embed() expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		embeddingResponse(w, 768)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "some text")
	if err == nil {
		t.Fatal("Embed() expected error for wrong vector length")
	}
}

func TestEmbedFailsFastWithoutKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EmbeddingAPIURL = "http://127.0.0.1:1"

	_, err := NewClient(cfg).Embed(context.Background(), "some text")
	if !errors.Is(err, errors.ErrNotConfigured) {
		t.Fatalf("Embed() error = %v, want NOT_CONFIGURED", err)
	}
}

func TestEmbedRejectsBlankText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called for blank text")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "   \n ")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("Embed() error = %v, want INVALID_REQUEST", err)
	}
}

func TestEmbedHonorsContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.backoffBase = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Embed(ctx, "some text")
	if err == nil {
		t.Fatal("Embed() expected error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Embed() blocked %v past context cancellation", elapsed)
	}
}

func TestEmbedMany(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		embeddingResponse(w, entry.EmbeddingDimension)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	vectors, err := c.EmbedMany(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("EmbedMany() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Errorf("vectors = %d, want 3", len(vectors))
	}
	if calls != 3 {
		t.Errorf("provider calls = %d, want 3", calls)
	}
}

func TestEmbedManyEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called for an empty list")
	}))
	defer srv.Close()

	vectors, err := newTestClient(srv.URL).EmbedMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedMany() error = %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("vectors = %d, want 0", len(vectors))
	}
}

func TestEmbedManyShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		embeddingResponse(w, entry.EmbeddingDimension)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).EmbedMany(context.Background(), []string{"one", "two", "three"})
	if err == nil {
		t.Fatal("EmbedMany() expected error")
	}
	if calls != 2 {
		t.Errorf("provider calls = %d, want 2 (stop at first failure)", calls)
	}
}
