// Package embeddings calls an OpenAI-compatible embedding provider to turn
// text into fixed-length vectors for semantic search.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentpress/agentpress/internal/config"
	"github.com/agentpress/agentpress/internal/errors"
)

// Retry policy for provider calls.
const (
	MaxAttempts    = 3
	InitialBackoff = time.Second
)

// Client generates embeddings via an HTTP provider.
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	dimension   int
	maxAttempts int
	backoffBase time.Duration
	httpClient  *http.Client
}

// NewClient creates an embedding client from config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:      cfg.EmbeddingAPIURL,
		apiKey:      cfg.EmbeddingAPIKey,
		model:       cfg.EmbeddingModel,
		dimension:   1024,
		maxAttempts: MaxAttempts,
		backoffBase: InitialBackoff,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Dimension returns the vector length this client produces.
func (c *Client) Dimension() int {
	return c.dimension
}

// providerError is a classified provider rejection. It never leaves the
// retry loop as a distinct type: callers only see final success or failure.
type providerError struct {
	status  int
	message string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.status, e.message)
}

// retryable reports whether the provider signaled rate limiting or a
// server-side fault.
func (e *providerError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Embed generates an embedding for the given text.
//
// It fails fast without a provider call when no credential is configured or
// the text is blank. Retryable provider failures (429/5xx) are retried up to
// MaxAttempts times with exponential backoff (1s, 2s, ...); all other
// failures surface immediately. A successful response with the wrong vector
// length is a hard error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, errors.NewNotConfigured("EMBEDDING_API_KEY")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInvalidRequest("cannot generate embedding for empty text")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		vector, err := c.requestEmbedding(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		var pErr *providerError
		if !stderrors.As(err, &pErr) || !pErr.retryable() {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoffBase << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("retryable provider error persisted after %d attempts: %w", c.maxAttempts, lastErr)
}

// EmbedMany sequentially embeds a list of texts, short-circuiting on the
// first failure. An empty list yields an empty result with no provider calls.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// embedRequest is the JSON body sent to the provider.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse maps the provider's success envelope.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// embedErrorResponse maps the provider's error envelope.
type embedErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// requestEmbedding performs one provider call. Provider rejections come back
// as *providerError so the retry loop can classify them.
func (c *Client) requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var errResp embedErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return nil, &providerError{status: resp.StatusCode, message: message}
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("invalid embedding response: missing embedding data")
	}

	vector := embResp.Data[0].Embedding
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("expected %d dimensions, got %d", c.dimension, len(vector))
	}

	return vector, nil
}
