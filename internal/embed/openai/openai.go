// Package openai implements the embed.Embedder contract against any
// OpenAI-compatible /embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxRetries = 3

// Client calls a remote OpenAI-compatible embeddings endpoint.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given endpoint base URL and model name.
// The API key may be empty for unauthenticated local servers.
func New(baseURL, model, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []embeddingsItem `json:"data"`
}

type embeddingsItem struct {
	Index     *int      `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// EmbedBatch posts the texts to {base_url}/embeddings and reassembles the
// response vectors by index so the returned slice matches input order even
// if the server reorders its data array. Retries on 429 and 5xx with
// exponential backoff; other failures surface immediately.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("openai embed: marshal: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(time.Duration(1<<(attempt-1)) * time.Second)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		vectors, retryable, err := c.post(ctx, body, len(texts))
		if err == nil {
			return vectors, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Close implements embed.Embedder. The HTTP client holds no resources that
// outlive its requests.
func (c *Client) Close() error { return nil }

func (c *Client) post(ctx context.Context, body []byte, want int) (vectors [][]float32, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("openai embed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("openai embed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, false, fmt.Errorf("openai embed: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("openai embed: HTTP %d: %s", resp.StatusCode, snippet(data))
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false, fmt.Errorf("openai embed: invalid JSON response: %w", err)
	}
	vectors, err = orderVectors(parsed, want)
	if err != nil {
		return nil, false, err
	}
	return vectors, false, nil
}

// orderVectors places each response item at its declared index and verifies
// the result is complete: same length as the request, no gaps.
func orderVectors(parsed embeddingsResponse, want int) ([][]float32, error) {
	if len(parsed.Data) != want {
		return nil, fmt.Errorf("openai embed: response size mismatch: want %d vectors, got %d", want, len(parsed.Data))
	}

	vectors := make([][]float32, want)
	for _, item := range parsed.Data {
		if item.Index == nil || *item.Index < 0 || *item.Index >= want {
			return nil, fmt.Errorf("openai embed: response item has invalid index")
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("openai embed: response item %d has empty embedding", *item.Index)
		}
		if vectors[*item.Index] != nil {
			return nil, fmt.Errorf("openai embed: duplicate index %d in response", *item.Index)
		}
		vectors[*item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai embed: response missing index %d", i)
		}
	}
	return vectors, nil
}

func snippet(data []byte) string {
	const max = 512
	if len(data) > max {
		data = data[:max]
	}
	return string(data)
}
