// Package gemini implements the embed.Embedder contract on top of the
// Gemini embeddings API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client embeds texts through the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini embedding client. The API key may be empty, in which
// case the genai SDK resolves it from its own environment variables.
func New(ctx context.Context, model, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// EmbedBatch embeds all texts in one EmbedContent call and returns the
// vectors in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: response size mismatch: want %d vectors, got %d",
			len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini embed: empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Close implements embed.Embedder. The genai client keeps no connections
// open between calls.
func (c *Client) Close() error { return nil }
