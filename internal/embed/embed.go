// Package embed defines the embedding capability the clustering stages
// depend on. Backends are interchangeable: a locally loaded ONNX model or a
// remote API, both honoring the same length-and-order contract.
package embed

import "context"

// Embedder turns texts into vectors.
//
// EmbedBatch must return exactly one vector per input text, in input order.
// Implementations should honor ctx cancellation for in-flight requests.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}
