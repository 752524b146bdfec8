package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kyuns-96/sanity-log-parser/internal/embed"
)

// maxConcurrentChunks bounds how many embedding chunks are in flight at once.
const maxConcurrentChunks = 4

// embedPlan collects every component text across all rules into one flat
// list so a single chunked embedding pass covers the whole run. Callers
// record the index each add returns and slice the result vectors back out
// by that index; -1 marks an inactive slot.
type embedPlan struct {
	texts []string
}

func (p *embedPlan) add(text string) int {
	p.texts = append(p.texts, text)
	return len(p.texts) - 1
}

func (p *embedPlan) size() int { return len(p.texts) }

// embedAll embeds the planned texts in chunks of at most batchSize, a few
// chunks in parallel, and returns the vectors in plan order. Any chunk
// failure fails the whole pass: partial embeddings would silently skew the
// distance matrix.
func (p *embedPlan) embedAll(ctx context.Context, embedder embed.Embedder, batchSize int) ([][]float32, error) {
	if len(p.texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	nChunks := (len(p.texts) + batchSize - 1) / batchSize
	results := make([][][]float32, nChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunks)

	for c := 0; c < nChunks; c++ {
		start := c * batchSize
		end := min(start+batchSize, len(p.texts))
		g.Go(func() error {
			vectors, err := embedder.EmbedBatch(ctx, p.texts[start:end])
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", c, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embed chunk %d: want %d vectors, got %d", c, end-start, len(vectors))
			}
			results[c] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(p.texts))
	for _, chunk := range results {
		vectors = append(vectors, chunk...)
	}
	return vectors, nil
}

// at returns the vector for a slot index, or nil for inactive slots.
func at(vectors [][]float32, idx int) []float32 {
	if idx < 0 {
		return nil
	}
	return vectors[idx]
}
