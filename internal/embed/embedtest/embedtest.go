// Package embedtest provides a deterministic in-memory Embedder for tests.
package embedtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
)

// Fake is a deterministic Embedder. Texts listed in Vectors get exactly
// those vectors; any other text gets a unit vector seeded from its hash, so
// identical texts always embed identically. Safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	Vectors map[string][]float32 // optional explicit vectors per text
	Dim     int                  // dimensionality for hashed vectors (default 8)
	Err     error                // returned by every EmbedBatch call when set
	FailAt  int                  // fail the Nth call (1-based) when > 0
	Calls   [][]string           // every batch received, in call order
}

// EmbedBatch returns one vector per text, in order.
func (f *Fake) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string(nil), texts...))
	call := len(f.Calls)
	f.mu.Unlock()

	if f.Err != nil && (f.FailAt == 0 || f.FailAt == call) {
		return nil, f.Err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.Vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = hashedUnitVector(t, f.dim())
	}
	return out, nil
}

// Close implements embed.Embedder.
func (f *Fake) Close() error { return nil }

// CallCount returns how many EmbedBatch calls were made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// TotalTexts returns the total number of texts across all calls.
func (f *Fake) TotalTexts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		n += len(c)
	}
	return n
}

func (f *Fake) dim() int {
	if f.Dim > 0 {
		return f.Dim
	}
	return 8
}

func hashedUnitVector(text string, dim int) []float32 {
	h := fnv.New64a()
	fmt.Fprint(h, text)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, dim)
	var norm float64
	for i := range v {
		x := rng.NormFloat64()
		v[i] = float32(x)
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		v[0] = 1
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
