package ai

import "math"

// Component is one weighted signal contributing to the pairwise distance:
// the template text or one variable position. Vectors holds one embedding
// per group; a nil vector means the component is inactive for that group
// (the variable is absent or its selected levels are empty).
type Component struct {
	Weight  float64
	Vectors [][]float32
}

// Matrix computes the symmetric n x n weighted cosine distance matrix.
//
// For each pair, only components active on both sides participate, and their
// weights are renormalized to sum to 1 so missing variables never dilute the
// distance. When every active weight is zero the active components share
// uniform weight; when no component is active on both sides the pair is
// infinitely far apart.
func Matrix(n int, components []Component) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := pairDistance(i, j, components)
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

func pairDistance(i, j int, components []Component) float64 {
	type active struct {
		weight   float64
		distance float64
	}
	var parts []active
	var totalWeight float64

	for _, c := range components {
		vi, vj := c.Vectors[i], c.Vectors[j]
		if vi == nil || vj == nil {
			continue
		}
		parts = append(parts, active{
			weight:   c.Weight,
			distance: cosineDistance(vi, vj),
		})
		totalWeight += c.Weight
	}

	if len(parts) == 0 {
		return math.Inf(1)
	}

	var d float64
	if totalWeight == 0 {
		w := 1 / float64(len(parts))
		for _, p := range parts {
			d += w * p.distance
		}
		return d
	}
	for _, p := range parts {
		d += (p.weight / totalWeight) * p.distance
	}
	return d
}

// cosineDistance is 1 minus cosine similarity: 0 for identical directions,
// 1 for orthogonal, 2 for opposite. Zero vectors count as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
