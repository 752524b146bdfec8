package onnx

import "math"

// meanPool averages the hidden states of real (non-padding) tokens for each
// sample. hidden is flat [batch * seq * dim], mask is flat [batch * seq];
// the result is flat [batch * dim].
func meanPool(hidden []float32, mask []int64, batchSize, seqLen, dim int64) []float32 {
	out := make([]float32, batchSize*dim)

	for b := int64(0); b < batchSize; b++ {
		maskOff := b * seqLen
		hiddenOff := b * seqLen * dim
		outOff := b * dim

		var count float32
		for s := int64(0); s < seqLen; s++ {
			if mask[maskOff+s] != 1 {
				continue
			}
			count++
			tokOff := hiddenOff + s*dim
			for d := int64(0); d < dim; d++ {
				out[outOff+d] += hidden[tokOff+d]
			}
		}
		if count == 0 {
			continue
		}
		inv := 1 / count
		for d := int64(0); d < dim; d++ {
			out[outOff+d] *= inv
		}
	}
	return out
}

// l2Normalize scales v to unit length in place. Zero vectors are left as-is.
func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
