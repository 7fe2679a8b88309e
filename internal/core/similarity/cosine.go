// Package similarity scores vectors against each other.
//
// Functions here are pure and deterministic; they are shared by the
// in-process vector index, the pgvector adapter and the hybrid retriever.
package similarity

import "math"

// Cosine returns dot(a,b) / (|a|*|b|), a value in [-1, 1].
// Empty vectors, zero vectors, vectors of different length and vectors with
// non-finite components score 0. A nonzero vector scores exactly 1 against itself.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	// One square root over the product: for a == b this is sqrt(n*n) == n.
	return Clamp(dot / math.Sqrt(normA*normB))
}

// Clamp bounds a similarity reported by any backend to [-1, 1] and maps NaN to 0.
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}

// IsZero reports whether v is empty or has only zero components.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
