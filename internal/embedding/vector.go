// Package embedding turns captured face images into comparable identity vectors.
package embedding

import "math"

// Vector is a fixed-dimension face embedding, L2-normalized after inference.
type Vector []float32

const normEpsilon = 1e-8

// Normalize returns v scaled to unit length. The epsilon keeps a degenerate
// all-zero output from dividing by zero.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon

	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Cosine computes the cosine similarity between two vectors.
// Returns -1 for mismatched or empty inputs. The result is clamped to
// [-1, 1] to absorb floating point error.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}
	return similarity
}
