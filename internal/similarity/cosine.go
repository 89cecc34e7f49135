package similarity

import "math"

// Cosine returns the cosine similarity of two embedding vectors, clamped to
// [0, 1]. Mismatched lengths are compared over the shared prefix
// min(len(a), len(b)); a zero-magnitude vector yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		magA += va * va
		magB += vb * vb
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))

	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}

	return sim
}
