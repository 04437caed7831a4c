package index

import "math"

// CosineSimilarity returns dot(a,b)/(|a||b|). Mismatched or empty vectors
// and zero-magnitude vectors score 0 rather than erroring, so a single bad
// entry cannot poison a whole query.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
