package embedding

import (
	"context"
	"crypto/md5"
)

// hashDimensions is the fixed size of fallback vectors: one component per
// MD5 digest byte.
const hashDimensions = 16

// HashEmbedder is a deterministic pseudo-embedder used when no cloud
// credential is configured. It maps each byte of the MD5 digest of the text
// to a float in [0,1]. The vectors are reproducible for identical input but
// carry no semantic meaning; they exist so the rest of the pipeline stays
// exercisable without external credentials.
type HashEmbedder struct{}

// NewHashEmbedder returns the hash fallback embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed returns the deterministic pseudo-embedding for text. It never fails,
// including for empty input.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := md5.Sum([]byte(text))
	vec := make([]float32, hashDimensions)
	for i, b := range sum {
		vec[i] = float32(b) / 255
	}
	return vec, nil
}

// Dimensions returns the fallback vector size.
func (e *HashEmbedder) Dimensions() int {
	return hashDimensions
}

// Provider returns ProviderHash.
func (e *HashEmbedder) Provider() Provider {
	return ProviderHash
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
