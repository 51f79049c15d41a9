// Package embedding produces deterministic placeholder vectors. A sha256
// digest of the seed is tiled across the vector and scaled into [-1, 1], so
// equal inputs always embed identically regardless of process or host.
package embedding

import "crypto/sha256"

const Dimensions = 512

// FromSeed expands the seed into a fixed-size vector.
func FromSeed(seed string) []float64 {
	digest := sha256.Sum256([]byte(seed))
	vector := make([]float64, Dimensions)
	for i := range vector {
		b := digest[i%len(digest)]
		vector[i] = (float64(b)/255.0 - 0.5) * 2.0
	}
	return vector
}
