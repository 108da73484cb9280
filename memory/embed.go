package memory

import (
	"context"
	"hash/fnv"
	"math"

	chromem "github.com/philippgille/chromem-go"
)

// LocalEmbedding returns a deterministic hash-based embedding function.
// It carries no semantic signal, but it is stable across runs and needs
// no network or model files, which keeps the agent usable offline and
// makes retrieval tests reproducible.
func LocalEmbedding(dimensions int) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		h := fnv.New64a()
		h.Write([]byte(text))

		// LCG seeded from the text hash.
		seed := h.Sum64()
		embedding := make([]float32, dimensions)
		for i := range embedding {
			seed = seed*6364136223846793005 + 1442695040888963407
			embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
		}

		return normalize(embedding), nil
	}
}

// normalize converts the vector to unit length.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
