package encoder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEncoder is a deterministic, dependency-free encoder: each token is
// hashed into a handful of vector positions and the result is L2-normalized.
// It captures lexical overlap only, which is enough for offline use and for
// exercising the pipeline without an API key.
type LocalEncoder struct {
	dimension int
}

// NewLocalEncoder creates a local hashing encoder
func NewLocalEncoder(dimension int) *LocalEncoder {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalEncoder{dimension: dimension}
}

// Encode embeds text by hashed token counts
func (e *LocalEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?\"'()[]")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// Dimension returns the fixed output width
func (e *LocalEncoder) Dimension() int { return e.dimension }
