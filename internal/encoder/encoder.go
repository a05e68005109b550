// Package encoder defines the semantic encoder boundary: an opaque function
// from text to a fixed-width vector. The pipeline never looks inside.
package encoder

import "context"

// Encoder turns one piece of text into a fixed-dimension vector. Encode must
// be deterministic for identical input; every vector it returns has exactly
// Dimension() elements.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
