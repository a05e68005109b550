// Package embed turns arbitrary-length text into one fixed-width document
// vector: normalize, chunk, encode each chunk, mean-pool, re-normalize.
package embed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/encoder"
	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/textproc"
)

// metricsKeyLen bounds the metrics map key; collisions only blur
// observability, never correctness.
const metricsKeyLen = 64

// Metrics tracks one EmbedDocument call
type Metrics struct {
	ChunkCount   int
	Duration     time.Duration
	InputLength  int
	Success      bool
	ErrorMessage string
}

// Aggregator embeds documents chunk by chunk and combines the results
type Aggregator struct {
	encoder     encoder.Encoder
	chunker     *textproc.Chunker
	maxParallel int

	mu      sync.Mutex
	metrics map[string]Metrics
}

// NewAggregator creates an aggregator. maxParallel bounds concurrent encoder
// calls per document.
func NewAggregator(enc encoder.Encoder, chunker *textproc.Chunker, maxParallel int) *Aggregator {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Aggregator{
		encoder:     enc,
		chunker:     chunker,
		maxParallel: maxParallel,
		metrics:     make(map[string]Metrics),
	}
}

// EmbedDocument normalizes and chunks text, encodes every chunk, and returns
// the re-normalized mean vector together with the per-chunk records. Chunk
// vectors are computed concurrently; the aggregate is only produced once all
// of them have succeeded, so callers never see a partial document vector.
func (a *Aggregator) EmbedDocument(ctx context.Context, text string) ([]float32, []model.Chunk, error) {
	start := time.Now()

	normalized := textproc.Normalize(text)
	chunkTexts, err := a.chunker.Chunk(normalized)
	if err != nil {
		a.record(text, Metrics{InputLength: len(text), Duration: time.Since(start), ErrorMessage: err.Error()})
		return nil, nil, err
	}

	vectors := make([][]float32, len(chunkTexts))
	errs := make([]error, len(chunkTexts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.maxParallel)

	for i, chunkText := range chunkTexts {
		wg.Add(1)
		go func(idx int, ct string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			vec, encErr := a.encoder.Encode(ctx, ct)
			if encErr != nil {
				errs[idx] = encErr
				return
			}
			if len(vec) != a.encoder.Dimension() {
				errs[idx] = &model.ConfigurationError{
					Field:  "encoder.dimension",
					Reason: fmt.Sprintf("chunk %d: got %d dimensions, expected %d", idx, len(vec), a.encoder.Dimension()),
				}
				return
			}
			vectors[idx] = L2Normalize(vec)
		}(i, chunkText)
	}
	wg.Wait()

	// One failed chunk aborts the whole aggregation; partial vectors are
	// never returned.
	for i, encErr := range errs {
		if encErr != nil {
			a.record(text, Metrics{
				ChunkCount:   len(chunkTexts),
				InputLength:  len(text),
				Duration:     time.Since(start),
				ErrorMessage: encErr.Error(),
			})
			switch encErr.(type) {
			case *model.ConfigurationError, *model.EncodingError:
				return nil, nil, encErr
			}
			return nil, nil, &model.EncodingError{Stage: fmt.Sprintf("embed chunk %d", i), Err: encErr}
		}
	}

	docVector := L2Normalize(Mean(vectors))

	chunks := make([]model.Chunk, len(chunkTexts))
	for i, ct := range chunkTexts {
		chunks[i] = model.Chunk{SequenceIndex: i, Text: ct, Vector: vectors[i]}
	}

	a.record(text, Metrics{
		ChunkCount:  len(chunkTexts),
		InputLength: len(text),
		Duration:    time.Since(start),
		Success:     true,
	})

	return docVector, chunks, nil
}

// EmbedQuery embeds a short query as a single normalized vector
func (a *Aggregator) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	normalized := textproc.Normalize(text)
	if normalized == "" {
		return nil, &model.InvalidInputError{Stage: "embed query", Reason: "empty text"}
	}

	vec, err := a.encoder.Encode(ctx, normalized)
	if err != nil {
		if _, ok := err.(*model.EncodingError); ok {
			return nil, err
		}
		return nil, &model.EncodingError{Stage: "embed query", Err: err}
	}
	if len(vec) != a.encoder.Dimension() {
		return nil, &model.ConfigurationError{
			Field:  "encoder.dimension",
			Reason: fmt.Sprintf("got %d dimensions, expected %d", len(vec), a.encoder.Dimension()),
		}
	}

	return L2Normalize(vec), nil
}

// MetricsFor returns the recorded metrics for an input, if any
func (a *Aggregator) MetricsFor(text string) (Metrics, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.metrics[metricsKey(text)]
	return m, ok
}

func (a *Aggregator) record(text string, m Metrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics[metricsKey(text)] = m
}

func metricsKey(text string) string {
	if len(text) > metricsKeyLen {
		return text[:metricsKeyLen]
	}
	return text
}
