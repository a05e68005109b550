package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/textproc"
)

// stubEncoder is a deterministic encoder: letter frequencies, unnormalized
type stubEncoder struct {
	dimension int
	calls     atomic.Int64
	failAfter int64 // fail every call past this count; 0 disables
}

func (s *stubEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	n := s.calls.Add(1)
	if s.failAfter > 0 && n > s.failAfter {
		return nil, errors.New("encoder unavailable")
	}
	vec := make([]float32, s.dimension)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[int(r-'a')%s.dimension]++
		}
	}
	return vec, nil
}

func (s *stubEncoder) Dimension() int { return s.dimension }

func newTestAggregator(t *testing.T, enc *stubEncoder) *Aggregator {
	t.Helper()
	chunker, err := textproc.NewChunker(10, 3)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	return NewAggregator(enc, chunker, 4)
}

func longText(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func TestAggregator_EmbedDocument(t *testing.T) {
	enc := &stubEncoder{dimension: 26}
	agg := newTestAggregator(t, enc)

	vec, chunks, err := agg.EmbedDocument(context.Background(), longText(35))
	if err != nil {
		t.Fatalf("EmbedDocument failed: %v", err)
	}

	if len(vec) != 26 {
		t.Errorf("expected 26-dim vector, got %d", len(vec))
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.SequenceIndex != i {
			t.Errorf("chunk %d has sequence index %d", i, c.SequenceIndex)
		}
		if len(c.Vector) != 26 {
			t.Errorf("chunk %d vector has %d dims", i, len(c.Vector))
		}
	}

	// Document vector is re-normalized
	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit document vector, squared norm %f", norm)
	}
}

func TestAggregator_Idempotent(t *testing.T) {
	text := longText(40)

	first, _, err := newTestAggregator(t, &stubEncoder{dimension: 26}).EmbedDocument(context.Background(), text)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, _, err := newTestAggregator(t, &stubEncoder{dimension: 26}).EmbedDocument(context.Background(), text)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if sim := Cosine(first, second); sim < 1-1e-9 {
		t.Errorf("expected cosine-identical vectors across runs, got similarity %f", sim)
	}
}

func TestAggregator_EncoderFailureAborts(t *testing.T) {
	enc := &stubEncoder{dimension: 26, failAfter: 1}
	agg := newTestAggregator(t, enc)

	vec, chunks, err := agg.EmbedDocument(context.Background(), longText(40))

	var encErr *model.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if vec != nil || chunks != nil {
		t.Error("partial results must not be returned on encoder failure")
	}

	m, ok := agg.MetricsFor(longText(40))
	if !ok {
		t.Fatal("expected metrics for failed run")
	}
	if m.Success || m.ErrorMessage == "" {
		t.Errorf("expected failure metrics, got %+v", m)
	}
}

func TestAggregator_Metrics(t *testing.T) {
	agg := newTestAggregator(t, &stubEncoder{dimension: 26})

	text := longText(25)
	_, _, err := agg.EmbedDocument(context.Background(), text)
	if err != nil {
		t.Fatalf("EmbedDocument failed: %v", err)
	}

	m, ok := agg.MetricsFor(text)
	if !ok {
		t.Fatal("expected metrics")
	}
	if !m.Success {
		t.Error("expected success flag")
	}
	if m.ChunkCount < 2 {
		t.Errorf("expected multiple chunks, got %d", m.ChunkCount)
	}
	if m.InputLength != len(text) {
		t.Errorf("expected input length %d, got %d", len(text), m.InputLength)
	}
}

func TestAggregator_EmptyInput(t *testing.T) {
	agg := newTestAggregator(t, &stubEncoder{dimension: 26})

	_, _, err := agg.EmbedDocument(context.Background(), "  \n ")
	var invalid *model.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError, got %v", err)
	}
}

func TestAggregator_DimensionMismatchIsFatal(t *testing.T) {
	// Encoder lies about its width
	enc := &lyingEncoder{}
	chunker, _ := textproc.NewChunker(10, 3)
	agg := NewAggregator(enc, chunker, 2)

	_, _, err := agg.EmbedDocument(context.Background(), longText(5))
	var cfgErr *model.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}

type lyingEncoder struct{}

func (l *lyingEncoder) Encode(context.Context, string) ([]float32, error) {
	return make([]float32, 3), nil
}

func (l *lyingEncoder) Dimension() int { return 26 }
