package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dapperAuteur/kys-rag/internal/index"
	"github.com/dapperAuteur/kys-rag/internal/model"
)

// fakeIndex returns canned hits depending on the query vector's first element
type fakeIndex struct {
	supportHits    []index.Hit
	contradictHits []index.Hit
	err            error
}

func (f *fakeIndex) Query(vector []float32, k int, minScore float64, filter map[string]string) ([]index.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	hits := f.supportHits
	if vector[0] < 0 {
		hits = f.contradictHits
	}
	var out []index.Hit
	for _, h := range hits {
		if h.Score >= minScore {
			out = append(out, h)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// fakeEmbedder marks negated framings with a negative first element
type fakeEmbedder struct{}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	for _, marker := range []string{"against the claim", "decreases", "worsens", "removes"} {
		if strings.Contains(text, marker) {
			return []float32{-1, 0}, nil
		}
	}
	return []float32{1, 0}, nil
}

// fixedScorer returns a constant support strength
type fixedScorer struct{ strength float64 }

func (s *fixedScorer) Score(string, index.Hit) float64 { return s.strength }

func newTestResolver(idx QueryIndex, scorer SupportScorer) *Resolver {
	return NewResolver(idx, &fakeEmbedder{}, scorer, model.DefaultConfig().Verification)
}

func TestResolver_TwoStageFiltering(t *testing.T) {
	idx := &fakeIndex{
		supportHits: []index.Hit{
			{ID: "strong", Score: 0.9},
			{ID: "weak", Score: 0.75},
			{ID: "below-floor", Score: 0.5}, // Filtered by similarity floor
		},
	}

	// Estimator keeps only the strong candidate
	scorer := &thresholdScorer{keep: map[string]float64{"strong": 0.85, "weak": 0.6}}
	r := newTestResolver(idx, scorer)

	supporting, contradicting, err := r.Resolve(context.Background(), model.Claim{Text: "coffee improves memory"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(supporting) != 1 || supporting[0].ID != "strong" {
		t.Errorf("expected only strong candidate, got %v", supporting)
	}
	if supporting[0].SupportStrength != 0.85 {
		t.Errorf("expected estimator strength recorded, got %f", supporting[0].SupportStrength)
	}
	if len(contradicting) != 0 {
		t.Errorf("expected no contradicting evidence, got %v", contradicting)
	}
}

type thresholdScorer struct{ keep map[string]float64 }

func (s *thresholdScorer) Score(_ string, hit index.Hit) float64 { return s.keep[hit.ID] }

func TestResolver_ContradictingFraming(t *testing.T) {
	idx := &fakeIndex{
		contradictHits: []index.Hit{{ID: "counter-study", Score: 0.8}},
	}
	r := newTestResolver(idx, &fixedScorer{strength: 0.9})

	supporting, contradicting, err := r.Resolve(context.Background(), model.Claim{Text: "coffee increases lifespan"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(supporting) != 0 {
		t.Errorf("expected no supporting evidence, got %v", supporting)
	}
	if len(contradicting) != 1 || contradicting[0].ID != "counter-study" {
		t.Errorf("expected counter-study, got %v", contradicting)
	}
}

func TestResolver_NoMutualExclusivity(t *testing.T) {
	hit := index.Hit{ID: "ambiguous", Score: 0.85}
	idx := &fakeIndex{
		supportHits:    []index.Hit{hit},
		contradictHits: []index.Hit{hit},
	}
	r := newTestResolver(idx, &fixedScorer{strength: 0.9})

	supporting, contradicting, err := r.Resolve(context.Background(), model.Claim{Text: "coffee increases lifespan"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(supporting) != 1 || len(contradicting) != 1 {
		t.Errorf("a candidate may appear in both lists: %v / %v", supporting, contradicting)
	}
}

func TestResolver_IndexErrorSurfaces(t *testing.T) {
	idx := &fakeIndex{err: &model.RetrievalError{Op: "query", Err: errors.New("index down")}}
	r := newTestResolver(idx, &fixedScorer{strength: 0.9})

	_, _, err := r.Resolve(context.Background(), model.Claim{Text: "anything at all"})
	var retErr *model.RetrievalError
	if !errors.As(err, &retErr) {
		t.Errorf("expected RetrievalError, got %v", err)
	}
}

func TestNegatedFraming_PolarityFlip(t *testing.T) {
	r := newTestResolver(&fakeIndex{}, nil)

	got := r.NegatedFraming("Coffee increases lifespan")
	if !strings.Contains(got, "decreases") {
		t.Errorf("expected polarity flip, got %q", got)
	}
	if strings.Contains(got, "increases") {
		t.Errorf("original polarity term should be replaced: %q", got)
	}
}

func TestNegatedFraming_PrefixFallback(t *testing.T) {
	r := newTestResolver(&fakeIndex{}, nil)

	claim := "the moon is made of cheese"
	got := r.NegatedFraming(claim)
	if !strings.HasPrefix(got, "evidence against the claim that") || !strings.Contains(got, claim) {
		t.Errorf("expected prefix template fallback, got %q", got)
	}
}

func TestNegatedFraming_Deterministic(t *testing.T) {
	r := newTestResolver(&fakeIndex{}, nil)

	first := r.NegatedFraming("smoking causes cancer and raises risk")
	for i := 0; i < 10; i++ {
		if got := r.NegatedFraming("smoking causes cancer and raises risk"); got != first {
			t.Fatalf("negated framing must be deterministic: %q != %q", got, first)
		}
	}
}

func TestLexicalSupportScorer(t *testing.T) {
	s := &lexicalSupportScorer{similarityBlend: 0.6}

	full := s.Score("coffee extends life", index.Hit{
		Score:    1.0,
		Metadata: map[string]string{"excerpt": "coffee extends life in trials"},
	})
	if full < 0.99 {
		t.Errorf("perfect similarity and overlap should score ~1.0, got %f", full)
	}

	none := s.Score("coffee extends life", index.Hit{Score: 0, Metadata: nil})
	if none != 0 {
		t.Errorf("no similarity and no overlap should score 0, got %f", none)
	}
}
