package verify

import (
	"context"
	"strings"
	"sync"

	"github.com/dapperAuteur/kys-rag/internal/index"
	"github.com/dapperAuteur/kys-rag/internal/model"
)

// QueryIndex is the slice of the retrieval index the resolver needs
type QueryIndex interface {
	Query(vector []float32, k int, minScore float64, filter map[string]string) ([]index.Hit, error)
}

// QueryEmbedder embeds short query text as a single vector
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SupportScorer estimates how strongly a retrieved candidate supports a
// framing of the claim. Second stage after retrieval; injected so tests and
// alternative models can replace the heuristic.
type SupportScorer interface {
	Score(claim string, hit index.Hit) float64
}

// Resolver retrieves supporting and contradicting evidence for a claim. Both
// framings run the same two-stage process: similarity retrieval with a
// floor, then re-scoring with the support-strength estimator against a
// stricter floor. Contradicting evidence is retrieved with a negated framing
// of the claim built from a fixed polarity-flip table (prefix template when
// no listed term occurs). A candidate may appear in both lists; the
// ambiguity is surfaced to the confidence scorer, not resolved here.
type Resolver struct {
	idx             QueryIndex
	embedder        QueryEmbedder
	scorer          SupportScorer
	similarityFloor float64
	supportFloor    float64
	maxEvidence     int
	polarityFlips   []model.PolarityPair
	negationPrefix  string
}

// NewResolver creates a resolver from configuration
func NewResolver(idx QueryIndex, embedder QueryEmbedder, scorer SupportScorer, cfg model.VerificationConfig) *Resolver {
	if scorer == nil {
		scorer = &lexicalSupportScorer{similarityBlend: cfg.SimilarityBlend}
	}
	return &Resolver{
		idx:             idx,
		embedder:        embedder,
		scorer:          scorer,
		similarityFloor: cfg.SimilarityFloor,
		supportFloor:    cfg.SupportFloor,
		maxEvidence:     cfg.MaxEvidence,
		polarityFlips:   cfg.PolarityFlips,
		negationPrefix:  cfg.NegationPrefix,
	}
}

// Resolve returns supporting and contradicting evidence for the claim. The
// two sub-queries are independent and run concurrently.
func (r *Resolver) Resolve(ctx context.Context, claim model.Claim) (supporting, contradicting []model.EvidenceRef, err error) {
	var wg sync.WaitGroup
	var supErr, conErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		supporting, supErr = r.resolveFraming(ctx, claim.Text, claim.Text)
	}()
	go func() {
		defer wg.Done()
		negated := r.NegatedFraming(claim.Text)
		contradicting, conErr = r.resolveFraming(ctx, claim.Text, negated)
	}()
	wg.Wait()

	if supErr != nil {
		return nil, nil, supErr
	}
	if conErr != nil {
		return nil, nil, conErr
	}
	return supporting, contradicting, nil
}

// resolveFraming runs retrieval for one framing and re-scores candidates
func (r *Resolver) resolveFraming(ctx context.Context, claimText, framing string) ([]model.EvidenceRef, error) {
	vec, err := r.embedder.EmbedQuery(ctx, framing)
	if err != nil {
		return nil, err
	}

	hits, err := r.idx.Query(vec, r.maxEvidence, r.similarityFloor, nil)
	if err != nil {
		if _, ok := err.(*model.RetrievalError); ok {
			return nil, err
		}
		return nil, &model.RetrievalError{Op: "evidence query", Err: err}
	}

	var refs []model.EvidenceRef
	for _, hit := range hits {
		strength := r.scorer.Score(claimText, hit)
		if strength < r.supportFloor {
			continue
		}
		refs = append(refs, model.EvidenceRef{
			ID:              hit.ID,
			Similarity:      hit.Score,
			SupportStrength: strength,
		})
	}
	return refs, nil
}

// NegatedFraming builds the opposing-polarity query text for a claim. Each
// term in the flip table is replaced word-wise; if no term occurs, the
// configured negation prefix is prepended instead.
func (r *Resolver) NegatedFraming(text string) string {
	words := strings.Fields(text)
	flipped := false

	for i, w := range words {
		stripped := strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]"))
		for _, pair := range r.polarityFlips {
			if stripped == pair.From {
				words[i] = strings.Replace(strings.ToLower(w), pair.From, pair.To, 1)
				flipped = true
				break
			}
		}
	}

	if !flipped {
		return r.negationPrefix + " " + text
	}
	return strings.Join(words, " ")
}

// lexicalSupportScorer blends retrieval similarity with token overlap
// between claim and candidate excerpt. Crude, but deterministic and cheap;
// anything smarter plugs in through SupportScorer.
type lexicalSupportScorer struct {
	similarityBlend float64
}

func (s *lexicalSupportScorer) Score(claim string, hit index.Hit) float64 {
	sim := hit.Score
	if sim < 0 {
		sim = 0
	}

	overlap := tokenOverlap(claim, hit.Metadata["excerpt"])
	return s.similarityBlend*sim + (1-s.similarityBlend)*overlap
}

// tokenOverlap returns the fraction of claim tokens present in the excerpt
func tokenOverlap(claim, excerpt string) float64 {
	claimTokens := tokenize(claim)
	if len(claimTokens) == 0 {
		return 0
	}

	excerptSet := make(map[string]bool)
	for _, t := range tokenize(excerpt) {
		excerptSet[t] = true
	}

	matched := 0
	for _, t := range claimTokens {
		if excerptSet[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(claimTokens))
}
