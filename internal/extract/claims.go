// Package extract scans normalized text for claim-like sentences
package extract

import (
	"strings"
	"unicode"

	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/textproc"
)

// Extractor scores sentences for claim likelihood using three feature
// signals: quantifiers, causal verbs and statistical terms. Term lists,
// weights and threshold come from configuration.
type Extractor struct {
	threshold        float64
	quantifierWeight float64
	causalWeight     float64
	statWeight       float64
	quantifiers      []string
	causalVerbs      []string
	statisticalTerms []string
	contextWindow    int
}

// NewExtractor creates an extractor from configuration
func NewExtractor(cfg model.ExtractionConfig) *Extractor {
	window := cfg.ContextWindow
	if window < 0 {
		window = 0
	}
	return &Extractor{
		threshold:        cfg.Threshold,
		quantifierWeight: cfg.QuantifierWeight,
		causalWeight:     cfg.CausalWeight,
		statWeight:       cfg.StatWeight,
		quantifiers:      lowerAll(cfg.Quantifiers),
		causalVerbs:      lowerAll(cfg.CausalVerbs),
		statisticalTerms: lowerAll(cfg.StatisticalTerms),
		contextWindow:    window,
	}
}

// Extract returns the claim-like sentences of text with surrounding context
// attached. Finding no claims is a valid empty result.
func (e *Extractor) Extract(text string) ([]model.Claim, error) {
	normalized := textproc.Normalize(text)
	sentences := textproc.SplitSentences(normalized)

	var claims []model.Claim
	for i, sentence := range sentences {
		if e.Score(sentence.Text) < e.threshold {
			continue
		}
		claims = append(claims, model.Claim{
			Text:     sentence.Text,
			Context:  e.context(sentences, i),
			Start:    sentence.Start,
			End:      sentence.End,
			Sentence: i,
		})
	}

	return dedupeClaims(claims), nil
}

// Score returns the claim likelihood of one sentence in [0, 1]
func (e *Extractor) Score(sentence string) float64 {
	lower := strings.ToLower(sentence)

	var score float64
	if containsAny(lower, e.quantifiers) || containsDigit(lower) {
		score += e.quantifierWeight
	}
	if containsAny(lower, e.causalVerbs) {
		score += e.causalWeight
	}
	if containsAny(lower, e.statisticalTerms) {
		score += e.statWeight
	}
	if score > 1 {
		score = 1
	}
	return score
}

// context joins the sentences within the configured window around index i
func (e *Extractor) context(sentences []textproc.Sentence, i int) string {
	lo := i - e.contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + e.contextWindow + 1
	if hi > len(sentences) {
		hi = len(sentences)
	}

	parts := make([]string, 0, hi-lo)
	for _, s := range sentences[lo:hi] {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
