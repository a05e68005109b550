package verify

// ConfidenceScorer combines evidence counts and certainty into one bounded
// score. A deliberately simple linear model: identical inputs always produce
// identical outputs, so every score is auditable after the fact.
type ConfidenceScorer struct {
	base           float64
	supportStep    float64
	contradictStep float64
}

// NewConfidenceScorer creates a scorer from the configured weights
func NewConfidenceScorer(base, supportStep, contradictStep float64) *ConfidenceScorer {
	return &ConfidenceScorer{
		base:           base,
		supportStep:    supportStep,
		contradictStep: contradictStep,
	}
}

// Score returns clamp01((base + step·supporting − step·contradicting) ·
// certainty). Clamping guards the [0, 1] contract whatever the intermediate
// arithmetic does.
func (s *ConfidenceScorer) Score(supporting, contradicting int, certainty float64) float64 {
	value := s.base
	value += s.supportStep * float64(supporting)
	value -= s.contradictStep * float64(contradicting)
	value *= certainty

	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// Verified reports whether a claim counts as verified: a discrete
// evidence-presence gate, independent of the numeric confidence.
func Verified(supporting int) bool {
	return supporting > 0
}
