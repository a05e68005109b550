// Package verify scores extracted claims against retrieved evidence
package verify

import "strings"

// CertaintyAnalyzer scores linguistic hedging vs. assertiveness in claim
// text. Term lists come from configuration.
type CertaintyAnalyzer struct {
	hedging   []string
	assertive []string
}

// NewCertaintyAnalyzer creates an analyzer with the given term lists
func NewCertaintyAnalyzer(hedging, assertive []string) *CertaintyAnalyzer {
	return &CertaintyAnalyzer{
		hedging:   lowerAll(hedging),
		assertive: lowerAll(assertive),
	}
}

// Score returns assertive/(assertive+hedging) in [0, 1]. Text matching
// neither list scores exactly 0.5, the neutral default.
func (a *CertaintyAnalyzer) Score(text string) float64 {
	words := tokenize(text)

	hedgingCount := countMatches(words, a.hedging)
	assertiveCount := countMatches(words, a.assertive)

	if hedgingCount+assertiveCount == 0 {
		return 0.5
	}
	return float64(assertiveCount) / float64(assertiveCount+hedgingCount)
}

// tokenize lowercases and strips punctuation from each word
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".,;:!?\"'()[]")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func countMatches(words, terms []string) int {
	count := 0
	for _, w := range words {
		for _, t := range terms {
			if w == t {
				count++
				break
			}
		}
	}
	return count
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
