package textproc

import "strings"

// Sentence is one sentence of normalized text with its byte offsets
type Sentence struct {
	Text  string
	Start int
	End   int
}

// SplitSentences splits normalized text into sentences. A sentence ends at
// '.', '!' or '?' followed by whitespace or end of input; this keeps most
// abbreviations intact without a language model.
func SplitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0

	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			offset := start + strings.Index(raw, trimmed)
			sentences = append(sentences, Sentence{
				Text:  trimmed,
				Start: offset,
				End:   offset + len(trimmed),
			})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				flush(i + 1)
			}
		}
	}
	if start < len(text) {
		flush(len(text))
	}

	return sentences
}
