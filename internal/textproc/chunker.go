package textproc

import (
	"strings"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

// Chunker splits text into overlapping fixed-size word windows. Each window
// after the first begins overlap words before the previous window's end, so
// adjacent chunks share exactly overlap words of context.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Overlap must be smaller than the chunk size
// or windows would never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, &model.ConfigurationError{Field: "chunking.chunk_size", Reason: "must be positive"}
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, &model.ConfigurationError{Field: "chunking.overlap", Reason: "must be in [0, chunk_size)"}
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into ordered chunk texts. Text shorter than the chunk
// size yields exactly one chunk equal to the whole text; the final chunk may
// be shorter than chunkSize. Empty text is the caller's fault.
func (c *Chunker) Chunk(text string) ([]string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, &model.InvalidInputError{Stage: "chunk", Reason: "empty text"}
	}

	step := c.chunkSize - c.overlap
	var chunks []string
	for i := 0; ; i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
