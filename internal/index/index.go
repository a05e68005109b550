// Package index is a brute-force cosine retrieval index. Vectors live in
// insertion order, which doubles as the tie-break for equal scores.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dapperAuteur/kys-rag/internal/embed"
	"github.com/dapperAuteur/kys-rag/internal/model"
)

// Hit is one ranked query result
type Hit struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

type entry struct {
	id       string
	vector   []float32
	metadata map[string]string
}

// Index stores vectors with metadata and answers k-nearest queries by cosine
// similarity. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry        // Insertion order
	position  map[string]int // id -> index into entries
}

// New creates an index for vectors of the given fixed width
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, &model.ConfigurationError{Field: "index.dimension", Reason: "must be positive"}
	}
	return &Index{
		dimension: dimension,
		position:  make(map[string]int),
	}, nil
}

// Upsert inserts or replaces the vector and metadata for id. Replacing keeps
// the original insertion position, so rebuilds reproduce tie ordering.
func (ix *Index) Upsert(id string, vector []float32, metadata map[string]string) error {
	if id == "" {
		return &model.InvalidInputError{Stage: "index upsert", Reason: "empty id"}
	}
	if len(vector) != ix.dimension {
		return &model.ConfigurationError{
			Field:  "index.dimension",
			Reason: fmt.Sprintf("vector has %d dimensions, index expects %d", len(vector), ix.dimension),
		}
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pos, exists := ix.position[id]; exists {
		ix.entries[pos] = entry{id: id, vector: vec, metadata: meta}
		return nil
	}

	ix.position[id] = len(ix.entries)
	ix.entries = append(ix.entries, entry{id: id, vector: vec, metadata: meta})
	return nil
}

// Query returns up to k entries ranked by cosine similarity, descending,
// ties broken by insertion order. minScore is an inclusive floor; filter
// narrows candidates by exact metadata equality before ranking, so k limits
// the post-filter count. An empty index yields an empty result.
func (ix *Index) Query(vector []float32, k int, minScore float64, filter map[string]string) ([]Hit, error) {
	if len(vector) != ix.dimension {
		return nil, &model.RetrievalError{
			Op:  "query",
			Err: fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), ix.dimension),
		}
	}
	if k <= 0 {
		return nil, &model.RetrievalError{Op: "query", Err: fmt.Errorf("k must be positive, got %d", k)}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []Hit
	for _, e := range ix.entries {
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		score := embed.Cosine(vector, e.vector)
		if score < minScore {
			continue
		}
		meta := make(map[string]string, len(e.metadata))
		for key, v := range e.metadata {
			meta[key] = v
		}
		hits = append(hits, Hit{ID: e.id, Score: score, Metadata: meta})
	}

	// Candidates are in insertion order; stable sort preserves it for ties
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Dimension returns the fixed vector width the index accepts
func (ix *Index) Dimension() int { return ix.dimension }

// Len returns the number of stored vectors
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}
