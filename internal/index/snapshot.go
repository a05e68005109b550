package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

type snapshotEntry struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type snapshot struct {
	Dimension int             `json:"dimension"`
	Entries   []snapshotEntry `json:"entries"`
}

// Snapshot writes the index to path as JSON, preserving insertion order so a
// reload reproduces neighbor ordering including tie-breaks.
func (ix *Index) Snapshot(path string) error {
	ix.mu.RLock()
	snap := snapshot{Dimension: ix.dimension, Entries: make([]snapshotEntry, len(ix.entries))}
	for i, e := range ix.entries {
		snap.Entries[i] = snapshotEntry{ID: e.id, Vector: e.vector, Metadata: e.metadata}
	}
	ix.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load rebuilds an index from a snapshot file
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	ix, err := New(snap.Dimension)
	if err != nil {
		return nil, err
	}
	for _, e := range snap.Entries {
		if len(e.Vector) != snap.Dimension {
			return nil, &model.ConfigurationError{
				Field:  "index.dimension",
				Reason: fmt.Sprintf("snapshot entry %s has %d dimensions, expected %d", e.ID, len(e.Vector), snap.Dimension),
			}
		}
		if err := ix.Upsert(e.ID, e.Vector, e.Metadata); err != nil {
			return nil, err
		}
	}
	return ix, nil
}
