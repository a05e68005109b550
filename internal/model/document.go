package model

import "time"

// SourceKind classifies where a document came from
type SourceKind string

const (
	SourceKindStudy   SourceKind = "study"   // Peer-reviewed or preprint scientific study
	SourceKindArticle SourceKind = "article" // News article or other secondary coverage
)

// Chunk is one overlapping window of a document's text together with its
// embedding. Chunks overlap in source text but are stored as independent
// vectors; SequenceIndex is the only ordering information kept.
type Chunk struct {
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	Vector        []float32 `json:"vector,omitempty"`
}

// Document represents one ingested piece of text (study or article).
// Immutable once vectorized except for claim/citation link updates.
type Document struct {
	ID             string     `json:"id"`
	RawText        string     `json:"raw_text"`
	SourceKind     SourceKind `json:"source_kind"`
	Topic          string     `json:"topic,omitempty"`
	Discipline     string     `json:"discipline,omitempty"`
	Chunks         []Chunk    `json:"chunks,omitempty"`
	DocumentVector []float32  `json:"document_vector,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
