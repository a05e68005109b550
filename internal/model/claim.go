package model

import "time"

// Claim represents a factual assertion extracted from document text
type Claim struct {
	Text             string `json:"text"`                         // The claim sentence itself
	SourceDocumentID string `json:"source_document_id,omitempty"` // Document the claim was extracted from
	Context          string `json:"context,omitempty"`            // Surrounding sentence window
	Start            int    `json:"start"`                        // Start offset in the normalized text
	End              int    `json:"end"`                          // End offset in the normalized text
	Sentence         int    `json:"sentence"`                     // Sentence index in source (0-based)
}

// EvidenceRef points at an indexed document retrieved as evidence for a claim
type EvidenceRef struct {
	ID              string  `json:"id"`               // Retrieval index id
	Similarity      float64 `json:"similarity"`       // Cosine similarity from retrieval
	SupportStrength float64 `json:"support_strength"` // Second-stage estimator score
}

// ClaimVerification is the result of scoring one claim against retrieved
// evidence. One record per claim per analysis run; never mutated after
// creation, so repeated runs accumulate history.
type ClaimVerification struct {
	Claim                    Claim     `json:"claim"`
	Verified                 bool      `json:"verified"`
	ConfidenceScore          float64   `json:"confidence_score"`
	SupportingEvidenceIDs    []string  `json:"supporting_evidence_ids,omitempty"`
	ContradictingEvidenceIDs []string  `json:"contradicting_evidence_ids,omitempty"`
	CertaintyScore           float64   `json:"certainty_score"`
	Notes                    string    `json:"notes,omitempty"`
	AnalyzedAt               time.Time `json:"analyzed_at"`
}
