// Package store persists documents and claim verifications. The interface
// is deliberately small: put, get by id, and field-equality finds; anything
// richer belongs in the vector index.
package store

import (
	"github.com/dapperAuteur/kys-rag/internal/model"
)

// DocumentStore holds documents keyed by id
type DocumentStore interface {
	PutDocument(doc model.Document) error
	GetDocument(id string) (model.Document, bool, error)
	FindDocuments(filters map[string]string) ([]model.Document, error)
}

// VerificationStore holds claim verification records
type VerificationStore interface {
	PutVerification(v model.ClaimVerification) error
	FindVerifications(documentID string) ([]model.ClaimVerification, error)
}
