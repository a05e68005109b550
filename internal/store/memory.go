package store

import (
	"sync"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

// MemoryStore is the in-memory reference implementation. Documents are
// kept in insertion order so finds are reproducible.
type MemoryStore struct {
	mu            sync.RWMutex
	order         []string
	documents     map[string]model.Document
	verifications []model.ClaimVerification
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]model.Document),
	}
}

// PutDocument stores or replaces a document by id
func (s *MemoryStore) PutDocument(doc model.Document) error {
	if doc.ID == "" {
		return &model.InvalidInputError{Stage: "store", Reason: "document id is empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.documents[doc.ID] = doc
	return nil
}

// GetDocument returns the document for id
func (s *MemoryStore) GetDocument(id string) (model.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return doc, ok, nil
}

// FindDocuments returns documents matching every filter. Supported filter
// fields are topic, discipline and source_kind; an empty filter set
// matches everything.
func (s *MemoryStore) FindDocuments(filters map[string]string) ([]model.Document, error) {
	for field := range filters {
		switch field {
		case "topic", "discipline", "source_kind":
		default:
			return nil, &model.InvalidInputError{Stage: "store", Reason: "unsupported filter field: " + field}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Document
	for _, id := range s.order {
		doc := s.documents[id]
		if matchesDocument(doc, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func matchesDocument(doc model.Document, filters map[string]string) bool {
	for field, want := range filters {
		var have string
		switch field {
		case "topic":
			have = doc.Topic
		case "discipline":
			have = doc.Discipline
		case "source_kind":
			have = string(doc.SourceKind)
		}
		if have != want {
			return false
		}
	}
	return true
}

// PutVerification appends a claim verification record
func (s *MemoryStore) PutVerification(v model.ClaimVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications = append(s.verifications, v)
	return nil
}

// FindVerifications returns verifications whose claim came from the given
// document. An empty documentID returns all records.
func (s *MemoryStore) FindVerifications(documentID string) ([]model.ClaimVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ClaimVerification
	for _, v := range s.verifications {
		if documentID == "" || v.Claim.SourceDocumentID == documentID {
			out = append(out, v)
		}
	}
	return out, nil
}
