package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

func sampleDoc(id, topic, discipline string, kind model.SourceKind) model.Document {
	return model.Document{
		ID:         id,
		RawText:    "text for " + id,
		SourceKind: kind,
		Topic:      topic,
		Discipline: discipline,
		CreatedAt:  time.Now(),
	}
}

func TestMemoryStore_PutGetReplace(t *testing.T) {
	s := NewMemoryStore()

	doc := sampleDoc("d1", "nutrition", "medicine", model.SourceKindStudy)
	if err := s.PutDocument(doc); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}

	got, ok, err := s.GetDocument("d1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got.Topic != "nutrition" {
		t.Errorf("expected topic nutrition, got %q", got.Topic)
	}

	// Replace keeps a single record
	doc.Topic = "sleep"
	if err := s.PutDocument(doc); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	docs, err := s.FindDocuments(nil)
	if err != nil {
		t.Fatalf("FindDocuments failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Topic != "sleep" {
		t.Errorf("expected one updated document, got %+v", docs)
	}

	if _, ok, _ := s.GetDocument("missing"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	s := NewMemoryStore()

	err := s.PutDocument(model.Document{})
	var invalid *model.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError, got %v", err)
	}
}

func TestMemoryStore_FindByFilters(t *testing.T) {
	s := NewMemoryStore()
	_ = s.PutDocument(sampleDoc("d1", "coffee", "medicine", model.SourceKindStudy))
	_ = s.PutDocument(sampleDoc("d2", "coffee", "medicine", model.SourceKindArticle))
	_ = s.PutDocument(sampleDoc("d3", "sleep", "medicine", model.SourceKindStudy))

	docs, err := s.FindDocuments(map[string]string{"topic": "coffee", "source_kind": "study"})
	if err != nil {
		t.Fatalf("FindDocuments failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("expected only d1, got %+v", docs)
	}

	// Insertion order is preserved
	all, _ := s.FindDocuments(map[string]string{"discipline": "medicine"})
	if len(all) != 3 || all[0].ID != "d1" || all[2].ID != "d3" {
		t.Errorf("expected insertion order d1..d3, got %+v", all)
	}

	if _, err := s.FindDocuments(map[string]string{"color": "red"}); err == nil {
		t.Error("expected error for unsupported filter field")
	}
}

func TestMemoryStore_Verifications(t *testing.T) {
	s := NewMemoryStore()

	v1 := model.ClaimVerification{
		Claim:      model.Claim{Text: "coffee improves recall", SourceDocumentID: "d1"},
		Verified:   true,
		AnalyzedAt: time.Now(),
	}
	v2 := model.ClaimVerification{
		Claim:      model.Claim{Text: "sleep reduces stress", SourceDocumentID: "d2"},
		AnalyzedAt: time.Now(),
	}
	_ = s.PutVerification(v1)
	_ = s.PutVerification(v2)

	got, err := s.FindVerifications("d1")
	if err != nil {
		t.Fatalf("FindVerifications failed: %v", err)
	}
	if len(got) != 1 || got[0].Claim.Text != "coffee improves recall" {
		t.Fatalf("expected d1 verification, got %+v", got)
	}

	all, _ := s.FindVerifications("")
	if len(all) != 2 {
		t.Errorf("expected all verifications, got %d", len(all))
	}
}
