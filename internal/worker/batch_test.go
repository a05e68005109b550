package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

type fakeIndexer struct {
	mu   sync.Mutex
	docs []model.Document
}

func (f *fakeIndexer) IndexDocument(ctx context.Context, doc model.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return "doc-1", nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	dir := t.TempDir()

	paths := make([]string, 3)
	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("some study text for "+name), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		paths[i] = path
	}

	indexer := &fakeIndexer{}
	processor := NewBatchProcessor(indexer, 2)

	results := processor.ProcessPaths(context.Background(), paths, model.SourceKindStudy, "coffee", "nutrition")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("unexpected error for %s: %v", r.Path, r.GetError())
		}
	}
	if len(indexer.docs) != 3 {
		t.Errorf("expected 3 indexed documents, got %d", len(indexer.docs))
	}
	for _, doc := range indexer.docs {
		if doc.SourceKind != model.SourceKindStudy || doc.Topic != "coffee" {
			t.Errorf("metadata not carried through: %+v", doc)
		}
	}
}

func TestBatchProcessor_HTMLInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "article.html")
	page := "<html><body><p>Visible article text.</p><script>junk()</script></body></html>"
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	indexer := &fakeIndexer{}
	processor := NewBatchProcessor(indexer, 1)

	results := processor.ProcessPaths(context.Background(), []string{path}, model.SourceKindArticle, "", "")
	if len(results) != 1 || results[0].GetError() != nil {
		t.Fatalf("unexpected results: %+v", results)
	}
	if indexer.docs[0].RawText != "Visible article text." {
		t.Errorf("expected stripped HTML, got %q", indexer.docs[0].RawText)
	}
}

func TestBatchProcessor_CancelledContextStopsIngestion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("some study text"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	indexer := &fakeIndexer{}
	processor := NewBatchProcessor(indexer, 2)

	results := processor.ProcessPaths(ctx, []string{path}, model.SourceKindStudy, "", "")

	for _, r := range results {
		if r.GetError() == nil {
			t.Errorf("expected no successful ingest after cancellation, got %+v", r)
		}
	}
	if len(indexer.docs) != 0 {
		t.Errorf("expected indexer untouched after cancellation, got %d documents", len(indexer.docs))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.txt")
	content := "a.txt\n# comment\n\nb.txt\na.txt\n"
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	paths, err := ReadPathsFromFile(manifest)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.txt" || paths[1] != "b.txt" {
		t.Errorf("expected deduped [a.txt b.txt], got %v", paths)
	}
}
