package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/textproc"
)

// Indexer defines the interface for ingesting one document
type Indexer interface {
	IndexDocument(ctx context.Context, doc model.Document) (string, error)
}

// IngestJob reads one file and indexes its contents as a document. HTML
// files are reduced to visible text first.
type IngestJob struct {
	Path       string
	SourceKind model.SourceKind
	Topic      string
	Discipline string
	Indexer    Indexer
}

// Execute executes the ingest job
func (j *IngestJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &IngestResult{Path: j.Path, Err: err}
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &IngestResult{Path: j.Path, Err: fmt.Errorf("read file: %w", err)}
	}

	text := string(data)
	if strings.EqualFold(filepath.Ext(j.Path), ".html") {
		text, err = textproc.StripHTML(text)
		if err != nil {
			return &IngestResult{Path: j.Path, Err: fmt.Errorf("strip html: %w", err)}
		}
	}

	id, err := j.Indexer.IndexDocument(ctx, model.Document{
		RawText:    text,
		SourceKind: j.SourceKind,
		Topic:      j.Topic,
		Discipline: j.Discipline,
	})
	return &IngestResult{Path: j.Path, DocumentID: id, Err: err}
}

// IngestResult represents the result of one ingest job
type IngestResult struct {
	Path       string
	DocumentID string
	Err        error
}

// GetError returns the error from the ingest result
func (r *IngestResult) GetError() error { return r.Err }

// BatchProcessor ingests multiple files concurrently
type BatchProcessor struct {
	indexer     Indexer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(indexer Indexer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		indexer:     indexer,
		concurrency: concurrency,
	}
}

// ProcessPaths ingests the given files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string, kind model.SourceKind, topic, discipline string) []*IngestResult {
	if len(paths) == 0 {
		return []*IngestResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&IngestJob{
			Path:       path,
			SourceKind: kind,
			Topic:      topic,
			Discipline: discipline,
			Indexer:    b.indexer,
		})
	}

	results := pool.Wait()

	ingestResults := make([]*IngestResult, len(results))
	for i, result := range results {
		ingestResults[i] = result.(*IngestResult)
	}

	return ingestResults
}

// ProcessManifest reads file paths from a manifest (one per line, # comments
// allowed) and ingests them concurrently.
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string, kind model.SourceKind, topic, discipline string) ([]*IngestResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPaths(ctx, paths, kind, topic, discipline), nil
}

// ReadPathsFromFile reads file paths from a file (one per line)
func ReadPathsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
