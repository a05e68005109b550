// Package pipeline orchestrates the full flow: ingest, embed, index,
// search and claim verification, behind a single facade the CLI drives.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/admission"
	"github.com/dapperAuteur/kys-rag/internal/cache"
	"github.com/dapperAuteur/kys-rag/internal/embed"
	"github.com/dapperAuteur/kys-rag/internal/encoder"
	"github.com/dapperAuteur/kys-rag/internal/extract"
	"github.com/dapperAuteur/kys-rag/internal/index"
	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/store"
	"github.com/dapperAuteur/kys-rag/internal/textproc"
	"github.com/dapperAuteur/kys-rag/internal/verify"
	"github.com/dapperAuteur/kys-rag/internal/worker"
)

// excerptLen bounds the excerpt stored as index metadata
const excerptLen = 240

// Pipeline wires the embedding aggregator, retrieval index, verifier,
// admission controller, document store and lookup cache together
type Pipeline struct {
	config     *model.Config
	aggregator *embed.Aggregator
	idx        *index.Index
	verifier   *verify.Verifier
	controller *admission.Controller
	docs       *store.MemoryStore
	lookup     *cache.Lookup
	logger     *slog.Logger
}

// NewPipeline creates a pipeline from configuration. The encoder provider,
// cache directories and index snapshot all come from cfg.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var enc encoder.Encoder
	switch cfg.Encoder.Provider {
	case "openai":
		limiter := worker.NewLimiter(cfg.Encoder.RequestsPerSecond, cfg.Encoder.Burst)
		e, err := encoder.NewOpenAIEncoder(cfg.Encoder, limiter)
		if err != nil {
			return nil, err
		}
		enc = e
	case "local", "":
		enc = encoder.NewLocalEncoder(cfg.Encoder.Dimension)
	default:
		return nil, &model.ConfigurationError{
			Field:  "encoder.provider",
			Reason: "unknown provider: " + cfg.Encoder.Provider,
		}
	}

	return newPipeline(cfg, enc, nil, logger)
}

// newPipeline assembles the pipeline around an already-built encoder.
// scorer may be nil for the default support-strength estimator.
func newPipeline(cfg *model.Config, enc encoder.Encoder, scorer verify.SupportScorer, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunker, err := textproc.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	aggregator := embed.NewAggregator(enc, chunker, cfg.Concurrency.EncodeWorkers)

	idx, err := loadOrCreateIndex(cfg, enc.Dimension(), logger)
	if err != nil {
		return nil, err
	}

	resolver := verify.NewResolver(idx, aggregator, scorer, cfg.Verification)
	certainty := verify.NewCertaintyAnalyzer(cfg.Verification.HedgingTerms, cfg.Verification.AssertiveTerms)
	confScorer := verify.NewConfidenceScorer(cfg.Verification.BaseConfidence, cfg.Verification.SupportStep, cfg.Verification.ContradictStep)
	extractor := extract.NewExtractor(cfg.Extraction)
	verifier := verify.NewVerifier(extractor, resolver, certainty, confScorer, logger)

	executor := admission.NewExecutor(cfg.Admission.MaxBackgroundTasks, logger)
	controller, err := admission.NewController(admission.NewMemoryCounterStore(), cfg.Admission, executor, logger)
	if err != nil {
		return nil, err
	}

	memTier := cache.NewMemoryCache(
		time.Duration(cfg.Cache.MemoryTTLHours)*time.Hour,
		10*time.Minute,
		cfg.Cache.MemoryCapacity,
	)
	var durable cache.Store
	if cfg.Cache.Dir != "" {
		durable = cache.NewDiskCache(expandHome(cfg.Cache.Dir), time.Duration(cfg.Cache.DiskTTLHours)*time.Hour)
	}
	lookup := cache.NewLookup(memTier, durable, time.Duration(cfg.Cache.DiskTTLHours)*time.Hour, logger)

	return &Pipeline{
		config:     cfg,
		aggregator: aggregator,
		idx:        idx,
		verifier:   verifier,
		controller: controller,
		docs:       store.NewMemoryStore(),
		lookup:     lookup,
		logger:     logger,
	}, nil
}

// IndexDocument embeds and stores a document, then publishes its vector to
// the retrieval index. The document only becomes searchable after every
// chunk has been embedded. A missing id is derived from the content hash,
// so re-ingesting the same text replaces rather than duplicates.
func (p *Pipeline) IndexDocument(ctx context.Context, doc model.Document) (string, error) {
	if strings.TrimSpace(doc.RawText) == "" {
		return "", &model.InvalidInputError{Stage: "index document", Reason: "empty document text"}
	}
	if doc.SourceKind == "" {
		doc.SourceKind = model.SourceKindArticle
	}
	if doc.ID == "" {
		doc.ID = deriveDocumentID(doc.RawText)
	}

	vector, chunks, err := p.aggregator.EmbedDocument(ctx, doc.RawText)
	if err != nil {
		return "", err
	}
	doc.DocumentVector = vector
	doc.Chunks = chunks
	doc.CreatedAt = time.Now().UTC()

	if err := p.docs.PutDocument(doc); err != nil {
		return "", err
	}

	metadata := map[string]string{
		"source_kind": string(doc.SourceKind),
		"excerpt":     excerpt(doc.RawText),
	}
	if doc.Topic != "" {
		metadata["topic"] = doc.Topic
	}
	if doc.Discipline != "" {
		metadata["discipline"] = doc.Discipline
	}
	if err := p.idx.Upsert(doc.ID, vector, metadata); err != nil {
		return "", err
	}

	p.logger.Info("document indexed",
		"id", doc.ID, "chunks", len(chunks), "topic", doc.Topic)
	return doc.ID, nil
}

// Search embeds the query and returns the top-k documents above minScore,
// optionally narrowed by metadata filters. Query embeddings are served
// from the lookup cache so repeated searches skip the encoder.
func (p *Pipeline) Search(ctx context.Context, query string, k int, minScore float64, filters map[string]string) ([]index.Hit, error) {
	vector, err := p.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.idx.Query(vector, k, minScore, filters)
}

// VerifyClaims extracts claims from text, verifies each against the index
// and records the verifications in the store
func (p *Pipeline) VerifyClaims(ctx context.Context, text string) ([]model.ClaimVerification, error) {
	verifications, err := p.verifier.VerifyClaims(ctx, text)
	if err != nil {
		return nil, err
	}
	for _, v := range verifications {
		if err := p.docs.PutVerification(v); err != nil {
			return nil, err
		}
	}
	return verifications, nil
}

// CheckAdmission applies rate-limit policies for one caller and action
func (p *Pipeline) CheckAdmission(callerID, actionType string) (admission.Decision, error) {
	return p.controller.Check(callerID, actionType)
}

// Admit applies admission and, for heavy actions, defers run to the
// background executor
func (p *Pipeline) Admit(callerID, actionType string, run func(ctx context.Context) error) (admission.Decision, error) {
	return p.controller.Admit(callerID, actionType, run)
}

// TaskStatus returns the status of a deferred background task
func (p *Pipeline) TaskStatus(taskID string) (admission.TaskStatus, bool) {
	return p.controller.Executor().Status(taskID)
}

// GetDocument returns a stored document by id
func (p *Pipeline) GetDocument(id string) (model.Document, bool, error) {
	return p.docs.GetDocument(id)
}

// FindVerifications returns stored verifications, optionally filtered by
// source document id
func (p *Pipeline) FindVerifications(documentID string) ([]model.ClaimVerification, error) {
	return p.docs.FindVerifications(documentID)
}

// IndexSize returns the number of indexed documents
func (p *Pipeline) IndexSize() int { return p.idx.Len() }

// SaveIndex writes the retrieval index snapshot to the configured path
func (p *Pipeline) SaveIndex() error {
	path := expandHome(p.config.Index.SnapshotPath)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return p.idx.Snapshot(path)
}

// Wait blocks until all deferred background tasks have finished
func (p *Pipeline) Wait() { p.controller.Executor().Wait() }

// queryVector returns the cached embedding for a query, computing and
// caching it on a miss. The key includes the encoder settings so a model
// change never serves stale vectors.
func (p *Pipeline) queryVector(ctx context.Context, query string) ([]float32, error) {
	normalized := textproc.Normalize(query)
	key := cache.Key(fmt.Sprintf("query:%s:%s:%d:%s",
		p.config.Encoder.Provider, p.config.Encoder.Model, p.config.Encoder.Dimension, normalized))

	data, err := p.lookup.GetOrCompute(key, func() ([]byte, error) {
		vec, embErr := p.aggregator.EmbedQuery(ctx, query)
		if embErr != nil {
			return nil, embErr
		}
		return json.Marshal(vec)
	})
	if err != nil {
		return nil, err
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, fmt.Errorf("decode cached query vector: %w", err)
	}
	if len(vector) != p.config.Encoder.Dimension {
		// Stale entry from an older configuration slipped through; recompute
		p.lookup.Delete(key)
		vec, embErr := p.aggregator.EmbedQuery(ctx, query)
		if embErr != nil {
			return nil, embErr
		}
		return vec, nil
	}
	return vector, nil
}

// loadOrCreateIndex restores the snapshot when one exists, otherwise
// starts empty. A snapshot written under a different encoder dimension is
// a fatal configuration mismatch, not something to discover per query.
func loadOrCreateIndex(cfg *model.Config, dimension int, logger *slog.Logger) (*index.Index, error) {
	path := expandHome(cfg.Index.SnapshotPath)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			idx, loadErr := index.Load(path)
			if loadErr != nil {
				logger.Warn("index snapshot unreadable, starting empty", "path", path, "error", loadErr)
			} else {
				if idx.Dimension() != dimension {
					return nil, &model.ConfigurationError{
						Field: "index.snapshot_path",
						Reason: fmt.Sprintf("snapshot %s holds %d-dimensional vectors, encoder produces %d",
							path, idx.Dimension(), dimension),
					}
				}
				return idx, nil
			}
		}
	}
	return index.New(dimension)
}

// deriveDocumentID hashes document text into a stable id
func deriveDocumentID(text string) string {
	sum := sha256.Sum256([]byte(textproc.Normalize(text)))
	return "doc-" + hex.EncodeToString(sum[:8])
}

// excerpt returns the leading slice of normalized text used for
// support-strength estimation
func excerpt(text string) string {
	normalized := textproc.Normalize(text)
	if len(normalized) > excerptLen {
		return normalized[:excerptLen]
	}
	return normalized
}

// expandHome resolves a leading ~ against the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
