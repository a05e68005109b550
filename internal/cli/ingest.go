package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/admission"
	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/pipeline"
	"github.com/dapperAuteur/kys-rag/internal/worker"
	"github.com/spf13/cobra"
)

var (
	ingestTopic       string
	ingestDiscipline  string
	ingestKind        string
	ingestConcurrency int
	ingestManifest    bool
	ingestTimeout     time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest documents into the vector index",
	Long: `Ingest text or HTML files into the local vector index. Each file is
normalized, chunked, embedded and published to the index; a document only
becomes searchable once all of its chunks have been embedded.

Example:
  kys ingest study.txt --topic coffee --kind study
  kys ingest --manifest papers.txt --discipline medicine
  kys ingest saved-article.html --kind article`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestTopic, "topic", "", "topic label for the ingested documents")
	ingestCmd.Flags().StringVar(&ingestDiscipline, "discipline", "", "discipline label for the ingested documents")
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "article", "source kind (study or article)")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "concurrent files (0 = config default)")
	ingestCmd.Flags().BoolVar(&ingestManifest, "manifest", false, "treat the argument as a manifest listing one file path per line")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total ingest timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind := model.SourceKind(ingestKind)
	if kind != model.SourceKindStudy && kind != model.SourceKindArticle {
		return &model.InvalidInputError{Stage: "ingest", Reason: "kind must be study or article"}
	}

	p, err := pipeline.NewPipeline(cfg, newLogger())
	if err != nil {
		return err
	}

	decision, err := p.CheckAdmission(callerID, "index")
	if err != nil {
		return err
	}
	if decision.State == admission.Throttled {
		return fmt.Errorf("rate limited (%s scope), retry in %v", decision.Scope, decision.RetryAfter)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	concurrency := ingestConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.IngestWorkers
	}
	batch := worker.NewBatchProcessor(p, concurrency)

	var results []*worker.IngestResult
	if ingestManifest {
		if len(args) != 1 {
			return &model.InvalidInputError{Stage: "ingest", Reason: "--manifest takes exactly one file"}
		}
		results, err = batch.ProcessManifest(ctx, args[0], kind, ingestTopic, ingestDiscipline)
		if err != nil {
			return err
		}
	} else {
		results = batch.ProcessPaths(ctx, args, kind, ingestTopic, ingestDiscipline)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL  %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Printf("OK    %s -> %s\n", r.Path, r.DocumentID)
	}
	fmt.Printf("\nIngested %d of %d documents (index size %d)\n",
		len(results)-failed, len(results), p.IndexSize())

	if err := p.SaveIndex(); err != nil {
		return fmt.Errorf("save index snapshot: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}
