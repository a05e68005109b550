package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/admission"
	"github.com/dapperAuteur/kys-rag/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	searchK        int
	searchMinScore float64
	searchTopic    string
	searchKind     string
	searchTimeout  time.Duration
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the vector index semantically",
	Long: `Embed the query and return the most similar indexed documents, ranked
by cosine similarity. Filters narrow candidates by exact metadata match
before ranking.

Example:
  kys search "does coffee improve memory"
  kys search "vitamin d and fractures" --k 3 --min-score 0.5
  kys search "sleep and cognition" --topic sleep --kind study`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchK, "k", 5, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "inclusive similarity floor")
	searchCmd.Flags().StringVar(&searchTopic, "topic", "", "only documents with this topic")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "only documents of this source kind")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "search timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, newLogger())
	if err != nil {
		return err
	}

	decision, err := p.CheckAdmission(callerID, "search")
	if err != nil {
		return err
	}
	if decision.State == admission.Throttled {
		return fmt.Errorf("rate limited (%s scope), retry in %v", decision.Scope, decision.RetryAfter)
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	filters := map[string]string{}
	if searchTopic != "" {
		filters["topic"] = searchTopic
	}
	if searchKind != "" {
		filters["source_kind"] = searchKind
	}

	hits, err := p.Search(ctx, args[0], searchK, searchMinScore, filters)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("No matching documents.")
		return nil
	}

	for i, hit := range hits {
		fmt.Printf("%d. %s  (score %.4f)\n", i+1, hit.ID, hit.Score)
		if topic := hit.Metadata["topic"]; topic != "" {
			fmt.Printf("   topic: %s  kind: %s\n", topic, hit.Metadata["source_kind"])
		}
		if excerpt := hit.Metadata["excerpt"]; excerpt != "" {
			fmt.Printf("   %s\n", truncate(excerpt, 120))
		}
	}
	return nil
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// character
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
