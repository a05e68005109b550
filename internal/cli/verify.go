package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/admission"
	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	verifyText    string
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Verify the claims a text makes against indexed evidence",
	Long: `Extract claims from a text and verify each against the vector index.
Every claim gets supporting and contradicting evidence, a confidence
score and a certainty score.

Verification is a heavy operation; it runs through the background
executor and the command waits for the result.

Example:
  kys verify article.txt
  kys verify --text "Research proves coffee adds 10 years to your life."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyText, "text", "", "verify this text instead of reading a file")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text := verifyText
	if text == "" {
		if len(args) != 1 {
			return &model.InvalidInputError{Stage: "verify", Reason: "pass a file or --text"}
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		text = string(data)
	}

	p, err := pipeline.NewPipeline(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	var verifications []model.ClaimVerification
	decision, err := p.Admit(callerID, "verify", func(ctx context.Context) error {
		result, verifyErr := p.VerifyClaims(ctx, text)
		if verifyErr != nil {
			return verifyErr
		}
		verifications = result
		return nil
	})
	if err != nil {
		return err
	}

	switch decision.State {
	case admission.Throttled:
		return fmt.Errorf("rate limited (%s scope), retry in %v", decision.Scope, decision.RetryAfter)
	case admission.Deferred:
		if verbose {
			fmt.Fprintf(os.Stderr, "Deferred as background task %s\n", decision.TaskID)
		}
		p.Wait()
		status, ok := p.TaskStatus(decision.TaskID)
		if !ok {
			return fmt.Errorf("background task %s vanished", decision.TaskID)
		}
		if status.State == admission.TaskFailed {
			return fmt.Errorf("verification failed: %s", status.Error)
		}
	case admission.Open:
		// No executor configured; run inline
		verifications, err = p.VerifyClaims(ctx, text)
		if err != nil {
			return err
		}
	}

	if len(verifications) == 0 {
		fmt.Println("No verifiable claims found.")
		return nil
	}

	for i, v := range verifications {
		printVerification(i+1, v)
	}
	return nil
}

func printVerification(n int, v model.ClaimVerification) {
	verdict := "UNVERIFIED"
	if v.Verified {
		verdict = "VERIFIED"
	}
	fmt.Printf("%d. [%s] %s\n", n, verdict, v.Claim.Text)
	fmt.Printf("   confidence %.2f  certainty %.2f\n", v.ConfidenceScore, v.CertaintyScore)
	if len(v.SupportingEvidenceIDs) > 0 {
		fmt.Printf("   supporting: %v\n", v.SupportingEvidenceIDs)
	}
	if len(v.ContradictingEvidenceIDs) > 0 {
		fmt.Printf("   contradicting: %v\n", v.ContradictingEvidenceIDs)
	}
	if v.Notes != "" {
		fmt.Printf("   notes: %s\n", v.Notes)
	}
	fmt.Println()
}
