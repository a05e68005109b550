package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/extract"
	"github.com/dapperAuteur/kys-rag/internal/model"
)

// Verifier runs the full claim flow for one document: extract claims, then
// for each claim resolve evidence, analyze certainty and score confidence.
type Verifier struct {
	extractor *extract.Extractor
	resolver  *Resolver
	certainty *CertaintyAnalyzer
	scorer    *ConfidenceScorer
	logger    *slog.Logger
	now       func() time.Time
}

// NewVerifier creates a verifier from its parts
func NewVerifier(extractor *extract.Extractor, resolver *Resolver, certainty *CertaintyAnalyzer, scorer *ConfidenceScorer, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		extractor: extractor,
		resolver:  resolver,
		certainty: certainty,
		scorer:    scorer,
		logger:    logger,
		now:       time.Now,
	}
}

// VerifyClaims extracts claims from document text and scores each against
// retrieved evidence. A resolver failure for one claim is recorded in that
// claim's notes and does not abort its siblings.
func (v *Verifier) VerifyClaims(ctx context.Context, text string) ([]model.ClaimVerification, error) {
	if text == "" {
		return nil, &model.InvalidInputError{Stage: "verify", Reason: "empty text"}
	}

	claims, err := v.extractor.Extract(text)
	if err != nil {
		return nil, err
	}

	verifications := make([]model.ClaimVerification, 0, len(claims))
	for _, claim := range claims {
		verifications = append(verifications, v.verifyOne(ctx, claim))
	}
	return verifications, nil
}

func (v *Verifier) verifyOne(ctx context.Context, claim model.Claim) model.ClaimVerification {
	certainty := v.certainty.Score(claim.Text)

	supporting, contradicting, err := v.resolver.Resolve(ctx, claim)
	if err != nil {
		v.logger.Warn("evidence resolution failed",
			"claim", claim.Text, "error", err)
		return model.ClaimVerification{
			Claim:           claim,
			Verified:        false,
			ConfidenceScore: 0,
			CertaintyScore:  certainty,
			Notes:           fmt.Sprintf("evidence resolution failed: %v", err),
			AnalyzedAt:      v.now().UTC(),
		}
	}

	confidence := v.scorer.Score(len(supporting), len(contradicting), certainty)

	return model.ClaimVerification{
		Claim:                    claim,
		Verified:                 Verified(len(supporting)),
		ConfidenceScore:          confidence,
		SupportingEvidenceIDs:    evidenceIDs(supporting),
		ContradictingEvidenceIDs: evidenceIDs(contradicting),
		CertaintyScore:           certainty,
		Notes: fmt.Sprintf("%d supporting, %d contradicting",
			len(supporting), len(contradicting)),
		AnalyzedAt: v.now().UTC(),
	}
}

func evidenceIDs(refs []model.EvidenceRef) []string {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
