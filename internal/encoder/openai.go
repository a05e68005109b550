package encoder

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dapperAuteur/kys-rag/internal/model"
	"github.com/dapperAuteur/kys-rag/internal/worker"
)

// OpenAIEncoder encodes text with the OpenAI embeddings API (or any
// API-compatible endpoint via base_url). Outbound calls pass a client-side
// rate limiter so batch ingestion cannot exhaust the provider quota.
type OpenAIEncoder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	timeout   time.Duration
	limiter   *worker.Limiter
}

// NewOpenAIEncoder creates an encoder from configuration
func NewOpenAIEncoder(cfg model.EncoderConfig, limiter *worker.Limiter) (*OpenAIEncoder, error) {
	if cfg.APIKey == "" {
		return nil, &model.ConfigurationError{Field: "encoder.api_key", Reason: "required for provider openai"}
	}
	if cfg.Dimension <= 0 {
		return nil, &model.ConfigurationError{Field: "encoder.dimension", Reason: "must be positive"}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEncoder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: cfg.Dimension,
		timeout:   timeout,
		limiter:   limiter,
	}, nil
}

// Encode embeds one piece of text
func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, "openai"); err != nil {
			return nil, &model.EncodingError{Stage: "encode", Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dimension,
	})
	if err != nil {
		return nil, &model.EncodingError{Stage: "encode", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &model.EncodingError{Stage: "encode", Err: fmt.Errorf("empty embedding response")}
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimension {
		return nil, &model.ConfigurationError{
			Field:  "encoder.dimension",
			Reason: fmt.Sprintf("provider returned %d dimensions, expected %d", len(vec), e.dimension),
		}
	}

	return vec, nil
}

// Dimension returns the fixed output width
func (e *OpenAIEncoder) Dimension() int { return e.dimension }
