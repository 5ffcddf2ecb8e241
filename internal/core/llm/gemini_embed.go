package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/studyowl/studyowl/internal/core"
)

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	dim       int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-embedding-001"
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, dim: dim}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// EmbedTexts batches all texts in one request via EmbeddingBatch. Transient
// failures are retried with the same backoff as the OpenAI embedder.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)

	var resp *genai.BatchEmbedContentsResponse
	var lastErr error
	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryDelay(attempt-1)); err != nil {
				return nil, &core.EmbeddingServiceError{Err: err}
			}
		}

		batch := em.NewBatch()
		for _, t := range texts {
			batch.AddContent(genai.Text(t))
		}

		r, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return nil, &core.EmbeddingServiceError{Err: fmt.Errorf("gemini batch embed: %w", err)}
		}
		resp = r
		break
	}
	if resp == nil {
		return nil, &core.EmbeddingServiceError{Err: fmt.Errorf("gemini batch embed: %w", lastErr)}
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if g.dim > 0 && len(e.Values) != g.dim {
			return nil, &core.EmbeddingServiceError{
				Err: fmt.Errorf("embedding dimension %d, index requires %d", len(e.Values), g.dim),
			}
		}
		out = append(out, e.Values)
	}
	return out, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
