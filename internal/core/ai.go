package core

import "context"

// Exchange is one completed question/answer turn of a conversation.
type Exchange struct {
	Question string
	Answer   string
}

// GenerationRequest carries everything the generative model needs for one
// grounded answer: the session system prompt, the retrieved chunk texts, the
// prior conversation and the new question, plus the sampling knobs.
type GenerationRequest struct {
	SystemPrompt string
	Context      []string
	History      []Exchange
	Question     string
	Temperature  float32
	MaxTokens    int
}

// EmbeddingProvider maps texts to fixed-dimension vectors. Implementations
// retry transient backend failures and return *EmbeddingServiceError once
// retries are exhausted. The returned slice preserves input order.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider produces an answer for a composed generation request. Failures
// map to *GenerationError.
type LLMProvider interface {
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}
