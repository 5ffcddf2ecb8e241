package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/api/googleapi"

	"github.com/studyowl/studyowl/internal/core"
)

const embedMaxRetries = 4

// OpenAIEmbedder maps texts to fixed-dimension vectors via the OpenAI
// embeddings API. Transient failures (rate limits, 5xx, network) are retried
// with exponential backoff; exhausting retries yields EmbeddingServiceError.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

func NewOpenAIEmbedder(apiKey, model string, dim int, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbeddingAda002)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		dim:    dim,
	}, nil
}

func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryDelay(attempt-1)); err != nil {
				return nil, &core.EmbeddingServiceError{Err: err}
			}
		}

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return nil, &core.EmbeddingServiceError{Err: err}
		}
		if len(resp.Data) != len(texts) {
			return nil, &core.EmbeddingServiceError{
				Err: fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts)),
			}
		}

		out := make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for j, v := range d.Embedding {
				vec[j] = float32(v)
			}
			if e.dim > 0 && len(vec) != e.dim {
				return nil, &core.EmbeddingServiceError{
					Err: fmt.Errorf("embedding dimension %d, index requires %d", len(vec), e.dim),
				}
			}
			out[i] = vec
		}
		return out, nil
	}
	return nil, &core.EmbeddingServiceError{Err: lastErr}
}

// OpenAILLM answers composed generation requests with a chat completion.
type OpenAILLM struct {
	client openai.Client
	model  string
}

func NewOpenAILLM(apiKey, model string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if model == "" {
		model = string(openai.ChatModelGPT4)
	}
	return &OpenAILLM{client: openai.NewClient(option.WithAPIKey(apiKey)), model: model}, nil
}

func (l *OpenAILLM) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(req.History)+2)
	messages = append(messages, openai.SystemMessage(systemWithContext(req)))
	for _, turn := range req.History {
		messages = append(messages, openai.UserMessage(turn.Question))
		messages = append(messages, openai.AssistantMessage(turn.Answer))
	}
	messages = append(messages, openai.UserMessage(req.Question))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(l.model),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := l.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &core.GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &core.GenerationError{Err: fmt.Errorf("no completion choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether an embeddings failure is worth another attempt.
// Rate limits and server errors are transient for both backends.
func retryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 429 || gErr.Code >= 500
	}
	// Non-API errors are network-level and transient.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// retryDelay grows exponentially from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	_ core.EmbeddingProvider = (*OpenAIEmbedder)(nil)
	_ core.LLMProvider       = (*OpenAILLM)(nil)
)
