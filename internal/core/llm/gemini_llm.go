package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/studyowl/studyowl/internal/core"
)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemWithContext(req))},
	}

	cs := m.StartChat()
	for _, turn := range req.History {
		cs.History = append(cs.History,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.Question)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.Answer)}},
		)
	}

	resp, err := cs.SendMessage(ctx, genai.Text(req.Question))
	if err != nil {
		return "", &core.GenerationError{Err: fmt.Errorf("gemini generate: %w", err)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &core.GenerationError{Err: fmt.Errorf("empty gemini response")}
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
