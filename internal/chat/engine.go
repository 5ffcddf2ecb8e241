package chat

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/studyowl/studyowl/internal/core"
)

// Options tune a single conversation. Zero values fall back to the
// defaults below.
type Options struct {
	TopK         int
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

const (
	defaultTopK      = 3
	defaultMaxTokens = 500

	defaultSystemPrompt = "You are a helpful study assistant. Answer the " +
		"student's question using only the provided course material. If the " +
		"material does not cover the question, say you don't know."
)

func (o Options) withDefaults() Options {
	if o.TopK < 1 {
		o.TopK = defaultTopK
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = defaultSystemPrompt
	}
	return o
}

// Engine drives one retrieval-augmented conversation: each question is
// condensed against the running history, matched against the vector index,
// and answered by the model with the retrieved chunks in scope.
type Engine struct {
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	llm      core.LLMProvider
	audit    core.AuditSink
	opts     Options
	role     string

	mu      sync.Mutex
	history []core.Exchange
}

// NewEngine builds an engine for one session. audit may be nil; role tags
// the audit trail ("educator" or "student").
func NewEngine(emb core.EmbeddingProvider, idx core.VectorIndex, llm core.LLMProvider, audit core.AuditSink, role string, opts Options) *Engine {
	return &Engine{
		embedder: emb,
		index:    idx,
		llm:      llm,
		audit:    audit,
		opts:     opts.withDefaults(),
		role:     role,
	}
}

// Source identifies one retrieved chunk that grounded an answer.
type Source struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Position string  `json:"position"`
	Score    float64 `json:"score"`
}

// Ask answers one question over the knowledge base, returning the answer
// and the sources that grounded it. The exchange joins the history only
// when generation succeeds, so a failed turn can be retried without
// polluting later retrievals.
func (e *Engine) Ask(ctx context.Context, question string) (string, []Source, error) {
	e.mu.Lock()
	history := make([]core.Exchange, len(e.history))
	copy(history, e.history)
	e.mu.Unlock()

	query := condenseQuery(history, question)

	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return "", nil, err
	}

	matches, err := e.index.Query(ctx, vectors[0], e.opts.TopK)
	if err != nil {
		return "", nil, err
	}

	chunks := make([]string, len(matches))
	sources := make([]Source, len(matches))
	for i, m := range matches {
		chunks[i] = m.Content
		sources[i] = Source{
			ID:       m.ID,
			Filename: m.Metadata["filename"],
			Position: m.Metadata["position"],
			Score:    m.Score,
		}
	}

	answer, err := e.llm.Generate(ctx, &core.GenerationRequest{
		SystemPrompt: e.opts.SystemPrompt,
		Context:      chunks,
		History:      history,
		Question:     question,
		Temperature:  e.opts.Temperature,
		MaxTokens:    e.opts.MaxTokens,
	})
	if err != nil {
		return "", nil, err
	}

	e.mu.Lock()
	e.history = append(e.history, core.Exchange{Question: question, Answer: answer})
	e.mu.Unlock()

	if e.audit != nil {
		if err := e.audit.LogExchange(ctx, e.role, question, answer); err != nil {
			log.Printf("chat: audit log failed: %v", err)
		}
	}
	return answer, sources, nil
}

// History returns a copy of the completed exchanges, oldest first.
func (e *Engine) History() []core.Exchange {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Exchange, len(e.history))
	copy(out, e.history)
	return out
}

// Reset drops the conversation history.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.history = nil
	e.mu.Unlock()
}

// condenseQuery builds the retrieval query for a question. The first turn
// retrieves on the question verbatim; follow-ups are prefixed with the last
// two prior questions so pronouns and ellipses still hit the right chunks.
func condenseQuery(history []core.Exchange, question string) string {
	if len(history) == 0 {
		return question
	}
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, 3)
	for _, turn := range history[start:] {
		parts = append(parts, turn.Question)
	}
	parts = append(parts, question)
	return strings.Join(parts, "\n")
}
