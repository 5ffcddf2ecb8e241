// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/studyowl/studyowl/internal/chat"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/core"
	db "github.com/studyowl/studyowl/internal/core/database"
	"github.com/studyowl/studyowl/internal/core/ingest"
	"github.com/studyowl/studyowl/internal/core/llm"
	"github.com/studyowl/studyowl/internal/core/objectstore"
	"github.com/studyowl/studyowl/internal/core/splitter"
	"github.com/studyowl/studyowl/internal/core/vectorindex"
)

const ingestWorkers = 4

type App struct {
	DBClient *db.DatabaseClient
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	index, err := vectorindex.NewPostgresIndex(appCtx, dbClient.DB(), cfg.EmbedDim)
	if err != nil {
		return nil, err
	}

	// S3 archival is optional; without credentials uploads are simply not
	// archived.
	var objClient core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		s3Client, err := objectstore.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		objClient = s3Client
		log.Println("Object client initialized and ready.")
	}

	embedder, llmProvider, err := newProviders(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	pipeline := ingest.NewPipeline(embedder, index, splitter.New(cfg.ChunkSize, cfg.ChunkOverlap), ingestWorkers)

	sessions := chat.NewSessionStore(embedder, index, llmProvider, dbClient, chat.Options{
		TopK:         cfg.TopK,
		Temperature:  float32(cfg.Temperature),
		MaxTokens:    cfg.MaxTokens,
		SystemPrompt: cfg.SystemPrompt,
	})

	server := NewServer(cfg, dbClient, objClient, pipeline, sessions)

	return &App{DBClient: dbClient, Server: server}, nil
}

// newProviders picks the embedding and generation backends from AI_PROVIDER.
func newProviders(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, core.LLMProvider, error) {
	switch cfg.AIProvider {
	case "openai":
		embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		provider, err := llm.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		return embedder, provider, nil
	case "gemini":
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel, cfg.EmbedDim)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		provider, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GenModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		return embedder, provider, nil
	}
	return nil, nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
