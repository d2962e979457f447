package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"askrag/internal/chromemdb"
	"askrag/internal/config"
	"askrag/internal/db"
	"askrag/internal/embedding"
	"askrag/internal/helper"
	"askrag/internal/llmservice"
	"askrag/internal/parser"
	"askrag/internal/rag"
)

// App holds the components built from one configuration.
type App struct {
	Config       *config.Config
	Orchestrator *rag.Orchestrator
	Cache        *rag.MemoryCache

	db *bun.DB
}

// New builds every component. The embedder and LLM clients are created once per process.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := helper.CreateFolder(cfg.Upload.Dir); err != nil {
		return nil, err
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	llm, err := llmservice.NewLLM(&cfg.InferenceLLM)
	if err != nil {
		return nil, err
	}
	prompt, err := rag.NewPromptBuilder(cfg.RAG.PromptTemplate)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Cache: rag.NewMemoryCache()}
	newIndex, err := a.indexFactory(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}

	indexer := rag.NewIndexer(
		parser.NewPDFLoader(),
		parser.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, cfg.RAG.Separators),
		embedder,
		newIndex,
		a.Cache,
		rag.IndexerOptions{ScratchDir: cfg.Upload.Dir, MaxFileBytes: cfg.Upload.MaxFileBytes()},
	)
	a.Orchestrator = rag.NewOrchestrator(indexer, rag.NewRAG(llmservice.NewClient(llm), prompt, cfg.RAG.TopK))

	log.Info().
		Str("vector_store", cfg.VectorStore.Type).
		Str("embed_model", cfg.EmbedLLM.Model).
		Str("inference_model", cfg.InferenceLLM.Model).
		Msg("Application ready")
	return a, nil
}

func (a *App) indexFactory(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (rag.IndexFactory, error) {
	switch cfg.VectorStore.Type {
	case "chromem":
		return func(_ context.Context, kbID string) (rag.VectorIndex, error) {
			return chromemdb.NewIndex(kbID, embedder)
		}, nil
	case "pgvector":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, a.db); err != nil {
			_ = a.db.Close()
			return nil, err
		}
		return func(_ context.Context, kbID string) (rag.VectorIndex, error) {
			return db.NewIndex(a.db, kbID), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported vector store %q", cfg.VectorStore.Type)
	}
}

// Close releases every cached knowledge base and the database connection.
func (a *App) Close(ctx context.Context) error {
	err := a.Cache.Close(ctx)
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	return err
}
