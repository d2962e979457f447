package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"

	"askrag/internal/models"
)

// VectorIndex stores embedded chunks and answers nearest-neighbour queries.
type VectorIndex interface {
	Add(ctx context.Context, docs []models.ChunkEmbedding) error
	// Search returns at most k chunks, most similar first.
	Search(ctx context.Context, query []float32, k int) ([]models.Chunk, error)
	Count() int
	Close(ctx context.Context) error
}

// IndexFactory creates an empty index for a new knowledge base.
type IndexFactory func(ctx context.Context, kbID string) (VectorIndex, error)

// KnowledgeBase is the searchable index built from one batch of uploaded documents.
type KnowledgeBase struct {
	ID        string
	Sources   []string
	CreatedAt time.Time

	index    VectorIndex
	embedder embeddings.Embedder
}

func NewKnowledgeBase(id string, sources []string, index VectorIndex, embedder embeddings.Embedder) *KnowledgeBase {
	return &KnowledgeBase{
		ID:        id,
		Sources:   sources,
		CreatedAt: time.Now(),
		index:     index,
		embedder:  embedder,
	}
}

func (kb *KnowledgeBase) ChunkCount() int {
	return kb.index.Count()
}

// SimilaritySearch embeds question and returns the k nearest chunks.
func (kb *KnowledgeBase) SimilaritySearch(ctx context.Context, question string, k int) ([]models.Chunk, error) {
	vector, err := kb.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	chunks, err := kb.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	return chunks, nil
}

func (kb *KnowledgeBase) Close(ctx context.Context) error {
	return kb.index.Close(ctx)
}
