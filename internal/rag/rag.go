package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"askrag/internal/models"
)

// Generator produces an answer for a filled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RAG answers questions from a knowledge base.
type RAG struct {
	generator Generator
	prompt    *PromptBuilder
	topK      int
}

func NewRAG(generator Generator, prompt *PromptBuilder, topK int) *RAG {
	return &RAG{generator: generator, prompt: prompt, topK: topK}
}

func (r *RAG) Query(ctx context.Context, kb *KnowledgeBase, query string) (*models.PromptResponse, error) {
	chunks, err := kb.SimilaritySearch(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("kb_id", kb.ID).Int("chunks", len(chunks)).Msg("Retrieved context")

	prompt, err := r.prompt.Build(FormatContext(chunks), query)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{
		Query:   query,
		Sources: chunks,
		Content: answer,
	}, nil
}
