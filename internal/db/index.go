package db

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"askrag/internal/models"
)

// Index is a knowledge base stored as kb_documents rows sharing one kb_id.
type Index struct {
	db   *bun.DB
	kbID string

	mu    sync.RWMutex
	count int
}

func NewIndex(db *bun.DB, kbID string) *Index {
	return &Index{db: db, kbID: kbID}
}

func (i *Index) Add(ctx context.Context, chunks []models.ChunkEmbedding) error {
	docs := NewDocuments(i.kbID, i.Count(), chunks)
	if err := StoreDocuments(ctx, i.db, docs); err != nil {
		return err
	}
	i.mu.Lock()
	i.count += len(docs)
	i.mu.Unlock()
	log.Debug().Str("kb_id", i.kbID).Int("documents", len(docs)).Msg("Stored documents")
	return nil
}

func (i *Index) Search(ctx context.Context, query []float32, k int) ([]models.Chunk, error) {
	count := i.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	docs, err := SearchDocuments(ctx, i.db, i.kbID, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(docs))
	for n, d := range docs {
		chunks[n] = models.Chunk{
			Content:    d.Content,
			Source:     d.SourceFilename,
			PageNumber: d.PageNumber,
			ChunkID:    d.ChunkID,
		}
	}
	return chunks, nil
}

func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.count
}

func (i *Index) Close(ctx context.Context) error {
	if err := DropKnowledgeBase(ctx, i.db, i.kbID); err != nil {
		return err
	}
	i.mu.Lock()
	i.count = 0
	i.mu.Unlock()
	return nil
}
