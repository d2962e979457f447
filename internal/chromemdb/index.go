package chromemdb

import (
	"context"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"askrag/internal/models"
)

// metadata keys stored with each chunk
const (
	metaSource  = "source"
	metaPage    = "page"
	metaChunkID = "chunk_id"
)

// Index is a knowledge base index held in its own chromem collection.
type Index struct {
	kbID    string
	manager *VectorDBManager
}

// NewIndex creates an empty collection named after the knowledge base id. The embedder is
// only used by chromem when a document or query arrives without a vector.
func NewIndex(kbID string, embedder embeddings.Embedder) (*Index, error) {
	m := NewVectorDBManager()
	if _, err := m.GetOrCreateCollection(kbID, EmbeddingFunc(embedder)); err != nil {
		return nil, err
	}
	return &Index{kbID: kbID, manager: m}, nil
}

// EmbeddingFunc adapts a langchaingo embedder to chromem.
func EmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func (i *Index) Add(ctx context.Context, docs []models.ChunkEmbedding) error {
	if len(docs) == 0 {
		return nil
	}
	offset := i.manager.Count()
	chromemDocs := make([]chromem.Document, len(docs))
	for n, d := range docs {
		chromemDocs[n] = chromem.Document{
			ID:        strconv.Itoa(offset + n),
			Content:   d.Content,
			Metadata:  createMetadata(d),
			Embedding: d.Embedding,
		}
	}
	log.Debug().Str("kb_id", i.kbID).Int("documents", len(chromemDocs)).Msg("Adding documents to vector database")
	return i.manager.CreateDocs(ctx, chromemDocs)
}

// Search returns the k nearest chunks, most similar first. k is clamped to the index size.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]models.Chunk, error) {
	count := i.manager.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := i.manager.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       k,
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, chunkFromResult(r))
	}
	return chunks, nil
}

func (i *Index) Count() int {
	return i.manager.Count()
}

func (i *Index) Close(context.Context) error {
	return i.manager.DeleteCollection()
}

func createMetadata(d models.ChunkEmbedding) map[string]string {
	return map[string]string{
		metaSource:  d.SourceFilename,
		metaPage:    strconv.Itoa(d.PageNumber),
		metaChunkID: strconv.Itoa(d.ChunkID),
	}
}

func chunkFromResult(r chromem.Result) models.Chunk {
	page, _ := strconv.Atoi(r.Metadata[metaPage])
	chunkID, _ := strconv.Atoi(r.Metadata[metaChunkID])
	return models.Chunk{
		Content:    r.Content,
		Source:     r.Metadata[metaSource],
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
