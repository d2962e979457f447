package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"askrag/internal/embedding"
	"askrag/internal/helper"
	"askrag/internal/models"
	"askrag/internal/parser"
)

// Chunker splits the pages of one document into chunks.
type Chunker interface {
	Split(source string, pages []parser.Page) ([]models.Chunk, error)
}

// IndexerOptions bound and place an upload batch.
type IndexerOptions struct {
	ScratchDir   string
	MaxFileBytes int64
}

// Indexer turns a batch of uploaded files into a KnowledgeBase.
type Indexer struct {
	loader   parser.Loader
	chunker  Chunker
	embedder embeddings.Embedder
	newIndex IndexFactory
	cache    KnowledgeBaseCache
	opts     IndexerOptions
}

func NewIndexer(loader parser.Loader, chunker Chunker, embedder embeddings.Embedder, newIndex IndexFactory, cache KnowledgeBaseCache, opts IndexerOptions) *Indexer {
	return &Indexer{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		newIndex: newIndex,
		cache:    cache,
		opts:     opts,
	}
}

// Ingest validates the batch and returns its knowledge base, building it on first sight.
// A batch is rejected as a whole: any oversize, non-PDF or unreadable file fails it.
func (ix *Indexer) Ingest(ctx context.Context, files []models.UploadedFile) (*KnowledgeBase, error) {
	if err := ix.validate(files); err != nil {
		return nil, err
	}

	key := CacheKey(files)
	if kb, ok := ix.cache.Get(key); ok {
		log.Info().Str("kb_id", kb.ID).Int("files", len(files)).Msg("Reusing knowledge base")
		return kb, nil
	}

	kb, err := ix.build(ctx, files)
	if err != nil {
		return nil, err
	}
	stored := ix.cache.Put(key, kb)
	if stored != kb {
		// a concurrent upload of the same batch won
		if err := kb.Close(ctx); err != nil {
			log.Warn().Err(err).Str("kb_id", kb.ID).Msg("Failed to release duplicate knowledge base")
		}
	}
	return stored, nil
}

func (ix *Indexer) validate(files []models.UploadedFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	var oversize []string
	for _, f := range files {
		if f.Size > ix.opts.MaxFileBytes {
			oversize = append(oversize, f.Name)
		}
	}
	if len(oversize) > 0 {
		return &OversizeError{Files: oversize, Limit: ix.opts.MaxFileBytes}
	}

	var unsupported []string
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f.Name), models.PDFExtension) {
			unsupported = append(unsupported, f.Name)
		}
	}
	if len(unsupported) > 0 {
		return &UnsupportedFileError{Files: unsupported}
	}
	return nil
}

func (ix *Indexer) build(ctx context.Context, files []models.UploadedFile) (*KnowledgeBase, error) {
	batchID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(ix.opts.ScratchDir, batchID)
	if err := helper.CreateFolder(dir); err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Failed to remove scratch directory")
		}
	}()

	var chunks []models.Chunk
	sources := make([]string, 0, len(files))
	for i, f := range files {
		fileChunks, err := ix.chunkFile(dir, i, f)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", f.Name).Int("chunks", len(fileChunks)).Msg("Parsed document")
		chunks = append(chunks, fileChunks...)
		sources = append(sources, f.Name)
	}
	if len(chunks) == 0 {
		return nil, ErrNoText
	}

	vectors, err := embedding.GenerateEmbedding(ctx, ix.embedder, chunks)
	if err != nil {
		return nil, err
	}

	kbID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	index, err := ix.newIndex(ctx, kbID)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := index.Add(ctx, vectors); err != nil {
		if cerr := index.Close(ctx); cerr != nil {
			log.Warn().Err(cerr).Str("kb_id", kbID).Msg("Failed to release partial index")
		}
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	log.Info().Str("kb_id", kbID).Int("files", len(files)).Int("chunks", len(chunks)).Msg("Built knowledge base")
	return NewKnowledgeBase(kbID, sources, index, ix.embedder), nil
}

// chunkFile writes f into the batch directory, loads its pages and splits them.
func (ix *Indexer) chunkFile(dir string, n int, f models.UploadedFile) ([]models.Chunk, error) {
	path := filepath.Join(dir, fmt.Sprintf("%03d-%s", n, filepath.Base(f.Name)))
	if err := os.WriteFile(path, f.Content, 0o600); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", f.Name, err)
	}
	pages, err := ix.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Name, err)
	}
	chunks, err := ix.chunker.Split(f.Name, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", f.Name, err)
	}
	return chunks, nil
}
