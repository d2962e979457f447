package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"askrag/internal/config"
	"askrag/internal/models"
)

// Document is one embedded chunk of a knowledge base.
type Document struct {
	bun.BaseModel  `bun:"table:kb_documents,alias:d"`
	ID             string `bun:"id,pk"`
	KBID           string `bun:"kb_id,notnull"`
	Content        string `bun:"content,notnull"`
	Embedding      Vector `bun:"embedding,type:vector"`
	SourceFilename string `bun:"source_filename"`
	PageNumber     int    `bun:"page_number"`
	ChunkID        int    `bun:"chunk_id"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a connection pool with the configured driver.
func ConnectDB(dbConfig *config.DatabaseConfig) (*sql.DB, error) {
	switch dbConfig.Driver {
	case "pq":
		return sql.Open("postgres", dbConfig.DSN)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(dbConfig.DSN)}
		if dbConfig.Password != "" {
			opts = append(opts, pgdriver.WithPassword(dbConfig.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
	}
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments returns the chunks of one knowledge base nearest to queryEmbedding by
// cosine distance. The embedding column is not fetched.
func SearchDocuments(ctx context.Context, db *bun.DB, kbID string, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		Column("id", "kb_id", "content", "source_filename", "page_number", "chunk_id").
		Where("kb_id = ?", kbID).
		OrderExpr("embedding <=> ?", Vector(queryEmbedding)).
		Limit(limit).
		Scan(ctx)
	return docs, err
}

// DropKnowledgeBase deletes every row of one knowledge base.
func DropKnowledgeBase(ctx context.Context, db *bun.DB, kbID string) error {
	_, err := db.NewDelete().Model((*Document)(nil)).Where("kb_id = ?", kbID).Exec(ctx)
	return err
}

// NewDocuments converts chunk embeddings into rows of kbID, numbering them from offset.
func NewDocuments(kbID string, offset int, chunks []models.ChunkEmbedding) []Document {
	docs := make([]Document, len(chunks))
	for i, ce := range chunks {
		docs[i] = Document{
			ID:             fmt.Sprintf("%s/%d", kbID, offset+i),
			KBID:           kbID,
			Content:        ce.Content,
			Embedding:      ce.Embedding,
			SourceFilename: ce.SourceFilename,
			PageNumber:     ce.PageNumber,
			ChunkID:        ce.ChunkID,
		}
	}
	return docs
}
