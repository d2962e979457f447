package rag

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"askrag/internal/models"
)

type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNeedsUpload
	OutcomeFailed
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeNeedsUpload:
		return "needs_upload"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// AskResult is what a question produced. Turn and Sources are set only when answered.
type AskResult struct {
	Outcome Outcome
	Message string
	Turn    *models.ChatTurn
	Sources []models.Chunk
}

// Orchestrator runs the upload and question pipelines against a Session.
type Orchestrator struct {
	indexer *Indexer
	rag     *RAG
}

func NewOrchestrator(indexer *Indexer, rag *RAG) *Orchestrator {
	return &Orchestrator{indexer: indexer, rag: rag}
}

// Upload builds or reuses the knowledge base for files and makes it the session's.
// On error the session is left unchanged.
func (o *Orchestrator) Upload(ctx context.Context, s *Session, files []models.UploadedFile) (*KnowledgeBase, error) {
	kb, err := o.indexer.Ingest(ctx, files)
	if err != nil {
		return nil, err
	}
	s.KnowledgeBase = kb
	return kb, nil
}

// Ask answers question from the session's knowledge base and records the turn.
// Failures are reported in the result; history is only touched on success.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, question string) AskResult {
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{Outcome: OutcomeIgnored}
	}
	if !s.HasKnowledgeBase() {
		return AskResult{Outcome: OutcomeNeedsUpload, Message: models.NeedsUpload}
	}

	resp, err := o.rag.Query(ctx, s.KnowledgeBase, question)
	if err != nil {
		log.Error().Err(err).Str("kb_id", s.KnowledgeBase.ID).Msg("Query failed")
		return AskResult{Outcome: OutcomeFailed, Message: FormatQueryError(err)}
	}

	turn := models.ChatTurn{Question: question, Answer: resp.Content}
	s.AddTurn(turn)
	return AskResult{Outcome: OutcomeAnswered, Turn: &turn, Sources: resp.Sources}
}
