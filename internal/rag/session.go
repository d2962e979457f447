package rag

import "askrag/internal/models"

// Session is the state of one user: the active knowledge base and the chat history.
type Session struct {
	KnowledgeBase *KnowledgeBase
	// History is kept oldest first.
	History []models.ChatTurn
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) HasKnowledgeBase() bool {
	return s.KnowledgeBase != nil
}

func (s *Session) AddTurn(turn models.ChatTurn) {
	s.History = append(s.History, turn)
}

// Turns returns a copy of the history, newest first.
func (s *Session) Turns() []models.ChatTurn {
	turns := make([]models.ChatTurn, len(s.History))
	for i, t := range s.History {
		turns[len(s.History)-1-i] = t
	}
	return turns
}

// Reset drops the knowledge base and the history. The knowledge base itself stays cached.
func (s *Session) Reset() {
	s.KnowledgeBase = nil
	s.History = nil
}
