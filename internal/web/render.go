package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"askrag/internal/models"
	"askrag/internal/session"
)

//go:embed templates/index.html
var templateFS embed.FS

type turnView struct {
	Question string
	Answer   template.HTML
}

type pageView struct {
	Notices     []session.Notice
	HasKB       bool
	Sources     []string
	ChunkCount  int
	MaxFileMB   int64
	NeedsUpload string
	History     []turnView
}

func (s *Server) buildPage(entry *session.Entry) pageView {
	state := entry.State
	view := pageView{
		Notices:     entry.PopNotices(),
		HasKB:       state.HasKnowledgeBase(),
		MaxFileMB:   s.upload.MaxFileSizeMB,
		NeedsUpload: models.NeedsUpload,
	}
	if view.HasKB {
		view.Sources = state.KnowledgeBase.Sources
		view.ChunkCount = state.KnowledgeBase.ChunkCount()
	}
	for _, turn := range state.Turns() {
		view.History = append(view.History, turnView{
			Question: turn.Question,
			Answer:   s.renderMarkdown(turn.Answer),
		})
	}
	return view
}

// renderMarkdown converts an answer to HTML. Raw HTML in the answer is escaped by goldmark.
func (s *Server) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to render markdown")
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, view pageView) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, view); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
