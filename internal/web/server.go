package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"askrag/internal/config"
	"askrag/internal/rag"
	"askrag/internal/session"
)

// Server is the browser UI: upload, ask, reset and the chat history.
type Server struct {
	orch     *rag.Orchestrator
	sessions *session.Store
	config   *config.ServerConfig
	upload   *config.UploadConfig
	markdown goldmark.Markdown
	page     *template.Template
	server   *http.Server
}

func NewServer(orch *rag.Orchestrator, sessions *session.Store, cfg *config.ServerConfig, upload *config.UploadConfig) *Server {
	return &Server{
		orch:     orch,
		sessions: sessions,
		config:   cfg,
		upload:   upload,
		markdown: goldmark.New(),
		page:     template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
}

// Routes builds the router. Long LLM calls are allowed to finish, so there is no timeout middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.handleIndex)
		r.Post("/upload", s.handleUpload)
		r.Post("/ask", s.handleAsk)
		r.Post("/reset", s.handleReset)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
