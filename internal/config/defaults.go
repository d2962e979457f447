package config

import "time"

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 30
	defaultTopK         = 4
	defaultMaxFileMB    = 10
)

// DefaultSeparators split at paragraph, then line, then sentence, then word boundaries.
var DefaultSeparators = []string{"\n\n", "\n", ".", " "}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Server.CookieName == "" {
		cfg.Server.CookieName = "askrag_session"
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 24 * time.Hour
	}
	if cfg.Server.ShutdownWait == 0 {
		cfg.Server.ShutdownWait = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "uploaded"
	}
	if cfg.Upload.MaxFileSizeMB == 0 {
		cfg.Upload.MaxFileSizeMB = defaultMaxFileMB
	}
	if cfg.Upload.MaxRequestSize == 0 {
		cfg.Upload.MaxRequestSize = 20 * cfg.Upload.MaxFileSizeMB
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if len(cfg.RAG.Separators) == 0 {
		cfg.RAG.Separators = append([]string(nil), DefaultSeparators...)
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.InferenceLLM.Provider == "" {
		cfg.InferenceLLM.Provider = "openai"
	}
	if cfg.InferenceLLM.BaseURL == "" {
		cfg.InferenceLLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.InferenceLLM.Model == "" {
		cfg.InferenceLLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "chromem"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
}
