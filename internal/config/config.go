package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig      `yaml:"server"`
	Log          LogConfig         `yaml:"log"`
	Upload       UploadConfig      `yaml:"upload"`
	RAG          RAGConfig         `yaml:"rag"`
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	Database     DatabaseConfig    `yaml:"database"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" validate:"required"`
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	CookieName   string        `yaml:"cookie_name" validate:"required"`
	SessionTTL   time.Duration `yaml:"session_ttl" validate:"gt=0"`
	ShutdownWait time.Duration `yaml:"shutdown_wait"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Pretty *bool  `yaml:"pretty"`
}

// PrettyOrDefault reports whether console output is enabled; defaults to true when unset.
func (l *LogConfig) PrettyOrDefault() bool {
	if l.Pretty != nil {
		return *l.Pretty
	}
	return true
}

type UploadConfig struct {
	Dir            string `yaml:"dir" validate:"required"`
	MaxFileSizeMB  int64  `yaml:"max_file_size_mb" validate:"gt=0"`
	MaxRequestSize int64  `yaml:"max_request_mb" validate:"gtefield=MaxFileSizeMB"`
}

// MaxFileBytes is the per-file upload limit in bytes.
func (u *UploadConfig) MaxFileBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// MaxRequestBytes caps the whole multipart request body.
func (u *UploadConfig) MaxRequestBytes() int64 {
	return u.MaxRequestSize * 1024 * 1024
}

type RAGConfig struct {
	ChunkSize      int      `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int      `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	Separators     []string `yaml:"separators" validate:"min=1"`
	TopK           int      `yaml:"top_k" validate:"gt=0"`
	PromptTemplate string   `yaml:"prompt_template"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=ollama openai"`
	BaseURL  string `yaml:"base_url" validate:"required,url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model" validate:"required"`
}

type VectorStoreConfig struct {
	Type string `yaml:"type" validate:"oneof=chromem pgvector"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=pgdriver pq"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

var validate = validator.New()

// LoadConfig reads the YAML file at path. Variables from a .env file in the working
// directory are loaded first, and ${VAR} references in the file are expanded from the
// environment before parsing.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv sets variables from path that are not already in the environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks struct constraints and the cross-section rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.VectorStore.Type == "pgvector" && c.Database.DSN == "" {
		return errors.New("invalid config: database.dsn is required when vector_store.type is pgvector")
	}
	return nil
}
