package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"askrag/internal/config"
)

// Temperature is fixed so answers stay grounded in the retrieved context.
const Temperature = 0.0

// NewLLM creates a chat model for the configured provider.
func NewLLM(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating LLM client")

	switch llmConfig.Provider {
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return llm, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unsupported inference provider %q", llmConfig.Provider)
	}
}

// Client sends single-turn prompts to a chat model.
type Client struct {
	llm llms.Model
}

func NewClient(llm llms.Model) *Client {
	return &Client{llm: llm}
}

// Generate returns the model's answer to prompt. Errors are returned as-is, without retry.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	log.Debug().Int("prompt_chars", len(prompt)).Msg("Generating content")
	answer, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(Temperature))
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	return answer, nil
}
