package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"askrag/internal/models"
)

// PromptBuilder fills the question-answering template.
type PromptBuilder struct {
	template prompts.PromptTemplate
}

// NewPromptBuilder parses tmpl as a Go template using {{.context}} and {{.question}}.
// An empty tmpl selects the default template.
func NewPromptBuilder(tmpl string) (*PromptBuilder, error) {
	if tmpl == "" {
		tmpl = models.PromptTemplate
	}
	for _, v := range []string{".context", ".question"} {
		if !strings.Contains(tmpl, v) {
			return nil, fmt.Errorf("prompt template must reference {{%s}}", v)
		}
	}
	b := &PromptBuilder{
		template: prompts.PromptTemplate{
			Template:       tmpl,
			InputVariables: []string{"context", "question"},
			TemplateFormat: prompts.TemplateFormatGoTemplate,
		},
	}
	if _, err := b.Build("", ""); err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return b, nil
}

func (b *PromptBuilder) Build(context, question string) (string, error) {
	return b.template.Format(map[string]any{
		"context":  context,
		"question": question,
	})
}

// FormatContext joins chunk contents with a blank line.
func FormatContext(chunks []models.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, models.ContextSeparator)
}
