package rag

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"askrag/internal/chromemdb"
	"askrag/internal/models"
	"askrag/internal/parser"
)

// textLoader treats the saved file's bytes as the text of a single page.
// Files whose content starts with "%corrupt" fail to load.
type textLoader struct {
	mu    sync.Mutex
	calls int
	paths []string
}

func (l *textLoader) Load(path string) ([]parser.Page, error) {
	l.mu.Lock()
	l.calls++
	l.paths = append(l.paths, path)
	l.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "%corrupt") {
		return nil, errors.New("malformed xref table")
	}
	return []parser.Page{{Number: 1, Text: string(data)}}, nil
}

// letterEmbedder embeds text as letter frequencies plus a constant component.
type letterEmbedder struct {
	mu         sync.Mutex
	docCalls   int
	queryCalls int
	queryErr   error
}

func letterVector(text string) []float32 {
	v := make([]float32, 27)
	v[26] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (e *letterEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (e *letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return letterVector(text), nil
}

// stubGenerator answers from the prompt deterministically: it echoes the first
// context line mentioning the sky, otherwise the fixed refusal.
type stubGenerator struct {
	calls   int
	prompts []string
	err     error
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	for _, line := range strings.Split(prompt, "\n") {
		if strings.Contains(line, "sky is") {
			return "According to the document, " + strings.TrimSpace(strings.TrimPrefix(line, "Context = ")), nil
		}
	}
	return models.CannotAnswer, nil
}

type fixture struct {
	loader    *textLoader
	embedder  *letterEmbedder
	generator *stubGenerator
	cache     *MemoryCache
	indexer   *Indexer
	orch      *Orchestrator
	scratch   string
}

const testMaxBytes = 10 * 1024 * 1024

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loader:    &textLoader{},
		embedder:  &letterEmbedder{},
		generator: &stubGenerator{},
		cache:     NewMemoryCache(),
		scratch:   t.TempDir(),
	}
	newIndex := func(_ context.Context, kbID string) (VectorIndex, error) {
		return chromemdb.NewIndex(kbID, f.embedder)
	}
	splitter := parser.NewSplitter(512, 30, []string{"\n\n", "\n", ".", " "})
	f.indexer = NewIndexer(f.loader, splitter, f.embedder, newIndex, f.cache, IndexerOptions{
		ScratchDir:   f.scratch,
		MaxFileBytes: testMaxBytes,
	})
	prompt, err := NewPromptBuilder("")
	require.NoError(t, err)
	f.orch = NewOrchestrator(f.indexer, NewRAG(f.generator, prompt, 4))
	t.Cleanup(func() { _ = f.cache.Close(context.Background()) })
	return f
}

func pdf(name, text string) models.UploadedFile {
	return models.UploadedFile{Name: name, Content: []byte(text), Size: int64(len(text))}
}

func scratchEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}
