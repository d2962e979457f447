package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askrag/internal/models"
)

type closeCounter struct {
	closed int
	err    error
}

func (c *closeCounter) Add(context.Context, []models.ChunkEmbedding) error { return nil }
func (c *closeCounter) Search(context.Context, []float32, int) ([]models.Chunk, error) {
	return nil, nil
}
func (c *closeCounter) Count() int { return 0 }
func (c *closeCounter) Close(context.Context) error {
	c.closed++
	return c.err
}

func TestCacheKey(t *testing.T) {
	a := pdf("a.pdf", "alpha")
	b := pdf("b.pdf", "beta")

	assert.Equal(t, CacheKey([]models.UploadedFile{a, b}), CacheKey([]models.UploadedFile{b, a}))
	assert.NotEqual(t, CacheKey([]models.UploadedFile{a, b}), CacheKey([]models.UploadedFile{a}))
	assert.NotEqual(t, CacheKey([]models.UploadedFile{a}), CacheKey([]models.UploadedFile{pdf("a.pdf", "alpha2")}))
	assert.NotEqual(t, CacheKey([]models.UploadedFile{a}), CacheKey([]models.UploadedFile{pdf("renamed.pdf", "alpha")}))
	assert.Len(t, CacheKey([]models.UploadedFile{a}), 64)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	_, ok := c.Get("k")
	assert.False(t, ok)

	idx1, idx2 := &closeCounter{}, &closeCounter{}
	kb1 := NewKnowledgeBase("kb1", nil, idx1, nil)
	kb2 := NewKnowledgeBase("kb2", nil, idx2, nil)

	assert.Same(t, kb1, c.Put("k", kb1))
	assert.Same(t, kb1, c.Put("k", kb2), "existing entry wins")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, kb1, got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, idx1.closed)
	assert.Zero(t, idx2.closed)
	assert.Zero(t, c.Len())
}

func TestMemoryCache_CloseJoinsErrors(t *testing.T) {
	c := NewMemoryCache()
	c.Put("a", NewKnowledgeBase("a", nil, &closeCounter{err: errors.New("boom")}, nil))
	c.Put("b", NewKnowledgeBase("b", nil, &closeCounter{}, nil))

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
