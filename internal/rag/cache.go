package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"askrag/internal/models"
)

// KnowledgeBaseCache memoizes built knowledge bases by batch key.
type KnowledgeBaseCache interface {
	Get(key string) (*KnowledgeBase, bool)
	// Put stores kb under key unless an entry already exists, and returns the stored entry.
	Put(key string, kb *KnowledgeBase) *KnowledgeBase
}

// MemoryCache keeps every knowledge base for the lifetime of the process.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*KnowledgeBase
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*KnowledgeBase)}
}

func (c *MemoryCache) Get(key string) (*KnowledgeBase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kb, ok := c.entries[key]
	return kb, ok
}

func (c *MemoryCache) Put(key string, kb *KnowledgeBase) *KnowledgeBase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = kb
	return kb
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases every cached index and empties the cache.
func (c *MemoryCache) Close(ctx context.Context) error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*KnowledgeBase)
	c.mu.Unlock()

	var errs []error
	for key, kb := range entries {
		if err := kb.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close knowledge base %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// CacheKey identifies a batch by the names and contents of its files, independent of order.
func CacheKey(files []models.UploadedFile) string {
	entries := make([]string, len(files))
	for i, f := range files {
		sum := sha256.Sum256(f.Content)
		entries[i] = f.Name + "\x00" + hex.EncodeToString(sum[:])
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
