package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blimu-dev/apidocs/pkg/content"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]content.Document
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]content.Document)}
}

func memoryKey(collection, path string) string {
	return collection + ":" + path
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, collection, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(collection, path)
	if _, ok := m.docs[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	m.docs[key] = content.Document{}
	return nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, collection, path string) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return content.Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[memoryKey(collection, path)]
	if !ok {
		return content.Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return doc, nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, collection, path string, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(collection, path)
	if _, ok := m.docs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	m.docs[key] = doc
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, collection, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(collection, path)
	if _, ok := m.docs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(m.docs, key)
	return nil
}

// Paths returns the stored paths of a collection, sorted.
func (m *Memory) Paths(collection string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := memoryKey(collection, "")
	var out []string
	for key := range m.docs {
		if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			out = append(out, rest)
		}
	}
	sort.Strings(out)
	return out
}
