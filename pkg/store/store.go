// Package store persists documentation pages.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/blimu-dev/apidocs/pkg/content"
)

var (
	// ErrAlreadyExists is returned by Create when a document exists at the path.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrNotFound is returned when no document exists at the path.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable marks failures worth retrying.
	ErrUnavailable = errors.New("store unavailable")
)

// IsTransient reports whether err is a retryable store failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Store defines the document operations used by the synchronizer.
// Paths are relative to the collection, e.g. "api-documentation/users/get-users.mdx".
type Store interface {
	// Create adds an empty pending document, or fails with ErrAlreadyExists
	Create(ctx context.Context, collection, path string) error
	// Get returns the document at path, or fails with ErrNotFound
	Get(ctx context.Context, collection, path string) (content.Document, error)
	// Update replaces the document at path, or fails with ErrNotFound
	Update(ctx context.Context, collection, path string, doc content.Document) error
	// Delete removes the document at path, or fails with ErrNotFound
	Delete(ctx context.Context, collection, path string) error
}

// Options configures a store backend
type Options struct {
	// Dir is the content root for file-backed stores
	Dir string
}

// Factory creates a store from options
type Factory func(opts Options) (Store, error)

// Registry manages available store backends
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in backends
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("memory", func(Options) (Store, error) { return NewMemory(), nil })
	r.Register("file", func(opts Options) (Store, error) {
		f, err := NewFile(opts.Dir)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	return r
}

// Register adds a backend to the registry
func (r *Registry) Register(typ string, f Factory) {
	r.factories[typ] = f
}

// Get retrieves a backend factory by type
func (r *Registry) Get(typ string) (Factory, bool) {
	f, ok := r.factories[typ]
	return f, ok
}

// GetAvailableTypes returns all registered backend types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open creates a store of the given type
func (r *Registry) Open(typ string, opts Options) (Store, error) {
	f, ok := r.Get(typ)
	if !ok {
		return nil, fmt.Errorf("unsupported store type: %s", typ)
	}
	return f(opts)
}
