package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/blimu-dev/apidocs/pkg/content"
)

// File stores pages as MDX files with YAML front matter under
// Dir/<collection>/<path>.
type File struct {
	Dir string
}

// NewFile returns a file store rooted at dir.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store requires a content directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &File{Dir: abs}, nil
}

// Create implements Store. The pending document is an empty file.
func (f *File) Create(ctx context.Context, collection, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.resolve(collection, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return classify(err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		return classify(err)
	}
	return file.Close()
}

// Get implements Store.
func (f *File) Get(ctx context.Context, collection, path string) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return content.Document{}, err
	}
	target, err := f.resolve(collection, path)
	if err != nil {
		return content.Document{}, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return content.Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return content.Document{}, classify(err)
	}
	doc, err := DecodePage(data)
	if err != nil {
		return content.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Update implements Store. The file is replaced atomically.
func (f *File) Update(ctx context.Context, collection, path string, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.resolve(collection, path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return classify(err)
	}

	data, err := EncodePage(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".page-*")
	if err != nil {
		return classify(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return classify(err)
	}
	if err := tmp.Close(); err != nil {
		return classify(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return classify(err)
	}
	return classify(os.Rename(tmp.Name(), target))
}

// Delete implements Store.
func (f *File) Delete(ctx context.Context, collection, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.resolve(collection, path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return classify(err)
	}
	return nil
}

// resolve maps collection/path under Dir, rejecting paths that escape it.
func (f *File) resolve(collection, path string) (string, error) {
	target := filepath.Join(f.Dir, collection, filepath.FromSlash(path))
	rel, err := filepath.Rel(f.Dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid document path %q", path)
	}
	return target, nil
}

// classify marks contention and timeout failures as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if os.IsTimeout(err) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
