package openapi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SchemaFile describes one schema stored in a Repository.
type SchemaFile struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"displayName"`
	APISchema   string `json:"apiSchema,omitempty"`
}

// Repository reads schema files from a directory. Files may hold the schema
// directly or wrapped as {"apiSchema": "<schema as a JSON string>"}.
type Repository struct {
	Dir string
}

// NewRepository returns a repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{Dir: dir}
}

// List returns the schema files in the repository, sorted by file name. A
// missing directory yields an empty list.
func (r *Repository) List() ([]SchemaFile, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []SchemaFile{}, nil
		}
		return nil, err
	}

	out := make([]SchemaFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isSchemaFile(e.Name()) {
			continue
		}
		// undecodable files are listed without content; loading them reports the error
		raw, err := r.ReadRaw(e.Name())
		if err != nil && !errors.Is(err, ErrDecodeSchema) {
			return nil, err
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		out = append(out, SchemaFile{
			ID:          name,
			Filename:    e.Name(),
			DisplayName: name,
			APISchema:   string(raw),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// ReadRaw returns the unwrapped schema bytes of a file.
func (r *Repository) ReadRaw(name string) ([]byte, error) {
	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
		}
		return nil, err
	}
	return UnwrapSchema(data)
}

// Load reads and parses a schema file.
func (r *Repository) Load(name string) (*Document, error) {
	raw, err := r.ReadRaw(name)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// UnwrapSchema strips the {"apiSchema": ...} envelope used by the CMS when
// present and returns the schema bytes.
func UnwrapSchema(data []byte) ([]byte, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok || !obj.Has("apiSchema") {
		return data, nil
	}
	switch inner := obj.Value("apiSchema").(type) {
	case string:
		return []byte(inner), nil
	case *Object:
		return inner.MarshalJSON()
	default:
		return data, nil
	}
}

func (r *Repository) resolve(name string) (string, error) {
	base, err := filepath.Abs(r.Dir)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(filepath.Join(base, name))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidSchemaPath, name)
	}
	return target, nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
