package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// LoadDocument loads an OpenAPI document from a local file path or an HTTP(S) URL.
// Swagger 2.0 files are converted to OpenAPI 3.
func LoadDocument(input string) (*openapi3.T, error) {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	return LoadDocumentWithLoader(loader, input)
}

// LoadDocumentWithLoader loads an OpenAPI document using a custom loader
func LoadDocumentWithLoader(loader *openapi3.Loader, input string) (*openapi3.T, error) {
	// Try to parse as URL; if it looks like http(s), fetch via URL
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return loader.LoadFromURI(u)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	return LoadDocumentFromData(loader, data)
}

// LoadDocumentFromData loads an OpenAPI 3 document from raw bytes, converting
// Swagger 2.0 input on the way.
func LoadDocumentFromData(loader *openapi3.Loader, data []byte) (*openapi3.T, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if !doc.IsSwagger2() {
		return loader.LoadFromData(data)
	}

	// openapi2.T only decodes JSON, so YAML input is re-encoded first.
	raw, err := json.Marshal(doc.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSchema, err)
	}
	var v2 openapi2.T
	if err := json.Unmarshal(raw, &v2); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSchema, err)
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, fmt.Errorf("convert swagger 2.0: %w", err)
	}
	return v3, nil
}

// ValidateDocument validates an OpenAPI document
func ValidateDocument(input string) error {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	doc, err := LoadDocumentWithLoader(loader, input)
	if err != nil {
		return err
	}
	return doc.Validate(contextOf(loader))
}

// ValidateData validates raw schema bytes.
func ValidateData(ctx context.Context, data []byte) error {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := LoadDocumentFromData(loader, data)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}

func contextOf(loader *openapi3.Loader) context.Context {
	if loader.Context != nil {
		return loader.Context
	}
	return context.Background()
}
