package ir

import (
	"strings"

	"github.com/blimu-dev/apidocs/pkg/openapi"
)

// Endpoint represents a single API operation (method + path)
type Endpoint struct {
	Path        string       `json:"path"`
	Method      string       `json:"method"`
	Summary     string       `json:"summary"`
	Description string       `json:"description,omitempty"`
	OperationID string       `json:"operationId,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Parameters  []Parameter  `json:"parameters,omitempty"`
	RequestBody *RequestBody `json:"requestBody,omitempty"`
	// Responses keep the order they are declared in
	Responses []Response `json:"responses,omitempty"`
}

// Key returns the identity of the endpoint, e.g. "GET /users/{id}".
func (e Endpoint) Key() string {
	return strings.ToUpper(e.Method) + " " + e.Path
}

// Parameter represents a path, query, header or cookie parameter
type Parameter struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
	// Schema is the parameter schema; for Swagger 2.0 non-body parameters it
	// is the parameter object itself, which carries type/format/enum.
	Schema *openapi.Object `json:"schema,omitempty"`
}

// RequestBody is the normalized request body of an operation. Swagger 2.0
// body parameters are converted to a single application/json media type.
type RequestBody struct {
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Content     []MediaType `json:"content"`
}

// Schema returns the schema of the preferred media type.
func (b *RequestBody) Schema() *openapi.Object {
	if b == nil {
		return nil
	}
	return preferredSchema(b.Content)
}

// MediaType pairs a content type with its schema
type MediaType struct {
	ContentType string          `json:"contentType"`
	Schema      *openapi.Object `json:"schema,omitempty"`
}

// Response represents one declared response of an operation
type Response struct {
	Code        string      `json:"code"`
	Description string      `json:"description,omitempty"`
	Content     []MediaType `json:"content,omitempty"`
	// Raw is the response object as declared
	Raw *openapi.Object `json:"-"`
}

// Schema returns the schema of the preferred media type.
func (r Response) Schema() *openapi.Object {
	return preferredSchema(r.Content)
}

// Expandable reports whether the response carries more than a description.
func (r Response) Expandable() bool {
	if len(r.Content) > 0 || r.Raw.Has("schema") {
		return true
	}
	for _, k := range r.Raw.Keys() {
		if k != "description" {
			return true
		}
	}
	return false
}

// Group represents the endpoints filed under one tag
type Group struct {
	Tag       string
	Endpoints []Endpoint
}

// IR represents the endpoints of a schema document grouped by tag
type IR struct {
	Title   string
	Version string
	Groups  []Group
}

// preferredSchema prefers application/json, then the first declared media type.
func preferredSchema(content []MediaType) *openapi.Object {
	for _, m := range content {
		if m.ContentType == "application/json" {
			return m.Schema
		}
	}
	if len(content) > 0 {
		return content[0].Schema
	}
	return nil
}
