// Package reference builds the data behind the apiReference block of a
// generated page: one endpoint (or all of them) with readable type labels and
// example payloads.
package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blimu-dev/apidocs/pkg/generator"
	"github.com/blimu-dev/apidocs/pkg/ir"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/schema"
)

// ErrEndpointNotFound is returned when a selector names no endpoint of the schema.
var ErrEndpointNotFound = errors.New("endpoint not found")

// DefaultTitle is used when the schema has no info.title.
const DefaultTitle = "API Documentation"

// View is the reference of one schema file.
type View struct {
	Title   string `json:"title"`
	Version string `json:"version"`
	// Selected is set when the view was built for a single endpoint
	Selected  *EndpointView  `json:"selected,omitempty"`
	Endpoints []EndpointView `json:"endpoints"`
}

// EndpointView describes one operation.
type EndpointView struct {
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	OperationID string          `json:"operationId,omitempty"`
	Deprecated  bool            `json:"deprecated,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Parameters  []ParameterView `json:"parameters"`
	RequestBody *BodyView       `json:"requestBody,omitempty"`
	Responses   []ResponseView  `json:"responses"`
}

// ParameterView describes one parameter
type ParameterView struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
}

// BodyView describes a request body
type BodyView struct {
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	ContentType string `json:"contentType,omitempty"`
	Type        string `json:"type"`
	Example     any    `json:"example"`
}

// ResponseView describes one response. Expanded responses show their schema
// by default.
type ResponseView struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Type        string `json:"type,omitempty"`
	Example     any    `json:"example,omitempty"`
	Expanded    bool   `json:"expanded"`
}

// ParseSchemaFileProp splits the schemaFile prop of an apiReference block,
// "users.json|GET:/users/{id}", into the file name and the endpoint selector.
func ParseSchemaFileProp(prop string) (file, selector string) {
	file, selector, _ = strings.Cut(prop, "|")
	return file, selector
}

// ParseSelector splits "METHOD:/path". Colons after the first belong to the path.
func ParseSelector(selector string) (method, path string, err error) {
	method, path, ok := strings.Cut(selector, ":")
	if !ok || method == "" || path == "" {
		return "", "", fmt.Errorf("invalid endpoint selector %q", selector)
	}
	return strings.ToUpper(method), path, nil
}

// Build returns the reference of doc. With an empty selector every endpoint is
// listed; otherwise only the selected one, or ErrEndpointNotFound.
func Build(doc *openapi.Document, selector string) (*View, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no schema", ErrEndpointNotFound)
	}
	defs := doc.Definitions()

	view := &View{
		Title:     doc.Title(),
		Version:   doc.Version(),
		Endpoints: []EndpointView{},
	}
	if view.Title == "" {
		view.Title = DefaultTitle
	}

	endpoints := generator.ExtractEndpoints(doc)
	if selector == "" {
		for _, ep := range endpoints {
			view.Endpoints = append(view.Endpoints, endpointView(ep, defs))
		}
		return view, nil
	}

	method, path, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	for _, ep := range endpoints {
		if ep.Method == method && ep.Path == path {
			selected := endpointView(ep, defs)
			view.Selected = &selected
			view.Endpoints = append(view.Endpoints, selected)
			return view, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, method, path)
}

// Load reads the schema named by prop from repo and builds its reference.
func Load(repo *openapi.Repository, prop string) (*View, error) {
	file, selector := ParseSchemaFileProp(prop)
	if file == "" {
		return nil, errors.New("no schema file specified")
	}
	doc, err := repo.Load(file)
	if err != nil {
		return nil, err
	}
	return Build(doc, selector)
}

func endpointView(ep ir.Endpoint, defs *openapi.Object) EndpointView {
	out := EndpointView{
		Method:      ep.Method,
		Path:        ep.Path,
		Summary:     ep.Summary,
		Description: ep.Description,
		OperationID: ep.OperationID,
		Deprecated:  ep.Deprecated,
		Tags:        ep.Tags,
		Parameters:  make([]ParameterView, 0, len(ep.Parameters)),
		Responses:   make([]ResponseView, 0, len(ep.Responses)),
	}

	for _, p := range ep.Parameters {
		out.Parameters = append(out.Parameters, ParameterView{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Type:        schema.TypeLabel(p.Schema, defs),
		})
	}

	if body := ep.RequestBody; body != nil {
		bv := &BodyView{Description: body.Description, Required: body.Required}
		if s := body.Schema(); s != nil {
			bv.ContentType = contentTypeOf(body.Content, s)
			bv.Type = schema.TypeLabel(s, defs)
			bv.Example = schema.GenerateExample(s, defs)
		}
		out.RequestBody = bv
	}

	for _, r := range ep.Responses {
		rv := ResponseView{Code: r.Code, Description: r.Description, Expanded: r.Expandable()}
		if s := r.Schema(); s != nil {
			rv.ContentType = contentTypeOf(r.Content, s)
			rv.Type = schema.TypeLabel(s, defs)
			rv.Example = schema.GenerateExample(s, defs)
		}
		out.Responses = append(out.Responses, rv)
	}
	return out
}

func contentTypeOf(content []ir.MediaType, s *openapi.Object) string {
	for _, m := range content {
		if m.Schema == s {
			return m.ContentType
		}
	}
	return ""
}
