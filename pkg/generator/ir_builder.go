package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blimu-dev/apidocs/pkg/ir"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/schema"
)

// miscTag files operations that declare no tags
const miscTag = "misc"

// httpMethods are the path item keys that describe operations. Every other
// key ("parameters", "summary", "servers", "x-*") is skipped.
var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"options": {}, "head": {}, "patch": {}, "trace": {},
}

// ExtractEndpoints lists every operation of doc. Paths and methods come out
// in the order the document declares them.
func ExtractEndpoints(doc *openapi.Document) []ir.Endpoint {
	if doc == nil {
		return nil
	}
	paths := doc.Paths()
	out := make([]ir.Endpoint, 0, paths.Len())
	for _, path := range paths.Keys() {
		item := resolveObject(doc, paths.Object(path))
		if item == nil {
			continue
		}
		shared := collectParams(doc, item.Slice("parameters"))
		for _, key := range item.Keys() {
			if _, ok := httpMethods[strings.ToLower(key)]; !ok {
				continue
			}
			op := item.Object(key)
			if op == nil {
				continue
			}
			out = append(out, buildEndpoint(doc, path, strings.ToUpper(key), op, shared))
		}
	}
	return out
}

// buildEndpoint converts one operation object
func buildEndpoint(doc *openapi.Document, path, method string, op *openapi.Object, shared []ir.Parameter) ir.Endpoint {
	params := mergeParams(shared, collectParams(doc, op.Slice("parameters")))

	body := extractRequestBody(doc, op)
	kept := params[:0:0]
	for _, p := range params {
		if p.In == "body" {
			if body == nil {
				body = bodyFromParameter(p)
			}
			continue
		}
		kept = append(kept, p)
	}

	summary := op.String("summary")
	if summary == "" {
		summary = method + " " + path
	}

	var tags []string
	for _, t := range op.Slice("tags") {
		if s, ok := t.(string); ok {
			tags = append(tags, s)
		}
	}

	return ir.Endpoint{
		Path:        path,
		Method:      method,
		Summary:     summary,
		Description: op.String("description"),
		OperationID: op.String("operationId"),
		Deprecated:  op.Bool("deprecated"),
		Tags:        tags,
		Parameters:  kept,
		RequestBody: body,
		Responses:   extractResponses(doc, op),
	}
}

// collectParams converts a parameters array, resolving $ref entries
func collectParams(doc *openapi.Document, raw []any) []ir.Parameter {
	out := make([]ir.Parameter, 0, len(raw))
	for _, v := range raw {
		p, _ := v.(*openapi.Object)
		p = resolveObject(doc, p)
		if p == nil {
			continue
		}
		param := ir.Parameter{
			Name:        p.String("name"),
			In:          p.String("in"),
			Required:    p.Bool("required"),
			Description: p.String("description"),
			Schema:      p.Object("schema"),
		}
		// Swagger 2.0 non-body parameters carry type/format inline
		if param.Schema == nil && param.In != "body" {
			param.Schema = p
		}
		out = append(out, param)
	}
	return out
}

// mergeParams returns path-level parameters followed by operation-level ones.
// An operation parameter with the same name and location replaces the shared
// one in place.
func mergeParams(shared, own []ir.Parameter) []ir.Parameter {
	out := make([]ir.Parameter, 0, len(shared)+len(own))
	out = append(out, shared...)
	for _, p := range own {
		replaced := false
		for i := range out {
			if out[i].Name == p.Name && out[i].In == p.In {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

// extractRequestBody reads an OpenAPI 3 requestBody
func extractRequestBody(doc *openapi.Document, op *openapi.Object) *ir.RequestBody {
	rb := resolveObject(doc, op.Object("requestBody"))
	if rb == nil {
		return nil
	}
	return &ir.RequestBody{
		Description: rb.String("description"),
		Required:    rb.Bool("required"),
		Content:     mediaTypes(rb.Object("content")),
	}
}

// bodyFromParameter normalizes a Swagger 2.0 "in: body" parameter
func bodyFromParameter(p ir.Parameter) *ir.RequestBody {
	return &ir.RequestBody{
		Description: p.Description,
		Required:    p.Required,
		Content:     []ir.MediaType{{ContentType: "application/json", Schema: p.Schema}},
	}
}

// extractResponses converts the responses map in declaration order
func extractResponses(doc *openapi.Document, op *openapi.Object) []ir.Response {
	responses := op.Object("responses")
	out := make([]ir.Response, 0, responses.Len())
	for _, code := range responses.Keys() {
		r := resolveObject(doc, responses.Object(code))
		if r == nil {
			continue
		}
		resp := ir.Response{
			Code:        code,
			Description: r.String("description"),
			Raw:         r,
		}
		if content := r.Object("content"); content != nil {
			resp.Content = mediaTypes(content)
		} else if s := r.Object("schema"); s != nil {
			resp.Content = []ir.MediaType{{ContentType: "application/json", Schema: s}}
		}
		out = append(out, resp)
	}
	return out
}

func mediaTypes(content *openapi.Object) []ir.MediaType {
	out := make([]ir.MediaType, 0, content.Len())
	for _, ct := range content.Keys() {
		out = append(out, ir.MediaType{
			ContentType: ct,
			Schema:      content.Object(ct).Object("schema"),
		})
	}
	return out
}

// resolveObject follows a local $ref on obj. Unresolvable references yield nil.
func resolveObject(doc *openapi.Document, obj *openapi.Object) *openapi.Object {
	for range 8 {
		ref := obj.String("$ref")
		if ref == "" {
			return obj
		}
		v, ok := schema.ResolveReference(ref, doc.Root)
		if !ok {
			return nil
		}
		obj, _ = v.(*openapi.Object)
	}
	return nil
}

// BuildIR extracts the endpoints of doc and files each under its first allowed
// tag. Groups and endpoints keep document order.
func BuildIR(doc *openapi.Document, includeTags, excludeTags []string) (ir.IR, error) {
	include, exclude, err := compileTagFilters(includeTags, excludeTags)
	if err != nil {
		return ir.IR{}, err
	}

	endpoints := ExtractEndpoints(doc)
	allowed := filterTags(collectTags(endpoints), include, exclude)

	result := ir.IR{Title: doc.Title(), Version: doc.Version()}
	index := map[string]int{}
	for _, ep := range endpoints {
		originalTags := ep.Tags
		if len(originalTags) == 0 {
			originalTags = []string{miscTag}
		}
		if !shouldIncludeOperation(originalTags, include, exclude) {
			continue
		}
		tag := firstAllowedTag(originalTags, allowed)
		if tag == "" {
			continue
		}
		i, ok := index[tag]
		if !ok {
			i = len(result.Groups)
			index[tag] = i
			result.Groups = append(result.Groups, ir.Group{Tag: tag})
		}
		result.Groups[i].Endpoints = append(result.Groups[i].Endpoints, ep)
	}
	return result, nil
}

// collectTags returns the distinct tags of endpoints in first-seen order
func collectTags(endpoints []ir.Endpoint) []string {
	seen := map[string]struct{}{miscTag: {}}
	out := []string{miscTag}
	for _, ep := range endpoints {
		for _, t := range ep.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation reports whether any tag matches an include pattern
// (or there are none) and no tag matches an exclude pattern.
func shouldIncludeOperation(originalTags []string, include, exclude []*regexp.Regexp) bool {
	if len(include) > 0 && !anyMatch(originalTags, include) {
		return false
	}
	return !anyMatch(originalTags, exclude)
}

func anyMatch(tags []string, patterns []*regexp.Regexp) bool {
	for _, tag := range tags {
		for _, r := range patterns {
			if r.MatchString(tag) {
				return true
			}
		}
	}
	return false
}

// filterTags marks each tag as allowed or not by the include/exclude patterns
func filterTags(all []string, include, exclude []*regexp.Regexp) map[string]bool {
	allowed := make(map[string]bool, len(all))
	for _, t := range all {
		one := []string{t}
		allowed[t] = (len(include) == 0 || anyMatch(one, include)) && !anyMatch(one, exclude)
	}
	return allowed
}

// firstAllowedTag returns the first allowed tag from a list
func firstAllowedTag(tags []string, allowed map[string]bool) string {
	for _, t := range tags {
		if allowed[t] {
			return t
		}
	}
	return ""
}
