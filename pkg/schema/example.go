package schema

import (
	"github.com/blimu-dev/apidocs/pkg/openapi"
)

// Ellipsis replaces values nested deeper than the generator's depth limit.
const Ellipsis = "..."

// DefaultMaxDepth is the nesting depth after which examples are elided.
const DefaultMaxDepth = 3

// Generator synthesizes example payloads from schema nodes.
type Generator struct {
	Definitions *openapi.Object
	MaxDepth    int
}

// NewGenerator returns a generator resolving refs against defs.
func NewGenerator(defs *openapi.Object) *Generator {
	return &Generator{Definitions: defs, MaxDepth: DefaultMaxDepth}
}

// GenerateExample builds an example value for node with the default depth limit.
func GenerateExample(node any, defs *openapi.Object) any {
	return NewGenerator(defs).Generate(node, 0)
}

// Generate builds an example value for node starting at depth.
func (g *Generator) Generate(node any, depth int) any {
	return g.generate(node, depth, map[string]struct{}{})
}

// generate tracks the refs followed since the last depth increment in seen;
// following the same ref twice without nesting would never terminate.
func (g *Generator) generate(node any, depth int, seen map[string]struct{}) any {
	if depth > g.maxDepth() {
		return Ellipsis
	}
	s, ok := node.(*openapi.Object)
	if !ok {
		return nil
	}

	if ref := s.String("$ref"); ref != "" {
		if _, loop := seen[ref]; loop {
			return placeholder(ref)
		}
		target, found := ResolveReference(ref, g.Definitions)
		if !found {
			return placeholder(ref)
		}
		seen[ref] = struct{}{}
		return g.generate(target, depth, seen)
	}

	switch s.String("type") {
	case "string":
		return leafValue(s, "string")
	case "integer", "number":
		return leafValue(s, int64(0))
	case "boolean":
		return leafValue(s, false)
	case "array":
		items := s.Value("items")
		if items == nil {
			return []any{}
		}
		return []any{g.generate(items, depth+1, map[string]struct{}{})}
	case "object":
		return g.object(s, depth)
	default:
		if s.Has("properties") {
			return g.object(s, depth)
		}
		return nil
	}
}

func (g *Generator) object(s *openapi.Object, depth int) any {
	out := openapi.NewObject()
	props := s.Object("properties")
	for _, name := range props.Keys() {
		out.Set(name, g.generate(props.Value(name), depth+1, map[string]struct{}{}))
	}
	if props.Len() == 0 {
		if extra := s.Object("additionalProperties"); extra != nil {
			out.Set("additionalProp1", g.generate(extra, depth+1, map[string]struct{}{}))
		}
	}
	return out
}

func (g *Generator) maxDepth() int {
	if g.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return g.MaxDepth
}

func leafValue(s *openapi.Object, fallback any) any {
	for _, key := range []string{"example", "default"} {
		if v, ok := s.Get(key); ok && v != nil {
			return v
		}
	}
	if enum := s.Slice("enum"); len(enum) > 0 && enum[0] != nil {
		return enum[0]
	}
	return fallback
}

func placeholder(ref string) string {
	return "<" + RefName(ref) + ">"
}
