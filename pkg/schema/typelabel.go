package schema

import (
	"strings"

	"github.com/blimu-dev/apidocs/pkg/openapi"
)

// TypeLabel renders a short human-readable type for a schema node, such as
// "Pet", "array<string>", "string(date-time)" or "enum<string>".
func TypeLabel(node any, defs *openapi.Object) string {
	s, ok := node.(*openapi.Object)
	if !ok || s.Len() == 0 {
		return "unknown"
	}
	if ref := s.String("$ref"); ref != "" {
		return RefName(ref)
	}

	// Compositions
	for _, key := range []string{"oneOf", "anyOf", "allOf"} {
		if subs := s.Slice(key); len(subs) > 0 {
			labels := make([]string, 0, len(subs))
			for _, sub := range subs {
				labels = append(labels, TypeLabel(sub, defs))
			}
			sep := " | "
			if key == "allOf" {
				sep = " & "
			}
			return key + "<" + strings.Join(labels, sep) + ">"
		}
	}

	typ := s.String("type")
	if len(s.Slice("enum")) > 0 {
		if typ == "" {
			typ = "string"
		}
		return "enum<" + typ + ">"
	}

	switch typ {
	case "array":
		return "array<" + TypeLabel(s.Value("items"), defs) + ">"
	case "object":
		return "object"
	case "string", "integer", "number", "boolean":
		if format := s.String("format"); format != "" {
			return typ + "(" + format + ")"
		}
		return typ
	case "":
		if s.Has("properties") || s.Has("additionalProperties") {
			return "object"
		}
		return "unknown"
	default:
		return typ
	}
}
