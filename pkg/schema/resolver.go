// Package schema resolves local $ref pointers and derives example payloads and
// readable type labels from OpenAPI schema nodes.
package schema

import (
	"strconv"
	"strings"

	"github.com/blimu-dev/apidocs/pkg/openapi"
)

// ResolveReference walks a local pointer of the form "#/a/b/c" through defs.
// Segments are JSON-pointer unescaped and index arrays when numeric. The
// result is (nil, false) when the ref is not local or any segment is missing.
// defs is never modified.
func ResolveReference(ref string, defs any) (any, bool) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, false
	}

	cur := defs
	for _, raw := range strings.Split(ref[2:], "/") {
		seg := unescapePointer(raw)
		switch node := cur.(type) {
		case *openapi.Object:
			v, ok := node.Get(seg)
			if !ok || v == nil {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) || node[i] == nil {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// RefName returns the last segment of a ref, e.g. "Pet" for "#/components/schemas/Pet".
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return unescapePointer(ref[i+1:])
	}
	return ref
}

func unescapePointer(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}
