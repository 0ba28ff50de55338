package openapi

import (
	"fmt"
)

// Document is a parsed OpenAPI 3.x or Swagger 2.0 description with its
// source key order intact.
type Document struct {
	Root *Object
}

// ParseDocument decodes a JSON or YAML schema document.
func ParseDocument(data []byte) (*Document, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrSchemaRootType, v)
	}
	return &Document{Root: root}, nil
}

// Paths returns the path map, or nil when the document has none.
func (d *Document) Paths() *Object {
	return d.Root.Object("paths")
}

// IsSwagger2 reports whether the document declares Swagger 2.0.
func (d *Document) IsSwagger2() bool {
	return d.Root.Has("swagger")
}

// Title returns info.title.
func (d *Document) Title() string {
	return d.Root.Object("info").String("title")
}

// Version returns info.version.
func (d *Document) Version() string {
	return d.Root.Object("info").String("version")
}

// Definitions builds the lookup root used to resolve local references. Both
// "#/components/schemas/X" and "#/definitions/X" resolve against it, and
// "#/schemas/X" is accepted as a shorthand for OpenAPI 3 component schemas.
func (d *Document) Definitions() *Object {
	defs := NewObject()
	defs.Set("definitions", orEmpty(d.Root.Object("definitions")))
	components := orEmpty(d.Root.Object("components"))
	defs.Set("components", components)
	defs.Set("schemas", orEmpty(components.Object("schemas")))
	for _, key := range []string{"parameters", "responses", "securityDefinitions"} {
		if obj := d.Root.Object(key); obj != nil {
			defs.Set(key, obj)
		}
	}
	return defs
}

func orEmpty(o *Object) *Object {
	if o == nil {
		return NewObject()
	}
	return o
}
