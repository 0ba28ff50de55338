package openapi

import "errors"

var (
	// ErrDecodeSchema is returned when a schema document is not valid JSON or YAML.
	ErrDecodeSchema = errors.New("decode schema")
	// ErrSchemaRootType is returned when a schema document root is not an object.
	ErrSchemaRootType = errors.New("schema root must be an object")
	// ErrSchemaNotFound is returned when a schema file does not exist in the repository.
	ErrSchemaNotFound = errors.New("schema file not found")
	// ErrInvalidSchemaPath is returned when a schema file name escapes the repository directory.
	ErrInvalidSchemaPath = errors.New("invalid schema file path")
)
