// Package apidocs keeps documentation pages in sync with OpenAPI schemas.
//
// Every endpoint of a schema gets a generated page in a content collection.
// Generated pages are rewritten only when their content changes and pages
// edited by hand are never overwritten.
//
// Quick Start:
//
//	import "github.com/blimu-dev/apidocs"
//
//	// Generate pages for every schema in content/apiSchema
//	report, err := apidocs.SyncDocs(ctx, apidocs.SyncDocsOptions{
//		ContentDir: "./content",
//		SchemasDir: "./content/apiSchema",
//	})
//
// For more advanced usage, see the generator package.
package apidocs

import (
	"context"

	"github.com/blimu-dev/apidocs/pkg/generator"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/reference"
)

// Report lists the pages created, updated and skipped by a sync run, plus
// one message per endpoint that failed.
type Report = generator.Report

// SyncDocs synchronizes pages with minimal configuration.
//
// Example:
//
//	report, err := apidocs.SyncDocs(ctx, apidocs.SyncDocsOptions{
//		ContentDir:  "./content",
//		SchemasDir:  "./content/apiSchema",
//		ExcludeTags: []string{"^internal$"},
//	})
func SyncDocs(ctx context.Context, opts SyncDocsOptions) (Report, error) {
	return generator.SyncDocs(ctx, generator.SyncDocsOptions{
		ConfigPath:     opts.ConfigPath,
		Schema:         opts.Schema,
		ContentDir:     opts.ContentDir,
		SchemasDir:     opts.SchemasDir,
		NavigationFile: opts.NavigationFile,
		IncludeTags:    opts.IncludeTags,
		ExcludeTags:    opts.ExcludeTags,
	})
}

// SyncFromConfig synchronizes pages as described by a YAML configuration
// file. Optionally, a single schema file name restricts the run.
//
// Example:
//
//	// Sync everything the config describes
//	report, err := apidocs.SyncFromConfig(ctx, "./apidocs.yaml")
//
//	// Sync only one schema
//	report, err := apidocs.SyncFromConfig(ctx, "./apidocs.yaml", "users.json")
func SyncFromConfig(ctx context.Context, configPath string, onlySchema ...string) (Report, error) {
	return generator.SyncFromConfig(ctx, configPath, onlySchema...)
}

// ValidateSpec validates an OpenAPI or Swagger document.
//
// Example:
//
//	if err := apidocs.ValidateSpec("./openapi.yaml"); err != nil {
//		log.Fatalf("Invalid OpenAPI spec: %v", err)
//	}
func ValidateSpec(specPath string) error {
	return generator.ValidateSpec(specPath)
}

// Reference builds the API reference of a schema file in schemasDir. prop is
// the schemaFile prop of a generated page, "users.json|GET:/users/{id}", or
// just a file name for every endpoint.
func Reference(schemasDir, prop string) (*reference.View, error) {
	return reference.Load(openapi.NewRepository(schemasDir), prop)
}

// SyncDocsOptions contains options for SyncDocs
type SyncDocsOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// Schema syncs only the named schema file (optional)
	Schema string

	// Fallback options when no config file is provided
	ContentDir     string   // Root directory of the content collections
	SchemasDir     string   // Directory holding the API schema files
	NavigationFile string   // Menu configuration to take API groups from
	IncludeTags    []string // Regex patterns for tags to include
	ExcludeTags    []string // Regex patterns for tags to exclude
}
