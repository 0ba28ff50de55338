package generator

import (
	"context"
	"log/slog"

	"github.com/blimu-dev/apidocs/pkg/config"
	"github.com/blimu-dev/apidocs/pkg/openapi"
)

// SyncDocs is a convenience function for a sync run with minimal configuration
func SyncDocs(ctx context.Context, opts SyncDocsOptions) (Report, error) {
	service := NewService(slog.Default())

	return service.Sync(ctx, SyncOptions{
		ConfigPath: opts.ConfigPath,
		Schema:     opts.Schema,
		Fallback: FallbackOptions{
			ContentDir:     opts.ContentDir,
			SchemasDir:     opts.SchemasDir,
			NavigationFile: opts.NavigationFile,
			IncludeTags:    opts.IncludeTags,
			ExcludeTags:    opts.ExcludeTags,
		},
	})
}

// SyncDocsOptions contains options for the convenience SyncDocs function
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

// SyncFromConfig is a convenience function for syncing from a config file
func SyncFromConfig(ctx context.Context, configPath string, onlySchema ...string) (Report, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return Report{}, err
	}

	schema := ""
	if len(onlySchema) > 0 {
		schema = onlySchema[0]
	}

	return NewService(slog.Default()).SyncFromConfig(ctx, cfg, schema)
}

// ValidateSpec validates an OpenAPI or Swagger document
func ValidateSpec(specPath string) error {
	return openapi.ValidateDocument(specPath)
}
