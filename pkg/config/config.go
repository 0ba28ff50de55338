package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete configuration of the documentation site
type Config struct {
	// ContentDir is the root the file store writes collections under
	ContentDir string `yaml:"contentDir"`
	// Collection generated endpoint pages belong to
	Collection string `yaml:"collection"`
	// DocsHomepage is the storage path of the homepage without the content
	// prefix and extension, e.g. "/docs/index"
	DocsHomepage string `yaml:"docsHomepage"`
	// Extension of generated pages
	Extension string `yaml:"extension"`
	// SchemasDir holds the API schema files
	SchemasDir string `yaml:"schemasDir"`
	// NavigationFile is the JSON menu configuration (optional)
	NavigationFile string       `yaml:"navigationFile"`
	Store          StoreConfig  `yaml:"store"`
	Sync           SyncConfig   `yaml:"sync"`
	Server         ServerConfig `yaml:"server"`
	Log            LogConfig    `yaml:"log"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	// Type is "file" or "memory"
	Type string `yaml:"type"`
}

// SyncConfig tunes the synchronizer
type SyncConfig struct {
	Concurrency int `yaml:"concurrency"`
	// RootTolerance is the number of top-level blocks a page may gain or lose
	// and still compare equal. Nil means the default.
	RootTolerance *int     `yaml:"rootTolerance"`
	Validate      bool     `yaml:"validate"`
	IncludeTags   []string `yaml:"includeTags"`
	ExcludeTags   []string `yaml:"excludeTags"`
	Retry         Retry    `yaml:"retry"`
	// PostCommand runs in ContentDir after a sync wrote pages.
	// Uses Docker Compose array format: ["git", "add", "."]
	PostCommand []string `yaml:"postCommand"`
}

// Retry configures retries of transient store failures
type Retry struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// JWTSecret enables HS256 verification of bearer tokens
	JWTSecret string `yaml:"jwtSecret"`
	// Dev disables authentication
	Dev bool `yaml:"dev"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		ContentDir:   "content",
		Collection:   "docs",
		DocsHomepage: "/docs/index",
		Extension:    "mdx",
		SchemasDir:   filepath.Join("content", "apiSchema"),
		Store:        StoreConfig{Type: "file"},
		Sync: SyncConfig{
			Concurrency: 4,
			Retry: Retry{
				MaxAttempts:  3,
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from a YAML file. Unset fields keep their
// defaults and relative paths are made absolute.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes, validates and normalizes a YAML configuration
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates the configuration and absolutizes its paths
func (c *Config) Normalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, p := range []*string{&c.ContentDir, &c.SchemasDir, &c.NavigationFile} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// Validate checks field values
func (c *Config) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidConfig)
	}
	if c.Extension == "" {
		return fmt.Errorf("%w: extension is required", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"file", "memory"}, c.Store.Type) {
		return fmt.Errorf("%w: store.type must be file or memory, got %q", ErrInvalidConfig, c.Store.Type)
	}
	if c.Store.Type == "file" && c.ContentDir == "" {
		return fmt.Errorf("%w: contentDir is required for the file store", ErrInvalidConfig)
	}
	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("%w: sync.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Sync.RootTolerance != nil && *c.Sync.RootTolerance < 0 {
		return fmt.Errorf("%w: sync.rootTolerance cannot be negative", ErrInvalidConfig)
	}
	r := c.Sync.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("%w: sync.retry.maxAttempts must be at least 1", ErrInvalidConfig)
	}
	if r.InitialDelay < 0 || r.MaxDelay < r.InitialDelay {
		return fmt.Errorf("%w: sync.retry delays must satisfy 0 <= initialDelay <= maxDelay", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// RootTolerance returns sync.rootTolerance or def when unset
func (c *Config) RootTolerance(def int) int {
	if c.Sync.RootTolerance == nil {
		return def
	}
	return *c.Sync.RootTolerance
}
