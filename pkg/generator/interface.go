package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/blimu-dev/apidocs/internal/metrics"
	"github.com/blimu-dev/apidocs/internal/retry"
	"github.com/blimu-dev/apidocs/pkg/config"
	"github.com/blimu-dev/apidocs/pkg/content"
	"github.com/blimu-dev/apidocs/pkg/navigation"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/store"
)

// SyncOptions contains options for a sync run
type SyncOptions struct {
	ConfigPath string
	// Schema restricts the run to one schema file of the schema repository
	Schema   string
	Fallback FallbackOptions
}

// FallbackOptions are used when no config file is provided
type FallbackOptions struct {
	ContentDir     string
	SchemasDir     string
	NavigationFile string
	StoreType      string
	IncludeTags    []string
	ExcludeTags    []string
}

// Service wires configuration, stores and the synchronizer together
type Service struct {
	registry *store.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a service with the built-in store backends
func NewService(logger *slog.Logger) *Service {
	return NewServiceWithRegistry(store.NewRegistry(), logger)
}

// NewServiceWithRegistry creates a service with a custom store registry
func NewServiceWithRegistry(registry *store.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: registry, logger: logger}
}

// WithMetrics records sync metrics on m
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// GetRegistry returns the store registry
func (s *Service) GetRegistry() *store.Registry {
	return s.registry
}

// Sync runs a synchronization described by opts
func (s *Service) Sync(ctx context.Context, opts SyncOptions) (Report, error) {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		cfg = config.Default()
		fb := opts.Fallback
		if fb.ContentDir != "" {
			cfg.ContentDir = fb.ContentDir
		}
		if fb.SchemasDir != "" {
			cfg.SchemasDir = fb.SchemasDir
		}
		if fb.StoreType != "" {
			cfg.Store.Type = fb.StoreType
		}
		cfg.NavigationFile = fb.NavigationFile
		cfg.Sync.IncludeTags = fb.IncludeTags
		cfg.Sync.ExcludeTags = fb.ExcludeTags
		if err := cfg.Normalize(); err != nil {
			return Report{}, err
		}
	} else {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return Report{}, err
		}
	}

	return s.SyncFromConfig(ctx, cfg, opts.Schema)
}

// SyncFromConfig synchronizes one schema file when onlySchema is set, the
// API groups of the navigation file when one is configured, and every schema
// file of the schema repository otherwise.
func (s *Service) SyncFromConfig(ctx context.Context, cfg *config.Config, onlySchema string) (Report, error) {
	syncer, err := s.Synchronizer(cfg)
	if err != nil {
		return Report{}, err
	}

	var report Report
	switch {
	case onlySchema != "":
		report, err = syncer.SyncSchema(ctx, onlySchema)
		if err != nil {
			return Report{}, err
		}

	case cfg.NavigationFile != "":
		data, err := os.ReadFile(cfg.NavigationFile)
		if err != nil {
			return Report{}, fmt.Errorf("read navigation: %w", err)
		}
		nav, err := navigation.ParseConfig(data)
		if err != nil {
			return Report{}, err
		}
		report = syncer.SyncNavigation(ctx, nav.Tabs)

	default:
		schemas, err := syncer.Schemas.List()
		if err != nil {
			return Report{}, err
		}
		report = newReport()
		for _, sf := range schemas {
			r, err := syncer.SyncSchema(ctx, sf.Filename)
			if err != nil {
				// a broken schema aborts only its own pages
				s.logger.Warn("schema skipped", "schema", sf.Filename, "error", err)
				report.Errors = append(report.Errors, fmt.Sprintf("Failed to process schema %s: %v", sf.Filename, err))
				continue
			}
			report.Merge(r)
		}
	}

	if len(report.Created)+len(report.Updated) > 0 {
		if err := s.executePostCommand(cfg); err != nil {
			return report, fmt.Errorf("post-sync command failed: %w", err)
		}
	}
	return report, nil
}

// Synchronizer builds a synchronizer from cfg
func (s *Service) Synchronizer(cfg *config.Config) (*Synchronizer, error) {
	st, err := s.registry.Open(cfg.Store.Type, store.Options{Dir: cfg.ContentDir})
	if err != nil {
		return nil, err
	}
	syncer := NewSynchronizer(st, s.logger)
	syncer.Comparator = content.NewComparator(cfg.RootTolerance(content.DefaultRootTolerance), s.logger)
	syncer.Schemas = openapi.NewRepository(cfg.SchemasDir)
	syncer.Collection = cfg.Collection
	syncer.Extension = cfg.Extension
	syncer.Concurrency = cfg.Sync.Concurrency
	syncer.IncludeTags = cfg.Sync.IncludeTags
	syncer.ExcludeTags = cfg.Sync.ExcludeTags
	syncer.Validate = cfg.Sync.Validate
	syncer.Metrics = s.metrics
	syncer.Retry = retry.Config{
		MaxAttempts:  cfg.Sync.Retry.MaxAttempts,
		InitialDelay: cfg.Sync.Retry.InitialDelay,
		MaxDelay:     cfg.Sync.Retry.MaxDelay,
		Multiplier:   2.0,
		AddJitter:    true,
	}
	return syncer, nil
}

// executePostCommand runs sync.postCommand in the content directory
func (s *Service) executePostCommand(cfg *config.Config) error {
	command := cfg.Sync.PostCommand
	if len(command) == 0 {
		return nil
	}
	if cfg.Store.Type != "file" {
		return errors.New("postCommand requires the file store")
	}
	return s.executeCommand(command, cfg.ContentDir, "post-command")
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmdDescription := strings.Join(command, " ")
	s.logger.Info("running command", "label", commandLabel, "command", cmdDescription)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}
	return nil
}
