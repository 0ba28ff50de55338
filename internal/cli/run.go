package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blimu-dev/apidocs/internal/metrics"
	"github.com/blimu-dev/apidocs/internal/server"
	"github.com/blimu-dev/apidocs/pkg/config"
	"github.com/blimu-dev/apidocs/pkg/generator"
	"github.com/blimu-dev/apidocs/pkg/navigation"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/reference"
)

// GlobalParams are shared by every command
type GlobalParams struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// FallbackParams override the config file, or stand in for it
type FallbackParams struct {
	ContentDir     string
	SchemasDir     string
	NavigationFile string
	StoreType      string
	IncludeTags    []string
	ExcludeTags    []string
}

type RunSyncParams struct {
	Global GlobalParams
	// Schema syncs a single schema file instead of the navigation or all schemas
	Schema   string
	JSON     bool
	Fallback FallbackParams
}

type RunServeParams struct {
	Global   GlobalParams
	Addr     string
	Dev      bool
	Fallback FallbackParams
}

type RunReferenceParams struct {
	Global     GlobalParams
	SchemasDir string
	// SchemaFile is the apiReference prop, e.g. "users.json|GET:/users/{id}"
	SchemaFile string
}

type RunNavParams struct {
	Global         GlobalParams
	NavigationFile string
	// View is breadcrumbs, pagination or tab
	View string
	Path string
}

// loadConfig reads the config file when one is given and applies the
// non-empty overrides on top of it.
func loadConfig(g GlobalParams, fb FallbackParams) (*config.Config, error) {
	cfg := config.Default()
	if g.ConfigPath != "" {
		loaded, err := config.Load(g.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if fb.ContentDir != "" {
		cfg.ContentDir = fb.ContentDir
	}
	if fb.SchemasDir != "" {
		cfg.SchemasDir = fb.SchemasDir
	}
	if fb.NavigationFile != "" {
		cfg.NavigationFile = fb.NavigationFile
	}
	if fb.StoreType != "" {
		cfg.Store.Type = fb.StoreType
	}
	if len(fb.IncludeTags) > 0 {
		cfg.Sync.IncludeTags = fb.IncludeTags
	}
	if len(fb.ExcludeTags) > 0 {
		cfg.Sync.ExcludeTags = fb.ExcludeTags
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunSync synchronizes generated pages and prints the report to out
func RunSync(ctx context.Context, p RunSyncParams, out io.Writer) error {
	cfg, err := loadConfig(p.Global, p.Fallback)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	report, err := generator.NewService(logger).SyncFromConfig(ctx, cfg, p.Schema)
	if err != nil {
		return err
	}

	if p.JSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if n := len(report.Errors); n > 0 {
		return fmt.Errorf("sync finished with %d error(s)", n)
	}
	return nil
}

func printReport(out io.Writer, r generator.Report) {
	for _, p := range r.Created {
		fmt.Fprintf(out, "created  %s\n", p)
	}
	for _, p := range r.Updated {
		fmt.Fprintf(out, "updated  %s\n", p)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(out, "error    %s\n", e)
	}
	fmt.Fprintf(out, "%d created, %d updated, %d skipped, %d errors (run %s)\n",
		len(r.Created), len(r.Updated), len(r.Skipped), len(r.Errors), r.RunID)
}

// RunValidate validates an OpenAPI or Swagger document
func RunValidate(input string) error {
	return openapi.ValidateDocument(input)
}

// RunServe serves the HTTP API until ctx is cancelled
func RunServe(ctx context.Context, p RunServeParams) error {
	cfg, err := loadConfig(p.Global, p.Fallback)
	if err != nil {
		return err
	}
	if p.Addr != "" {
		cfg.Server.Addr = p.Addr
	}
	if p.Dev {
		cfg.Server.Dev = true
	}
	logger, err := NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	m := metrics.New()
	syncer, err := generator.NewService(logger).WithMetrics(m).Synchronizer(cfg)
	if err != nil {
		return err
	}
	if !cfg.Server.Dev && cfg.Server.JWTSecret == "" {
		logger.Warn("no server.jwtSecret configured, bearer tokens are not verified")
	}
	return server.New(cfg, syncer, m, logger).ListenAndServe(ctx)
}

// RunReference prints the API reference of a schema file as JSON
func RunReference(p RunReferenceParams, out io.Writer) error {
	cfg, err := loadConfig(p.Global, FallbackParams{SchemasDir: p.SchemasDir})
	if err != nil {
		return err
	}
	view, err := reference.Load(openapi.NewRepository(cfg.SchemasDir), p.SchemaFile)
	if err != nil {
		return err
	}
	return writeJSON(out, view)
}

// RunNav resolves breadcrumbs, pagination or the active tab of a page
func RunNav(p RunNavParams, out io.Writer) error {
	cfg, err := loadConfig(p.Global, FallbackParams{NavigationFile: p.NavigationFile})
	if err != nil {
		return err
	}
	if cfg.NavigationFile == "" {
		return errors.New("no navigation file: set navigationFile or pass --navigation")
	}
	data, err := os.ReadFile(cfg.NavigationFile)
	if err != nil {
		return err
	}
	nav, err := navigation.ParseConfig(data)
	if err != nil {
		return err
	}
	opts := navigation.Options{Homepage: cfg.DocsHomepage}

	switch p.View {
	case "breadcrumbs":
		crumbs := navigation.Breadcrumbs(nav.Tabs, p.Path, opts)
		if crumbs == nil {
			crumbs = []navigation.Crumb{}
		}
		return writeJSON(out, crumbs)
	case "pagination":
		return writeJSON(out, navigation.Paginate(navigation.Flatten(nav.Tabs, opts), p.Path, opts))
	case "tab":
		index, tab := navigation.FindTabWithPath(nav.Tabs, p.Path, opts)
		title := ""
		if tab != nil {
			title = tab.Title
		}
		return writeJSON(out, map[string]any{"index": index, "title": title})
	default:
		return fmt.Errorf("unknown navigation view: %s", p.View)
	}
}
