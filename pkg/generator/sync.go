package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/apidocs/internal/metrics"
	"github.com/blimu-dev/apidocs/internal/retry"
	"github.com/blimu-dev/apidocs/pkg/content"
	"github.com/blimu-dev/apidocs/pkg/ir"
	"github.com/blimu-dev/apidocs/pkg/navigation"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/store"
	"github.com/blimu-dev/apidocs/pkg/utils"
)

// Result is the outcome of synchronizing one endpoint page
type Result string

const (
	ResultCreated Result = "created"
	ResultUpdated Result = "updated"
	ResultSkipped Result = "skipped"
)

// Defaults for a new Synchronizer
const (
	DefaultCollection  = "docs"
	DefaultExtension   = "mdx"
	DefaultConcurrency = 4
)

// Report collects the outcome of a batch. Paths are collection-relative.
type Report struct {
	RunID   string   `json:"runId"`
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped"`
	Errors  []string `json:"errors"`
}

func newReport() Report {
	return Report{
		RunID:   uuid.NewString(),
		Created: []string{},
		Updated: []string{},
		Skipped: []string{},
		Errors:  []string{},
	}
}

// Merge appends the results of other, keeping r's run ID
func (r *Report) Merge(other Report) {
	r.Created = append(r.Created, other.Created...)
	r.Updated = append(r.Updated, other.Updated...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Written returns created and updated paths, in that order
func (r Report) Written() []string {
	out := make([]string, 0, len(r.Created)+len(r.Updated))
	out = append(out, r.Created...)
	return append(out, r.Updated...)
}

// Synchronizer keeps generated endpoint pages in a store up to date with
// their schemas without touching pages edited by hand.
type Synchronizer struct {
	Store      store.Store
	Comparator *content.Comparator
	// Schemas enriches endpoints that arrive without summary or description
	Schemas     *openapi.Repository
	Collection  string
	Extension   string
	Concurrency int
	Retry       retry.Config
	IncludeTags []string
	ExcludeTags []string
	// Validate checks schema files with kin-openapi before SyncSchema
	Validate bool
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSynchronizer creates a synchronizer writing to st with default settings
func NewSynchronizer(st store.Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		Store:       st,
		Comparator:  content.NewComparator(content.DefaultRootTolerance, logger),
		Collection:  DefaultCollection,
		Extension:   DefaultExtension,
		Concurrency: DefaultConcurrency,
		Retry:       retry.DefaultConfig(),
		Logger:      logger,
		Now:         time.Now,
	}
}

// CreateOrUpdateAPIReference writes the page of ep at path. A new page is
// created; an existing generated page is updated when its content differs;
// hand-edited pages and unchanged pages are skipped.
func (s *Synchronizer) CreateOrUpdateAPIReference(ctx context.Context, path, collection string, ep ir.Endpoint, schema string) (Result, error) {
	fresh := BuildDocument(ep, schema, s.now())

	err := s.withRetry(ctx, "create", func() error {
		return s.Store.Create(ctx, collection, path)
	})
	if err == nil {
		if err := s.update(ctx, collection, path, fresh); err != nil {
			// a pending page that could not be populated is not left behind
			if delErr := s.Store.Delete(ctx, collection, path); delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
				return "", errors.Join(err, fmt.Errorf("rollback %s: %w", path, delErr))
			}
			return "", err
		}
		return ResultCreated, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return "", err
	}

	existing, err := retry.DoWithResult(ctx, s.retryConfig("get"), func() (content.Document, error) {
		return s.Store.Get(ctx, collection, path)
	})
	if err != nil {
		return "", err
	}
	if !existing.AutoGenerated {
		s.logger().Debug("page edited by hand, leaving it alone", "path", path)
		return ResultSkipped, nil
	}
	if s.comparator().Equal(existing, fresh) {
		return ResultSkipped, nil
	}
	if err := s.update(ctx, collection, path, fresh); err != nil {
		return "", err
	}
	return ResultUpdated, nil
}

func (s *Synchronizer) update(ctx context.Context, collection, path string, doc content.Document) error {
	return s.withRetry(ctx, "update", func() error {
		return s.Store.Update(ctx, collection, path, doc)
	})
}

// SyncGroup synchronizes the pages of one API group of the navigation.
func (s *Synchronizer) SyncGroup(ctx context.Context, group *navigation.APIGroup) Report {
	report := newReport()
	s.syncGroup(ctx, group, &report)
	return report
}

// SyncNavigation synchronizes every API group found in the API tabs.
func (s *Synchronizer) SyncNavigation(ctx context.Context, tabs []navigation.Tab) Report {
	start := time.Now()
	report := newReport()
	for _, group := range navigation.APIGroups(tabs) {
		s.syncGroup(ctx, group, &report)
	}
	s.Metrics.RecordSync("navigation", time.Since(start))
	s.logger().Info("navigation synchronized",
		"run_id", report.RunID,
		"created", len(report.Created),
		"updated", len(report.Updated),
		"skipped", len(report.Skipped),
		"errors", len(report.Errors))
	return report
}

func (s *Synchronizer) syncGroup(ctx context.Context, group *navigation.APIGroup, report *Report) {
	if group.Err != nil {
		s.logger().Warn("skipping API group", "title", group.Title, "error", group.Err)
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to read API group %q: %v", group.Title, group.Err))
		return
	}
	if len(group.Endpoints) == 0 {
		return
	}
	endpoints := s.enrich(group.Schema, group.Endpoints)
	report.Merge(s.syncEndpoints(ctx, group.Tag, group.Schema, endpoints))
}

// SyncSchema generates pages for every endpoint of a schema file in the
// schema repository, filed under each endpoint's first allowed tag.
func (s *Synchronizer) SyncSchema(ctx context.Context, schemaFile string) (Report, error) {
	start := time.Now()
	if s.Schemas == nil {
		return Report{}, errors.New("no schema repository configured")
	}
	if s.Validate {
		raw, err := s.Schemas.ReadRaw(schemaFile)
		if err != nil {
			return Report{}, err
		}
		if err := openapi.ValidateData(ctx, raw); err != nil {
			return Report{}, fmt.Errorf("validate %s: %w", schemaFile, err)
		}
	}
	doc, err := s.Schemas.Load(schemaFile)
	if err != nil {
		s.Metrics.RecordSchemaError(schemaFile)
		return Report{}, err
	}
	model, err := BuildIR(doc, s.IncludeTags, s.ExcludeTags)
	if err != nil {
		return Report{}, err
	}

	report := newReport()
	for _, group := range model.Groups {
		report.Merge(s.syncEndpoints(ctx, group.Tag, schemaFile, group.Endpoints))
	}
	s.Metrics.RecordSync("schema", time.Since(start))
	s.logger().Info("schema synchronized",
		"run_id", report.RunID,
		"schema", schemaFile,
		"created", len(report.Created),
		"updated", len(report.Updated),
		"skipped", len(report.Skipped),
		"errors", len(report.Errors))
	return report, nil
}

type outcome struct {
	path   string
	result Result
	err    error
}

// syncEndpoints runs the endpoints of one tag. Distinct paths run in
// parallel; endpoints sharing a path run one after the other. The report
// keeps endpoint order.
func (s *Synchronizer) syncEndpoints(ctx context.Context, tag, schema string, endpoints []ir.Endpoint) Report {
	start := time.Now()
	outcomes := make([]outcome, len(endpoints))

	byPath := map[string][]int{}
	var order []string
	for i, ep := range endpoints {
		path := utils.EndpointFilePath(tag, ep.Method, ep.Path, s.extension())
		outcomes[i].path = path
		if _, ok := byPath[path]; !ok {
			order = append(order, path)
		}
		byPath[path] = append(byPath[path], i)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for _, path := range order {
		indexes := byPath[path]
		g.Go(func() error {
			lock := s.lock(path)
			lock.Lock()
			defer lock.Unlock()
			for _, i := range indexes {
				if err := ctx.Err(); err != nil {
					outcomes[i].err = err
					continue
				}
				outcomes[i].result, outcomes[i].err = s.CreateOrUpdateAPIReference(ctx, path, s.collection(), endpoints[i], schema)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Created: []string{}, Updated: []string{}, Skipped: []string{}, Errors: []string{}}
	for i, o := range outcomes {
		if o.err != nil {
			ep := endpoints[i]
			msg := fmt.Sprintf("Failed to handle %s %s: %v", ep.Method, ep.Path, o.err)
			s.logger().Warn("endpoint sync failed", "path", o.path, "error", o.err)
			report.Errors = append(report.Errors, msg)
			s.Metrics.RecordDocument(s.collection(), "error")
			continue
		}
		switch o.result {
		case ResultCreated:
			report.Created = append(report.Created, o.path)
		case ResultUpdated:
			report.Updated = append(report.Updated, o.path)
		case ResultSkipped:
			report.Skipped = append(report.Skipped, o.path)
		}
		s.Metrics.RecordDocument(s.collection(), string(o.result))
	}
	s.Metrics.RecordSync("group", time.Since(start))
	return report
}

// enrich converts menu endpoints and fills missing summaries and
// descriptions from the schema file when it can be loaded.
func (s *Synchronizer) enrich(schemaFile string, endpoints []navigation.APIEndpoint) []ir.Endpoint {
	var known map[string]ir.Endpoint
	if s.Schemas != nil && schemaFile != "" && needsEnrichment(endpoints) {
		doc, err := s.Schemas.Load(schemaFile)
		if err != nil {
			s.Metrics.RecordSchemaError(schemaFile)
			s.logger().Warn("schema unavailable for enrichment", "schema", schemaFile, "error", err)
		} else {
			known = map[string]ir.Endpoint{}
			for _, ep := range ExtractEndpoints(doc) {
				known[ep.Key()] = ep
			}
		}
	}

	out := make([]ir.Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		ep := ir.Endpoint{
			Path:        e.Path,
			Method:      e.Method,
			Summary:     e.Summary,
			Description: e.Description,
			OperationID: e.OperationID,
		}
		if src, ok := known[ep.Key()]; ok {
			if ep.Summary == "" || e.Legacy {
				ep.Summary = src.Summary
			}
			if ep.Description == "" {
				ep.Description = src.Description
			}
			if e.Legacy || ep.OperationID == "" {
				ep.OperationID = src.OperationID
			}
		}
		out = append(out, ep)
	}
	return out
}

func needsEnrichment(endpoints []navigation.APIEndpoint) bool {
	for _, e := range endpoints {
		if e.Legacy || e.Summary == "" || e.Description == "" {
			return true
		}
	}
	return false
}

// withRetry retries fn on transient store failures
func (s *Synchronizer) withRetry(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(ctx, s.retryConfig(operation), fn)
}

func (s *Synchronizer) retryConfig(operation string) retry.Config {
	cfg := s.Retry
	cfg.Retryable = store.IsTransient
	cfg.OnRetry = func(attempt int, err error) {
		s.Metrics.RecordRetry(operation)
		s.logger().Debug("retrying store operation", "operation", operation, "attempt", attempt, "error", err)
	}
	return cfg
}

// lock returns the mutex serializing writes to path
func (s *Synchronizer) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = map[string]*sync.Mutex{}
	}
	key := s.collection() + ":" + path
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Synchronizer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Synchronizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Synchronizer) comparator() *content.Comparator {
	if s.Comparator == nil {
		return content.NewComparator(content.DefaultRootTolerance, s.logger())
	}
	return s.Comparator
}

func (s *Synchronizer) collection() string {
	if s.Collection == "" {
		return DefaultCollection
	}
	return s.Collection
}

func (s *Synchronizer) extension() string {
	if s.Extension == "" {
		return DefaultExtension
	}
	return strings.TrimPrefix(s.Extension, ".")
}

func (s *Synchronizer) concurrency() int {
	if s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}
