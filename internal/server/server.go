// Package server exposes synchronization, schema access, the API reference
// and the navigation helpers over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/blimu-dev/apidocs/internal/metrics"
	"github.com/blimu-dev/apidocs/pkg/config"
	"github.com/blimu-dev/apidocs/pkg/generator"
	"github.com/blimu-dev/apidocs/pkg/navigation"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/reference"
)

const maxBodyBytes = 10 << 20

// Server serves the HTTP API.
type Server struct {
	cfg     *config.Config
	syncer  *generator.Synchronizer
	schemas *openapi.Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  chi.Router
}

// New creates a server. m may be nil, in which case /metrics is not mounted.
func New(cfg *config.Config, syncer *generator.Synchronizer, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	schemas := syncer.Schemas
	if schemas == nil {
		schemas = openapi.NewRepository(cfg.SchemasDir)
	}
	s := &Server{
		cfg:     cfg,
		syncer:  syncer,
		schemas: schemas,
		metrics: m,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.With(s.authenticate).Post("/process-api-docs", s.handleProcessAPIDocs)
		r.Get("/list-api-schemas", s.handleListSchemas)
		r.Get("/get-tag-api-schema", s.handleGetSchema)
		r.Get("/reference", s.handleReference)
		r.Get("/navigation", s.handleNavigation)
		r.Get("/navigation/{view}", s.handleNavigationView)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", srv.Addr, "dev", s.cfg.Server.Dev)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// authenticate requires a bearer token unless the server runs in dev mode.
// With a JWT secret configured the token must be a valid HS256 JWT.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Server.Dev {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Missing Authorization token")
			return
		}
		if secret := s.cfg.Server.JWTSecret; secret != "" {
			if err := verifyToken(token, []byte(secret)); err != nil {
				s.logger.Warn("rejected bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid Authorization token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func verifyToken(token string, secret []byte) error {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}

type processRequest struct {
	Data struct {
		Tabs json.RawMessage `json:"tabs"`
	} `json:"data"`
}

// ProcessResponse is the body returned by POST /api/process-api-docs
type ProcessResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	RunID             string   `json:"runId"`
	TotalFilesCreated int      `json:"totalFilesCreated"`
	CreatedFiles      []string `json:"createdFiles"`
	SkippedFiles      []string `json:"skippedFiles"`
	Errors            []string `json:"errors"`
}

func (s *Server) handleProcessAPIDocs(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	tabs := []navigation.Tab{}
	if raw := bytes.TrimSpace(req.Data.Tabs); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] != '[' {
			writeError(w, http.StatusBadRequest, "Invalid data format - expected tabs array")
			return
		}
		if err := json.Unmarshal(raw, &tabs); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "Invalid data format - expected tabs array",
				"details": err.Error(),
			})
			return
		}
	}

	report := s.syncer.SyncNavigation(r.Context(), tabs)
	written := report.Written()
	writeJSON(w, http.StatusOK, ProcessResponse{
		Success:           true,
		Message:           fmt.Sprintf("Processed %d navigation tabs", len(tabs)),
		RunID:             report.RunID,
		TotalFilesCreated: len(written),
		CreatedFiles:      written,
		SkippedFiles:      report.Skipped,
		Errors:            report.Errors,
	})
}

func (s *Server) handleListSchemas(w http.ResponseWriter, _ *http.Request) {
	schemas, err := s.schemas.List()
	if err != nil {
		s.logger.Error("list schemas", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read API schemas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": schemas})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "Filename parameter is required")
		return
	}

	raw, err := s.schemas.ReadRaw(filename)
	if err == nil {
		var schema any
		if schema, err = openapi.Parse(raw); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"apiSchema": schema})
			return
		}
	}

	switch {
	case errors.Is(err, openapi.ErrInvalidSchemaPath):
		writeError(w, http.StatusBadRequest, "Invalid file path")
	case errors.Is(err, openapi.ErrSchemaNotFound):
		writeError(w, http.StatusNotFound, "Schema file not found")
	case errors.Is(err, openapi.ErrDecodeSchema):
		writeError(w, http.StatusBadRequest, "Invalid JSON in schema file")
	default:
		s.logger.Error("read schema", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read API schema")
	}
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	prop := r.URL.Query().Get("schemaFile")
	if prop == "" {
		writeError(w, http.StatusBadRequest, "schemaFile parameter is required")
		return
	}

	view, err := reference.Load(s.schemas, prop)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, reference.ErrEndpointNotFound), errors.Is(err, openapi.ErrSchemaNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) navOptions() navigation.Options {
	return navigation.Options{Homepage: s.cfg.DocsHomepage}
}

// loadNavigation reads the configured menu. It is re-read on every request
// so edits show up without a restart.
func (s *Server) loadNavigation(w http.ResponseWriter) (*navigation.Config, bool) {
	if s.cfg.NavigationFile == "" {
		writeError(w, http.StatusNotFound, "Navigation not configured")
		return nil, false
	}
	data, err := os.ReadFile(s.cfg.NavigationFile)
	if err != nil {
		s.logger.Error("read navigation", "file", s.cfg.NavigationFile, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read navigation")
		return nil, false
	}
	nav, err := navigation.ParseConfig(data)
	if err != nil {
		s.logger.Error("parse navigation", "file", s.cfg.NavigationFile, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to parse navigation")
		return nil, false
	}
	return nav, true
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	nav, ok := s.loadNavigation(w)
	if !ok {
		return
	}
	preview := r.URL.Query().Get("preview") == "true"
	writeJSON(w, http.StatusOK, navigation.Format(nav, preview, s.navOptions()))
}

func (s *Server) handleNavigationView(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if view != "breadcrumbs" && view != "pagination" && view != "tab" {
		writeError(w, http.StatusNotFound, "Unknown navigation view")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path parameter is required")
		return
	}
	nav, ok := s.loadNavigation(w)
	if !ok {
		return
	}
	opts := s.navOptions()

	switch view {
	case "breadcrumbs":
		crumbs := navigation.Breadcrumbs(nav.Tabs, path, opts)
		if crumbs == nil {
			crumbs = []navigation.Crumb{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"breadcrumbs": crumbs})
	case "pagination":
		writeJSON(w, http.StatusOK, navigation.Paginate(navigation.Flatten(nav.Tabs, opts), path, opts))
	case "tab":
		index, tab := navigation.FindTabWithPath(nav.Tabs, path, opts)
		title := ""
		if tab != nil {
			title = tab.Title
		}
		writeJSON(w, http.StatusOK, map[string]any{"index": index, "title": title})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
