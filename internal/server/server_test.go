package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/apidocs/internal/metrics"
	"github.com/blimu-dev/apidocs/pkg/config"
	"github.com/blimu-dev/apidocs/pkg/generator"
	"github.com/blimu-dev/apidocs/pkg/openapi"
	"github.com/blimu-dev/apidocs/pkg/store"
)

const usersSchema = `{
  "openapi": "3.0.3",
  "info": {"title": "Users", "version": "1.0.0"},
  "paths": {
    "/users/{id}": {
      "get": {
        "tags": ["users"],
        "summary": "get user",
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "object", "properties": {"id": {"type": "string"}}}}}}}
      }
    }
  }
}`

const apiTab = `{"title": "API", "_template": "apiTab", "supermenuGroup": [
  {"_template": "groupOfApiReferences", "title": "Users",
   "apiGroup": "{\"schema\":\"users.json\",\"tag\":\"users\",\"endpoints\":[{\"method\":\"GET\",\"path\":\"/users/{id}\",\"summary\":\"get user\"}]}"}
]}`

const menu = `{"tabs": [
  {"title": "Docs", "supermenuGroup": [{"title": "Getting Started", "items": [
    {"_template": "item", "title": "Intro", "slug": "content/docs/index.mdx"},
    {"_template": "item", "title": "Setup", "slug": "content/docs/setup.mdx"}
  ]}]},
  ` + apiTab + `
]}`

type fixture struct {
	server *Server
	store  *store.Memory
	dir    string
}

func wrapSchema(t *testing.T, schema string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{"apiSchema": schema})
	require.NoError(t, err)
	return string(data)
}

func newFixture(t *testing.T, mutate func(*config.Config)) fixture {
	t.Helper()
	dir := t.TempDir()
	schemasDir := filepath.Join(dir, "apiSchema")
	require.NoError(t, os.MkdirAll(schemasDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(schemasDir, "users.json"), []byte(wrapSchema(t, usersSchema)), 0o644))
	navFile := filepath.Join(dir, "navigation.json")
	require.NoError(t, os.WriteFile(navFile, []byte(menu), 0o644))

	cfg := config.Default()
	cfg.ContentDir = dir
	cfg.SchemasDir = schemasDir
	cfg.NavigationFile = navFile
	cfg.Store.Type = "memory"
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.DiscardHandler)
	mem := store.NewMemory()
	syncer := generator.NewSynchronizer(mem, logger)
	syncer.Schemas = openapi.NewRepository(cfg.SchemasDir)
	m := metrics.New()
	syncer.Metrics = m

	return fixture{server: New(cfg, syncer, m, logger), store: mem, dir: dir}
}

func (f fixture) do(t *testing.T, method, target, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func processBody(tabs string) string {
	return `{"data": {"tabs": ` + tabs + `}}`
}

func TestProcessAPIDocs(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Server.Dev = true })

	rec, body := f.do(t, http.MethodPost, "/api/process-api-docs", processBody("["+apiTab+"]"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Processed 1 navigation tabs", body["message"])
	assert.Equal(t, float64(1), body["totalFilesCreated"])
	assert.Equal(t, []any{"api-documentation/users/get-users-id.mdx"}, body["createdFiles"])
	assert.Equal(t, []any{}, body["skippedFiles"])
	assert.NotEmpty(t, body["runId"])
	assert.Equal(t, []string{"api-documentation/users/get-users-id.mdx"}, f.store.Paths("docs"))

	rec, body = f.do(t, http.MethodPost, "/api/process-api-docs", processBody("["+apiTab+"]"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["totalFilesCreated"])
	assert.Equal(t, []any{"api-documentation/users/get-users-id.mdx"}, body["skippedFiles"])
}

func TestProcessAPIDocsRequestShape(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Server.Dev = true })

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing tabs", `{"data": {}}`, http.StatusOK, "Processed 0 navigation tabs"},
		{"missing data", `{}`, http.StatusOK, "Processed 0 navigation tabs"},
		{"tabs not an array", processBody(`{"title": "x"}`), http.StatusBadRequest, ""},
		{"not json", `tabs please`, http.StatusBadRequest, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, body := f.do(t, http.MethodPost, "/api/process-api-docs", test.body, "")
			assert.Equal(t, test.status, rec.Code)
			if test.message != "" {
				assert.Equal(t, test.message, body["message"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}

	_, body := f.do(t, http.MethodPost, "/api/process-api-docs", processBody(`{"title": "x"}`), "")
	assert.Equal(t, "Invalid data format - expected tabs array", body["error"])
}

func TestProcessAPIDocsAuthentication(t *testing.T) {
	const secret = "s3cret"
	sign := func(key string, exp time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "editor",
			"exp": exp.Unix(),
		}).SignedString([]byte(key))
		require.NoError(t, err)
		return token
	}

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t, nil)
		rec, body := f.do(t, http.MethodPost, "/api/process-api-docs", processBody("[]"), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Missing Authorization token", body["error"])
	})

	t.Run("any bearer token without secret", func(t *testing.T) {
		f := newFixture(t, nil)
		rec, _ := f.do(t, http.MethodPost, "/api/process-api-docs", processBody("[]"), "opaque")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid JWT", sign(secret, time.Now().Add(time.Hour)), http.StatusOK},
		{"wrong key", sign("other", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", sign(secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"not a JWT", "opaque", http.StatusUnauthorized},
	}
	f := newFixture(t, func(c *config.Config) { c.Server.JWTSecret = secret })
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, _ := f.do(t, http.MethodPost, "/api/process-api-docs", processBody("[]"), test.token)
			assert.Equal(t, test.status, rec.Code)
		})
	}
}

func TestListAPISchemas(t *testing.T) {
	f := newFixture(t, nil)
	rec, body := f.do(t, http.MethodGet, "/api/list-api-schemas", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	schemas, ok := body["schemas"].([]any)
	require.True(t, ok)
	require.Len(t, schemas, 1)
	first := schemas[0].(map[string]any)
	assert.Equal(t, "users", first["id"])
	assert.Equal(t, "users.json", first["filename"])
	assert.Equal(t, "users", first["displayName"])
}

func TestGetTagAPISchema(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.server.cfg.SchemasDir, "broken.json"), []byte(`{"apiSchema": "{nope"}`), 0o644))

	tests := []struct {
		name   string
		query  string
		status int
		error  string
	}{
		{"missing filename", "", http.StatusBadRequest, "Filename parameter is required"},
		{"path traversal", "?filename=../navigation.json", http.StatusBadRequest, "Invalid file path"},
		{"not found", "?filename=orders.json", http.StatusNotFound, "Schema file not found"},
		{"invalid json", "?filename=broken.json", http.StatusBadRequest, "Invalid JSON in schema file"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, body := f.do(t, http.MethodGet, "/api/get-tag-api-schema"+test.query, "", "")
			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.error, body["error"])
		})
	}

	rec, body := f.do(t, http.MethodGet, "/api/get-tag-api-schema?filename=users.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	schema := body["apiSchema"].(map[string]any)
	assert.Equal(t, "3.0.3", schema["openapi"], "the envelope is unwrapped")
}

func TestReference(t *testing.T) {
	f := newFixture(t, nil)

	q := url.Values{"schemaFile": {"users.json|GET:/users/{id}"}}
	rec, body := f.do(t, http.MethodGet, "/api/reference?"+q.Encode(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Users", body["title"])
	selected := body["selected"].(map[string]any)
	assert.Equal(t, "get user", selected["summary"])

	q = url.Values{"schemaFile": {"users.json|DELETE:/users/{id}"}}
	rec, _ = f.do(t, http.MethodGet, "/api/reference?"+q.Encode(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/reference", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigation(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodGet, "/api/navigation", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tabs := body["data"].([]any)
	require.Len(t, tabs, 2)

	docs := tabs[0].(map[string]any)
	group := docs["supermenuGroup"].([]any)[0].(map[string]any)
	intro := group["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "/docs", intro["slug"], "homepage maps to the docs root")

	t.Run("breadcrumbs", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/navigation/breadcrumbs?path=/docs/setup/", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{
			map[string]any{"title": "Getting Started", "url": "/docs"},
			map[string]any{"title": "Setup"},
		}, body["breadcrumbs"])
	})

	t.Run("pagination", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/navigation/pagination?path=/docs/setup", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		prev := body["prev"].(map[string]any)
		assert.Equal(t, "Intro", prev["title"])
		assert.Nil(t, body["next"])
	})

	t.Run("tab", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/navigation/tab?path=/docs/api-documentation/users/get-users-id", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), body["index"])
		assert.Equal(t, "API", body["title"])
	})

	t.Run("errors", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/navigation/tab", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, _ = f.do(t, http.MethodGet, "/api/navigation/sitemap?path=/docs", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNavigationNotConfigured(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.NavigationFile = "" })
	rec, body := f.do(t, http.MethodGet, "/api/navigation", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Navigation not configured", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Server.Dev = true })

	rec, body := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	f.do(t, http.MethodPost, "/api/process-api-docs", processBody("["+apiTab+"]"), "")

	rec, _ = f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apidocs_")
}
