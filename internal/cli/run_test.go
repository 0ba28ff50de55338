package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/apidocs/pkg/config"
)

const petsSchema = `openapi: 3.0.3
info:
  title: Pets
  version: 1.0.0
paths:
  /pets:
    get:
      tags: [pets]
      summary: list pets
      responses:
        "200":
          description: ok
`

const menu = `{"tabs": [{"title": "Docs", "supermenuGroup": [{"title": "Basics", "items": [
  {"_template": "item", "title": "Intro", "slug": "content/docs/index.mdx"},
  {"_template": "item", "title": "Install", "slug": "content/docs/install.mdx"}
]}]}]}`

func setup(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "apiSchema"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apiSchema", "pets.yaml"), []byte(petsSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "navigation.json"), []byte(menu), 0o644))
	return dir
}

func TestRunSyncWritesPages(t *testing.T) {
	dir := setup(t)
	params := RunSyncParams{
		Global: GlobalParams{LogLevel: "error"},
		Fallback: FallbackParams{
			ContentDir: dir,
			SchemasDir: filepath.Join(dir, "apiSchema"),
		},
	}

	var out bytes.Buffer
	require.NoError(t, RunSync(context.Background(), params, &out))
	assert.Contains(t, out.String(), "created  api-documentation/pets/get-pets.mdx")
	assert.FileExists(t, filepath.Join(dir, "docs", "api-documentation", "pets", "get-pets.mdx"))

	out.Reset()
	params.JSON = true
	require.NoError(t, RunSync(context.Background(), params, &out))
	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, []any{"api-documentation/pets/get-pets.mdx"}, report["skipped"])
}

func TestRunSyncReportsErrors(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apiSchema", "broken.json"), []byte(`{"openapi": `), 0o644))

	var out bytes.Buffer
	err := RunSync(context.Background(), RunSyncParams{
		Global:   GlobalParams{LogLevel: "error"},
		Fallback: FallbackParams{ContentDir: dir, SchemasDir: filepath.Join(dir, "apiSchema"), StoreType: "memory"},
	}, &out)
	assert.ErrorContains(t, err, "1 error(s)")
	assert.Contains(t, out.String(), "Failed to process schema broken.json")
}

func TestRunReference(t *testing.T) {
	dir := setup(t)
	var out bytes.Buffer
	require.NoError(t, RunReference(RunReferenceParams{
		SchemasDir: filepath.Join(dir, "apiSchema"),
		SchemaFile: "pets.yaml|GET:/pets",
	}, &out))

	var view map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "Pets", view["title"])
}

func TestRunNav(t *testing.T) {
	dir := setup(t)
	nav := filepath.Join(dir, "navigation.json")

	tests := []struct {
		view     string
		path     string
		expected string
	}{
		{"breadcrumbs", "/docs/install", `[{"title":"Basics","url":"/docs"},{"title":"Install"}]`},
		{"pagination", "/docs", `{"prev":null,"next":{"slug":"content/docs/install.mdx","title":"Install","url":"/docs/install"}}`},
		{"tab", "/docs/install", `{"index":0,"title":"Docs"}`},
	}
	for _, test := range tests {
		t.Run(test.view, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, RunNav(RunNavParams{NavigationFile: nav, View: test.view, Path: test.path}, &out))
			assert.JSONEq(t, test.expected, out.String())
		})
	}

	err := RunNav(RunNavParams{NavigationFile: nav, View: "sitemap", Path: "/docs"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown navigation view")
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apidocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contentDir: site\nstore:\n  type: memory\nlog:\n  level: debug\n"), 0o644))

	cfg, err := loadConfig(GlobalParams{ConfigPath: path, LogFormat: "json"}, FallbackParams{ExcludeTags: []string{"^internal$"}})
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"^internal$"}, cfg.Sync.ExcludeTags)
	assert.True(t, filepath.IsAbs(cfg.ContentDir))

	_, err = loadConfig(GlobalParams{LogLevel: "loud"}, FallbackParams{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = NewLogger("info", "xml", &buf)
	assert.Error(t, err)
	_, err = NewLogger("chatty", "text", &buf)
	assert.Error(t, err)
}
