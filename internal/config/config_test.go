package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `version: "1.0"
layout:
  nav:
    title: Docs
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./content/docs", cfg.Content.Dir)
	assert.Equal(t, "/docs", cfg.Content.BaseURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"/llms.txt"}, cfg.Build.Prerender)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "/metrics", cfg.Monitoring.Metrics.Path)
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, layout.TransparentNone, cfg.Layout.Nav.TransparentMode)
}

func TestLoadFullConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `version: "1.0"
content:
  dir: ./checkout
  base_url: /guide
  repository:
    url: https://example.com/org/docs.git
    path: docs
    pull_interval: 5m
server:
  host: 127.0.0.1
  port: 8080
  read_timeout: 2s
layout:
  nav:
    title: Guide
    transparent_mode: TOP
  github_url: https://github.com/org/docs
  links:
    - url: /guide
      text: Guide
      active: nested-url
build:
  prerender: [/llms.txt, /llms.mdx/*, /llms.mdx/intro]
  crawl_links: true
  externals: [react]
export:
  concurrency: 4
watch:
  enabled: true
  debounce: 250ms
  rescan_interval: 1m
monitoring:
  metrics:
    enabled: false
logging:
  level: WARNING
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Content.Repository)
	assert.Equal(t, "main", cfg.Content.Repository.Branch)
	assert.Equal(t, 5*time.Minute, cfg.Content.Repository.PullInterval)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, layout.TransparentTop, cfg.Layout.Nav.TransparentMode)
	assert.Equal(t, layout.ActiveNestedURL, cfg.Layout.Links[0].Active)
	assert.True(t, cfg.Build.CrawlLinks)
	assert.Equal(t, 4, cfg.Export.Concurrency)
	assert.Equal(t, time.Minute, cfg.Watch.RescanInterval)
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DOCSITE_TEST_PORT", "4000")
	t.Cleanup(func() { _ = os.Unsetenv("DOCSITE_TEST_TITLE") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCSITE_TEST_TITLE=From Env\nDOCSITE_TEST_PORT=5000\n"), 0o600))

	path := writeConfig(t, `version: "1.0"
server:
  port: ${DOCSITE_TEST_PORT}
layout:
  nav:
    title: ${DOCSITE_TEST_TITLE}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Layout.Nav.Title)
	assert.Equal(t, 4000, cfg.Server.Port, "process environment wins over .env")
}

func TestLoadErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name     string
		body     string
		category ferrors.ErrorCategory
	}{
		{name: "unknown key", body: "version: \"1.0\"\nbogus: true\n", category: ferrors.CategoryConfig},
		{name: "bad version", body: "version: \"2.0\"\n", category: ferrors.CategoryValidation},
		{name: "bad log level", body: "logging:\n  level: loud\n", category: ferrors.CategoryConfig},
		{name: "bad transparent mode", body: "layout:\n  nav:\n    transparent_mode: sometimes\n", category: ferrors.CategoryConfig},
		{name: "base url not absolute", body: "content:\n  base_url: docs\n", category: ferrors.CategoryValidation},
		{name: "port out of range", body: "server:\n  port: 70000\n", category: ferrors.CategoryValidation},
		{name: "bad prerender route", body: "build:\n  prerender: [/index.html]\n", category: ferrors.CategoryValidation},
		{name: "bad repository url", body: "content:\n  repository:\n    url: not a url\n", category: ferrors.CategoryValidation},
		{name: "repository path escapes", body: "content:\n  repository:\n    url: https://example.com/a.git\n    path: ../x\n", category: ferrors.CategoryValidation},
		{name: "unknown retry backoff", body: "content:\n  repository:\n    url: https://example.com/a.git\n    retry:\n      backoff: random\n", category: ferrors.CategoryValidation},
		{name: "negative retries", body: "content:\n  repository:\n    url: https://example.com/a.git\n    retry:\n      max_retries: -1\n", category: ferrors.CategoryValidation},
		{name: "internal link without slash", body: "layout:\n  links:\n    - url: docs\n      text: Docs\n", category: ferrors.CategoryValidation},
		{name: "negative concurrency", body: "export:\n  concurrency: -1\n", category: ferrors.CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, tt.category), "got %v", err)

			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			_, hasPath := ce.Context().GetString("path")
			assert.True(t, hasPath)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/docs", cfg.Content.BaseURL)
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "docsite.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Docs", cfg.Layout.Nav.Title)
	assert.Equal(t, []string{"/llms.txt", "/llms.mdx/*"}, cfg.Build.Prerender)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAlreadyExists))

	require.NoError(t, Init(path, true))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelWarn, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	verbose := LoggingConfig{Level: LogLevelError}.NewLogger(&buf, true)
	verbose.Debug("debugging")
	assert.Contains(t, buf.String(), "msg=debugging")
}
