package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/icons"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("docsite"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// project writes a content tree and a config pointing at it.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "docs")
	writeFile(t, filepath.Join(content, "index.mdx"), "---\ntitle: Introduction\n---\nWelcome, see [the guide](/docs/guide).")
	writeFile(t, filepath.Join(content, "guide.mdx"), "---\ntitle: Guide\ndescription: How to\n---\n## Steps\n\nRun it.")

	cfg := "version: \"1.0\"\n" +
		"content:\n  dir: " + content + "\n  base_url: /docs\n" +
		"logging:\n  level: error\n"
	path := filepath.Join(dir, "docsite.yaml")
	writeFile(t, path, cfg)
	return path
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsite.yaml")

	out, err := run(t, "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Docs", cfg.Layout.Nav.Title)

	_, err = run(t, "--config", path, "init")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAlreadyExists))

	_, err = run(t, "--config", path, "init", "--force")
	require.NoError(t, err)
}

func TestPages(t *testing.T) {
	out, err := run(t, "--config", project(t), "pages")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/docs "), lines[0])
	assert.Contains(t, lines[0], "Introduction")
	assert.True(t, strings.HasPrefix(lines[1], "/docs/guide "), lines[1])
	assert.Contains(t, lines[1], "guide.mdx")
}

func TestPages_DefaultConfigWhenMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content", "docs", "index.mdx"), "---\ntitle: Home\n---\nHi")
	t.Chdir(dir)

	out, err := run(t, "pages")
	require.NoError(t, err)
	assert.Contains(t, out, "Home")
}

func TestLoadConfig_ExplicitMissingPathFails(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "pages")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestRender(t *testing.T) {
	path := project(t)

	out, err := run(t, "--config", path, "render", "/docs/guide")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Guide\n\nURL: /docs/guide\n\n"), out)
	assert.Contains(t, out, "Run it.")

	_, err = run(t, "--config", path, "render", "/docs/missing")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestExport(t *testing.T) {
	path := project(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "--config", path, "export", "--output", outDir, "--route", "/llms.txt", "--route", "/llms.mdx/*")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "llms.txt"))

	body, err := os.ReadFile(filepath.Join(outDir, "llms.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "# Introduction\n\nURL: /docs\n\n"))
	assert.Contains(t, string(body), "# Guide\n\nURL: /docs/guide")

	page, err := os.ReadFile(filepath.Join(outDir, "llms.mdx", "guide.mdx"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Run it.")
}

func TestIcons(t *testing.T) {
	resolver, err := icons.Load("")
	require.NoError(t, err)

	out, err := run(t, "--config", project(t), "icons")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(resolver.Names(), "\n")+"\n", out)
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	(&ServeCmd{Host: "127.0.0.1", Port: 8081, NoWatch: true}).apply(cfg)

	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Addr())
	assert.False(t, cfg.Watch.Enabled)
}
