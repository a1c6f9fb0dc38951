package source

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func urls(pages []Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.URL)
	}
	return out
}

func TestScan_DefaultOrderingAndURLs(t *testing.T) {
	fsys := fstest.MapFS{
		"index.mdx":           file("---\ntitle: Introduction\n---\nWelcome"),
		"getting-started.mdx": file("Start here"),
		"guide/index.mdx":     file("Guide home"),
		"guide/install.md":    file("---\ntitle: Install\nicon: Rocket\n---\nSteps"),
		"guide/advanced.mdx":  file("---\ntitle: Advanced\ndescription: Deep dive\n---\nMore"),
		"guide/image.png":     file("binary"),
	}

	src, err := Scan(fsys, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/docs",
		"/docs/getting-started",
		"/docs/guide",
		"/docs/guide/advanced",
		"/docs/guide/install",
	}, urls(src.Pages()))

	intro, ok := src.Resolve("/docs")
	require.True(t, ok)
	assert.Equal(t, "Introduction", intro.Title)
	assert.Equal(t, "Welcome", intro.Content)
	assert.Equal(t, "index.mdx", intro.File)
	assert.Empty(t, intro.Slugs)

	gs, ok := src.Resolve("/docs/getting-started")
	require.True(t, ok)
	assert.Equal(t, "Getting Started", gs.Title)

	guide, ok := src.Resolve("/docs/guide")
	require.True(t, ok)
	assert.Equal(t, "Guide", guide.Title)
	assert.Equal(t, "guide", guide.Dir())

	install, ok := src.GetPage([]string{"guide", "install"})
	require.True(t, ok)
	assert.Equal(t, "Rocket", install.Icon)
	assert.Equal(t, "guide/install.md", install.File)
	assert.NotEmpty(t, install.Fingerprint)
}

func TestScan_ResolveRoundTrips(t *testing.T) {
	fsys := fstest.MapFS{
		"a.mdx":     file("A"),
		"b/c.mdx":   file("C"),
		"b/d/e.mdx": file("E"),
	}
	src, err := Scan(fsys, Options{BaseURL: "/"})
	require.NoError(t, err)

	for _, p := range src.Pages() {
		first, ok := src.Resolve(p.URL)
		require.True(t, ok, p.URL)
		second, _ := src.Resolve(p.URL)
		assert.Equal(t, p, first)
		assert.Equal(t, first, second)

		bySlug, ok := src.GetPage(p.Slugs)
		require.True(t, ok)
		assert.Equal(t, p, bySlug)
	}

	_, ok := src.Resolve("/b/c/")
	assert.True(t, ok, "trailing slash is ignored")
	_, ok = src.Resolve("/missing")
	assert.False(t, ok)
	assert.Equal(t, "/", src.BaseURL())
	assert.Equal(t, []string{"/a", "/b/c", "/b/d/e"}, urls(src.Pages()))
}

func TestScan_MetaOrdering(t *testing.T) {
	fsys := fstest.MapFS{
		"index.mdx":         file("Root"),
		"meta.json":         file(`{"pages": ["guide", "---Reference---", "api", "[GitHub](https://github.com/example/docs)"]}`),
		"api.mdx":           file("API"),
		"changelog.mdx":     file("Changes"),
		"guide/meta.yaml":   file("title: User Guide\nicon: Book\npages:\n  - install\n  - ...\n"),
		"guide/install.mdx": file("Install"),
		"guide/advanced.md": file("Advanced"),
		"guide/basics.md":   file("Basics"),
	}

	src, err := Scan(fsys, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/docs",
		"/docs/guide/install",
		"/docs/guide/advanced",
		"/docs/guide/basics",
		"/docs/api",
		"/docs/changelog",
	}, urls(src.Pages()))

	tree := src.Tree()
	require.NotNil(t, tree.Index)
	assert.Equal(t, "/docs", tree.Index.URL)
	require.Len(t, tree.Children, 4, "changelog is not listed so it stays out of the tree")

	guide := tree.Children[0]
	assert.Equal(t, NodeFolder, guide.Type)
	assert.Equal(t, "User Guide", guide.Name)
	assert.Equal(t, "Book", guide.Icon)
	require.Len(t, guide.Children, 3)
	assert.Equal(t, "/docs/guide/install", guide.Children[0].URL)

	assert.Equal(t, NodeSeparator, tree.Children[1].Type)
	assert.Equal(t, "Reference", tree.Children[1].Name)
	assert.Equal(t, "/docs/api", tree.Children[2].URL)
	assert.Equal(t, NodeLink, tree.Children[3].Type)
	assert.True(t, tree.Children[3].External)
}

func TestScan_MetaHidesEntries(t *testing.T) {
	fsys := fstest.MapFS{
		"meta.json":  file(`{"pages": ["!draft", "..."]}`),
		"draft.mdx":  file("Draft"),
		"public.mdx": file("Public"),
	}
	src, err := Scan(fsys, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/docs/public", "/docs/draft"}, urls(src.Pages()))
	require.Len(t, src.Tree().Children, 1)
	assert.Equal(t, "/docs/public", src.Tree().Children[0].URL)
}

func TestScan_IgnoresHiddenAndPartials(t *testing.T) {
	fsys := fstest.MapFS{
		"page.mdx":            file("Page"),
		".draft.mdx":          file("hidden"),
		"_snippets/note.mdx":  file("partial"),
		".git/HEAD":           file("ref"),
		"(marketing)/why.mdx": file("Why"),
	}
	src, err := Scan(fsys, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/why", "/docs/page"}, urls(src.Pages()), "route groups sort by folder name")

	why, _ := src.Resolve("/docs/why")
	assert.Equal(t, "(marketing)/why.mdx", why.File)
}

func TestScan_NormalizesLineEndings(t *testing.T) {
	src, err := Scan(fstest.MapFS{"a.md": file("---\r\ntitle: A\r\n---\r\nline1\r\nline2\r\n")}, Options{})
	require.NoError(t, err)
	p, _ := src.Resolve("/docs/a")
	assert.Equal(t, "A", p.Title)
	assert.Equal(t, "line1\nline2\n", p.Content)
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fsys     fstest.MapFS
		sentinel error
	}{
		{
			name:     "same stem with two extensions",
			fsys:     fstest.MapFS{"a.md": file("x"), "a.mdx": file("y")},
			sentinel: ErrURLCollision,
		},
		{
			name:     "route group collides with page",
			fsys:     fstest.MapFS{"a.mdx": file("x"), "(group)/a.mdx": file("y")},
			sentinel: ErrURLCollision,
		},
		{
			name:     "unterminated frontmatter",
			fsys:     fstest.MapFS{"a.mdx": file("---\ntitle: x\nbody")},
			sentinel: ErrInvalidFrontmatter,
		},
		{
			name:     "invalid yaml frontmatter",
			fsys:     fstest.MapFS{"a.mdx": file("---\ntitle: [x\n---\nbody")},
			sentinel: ErrInvalidFrontmatter,
		},
		{
			name:     "invalid meta",
			fsys:     fstest.MapFS{"a.mdx": file("x"), "meta.json": file(`{"pages": [`)},
			sentinel: ErrInvalidMeta,
		},
		{
			name:     "meta names a missing page",
			fsys:     fstest.MapFS{"a.mdx": file("x"), "meta.json": file(`{"pages": ["b"]}`)},
			sentinel: ErrUnknownMetaEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Scan(tt.fsys, Options{})
			require.Error(t, err)
			assert.Nil(t, src)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
		})
	}
}

func TestScan_FingerprintTracksContent(t *testing.T) {
	a, err := Scan(fstest.MapFS{"a.mdx": file("one")}, Options{})
	require.NoError(t, err)
	b, err := Scan(fstest.MapFS{"a.mdx": file("one")}, Options{})
	require.NoError(t, err)
	c, err := Scan(fstest.MapFS{"a.mdx": file("two")}, Options{})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestScan_FingerprintCoversNonPageFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.mdx":             file("<include>./_partials/x.mdx</include>"),
		"_partials/x.mdx":   file("old"),
		"snippets/main.go":  file("package main"),
		".cache/state.json": file("{}"),
	}
	a, err := Scan(fsys, Options{})
	require.NoError(t, err)

	fsys[".cache/state.json"] = file(`{"x":1}`)
	hidden, err := Scan(fsys, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), hidden.Fingerprint())

	fsys["_partials/x.mdx"] = file("new")
	partial, err := Scan(fsys, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), partial.Fingerprint())

	fsys["snippets/main.go"] = file("package other")
	code, err := Scan(fsys, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, partial.Fingerprint(), code.Fingerprint())
}

func TestScan_PageFingerprintIgnoresFrontmatterLayout(t *testing.T) {
	fingerprint := func(src string) string {
		s, err := Scan(fstest.MapFS{"a.mdx": file(src)}, Options{})
		require.NoError(t, err)
		p, ok := s.Resolve("/docs/a")
		require.True(t, ok)
		return p.Fingerprint
	}

	base := fingerprint("---\ntitle: A\ndescription: d\n---\nbody")
	assert.Equal(t, base, fingerprint("---\ndescription:   d\ntitle: A\n---\nbody"))
	assert.NotEqual(t, base, fingerprint("---\ntitle: B\ndescription: d\n---\nbody"))
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "/docs", BuildURL("/docs", nil))
	assert.Equal(t, "/docs/a/b", BuildURL("docs/", []string{"a", "b"}))
	assert.Equal(t, "/", BuildURL("", nil))
	assert.Equal(t, "/a", BuildURL("/", []string{"a"}))
}

func TestScan_DeterministicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z]{1,6}(/[a-z]{1,6}){0,2}`),
			1, 12, rapid.ID[string],
		).Draw(t, "paths")

		fsys := fstest.MapFS{}
		for i, n := range names {
			fsys[n+".mdx"] = file(fmt.Sprintf("body %d", i))
		}

		first, err := Scan(fsys, Options{})
		if err != nil {
			// A file and a folder index can legitimately collide; the
			// property only covers catalogs that scan.
			if !errors.Is(err, ErrURLCollision) {
				t.Fatalf("unexpected scan error: %v", err)
			}
			return
		}
		second, err := Scan(fsys, Options{})
		if err != nil {
			t.Fatalf("second scan failed: %v", err)
		}

		if got, want := urls(second.Pages()), urls(first.Pages()); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("order differs between scans: %v vs %v", got, want)
		}
		if first.Len() != len(names) {
			t.Fatalf("expected %d pages, got %d", len(names), first.Len())
		}
		seen := urls(first.Pages())
		sorted := append([]string(nil), seen...)
		sort.Strings(sorted)
		for i := 1; i < len(sorted); i++ {
			if sorted[i] == sorted[i-1] {
				t.Fatalf("duplicate url %s", sorted[i])
			}
		}
		for _, p := range first.Pages() {
			got, ok := first.Resolve(p.URL)
			if !ok || got.File != p.File {
				t.Fatalf("resolve(%s) did not round-trip", p.URL)
			}
		}
	})
}
