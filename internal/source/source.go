// Package source exposes a documentation content tree as an ordered,
// immutable catalog of pages.
package source

import (
	"io/fs"
	"strings"

	"github.com/inful/mdfp"
)

// Source is one content snapshot. It is read-only after Scan returns and safe
// for concurrent use.
type Source struct {
	fsys        fs.FS
	baseURL     string
	pages       []Page
	byURL       map[string]int
	bySlugs     map[string]int
	tree        *Node
	fingerprint string
}

func newSource(fsys fs.FS, baseURL string, pages []Page, tree *Node, digest string) *Source {
	s := &Source{
		fsys:    fsys,
		baseURL: BuildURL(baseURL, nil),
		pages:   pages,
		byURL:   make(map[string]int, len(pages)),
		bySlugs: make(map[string]int, len(pages)),
		tree:    tree,
	}
	parts := make([]string, 0, len(pages))
	for i, p := range pages {
		s.byURL[p.URL] = i
		s.bySlugs[slugKey(p.Slugs)] = i
		parts = append(parts, p.URL+" "+p.Fingerprint)
	}
	parts = append(parts, digest)
	s.fingerprint = mdfp.CalculateFingerprintFromParts(s.baseURL, strings.Join(parts, "\n"))
	return s
}

// Pages returns the catalog in its deterministic order.
func (s *Source) Pages() []Page {
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// Len reports the number of pages.
func (s *Source) Len() int { return len(s.pages) }

// Resolve finds the page with the given URL. A trailing slash is ignored.
func (s *Source) Resolve(url string) (Page, bool) {
	if len(url) > 1 {
		url = strings.TrimSuffix(url, "/")
	}
	i, ok := s.byURL[url]
	if !ok {
		return Page{}, false
	}
	return s.pages[i], true
}

// GetPage finds a page by its slugs below the base URL. Empty slugs select
// the root index page.
func (s *Source) GetPage(slugs []string) (Page, bool) {
	i, ok := s.bySlugs[slugKey(slugs)]
	if !ok {
		return Page{}, false
	}
	return s.pages[i], true
}

// Tree returns the navigation tree. Callers must not modify it.
func (s *Source) Tree() *Node { return s.tree }

// FS returns the content filesystem the snapshot was scanned from.
func (s *Source) FS() fs.FS { return s.fsys }

// BaseURL returns the normalized URL prefix of every page.
func (s *Source) BaseURL() string { return s.baseURL }

// Fingerprint identifies the snapshot's content: it changes whenever a page
// URL, body or frontmatter changes, or any other non-hidden file below the
// root, such as an included partial.
func (s *Source) Fingerprint() string { return s.fingerprint }
