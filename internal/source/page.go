package source

import (
	"path"
	"strings"
)

// Page is one documentation page of a content snapshot. Pages are immutable
// once a scan has returned.
type Page struct {
	URL         string
	Title       string
	Description string
	Icon        string
	// Content is the raw MDX body with frontmatter removed.
	Content     string
	Frontmatter map[string]any
	// File is the slash separated path of the originating file relative to
	// the content root.
	File        string
	Slugs       []string
	Fingerprint string
}

// Dir returns the directory of the originating file, relative to the content root.
func (p Page) Dir() string {
	return path.Dir(p.File)
}

// BuildURL joins a base URL and slugs into a page URL.
func BuildURL(baseURL string, slugs []string) string {
	base := "/" + strings.Trim(baseURL, "/")
	if len(slugs) == 0 {
		return base
	}
	if base == "/" {
		return "/" + strings.Join(slugs, "/")
	}
	return base + "/" + strings.Join(slugs, "/")
}

func slugKey(slugs []string) string {
	return strings.Join(slugs, "/")
}
