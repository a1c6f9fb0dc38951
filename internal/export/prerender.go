package export

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/source"
)

const (
	// RouteExport serves the full export.
	RouteExport = "/llms.txt"
	// RoutePages is the prefix of single page routes.
	RoutePages = "/llms.mdx"
	// RouteAllPages expands to the page route of every page when prerendering.
	RouteAllPages = "/llms.mdx/*"
)

// PrerenderOptions configures Prerender.
type PrerenderOptions struct {
	Routes     []string
	OutputDir  string
	CrawlLinks bool
}

var (
	urlLinePattern = regexp.MustCompile(`(?m)^URL: (\S+)$`)
	linkPattern    = regexp.MustCompile(`\]\((/[^)\s#?]*)`)
)

// Prerender renders every route to a file below opts.OutputDir and returns
// the written files, relative to the output directory. With CrawlLinks,
// same-site page links found in rendered output are followed until no new
// routes appear.
func (e *Exporter) Prerender(ctx context.Context, opts PrerenderOptions) ([]string, error) {
	snap, err := e.current()
	if err != nil {
		return nil, err
	}
	routes := opts.Routes
	if len(routes) == 0 {
		routes = []string{RouteExport}
	}

	var queue []string
	for _, r := range routes {
		if r == RouteAllPages {
			queue = append(queue, Routes(snap)...)
			continue
		}
		queue = append(queue, r)
	}
	seen := make(map[string]bool, len(queue))
	explicit := make(map[string]bool, len(queue))
	for _, r := range queue {
		explicit[r] = true
	}
	var written []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		route := queue[0]
		queue = queue[1:]
		if seen[route] {
			continue
		}
		seen[route] = true

		body, err := e.renderRoute(ctx, route)
		if err != nil {
			if !explicit[route] && ferrors.HasCategory(err, ferrors.CategoryNotFound) {
				e.logger.Warn("Skipping crawled link without page", logfields.Route(route))
				continue
			}
			return written, err
		}

		file := routeFile(route)
		if err := writeFile(filepath.Join(opts.OutputDir, filepath.FromSlash(file)), body); err != nil {
			return written, err
		}
		written = append(written, file)
		e.logger.Debug("Prerendered route", logfields.Route(route), logfields.File(file))

		if opts.CrawlLinks {
			for _, next := range crawl(body, snap.BaseURL()) {
				if !seen[next] {
					queue = append(queue, next)
				}
			}
		}
	}

	sort.Strings(written)
	return written, nil
}

func (e *Exporter) renderRoute(ctx context.Context, route string) (string, error) {
	switch {
	case route == RouteExport:
		res, err := e.Export(ctx)
		return res.Body, err
	case route == RoutePages || strings.HasPrefix(route, RoutePages+"/"):
		unit, _, err := e.Page(ctx, SlugsFromRoute(route))
		return unit.String(), err
	default:
		return "", ferrors.ValidationError("unsupported prerender route").
			WithContext("route", route).
			Build()
	}
}

// SlugsFromRoute returns the page slugs of a /llms.mdx route.
func SlugsFromRoute(route string) []string {
	rest := strings.Trim(strings.TrimPrefix(route, RoutePages), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// RouteForURL maps a page URL below baseURL to its /llms.mdx route.
func RouteForURL(url, baseURL string) (string, bool) {
	base := "/" + strings.Trim(baseURL, "/")
	url = strings.TrimSuffix(url, "/")
	switch {
	case url == base || (base == "/" && url == ""):
		return RoutePages, true
	case base == "/" && strings.HasPrefix(url, "/"):
		return RoutePages + url, true
	case strings.HasPrefix(url, base+"/"):
		return RoutePages + strings.TrimPrefix(url, base), true
	}
	return "", false
}

func crawl(body, baseURL string) []string {
	var out []string
	add := func(url string) {
		if r, ok := RouteForURL(url, baseURL); ok {
			out = append(out, r)
		}
	}
	for _, m := range urlLinePattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// routeFile maps a route to its output file. Page routes get an .mdx
// extension; the root page is written as llms.mdx/index.mdx.
func routeFile(route string) string {
	if route == RoutePages {
		return strings.TrimPrefix(RoutePages, "/") + "/index.mdx"
	}
	if strings.HasPrefix(route, RoutePages+"/") {
		return strings.TrimPrefix(route, "/") + ".mdx"
	}
	return strings.TrimPrefix(route, "/")
}

func writeFile(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.FileSystemError("failed to create output directory").WithCause(err).WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write prerendered route").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Routes lists the /llms.mdx route of every page in snap.
func Routes(snap *source.Source) []string {
	pages := snap.Pages()
	routes := make([]string, 0, len(pages))
	for _, p := range pages {
		if r, ok := RouteForURL(p.URL, snap.BaseURL()); ok {
			routes = append(routes, r)
		}
	}
	return routes
}
