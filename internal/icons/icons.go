// Package icons maps icon names from page frontmatter and layout links onto
// renderable SVG handles.
package icons

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Handle is an opaque, renderable icon reference.
type Handle struct {
	Name string `json:"name"`
	SVG  string `json:"svg"`
}

type catalogFile struct {
	Icons map[string]string `yaml:"icons"`
}

// Resolver looks icons up in a catalog fixed at construction time.
// Lookups never fail: absent or unknown names resolve to no icon.
type Resolver struct {
	icons map[string]Handle
	names []string

	mu     sync.Mutex
	missed map[string]struct{}
}

// ParseCatalog decodes a catalog document (`icons: {Name: "<svg…>"}`).
func ParseCatalog(data []byte) (map[string]string, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse icon catalog: %w", err)
	}
	for name, svg := range cf.Icons {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(svg) == "" {
			return nil, fmt.Errorf("parse icon catalog: icon %q has an empty name or body", name)
		}
	}
	return cf.Icons, nil
}

// NewResolver builds a resolver over the given name to SVG catalog.
func NewResolver(catalog map[string]string) *Resolver {
	r := &Resolver{
		icons:  make(map[string]Handle, len(catalog)),
		missed: make(map[string]struct{}),
	}
	for name, svg := range catalog {
		r.icons[name] = Handle{Name: name, SVG: svg}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Load builds a resolver from the embedded catalog, overlaid with the catalog
// file at path when path is non-empty.
func Load(path string) (*Resolver, error) {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "embedded icon catalog is invalid").Build()
	}
	if path == "" {
		return NewResolver(catalog), nil
	}

	// #nosec G304 -- catalog path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read icon catalog").
			WithContext("path", path).
			Build()
	}
	extra, err := ParseCatalog(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid icon catalog").
			WithContext("path", path).
			Build()
	}
	for name, svg := range extra {
		catalog[name] = svg
	}
	slog.Debug("Loaded icon catalog", logfields.Path(path), slog.Int("icons", len(extra)))
	return NewResolver(catalog), nil
}

// Resolve returns the handle for name. Kebab-case names also match their
// PascalCase catalog entry ("book-open" finds "BookOpen").
func (r *Resolver) Resolve(name string) (Handle, bool) {
	name = strings.TrimSpace(name)
	if r == nil || name == "" {
		return Handle{}, false
	}
	if h, ok := r.icons[name]; ok {
		return h, true
	}
	if h, ok := r.icons[pascalCase(name)]; ok {
		return h, true
	}
	r.noteMiss(name)
	return Handle{}, false
}

// Names lists the catalog in sorted order.
func (r *Resolver) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Resolver) noteMiss(name string) {
	r.mu.Lock()
	_, seen := r.missed[name]
	r.missed[name] = struct{}{}
	r.mu.Unlock()
	if !seen {
		slog.Debug("Unknown icon, rendering without one", logfields.Icon(name))
	}
}

func pascalCase(name string) string {
	var b strings.Builder
	upper := true
	for _, c := range name {
		if c == '-' || c == '_' || c == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(c))
			upper = false
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
