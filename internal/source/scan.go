package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DefaultBaseURL prefixes page URLs when Options.BaseURL is empty.
const DefaultBaseURL = "/docs"

// Options controls how a content tree maps onto pages.
type Options struct {
	BaseURL string
}

const (
	indexStem  = "index"
	restMarker = "..."
)

var (
	separatorPattern = regexp.MustCompile(`^---(.*)---$`)
	linkPattern      = regexp.MustCompile(`^\[(.+)\]\((.+)\)$`)
)

// metaFile is the per-directory meta.json / meta.yaml descriptor. JSON is a
// subset of YAML so one decoder serves both.
type metaFile struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
	DefaultOpen bool     `yaml:"defaultOpen"`
	Pages       []string `yaml:"pages"`
}

type entryKind int

const (
	entryPage entryKind = iota
	entryDir
	entrySeparator
	entryLink
)

type entry struct {
	kind   entryKind
	name   string
	label  string
	url    string
	listed bool
}

type scanner struct {
	fsys    fs.FS
	baseURL string
	pages   []Page
	byURL   map[string]string
}

// Scan discovers every page below the root of fsys. All failures are
// reported here, as ContentScanErrors; a returned Source is complete.
func Scan(fsys fs.FS, opts Options) (*Source, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	s := &scanner{fsys: fsys, baseURL: base, byURL: make(map[string]string)}

	root, err := s.scanDir(".", "", nil)
	if err != nil {
		return nil, err
	}
	digest, err := contentDigest(fsys)
	if err != nil {
		return nil, err
	}
	slog.Debug("Content scan complete", logfields.Pages(len(s.pages)), logfields.URL(base))
	return newSource(fsys, base, s.pages, root, digest), nil
}

func (s *scanner) scanDir(dir, name string, slugs []string) (*Node, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, scanError(ErrWalkFailed, dir, err)
	}

	var meta *metaFile
	files := make(map[string]string)
	dirs := make(map[string]bool)
	for _, e := range entries {
		n := e.Name()
		if isHidden(n) {
			continue
		}
		if e.IsDir() {
			dirs[n] = true
			continue
		}
		if isMetaFile(n) {
			if meta == nil {
				if meta, err = s.readMeta(path.Join(dir, n)); err != nil {
					return nil, err
				}
			}
			continue
		}
		ext := path.Ext(n)
		if !isPageExt(ext) {
			continue
		}
		stem := strings.TrimSuffix(n, ext)
		if prev, dup := files[stem]; dup {
			return nil, scanError(ErrURLCollision, path.Join(dir, n),
				fmt.Errorf("%s and %s map to the same page", path.Join(dir, prev), path.Join(dir, n)))
		}
		files[stem] = n
	}

	order, err := orderEntries(dir, files, dirs, meta)
	if err != nil {
		return nil, err
	}

	folder := &Node{Type: NodeFolder, Name: titleFromName(name)}
	if meta != nil {
		if meta.Title != "" {
			folder.Name = meta.Title
		}
		folder.Icon = meta.Icon
		folder.Description = meta.Description
		folder.DefaultOpen = meta.DefaultOpen
	}

	for _, e := range order {
		switch e.kind {
		case entryPage:
			p, err := s.loadPage(dir, files[e.name], name, slugs)
			if err != nil {
				return nil, err
			}
			node := pageNode(p)
			switch {
			case e.name == indexStem:
				folder.Index = node
			case e.listed:
				folder.Children = append(folder.Children, node)
			}
		case entryDir:
			child, err := s.scanDir(path.Join(dir, e.name), e.name, childSlugs(slugs, e.name))
			if err != nil {
				return nil, err
			}
			if e.listed && !child.empty() {
				folder.Children = append(folder.Children, child)
			}
		case entrySeparator:
			folder.Children = append(folder.Children, &Node{Type: NodeSeparator, Name: e.label})
		case entryLink:
			folder.Children = append(folder.Children, &Node{
				Type:     NodeLink,
				Name:     e.label,
				URL:      e.url,
				External: strings.Contains(e.url, "://"),
			})
		}
	}
	return folder, nil
}

func (s *scanner) readMeta(file string) (*metaFile, error) {
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return nil, scanError(ErrFileReadFailed, file, err)
	}
	var m metaFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, scanError(ErrInvalidMeta, file, err)
	}
	return &m, nil
}

func (s *scanner) loadPage(dir, file, folderName string, slugs []string) (Page, error) {
	rel := path.Join(dir, file)
	data, err := fs.ReadFile(s.fsys, rel)
	if err != nil {
		return Page{}, scanError(ErrFileReadFailed, rel, err)
	}
	fm, body, _, _, err := frontmatter.Split(data)
	if err != nil {
		return Page{}, scanError(ErrInvalidFrontmatter, rel, err)
	}
	meta, fields, err := frontmatter.DecodeMeta(fm)
	if err != nil {
		return Page{}, scanError(ErrInvalidFrontmatter, rel, err)
	}

	canonical, err := frontmatter.SerializeYAML(fields, frontmatter.Style{})
	if err != nil {
		return Page{}, scanError(ErrInvalidFrontmatter, rel, err)
	}

	stem := strings.TrimSuffix(file, path.Ext(file))
	pageSlugs := slugs
	if stem != indexStem {
		pageSlugs = childSlugs(slugs, stem)
	}
	if pageSlugs == nil {
		pageSlugs = []string{}
	}
	url := BuildURL(s.baseURL, pageSlugs)
	if other, dup := s.byURL[url]; dup {
		return Page{}, scanError(ErrURLCollision, rel,
			fmt.Errorf("%s and %s both map to %s", other, rel, url))
	}
	s.byURL[url] = rel

	title := meta.Title
	if title == "" {
		switch {
		case stem != indexStem:
			title = titleFromName(stem)
		case folderName != "":
			title = titleFromName(folderName)
		default:
			title = "Home"
		}
	}

	content := strings.ReplaceAll(string(body), "\r\n", "\n")
	p := Page{
		URL:         url,
		Title:       title,
		Description: meta.Description,
		Icon:        meta.Icon,
		Content:     content,
		Frontmatter: fields,
		File:        rel,
		Slugs:       pageSlugs,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(canonical), content),
	}
	s.pages = append(s.pages, p)
	return p, nil
}

// orderEntries decides the order of a directory's pages and sub-folders.
// Without a meta file the index page comes first and the rest follow
// alphabetically. A meta file's pages list fixes the order of the named
// entries; "..." stands for everything not named. Entries left out of a
// list without "..." are still pages but are hidden from the tree.
func orderEntries(dir string, files map[string]string, dirs map[string]bool, meta *metaFile) ([]entry, error) {
	var rest []entry
	for _, n := range sortedNames(files, dirs) {
		if _, ok := files[n]; ok && n != indexStem {
			rest = append(rest, entry{kind: entryPage, name: n, listed: true})
		}
		if dirs[n] {
			rest = append(rest, entry{kind: entryDir, name: n, listed: true})
		}
	}

	var out []entry
	if _, ok := files[indexStem]; ok {
		out = append(out, entry{kind: entryPage, name: indexStem, listed: true})
	}
	if meta == nil || len(meta.Pages) == 0 {
		return append(out, rest...), nil
	}

	used := make(map[entryKey]bool)
	restAt := -1
	var listed []entry
	for _, item := range meta.Pages {
		item = strings.TrimSpace(item)
		if item == restMarker {
			restAt = len(listed)
			continue
		}
		if m := separatorPattern.FindStringSubmatch(item); m != nil {
			listed = append(listed, entry{kind: entrySeparator, label: strings.TrimSpace(m[1]), listed: true})
			continue
		}
		if m := linkPattern.FindStringSubmatch(item); m != nil {
			listed = append(listed, entry{kind: entryLink, label: m[1], url: m[2], listed: true})
			continue
		}

		name := strings.TrimPrefix(item, "./")
		hide := strings.HasPrefix(name, "!")
		name = strings.TrimPrefix(name, "!")
		_, isPage := files[name]
		if !isPage && !dirs[name] {
			return nil, scanError(ErrUnknownMetaEntry, path.Join(dir, "meta"), fmt.Errorf("entry %q", item))
		}
		if name == indexStem {
			continue
		}
		for _, k := range []entryKey{{entryPage, name}, {entryDir, name}} {
			exists := (k.kind == entryPage && isPage) || (k.kind == entryDir && dirs[name])
			if !exists || used[k] {
				continue
			}
			used[k] = true
			if !hide {
				listed = append(listed, entry{kind: k.kind, name: name, listed: true})
			}
		}
	}

	var remaining, hidden []entry
	for _, e := range rest {
		if used[entryKey{e.kind, e.name}] {
			if !containsEntry(listed, e) {
				e.listed = false
				hidden = append(hidden, e)
			}
			continue
		}
		if restAt < 0 {
			e.listed = false
		}
		remaining = append(remaining, e)
	}

	if restAt >= 0 {
		listed = append(listed[:restAt], append(remaining, listed[restAt:]...)...)
		remaining = nil
	}
	out = append(out, listed...)
	out = append(out, remaining...)
	return append(out, hidden...), nil
}

type entryKey struct {
	kind entryKind
	name string
}

func containsEntry(list []entry, e entry) bool {
	for _, l := range list {
		if l.kind == e.kind && l.name == e.name {
			return true
		}
	}
	return false
}

func sortedNames(files map[string]string, dirs map[string]bool) []string {
	seen := make(map[string]bool, len(files)+len(dirs))
	names := make([]string, 0, len(files)+len(dirs))
	for n := range files {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for n := range dirs {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// childSlugs extends slugs by name. Route groups, folders named "(name)",
// do not contribute a URL segment.
func childSlugs(slugs []string, name string) []string {
	out := make([]string, 0, len(slugs)+1)
	out = append(out, slugs...)
	if strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") {
		return out
	}
	return append(out, name)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func isMetaFile(name string) bool {
	switch name {
	case "meta.json", "meta.yaml", "meta.yml":
		return true
	}
	return false
}

func isPageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".md", ".mdx":
		return true
	}
	return false
}

func scanError(sentinel error, file string, cause error) error {
	return errors.ContentScanError(sentinel.Error()).
		WithCause(fmt.Errorf("%w: %s: %w", sentinel, file, cause)).
		WithContext("file", file).
		Build()
}
