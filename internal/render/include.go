package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/mdx"
)

var (
	// ErrIncludeNotFound is returned when an include target does not exist.
	ErrIncludeNotFound = errors.New("include target not found")
	// ErrIncludeCycle is returned when a file includes itself, directly or not.
	ErrIncludeCycle = errors.New("include cycle")
	// ErrIncludeSection is returned when a #section selector matches nothing.
	ErrIncludeSection = errors.New("include section not found")
	// ErrIncludePath is returned for empty targets or targets outside the content root.
	ErrIncludePath = errors.New("invalid include path")
	// ErrIncludePlacement is returned for an <include> inside a list, quote,
	// table or heading.
	ErrIncludePlacement = errors.New("include must stand in a paragraph")
)

type includeError struct {
	path string
	err  error
}

func (e *includeError) Error() string { return fmt.Sprintf("include %s: %v", e.path, e.err) }

func (e *includeError) Unwrap() error { return e.err }

type includer struct {
	ctx    context.Context
	fsys   fs.FS
	parser *mdx.Parser
}

// expand replaces every <include> element in nodes. dir is the directory of
// the file the nodes came from; stack holds the files being expanded.
func (in *includer) expand(nodes []mdx.Node, dir string, stack []string) ([]mdx.Node, error) {
	out := make([]mdx.Node, 0, len(nodes))
	for _, n := range nodes {
		if md, ok := n.(*mdx.Markdown); ok {
			expanded, err := in.expandInline(md, dir, stack)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		el, ok := n.(*mdx.Element)
		if !ok {
			out = append(out, n)
			continue
		}
		if el.Name == "include" {
			included, err := in.include(el, dir, stack)
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
			continue
		}
		children, err := in.expand(el.Children, dir, stack)
		if err != nil {
			return nil, err
		}
		cp := *el
		cp.Children = children
		out = append(out, &cp)
	}
	return out, nil
}

// expandInline expands an <include> written inside a paragraph. The Markdown
// is split around the tag, so the included blocks stand between the text
// before and after it.
func (in *includer) expandInline(md *mdx.Markdown, dir string, stack []string) ([]mdx.Node, error) {
	open, closing, err := findInlineInclude(md)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return []mdx.Node{md}, nil
	}

	src := md.Source
	before, err := in.fragment(src[:open.Segment.Start], dir, stack)
	if err != nil {
		return nil, err
	}
	el := &mdx.Element{
		Name:  "include",
		Attrs: open.Attrs,
		Inner: string(src[open.Segment.Stop:closing.Segment.Start]),
	}
	included, err := in.include(el, dir, stack)
	if err != nil {
		return nil, err
	}
	after, err := in.fragment(src[closing.Segment.Stop:], dir, stack)
	if err != nil {
		return nil, err
	}
	return append(append(before, included...), after...), nil
}

func (in *includer) fragment(src []byte, dir string, stack []string) ([]mdx.Node, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, nil
	}
	doc, err := in.parser.Parse(src)
	if err != nil {
		return nil, &includeError{path: stack[len(stack)-1], err: err}
	}
	return in.expand(doc.Children, dir, stack)
}

// findInlineInclude returns the first inline <include> tag of md and its
// closing tag, or nil when there is none.
func findInlineInclude(md *mdx.Markdown) (open, closing *mdx.InlineElement, err error) {
	_ = ast.Walk(md.Doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		el, ok := n.(*mdx.InlineElement)
		if !entering || !ok || el.Name != "include" || el.Closing {
			return ast.WalkContinue, nil
		}
		tag := string(el.Segment.Value(md.Source))
		parent := n.Parent()
		switch {
		case el.SelfClosing:
			err = &includeError{path: tag, err: ErrIncludePath}
		case parent == nil || parent.Kind() != ast.KindParagraph || parent.Parent() != md.Doc:
			err = &includeError{path: tag, err: ErrIncludePlacement}
		default:
			for s := n.NextSibling(); s != nil; s = s.NextSibling() {
				if c, ok := s.(*mdx.InlineElement); ok && c.Name == "include" && c.Closing {
					open, closing = el, c
					break
				}
			}
			if closing == nil {
				err = &includeError{path: tag, err: fmt.Errorf("%w: unclosed <include>", ErrIncludePath)}
			}
		}
		return ast.WalkStop, nil
	})
	return open, closing, err
}

func (in *includer) include(el *mdx.Element, dir string, stack []string) ([]mdx.Node, error) {
	if err := in.ctx.Err(); err != nil {
		return nil, err
	}

	target, section, _ := strings.Cut(el.Text(), "#")
	file, err := resolveInclude(target, dir, el.HasAttr("cwd"))
	if err != nil {
		return nil, &includeError{path: target, err: err}
	}
	for _, f := range stack {
		if f == file {
			return nil, &includeError{path: file, err: ErrIncludeCycle}
		}
	}

	data, err := fs.ReadFile(in.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrIncludeNotFound
		}
		return nil, &includeError{path: file, err: err}
	}

	switch strings.ToLower(path.Ext(file)) {
	case ".md", ".mdx":
		return in.includeDocument(file, section, data, stack)
	default:
		return in.includeCode(el, file, data)
	}
}

func (in *includer) includeDocument(file, section string, data []byte, stack []string) ([]mdx.Node, error) {
	_, body, _, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, &includeError{path: file, err: err}
	}
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))

	doc, err := in.parser.Parse(body)
	if err != nil {
		return nil, &includeError{path: file, err: err}
	}
	nodes := doc.Children
	if section != "" {
		sec := findSection(nodes, section)
		if sec == nil {
			return nil, &includeError{path: file + "#" + section, err: ErrIncludeSection}
		}
		nodes = sec.Children
	}
	return in.expand(nodes, path.Dir(file), append(stack[:len(stack):len(stack)], file))
}

// includeCode wraps a non-Markdown file in a fenced code block.
func (in *includer) includeCode(el *mdx.Element, file string, data []byte) ([]mdx.Node, error) {
	lang, ok := el.StringAttr("lang")
	if !ok {
		lang = strings.TrimPrefix(path.Ext(file), ".")
	}
	info := lang
	if meta, ok := el.StringAttr("meta"); ok && meta != "" {
		info += " " + meta
	}

	code := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	fence := codeFence(code)
	src := fence + info + "\n" + code + "\n" + fence + "\n"

	doc, err := in.parser.Parse([]byte(src))
	if err != nil {
		return nil, &includeError{path: file, err: err}
	}
	return doc.Children, nil
}

func resolveInclude(target, dir string, fromRoot bool) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", ErrIncludePath
	}
	base := dir
	if fromRoot || strings.HasPrefix(target, "/") {
		base = "."
	}
	file := path.Join(base, strings.TrimPrefix(target, "/"))
	if !fs.ValidPath(file) {
		return "", fmt.Errorf("%w: %s escapes the content root", ErrIncludePath, target)
	}
	return file, nil
}

func findSection(nodes []mdx.Node, id string) *mdx.Element {
	var found *mdx.Element
	mdx.Walk(nodes, func(n mdx.Node) bool {
		if found != nil {
			return false
		}
		if el, ok := n.(*mdx.Element); ok && el.Name == "section" {
			if v, _ := el.StringAttr("id"); v == id {
				found = el
				return false
			}
		}
		return true
	})
	return found
}

// codeFence returns a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest, run := 0, 0
	for i := 0; i < len(code); i++ {
		if code[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
