// Package mdx parses MDX documents: Markdown with top-level import/export
// statements, JSX elements and {…} expressions.
//
// The block structure (ESM, elements, expressions) is recognised by a line
// scanner; the Markdown between them is parsed by goldmark with GitHub
// flavoured extensions. Content nested in elements is dedented before it is
// parsed, so indentation inside JSX never turns prose into code blocks.
package mdx

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
)

// ErrSyntax is matched by every ParseError.
var ErrSyntax = errors.New("mdx syntax error")

// ParseError reports malformed MDX with the 1-based line it was found on.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

func (e *ParseError) Unwrap() error { return ErrSyntax }

var (
	esmPattern      = regexp.MustCompile(`^(import|export)\b`)
	autolinkPattern = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9+.\-]{1,31}:[^\s<>]*|[A-Za-z0-9.!#$%&'*+/=?^_{|}~\-]+@[A-Za-z0-9.\-]+)>`)
)

// Parser parses MDX sources. A Parser is not safe for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a parser configured with the GFM extensions.
func NewParser() *Parser {
	return &Parser{md: newMarkdown()}
}

// Parse parses src into a Document.
func (p *Parser) Parse(src []byte) (*Document, error) {
	s := &scanner{src: src, md: p.md}
	nodes, _, _, err := s.parseNodes(0, "", true)
	if err != nil {
		return nil, err
	}
	return &Document{Children: nodes}, nil
}

// Parse parses src with a fresh Parser.
func Parse(src []byte) (*Document, error) {
	return NewParser().Parse(src)
}

type scanner struct {
	src []byte
	md  goldmark.Markdown
}

var errUnclosed = errors.New("unclosed element")

// parseNodes scans from pos until the closing tag of parent (or the end of
// input at the top level). It returns the nodes, the offset where the closing
// tag starts and the offset just after it.
func (s *scanner) parseNodes(pos int, parent string, top bool) ([]Node, int, int, error) {
	var (
		nodes    []Node
		pending  bytes.Buffer
		fence    []byte
		boundary = true
	)
	flush := func() {
		if md := s.markdown(pending.Bytes()); md != nil {
			nodes = append(nodes, md)
		}
		pending.Reset()
	}
	closeTag := []byte("</" + parent + ">")

	for pos < len(s.src) {
		line, next := s.lineAt(pos)
		trimmed := bytes.TrimLeft(line, " \t")
		start := pos + len(line) - len(trimmed)

		if fence != nil {
			pending.Write(line)
			pending.WriteByte('\n')
			if isFenceClose(trimmed, fence) {
				fence = nil
			}
			pos = next
			continue
		}
		if f := fenceOpen(trimmed); f != nil {
			fence = f
			pending.Write(line)
			pending.WriteByte('\n')
			boundary = false
			pos = next
			continue
		}
		if len(trimmed) == 0 {
			pending.WriteByte('\n')
			boundary = true
			pos = next
			continue
		}
		if !top {
			if idx := indexCloseTag(line, closeTag); idx >= 0 {
				if before := line[:idx]; len(bytes.TrimSpace(before)) > 0 {
					pending.Write(before)
					pending.WriteByte('\n')
				}
				flush()
				return nodes, pos + idx, pos + idx + len(closeTag), nil
			}
		}

		if boundary {
			switch {
			case top && esmPattern.Match(trimmed):
				flush()
				end := s.blockEnd(pos)
				nodes = append(nodes, &ESM{Source: string(bytes.TrimRight(s.src[pos:end], "\n"))})
				pos = end
				continue
			case trimmed[0] == '{':
				end := matchBrace(s.src, start)
				if end < 0 {
					return nil, 0, 0, s.errorf(start, "unterminated expression")
				}
				if rest := s.restOfLine(end + 1); rest >= 0 {
					flush()
					nodes = append(nodes, &Expression{Source: string(bytes.TrimSpace(s.src[start+1 : end]))})
					pos = rest
					continue
				}
			case isTagStart(trimmed) && !autolinkPattern.Match(trimmed):
				flush()
				n, after, err := s.parseElement(start)
				if err != nil {
					return nil, 0, 0, err
				}
				if n != nil {
					nodes = append(nodes, n)
				}
				pos = s.skipBlankRest(after)
				continue
			}
		}

		pending.Write(line)
		pending.WriteByte('\n')
		boundary = false
		pos = next
	}

	if !top {
		return nil, 0, 0, errUnclosed
	}
	flush()
	return nodes, len(s.src), len(s.src), nil
}

func (s *scanner) parseElement(start int) (Node, int, error) {
	t, end, err := parseTag(s.src, start)
	if err != nil {
		return nil, 0, s.errorf(start, "%v", err)
	}
	switch {
	case t.comment:
		return nil, end, nil
	case t.closing:
		return nil, 0, s.errorf(start, "unexpected closing tag </%s>", t.name)
	case t.selfClosing:
		return &Element{Name: t.name, Attrs: t.attrs, SelfClosing: true, Line: s.lineNo(start)}, end, nil
	}

	children, closeStart, after, err := s.parseNodes(s.skipBlankRest(end), t.name, false)
	if errors.Is(err, errUnclosed) {
		return nil, 0, s.errorf(start, "unclosed <%s>", t.name)
	}
	if err != nil {
		return nil, 0, err
	}
	return &Element{
		Name:     t.name,
		Attrs:    t.attrs,
		Children: children,
		Inner:    string(s.src[end:closeStart]),
		Line:     s.lineNo(start),
	}, after, nil
}

// markdown dedents buf and parses it, or returns nil for blank input.
func (s *scanner) markdown(buf []byte) *Markdown {
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}
	src := dedent(buf)
	return parseMarkdown(s.md, src)
}

// lineAt returns the line starting at pos without its newline, and the
// offset of the following line.
func (s *scanner) lineAt(pos int) ([]byte, int) {
	if i := bytes.IndexByte(s.src[pos:], '\n'); i >= 0 {
		return s.src[pos : pos+i], pos + i + 1
	}
	return s.src[pos:], len(s.src)
}

// restOfLine returns the start of the next line when the rest of the line at
// pos is blank, or -1.
func (s *scanner) restOfLine(pos int) int {
	line, next := s.lineAt(pos)
	if len(bytes.TrimSpace(line)) != 0 {
		return -1
	}
	return next
}

// skipBlankRest moves past the end of the line when only whitespace follows pos.
func (s *scanner) skipBlankRest(pos int) int {
	if pos >= len(s.src) {
		return pos
	}
	if next := s.restOfLine(pos); next >= 0 {
		return next
	}
	return pos
}

// blockEnd returns the offset of the first blank line at or after pos.
func (s *scanner) blockEnd(pos int) int {
	for pos < len(s.src) {
		line, next := s.lineAt(pos)
		if len(bytes.TrimSpace(line)) == 0 {
			return pos
		}
		pos = next
	}
	return len(s.src)
}

func (s *scanner) lineNo(pos int) int {
	return bytes.Count(s.src[:pos], []byte{'\n'}) + 1
}

func (s *scanner) errorf(pos int, format string, args ...any) error {
	return &ParseError{Line: s.lineNo(pos), Msg: fmt.Sprintf(format, args...)}
}

// indexCloseTag finds closeTag in line outside inline code spans.
func indexCloseTag(line, closeTag []byte) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '`' {
			n := 1
			for i+n < len(line) && line[i+n] == '`' {
				n++
			}
			run := bytes.Repeat([]byte{'`'}, n)
			if end := bytes.Index(line[i+n:], run); end >= 0 {
				i += n + end + n - 1
				continue
			}
			i += n - 1
			continue
		}
		if bytes.HasPrefix(line[i:], closeTag) {
			return i
		}
	}
	return -1
}

// fenceOpen returns the fence marker if line opens a fenced code block.
func fenceOpen(line []byte) []byte {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return nil
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return nil
	}
	if line[0] == '`' && bytes.IndexByte(line[n:], '`') >= 0 {
		return nil
	}
	return line[:n]
}

func isFenceClose(line, fence []byte) bool {
	n := 0
	for n < len(line) && line[n] == fence[0] {
		n++
	}
	return n >= len(fence) && len(bytes.TrimSpace(line[n:])) == 0
}

// dedent removes the indentation shared by all non-blank lines.
func dedent(buf []byte) []byte {
	lines := bytes.Split(buf, []byte{'\n'})
	common := -1
	for _, l := range lines {
		if len(bytes.TrimSpace(l)) == 0 {
			continue
		}
		indent := len(l) - len(bytes.TrimLeft(l, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	out := make([]byte, 0, len(buf))
	for i, l := range lines {
		switch {
		case len(bytes.TrimSpace(l)) == 0:
			l = nil
		case common > 0:
			l = l[common:]
		}
		out = append(out, l...)
		if i < len(lines)-1 {
			out = append(out, '\n')
		}
	}
	return out
}
