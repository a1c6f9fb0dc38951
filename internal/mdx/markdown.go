package mdx

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindInlineExpression is the node kind of {…} expressions inside paragraphs.
var KindInlineExpression = ast.NewNodeKind("MDXInlineExpression")

// KindInlineElement is the node kind of JSX tags inside paragraphs.
var KindInlineElement = ast.NewNodeKind("MDXInlineElement")

// InlineExpression is a {…} expression inside a paragraph.
type InlineExpression struct {
	ast.BaseInline
	Source string
}

func (n *InlineExpression) Kind() ast.NodeKind { return KindInlineExpression }

func (n *InlineExpression) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": n.Source}, nil)
}

// InlineElement is a single JSX opening, closing or self-closing tag inside a
// paragraph. Text between an opening and closing tag stays in sibling nodes.
type InlineElement struct {
	ast.BaseInline
	Name        string
	Attrs       []Attr
	Closing     bool
	SelfClosing bool
	// Segment spans the tag in the Markdown source.
	Segment text.Segment
}

func (n *InlineElement) Kind() ast.NodeKind { return KindInlineElement }

func (n *InlineElement) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

type expressionParser struct{}

func (p *expressionParser) Trigger() []byte { return []byte{'{'} }

func (p *expressionParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	end := matchBrace(line, 0)
	if end < 0 {
		return nil
	}
	n := &InlineExpression{Source: string(line[1:end])}
	block.Advance(end + 1)
	return n
}

type elementParser struct{}

func (p *elementParser) Trigger() []byte { return []byte{'<'} }

func (p *elementParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if !isTagStart(line) {
		return nil
	}
	t, end, err := parseTag(line, 0)
	if err != nil || t.comment {
		return nil
	}
	block.Advance(end)
	return &InlineElement{
		Name:        t.name,
		Attrs:       t.attrs,
		Closing:     t.closing,
		SelfClosing: t.selfClosing,
		Segment:     text.NewSegment(seg.Start, seg.Start+end),
	}
}

type mdxInline struct{}

// Extend registers the inline parsers. The element parser runs after
// autolinks so <https://…> keeps its meaning.
func (mdxInline) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&expressionParser{}, 150),
		util.Prioritized(&elementParser{}, 350),
	))
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM, mdxInline{}))
}

func parseMarkdown(md goldmark.Markdown, src []byte) *Markdown {
	return &Markdown{Source: src, Doc: md.Parser().Parse(text.NewReader(src))}
}
