package mdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestParsePlainMarkdown(t *testing.T) {
	doc := parse(t, "# Title\n\nhello *world*\n")
	require.Len(t, doc.Children, 1)

	md, ok := doc.Children[0].(*Markdown)
	require.True(t, ok)
	require.Equal(t, 2, md.Doc.ChildCount())
	assert.Equal(t, ast.KindHeading, md.Doc.FirstChild().Kind())
	assert.Equal(t, ast.KindParagraph, md.Doc.LastChild().Kind())
}

func TestParseESMAndExpressions(t *testing.T) {
	src := "import { Card } from 'components'\nexport const meta = { a: 1 }\n\n{/* note */}\n\nBody {props.name} text\n"
	doc := parse(t, src)
	require.Len(t, doc.Children, 3)

	esm, ok := doc.Children[0].(*ESM)
	require.True(t, ok)
	assert.Equal(t, "import { Card } from 'components'\nexport const meta = { a: 1 }", esm.Source)

	expr, ok := doc.Children[1].(*Expression)
	require.True(t, ok)
	assert.Equal(t, "/* note */", expr.Source)

	md, ok := doc.Children[2].(*Markdown)
	require.True(t, ok)
	var inline *InlineExpression
	require.NoError(t, ast.Walk(md.Doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if e, ok := n.(*InlineExpression); ok && entering {
			inline = e
		}
		return ast.WalkContinue, nil
	}))
	require.NotNil(t, inline)
	assert.Equal(t, "props.name", inline.Source)
}

func TestParseNestedElements(t *testing.T) {
	src := `<Tabs items={["a", "b"]}>
  <Tab value="a">
    Content **A**
  </Tab>
  <Tab value="b" title='B'>
    - one
    - two
  </Tab>
</Tabs>

After.
`
	doc := parse(t, src)
	require.Len(t, doc.Children, 2)

	tabs, ok := doc.Children[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "Tabs", tabs.Name)
	assert.Equal(t, 1, tabs.Line)
	require.Len(t, tabs.Children, 2)

	items, ok := tabs.Attr("items")
	require.True(t, ok)
	assert.Equal(t, AttrExpression, items.Kind)
	assert.Equal(t, `["a", "b"]`, items.Value)

	second := tabs.Children[1].(*Element)
	title, ok := second.StringAttr("title")
	require.True(t, ok)
	assert.Equal(t, "B", title)

	// Indented content is dedented, so the list is a list and not a code block.
	body := second.Children[0].(*Markdown)
	assert.Equal(t, ast.KindList, body.Doc.FirstChild().Kind())
	assert.Equal(t, "- one\n- two\n", string(body.Source))

	_, ok = doc.Children[1].(*Markdown)
	assert.True(t, ok)
}

func TestParseInlineCloseAndSelfClosing(t *testing.T) {
	doc := parse(t, "<Callout type=\"warn\">Be careful</Callout>\n<Card title={\"Intro\"} href=\"/docs/intro\" />\n<br>\n")
	require.Len(t, doc.Children, 3)

	callout := doc.Children[0].(*Element)
	assert.Equal(t, "Be careful", callout.Text())
	require.Len(t, callout.Children, 1)

	card := doc.Children[1].(*Element)
	assert.True(t, card.SelfClosing)
	title, ok := card.StringAttr("title")
	require.True(t, ok)
	assert.Equal(t, "Intro", title)

	br := doc.Children[2].(*Element)
	assert.True(t, br.SelfClosing)
	assert.Equal(t, "br", br.Name)
}

func TestParseFragmentsAndComments(t *testing.T) {
	doc := parse(t, "<!-- hidden -->\n\n<>\ninside\n</>\n")
	require.Len(t, doc.Children, 1)
	frag := doc.Children[0].(*Element)
	assert.Empty(t, frag.Name)
	require.Len(t, frag.Children, 1)
}

func TestParseFencedCodeIsOpaque(t *testing.T) {
	src := "<Steps>\n```tsx\n<Broken\n{ unbalanced\n</Steps>\n```\n</Steps>\n"
	doc := parse(t, src)
	require.Len(t, doc.Children, 1)

	steps := doc.Children[0].(*Element)
	require.Len(t, steps.Children, 1)
	md := steps.Children[0].(*Markdown)
	fence, ok := md.Doc.FirstChild().(*ast.FencedCodeBlock)
	require.True(t, ok)
	assert.Equal(t, "tsx", string(fence.Language(md.Source)))
	assert.Equal(t, 3, fence.Lines().Len())
}

func TestParseAutolinkLineStaysMarkdown(t *testing.T) {
	doc := parse(t, "<https://example.com>\n")
	require.Len(t, doc.Children, 1)
	md := doc.Children[0].(*Markdown)
	para := md.Doc.FirstChild()
	require.NotNil(t, para)
	assert.Equal(t, ast.KindAutoLink, para.FirstChild().Kind())
}

func TestParseCloseTagInCodeSpan(t *testing.T) {
	doc := parse(t, "<Note>\nUse `</Note>` to close.\n</Note>\n")
	require.Len(t, doc.Children, 1)
	assert.Equal(t, "Use `</Note>` to close.", doc.Children[0].(*Element).Text())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{name: "unclosed element", src: "text\n\n<Card>\nbody\n", line: 3},
		{name: "unexpected closing tag", src: "</Card>\n", line: 1},
		{name: "unterminated expression", src: "intro\n\n{ a: 1\n", line: 3},
		{name: "unterminated tag", src: "<Card title=\"x\"\n", line: 1},
		{name: "mismatched nesting", src: "<A>\n<B>\n</A>\n", line: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.ErrorIs(t, err, ErrSyntax)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	doc := parse(t, "<A>\n<B>\nx\n</B>\n</A>\n")
	var names []string
	Walk(doc.Children, func(n Node) bool {
		if el, ok := n.(*Element); ok {
			names = append(names, el.Name)
			return el.Name != "B"
		}
		return true
	})
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestLiteralString(t *testing.T) {
	tests := map[string]struct {
		want string
		ok   bool
	}{
		`"a\"b"`:   {`a"b`, true},
		`'it"s'`:   {`it"s`, true},
		"`plain`":  {"plain", true},
		"`${x}`":   {"", false},
		`props.id`: {"", false},
	}
	for in, tt := range tests {
		got, ok := literalString(in)
		assert.Equal(t, tt.ok, ok, in)
		assert.Equal(t, tt.want, got, in)
	}
}

func TestInlineElementSegments(t *testing.T) {
	doc := parse(t, "See <Badge>new</Badge> here.\n")
	md, ok := doc.Children[0].(*Markdown)
	require.True(t, ok)

	var tags []string
	require.NoError(t, ast.Walk(md.Doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if e, ok := n.(*InlineElement); ok && entering {
			tags = append(tags, string(e.Segment.Value(md.Source)))
		}
		return ast.WalkContinue, nil
	}))
	assert.Equal(t, []string{"<Badge>", "</Badge>"}, tags)
}
