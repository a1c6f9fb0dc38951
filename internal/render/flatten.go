package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"git.home.luguber.info/inful/docsite/internal/mdx"
)

// Flatten renders an expanded MDX tree as GitHub flavoured Markdown. ESM,
// expressions and raw HTML are dropped and elements are replaced by their
// children. Blocks are separated by one blank line and the result has no
// trailing newline.
func Flatten(nodes []mdx.Node) string {
	var f flattener
	f.nodes(nodes)
	return strings.Join(f.blocks, "\n\n")
}

type flattener struct {
	blocks []string
}

func (f *flattener) add(block string) {
	block = strings.Trim(block, "\n")
	if strings.TrimSpace(block) != "" {
		f.blocks = append(f.blocks, block)
	}
}

func (f *flattener) nodes(nodes []mdx.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *mdx.Markdown:
			for c := n.Doc.FirstChild(); c != nil; c = c.NextSibling() {
				f.add(block(c, n.Source))
			}
		case *mdx.Element:
			if n.SelfClosing {
				f.add(cardLine(n))
				continue
			}
			f.nodes(n.Children)
		}
	}
}

// cardLine renders a self-closing element with a title, such as
// <Card title="Install" href="/docs/install" />, as a single line.
func cardLine(el *mdx.Element) string {
	title, ok := el.StringAttr("title")
	if !ok || title == "" {
		return ""
	}
	line := title
	if href, ok := el.StringAttr("href"); ok && href != "" {
		line = markdown.Link(title, href)
	}
	if desc, ok := el.StringAttr("description"); ok && desc != "" {
		line += ": " + desc
	}
	return line
}

func block(n ast.Node, src []byte) string {
	md := markdown.NewMarkdown(io.Discard)
	switch n := n.(type) {
	case *ast.Heading:
		heading(md, n.Level, trimLines(inline(n, src)))
	case *ast.Paragraph, *ast.TextBlock:
		md.PlainText(trimLines(inline(n, src)))
	case *ast.ThematicBreak:
		md.HorizontalRule()
	case *ast.FencedCodeBlock:
		info := ""
		if n.Info != nil {
			info = strings.TrimSpace(string(n.Info.Segment.Value(src)))
		}
		codeBlock(md, info, lines(n, src))
	case *ast.CodeBlock:
		codeBlock(md, "", lines(n, src))
	case *ast.Blockquote:
		quote(md, children(n, src, "\n\n"))
	case *ast.List:
		list(md, n, src)
	case *east.Table:
		table(md, n, src)
	case *ast.HTMLBlock:
		return ""
	default:
		md.PlainText(children(n, src, "\n\n"))
	}
	return md.String()
}

// children renders the block children of n joined by sep.
func children(n ast.Node, src []byte, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := strings.Trim(block(c, src), "\n"); strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func heading(md *markdown.Markdown, level int, text string) {
	text = strings.ReplaceAll(text, "\n", " ")
	switch level {
	case 1:
		md.H1(text)
	case 2:
		md.H2(text)
	case 3:
		md.H3(text)
	case 4:
		md.H4(text)
	case 5:
		md.H5(text)
	default:
		md.H6(text)
	}
}

func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func codeBlock(md *markdown.Markdown, info, code string) {
	if strings.Contains(code, "```") {
		fence := codeFence(code)
		md.PlainText(fence + info + "\n" + code + "\n" + fence)
		return
	}
	md.CodeBlocks(markdown.SyntaxHighlight(info), code)
}

func quote(md *markdown.Markdown, text string) {
	if text == "" {
		return
	}
	var b strings.Builder
	tmp := markdown.NewMarkdown(io.Discard).Blockquote(text).String()
	for i, l := range strings.Split(tmp, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(l, " "))
	}
	md.PlainText(b.String())
}

func list(md *markdown.Markdown, l *ast.List, src []byte) {
	type item struct {
		text    string
		task    bool
		checked bool
	}
	var items []item
	allTasks := true
	sep := "\n"
	if !l.IsTight {
		sep = "\n\n"
	}
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		it := item{text: children(c, src, sep)}
		if box := taskBox(c); box != nil {
			it.task, it.checked = true, box.IsChecked
		} else {
			allTasks = false
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return
	}

	marker := func(i int) string {
		if l.IsOrdered() {
			return fmt.Sprintf("%d. ", l.Start+i)
		}
		return "- "
	}
	texts := make([]string, len(items))
	for i, it := range items {
		text := indent(it.text, len(marker(i)))
		if it.task && !(allTasks && !l.IsOrdered()) {
			box := "[ ] "
			if it.checked {
				box = "[x] "
			}
			text = box + text
		}
		texts[i] = text
	}

	switch {
	case !l.IsTight:
		out := make([]string, len(texts))
		for i, t := range texts {
			if allTasks && !l.IsOrdered() {
				t = taskPrefix(items[i].checked) + t
			}
			out[i] = marker(i) + t
		}
		md.PlainText(strings.Join(out, "\n\n"))
	case allTasks && !l.IsOrdered():
		set := make([]markdown.CheckBoxSet, len(items))
		for i, it := range items {
			set[i] = markdown.CheckBoxSet{Checked: it.checked, Text: texts[i]}
		}
		md.CheckBox(set)
	case !l.IsOrdered():
		md.BulletList(texts...)
	case l.Start == 1:
		md.OrderedList(texts...)
	default:
		for i, t := range texts {
			md.PlainText(marker(i) + t)
		}
	}
}

func taskPrefix(checked bool) string {
	if checked {
		return "[x] "
	}
	return "[ ] "
}

func taskBox(item ast.Node) *east.TaskCheckBox {
	first := item.FirstChild()
	if first == nil || first.FirstChild() == nil {
		return nil
	}
	box, _ := first.FirstChild().(*east.TaskCheckBox)
	return box
}

// indent indents every line after the first so it continues the list item.
func indent(text string, width int) string {
	pad := strings.Repeat(" ", width)
	ls := strings.Split(text, "\n")
	for i := 1; i < len(ls); i++ {
		if ls[i] != "" {
			ls[i] = pad + ls[i]
		}
	}
	return strings.Join(ls, "\n")
}

var alignments = map[east.Alignment]markdown.TableAlignment{
	east.AlignLeft:   markdown.AlignLeft,
	east.AlignRight:  markdown.AlignRight,
	east.AlignCenter: markdown.AlignCenter,
}

func table(md *markdown.Markdown, t *east.Table, src []byte) {
	set := markdown.TableSet{}
	for _, a := range t.Alignments {
		set.Alignment = append(set.Alignment, alignments[a])
	}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, escapePipes(trimLines(inline(cell, src))))
		}
		if _, ok := row.(*east.TableHeader); ok {
			set.Header = cells
			continue
		}
		set.Rows = append(set.Rows, cells)
	}
	for i, r := range set.Rows {
		switch {
		case len(r) < len(set.Header):
			set.Rows[i] = append(r, make([]string, len(set.Header)-len(r))...)
		case len(r) > len(set.Header):
			set.Rows[i] = r[:len(set.Header)]
		}
	}
	md.Table(set)
}

// escapePipes escapes pipes that are not already escaped.
func escapePipes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// inline renders the inline children of n. Where a dropped node sat between
// two spaces only one is kept.
func inline(n ast.Node, src []byte) string {
	var b strings.Builder
	skipSpace := false
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if dropped(c) {
			s := b.String()
			skipSpace = skipSpace || s == "" || strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
			continue
		}
		var part strings.Builder
		writeInline(&part, c, src)
		text := part.String()
		if skipSpace {
			text = strings.TrimLeft(text, " ")
			skipSpace = text == ""
		}
		b.WriteString(text)
	}
	return b.String()
}

func dropped(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.RawHTML, *east.TaskCheckBox, *mdx.InlineExpression:
		return true
	case *mdx.InlineElement:
		return !lineBreak(n)
	}
	return false
}

func lineBreak(el *mdx.InlineElement) bool {
	return strings.EqualFold(el.Name, "br") && !el.Closing
}

func writeInline(b *strings.Builder, n ast.Node, src []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(src))
		switch {
		case n.HardLineBreak():
			b.WriteString("\\\n")
		case n.SoftLineBreak():
			b.WriteByte('\n')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.CodeSpan:
		b.WriteString(codeSpan(plainText(n, src)))
	case *ast.Emphasis:
		if n.Level >= 2 {
			b.WriteString(markdown.Bold(inline(n, src)))
		} else {
			b.WriteString(markdown.Italic(inline(n, src)))
		}
	case *east.Strikethrough:
		b.WriteString(markdown.Strikethrough(inline(n, src)))
	case *ast.Link:
		text := inline(n, src)
		if len(n.Title) > 0 {
			fmt.Fprintf(b, "[%s](%s %q)", text, n.Destination, n.Title)
			return
		}
		b.WriteString(markdown.Link(text, string(n.Destination)))
	case *ast.Image:
		b.WriteString(markdown.Image(plainText(n, src), string(n.Destination)))
	case *ast.AutoLink:
		b.Write(n.Label(src))
	case *mdx.InlineElement:
		if lineBreak(n) && n.NextSibling() != nil {
			b.WriteString("\\\n")
		}
	case *ast.RawHTML, *east.TaskCheckBox, *mdx.InlineExpression:
	default:
		b.WriteString(inline(n, src))
	}
}

// plainText collects the text of n without markup; line breaks become spaces.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func codeSpan(code string) string {
	if !strings.Contains(code, "`") {
		return markdown.Code(code)
	}
	fence := "``"
	if strings.Contains(code, "``") {
		fence = "```"
	}
	return fence + " " + code + " " + fence
}

// trimLines strips leading and trailing blanks from each line, which dropped
// inline JSX and expressions leave behind.
func trimLines(s string) string {
	ls := strings.Split(s, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(ls, "\n"))
}
