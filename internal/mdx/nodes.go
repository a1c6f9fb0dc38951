package mdx

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Node is a block-level node of an MDX document.
type Node interface {
	mdxNode()
}

// Document is a parsed MDX source.
type Document struct {
	Children []Node
}

// Markdown is a run of ordinary Markdown between MDX constructs, parsed with
// goldmark. Source is the dedented text the AST segments point into.
type Markdown struct {
	Source []byte
	Doc    ast.Node
}

// Element is a JSX element. Fragments (<>…</>) have an empty Name.
type Element struct {
	Name        string
	Attrs       []Attr
	Children    []Node
	SelfClosing bool
	// Inner is the raw source between the opening and closing tags.
	Inner string
	Line  int
}

// ESM is a top-level import or export block.
type ESM struct {
	Source string
}

// Expression is a block-level {…} expression, including {/* comments */}.
type Expression struct {
	Source string
}

func (*Markdown) mdxNode()   {}
func (*Element) mdxNode()    {}
func (*ESM) mdxNode()        {}
func (*Expression) mdxNode() {}

// AttrKind tells how an attribute value was written.
type AttrKind int

const (
	AttrString     AttrKind = iota // name="value"
	AttrExpression                 // name={value}
	AttrBoolean                    // name
	AttrSpread                     // {...props}
)

// Attr is one JSX attribute.
type Attr struct {
	Name  string
	Value string
	Kind  AttrKind
}

// Attr returns the attribute called name.
func (e *Element) Attr(name string) (Attr, bool) {
	for _, a := range e.Attrs {
		if a.Kind != AttrSpread && a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// StringAttr returns the string value of an attribute. Expression values are
// accepted when they are a plain string literal, as in title={"Intro"}.
func (e *Element) StringAttr(name string) (string, bool) {
	a, ok := e.Attr(name)
	if !ok {
		return "", false
	}
	switch a.Kind {
	case AttrString:
		return a.Value, true
	case AttrExpression:
		return literalString(a.Value)
	}
	return "", false
}

// HasAttr reports whether the attribute is present in any form.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Text returns the trimmed raw source between the tags.
func (e *Element) Text() string {
	return strings.TrimSpace(e.Inner)
}

func literalString(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 {
		return "", false
	}
	switch q := expr[0]; q {
	case '"', '\'':
		if expr[len(expr)-1] != q {
			return "", false
		}
		if q == '\'' {
			expr = `"` + strings.ReplaceAll(expr[1:len(expr)-1], `"`, `\"`) + `"`
		}
		s, err := strconv.Unquote(expr)
		return s, err == nil
	case '`':
		inner := expr[1 : len(expr)-1]
		if expr[len(expr)-1] != '`' || strings.Contains(inner, "${") {
			return "", false
		}
		return inner, true
	}
	return "", false
}

// Walk visits nodes depth-first. Returning false skips an element's children.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		if el, ok := n.(*Element); ok {
			Walk(el.Children, fn)
		}
	}
}
