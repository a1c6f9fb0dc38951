package mdx

import (
	"bytes"
	"errors"
	"fmt"
)

type tag struct {
	name        string
	attrs       []Attr
	closing     bool
	selfClosing bool
	comment     bool
}

var errUnterminatedTag = errors.New("unterminated tag")

// voidElements are HTML elements accepted without a self-closing slash.
var voidElements = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// isTagStart reports whether b starts a JSX tag, closing tag, fragment or
// HTML comment.
func isTagStart(b []byte) bool {
	if len(b) < 2 || b[0] != '<' {
		return false
	}
	c := b[1]
	return isLetter(c) || c == '/' || c == '>' || bytes.HasPrefix(b[1:], []byte("!--"))
}

// parseTag parses the tag starting at src[i] == '<' and returns it with the
// offset just past its closing '>'. Tags may span lines.
func parseTag(src []byte, i int) (tag, int, error) {
	var t tag
	i++
	if bytes.HasPrefix(src[i:], []byte("!--")) {
		end := bytes.Index(src[i+3:], []byte("-->"))
		if end < 0 {
			return t, 0, errors.New("unterminated comment")
		}
		t.comment = true
		return t, i + 3 + end + 3, nil
	}
	if i < len(src) && src[i] == '/' {
		t.closing = true
		i++
	}
	i = skipSpace(src, i)
	start := i
	for i < len(src) && isNameChar(src[i]) {
		i++
	}
	t.name = string(src[start:i])

	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return t, 0, errUnterminatedTag
		}
		c := src[i]
		switch {
		case c == '>':
			if voidElements[t.name] && !t.closing {
				t.selfClosing = true
			}
			return t, i + 1, nil
		case c == '/' && i+1 < len(src) && src[i+1] == '>' && !t.closing:
			t.selfClosing = true
			return t, i + 2, nil
		case t.closing:
			return t, 0, fmt.Errorf("unexpected %q in closing tag </%s>", c, t.name)
		case c == '{':
			end := matchBrace(src, i)
			if end < 0 {
				return t, 0, errors.New("unterminated attribute expression")
			}
			t.attrs = append(t.attrs, Attr{Kind: AttrSpread, Value: string(bytes.TrimSpace(src[i+1 : end]))})
			i = end + 1
		case isLetter(c) || c == '_' || c == ':' || c == '$':
			attr, next, err := parseAttr(src, i)
			if err != nil {
				return t, 0, err
			}
			t.attrs = append(t.attrs, attr)
			i = next
		default:
			return t, 0, fmt.Errorf("unexpected %q in <%s>", c, t.name)
		}
	}
}

func parseAttr(src []byte, i int) (Attr, int, error) {
	start := i
	for i < len(src) && isNameChar(src[i]) {
		i++
	}
	a := Attr{Name: string(src[start:i]), Kind: AttrBoolean}
	j := skipSpace(src, i)
	if j >= len(src) || src[j] != '=' {
		return a, i, nil
	}
	j = skipSpace(src, j+1)
	if j >= len(src) {
		return a, 0, errUnterminatedTag
	}
	switch q := src[j]; q {
	case '"', '\'':
		end := bytes.IndexByte(src[j+1:], q)
		if end < 0 {
			return a, 0, fmt.Errorf("unterminated value for attribute %s", a.Name)
		}
		a.Kind = AttrString
		a.Value = string(src[j+1 : j+1+end])
		return a, j + 1 + end + 1, nil
	case '{':
		end := matchBrace(src, j)
		if end < 0 {
			return a, 0, fmt.Errorf("unterminated expression for attribute %s", a.Name)
		}
		a.Kind = AttrExpression
		a.Value = string(bytes.TrimSpace(src[j+1 : end]))
		return a, end + 1, nil
	default:
		return a, 0, fmt.Errorf("invalid value for attribute %s", a.Name)
	}
}

// matchBrace returns the offset of the '}' matching the '{' at src[i], or -1.
// String literals, template literals and comments are skipped.
func matchBrace(src []byte, i int) int {
	depth := 0
	for ; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		case '"', '\'', '`':
			i = skipQuoted(src, i, c)
			if i < 0 {
				return -1
			}
		case '/':
			if i+1 >= len(src) {
				continue
			}
			switch src[i+1] {
			case '*':
				end := bytes.Index(src[i+2:], []byte("*/"))
				if end < 0 {
					return -1
				}
				i += 2 + end + 1
			case '/':
				end := bytes.IndexByte(src[i:], '\n')
				if end < 0 {
					return -1
				}
				i += end
			}
		}
	}
	return -1
}

// skipQuoted returns the offset of the quote closing the literal at src[i].
func skipQuoted(src []byte, i int, q byte) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return -1
			}
		}
	}
	return -1
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' || c == ':' || c == '$'
}
