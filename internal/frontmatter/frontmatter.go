// Package frontmatter splits YAML frontmatter from Markdown/MDX page bodies.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// ErrInvalidYAML wraps YAML decoding failures of the frontmatter block.
var ErrInvalidYAML = errors.New("invalid yaml frontmatter")

var bom = []byte{0xEF, 0xBB, 0xBF}

// Style captures the newline shape of a document so SerializeYAML can reproduce it.
type Style struct {
	Newline string
}

// Meta holds the frontmatter fields docsite understands. Everything else is
// kept in Fields.
type Meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input (minus a UTF-8 byte order mark).
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	content = bytes.TrimPrefix(content, bom)
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, style, nil
	}
	// Closing delimiter on the last line without a trailing newline.
	if tail := []byte(nl + "---"); bytes.HasSuffix(rest, tail) {
		return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true, style, nil
	}
	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// DecodeMeta parses raw frontmatter into the known fields and the full map.
func DecodeMeta(frontmatter []byte) (Meta, map[string]any, error) {
	fields, err := ParseYAML(frontmatter)
	if err != nil {
		return Meta{}, nil, err
	}
	var meta Meta
	if len(fields) > 0 {
		if err := yaml.Unmarshal(frontmatter, &meta); err != nil {
			return Meta{}, nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
		}
	}
	return meta, fields, nil
}

func detectStyle(content []byte) Style {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return Style{Newline: "\r\n"}
	}
	return Style{Newline: "\n"}
}
