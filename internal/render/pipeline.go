// Package render turns scanned pages into LLM-friendly Markdown text.
//
// A page goes through three stages: its MDX body is parsed, <include>
// elements are replaced by the files they reference, and the resulting tree
// is flattened into GitHub flavoured Markdown with all JSX removed.
package render

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/mdx"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// Pipeline renders pages of one content tree. It is safe for concurrent use;
// every call to Render uses its own parser.
type Pipeline struct {
	fsys   fs.FS
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-page debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline returns a pipeline that resolves includes against fsys.
func NewPipeline(fsys fs.FS, opts ...Option) *Pipeline {
	p := &Pipeline{fsys: fsys, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render parses, expands and flattens one page.
func (p *Pipeline) Render(ctx context.Context, page source.Page) (Unit, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Unit{}, err
	}

	parser := mdx.NewParser()
	doc, err := parser.Parse([]byte(page.Content))
	if err != nil {
		return Unit{}, pageError(page, "failed to parse MDX", err)
	}

	inc := &includer{ctx: ctx, fsys: p.fsys, parser: parser}
	nodes, err := inc.expand(doc.Children, page.Dir(), []string{page.File})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Unit{}, ctxErr
		}
		return Unit{}, pageError(page, "failed to expand includes", err)
	}

	unit := Unit{Title: page.Title, URL: page.URL, Body: Flatten(nodes)}
	p.logger.Debug("Rendered page",
		logfields.URL(page.URL),
		logfields.Bytes(len(unit.Body)),
		logfields.Duration(time.Since(start)))
	return unit, nil
}

func pageError(page source.Page, msg string, cause error) error {
	b := ferrors.RenderError(msg).
		WithCause(cause).
		WithContext("url", page.URL).
		WithContext("file", page.File)
	var ie *includeError
	if errors.As(cause, &ie) {
		b = b.WithContext("include", ie.path)
	}
	return b.Build()
}
