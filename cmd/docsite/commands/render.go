package commands

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	URL string `arg:"" help:"Page URL, e.g. /docs/getting-started"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(ctx, root)
	if err != nil {
		return err
	}

	page, ok := s.daemon.Catalog().Current().Resolve(r.URL)
	if !ok {
		return ferrors.NotFoundError("page not found").WithContext("url", r.URL).Build()
	}
	unit, _, err := s.exporter.Page(ctx, page.Slugs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Out, unit.String())
	return err
}
