package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/export"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output string   `short:"o" help:"Override build.output_dir"`
	Route  []string `short:"r" name:"route" help:"Route to prerender; repeatable. Overrides build.prerender"`
	Crawl  bool     `help:"Follow same-site links found in rendered output, in addition to build.crawl_links"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(ctx, root)
	if err != nil {
		return err
	}

	opts := export.PrerenderOptions{
		Routes:     s.cfg.Build.Prerender,
		OutputDir:  s.cfg.Build.OutputDir,
		CrawlLinks: s.cfg.Build.CrawlLinks,
	}
	if e.Output != "" {
		opts.OutputDir = e.Output
	}
	if len(e.Route) > 0 {
		opts.Routes = e.Route
	}
	if e.Crawl {
		opts.CrawlLinks = true
	}

	files, err := s.exporter.Prerender(ctx, opts)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(g.Out, filepath.Join(opts.OutputDir, f))
	}
	slog.Info("Export complete", logfields.Path(opts.OutputDir), slog.Int("files", len(files)))
	return nil
}
