// Package commands implements the docsite subcommands.
package commands

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/daemon"
	"git.home.luguber.info/inful/docsite/internal/export"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// Global carries state shared by all subcommands.
type Global struct {
	// Out receives command output. Logs go to stderr.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve  ServeCmd  `cmd:"" help:"Serve the llms.txt export and the layout API"`
	Export ExportCmd `cmd:"" help:"Prerender export routes to the output directory"`
	Render RenderCmd `cmd:"" help:"Print the rendered unit of a single page"`
	Pages  PagesCmd  `cmd:"" help:"List the pages of the content tree"`
	Icons  IconsCmd  `cmd:"" help:"List the icon catalog"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply installs a bootstrap logger until the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(config.LoggingConfig{}.NewLogger(os.Stderr, c.Verbose))
	return nil
}

// LoadConfig reads the configuration file and installs the configured
// logger. A missing file at the default path falls back to defaults.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		if c.Config != config.DefaultPath || !isMissing(c.Config) {
			return nil, err
		}
		slog.Debug("No configuration file, using defaults", logfields.Path(c.Config))
		cfg = config.Default()
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	return cfg, nil
}

func isMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// session is a prepared content snapshot with an exporter over it, for the
// one-shot commands.
type session struct {
	cfg      *config.Config
	daemon   *daemon.Daemon
	exporter *export.Exporter
}

func openSession(ctx context.Context, root *CLI) (*session, error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return nil, err
	}
	d := daemon.New(cfg)
	if err := d.Prepare(ctx); err != nil {
		return nil, err
	}
	exp := export.New(d.Catalog(),
		export.WithConcurrency(cfg.Export.Concurrency),
		export.WithRecorder(metrics.NoopRecorder{}),
		export.WithLogger(slog.Default()))
	return &session{cfg: cfg, daemon: d, exporter: exp}, nil
}
