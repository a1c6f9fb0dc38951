package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/daemon"
	"git.home.luguber.info/inful/docsite/internal/export"
	"git.home.luguber.info/inful/docsite/internal/icons"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/server/httpserver"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host    string `help:"Override server.host"`
	Port    int    `short:"p" help:"Override server.port"`
	NoWatch bool   `name:"no-watch" help:"Disable content watching"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	s.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg, slog.Default())
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.NoWatch {
		cfg.Watch.Enabled = false
	}
}

// RunServe serves cfg until ctx is canceled.
func RunServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	resolver, err := icons.Load(cfg.Icons.Catalog)
	if err != nil {
		return err
	}

	d := daemon.New(cfg, daemon.WithRecorder(recorder), daemon.WithLogger(logger))
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := d.Stop(); err != nil {
			logger.Warn("Failed to stop daemon", logfields.Error(err))
		}
	}()

	exp := export.New(d.Catalog(),
		export.WithConcurrency(cfg.Export.Concurrency),
		export.WithRecorder(recorder),
		export.WithLogger(logger))

	srv := httpserver.New(cfg, httpserver.Deps{
		Exporter:  exp,
		Snapshots: d.Catalog(),
		Status:    d,
		Icons:     resolver,
		Recorder:  recorder,
		Registry:  registry,
		Logger:    logger,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("Serving documentation",
		logfields.URL("http://"+srv.Addr()),
		logfields.Pages(d.Status().Pages))

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping server")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	return srv.Stop(stopCtx)
}
