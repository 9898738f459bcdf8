package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/manifest"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
	"git.home.luguber.info/inful/mediaindex/internal/pipeline"
	"git.home.luguber.info/inful/mediaindex/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd builds the index once and then serves the media root.
type ServeCmd struct {
	MediaFlags `embed:""`
	PageFlags  `embed:""`

	Addr    string `name:"addr" help:"Listen address (default :8080)."`
	Watch   bool   `name:"watch" help:"Rebuild index.html when files under the media root change."`
	Metrics bool   `name:"metrics" help:"Expose Prometheus metrics at /metrics."`

	// ready, when set, receives the bound address once serving starts.
	ready func(addr string) `kong:"-"`
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if s.Watch {
		cfg.Serve.Watch = true
	}
	if s.Metrics {
		cfg.Serve.Metrics = true
	}
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g, s.MediaFlags.apply, s.PageFlags.apply, s.apply)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return s.serve(ctx, g, cfg)
}

func (s *ServeCmd) serve(ctx context.Context, g *Global, cfg *config.Config) error {
	logger := g.logger()

	var (
		recorder       metrics.Recorder = metrics.NoopRecorder{}
		metricsHandler http.Handler
	)
	if cfg.Serve.Metrics {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	build := &BuildCmd{}
	report, err := build.run(ctx, g, cfg, pipeline.WithRecorder(recorder))
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(pipeline.WithLogger(logger), pipeline.WithRecorder(recorder))

	store := manifest.NewStore(manifest.WithStoreLogger(logger))
	refresher, err := manifest.NewRefresher(store, cfg.Serve.ETagRefresh, logger)
	if err != nil {
		return err
	}
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := refresher.Stop(); err != nil {
			logger.Warn("Failed to stop ETag refresh", logfields.Error(err))
		}
	}()

	srv := server.New(report.MediaDir, server.Options{
		Store:          store,
		Recorder:       recorder,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	})
	addr, err := srv.Start(ctx, cfg.Serve.Addr)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Serving %s on http://%s\n", report.MediaDir, addr)
	if s.ready != nil {
		s.ready(addr.String())
	}

	watchErr := make(chan error, 1)
	if cfg.Serve.Watch {
		w := server.NewWatcher(report.MediaDir, func(ctx context.Context) error {
			_, err := runner.Reindex(ctx, cfg)
			return err
		}, logger)
		go func() { watchErr <- w.Run(ctx) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if err != nil {
			runErr = fmt.Errorf("watch media directory: %w", err)
		} else {
			<-ctx.Done()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}
