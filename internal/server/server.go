// Package server publishes a media directory over HTTP with asset ETag
// manifests for HTML pages.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/manifest"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
	smw "git.home.luguber.info/inful/mediaindex/internal/server/middleware"
)

//go:embed sw.js
var serviceWorker []byte

const (
	// ExtensionHeader marks requests from the service worker.
	ExtensionHeader = "X-CacheV2-Extension-Enabled"
	// ManifestHeader carries the merged asset ETag JSON.
	ManifestHeader = "X-Etag-Config"

	readHeaderTimeout = 10 * time.Second
	proxyTimeout      = 30 * time.Second
)

// Options configures a Server.
type Options struct {
	Store          *manifest.Store
	Recorder       metrics.Recorder
	MetricsHandler http.Handler // mounted at /metrics when non-nil
	ProxyClient    *http.Client // upstream client for ProxyPath
	Logger         *slog.Logger
}

// Server serves files under a media root.
type Server struct {
	root       string
	files      *fileHandler
	proxy      *proxyHandler
	metrics    http.Handler
	logger     *slog.Logger
	errAdapter *ferrors.HTTPErrorAdapter
	httpServer *http.Server
}

// New builds a server for root. A nil Store gets a fresh one.
func New(root string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = manifest.NewStore(manifest.WithStoreLogger(logger))
	}
	adapter := ferrors.NewHTTPErrorAdapter(logger)
	client := opts.ProxyClient
	if client == nil {
		client = &http.Client{Timeout: proxyTimeout}
	}
	return &Server{
		root: root,
		files: &fileHandler{
			fsys:       os.DirFS(root),
			store:      store,
			recorder:   metrics.OrNoop(opts.Recorder),
			logger:     logger,
			errAdapter: adapter,
		},
		proxy: &proxyHandler{
			client:     client,
			store:      store,
			logger:     logger,
			errAdapter: adapter,
		},
		metrics:    opts.MetricsHandler,
		logger:     logger,
		errAdapter: adapter,
	}
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+manifest.ServiceWorkerPath, serveServiceWorker)
	mux.Handle("GET "+ProxyPath, s.proxy)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.Handle("GET /", s.files)
	return smw.Chain(s.logger, s.errAdapter)(mux)
}

func serveServiceWorker(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(serviceWorker)
}

// Start binds addr and serves in the background. It returns the bound
// address so callers can use ":0".
func (s *Server) Start(ctx context.Context, addr string) (net.Addr, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to bind preview server").
			Fatal().
			WithContext("addr", addr).
			Build()
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server error", logfields.Error(err))
		}
	}()
	s.logger.Info("Preview server started", logfields.Addr(ln.Addr().String()), logfields.MediaDir(s.root))
	return ln.Addr(), nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	s.logger.Info("Preview server stopped")
	return nil
}
