// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//	POST   /v1/analyses                   analyze a report body and store the result
//	GET    /v1/analyses                   list stored analyses, newest first
//	GET    /v1/analyses/{id}              fetch one analysis
//	DELETE /v1/analyses/{id}              delete one analysis
//	GET    /v1/analyses/{id}/treemap      lay out ?width&height&zoom
//	GET    /v1/analyses/{id}/chain        import chain for ?target, or one per package
//	GET    /v1/analyses/{id}/graph.dot    import graph as DOT, ?target restricts to a chain
//	GET    /healthz                       liveness and version
//	GET    /metrics                       Prometheus metrics, when a gatherer is set
//
// Errors are JSON objects {"code", "message"} with the status derived from
// the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/storage"
)

// DefaultMaxBodyBytes caps uploaded reports.
const DefaultMaxBodyBytes = 32 << 20

// Config wires the server's dependencies. Runner and Store are required.
type Config struct {
	Runner *pipeline.Runner
	Store  storage.Store
	Logger *log.Logger

	// Defaults seeds the options of every request; query parameters
	// override width, height, zoom and entry.
	Defaults pipeline.Options

	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer

	MaxBodyBytes int64
}

// Server is an http.Handler serving the API.
type Server struct {
	runner   *pipeline.Runner
	store    storage.Store
	logger   *log.Logger
	defaults pipeline.Options
	maxBody  int64
	router   chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		logger:   cfg.Logger,
		defaults: cfg.Defaults,
		maxBody:  cfg.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})

	r.Get("/healthz", s.handleHealth)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.loadAnalysis)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/treemap", s.handleTreemap)
			r.Get("/chain", s.handleChain)
			r.Get("/graph.dot", s.handleGraph)
		})
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
