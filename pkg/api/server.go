// Package api serves the grid engine and page store over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /v1/layout/resize
//	POST   /v1/layout/{op}            normalize | resolve | reflow | migrate
//	GET    /v1/pages
//	GET    /v1/pages/{id}
//	PUT    /v1/pages/{id}
//	DELETE /v1/pages/{id}
//	POST   /v1/pages/{id}/mutations
//
// Layout endpoints are stateless: they take a block list and return the
// transformed list. Page endpoints load documents from a store.Store, apply
// mutations through a pipeline.Runner and persist the result with a
// store.AsyncWriter, so a mutation response never waits for the store.
//
// Errors are returned as {"code", "message"} with the status derived from
// the error code.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridpage/pkg/buildinfo"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/httputil"
	"github.com/matzehuels/gridpage/pkg/pipeline"
	"github.com/matzehuels/gridpage/pkg/store"
)

// Options configures a Server.
type Options struct {
	// Runner applies page mutations. Required.
	Runner *pipeline.Runner

	// Store holds pages. Required.
	Store store.Store

	// Writer persists mutated pages. The server owns it and stops it in
	// Close. If nil, the server starts its own writer on Store.
	Writer *store.AsyncWriter

	// Logger defaults to log.Default.
	Logger *log.Logger

	// RequestTimeout bounds each request. Zero means 30s.
	RequestTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	pages   *pipeline.Service
	logger  *log.Logger
	timeout time.Duration
}

// NewServer creates a server from opts.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		pages:   pipeline.NewService(opts.Runner, opts.Store, opts.Writer),
		logger:  opts.Logger,
		timeout: opts.RequestTimeout,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httputil.RequestLogger(s.logger))
	r.Use(middleware.Timeout(s.timeout))
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout/resize", s.handleResize)
		r.Post("/layout/{op}", s.handleLayout)

		r.Get("/pages", s.handleListPages)
		r.Route("/pages/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPage)
			r.Put("/", s.handlePutPage)
			r.Delete("/", s.handleDeletePage)
			r.Post("/mutations", s.handleMutation)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorBody{Code: errors.ErrCodeNotFound, Message: "no such route"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and flushes pending page writes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.pages.Flush(shutdownCtx)
}

// Close writes pending pages and stops the writer.
func (s *Server) Close() error {
	return s.pages.Close()
}

func (s *Server) engine() *grid.Engine {
	return s.pages.Runner.Engine
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}
