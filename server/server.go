// Package server exposes the schedule, realtime overlay, commute planner and
// error sink over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/TableMateio/home-finder/commute"
	"github.com/TableMateio/home-finder/gtfs"
	"github.com/TableMateio/home-finder/gtfsrt"
	"github.com/TableMateio/home-finder/reporting"
)

const shutdownTimeout = 10 * time.Second

// RealtimeSource serves the latest trip updates. *gtfsrt.Poller implements it.
type RealtimeSource interface {
	Latest() *gtfsrt.Updates
	LastPoll() time.Time
	Failures() int64
}

// Deps are the components the API serves. Only Schedule is required.
type Deps struct {
	Schedule *gtfs.Schedule
	Realtime RealtimeSource
	Planner  *commute.Planner
	Reporter *reporting.Reporter
	// Reload refreshes the schedule from its configured source.
	Reload func(ctx context.Context) error
	Logger *zap.Logger
}

// Options are HTTP level settings.
type Options struct {
	Port           int
	AllowedOrigins []string
}

// Server is the HTTP front end.
type Server struct {
	deps Deps
	opts Options
	log  *zap.Logger
	http *http.Server
}

// New builds a Server. Call Run to serve.
func New(opts Options, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{deps: deps, opts: opts, log: log}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/stations/nearest", s.handleNearest)
	r.Get("/api/stations/{stopID}/departures", s.handleDepartures)
	r.Get("/api/commute", s.handleCommute)
	r.Post("/api/admin/reload", s.handleReload)

	r.Get("/api/errors", s.handleListErrors)
	r.Post("/api/errors", s.handleReportError)
	r.Delete("/api/errors", s.handleClearErrors)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.http.Serve(ln)
	}()
	s.log.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", zap.Error(err))
		return err
	}
	s.log.Info("server shut down successfully")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
