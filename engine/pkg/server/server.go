// Package server exposes the rewards HTTP API with health, version and
// metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/metabonding/api/handlers"
	"github.com/malbeclabs/metabonding/engine/pkg/metrics"
)

type Server struct {
	log        *slog.Logger
	cfg        Config
	limiter    *handlers.RateLimiter
	httpSrv    *http.Server
	metricsSrv *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:     cfg.Logger,
		cfg:     cfg,
		limiter: handlers.NewRateLimiter(cfg.RateLimit),
	}

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		}
	}

	return s, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.cfg.Sentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.countRequests)

	r.Get("/healthz", s.healthzHandler)
	r.Get("/readyz", s.readyzHandler)
	r.Get("/version", s.versionHandler)

	api := handlers.New(s.log, s.cfg.Engine)
	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.RateLimitMiddleware(s.limiter))
		api.Routes(r)
	})
	return r
}

// Run serves the API and metrics listeners until ctx is done or one fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.limiter.Run(ctx)
		return nil
	})
	g.Go(func() error { return s.serve(ctx, "api", s.httpSrv) })
	if s.metricsSrv != nil {
		g.Go(func() error { return s.serve(ctx, "metrics", s.metricsSrv) })
	}

	return g.Wait()
}

func (s *Server) serve(ctx context.Context, name string, srv *http.Server) error {
	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("failed to listen and serve %s: %w", name, err)
		}
		close(serveErrCh)
	}()

	s.log.Info("server: http listening", "listener", name, "address", srv.Addr)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "listener", name, "reason", context.Cause(ctx))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown %s server: %w", name, err)
		}
		s.log.Info("server: http server shutdown complete", "listener", name)
		return nil
	case err, ok := <-serveErrCh:
		if !ok {
			return nil
		}
		s.log.Error("server: http server error causing shutdown", "listener", name, "error", err)
		return err
	}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write healthz response", "error", err)
	}
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.cfg.Engine.Ping(ctx); err != nil {
		s.log.Debug("readyz: store not ready", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("store not ready\n")); err != nil {
			s.log.Error("failed to write readyz response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write readyz response", "error", err)
	}
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.cfg.VersionInfo); err != nil {
		s.log.Error("failed to write version response", "error", err)
	}
}
