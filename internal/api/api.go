package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"SMARespect/internal/collector"
	"SMARespect/internal/config"
	"SMARespect/internal/metrics"
	"SMARespect/internal/store"
)

// Server provides the REST API over reports and the watchlist.
type Server struct {
	config    *config.Config
	collector *collector.Collector
	watchlist store.Watchlist
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	router    chi.Router
	server    *http.Server
	now       func() time.Time
}

// New creates a Server and builds its routes.
func New(cfg *config.Config, col *collector.Collector, wl store.Watchlist, m *metrics.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		config:    cfg,
		collector: col,
		watchlist: wl,
		metrics:   m,
		logger:    logger.With().Str("component", "api").Logger(),
		now:       time.Now,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.API.Timeout > 0 {
		r.Use(middleware.Timeout(s.config.API.Timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/watchlist", s.handleListWatchlist)
		r.Post("/watchlist/{symbol}", s.handleAddSymbol)
		r.Delete("/watchlist/{symbol}", s.handleRemoveSymbol)
	})
	s.router = r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving in the background.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:              s.config.API.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 5*time.Second,
	}
	s.logger.Info().Str("addr", s.config.API.Addr).Msg("starting API server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("stopping API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(began)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
