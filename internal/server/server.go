// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/PentesterFlow/workshopgraph/internal/logger"
	"github.com/PentesterFlow/workshopgraph/internal/metrics"
	"github.com/PentesterFlow/workshopgraph/internal/ratelimit"
)

// Config holds HTTP server configuration.
type Config struct {
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Per-client /analyze throttle (0 disables)
	AnalyzeRPS   float64 `json:"analyze_rps" yaml:"analyze_rps"`
	AnalyzeBurst int     `json:"analyze_burst" yaml:"analyze_burst"`
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    3 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		AnalyzeRPS:      2,
		AnalyzeBurst:    5,
	}
}

// Analyzer produces a report for a workshop URL.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (string, error)
}

// Server is the HTTP front door.
type Server struct {
	config   Config
	analyzer Analyzer
	metrics  *metrics.Collector
	limiter  *ratelimit.Limiter
	log      *logger.Logger
	router   chi.Router
	http     *http.Server
}

// New creates a server reporting the counters in m. A nil m gets an empty
// collector.
func New(config Config, analyzer Analyzer, m *metrics.Collector, log *logger.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		config:   config,
		analyzer: analyzer,
		metrics:  m,
		log:      log.WithComponent("server"),
	}
	if config.AnalyzeRPS > 0 {
		s.limiter = ratelimit.NewLimiter(config.AnalyzeRPS, config.AnalyzeBurst)
	}
	s.router = s.routes()
	s.http = &http.Server{
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Get("/metrics", s.handleMetrics)
	r.Method(http.MethodGet, "/metrics/prometheus", metrics.NewExporter("workshopgraph", s.metrics).Handler())
	r.With(s.throttle).Post("/analyze", s.handleAnalyze)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	target := strings.TrimSpace(r.FormValue("url"))
	if target == "" {
		writeText(w, http.StatusBadRequest, "Missing url parameter.")
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), target)
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeText(w, http.StatusOK, report)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.metrics.Snapshot()); err != nil {
		s.log.WithError(err).Error("Failed to encode metrics")
	}
}

// throttle rejects clients exceeding the analyze rate with 429.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientKey(r)) {
			writeText(w, http.StatusTooManyRequests, "Too many requests.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.RequestEvent(r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.log.WithField("addr", ln.Addr().String()).Info("Starting HTTP server")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
