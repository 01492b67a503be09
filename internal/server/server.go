package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carcat/internal/cache"
	"carcat/internal/catalog"
	"carcat/internal/config"
	"carcat/internal/importer"
	"carcat/internal/observability"
)

const (
	requestIDHeader = "X-Request-ID"
	maxImportBody   = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Server exposes the catalog read API with response caching plus
// admin routes for the cache and JSON imports
type Server struct {
	catalog     catalog.Catalog
	cache       cache.Service
	importer    *importer.Importer
	logger      *slog.Logger
	adminToken  string
	responseTTL time.Duration
	registry    *prometheus.Registry
	metrics     *Metrics
	mux         *http.ServeMux
	handler     http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and lifecycle logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAdminToken requires "Authorization: Bearer token" on admin routes
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithResponseTTL sets how long read API responses are cached
func WithResponseTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.responseTTL = ttl
	}
}

// WithImporter replaces the importer used by POST /api/import
func WithImporter(im *importer.Importer) Option {
	return func(s *Server) {
		s.importer = im
	}
}

// New creates a server over store, caching responses in svc
func New(store catalog.Catalog, svc cache.Service, opts ...Option) *Server {
	s := &Server{
		catalog:     store,
		cache:       svc,
		logger:      observability.Discard(),
		responseTTL: config.ResponseTTL,
		registry:    prometheus.NewRegistry(),
		mux:         http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.importer == nil {
		s.importer = importer.New(store, importer.WithLogger(s.logger))
	}
	s.metrics = NewMetrics(s.registry, "carcat", svc)

	s.setupRoutes()
	s.handler = s.withRequestID(s.instrument(s.mux))

	return s
}

func (s *Server) setupRoutes() {
	ttl := s.responseTTL
	cached := cache.Middleware(s.cache, &ttl)

	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Read API
	s.mux.Handle("GET /api/cars", cached(http.HandlerFunc(s.handleListCars)))
	s.mux.HandleFunc("GET /api/cars/{id}", s.handleGetCar(&ttl))

	// Admin
	s.mux.Handle("GET /api/cache/stats", s.adminOnly(http.HandlerFunc(s.handleCacheStats)))
	s.mux.Handle("DELETE /api/cache", s.adminOnly(http.HandlerFunc(s.handleCacheClear)))
	s.mux.Handle("POST /api/cache/cleanup", s.adminOnly(http.HandlerFunc(s.handleCacheCleanup)))
	s.mux.Handle("POST /api/import", s.adminOnly(http.HandlerFunc(s.handleImport)))

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("/", s.handleNotFound)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// adminOnly enforces the admin bearer token when one is configured
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
				sendError(w, http.StatusUnauthorized, "admin token required")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// RequestID returns the request ID assigned by the server, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// instrument logs each request and records its metrics. The route label is
// the matched mux pattern so path parameters do not explode cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.ActiveRequests.Inc()
		defer s.metrics.ActiveRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		route := r.Pattern
		if route == "" || route == "/" {
			route = "unmatched"
		}
		dur := time.Since(start)

		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(dur.Seconds())

		s.logger.Debug("request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.size,
			"cache", rec.Header().Get("X-Cache"),
			"duration", dur)
	})
}
