// Package server is the HTTP transport for the delay model service.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/delaycast/pkg/log"
	"github.com/YuminosukeSato/delaycast/predictor"
)

// RequestIDHeader is propagated from the request or generated per request.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 8 << 20

// ModelService is the part of service.Service the transport needs.
type ModelService interface {
	Fit(ctx context.Context, months []int, delays []float64) (predictor.FitResult, error)
	Predict(ctx context.Context, q predictor.Query) (predictor.Result, error)
	Status() predictor.Status
}

// Options configures New.
type Options struct {
	Service ModelService
	Logger  log.Logger

	// RequestTimeout bounds each fit and predict call. Zero disables it.
	RequestTimeout time.Duration

	// ModelVersion is echoed in prediction responses.
	ModelVersion string

	// MetricsPath mounts the Prometheus handler for Gatherer. Empty disables it.
	MetricsPath string
	Gatherer    prometheus.Gatherer
}

type Server struct {
	svc     ModelService
	logger  log.Logger
	timeout time.Duration
	version string
}

// New returns the HTTP handler.
func New(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	version := opts.ModelVersion
	if version == "" {
		version = "v1.0"
	}

	s := &Server{
		svc:     opts.Service,
		logger:  logger.With(log.ComponentKey, "server"),
		timeout: opts.RequestTimeout,
		version: version,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fit", s.handleFit)
		r.Post("/predict", s.handlePredict)
		r.Get("/health", s.handleHealth)
	})

	if opts.MetricsPath != "" {
		g := opts.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		r.Method(http.MethodGet, opts.MetricsPath, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return r
}

type requestIDKey struct{}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, rid)))
	})
}

// RequestID returns the request ID stored by the middleware.
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.logger.Debug("http request",
			log.RequestIDKey, RequestID(r.Context()),
			log.MethodKey, r.Method,
			log.RouteKey, route,
			log.StatusKey, ww.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

// writeJSON encodes v before committing status, so a value that cannot be
// encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]any{
			"error": map[string]string{
				"code":    "internal_error",
				"message": "response could not be encoded",
			},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
