package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trainerworkload/internal/core"
	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
)

// WorkloadQuerier is the read side of the workload service.
type WorkloadQuerier interface {
	GetTrainer(ctx context.Context, username string) (core.TrainerRecord, bool)
	GetTrainerView(ctx context.Context, username string) (core.TrainerView, error)
}

// EventIngester accepts raw training payloads.
type EventIngester interface {
	Handle(ctx context.Context, raw ingest.RawEvent) error
}

type Server struct {
	http.Server
	workload WorkloadQuerier
	ingester EventIngester
	logger   *applog.Logger
}

// NewServer configures routes, returning a ready-to-run http.Server.
// auth may be nil to leave ingestion unauthenticated.
func NewServer(addr string, wq WorkloadQuerier, ing EventIngester, auth *BearerAuth, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		workload: wq,
		ingester: ing,
		logger:   logger.WithComponent(applog.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /trainers/{username}/workload", s.withLogging(s.handleTrainerWorkload))
	mux.HandleFunc("GET /trainers/{username}", s.withLogging(auth.Wrap(s.handleTrainer)))
	mux.HandleFunc("POST /trainers/workload", s.withLogging(auth.Wrap(s.handleIngest)))

	return s
}

// withLogging attaches a request-scoped logger and logs request completion.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := s.logger.With(applog.NewFields().WithRequestID(requestID).ToSlice()...)
		r = r.WithContext(applog.NewContext(r.Context(), logger))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, clientIP).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds())
		switch {
		case rw.statusCode >= 500:
			logger.ErrorContext(r.Context(), "HTTP request completed", fields.ToSlice()...)
		case rw.statusCode >= 400:
			logger.WarnContext(r.Context(), "HTTP request completed", fields.ToSlice()...)
		default:
			logger.InfoContext(r.Context(), "HTTP request completed", fields.ToSlice()...)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
