package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamcoop/creditreports/ingest"
	"github.com/liamcoop/creditreports/screening"
)

// ServerOptions carries the HTTP-level settings.
type ServerOptions struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type Server struct {
	reports  *ingest.Service
	screener *screening.Engine
	opts     ServerOptions
	router   *chi.Mux
}

func NewServer(reports *ingest.Service, screener *screening.Engine, opts ServerOptions) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		reports:  reports,
		screener: screener,
		opts:     opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.opts.AllowedOrigins))
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Legacy single-route upload kept for older clients
	r.Post("/api/upload", s.handleUpload)

	r.Route("/api/reports", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/", s.handleListReports)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetReport)
			r.Get("/screening", s.handleScreenReport)
			r.Post("/screening", s.handleEvaluateExpression)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
