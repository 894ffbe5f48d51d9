package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docnodes/internal/config"
	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for docnodes.
type Server struct {
	router chi.Router
	nodes  *nodes.Registry
	store  *inputdir.Store
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(reg *nodes.Registry, store *inputdir.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		nodes: reg,
		store: store,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints, when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/upload/document", s.handleUpload)
		r.Get("/getpath", s.handleGetPath)
		r.Get("/api/documents", s.handleListDocuments)

		r.Get("/api/nodes", s.handleListNodes)
		r.Post("/api/nodes/{name}/run", s.handleRunNode)
		r.Post("/api/nodes/{name}/fingerprint", s.handleFingerprint)

		r.Get("/api/pdf/info", s.handlePDFInfo)
		r.Post("/api/pdf/trim", s.handlePDFTrim)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
