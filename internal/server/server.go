// Package server provides the HTTP API for Tenmon.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/catalog"
	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/knowledge"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
	"github.com/hyperjump/tenmon/internal/training"
)

const serviceName = "tenmon"

// Deps are the collaborators the API serves. Catalog may be nil, which
// disables the search endpoint; everything else is required.
type Deps struct {
	Generator    *retrieval.Generator
	Orchestrator *training.Orchestrator
	Catalog      *catalog.Catalog
	Store        storage.Store
	Index        *knowledge.Index
	Sources      []source.Source
	Config       *config.Config
	Logger       *zap.Logger
	Version      string
}

// Server is the HTTP server for the Tenmon API.
type Server struct {
	deps   Deps
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Server{deps: deps, logger: deps.Logger}
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/training/jobs", s.handleSubmitTraining)
	r.Get("/api/v1/training/jobs/{jobID}", s.handleTrainingStatus)
	r.Get("/api/v1/models", s.handleListModels)
	r.Get("/api/v1/models/{modelID}", s.handleGetModel)
	r.Post("/api/v1/models/{modelID}/deploy", s.handleDeployModel)
	r.Get("/api/v1/search", s.handleCatalogSearch)
	r.Get("/api/v1/records/preview", s.handleRecordsPreview)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.deps.Config.Server.Host, s.deps.Config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
