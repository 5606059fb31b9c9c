// Package server provides the HTTP API for Mitsumori.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/keyword"
	"github.com/hyperjump/mitsumori/internal/pipeline"
	"github.com/hyperjump/mitsumori/internal/storage"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// maxUploadBytes bounds the multipart body of an analyze request.
const maxUploadBytes = 20 << 20

// Server is the HTTP server for the Mitsumori API.
type Server struct {
	pipeline  *pipeline.Pipeline
	storage   storage.Storage
	index     keyword.ProductIndex
	suggester *keyword.Suggester
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. index may be nil, in which
// case product search falls back to listing.
func NewServer(
	p *pipeline.Pipeline,
	store storage.Storage,
	index keyword.ProductIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: p,
		storage:  store,
		index:    index,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
	if dict, ok := index.(keyword.TermDictionary); ok {
		s.suggester = keyword.NewSuggester(dict, 2)
	}
	return s
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(identityMiddleware)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/analyze", s.handleAnalyze)

		r.Post("/quotations/preview", s.handlePreview)
		r.With(requireRole(roleSales)).Post("/quotations", s.handleSaveQuotation)
		r.Get("/quotations/{id}", s.handleGetQuotation)
		r.Get("/quotations/{id}/xlsx", s.handleExportQuotation)
		r.With(requireRole(roleSales)).Get("/sales/{id}/quotations", s.handleListSalesQuotations)

		r.With(requireRole(roleSales)).Post("/customers", s.handleCreateCustomer)
		r.With(requireRole()).Get("/customers", s.handleListCustomers)
		r.With(requireRole()).Get("/customers/{id}/quotations", s.handleListCustomerQuotations)

		r.Route("/products", func(r chi.Router) {
			r.Use(requireRole(roleAdmin))
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleUpsertProduct)
			r.Delete("/{id}", s.handleDeleteProduct)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
