// Package httpserver provides the HTTP REST API for the paper discovery service.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/database"
	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/recommend"
	"github.com/scholaris/paper-discovery-service/internal/search"
)

// SearchService is the paper search and retrieval surface used by handlers.
type SearchService interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	GetPaper(ctx context.Context, id string) (*domain.Paper, error)
	CitationsAndReferences(ctx context.Context, paperID string, limit int) (*search.CitationsResult, error)
}

// RecommendService produces personalized recommendations.
type RecommendService interface {
	Recommend(ctx context.Context, userID string, limit int) (*recommend.Result, error)
}

// LibraryService manages favorites, ratings, and viewing history.
type LibraryService interface {
	AddFavorite(ctx context.Context, userID, paperID string, tags []string) (*domain.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, paperID string) error
	ToggleFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, bool, error)
	GetFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, bool, error)
	ListFavorites(ctx context.Context, userID, tag string, limit, offset int) ([]*domain.Favorite, error)
	UpdateTags(ctx context.Context, userID, paperID string, tags []string) (*domain.Favorite, error)
	GenerateTags(ctx context.Context, userID, paperID string) ([]string, error)
	RatePaper(ctx context.Context, userID, paperID string, value int) (*domain.Rating, error)
	DeleteRating(ctx context.Context, userID, paperID string) error
	ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error)
	RecordView(ctx context.Context, userID, paperID, category string) (*domain.HistoryEntry, error)
	ListHistory(ctx context.Context, userID, category string, limit, offset int) ([]*domain.HistoryEntry, error)
}

// ProposalService generates and manages research proposals.
type ProposalService interface {
	Generate(ctx context.Context, userID string) (*domain.Proposal, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Proposal, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.Proposal, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	search     SearchService
	recommend  RecommendService
	library    LibraryService
	proposals  ProposalService
	db         *database.DB
	validate   *validator.Validate
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	MetricsPath     string
}

// NewServer creates the HTTP server with all dependencies.
func NewServer(
	cfg Config,
	searchSvc SearchService,
	recommendSvc RecommendService,
	librarySvc LibraryService,
	proposalSvc ProposalService,
	db *database.DB,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		search:    searchSvc,
		recommend: recommendSvc,
		library:   librarySvc,
		proposals: proposalSvc,
		db:        db,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter(cfg)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router returns the assembled router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		// Paper discovery is anonymous.
		r.Get("/papers/search", s.searchPapers)
		r.Get("/papers/{paperID}", s.getPaper)
		r.Get("/papers/{paperID}/citations", s.getPaperCitations)

		// User-scoped routes require the gateway-injected identity header.
		r.Group(func(r chi.Router) {
			r.Use(userContextMiddleware)

			r.Get("/recommendations", s.getRecommendations)

			r.Get("/favorites", s.listFavorites)
			r.Post("/favorites", s.addFavorite)
			r.Get("/favorites/{paperID}", s.getFavorite)
			r.Delete("/favorites/{paperID}", s.removeFavorite)
			r.Post("/favorites/{paperID}/toggle", s.toggleFavorite)
			r.Put("/favorites/{paperID}/tags", s.updateFavoriteTags)
			r.Post("/favorites/{paperID}/tags/generate", s.generateFavoriteTags)

			r.Post("/ratings", s.ratePaper)
			r.Get("/ratings", s.listRatings)
			r.Delete("/ratings/{paperID}", s.deleteRating)

			r.Post("/history", s.recordView)
			r.Get("/history", s.listHistory)

			r.Post("/proposals", s.generateProposal)
			r.Get("/proposals", s.listProposals)
			r.Get("/proposals/{proposalID}", s.getProposal)
			r.Delete("/proposals/{proposalID}", s.deleteProposal)
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports readiness including database connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
