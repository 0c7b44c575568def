package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/matclass/internal/config"
	"github.com/dgallion1/matclass/internal/describe"
	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/llm"
	"github.com/dgallion1/matclass/internal/pipeline"
	"github.com/dgallion1/matclass/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the components the API serves. Store, Describer, Orchestrator
// and Stats may be nil; their routes then answer 503.
type Deps struct {
	Tree         *hierarchy.Tree
	Engines      pipeline.EngineFunc
	Describer    *describe.Describer
	Orchestrator *pipeline.Orchestrator
	Store        *store.Store
	Stats        *llm.Stats
}

// Server is the HTTP API server for matclass.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/models", s.handleModels)
		r.Post("/api/classify", s.handleClassify)
		r.Post("/api/describe-file", s.handleDescribeFile)

		r.Get("/api/hierarchy", s.handleHierarchy)
		r.Get("/api/hierarchy/{code}", s.handleHierarchy)

		r.Post("/api/batch", s.handleBatch)
		r.Get("/api/batch/{jobID}", s.handleBatchStatus)

		r.Get("/api/classifications", s.handleListClassifications)
		r.Get("/api/classifications/{id}", s.handleGetClassification)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"nodes":  s.deps.Tree.Len(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  s.cfg.AvailableModels,
		"default": s.cfg.DefaultModel,
	})
}

// resolveModel returns the model to use for a request. An empty name means
// the default; anything else must be configured.
func (s *Server) resolveModel(model string) (string, bool) {
	if model == "" {
		return s.cfg.DefaultModel, true
	}
	return model, s.cfg.ModelAllowed(model)
}
