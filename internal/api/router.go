package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/savegress/vitalstat/internal/config"
	"github.com/savegress/vitalstat/internal/storage"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server. runner executes a full derivation
// and is invoked by POST /derive.
func NewServer(cfg *config.Config, store storage.RunStore, runner RunFunc) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(store, runner),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/vitalstat", func(r chi.Router) {
		// Derivation
		r.Post("/derive", s.handlers.Derive)

		// Run history
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handlers.ListRuns)
			r.Get("/{id}", s.handlers.GetRun)
			r.Get("/{id}/statuses", s.handlers.GetRunStatuses)
		})

		// Latest derived statuses
		r.Route("/status", func(r chi.Router) {
			r.Get("/", s.handlers.ListStatuses)
			r.Get("/{patientID}", s.handlers.GetPatientStatus)
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
