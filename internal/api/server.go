package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/analytics"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/cache"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/processor"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/recorder"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

type Server struct {
	router     *chi.Mux
	port       int
	store      *store.Store
	cache      cache.ProfileCache
	recorder   *recorder.Recorder
	processor  *processor.Processor
	aggregator *analytics.Aggregator
	logger     *slog.Logger
}

func NewServer(port int, apiToken string, db *store.Store, c cache.ProfileCache, rec *recorder.Recorder, proc *processor.Processor, agg *analytics.Aggregator, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:     router,
		port:       port,
		store:      db,
		cache:      c,
		recorder:   rec,
		processor:  proc,
		aggregator: agg,
		logger:     logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/styled", func(r chi.Router) {
		r.Get("/status", s.status)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Post("/approvals", s.recordApproval)
			r.Get("/guidance", s.guidanceQuery)
			r.Post("/guidance", s.guidanceBody)
			r.Get("/profiles/{clinicianID}/{subspecialty}", s.getProfile)
			r.Put("/profiles/{clinicianID}/{subspecialty}/strength", s.updateStrength)
			r.Post("/aggregates/run", s.runAggregate)
			r.Get("/aggregates/{subspecialty}/{period}", s.getAggregate)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "styled",
		"status":  "ok",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
