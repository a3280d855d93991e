// Package httpapp exposes the job control API over HTTP.
package httpapp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"soulspot/internal/config"
	"soulspot/internal/domain"
	"soulspot/internal/downloader"
	"soulspot/internal/logger"
	"soulspot/internal/store"
)

// jobService is the slice of the orchestrator the API drives.
type jobService interface {
	CreateJob(ctx context.Context, playlistURL string) (*domain.PlaylistJob, error)
	StopJob(id string) error
	ResumeJob(id string) error
}

// pinger checks connectivity with the slskd daemon.
type pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Service jobService
	Jobs    downloader.JobRepository
	Store   *store.DB
	Slskd   pinger
	Config  *config.Config
	Logger  *logger.Logger
}

func NewHandler(svc jobService, jobs downloader.JobRepository, db *store.DB, sl pinger, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Jobs:    jobs,
		Store:   db,
		Slskd:   sl,
		Config:  cfg,
		Logger:  log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/playlist", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/stop", h.StopJob)
		r.Post("/jobs/{id}/resume", h.ResumeJob)
		r.Get("/history", h.History)
		r.Get("/config", h.GetConfig)
		r.Post("/config", h.UpdateConfig)
		r.Get("/health", h.Health)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
