package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"soulspot/internal/domain"
	"soulspot/internal/downloader"
	"soulspot/internal/store"
)

type createJobRequest struct {
	PlaylistURL string `json:"playlist_url"`
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PlaylistURL == "" {
		h.respondError(w, http.StatusBadRequest, "playlist_url is required")
		return
	}

	job, err := h.Service.CreateJob(r.Context(), req.PlaylistURL)
	if err != nil {
		h.Logger.Error("Failed to create job", "playlist_url", req.PlaylistURL, "error", err)
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondJSON(w, http.StatusAccepted, job)
}

// jobSummary is the list view of a job without per-track detail.
type jobSummary struct {
	ID                string           `json:"job_id"`
	PlaylistName      string           `json:"playlist_name"`
	Status            domain.JobStatus `json:"status"`
	TotalTracks       int              `json:"total_tracks"`
	CompletedTracks   int              `json:"completed_tracks"`
	FailedTracks      int              `json:"failed_tracks"`
	CurrentTrackIndex int              `json:"current_track_index"`
}

func summarize(job *domain.PlaylistJob) jobSummary {
	completed, failed := job.Counts()
	return jobSummary{
		ID:                job.ID,
		PlaylistName:      job.PlaylistName,
		Status:            job.Status,
		TotalTracks:       len(job.Tracks),
		CompletedTracks:   completed,
		FailedTracks:      failed,
		CurrentTrackIndex: job.CurrentTrackIndex,
	}
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.Jobs.Snapshots()
	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, summarize(job))
	}
	h.respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if job, ok := h.Jobs.Snapshot(id); ok {
		h.respondJSON(w, http.StatusOK, job)
		return
	}

	// Not live; jobs from earlier runs survive in history.
	if h.Store != nil {
		rec, err := h.Store.GetJob(r.Context(), id)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if rec != nil {
			h.respondJSON(w, http.StatusOK, rec)
			return
		}
	}
	h.respondError(w, http.StatusNotFound, "job not found")
}

func (h *Handler) StopJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.StopJob(id); err != nil {
		h.respondJobError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.ResumeJob(id); err != nil {
		h.respondJobError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (h *Handler) respondJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, downloader.ErrJobNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, downloader.ErrJobNotRunning), errors.Is(err, downloader.ErrJobNotStopped):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		h.respondJSON(w, http.StatusOK, []*store.JobRecord{})
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := h.Store.ListJobs(r.Context(), limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*store.JobRecord{}
	}
	h.respondJSON(w, http.StatusOK, recs)
}

// configView is the API shape of the runtime configuration. Secrets
// are always masked on the way out.
type configView struct {
	SlskdURL            string `json:"slskd_url"`
	SlskdAPIKey         string `json:"slskd_api_key"`
	SlskdDownloadDir    string `json:"slskd_download_dir"`
	SpotifyClientID     string `json:"spotify_client_id"`
	SpotifyClientSecret string `json:"spotify_client_secret"`
	DownloadsDir        string `json:"downloads_dir"`
	Configured          bool   `json:"configured"`
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, configView{
		SlskdURL:            h.Config.SlskdURL,
		SlskdAPIKey:         maskSecret(h.Config.SlskdAPIKey),
		SlskdDownloadDir:    h.Config.SlskdDownloadDir,
		SpotifyClientID:     maskSecret(h.Config.SpotifyClientID),
		SpotifyClientSecret: maskSecret(h.Config.SpotifyClientSecret),
		DownloadsDir:        h.Config.DownloadsDir,
		Configured:          h.Config.Configured(),
	})
}

type configUpdate struct {
	SlskdURL            *string `json:"slskd_url"`
	SlskdAPIKey         *string `json:"slskd_api_key"`
	SlskdDownloadDir    *string `json:"slskd_download_dir"`
	SpotifyClientID     *string `json:"spotify_client_id"`
	SpotifyClientSecret *string `json:"spotify_client_secret"`
	DownloadsDir        *string `json:"downloads_dir"`
}

// UpdateConfig persists new settings. They are loaded over the
// environment on the next start; live clients keep their current
// credentials.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		h.respondError(w, http.StatusServiceUnavailable, "settings storage unavailable")
		return
	}

	var upd configUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pairs := map[string]*string{
		store.SettingSlskdURL:            upd.SlskdURL,
		store.SettingSlskdAPIKey:         upd.SlskdAPIKey,
		store.SettingSlskdDownloadDir:    upd.SlskdDownloadDir,
		store.SettingSpotifyClientID:     upd.SpotifyClientID,
		store.SettingSpotifyClientSecret: upd.SpotifyClientSecret,
		store.SettingDownloadsDir:        upd.DownloadsDir,
	}
	saved := 0
	for key, val := range pairs {
		if val == nil {
			continue
		}
		if err := h.Store.SetSetting(r.Context(), key, *val); err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		saved++
	}
	if saved == 0 {
		h.respondError(w, http.StatusBadRequest, "no settings provided")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"saved": saved, "restart_required": true})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "slskd": "connected"}
	code := http.StatusOK
	if err := h.Slskd.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["slskd"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(w, code, status)
}

// maskSecret hides the middle of a credential while keeping enough to
// recognize it.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "..." + s[len(s)-3:]
}
