package httpapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"soulspot/internal/config"
	"soulspot/internal/domain"
	"soulspot/internal/downloader"
	"soulspot/internal/logger"
	"soulspot/internal/store"
)

type fakeService struct {
	created  *domain.PlaylistJob
	createrr error
	stopErr  error
	resumeEr error
	stopped  []string
	resumed  []string
}

func (f *fakeService) CreateJob(ctx context.Context, playlistURL string) (*domain.PlaylistJob, error) {
	return f.created, f.createrr
}

func (f *fakeService) StopJob(id string) error {
	f.stopped = append(f.stopped, id)
	return f.stopErr
}

func (f *fakeService) ResumeJob(id string) error {
	f.resumed = append(f.resumed, id)
	return f.resumeEr
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestHandler(t *testing.T, svc *fakeService, jobs downloader.JobRepository, db *store.DB, ping *fakePinger) http.Handler {
	t.Helper()
	cfg := &config.Config{
		SlskdURL:            "http://localhost:5030",
		SlskdAPIKey:         "verysecretapikey",
		SpotifyClientID:     "spotifyclientid123",
		SpotifyClientSecret: "sh",
		DownloadsDir:        "/music",
	}
	h := NewHandler(svc, jobs, db, ping, cfg, logger.New(logger.Config{Level: "error", Format: "text"}))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sampleJob(id string) *domain.PlaylistJob {
	return &domain.PlaylistJob{
		ID:           id,
		PlaylistName: "Mix",
		PlaylistURL:  "spotify:playlist:abc",
		Status:       domain.JobStatusRunning,
		Tracks: []*domain.TrackJob{
			{Track: domain.TrackInfo{Title: "Alpha", Artist: "Tester"}, Status: domain.TrackStatusComplete},
			{Track: domain.TrackInfo{Title: "Beta", Artist: "Tester"}, Status: domain.TrackStatusPending},
		},
	}
}

func TestCreateJobEndpoint(t *testing.T) {
	svc := &fakeService{created: sampleJob("j1")}
	handler := newTestHandler(t, svc, downloader.NewMemoryJobs(), nil, &fakePinger{})

	rec := doJSON(t, handler, http.MethodPost, "/api/playlist", `{"playlist_url":"spotify:playlist:abc"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	var job domain.PlaylistJob
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.ID != "j1" {
		t.Errorf("job id = %q, want j1", job.ID)
	}
}

func TestCreateJobValidation(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, downloader.NewMemoryJobs(), nil, &fakePinger{})

	rec := doJSON(t, handler, http.MethodPost, "/api/playlist", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/playlist", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", rec.Code)
	}
}

func TestListAndGetJobs(t *testing.T) {
	jobs := downloader.NewMemoryJobs()
	jobs.Put(sampleJob("j1"))
	handler := newTestHandler(t, &fakeService{}, jobs, nil, &fakePinger{})

	rec := doJSON(t, handler, http.MethodGet, "/api/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var summaries []jobSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 || summaries[0].CompletedTracks != 1 || summaries[0].TotalTracks != 2 {
		t.Errorf("summaries = %+v", summaries)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs/j1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", rec.Code)
	}
}

func TestStopResumeEndpoints(t *testing.T) {
	svc := &fakeService{}
	handler := newTestHandler(t, svc, downloader.NewMemoryJobs(), nil, &fakePinger{})

	rec := doJSON(t, handler, http.MethodPost, "/api/jobs/j1/stop", "")
	if rec.Code != http.StatusOK {
		t.Errorf("stop status = %d", rec.Code)
	}
	if len(svc.stopped) != 1 || svc.stopped[0] != "j1" {
		t.Errorf("stopped = %v", svc.stopped)
	}

	svc.stopErr = downloader.ErrJobNotRunning
	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/j1/stop", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("stop conflict status = %d, want 409", rec.Code)
	}

	svc.resumeEr = downloader.ErrJobNotFound
	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/j1/resume", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("resume missing status = %d, want 404", rec.Code)
	}
}

func TestConfigMasking(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, downloader.NewMemoryJobs(), nil, &fakePinger{})

	rec := doJSON(t, handler, http.MethodGet, "/api/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view configView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.SlskdAPIKey != "ver...key" {
		t.Errorf("api key = %q, want masked", view.SlskdAPIKey)
	}
	if view.SpotifyClientSecret != "***" {
		t.Errorf("short secret = %q, want ***", view.SpotifyClientSecret)
	}
	if strings.Contains(rec.Body.String(), "verysecretapikey") {
		t.Error("response leaked a full secret")
	}
}

func TestUpdateConfigPersists(t *testing.T) {
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	handler := newTestHandler(t, &fakeService{}, downloader.NewMemoryJobs(), db, &fakePinger{})

	rec := doJSON(t, handler, http.MethodPost, "/api/config", `{"slskd_url":"http://slskd:5030"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	got, err := db.GetSetting(context.Background(), store.SettingSlskdURL)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "http://slskd:5030" {
		t.Errorf("persisted value = %q", got)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/config", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, downloader.NewMemoryJobs(), nil, &fakePinger{})
	rec := doJSON(t, handler, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	handler = newTestHandler(t, &fakeService{}, downloader.NewMemoryJobs(), nil, &fakePinger{err: context.DeadlineExceeded})
	rec = doJSON(t, handler, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}
