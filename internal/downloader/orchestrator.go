// Package downloader runs playlist download jobs: it searches the
// Soulseek network through slskd, picks the best candidate file per
// track, watches the transfer, converts lossless downloads, and files
// the result into the music library.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"soulspot/internal/constants"
	"soulspot/internal/domain"
	"soulspot/internal/filesystem"
	"soulspot/internal/logger"
	"soulspot/internal/slskd"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrJobNotRunning = errors.New("job is not running")
	ErrJobNotStopped = errors.New("job is not stopped")
)

// errNoCandidate means every search query came back without an
// acceptable file; the track ends as not_found.
var errNoCandidate = errors.New("no acceptable candidate")

// playlistResolver resolves a playlist reference into its name and
// ordered tracks.
type playlistResolver interface {
	ResolvePlaylist(ctx context.Context, playlistURL string) (string, []domain.TrackInfo, error)
}

// searchAPI is the slice of the slskd client the orchestrator drives.
type searchAPI interface {
	transferSource
	StartSearch(ctx context.Context, query string, timeoutMS int) (string, error)
	WaitForSearch(ctx context.Context, searchID string) ([]slskd.SearchResponse, error)
	DeleteSearch(ctx context.Context, searchID string)
	EnqueueDownload(ctx context.Context, username string, files []slskd.SearchFile) error
}

// trackTagger writes catalog metadata into a finished audio file.
type trackTagger interface {
	Tag(ctx context.Context, path string, track domain.TrackInfo) error
}

// HistoryRecorder persists job outcomes. Recording is best-effort:
// failures are logged, never propagated.
type HistoryRecorder interface {
	RecordJob(ctx context.Context, job *domain.PlaylistJob) error
}

// Timing groups the orchestrator's wait intervals so tests can shrink
// them.
type Timing struct {
	TransferPoll    time.Duration
	TransferTimeout time.Duration
	Settle          time.Duration
	TrackDelay      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		TransferPoll:    constants.TransferPollInterval,
		TransferTimeout: constants.TransferTimeout,
		Settle:          constants.SettleDelay,
		TrackDelay:      constants.TrackDelay,
	}
}

// Orchestrator owns the full lifecycle of playlist jobs.
type Orchestrator struct {
	Jobs      JobRepository
	Catalog   playlistResolver
	Slskd     searchAPI
	Tagger    trackTagger
	Converter Converter
	History   HistoryRecorder

	// SlskdDownloadDir is where the daemon writes finished transfers;
	// LibraryDir is the organized output root.
	SlskdDownloadDir string
	LibraryDir       string
	SearchTimeoutMS  int
	Timing           Timing

	logger *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator. History may be nil.
func New(jobs JobRepository, catalog playlistResolver, sl searchAPI, tagger trackTagger, conv Converter, history HistoryRecorder, slskdDownloadDir, libraryDir string, searchTimeoutMS int, log *logger.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		Jobs:             jobs,
		Catalog:          catalog,
		Slskd:            sl,
		Tagger:           tagger,
		Converter:        conv,
		History:          history,
		SlskdDownloadDir: slskdDownloadDir,
		LibraryDir:       libraryDir,
		SearchTimeoutMS:  searchTimeoutMS,
		Timing:           DefaultTiming(),
		logger:           log.WithComponent("orchestrator"),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Shutdown cancels running jobs and waits for their goroutines to
// unwind. In-flight tracks are abandoned; jobs stay resumable only
// while the process lives, so this is purely about a clean exit.
func (o *Orchestrator) Shutdown() {
	o.cancel()
	o.wg.Wait()
}

// CreateJob resolves the playlist and starts processing it in the
// background.
func (o *Orchestrator) CreateJob(ctx context.Context, playlistURL string) (*domain.PlaylistJob, error) {
	name, tracks, err := o.Catalog.ResolvePlaylist(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("playlist %q has no usable tracks", name)
	}

	job := &domain.PlaylistJob{
		ID:           uuid.NewString(),
		PlaylistName: name,
		PlaylistURL:  playlistURL,
		Status:       domain.JobStatusRunning,
		Tracks:       make([]*domain.TrackJob, len(tracks)),
	}
	for i, t := range tracks {
		job.Tracks[i] = &domain.TrackJob{Track: t, Status: domain.TrackStatusPending}
	}

	o.Jobs.Put(job)
	o.recordHistory(job.ID)
	o.logger.Info("Job created", "job_id", job.ID, "playlist", name, "tracks", len(tracks))

	o.launch(job.ID)
	return job.Clone(), nil
}

// StopJob requests a graceful stop. The in-flight track rolls back to
// pending and the checkpoint stays at it, so resume retries that track.
func (o *Orchestrator) StopJob(id string) error {
	if _, ok := o.Jobs.Snapshot(id); !ok {
		return ErrJobNotFound
	}
	if !o.Jobs.RequestStop(id) {
		return ErrJobNotRunning
	}
	o.logger.Info("Stop requested", "job_id", id)
	return nil
}

// ResumeJob restarts a stopped job from its checkpoint.
func (o *Orchestrator) ResumeJob(id string) error {
	job, ok := o.Jobs.Snapshot(id)
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != domain.JobStatusStopped {
		return ErrJobNotStopped
	}

	o.Jobs.ClearStop(id)
	o.Jobs.Mutate(id, func(j *domain.PlaylistJob) {
		j.Status = domain.JobStatusRunning
	})
	o.logger.Info("Job resumed", "job_id", id, "track_index", job.CurrentTrackIndex)

	o.launch(id)
	return nil
}

func (o *Orchestrator) launch(jobID string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("Job panicked", "job_id", jobID, "panic", r)
				o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
					j.Status = domain.JobStatusStopped
				})
			}
		}()
		o.runJob(o.ctx, jobID)
	}()
}

func (o *Orchestrator) runJob(ctx context.Context, jobID string) {
	job, ok := o.Jobs.Snapshot(jobID)
	if !ok {
		return
	}
	log := o.logger.WithJob(jobID, job.PlaylistName)
	log.Info("Job processing started", "track_index", job.CurrentTrackIndex, "tracks", len(job.Tracks))

	for i := job.CurrentTrackIndex; i < len(job.Tracks); i++ {
		if ctx.Err() != nil {
			return
		}
		if o.Jobs.StopRequested(jobID) {
			o.markStopped(jobID, log)
			return
		}

		track := job.Tracks[i]
		if track.Status.Terminal() {
			// Already handled on a previous run; just move the checkpoint.
			o.setCheckpoint(jobID, i+1)
			continue
		}

		err := o.processTrack(ctx, jobID, job.PlaylistName, i, track.Track, log)
		switch {
		case errors.Is(err, errStopped) || errors.Is(err, context.Canceled):
			// Roll back so resume retries this exact track.
			o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
				t := j.Tracks[i]
				t.Status = domain.TrackStatusPending
				t.Error = ""
				t.ProgressPct = 0
				j.CurrentTrackIndex = i
			})
			o.markStopped(jobID, log)
			return
		case errors.Is(err, errNoCandidate):
			o.failTrack(jobID, i, domain.TrackStatusNotFound, "no acceptable file found on the network")
		case err != nil:
			o.failTrack(jobID, i, domain.TrackStatusFailed, err.Error())
		}
		o.setCheckpoint(jobID, i+1)

		// The network delay applies after every track, including the last.
		if stopped := o.sleepOrStop(ctx, jobID, o.Timing.TrackDelay); stopped && i < len(job.Tracks)-1 {
			o.markStopped(jobID, log)
			return
		}
	}

	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		j.Status = domain.JobStatusComplete
		j.CurrentTrackIndex = len(j.Tracks)
	})
	o.Jobs.ClearStop(jobID)
	o.recordHistory(jobID)
	if snap, ok := o.Jobs.Snapshot(jobID); ok {
		completed, failed := snap.Counts()
		log.Info("Job complete", "completed", completed, "failed", failed)
	}
}

// processTrack runs one track through the full pipeline: search,
// select, download, settle, locate, convert, file, tag.
func (o *Orchestrator) processTrack(ctx context.Context, jobID, playlistName string, idx int, track domain.TrackInfo, jobLog *logger.Logger) error {
	log := jobLog.WithTrack(track.Artist, track.Title)
	o.setTrackStatus(jobID, idx, domain.TrackStatusSearching)

	username, file, err := o.findCandidate(ctx, jobID, idx, track, log)
	if err != nil {
		return err
	}
	log.Info("Candidate selected", "username", username, "filename", file.Filename, "size", file.Size)

	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		t := j.Tracks[idx]
		t.Status = domain.TrackStatusFound
		t.Username = username
		t.RemoteFilename = file.Filename
	})

	if err := o.Slskd.EnqueueDownload(ctx, username, []slskd.SearchFile{file}); err != nil {
		return err
	}
	o.setTrackStatus(jobID, idx, domain.TrackStatusDownloading)

	watcher := &Watcher{
		Transfers: o.Slskd,
		Logger:    log,
		Poll:      o.Timing.TransferPoll,
		Timeout:   o.Timing.TransferTimeout,
	}
	stop := func() bool { return o.Jobs.StopRequested(jobID) }
	onProgress := func(pct float64) {
		o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
			j.Tracks[idx].ProgressPct = pct
		})
	}
	if err := watcher.Await(ctx, username, file.Filename, stop, onProgress); err != nil {
		return err
	}

	// Give the daemon a moment to flush the file to disk.
	if stopped := o.sleepOrStop(ctx, jobID, o.Timing.Settle); stopped {
		return errStopped
	}

	srcPath, err := LocateDownload(o.SlskdDownloadDir, file.Filename)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(srcPath), constants.ExtFLAC) {
		converted, err := o.Converter.Convert(ctx, srcPath)
		if err != nil {
			return err
		}
		srcPath = converted
	}

	outPath := o.outputPath(playlistName, track, filepath.Ext(srcPath))
	if err := filesystem.CopyFile(srcPath, outPath); err != nil {
		return fmt.Errorf("failed to file track into library: %w", err)
	}

	o.setTrackStatus(jobID, idx, domain.TrackStatusTagging)
	if err := o.Tagger.Tag(ctx, outPath, track); err != nil {
		// Tagging problems never fail the track.
		log.Warn("Tagging failed", "path", outPath, "error", err)
	}

	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		t := j.Tracks[idx]
		t.Status = domain.TrackStatusComplete
		t.OutputPath = outPath
		t.ProgressPct = 100
	})
	log.Info("Track complete", "path", outPath)
	return nil
}

// findCandidate runs the search queries in order and returns the first
// acceptable file. A failed search moves on to the next formulation;
// only exhausting them all yields errNoCandidate.
func (o *Orchestrator) findCandidate(ctx context.Context, jobID string, idx int, track domain.TrackInfo, log *logger.Logger) (string, slskd.SearchFile, error) {
	for _, query := range searchQueries(track) {
		if o.Jobs.StopRequested(jobID) {
			return "", slskd.SearchFile{}, errStopped
		}

		searchID, err := o.Slskd.StartSearch(ctx, query, o.SearchTimeoutMS)
		if err != nil {
			if ctx.Err() != nil {
				return "", slskd.SearchFile{}, ctx.Err()
			}
			log.Warn("Search failed, trying next query", "query", query, "error", err)
			continue
		}
		o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
			j.Tracks[idx].SearchID = searchID
		})

		responses, err := o.Slskd.WaitForSearch(ctx, searchID)
		o.Slskd.DeleteSearch(ctx, searchID)
		if err != nil {
			if ctx.Err() != nil {
				return "", slskd.SearchFile{}, ctx.Err()
			}
			log.Warn("Search failed, trying next query", "query", query, "error", err)
			continue
		}

		username, file, ok := SelectCandidate(responses, track.DurationMS, track.Artist, track.Title)
		if ok {
			return username, file, nil
		}
		log.Info("No acceptable candidate", "query", query, "responses", len(responses))
	}
	return "", slskd.SearchFile{}, errNoCandidate
}

// searchQueries builds the query ladder for a track: artist and title
// first, then with the album appended for common-word titles that
// attract noise.
func searchQueries(track domain.TrackInfo) []string {
	base := strings.TrimSpace(track.Artist + " " + track.Title)
	queries := []string{base}
	if track.Album != "" {
		queries = append(queries, strings.TrimSpace(base+" "+track.Album))
	}
	return queries
}

func (o *Orchestrator) outputPath(playlistName string, track domain.TrackInfo, ext string) string {
	dir := filepath.Join(o.LibraryDir, filesystem.Sanitize(playlistName))
	name := filesystem.Sanitize(track.Artist+" - "+track.Title) + ext
	return filepath.Join(dir, name)
}

// sleepOrStop waits d, returning true early if a stop was requested.
func (o *Orchestrator) sleepOrStop(ctx context.Context, jobID string, d time.Duration) bool {
	if o.Jobs.StopRequested(jobID) {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
	}
	return o.Jobs.StopRequested(jobID)
}

func (o *Orchestrator) setTrackStatus(jobID string, idx int, status domain.TrackStatus) {
	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		j.Tracks[idx].Status = status
	})
}

func (o *Orchestrator) setCheckpoint(jobID string, next int) {
	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		if next > j.CurrentTrackIndex {
			j.CurrentTrackIndex = next
		}
	})
}

func (o *Orchestrator) failTrack(jobID string, idx int, status domain.TrackStatus, msg string) {
	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		t := j.Tracks[idx]
		t.Status = status
		t.Error = msg
	})
	o.logger.Warn("Track did not complete", "job_id", jobID, "track_index", idx, "status", status, "error", msg)
}

func (o *Orchestrator) markStopped(jobID string, log *logger.Logger) {
	o.Jobs.Mutate(jobID, func(j *domain.PlaylistJob) {
		j.Status = domain.JobStatusStopped
	})
	o.Jobs.ClearStop(jobID)
	o.recordHistory(jobID)
	log.Info("Job stopped")
}

func (o *Orchestrator) recordHistory(jobID string) {
	if o.History == nil {
		return
	}
	job, ok := o.Jobs.Snapshot(jobID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.History.RecordJob(ctx, job); err != nil {
		o.logger.Warn("Failed to record job history", "job_id", jobID, "error", err)
	}
}
