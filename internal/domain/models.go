// Package domain holds the data model shared across the application.
package domain

// TrackStatus represents the processing status of a single track
type TrackStatus string

const (
	TrackStatusPending     TrackStatus = "pending"
	TrackStatusSearching   TrackStatus = "searching"
	TrackStatusFound       TrackStatus = "found"
	TrackStatusDownloading TrackStatus = "downloading"
	TrackStatusTagging     TrackStatus = "tagging"
	TrackStatusComplete    TrackStatus = "complete"
	TrackStatusFailed      TrackStatus = "failed"
	TrackStatusNotFound    TrackStatus = "not_found"
)

// Terminal reports whether the status is final for normal processing.
// A stopped job rolls an in-flight track back to pending, which is not
// terminal and will be reprocessed on resume.
func (s TrackStatus) Terminal() bool {
	switch s {
	case TrackStatusComplete, TrackStatusFailed, TrackStatusNotFound:
		return true
	}
	return false
}

// JobStatus represents the lifecycle status of a playlist job
type JobStatus string

const (
	JobStatusRunning  JobStatus = "running"
	JobStatusStopped  JobStatus = "stopped"
	JobStatusComplete JobStatus = "complete"
)

// TrackInfo is the immutable catalog descriptor of a playlist track.
// It is produced once by the catalog resolver and never mutated.
type TrackInfo struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	TrackNumber int     `json:"track_number"`
	TotalTracks int     `json:"total_tracks"`
	DurationMS  int     `json:"duration_ms"`
	CoverURL    string  `json:"cover_url"`
	SpotifyURI  string  `json:"spotify_uri"`
	Year        string  `json:"year,omitempty"`
	BPM         float64 `json:"bpm,omitempty"`
	Key         string  `json:"key,omitempty"`         // e.g. "C", "F#m"
	InitialKey  string  `json:"initial_key,omitempty"` // Camelot notation, e.g. "8A"
}

// TrackJob wraps a TrackInfo with mutable per-track processing state.
// It is owned by the orchestrator and mutated only on its processing path.
type TrackJob struct {
	Track          TrackInfo   `json:"track"`
	Status         TrackStatus `json:"status"`
	Error          string      `json:"error,omitempty"`
	SearchID       string      `json:"search_id,omitempty"`
	Username       string      `json:"username,omitempty"`
	RemoteFilename string      `json:"remote_filename,omitempty"`
	OutputPath     string      `json:"output_path,omitempty"`
	ProgressPct    float64     `json:"progress_pct"`
}

// PlaylistJob is one submitted playlist with its ordered track jobs.
// Track order follows catalog order and is fixed for the job lifetime.
// CurrentTrackIndex is the checkpoint: the first not-yet-attempted track.
type PlaylistJob struct {
	ID                string      `json:"job_id"`
	PlaylistName      string      `json:"playlist_name"`
	PlaylistURL       string      `json:"playlist_url"`
	Tracks            []*TrackJob `json:"tracks"`
	Status            JobStatus   `json:"status"`
	CurrentTrackIndex int         `json:"current_track_index"`
}

// Counts returns how many tracks completed and how many ended in
// failed or not_found.
func (j *PlaylistJob) Counts() (completed, failed int) {
	for _, t := range j.Tracks {
		switch t.Status {
		case TrackStatusComplete:
			completed++
		case TrackStatusFailed, TrackStatusNotFound:
			failed++
		}
	}
	return completed, failed
}

// Clone returns a deep copy safe to hand to readers outside the
// orchestrator's lock.
func (j *PlaylistJob) Clone() *PlaylistJob {
	cp := *j
	cp.Tracks = make([]*TrackJob, len(j.Tracks))
	for i, t := range j.Tracks {
		tc := *t
		cp.Tracks[i] = &tc
	}
	return &cp
}
