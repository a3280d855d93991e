package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soulspot/internal/domain"
)

// JobRecord is a persisted snapshot of a playlist job.
type JobRecord struct {
	ID                string    `db:"id"`
	PlaylistName      string    `db:"playlist_name"`
	PlaylistURL       string    `db:"playlist_url"`
	Status            string    `db:"status"`
	TotalTracks       int       `db:"total_tracks"`
	CompletedTracks   int       `db:"completed_tracks"`
	FailedTracks      int       `db:"failed_tracks"`
	CurrentTrackIndex int       `db:"current_track_index"`
	Tracks            string    `db:"tracks"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// RecordJob upserts the latest snapshot of a job into history.
func (db *DB) RecordJob(ctx context.Context, job *domain.PlaylistJob) error {
	tracksJSON, err := json.Marshal(job.Tracks)
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}
	completed, failed := job.Counts()

	query := `INSERT INTO job_history (id, playlist_name, playlist_url, status, total_tracks, completed_tracks, failed_tracks, current_track_index, tracks, created_at, updated_at)
		VALUES (:id, :playlist_name, :playlist_url, :status, :total_tracks, :completed_tracks, :failed_tracks, :current_track_index, :tracks, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			completed_tracks = excluded.completed_tracks,
			failed_tracks = excluded.failed_tracks,
			current_track_index = excluded.current_track_index,
			tracks = excluded.tracks,
			updated_at = excluded.updated_at`

	now := time.Now().UTC()
	rec := JobRecord{
		ID:                job.ID,
		PlaylistName:      job.PlaylistName,
		PlaylistURL:       job.PlaylistURL,
		Status:            string(job.Status),
		TotalTracks:       len(job.Tracks),
		CompletedTracks:   completed,
		FailedTracks:      failed,
		CurrentTrackIndex: job.CurrentTrackIndex,
		Tracks:            string(tracksJSON),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err = db.NamedExecContext(ctx, query, rec)
	return err
}

// GetJob returns one history record, or nil when unknown.
func (db *DB) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	query := `SELECT id, playlist_name, playlist_url, status, total_tracks, completed_tracks, failed_tracks, current_track_index, tracks, created_at, updated_at
		FROM job_history WHERE id = ?`

	rec := &JobRecord{}
	err := db.GetContext(ctx, rec, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListJobs returns history records, most recent first.
func (db *DB) ListJobs(ctx context.Context, limit int) ([]*JobRecord, error) {
	query := `SELECT id, playlist_name, playlist_url, status, total_tracks, completed_tracks, failed_tracks, current_track_index, tracks, created_at, updated_at
		FROM job_history ORDER BY created_at DESC LIMIT ?`

	var recs []*JobRecord
	err := db.SelectContext(ctx, &recs, query, limit)
	return recs, err
}

// TrackJobs decodes the persisted track snapshots.
func (r *JobRecord) TrackJobs() ([]*domain.TrackJob, error) {
	if r.Tracks == "" {
		return nil, nil
	}
	var tracks []*domain.TrackJob
	if err := json.Unmarshal([]byte(r.Tracks), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return tracks, nil
}
