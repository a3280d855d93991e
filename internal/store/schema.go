package store

const Schema = `
CREATE TABLE IF NOT EXISTS job_history (
	id TEXT PRIMARY KEY,
	playlist_name TEXT NOT NULL,
	playlist_url TEXT NOT NULL,
	status TEXT NOT NULL,
	total_tracks INTEGER NOT NULL,
	completed_tracks INTEGER NOT NULL DEFAULT 0,
	failed_tracks INTEGER NOT NULL DEFAULT 0,
	current_track_index INTEGER NOT NULL DEFAULT 0,
	tracks TEXT,  -- JSON array of track jobs
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_job_history_status ON job_history(status);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
