package store

import (
	"context"
	"database/sql"
	"time"
)

// Setting keys persisted through the config API.
const (
	SettingSpotifyClientID     = "spotify_client_id"
	SettingSpotifyClientSecret = "spotify_client_secret"
	SettingSlskdURL            = "slskd_url"
	SettingSlskdAPIKey         = "slskd_api_key"
	SettingSlskdDownloadDir    = "slskd_download_dir"
	SettingDownloadsDir        = "downloads_dir"
)

// GetSetting returns the stored value, or "" when unset.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

// AllSettings returns every stored key/value pair.
func (db *DB) AllSettings(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
