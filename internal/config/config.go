package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"soulspot/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port                string
	DBPath              string
	DownloadsDir        string
	SlskdURL            string
	SlskdAPIKey         string
	SlskdDownloadDir    string
	SpotifyClientID     string
	SpotifyClientSecret string
	SearchTimeoutMS     int
	LogLevel            string
	LogFormat           string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultDownload := filepath.Join(home, "Music/soulspot")

	return &Config{
		Port:                getEnv("PORT", constants.DefaultPort),
		DBPath:              getEnv("DB_PATH", constants.DefaultDBPath),
		DownloadsDir:        getEnv("DOWNLOADS_DIR", defaultDownload),
		SlskdURL:            getEnv("SLSKD_URL", constants.DefaultSlskdURL),
		SlskdAPIKey:         getEnv("SLSKD_API_KEY", ""),
		SlskdDownloadDir:    getEnv("SLSKD_DOWNLOAD_DIR", ""),
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SearchTimeoutMS:     getEnvInt("SEARCH_TIMEOUT_MS", constants.DefaultSearchTimeoutMS),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}
}

// Configured reports whether the external collaborators can be reached.
// The server can start unconfigured and receive credentials over the API.
func (c *Config) Configured() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != "" && c.SlskdAPIKey != ""
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.DownloadsDir == "" {
		errors = append(errors, "DOWNLOADS_DIR cannot be empty")
	}

	if c.SlskdURL == "" {
		errors = append(errors, "SLSKD_URL cannot be empty")
	} else if _, err := url.Parse(c.SlskdURL); err != nil {
		errors = append(errors, fmt.Sprintf("SLSKD_URL is not a valid URL: %s", c.SlskdURL))
	}

	if c.SearchTimeoutMS < 1000 {
		errors = append(errors, fmt.Sprintf("SEARCH_TIMEOUT_MS must be at least 1000, got: %d", c.SearchTimeoutMS))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
