package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		DBPath:              "test.db",
		DownloadsDir:        "/tmp/music",
		SlskdURL:            "http://localhost:5030",
		SlskdAPIKey:         "key",
		SlskdDownloadDir:    "/tmp/slskd",
		SpotifyClientID:     "id",
		SpotifyClientSecret: "secret",
		SearchTimeoutMS:     30000,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port == "" {
		t.Error("expected default port")
	}
	if cfg.SlskdURL == "" {
		t.Error("expected default slskd url")
	}
	if cfg.SearchTimeoutMS == 0 {
		t.Error("expected default search timeout")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLSKD_URL", "http://slskd:5030")
	t.Setenv("SEARCH_TIMEOUT_MS", "15000")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SlskdURL != "http://slskd:5030" {
		t.Errorf("expected env slskd url, got %s", cfg.SlskdURL)
	}
	if cfg.SearchTimeoutMS != 15000 {
		t.Errorf("expected timeout 15000, got %d", cfg.SearchTimeoutMS)
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"bad port", func(c *Config) { c.Port = "nope" }, "PORT"},
		{"port range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "DB_PATH"},
		{"empty downloads dir", func(c *Config) { c.DownloadsDir = "" }, "DOWNLOADS_DIR"},
		{"empty slskd url", func(c *Config) { c.SlskdURL = "" }, "SLSKD_URL"},
		{"low search timeout", func(c *Config) { c.SearchTimeoutMS = 100 }, "SEARCH_TIMEOUT_MS"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	cfg := validConfig()
	if !cfg.Configured() {
		t.Error("expected configured")
	}
	cfg.SpotifyClientID = ""
	if cfg.Configured() {
		t.Error("expected not configured without spotify client id")
	}
}
