package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"soulspot/internal/catalog"
	"soulspot/internal/config"
	"soulspot/internal/downloader"
	"soulspot/internal/httpapp"
	"soulspot/internal/logger"
	"soulspot/internal/slskd"
	"soulspot/internal/store"
	"soulspot/internal/tagging"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Settings saved through the API override the environment.
	applySettings(db, cfg, appLogger)
	if !cfg.Configured() {
		appLogger.Warn("Spotify or slskd credentials missing; set them via POST /api/config and restart")
	}

	ctx := context.Background()
	spotify := catalog.NewSpotifyClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, appLogger)
	slskdClient := slskd.New(cfg.SlskdURL, cfg.SlskdAPIKey, appLogger)
	tagger := tagging.NewTagger(appLogger)
	converter := downloader.NewFFmpegConverter(appLogger)

	jobs := downloader.NewMemoryJobs()
	orch := downloader.New(
		jobs, spotify, slskdClient, tagger, converter, db,
		cfg.SlskdDownloadDir, cfg.DownloadsDir, cfg.SearchTimeoutMS,
		appLogger,
	)
	defer orch.Shutdown()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(orch, jobs, db, slskdClient, cfg, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func applySettings(db *store.DB, cfg *config.Config, appLogger *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	settings, err := db.AllSettings(ctx)
	if err != nil {
		appLogger.Warn("Failed to load saved settings", "error", err)
		return
	}
	targets := map[string]*string{
		store.SettingSlskdURL:            &cfg.SlskdURL,
		store.SettingSlskdAPIKey:         &cfg.SlskdAPIKey,
		store.SettingSlskdDownloadDir:    &cfg.SlskdDownloadDir,
		store.SettingSpotifyClientID:     &cfg.SpotifyClientID,
		store.SettingSpotifyClientSecret: &cfg.SpotifyClientSecret,
		store.SettingDownloadsDir:        &cfg.DownloadsDir,
	}
	for key, field := range targets {
		if value, ok := settings[key]; ok && value != "" {
			*field = value
		}
	}
}
