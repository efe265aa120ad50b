package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/wonderkid/storytime/internal/api"
	"github.com/wonderkid/storytime/internal/config"
	"github.com/wonderkid/storytime/internal/db"
	"github.com/wonderkid/storytime/internal/video"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `storytime init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newClient builds the backend client from config.
func newClient(cfg *config.Config) (*api.Client, error) {
	return api.NewClient(api.Options{
		BaseURL:             cfg.APIBaseURL,
		Timeout:             time.Duration(cfg.RequestTimeoutSecs) * time.Second,
		AgeGroup:            cfg.AgeGroup,
		ReadingLevel:        cfg.ReadingLevel,
		LegacyVideoEndpoint: cfg.Video.LegacyEndpoint,
	})
}

// newTracker builds the video tracker from config.
func newTracker(cfg *config.Config, client *api.Client) *video.Tracker {
	return video.NewTracker(client,
		time.Duration(cfg.Video.PollIntervalSecs)*time.Second,
		time.Duration(cfg.Video.MaxPollSecs)*time.Second,
	)
}

// openDatabase opens the storytime database under the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "storytime.db"))
}
