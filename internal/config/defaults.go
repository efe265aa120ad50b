package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the per-user storytime data directory
// (~/.storytime), falling back to the relative path when the home
// directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storytime"
	}
	return filepath.Join(home, ".storytime")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:         "http://localhost:8000",
		AgeGroup:           "5-8",
		ReadingLevel:       "beginner",
		DataDir:            DefaultDataDir(),
		RequestTimeoutSecs: 30,
		Video: VideoConfig{
			PollIntervalSecs: 4,
			MaxPollSecs:      300,
			LegacyEndpoint:   false,
		},
		Gallery: GalleryConfig{
			MaxImages: 0,
		},
	}
}
