package config

// Config is the top-level storytime configuration, corresponding to .storytime.yml.
type Config struct {
	APIBaseURL         string        `yaml:"api_base_url" koanf:"api_base_url"`
	AgeGroup           string        `yaml:"age_group" koanf:"age_group"`
	ReadingLevel       string        `yaml:"reading_level" koanf:"reading_level"`
	DataDir            string        `yaml:"data_dir" koanf:"data_dir"`
	RequestTimeoutSecs int           `yaml:"request_timeout_secs" koanf:"request_timeout_secs"`
	Video              VideoConfig   `yaml:"video" koanf:"video"`
	Gallery            GalleryConfig `yaml:"gallery" koanf:"gallery"`
}

// VideoConfig controls how the video-status poller behaves.
type VideoConfig struct {
	// PollIntervalSecs is the initial delay between status checks.
	PollIntervalSecs int `yaml:"poll_interval_secs" koanf:"poll_interval_secs"`
	// MaxPollSecs bounds the total time spent waiting for a video job.
	MaxPollSecs int `yaml:"max_poll_secs" koanf:"max_poll_secs"`
	// LegacyEndpoint selects the older /api/generate-video start route
	// instead of /api/generate-story-video.
	LegacyEndpoint bool `yaml:"legacy_endpoint" koanf:"legacy_endpoint"`
}

// GalleryConfig controls the local illustration gallery.
type GalleryConfig struct {
	// MaxImages caps the gallery size; oldest entries are evicted when the
	// cap is exceeded. Zero means unbounded.
	MaxImages int `yaml:"max_images" koanf:"max_images"`
}
