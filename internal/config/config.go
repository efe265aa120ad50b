package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (STORYTIME_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: STORYTIME_API_BASE_URL -> api_base_url, etc.
	if err := k.Load(env.Provider("STORYTIME_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "STORYTIME_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validAgeGroups is the set of age groups the backend understands.
var validAgeGroups = map[string]bool{
	"3-5":  true,
	"5-8":  true,
	"8-12": true,
}

// validReadingLevels is the set of recognized reading level values.
var validReadingLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q: must be an absolute http(s) URL", c.APIBaseURL)
	}

	if c.AgeGroup != "" && !validAgeGroups[c.AgeGroup] {
		return fmt.Errorf("invalid age_group %q: must be one of 3-5, 5-8, 8-12", c.AgeGroup)
	}

	if c.ReadingLevel != "" && !validReadingLevels[c.ReadingLevel] {
		return fmt.Errorf("invalid reading_level %q: must be one of beginner, intermediate, advanced", c.ReadingLevel)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("request_timeout_secs must be positive")
	}

	if c.Video.PollIntervalSecs <= 0 {
		return fmt.Errorf("video.poll_interval_secs must be positive")
	}
	if c.Video.MaxPollSecs < c.Video.PollIntervalSecs {
		return fmt.Errorf("video.max_poll_secs must be at least video.poll_interval_secs")
	}

	if c.Gallery.MaxImages < 0 {
		return fmt.Errorf("gallery.max_images must be non-negative")
	}

	return nil
}
