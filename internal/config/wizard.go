package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .storytime.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to storytime! Let's configure your story backend.")
	fmt.Println()

	defaults := DefaultConfig()

	// 1. Backend base URL.
	urlPrompt := promptui.Prompt{
		Label:   "Story backend base URL",
		Default: defaults.APIBaseURL,
		Validate: func(s string) error {
			u, err := url.Parse(s)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("must be an absolute http(s) URL")
			}
			return nil
		},
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}

	// 2. Age group.
	agePrompt := promptui.Select{
		Label: "Reader age group",
		Items: []string{"3-5", "5-8", "8-12"},
	}
	_, ageGroup, err := agePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("age group selection: %w", err)
	}

	// 3. Reading level.
	levelPrompt := promptui.Select{
		Label: "Reading level",
		Items: []string{"beginner", "intermediate", "advanced"},
	}
	_, readingLevel, err := levelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("reading level selection: %w", err)
	}

	// 4. Video poll interval.
	pollPrompt := promptui.Prompt{
		Label:   "Video status poll interval (seconds)",
		Default: strconv.Itoa(defaults.Video.PollIntervalSecs),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	pollStr, err := pollPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("poll interval: %w", err)
	}
	pollSecs, _ := strconv.Atoi(pollStr)

	cfg := defaults
	cfg.APIBaseURL = baseURL
	cfg.AgeGroup = ageGroup
	cfg.ReadingLevel = readingLevel
	cfg.Video.PollIntervalSecs = pollSecs
	if cfg.Video.MaxPollSecs < pollSecs {
		cfg.Video.MaxPollSecs = pollSecs
	}

	// Save to .storytime.yml.
	configPath := ".storytime.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
