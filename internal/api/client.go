// Package api implements the HTTP client for the storytime backend.
//
// All operations carry the story ID explicitly in the request or path;
// the client itself holds no per-story state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	AgeGroup     string
	ReadingLevel string
	// LegacyVideoEndpoint selects POST /api/generate-video instead of
	// /api/generate-story-video for starting video compilation.
	LegacyVideoEndpoint bool
	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client
}

// Client talks to the story backend.
type Client struct {
	baseURL      *url.URL
	http         *http.Client
	ageGroup     string
	readingLevel string
	legacyVideo  bool
	log          *logrus.Entry
}

// NewClient creates a Client for the given backend.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http(s)", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	ageGroup := opts.AgeGroup
	if ageGroup == "" {
		ageGroup = "5-8"
	}
	readingLevel := opts.ReadingLevel
	if readingLevel == "" {
		readingLevel = "beginner"
	}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		ageGroup:     ageGroup,
		readingLevel: readingLevel,
		legacyVideo:  opts.LegacyVideoEndpoint,
		log:          logrus.WithField("component", "api"),
	}, nil
}

// GenerateStory asks the backend for a new branching story around the theme.
func (c *Client) GenerateStory(ctx context.Context, theme string) (*StoryResponse, error) {
	req := StoryRequest{
		Theme:        theme,
		AgeGroup:     c.ageGroup,
		ReadingLevel: c.readingLevel,
	}

	var resp StoryResponse
	if err := c.postJSON(ctx, "/api/generate-story", req, &resp); err != nil {
		return nil, fmt.Errorf("generating story: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"story_id":   resp.StoryID,
		"paragraphs": len(resp.Paragraphs),
		"choices":    len(resp.Choices),
	}).Debug("story generated")
	return &resp, nil
}

// ContinueStory posts the reader's choice and returns the next round.
func (c *Client) ContinueStory(ctx context.Context, req ContinueRequest) (*ContinueResponse, error) {
	var resp ContinueResponse
	if err := c.postJSON(ctx, "/api/continue-story", req, &resp); err != nil {
		return nil, fmt.Errorf("continuing story %s: %w", req.StoryID, err)
	}
	return &resp, nil
}

// StartVideo requests compilation of the story video.
func (c *Client) StartVideo(ctx context.Context, storyID string, manual bool) (*VideoStartResponse, error) {
	path := "/api/generate-story-video"
	if c.legacyVideo {
		path = "/api/generate-video"
	}

	req := VideoStartRequest{StoryID: storyID, ManualTrigger: manual}
	var resp VideoStartResponse
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("starting video for story %s: %w", storyID, err)
	}
	return &resp, nil
}

// VideoStatus queries the state of the story's video compilation job.
func (c *Client) VideoStatus(ctx context.Context, storyID string) (*VideoStatusResponse, error) {
	var resp VideoStatusResponse
	if err := c.getJSON(ctx, "/api/video-status/"+url.PathEscape(storyID), &resp); err != nil {
		return nil, fmt.Errorf("checking video status for story %s: %w", storyID, err)
	}
	return &resp, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/api/health", &resp); err != nil {
		return nil, fmt.Errorf("checking backend health: %w", err)
	}
	return &resp, nil
}

// ResolveMediaURL turns a server-provided media reference into a fetchable
// absolute URL. Absolute http(s) references (cloud storage URLs) and data:
// payloads pass through unchanged; relative paths are joined to the base URL.
func (c *Client) ResolveMediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref, "/")
	return u.String()
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, req.URL.Path, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
		}
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}
