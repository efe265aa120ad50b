// Package stubserver is an offline stand-in for the story backend. It
// serves the full client-facing API surface with deterministic canned
// content so the CLI and its tests can run without any AI services.
package stubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wonderkid/storytime/internal/api"
)

// maxRounds mirrors the real backend's per-story round cap.
const maxRounds = 10

// Options configures the stub.
type Options struct {
	Port int
	// VideoReadyAfter is how many status polls a started video job takes
	// to report completed.
	VideoReadyAfter int
}

// Server is the stub backend.
type Server struct {
	opts       Options
	router     chi.Router
	httpServer *http.Server
	log        *logrus.Entry

	mu      sync.Mutex
	stories map[string]*stubStory
	videos  map[string]*stubVideo
}

type stubStory struct {
	theme     string
	iteration int
	total     int // paragraphs handed out so far
}

type stubVideo struct {
	started bool
	polls   int
}

// New creates a stub server.
func New(opts Options) *Server {
	if opts.VideoReadyAfter <= 0 {
		opts.VideoReadyAfter = 3
	}
	s := &Server{
		opts:    opts,
		stories: make(map[string]*stubStory),
		videos:  make(map[string]*stubVideo),
		log:     logrus.WithField("component", "stubserver"),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/generate-story", s.handleGenerateStory)
	r.Post("/api/continue-story", s.handleContinueStory)
	r.Post("/api/generate-story-video", s.handleStartVideo)
	r.Post("/api/generate-video", s.handleStartVideo) // legacy alias
	r.Get("/api/video-status/{storyID}", s.handleVideoStatus)
	r.Get("/api/images/{filename}", s.handleImage)

	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Infof("stub story backend listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:         "healthy",
		Service:        "storytime stub backend",
		AgentAvailable: true,
	})
}

func (s *Server) handleGenerateStory(w http.ResponseWriter, r *http.Request) {
	var req api.StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Theme == "" {
		writeDetail(w, http.StatusBadRequest, "theme is required")
		return
	}

	storyID := "story_" + uuid.New().String()

	s.mu.Lock()
	s.stories[storyID] = &stubStory{theme: req.Theme, iteration: 1, total: 3}
	s.videos[storyID] = &stubVideo{}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.StoryResponse{
		StoryID:          storyID,
		StoryTitle:       "The Tale of " + req.Theme,
		Paragraphs:       openingParagraphs(req.Theme),
		CurrentParagraph: 0,
		Choices:          choicesForRound(1),
		ImageURL:         "/api/images/" + storyID + "_scene1.png",
		ImageGenerated:   true,
		Mood:             "adventure",
		EducationalTheme: "curiosity and courage",
	})
}

func (s *Server) handleContinueStory(w http.ResponseWriter, r *http.Request) {
	var req api.ContinueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	story, ok := s.stories[req.StoryID]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "unknown story_id "+req.StoryID)
		return
	}

	story.iteration++
	iteration := story.iteration
	paragraph := continuationParagraph(story.theme, req.Choice, iteration)
	story.total++
	current := story.total - 1
	s.mu.Unlock()

	resp := api.ContinueResponse{
		StoryID:          req.StoryID,
		Paragraphs:       []string{paragraph},
		CurrentParagraph: current,
		ImageURL:         fmt.Sprintf("/api/images/%s_scene%d.png", req.StoryID, iteration),
		ImageGenerated:   true,
	}

	if iteration >= maxRounds {
		// Final round: no further choices, video compilation triggers.
		resp.Choices = nil
		resp.VideoTrigger = true
		resp.IsComplete = true
	} else {
		resp.Choices = choicesForRound(iteration)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartVideo(w http.ResponseWriter, r *http.Request) {
	var req api.VideoStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	video, ok := s.videos[req.StoryID]
	if !ok {
		video = &stubVideo{}
		s.videos[req.StoryID] = video
	}
	already := video.started
	video.started = true
	s.mu.Unlock()

	status := "started"
	message := "Video generation started"
	if already {
		status = "processing"
		message = "Video generation already in progress"
	}
	writeJSON(w, http.StatusOK, api.VideoStartResponse{Status: status, Message: message})
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")

	s.mu.Lock()
	video, ok := s.videos[storyID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, api.VideoStatusResponse{
			Status:  api.VideoError,
			Message: "unknown story " + storyID,
		})
		return
	}

	if !video.started {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, api.VideoStatusResponse{Status: api.VideoNotStarted})
		return
	}

	video.polls++
	done := video.polls >= s.opts.VideoReadyAfter
	s.mu.Unlock()

	if !done {
		writeJSON(w, http.StatusOK, api.VideoStatusResponse{
			Status:  api.VideoProcessing,
			Message: "Compiling your story video, check back shortly",
		})
		return
	}

	writeJSON(w, http.StatusOK, api.VideoStatusResponse{
		Status:   api.VideoCompleted,
		VideoURL: "/api/videos/" + storyID + ".mp4",
		GCSURL:   "https://storage.googleapis.com/storytime-stub/" + storyID + ".mp4",
	})
}

// handleImage serves a tiny placeholder PNG for any filename.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(placeholderPNG)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeDetail mirrors the real backend's {"detail": ...} error envelope.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
