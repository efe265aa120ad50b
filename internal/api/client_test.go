package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8000", "ftp://example.com"} {
		if _, err := NewClient(Options{BaseURL: u}); err == nil {
			t.Errorf("NewClient(%q) should fail", u)
		}
	}
}

func TestGenerateStorySendsDefaults(t *testing.T) {
	var got StoryRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate-story" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(StoryResponse{
			StoryID:    "story_1",
			Paragraphs: []string{"Once..."},
			Choices:    []string{"a", "b", "c"},
		})
	}))

	resp, err := client.GenerateStory(context.Background(), "a brave knight")
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if got.Theme != "a brave knight" {
		t.Errorf("theme = %q", got.Theme)
	}
	if got.AgeGroup != "5-8" || got.ReadingLevel != "beginner" {
		t.Errorf("defaults not applied: %+v", got)
	}
	if resp.StoryID != "story_1" {
		t.Errorf("story ID = %q", resp.StoryID)
	}
}

func TestContinueStoryNullChoices(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"story_id":"story_1","paragraphs":["The end."],"choices":null,"current_paragraph":5,"image_generated":false}`))
	}))

	resp, err := client.ContinueStory(context.Background(), ContinueRequest{
		Choice: "x", StoryID: "story_1", CurrentParagraph: 4,
	})
	if err != nil {
		t.Fatalf("ContinueStory: %v", err)
	}
	if resp.Choices != nil {
		t.Errorf("choices = %v, want nil for the final round", resp.Choices)
	}
}

func TestStatusErrorStringDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"Reading Agent system not available"}`))
	}))

	_, err := client.GenerateStory(context.Background(), "x")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", statusErr.Code)
	}
	if statusErr.Message != "Reading Agent system not available" {
		t.Errorf("message = %q", statusErr.Message)
	}
}

func TestStatusErrorObjectDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":{"error":"Story generation failed","message":"Unable to generate story."}}`))
	}))

	_, err := client.GenerateStory(context.Background(), "x")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Message != "Unable to generate story." {
		t.Errorf("message = %q", statusErr.Message)
	}
}

func TestLegacyVideoEndpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(VideoStartResponse{Status: "started"})
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL, LegacyVideoEndpoint: true})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.StartVideo(context.Background(), "story_1", true); err != nil {
		t.Fatalf("StartVideo: %v", err)
	}
	if path != "/api/generate-video" {
		t.Errorf("path = %q, want the legacy endpoint", path)
	}
}

func TestResolveMediaURL(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "https://backend.example.com"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct{ ref, want string }{
		{"", ""},
		{"/api/images/x.png", "https://backend.example.com/api/images/x.png"},
		{"api/images/x.png", "https://backend.example.com/api/images/x.png"},
		{"https://storage.googleapis.com/b/x.png", "https://storage.googleapis.com/b/x.png"},
		{"data:image/png;base64,aGk=", "data:image/png;base64,aGk="},
	}
	for _, tt := range tests {
		if got := client.ResolveMediaURL(tt.ref); got != tt.want {
			t.Errorf("ResolveMediaURL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestVideoStatusURLPreference(t *testing.T) {
	resp := VideoStatusResponse{
		Status:   VideoCompleted,
		VideoURL: "/api/videos/x.mp4",
		GCSURL:   "https://storage.googleapis.com/b/x.mp4",
	}
	if resp.URL() != resp.GCSURL {
		t.Errorf("URL() = %q, want the gcs URL", resp.URL())
	}

	resp.GCSURL = ""
	if resp.URL() != "/api/videos/x.mp4" {
		t.Errorf("URL() = %q, want video_url when gcs absent", resp.URL())
	}
}
