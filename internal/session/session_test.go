package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wonderkid/storytime/internal/api"
)

func storyResp() *api.StoryResponse {
	return &api.StoryResponse{
		StoryID:    "story_1",
		StoryTitle: "The Brave Knight",
		Paragraphs: []string{"Once upon a time...", "The knight set out.", "A dragon appeared!"},
		Choices:    []string{"Fight the dragon", "Talk to the dragon", "Run away"},
		ImageURL:   "/api/images/scene1.png",
	}
}

func contResp(n int) *api.ContinueResponse {
	return &api.ContinueResponse{
		StoryID:    "story_1",
		Paragraphs: []string{fmt.Sprintf("Continuation %d", n)},
		Choices:    []string{"Go left", "Go right", "Go home"},
	}
}

// seedSession returns a session in the reading phase with the canned story.
func seedSession(t *testing.T) *Session {
	t.Helper()
	s := New()
	if err := s.Begin("a brave knight"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Seed(storyResp()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestValidateTheme(t *testing.T) {
	tests := []struct {
		name    string
		theme   string
		wantErr error
	}{
		{"valid", "a brave knight", nil},
		{"empty", "", ErrEmptyTheme},
		{"whitespace only", "   \t", ErrEmptyTheme},
		{"exactly 200 runes", strings.Repeat("a", 200), nil},
		{"201 runes", strings.Repeat("a", 201), ErrThemeTooLong},
		{"unicode counted as runes", strings.Repeat("é", 200), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTheme(tt.theme)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTheme(%q) = %v, want %v", tt.theme, err, tt.wantErr)
			}
		})
	}
}

func TestBeginMovesToLoadingNeverComplete(t *testing.T) {
	s := New()
	if err := s.Begin("a brave knight"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.Phase != PhaseLoading {
		t.Errorf("phase after Begin = %s, want %s", s.Phase, PhaseLoading)
	}
}

func TestBeginRejectsBadThemes(t *testing.T) {
	s := New()
	if err := s.Begin(""); !errors.Is(err, ErrEmptyTheme) {
		t.Errorf("Begin(\"\") = %v, want ErrEmptyTheme", err)
	}
	if s.Phase != PhaseInput {
		t.Errorf("phase after rejected Begin = %s, want %s", s.Phase, PhaseInput)
	}
}

func TestSeedFailedReturnsToInput(t *testing.T) {
	s := New()
	if err := s.Begin("a brave knight"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s.SeedFailed()
	if s.Phase != PhaseInput {
		t.Errorf("phase after SeedFailed = %s, want %s", s.Phase, PhaseInput)
	}
	// The user can retry.
	if err := s.Begin("a kind dragon"); err != nil {
		t.Errorf("Begin after SeedFailed: %v", err)
	}
}

func TestSeedGeneratesFallbackStoryID(t *testing.T) {
	s := New()
	if err := s.Begin("a brave knight"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	resp := storyResp()
	resp.StoryID = ""
	if err := s.Seed(resp); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if s.StoryID == "" {
		t.Error("expected a locally generated story ID")
	}
	if !strings.HasPrefix(s.StoryID, "local_") {
		t.Errorf("fallback ID %q should be marked local", s.StoryID)
	}
}

func TestBraveKnightScenario(t *testing.T) {
	// Submit theme, server returns 3 paragraphs + 3 choices; next twice,
	// then choice 0 yields iteration 2 with the cursor on the appended
	// paragraph.
	s := seedSession(t)

	if s.Iteration != 1 {
		t.Fatalf("iteration after seed = %d, want 1", s.Iteration)
	}
	if got, _ := s.Paragraph(); got != "Once upon a time..." {
		t.Errorf("first paragraph = %q", got)
	}

	s.Advance()
	s.Advance()
	if s.CurrentIndex != 2 || s.Phase != PhaseReading {
		t.Fatalf("after two advances: index=%d phase=%s", s.CurrentIndex, s.Phase)
	}

	// Paragraphs exhausted: the next advance offers the choices.
	if got := s.Advance(); got != PhaseChoosing {
		t.Fatalf("phase after exhausting paragraphs = %s, want %s", got, PhaseChoosing)
	}

	req, err := s.Choose(0)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if req.Choice != "Fight the dragon" {
		t.Errorf("request choice = %q", req.Choice)
	}
	if req.StoryID != "story_1" {
		t.Errorf("request story ID = %q", req.StoryID)
	}

	if err := s.ApplyContinuation(contResp(1)); err != nil {
		t.Fatalf("ApplyContinuation: %v", err)
	}
	if s.Iteration != 2 {
		t.Errorf("iteration = %d, want 2", s.Iteration)
	}
	if s.CurrentIndex != 3 {
		t.Errorf("CurrentIndex = %d, want 3 (first appended paragraph)", s.CurrentIndex)
	}
	if got, _ := s.Paragraph(); got != "Continuation 1" {
		t.Errorf("current paragraph = %q, want the appended one", got)
	}
	if s.Phase != PhaseReading {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseReading)
	}
}

func TestInFlightGuard(t *testing.T) {
	s := seedSession(t)
	s.Advance()
	s.Advance()
	s.Advance()

	if _, err := s.Choose(0); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	// A second submit while the continuation is pending must be refused.
	if _, err := s.Choose(1); !errors.Is(err, ErrBusy) && !errors.Is(err, ErrWrongPhase) {
		t.Errorf("double Choose = %v, want busy/wrong-phase rejection", err)
	}
}

func TestChooseOutOfRange(t *testing.T) {
	s := seedSession(t)
	s.Advance()
	s.Advance()
	s.Advance()

	if _, err := s.Choose(3); err == nil {
		t.Error("Choose(3) with 3 choices should fail")
	}
	if _, err := s.Choose(-1); err == nil {
		t.Error("Choose(-1) should fail")
	}
}

// advanceToChoosing reads through all local paragraphs.
func advanceToChoosing(t *testing.T, s *Session) {
	t.Helper()
	for s.Phase == PhaseReading {
		if s.Advance() == PhaseComplete {
			return
		}
	}
}

func TestIterationMonotonicAndCapAtTen(t *testing.T) {
	s := seedSession(t)

	prev := s.Iteration
	round := 1
	for {
		advanceToChoosing(t, s)
		if s.Phase == PhaseComplete {
			break
		}
		req, err := s.Choose(0)
		if err != nil {
			t.Fatalf("round %d Choose: %v", round, err)
		}
		if req.StoryID != "story_1" {
			t.Fatalf("round %d: story ID not carried through: %q", round, req.StoryID)
		}
		if err := s.ApplyContinuation(contResp(round)); err != nil {
			t.Fatalf("round %d ApplyContinuation: %v", round, err)
		}
		if s.Iteration < prev {
			t.Fatalf("iteration decreased: %d -> %d", prev, s.Iteration)
		}
		prev = s.Iteration
		round++
		if round > 30 {
			t.Fatal("session never terminated")
		}
	}

	if s.Iteration != MaxIterations {
		t.Errorf("terminal iteration = %d, want %d", s.Iteration, MaxIterations)
	}
	if len(s.Choices) != 0 {
		t.Errorf("choices present after iteration cap: %v", s.Choices)
	}
	if !s.VideoTriggered {
		t.Error("video trigger should arm at the iteration cap")
	}
	if !s.Terminal() {
		t.Error("session should be terminal")
	}
}

func TestChoicesAbsentTerminatesEarly(t *testing.T) {
	s := seedSession(t)
	advanceToChoosing(t, s)

	if _, err := s.Choose(0); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	resp := contResp(1)
	resp.Choices = nil // server ends the story
	if err := s.ApplyContinuation(resp); err != nil {
		t.Fatalf("ApplyContinuation: %v", err)
	}

	advanceToChoosing(t, s)
	if s.Phase != PhaseComplete {
		t.Errorf("phase = %s, want %s when no choices remain", s.Phase, PhaseComplete)
	}
}

func TestFallbackContinuation(t *testing.T) {
	s := seedSession(t)
	advanceToChoosing(t, s)

	if _, err := s.Choose(0); err != nil {
		t.Fatalf("Choose: %v", err)
	}

	// Continuation timed out: the session degrades locally.
	if err := s.ApplyFallback(); err != nil {
		t.Fatalf("ApplyFallback: %v", err)
	}

	if s.Phase != PhaseReading {
		t.Errorf("phase after fallback = %s, want %s", s.Phase, PhaseReading)
	}
	if len(s.Choices) != 3 {
		t.Errorf("fallback choices = %d, want exactly 3", len(s.Choices))
	}
	if got, ok := s.Paragraph(); !ok || got != fallbackParagraph {
		t.Errorf("current paragraph = %q, want the filler paragraph", got)
	}
	if s.Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", s.Fallbacks)
	}
	if s.Terminal() {
		t.Error("session must not be terminal after a single fallback")
	}
}

func TestVideoTriggerFromServer(t *testing.T) {
	s := seedSession(t)
	advanceToChoosing(t, s)

	if _, err := s.Choose(0); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	resp := contResp(1)
	resp.VideoTrigger = true
	if err := s.ApplyContinuation(resp); err != nil {
		t.Fatalf("ApplyContinuation: %v", err)
	}
	if !s.VideoTriggered {
		t.Error("explicit server trigger should arm the video tracker")
	}
}

func TestImageURLAccumulation(t *testing.T) {
	s := seedSession(t)
	advanceToChoosing(t, s)

	if _, err := s.Choose(0); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	resp := contResp(1)
	resp.ImageURL = "/api/images/scene2.png"
	if err := s.ApplyContinuation(resp); err != nil {
		t.Fatalf("ApplyContinuation: %v", err)
	}

	want := []string{"/api/images/scene1.png", "/api/images/scene2.png"}
	if len(s.ImageURLs) != len(want) {
		t.Fatalf("ImageURLs = %v, want %v", s.ImageURLs, want)
	}
	for i := range want {
		if s.ImageURLs[i] != want[i] {
			t.Errorf("ImageURLs[%d] = %q, want %q", i, s.ImageURLs[i], want[i])
		}
	}
}

func TestCurrentIndexInvariant(t *testing.T) {
	s := seedSession(t)
	for i := 0; i < 20; i++ {
		if s.CurrentIndex >= len(s.Paragraphs) {
			t.Fatalf("invariant violated: index %d, paragraphs %d", s.CurrentIndex, len(s.Paragraphs))
		}
		if s.Advance() == PhaseComplete {
			break
		}
	}
}
