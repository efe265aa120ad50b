// Package session implements the branching-story session state machine.
//
// A session moves through input -> loading -> reading <-> choosing ->
// complete. The machine itself performs no I/O: callers obtain requests
// from it, talk to the backend, and feed responses back in. The story ID
// travels explicitly in every request/response pair.
package session

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wonderkid/storytime/internal/api"
)

// Phase is the current step of the story state machine.
type Phase string

const (
	PhaseInput    Phase = "input"
	PhaseLoading  Phase = "loading"
	PhaseReading  Phase = "reading"
	PhaseChoosing Phase = "choosing"
	PhaseComplete Phase = "complete"
)

// MaxIterations is the fixed number of paragraph-and-choice rounds after
// which a session terminates.
const MaxIterations = 10

// MaxThemeLen is the longest accepted theme, in runes.
const MaxThemeLen = 200

var (
	// ErrBusy is returned when a request is submitted while a previous
	// one is still in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrEmptyTheme is returned for blank theme input.
	ErrEmptyTheme = errors.New("theme must not be empty")
	// ErrThemeTooLong is returned for themes over MaxThemeLen runes.
	ErrThemeTooLong = fmt.Errorf("theme must be at most %d characters", MaxThemeLen)
	// ErrWrongPhase is returned when an operation is invalid in the
	// session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
)

// fallbackParagraph keeps the experience un-blocked when a continuation
// request fails; see ApplyFallback.
const fallbackParagraph = "The adventure took a quiet turn while the storyteller caught " +
	"their breath. Our hero looked around, took a deep brave breath, and wondered what " +
	"wonderful thing might happen next."

// fallbackChoices are offered alongside the fallback paragraph. Exactly
// three, matching the backend's usual choice count.
var fallbackChoices = []string{
	"Keep exploring ahead",
	"Try a different path",
	"Rest and look around",
}

// Session is the view state of one branching story.
type Session struct {
	Phase            Phase
	StoryID          string
	Theme            string
	Title            string
	Mood             string
	EducationalTheme string

	// Paragraphs accumulates every paragraph received so far;
	// CurrentIndex points at the one being read. Invariant:
	// CurrentIndex < len(Paragraphs) whenever Paragraphs is non-empty.
	Paragraphs   []string
	CurrentIndex int

	// Choices for the next round; empty once the session is terminal.
	Choices     []string
	ChoicesMade []string

	// Iteration counts completed rounds. Monotonically non-decreasing;
	// at MaxIterations the choices are cleared for good.
	Iteration int

	// ImageURLs accumulates illustration references in arrival order.
	ImageURLs []string

	// VideoTriggered is set when the server flags video compilation or
	// the iteration cap is reached.
	VideoTriggered bool

	// Fallbacks counts degraded-mode continuations (failed requests
	// papered over with local filler content).
	Fallbacks int

	pending bool
	log     *logrus.Entry
}

// New returns a fresh session awaiting theme input.
func New() *Session {
	return &Session{
		Phase: PhaseInput,
		log:   logrus.WithField("component", "session"),
	}
}

// ValidateTheme checks free-text theme input.
func ValidateTheme(theme string) error {
	trimmed := strings.TrimSpace(theme)
	if trimmed == "" {
		return ErrEmptyTheme
	}
	if utf8.RuneCountInString(trimmed) > MaxThemeLen {
		return ErrThemeTooLong
	}
	return nil
}

// Begin validates the theme and moves input -> loading. The caller then
// issues the generate-story request and feeds the result to Seed (or
// SeedFailed on error).
func (s *Session) Begin(theme string) error {
	if s.Phase != PhaseInput {
		return fmt.Errorf("%w: begin from %s", ErrWrongPhase, s.Phase)
	}
	if s.pending {
		return ErrBusy
	}
	if err := ValidateTheme(theme); err != nil {
		return err
	}

	s.Theme = strings.TrimSpace(theme)
	s.Phase = PhaseLoading
	s.pending = true
	return nil
}

// Seed populates the session from a successful generate-story response and
// moves loading -> reading. A missing story_id is tolerated with a locally
// generated fallback ID.
func (s *Session) Seed(resp *api.StoryResponse) error {
	if s.Phase != PhaseLoading {
		return fmt.Errorf("%w: seed from %s", ErrWrongPhase, s.Phase)
	}
	if len(resp.Paragraphs) == 0 {
		s.failLoading()
		return fmt.Errorf("story response contained no paragraphs")
	}

	storyID := resp.StoryID
	if storyID == "" {
		storyID = "local_" + uuid.New().String()
		s.log.WithField("story_id", storyID).Warn("server response missing story_id, generated local fallback")
	}

	s.StoryID = storyID
	s.Title = resp.StoryTitle
	s.Mood = resp.Mood
	s.EducationalTheme = resp.EducationalTheme
	s.Paragraphs = append([]string(nil), resp.Paragraphs...)
	s.CurrentIndex = 0
	s.Choices = append([]string(nil), resp.Choices...)
	s.Iteration = 1
	if resp.ImageURL != "" {
		s.ImageURLs = append(s.ImageURLs, resp.ImageURL)
	}
	if resp.IsComplete {
		s.Choices = nil
	}

	s.Phase = PhaseReading
	s.pending = false
	return nil
}

// SeedFailed records a failed story generation and returns to input so the
// user can retry.
func (s *Session) SeedFailed() {
	if s.Phase == PhaseLoading {
		s.failLoading()
	}
}

func (s *Session) failLoading() {
	s.Phase = PhaseInput
	s.pending = false
}

// Paragraph returns the paragraph currently being read.
func (s *Session) Paragraph() (string, bool) {
	if s.CurrentIndex < len(s.Paragraphs) {
		return s.Paragraphs[s.CurrentIndex], true
	}
	return "", false
}

// Advance moves to the next paragraph, or to choosing/complete when the
// local paragraphs are exhausted. Returns the resulting phase.
func (s *Session) Advance() Phase {
	if s.Phase != PhaseReading {
		return s.Phase
	}

	if s.CurrentIndex+1 < len(s.Paragraphs) {
		s.CurrentIndex++
		return s.Phase
	}

	if len(s.Choices) > 0 && s.Iteration < MaxIterations {
		s.Phase = PhaseChoosing
	} else {
		s.Phase = PhaseComplete
	}
	return s.Phase
}

// Choose submits the choice at index i and moves choosing -> loading,
// returning the continuation request to post. The caller feeds the reply
// to ApplyContinuation, or calls ApplyFallback on failure.
func (s *Session) Choose(i int) (api.ContinueRequest, error) {
	if s.Phase != PhaseChoosing {
		return api.ContinueRequest{}, fmt.Errorf("%w: choose from %s", ErrWrongPhase, s.Phase)
	}
	if s.pending {
		return api.ContinueRequest{}, ErrBusy
	}
	if i < 0 || i >= len(s.Choices) {
		return api.ContinueRequest{}, fmt.Errorf("choice index %d out of range [0,%d)", i, len(s.Choices))
	}

	choice := s.Choices[i]
	s.ChoicesMade = append(s.ChoicesMade, choice)
	s.Phase = PhaseLoading
	s.pending = true

	return api.ContinueRequest{
		Choice:           choice,
		StoryID:          s.StoryID,
		CurrentParagraph: s.CurrentIndex,
	}, nil
}

// ApplyContinuation appends the continuation round and moves loading ->
// reading, pointing CurrentIndex at the first newly appended paragraph.
func (s *Session) ApplyContinuation(resp *api.ContinueResponse) error {
	if s.Phase != PhaseLoading {
		return fmt.Errorf("%w: continuation from %s", ErrWrongPhase, s.Phase)
	}
	if len(resp.Paragraphs) == 0 {
		return fmt.Errorf("continuation response contained no paragraphs")
	}

	// The server echoes the story ID; an unexpected switch is tolerated
	// but logged, keeping the session's ID authoritative.
	if resp.StoryID != "" && resp.StoryID != s.StoryID {
		s.log.WithFields(logrus.Fields{
			"session_story_id":  s.StoryID,
			"response_story_id": resp.StoryID,
		}).Warn("continuation response carried a different story_id")
	}

	s.CurrentIndex = len(s.Paragraphs)
	s.Paragraphs = append(s.Paragraphs, resp.Paragraphs...)
	s.Choices = append([]string(nil), resp.Choices...)
	s.Iteration++
	if resp.ImageURL != "" {
		s.ImageURLs = append(s.ImageURLs, resp.ImageURL)
	}
	if resp.VideoTrigger {
		s.VideoTriggered = true
	}

	s.finishRound(resp.IsComplete)
	return nil
}

// ApplyFallback records a failed continuation and appends locally generated
// filler content so the session can go on: one paragraph and exactly three
// placeholder choices. This is the deliberate degraded mode; it is counted
// and logged rather than silently absorbed.
func (s *Session) ApplyFallback() error {
	if s.Phase != PhaseLoading {
		return fmt.Errorf("%w: fallback from %s", ErrWrongPhase, s.Phase)
	}

	s.Fallbacks++
	s.log.WithFields(logrus.Fields{
		"story_id":  s.StoryID,
		"iteration": s.Iteration,
		"fallbacks": s.Fallbacks,
	}).Warn("continuation failed, applying local fallback content")

	s.CurrentIndex = len(s.Paragraphs)
	s.Paragraphs = append(s.Paragraphs, fallbackParagraph)
	s.Choices = append([]string(nil), fallbackChoices...)
	s.Iteration++

	s.finishRound(false)
	return nil
}

// finishRound applies the terminal rules shared by real and fallback
// continuations: at the iteration cap choices disappear for good and the
// video trigger arms.
func (s *Session) finishRound(serverComplete bool) {
	if s.Iteration >= MaxIterations {
		s.Choices = nil
		s.VideoTriggered = true
	}
	if serverComplete {
		s.Choices = nil
	}

	s.Phase = PhaseReading
	s.pending = false
}

// Terminal reports whether no further rounds are possible.
func (s *Session) Terminal() bool {
	return len(s.Choices) == 0 || s.Iteration >= MaxIterations
}

// Progress returns completed/total paragraph counts for journaling.
func (s *Session) Progress() (completed, total int) {
	total = len(s.Paragraphs)
	completed = s.CurrentIndex
	if s.Phase == PhaseComplete {
		completed = total
	}
	return completed, total
}
