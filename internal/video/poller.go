// Package video tracks the asynchronous story-video compilation job.
//
// The tracker is armed when the server flags a trigger (or the story hits
// its iteration cap) and then observes the job until a terminal status.
// Polling is an explicit cancellable task: it is driven by a context and
// bounded by exponential backoff with a max-elapsed cutoff, never an
// indefinite fixed-interval timer.
package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/wonderkid/storytime/internal/api"
)

// Backend is the subset of the API client the tracker needs.
type Backend interface {
	VideoStatus(ctx context.Context, storyID string) (*api.VideoStatusResponse, error)
	StartVideo(ctx context.Context, storyID string, manual bool) (*api.VideoStartResponse, error)
}

// ErrJobFailed is returned when the server reports the video job errored.
// The caller should offer a manual retry.
var ErrJobFailed = errors.New("video generation failed")

// errNotReady drives another poll round; never escapes Wait.
var errNotReady = errors.New("video not ready")

// Result is a finished video job.
type Result struct {
	// URL is the playback location, preferring cloud storage over the
	// backend-relative URL when the server supplies both.
	URL     string
	Message string
}

// CheckResult is the outcome of a single status check, mapped to the
// client-side action the caller should take.
type CheckResult struct {
	State api.VideoState
	// URL is set only when State is completed.
	URL     string
	Message string
	// Started is set when the check found the job not yet started and
	// issued the generation-start request.
	Started bool
}

// Tracker observes one story's video job.
type Tracker struct {
	backend    Backend
	interval   time.Duration
	maxElapsed time.Duration
	log        *logrus.Entry
}

// NewTracker creates a Tracker polling at the given initial interval and
// giving up after maxElapsed.
func NewTracker(backend Backend, interval, maxElapsed time.Duration) *Tracker {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	if maxElapsed <= 0 {
		maxElapsed = 5 * time.Minute
	}
	return &Tracker{
		backend:    backend,
		interval:   interval,
		maxElapsed: maxElapsed,
		log:        logrus.WithField("component", "video"),
	}
}

// Check performs one status check and applies the policy table:
//
//	completed            -> report playback URL (gcs preferred), stop
//	processing / started -> advise retrying shortly
//	checking             -> advise retrying shortly
//	not_started          -> issue a generation-start request
//	error                -> report failure with a retry action
func (t *Tracker) Check(ctx context.Context, storyID string) (*CheckResult, error) {
	resp, err := t.backend.VideoStatus(ctx, storyID)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{State: resp.Status, Message: resp.Message}
	switch resp.Status {
	case api.VideoCompleted:
		res.URL = resp.URL()
		if res.URL == "" {
			return nil, fmt.Errorf("video completed for story %s but no URL was returned", storyID)
		}

	case api.VideoProcessing, api.VideoStarted, api.VideoChecking:
		// Nothing to do; the caller retries shortly.

	case api.VideoNotStarted:
		start, err := t.backend.StartVideo(ctx, storyID, true)
		if err != nil {
			return nil, fmt.Errorf("video not started and start request failed: %w", err)
		}
		res.Started = true
		if start.Message != "" {
			res.Message = start.Message
		}
		t.log.WithFields(logrus.Fields{
			"story_id": storyID,
			"status":   start.Status,
		}).Info("requested video generation")

	case api.VideoError:
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, resp.Message)
		}
		return nil, ErrJobFailed

	default:
		return nil, fmt.Errorf("unknown video status %q for story %s", resp.Status, storyID)
	}
	return res, nil
}

// Wait polls until the job completes, fails, or the context/backoff budget
// runs out. After a completed status no further requests are issued.
func (t *Tracker) Wait(ctx context.Context, storyID string) (*Result, error) {
	var result *Result

	operation := func() error {
		check, err := t.Check(ctx, storyID)
		if err != nil {
			if errors.Is(err, ErrJobFailed) {
				return backoff.Permanent(err)
			}
			// Transport errors are retried within the backoff budget.
			t.log.WithField("story_id", storyID).WithError(err).Debug("video status check failed, will retry")
			return err
		}

		if check.State == api.VideoCompleted {
			result = &Result{URL: check.URL, Message: check.Message}
			return nil
		}
		return errNotReady
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.interval
	b.MaxInterval = 4 * t.interval
	b.MaxElapsedTime = t.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errNotReady) {
			return nil, fmt.Errorf("video for story %s was not ready within %s", storyID, t.maxElapsed)
		}
		return nil, err
	}
	return result, nil
}
