// Package progress provides terminal feedback while the backend works on
// a request of unknown duration (story generation, video compilation).
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Indicator shows that a long-running backend call is in flight.
type Indicator interface {
	Start(message string)
	Done()
}

// New returns a spinner for interactive terminals, or a line-per-event
// reporter when running under CI.
func New() Indicator {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIIndicator{}
	}
	return &SpinnerIndicator{}
}

// SpinnerIndicator animates a progressbar spinner until Done.
type SpinnerIndicator struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
}

func (s *SpinnerIndicator) Start(message string) {
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	s.stop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				_ = s.bar.Add(1)
			}
		}
	}()
}

func (s *SpinnerIndicator) Done() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// CIIndicator prints plain lines suitable for CI logs.
type CIIndicator struct{}

func (c *CIIndicator) Start(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (c *CIIndicator) Done() {}
