package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/api"
	"github.com/wonderkid/storytime/internal/config"
	"github.com/wonderkid/storytime/internal/gallery"
	"github.com/wonderkid/storytime/internal/journal"
	"github.com/wonderkid/storytime/internal/progress"
	"github.com/wonderkid/storytime/internal/session"
	"github.com/wonderkid/storytime/internal/video"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start an interactive story session",
	Long: `Asks for a story theme, generates a branching story from the backend,
and reads it paragraph by paragraph. Your choices steer each round; after
the final round the compiled story video is offered for watching.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().String("theme", "", "story theme (prompted interactively when omitted)")
	playCmd.Flags().Bool("no-video", false, "skip the video offer at the end")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("opening local database: %w", err)
	}
	defer database.Close()

	galleryStore := gallery.NewStore(database, cfg.Gallery.MaxImages)
	journalStore := journal.NewStore(database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	theme, _ := cmd.Flags().GetString("theme")
	if theme == "" {
		theme, err = promptTheme()
		if err != nil {
			return err
		}
	}

	if _, err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: backend health check failed (%v); trying anyway.\n", err)
		fmt.Fprintln(os.Stderr, "For an offline session, run `storytime stub` and point api_base_url at it.")
	}

	s := session.New()
	if err := s.Begin(theme); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	indicator := progress.New()
	indicator.Start("Dreaming up your story...")
	resp, err := client.GenerateStory(ctx, s.Theme)
	indicator.Done()
	if err != nil {
		s.SeedFailed()
		return fmt.Errorf("the storyteller is unavailable right now: %w", err)
	}
	if err := s.Seed(resp); err != nil {
		return fmt.Errorf("unusable story response: %w", err)
	}

	if s.Title != "" {
		fmt.Printf("\n  ✦ %s ✦\n\n", s.Title)
	}
	captureImage(ctx, galleryStore, client, s, resp.ImageURL)

	start := time.Now()
	reader := bufio.NewReader(os.Stdin)

	for s.Phase != session.PhaseComplete {
		if err := ctx.Err(); err != nil {
			break
		}

		switch s.Phase {
		case session.PhaseReading:
			paragraph, ok := s.Paragraph()
			if !ok {
				s.Advance()
				continue
			}
			fmt.Printf("%s\n\n", paragraph)
			if next := peekNext(s); next == session.PhaseReading {
				pause(reader)
			}
			s.Advance()

		case session.PhaseChoosing:
			idx, err := promptChoice(s.Choices)
			if err != nil {
				return err
			}
			req, err := s.Choose(idx)
			if err != nil {
				return fmt.Errorf("submitting choice: %w", err)
			}

			indicator.Start("Writing the next part...")
			cont, err := client.ContinueStory(ctx, req)
			indicator.Done()
			if err != nil {
				// Degraded mode: keep the story going with local filler
				// content rather than ending the session.
				fmt.Fprintln(os.Stderr, "The storyteller stumbled; continuing with a little improvisation.")
				if err := s.ApplyFallback(); err != nil {
					return fmt.Errorf("applying fallback content: %w", err)
				}
				continue
			}
			if err := s.ApplyContinuation(cont); err != nil {
				return fmt.Errorf("applying continuation: %w", err)
			}
			captureImage(ctx, galleryStore, client, s, cont.ImageURL)
		}
	}

	completed, total := s.Progress()
	rec := journal.Record{
		StoryID:             s.StoryID,
		Title:               s.Title,
		Theme:               s.Theme,
		Paragraphs:          s.Paragraphs,
		ChoicesMade:         s.ChoicesMade,
		ImageURLs:           s.ImageURLs,
		CompletedParagraphs: completed,
		TotalParagraphs:     total,
		ReadingSeconds:      int(time.Since(start).Seconds()),
		Completed:           s.Phase == session.PhaseComplete,
		CompletedAt:         time.Now(),
	}
	if err := journalStore.Save(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save reading journal: %v\n", err)
	}

	if s.Phase != session.PhaseComplete {
		fmt.Println("\nStory paused. See you next time!")
		return nil
	}

	fmt.Println("The End.")
	if s.Fallbacks > 0 {
		fmt.Printf("(%d part(s) were improvised locally because the backend was unreachable.)\n", s.Fallbacks)
	}

	noVideo, _ := cmd.Flags().GetBool("no-video")
	if s.VideoTriggered && !noVideo {
		offerVideo(ctx, cfg, client, s.StoryID)
	}

	fmt.Printf("\nStory saved. Export it with: storytime export %s\n", s.StoryID)
	return nil
}

// promptTheme collects and validates the free-text theme.
func promptTheme() (string, error) {
	prompt := promptui.Prompt{
		Label: "What should the story be about",
		Validate: func(s string) error {
			return session.ValidateTheme(s)
		},
	}
	theme, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("theme prompt: %w", err)
	}
	return theme, nil
}

// promptChoice lets the reader pick the next branch.
func promptChoice(choices []string) (int, error) {
	prompt := promptui.Select{
		Label: "What happens next",
		Items: choices,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("choice prompt: %w", err)
	}
	return idx, nil
}

// pause waits for Enter between paragraphs.
func pause(reader *bufio.Reader) {
	fmt.Print("  (press Enter to keep reading) ")
	_, _ = reader.ReadString('\n')
	fmt.Println()
}

// peekNext reports the phase Advance would move to, without moving.
func peekNext(s *session.Session) session.Phase {
	if s.CurrentIndex+1 < len(s.Paragraphs) {
		return session.PhaseReading
	}
	if len(s.Choices) > 0 && s.Iteration < session.MaxIterations {
		return session.PhaseChoosing
	}
	return session.PhaseComplete
}

// captureImage stores a newly generated illustration in the gallery.
func captureImage(ctx context.Context, store *gallery.Store, client *api.Client, s *session.Session, imageURL string) {
	if imageURL == "" {
		return
	}
	resolved := client.ResolveMediaURL(imageURL)
	if api.IsDataPayload(resolved) {
		// Embedded payloads are kept as-is; the gallery stores references.
		resolved = imageURL
	}
	if _, err := store.Add(ctx, resolved, s.StoryID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save illustration: %v\n", err)
	}
}

// offerVideo asks whether to wait for the compiled story video and, if so,
// runs the cancellable poller until it is ready.
func offerVideo(ctx context.Context, cfg *config.Config, client *api.Client, storyID string) {
	confirm := promptui.Prompt{
		Label:     "Your story video is being compiled. Wait and watch",
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		fmt.Printf("You can check later with: storytime video %s --wait\n", storyID)
		return
	}

	indicator := progress.New()
	indicator.Start("Compiling your story video...")
	result, err := newTracker(cfg, client).Wait(ctx, storyID)
	indicator.Done()

	switch {
	case err == nil:
		fmt.Printf("Your story video is ready: %s\n", client.ResolveMediaURL(result.URL))
	case errors.Is(err, video.ErrJobFailed):
		fmt.Fprintf(os.Stderr, "Video generation failed: %v\nRetry with: storytime video %s --wait\n", err, storyID)
	default:
		fmt.Fprintf(os.Stderr, "Could not fetch the video: %v\nCheck later with: storytime video %s\n", err, storyID)
	}
}
