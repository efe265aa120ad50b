package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/api"
	"github.com/wonderkid/storytime/internal/progress"
	"github.com/wonderkid/storytime/internal/video"
)

var videoCmd = &cobra.Command{
	Use:   "video <story-id>",
	Short: "Check or wait for a story's compiled video",
	Args:  cobra.ExactArgs(1),
	RunE:  runVideo,
}

func init() {
	videoCmd.Flags().Bool("wait", false, "poll until the video is ready")
	rootCmd.AddCommand(videoCmd)
}

func runVideo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	storyID := args[0]
	tracker := newTracker(cfg, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wait, _ := cmd.Flags().GetBool("wait")
	if wait {
		indicator := progress.New()
		indicator.Start("Waiting for your story video...")
		result, err := tracker.Wait(ctx, storyID)
		indicator.Done()
		if err != nil {
			if errors.Is(err, video.ErrJobFailed) {
				return fmt.Errorf("%w\nRetry with: storytime video %s --wait", err, storyID)
			}
			return err
		}
		fmt.Printf("Your story video is ready: %s\n", client.ResolveMediaURL(result.URL))
		return nil
	}

	check, err := tracker.Check(ctx, storyID)
	if err != nil {
		if errors.Is(err, video.ErrJobFailed) {
			return fmt.Errorf("%w\nRetry with: storytime video %s", err, storyID)
		}
		return err
	}

	switch {
	case check.State == api.VideoCompleted:
		fmt.Printf("Ready: %s\n", client.ResolveMediaURL(check.URL))
	case check.Started:
		fmt.Println("Video generation requested; check back shortly.")
	default:
		msg := check.Message
		if msg == "" {
			msg = "still compiling, try again in a few seconds"
		}
		fmt.Printf("Status %s: %s\n", check.State, msg)
	}
	return nil
}
