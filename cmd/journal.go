package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show reading history, stats, and achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening local database: %w", err)
		}
		defer database.Close()

		store := journal.NewStore(database)
		ctx := context.Background()

		records, err := store.List(ctx)
		if err != nil {
			return err
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Level %d reader — %d stories read, %s of reading",
			stats.Level, stats.StoriesRead,
			(time.Duration(stats.TotalReadingSeconds) * time.Second).Round(time.Second))
		if stats.Streak > 0 {
			fmt.Printf(", %d-day streak", stats.Streak)
		}
		fmt.Println()

		if len(stats.Achievements) > 0 {
			fmt.Println("\nAchievements:")
			for _, a := range stats.Achievements {
				fmt.Printf("  %s — %s\n", a.Title, a.Description)
			}
		}

		if len(records) == 0 {
			fmt.Println("\nNo stories yet. Start one with: storytime play")
			return nil
		}

		fmt.Println("\nStories:")
		for _, rec := range records {
			title := rec.Title
			if title == "" {
				title = rec.Theme
			}
			status := "in progress"
			if rec.Completed {
				status = "finished"
			}
			fmt.Printf("  %-40s %s  %d/%d paragraphs  [%s]\n",
				title, rec.StoryID, rec.CompletedParagraphs, rec.TotalParagraphs, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
}
