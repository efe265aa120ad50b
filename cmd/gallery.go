package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage the local illustration gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored illustration URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openGallery()
		if err != nil {
			return err
		}
		defer closeDB()

		images, err := store.List(context.Background())
		if err != nil {
			return err
		}
		if len(images) == 0 {
			fmt.Println("The gallery is empty. Play a story to collect illustrations!")
			return nil
		}
		for _, img := range images {
			if img.StoryID != "" {
				fmt.Printf("%s  (%s)\n", img.URL, img.StoryID)
			} else {
				fmt.Println(img.URL)
			}
		}
		return nil
	},
}

var galleryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored illustrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openGallery()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.Clear(context.Background()); err != nil {
			return err
		}
		fmt.Println("Gallery cleared.")
		return nil
	},
}

func openGallery() (*gallery.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening local database: %w", err)
	}
	return gallery.NewStore(database, cfg.Gallery.MaxImages), func() { database.Close() }, nil
}

func init() {
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryClearCmd)
	rootCmd.AddCommand(galleryCmd)
}
