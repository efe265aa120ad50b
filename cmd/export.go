package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/export"
	"github.com/wonderkid/storytime/internal/journal"
)

var exportCmd = &cobra.Command{
	Use:   "export <story-id>",
	Short: "Export a story from the journal as a Markdown storybook",
	Args:  cobra.ExactArgs(1),
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

		rec, err := journal.NewStore(database).Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("output")
		asHTML, _ := cmd.Flags().GetBool("html")
		exporter := export.New(outDir)

		path, err := exporter.Markdown(rec)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)

		if asHTML {
			htmlPath, err := exporter.HTML(rec)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", htmlPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "storybooks", "output directory")
	exportCmd.Flags().Bool("html", false, "also render a standalone HTML page")
	rootCmd.AddCommand(exportCmd)
}
