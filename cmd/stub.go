package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonderkid/storytime/internal/stubserver"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run an offline stub of the story backend",
	Long: `Serves the story backend API with deterministic canned content on
localhost, so storytime can be tried without any AI services. Point the
client at it with api_base_url (or STORYTIME_API_BASE_URL).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		readyAfter, _ := cmd.Flags().GetInt("video-ready-after")

		srv := stubserver.New(stubserver.Options{
			Port:            port,
			VideoReadyAfter: readyAfter,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		fmt.Printf("Stub story backend on http://localhost:%d (Ctrl-C to stop)\n", port)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	stubCmd.Flags().Int("port", 8000, "port to listen on")
	stubCmd.Flags().Int("video-ready-after", 3, "status polls before a video job completes")
	rootCmd.AddCommand(stubCmd)
}
