package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/server"
)

var (
	servePort      int
	serveOutputDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and web UI",
	Long: `Start an HTTP server that scans pages and queues downloads via API.

Examples:
  video-fetcher serve              # Start server on port 8080
  video-fetcher serve -p 9000      # Start server on port 9000
  video-fetcher serve -d ~/videos  # Use custom output directory

API Endpoints:
  GET    /api/health       # Health check
  POST   /api/fetch        # Scan a page for videos
  POST   /api/download     # Queue a download
  GET    /api/status/:id   # Get job status
  GET    /api/jobs         # List all jobs
  DELETE /api/jobs         # Clear finished jobs
  DELETE /api/jobs/:id     # Cancel or remove a job`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: 8080)")
	serveCmd.Flags().StringVarP(&serveOutputDir, "dir", "d", "", "output directory for downloads")

	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := config.LoadOrDefault()

	// Flag > config > default
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveOutputDir != "" {
		cfg.OutputDir = serveOutputDir
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv := server.NewServer(cfg, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
