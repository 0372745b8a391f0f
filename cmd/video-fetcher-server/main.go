package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/server"
	"github.com/Binidu01/video-fetcher/internal/version"
)

func main() {
	port := flag.Int("port", 0, "HTTP listen port (default: 8080)")
	output := flag.String("output", "", "output directory for downloads")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("video-fetcher-server %s\n", version.Version)
		return
	}

	cfg := config.LoadOrDefault()

	// Flag > config > default
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *output != "" {
		cfg.OutputDir = *output
	}

	// Expand ~ in path
	if len(cfg.OutputDir) >= 2 && cfg.OutputDir[:2] == "~/" {
		home, _ := os.UserHomeDir()
		cfg.OutputDir = filepath.Join(home, cfg.OutputDir[2:])
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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
		logger.Fatal("server error", zap.Error(err))
	}
}
