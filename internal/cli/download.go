package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/downloader"
	"github.com/Binidu01/video-fetcher/internal/thumbnail"
)

var (
	downloadDir    string
	downloadName   string
	withThumbnails bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [url...]",
	Short: "Download one or more video URLs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDownload(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "output directory for downloads")
	downloadCmd.Flags().StringVarP(&downloadName, "name", "n", "", "output filename (single URL only)")
	downloadCmd.Flags().BoolVar(&withThumbnails, "thumbnails", false, "generate a thumbnail for each downloaded video (requires ffmpeg)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(urls []string) error {
	if downloadName != "" && len(urls) > 1 {
		return fmt.Errorf("--name only applies to a single URL")
	}

	cfg := config.LoadOrDefault()
	if downloadDir != "" {
		cfg.OutputDir = downloadDir
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := newLogger()
	defer logger.Sync()

	var gen *thumbnail.Generator
	if withThumbnails {
		g, err := thumbnail.New()
		if err != nil {
			return err
		}
		gen = g
	}

	dl := downloader.New(cfg.OutputDir, cfg.UserAgent, logger)

	var errs *multierror.Error
	for i, url := range urls {
		if len(urls) > 1 {
			fmt.Printf("\n[%d/%d] %s\n", i+1, len(urls), url)
		}
		dest, err := downloadOne(dl, url, downloadName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  failed: %v\n", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		fmt.Printf("  saved: %s\n", dest)

		if gen != nil {
			thumb, err := gen.Generate(context.Background(), dest)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  thumbnail skipped: %v\n", err)
				continue
			}
			fmt.Printf("  thumbnail: %s\n", thumb)
		}
	}

	return errs.ErrorOrNil()
}

func downloadOne(dl *downloader.Downloader, url, filename string) (string, error) {
	bar := progressbar.DefaultBytes(-1, filepath.Base(url))
	defer bar.Close()

	progressFn := func(downloaded, total int64) {
		if total > 0 && bar.GetMax64() != total {
			bar.ChangeMax64(total)
		}
		bar.Set64(downloaded)
	}

	return dl.Download(context.Background(), url, filename, progressFn)
}

func newLogger() *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}
