package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Binidu01/video-fetcher/internal/aggregate"
	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/version"
)

var (
	outputFile     string
	outputFormat   string
	timeoutSeconds int
	verbose        bool
	userAgent      string
)

var rootCmd = &cobra.Command{
	Use:     "video-fetcher [url]",
	Short:   "Find every video on a web page using multiple detection methods",
	Version: version.Version,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		if err := runFetch(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "output format (table or json)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "save results to file (JSON format)")
	rootCmd.Flags().IntVarP(&timeoutSeconds, "timeout", "t", 0, "request timeout in seconds (default: 10)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "custom User-Agent header")
}

func Execute() error {
	return rootCmd.Execute()
}

func runFetch(url string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("invalid format %q (use table or json)", outputFormat)
	}

	cfg := config.LoadOrDefault()
	if timeoutSeconds > 0 {
		cfg.TimeoutSeconds = timeoutSeconds
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}

	agg := aggregate.New(cfg)

	fmt.Printf("Fetching videos from: %s\n", url)
	result, err := agg.RunWithTimeout(context.Background(), url, cfg.Timeout())
	if err != nil {
		return err
	}

	if err := printResults(os.Stdout, result, outputFormat); err != nil {
		return err
	}

	if outputFile != "" {
		if err := saveToFile(outputFile, result); err != nil {
			return fmt.Errorf("error saving to file: %w", err)
		}
		fmt.Printf("Results saved to %s\n", outputFile)
	}

	return nil
}
