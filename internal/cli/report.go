package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Binidu01/video-fetcher/internal/aggregate"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.Bold)
	errColor    = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// printResults renders a result as an indented JSON document or a
// human-readable report.
func printResults(w io.Writer, result *aggregate.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w)
	dimColor.Fprintln(w, rule)
	labelColor.Fprint(w, "URL: ")
	fmt.Fprintln(w, result.URL)
	labelColor.Fprint(w, "Videos found: ")
	fmt.Fprintln(w, len(result.Videos))
	labelColor.Fprint(w, "Methods used: ")
	if len(result.MethodsUsed) > 0 {
		fmt.Fprintln(w, strings.Join(result.MethodsUsed, ", "))
	} else {
		fmt.Fprintln(w, "None")
	}

	if len(result.Errors) > 0 {
		errColor.Fprintf(w, "Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			errColor.Fprintf(w, "  - %s\n", e)
		}
	}
	dimColor.Fprintln(w, rule)

	if len(result.Videos) == 0 {
		fmt.Fprintln(w, "\nNo videos found.")
		return nil
	}

	for i, video := range result.Videos {
		fmt.Fprintln(w)
		headerColor.Fprintf(w, "%d. Video:\n", i+1)
		fmt.Fprintf(w, "   URL: %s\n", video.URL)
		if video.Title != "" {
			fmt.Fprintf(w, "   Title: %s\n", video.Title)
		}
		if video.Duration > 0 {
			fmt.Fprintf(w, "   Duration: %d seconds\n", video.Duration)
		}
		fmt.Fprintf(w, "   Detection method: %s\n", video.Methods)
		if video.MediaType != "" {
			fmt.Fprintf(w, "   Type: %s\n", video.MediaType)
		}
	}
	return nil
}

func saveToFile(path string, result *aggregate.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
