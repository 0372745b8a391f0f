package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/Binidu01/video-fetcher/internal/aggregate"
	"github.com/Binidu01/video-fetcher/internal/detect"
)

func sampleResult() *aggregate.Result {
	return &aggregate.Result{
		URL: "https://example.com/page",
		Videos: []detect.Candidate{
			{
				URL:       "https://example.com/movie.mp4",
				Title:     "Movie",
				Duration:  90,
				MediaType: "direct",
				Methods:   detect.MethodTagScan | detect.MethodPatternScan,
			},
			{
				URL:       "https://youtube.com/watch?v=abc123",
				MediaType: "platform",
				Methods:   detect.MethodPatternScan,
			},
		},
		MethodsUsed: []string{"extraction_library", "tag_scan", "pattern_scan"},
		Errors:      []string{"extraction_library: site blocked the request"},
	}
}

func TestPrintResultsTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := printResults(&buf, sampleResult(), "table"); err != nil {
		t.Fatalf("printResults: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"URL: https://example.com/page",
		"Videos found: 2",
		"Methods used: extraction_library, tag_scan, pattern_scan",
		"Errors: 1",
		"- extraction_library: site blocked the request",
		"1. Video:",
		"   Title: Movie",
		"   Duration: 90 seconds",
		"   Detection method: tag_scan+pattern_scan",
		"   Type: direct",
		"2. Video:",
		"   URL: https://youtube.com/watch?v=abc123",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q\n%s", want, out)
		}
	}
}

func TestPrintResultsTableEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	result := &aggregate.Result{URL: "https://example.com", Videos: nil}
	if err := printResults(&buf, result, "table"); err != nil {
		t.Fatalf("printResults: %v", err)
	}

	if !strings.Contains(buf.String(), "No videos found.") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Methods used: None") {
		t.Errorf("expected no methods notice, got:\n%s", buf.String())
	}
}

func TestPrintResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printResults(&buf, sampleResult(), "json"); err != nil {
		t.Fatalf("printResults: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	videos, ok := decoded["videos"].([]any)
	if !ok || len(videos) != 2 {
		t.Fatalf("expected 2 videos in JSON output, got %v", decoded["videos"])
	}
	first := videos[0].(map[string]any)
	if first["method"] != "tag_scan+pattern_scan" {
		t.Errorf("expected combined method string, got %v", first["method"])
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := saveToFile(path, sampleResult()); err != nil {
		t.Fatalf("saveToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}
	if decoded["url"] != "https://example.com/page" {
		t.Errorf("unexpected url in saved file: %v", decoded["url"])
	}
}
