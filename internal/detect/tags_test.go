package detect

import (
	"context"
	"testing"
)

func TestTagScannerVideoElement(t *testing.T) {
	page := testPage(t, "https://example.com/watch",
		`<html><body><video src="/media/clip.mp4" poster="/th.jpg" controls></video></body></html>`)

	s := &TagScanner{}
	got, err := s.Detect(context.Background(), page)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.URL != "https://example.com/media/clip.mp4" {
		t.Errorf("URL = %q", c.URL)
	}
	if c.Methods != MethodTagScan {
		t.Errorf("Methods = %v", c.Methods)
	}
	if c.Extra["poster"] != "/th.jpg" {
		t.Errorf("poster = %q", c.Extra["poster"])
	}
	if c.Extra["controls"] != "true" {
		t.Errorf("controls = %q", c.Extra["controls"])
	}
}

func TestTagScannerSourceElements(t *testing.T) {
	page := testPage(t, "https://example.com/page",
		`<video>
			<source src="movie.webm" type="video/webm">
			<source src="movie.mp4" type="video/mp4">
			<source src="styles.css" type="text/css">
		</video>`)

	s := &TagScanner{}
	got, err := s.Detect(context.Background(), page)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].URL != "https://example.com/movie.webm" {
		t.Errorf("first URL = %q", got[0].URL)
	}
	if got[0].MediaType != "video/webm" {
		t.Errorf("first type = %q", got[0].MediaType)
	}
	if got[1].MediaType != "video/mp4" {
		t.Errorf("second type = %q", got[1].MediaType)
	}
}

func TestTagScannerEmbeds(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected []string
	}{
		{
			name:     "youtube embed iframe",
			html:     `<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>`,
			expected: []string{"https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name:     "vimeo player",
			html:     `<iframe src="https://player.vimeo.com/video/123"></iframe>`,
			expected: []string{"https://player.vimeo.com/video/123"},
		},
		{
			name:     "non-video iframe ignored",
			html:     `<iframe src="https://ads.example.com/banner"></iframe>`,
			expected: nil,
		},
		{
			name:     "relative embed resolved",
			html:     `<embed src="//www.youtube.com/embed/xyz">`,
			expected: []string{"https://www.youtube.com/embed/xyz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := testPage(t, "https://example.com/p", tt.html)
			s := &TagScanner{}
			got, err := s.Detect(context.Background(), page)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d candidates, got %d: %+v", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if got[i].URL != want {
					t.Errorf("candidate %d URL = %q, want %q", i, got[i].URL, want)
				}
				if got[i].MediaType != "embed" {
					t.Errorf("candidate %d type = %q, want embed", i, got[i].MediaType)
				}
			}
		})
	}
}

func TestTagScannerMalformedMarkup(t *testing.T) {
	// Unbalanced tags and stray bytes must not panic the scanner
	page := testPage(t, "https://example.com/p",
		"<video src='a.mp4'><div><span></video>\x00\xff<source src=\"b.mp4\"")

	s := &TagScanner{}
	got, err := s.Detect(context.Background(), page)
	if err != nil {
		t.Fatalf("Detect should tolerate malformed markup: %v", err)
	}
	if len(got) == 0 {
		t.Error("expected the well-formed video element to survive")
	}
}

func TestTagScannerEmptyPage(t *testing.T) {
	page := testPage(t, "https://example.com/p", "<html><body><p>no media here</p></body></html>")

	s := &TagScanner{}
	got, err := s.Detect(context.Background(), page)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}
