package detect

import (
	"context"
	"testing"
)

func TestPatternScannerDirectLinks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "bare absolute URL",
			body:     `watch this: https://cdn.example.com/v/clip.mp4 now`,
			expected: []string{"https://cdn.example.com/v/clip.mp4"},
		},
		{
			name:     "src attribute with relative path",
			body:     `<div data-player src="/media/show.webm"></div>`,
			expected: []string{"https://example.com/media/show.webm"},
		},
		{
			name:     "url colon form in inline script",
			body:     `<script>player.load({url: "https://cdn.example.com/s.m4v"});</script>`,
			expected: []string{"https://cdn.example.com/s.m4v"},
		},
		{
			name:     "json escaped slashes",
			body:     `{"video":"https:\/\/cdn.example.com\/a.mp4"}`,
			expected: []string{"https://cdn.example.com/a.mp4"},
		},
		{
			name:     "platform URL without extension",
			body:     `see <a href="https://vimeo.com/123456">this</a>`,
			expected: []string{"https://vimeo.com/123456"},
		},
		{
			name:     "same URL repeated emits once",
			body:     `https://cdn.example.com/a.mp4 ... https://cdn.example.com/a.mp4`,
			expected: []string{"https://cdn.example.com/a.mp4"},
		},
		{
			name:     "nothing to find",
			body:     `<p>plain text page</p>`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := testPage(t, "https://example.com/p", tt.body)
			s := &PatternScanner{}
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
				if got[i].Methods != MethodPatternScan {
					t.Errorf("candidate %d Methods = %v", i, got[i].Methods)
				}
			}
		})
	}
}

func TestPatternScannerMediaTypes(t *testing.T) {
	page := testPage(t, "https://example.com/p",
		`https://cdn.example.com/a.mp4 and https://www.youtube.com/watch?v=abc123`)

	s := &PatternScanner{}
	got, err := s.Detect(context.Background(), page)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}

	// File matches run before platform matches
	if got[0].MediaType != "direct" {
		t.Errorf("file match type = %q, want direct", got[0].MediaType)
	}
	if got[1].MediaType != "platform" {
		t.Errorf("platform match type = %q, want platform", got[1].MediaType)
	}
}
