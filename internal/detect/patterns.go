package detect

import (
	"context"
	"regexp"
	"strings"

	"github.com/Binidu01/video-fetcher/internal/fetch"
)

const extAlternation = `mp4|avi|mov|wmv|flv|webm|mkv|m4v|3gp|ogv`

// filePatterns match direct video-file URLs in raw page text, including
// inline script blocks. Patterns with a capture group emit the group;
// the rest emit the whole match.
var filePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:` + extAlternation + `)`),
	regexp.MustCompile(`(?i)src=["']([^"']+\.(?:` + extAlternation + `))["']`),
	regexp.MustCompile(`(?i)url:\s*["']([^"']+\.(?:` + extAlternation + `))["']`),
}

// platformPattern matches absolute URLs on known video-platform hosts.
var platformPattern = regexp.MustCompile(
	`(?i)https?://(?:[\w-]+\.)*(?:` + strings.Join(quoteHosts(), "|") + `)/[^\s<>"']+`)

func quoteHosts() []string {
	quoted := make([]string, len(videoHosts))
	for i, h := range videoHosts {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return quoted
}

// PatternScanner scans raw page text for direct video-file URLs and
// platform URLs. It is intentionally noisy; downstream merging and the
// detector precedence ordering restore precision.
type PatternScanner struct{}

func (s *PatternScanner) Name() string { return "pattern_scan" }

func (s *PatternScanner) Detect(ctx context.Context, page *fetch.Page) ([]Candidate, error) {
	// Undo the slash escaping of JSON-embedded URLs before scanning
	content := strings.ReplaceAll(string(page.Body), `\/`, `/`)

	var candidates []Candidate
	seen := make(map[string]bool)

	emit := func(match, mediaType string) {
		abs := resolveRef(page.URL, cleanMatch(match))
		if abs == nil || !isVideoURL(abs) {
			return
		}
		u := abs.String()
		if seen[u] {
			return
		}
		seen[u] = true
		candidates = append(candidates, Candidate{
			URL:       u,
			MediaType: mediaType,
			Methods:   MethodPatternScan,
		})
	}

	for _, re := range filePatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			match := m[0]
			if len(m) > 1 {
				match = m[1]
			}
			emit(match, "direct")
		}
	}

	for _, m := range platformPattern.FindAllString(content, -1) {
		emit(m, "platform")
	}

	return candidates, nil
}

// cleanMatch strips trailing punctuation a greedy regex can drag in
// from surrounding JSON or markup.
func cleanMatch(match string) string {
	return strings.TrimRight(match, `.,;)\`)
}
