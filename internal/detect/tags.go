package detect

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/Binidu01/video-fetcher/internal/fetch"
)

// embedPatterns match iframe/embed targets that are known player pages.
var embedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtube\.com/embed/`),
	regexp.MustCompile(`(?i)vimeo\.com/video/`),
	regexp.MustCompile(`(?i)dailymotion\.com/embed/`),
	regexp.MustCompile(`(?i)player\.twitch\.tv/`),
	regexp.MustCompile(`(?i)facebook\.com/plugins/video`),
}

// TagScanner finds video references in the page's structured markup:
// <video> elements, their nested <source> children, and iframe/embed
// elements that point at known player pages.
type TagScanner struct{}

func (s *TagScanner) Name() string { return "tag_scan" }

func (s *TagScanner) Detect(ctx context.Context, page *fetch.Page) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &Error{Detector: s.Name(), Err: fmt.Errorf("parse markup: %w", err)}
	}

	var candidates []Candidate

	doc.Find("video").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok {
			return
		}
		abs := resolveRef(page.URL, src)
		if abs == nil {
			return
		}
		c := Candidate{
			URL:     abs.String(),
			Methods: MethodTagScan,
		}
		if poster, ok := sel.Attr("poster"); ok {
			c.SetExtra("poster", poster)
		}
		if _, ok := sel.Attr("controls"); ok {
			c.SetExtra("controls", "true")
		}
		if _, ok := sel.Attr("autoplay"); ok {
			c.SetExtra("autoplay", "true")
		}
		candidates = append(candidates, c)
	})

	doc.Find("source").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok {
			return
		}
		abs := resolveRef(page.URL, src)
		if abs == nil || !isVideoURL(abs) {
			return
		}
		c := Candidate{
			URL:     abs.String(),
			Methods: MethodTagScan,
		}
		if mime, ok := sel.Attr("type"); ok {
			c.MediaType = mime
		}
		candidates = append(candidates, c)
	})

	doc.Find("iframe, embed").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || !isVideoEmbed(src) {
			return
		}
		abs := resolveRef(page.URL, src)
		if abs == nil {
			return
		}
		candidates = append(candidates, Candidate{
			URL:       abs.String(),
			MediaType: "embed",
			Methods:   MethodTagScan,
		})
	})

	return candidates, nil
}

func isVideoEmbed(src string) bool {
	for _, re := range embedPatterns {
		if re.MatchString(src) {
			return true
		}
	}
	return false
}
