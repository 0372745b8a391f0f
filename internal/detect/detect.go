// Package detect implements the three video discovery methods that run
// over a fetched page: HTML tag scanning, extraction-library resolution,
// and raw-text pattern scanning. Each detector is independent and
// imperfect; package aggregate merges their output.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/Binidu01/video-fetcher/internal/fetch"
)

// Method identifies which detector produced a candidate. Methods combine
// as a bitmask so a merged candidate keeps every contributing detector.
type Method uint8

const (
	MethodExtractionLibrary Method = 1 << iota
	MethodTagScan
	MethodPatternScan
)

// methodNames is ordered by reliability, most trusted first. The order
// is also the rendering order for combined methods.
var methodNames = []struct {
	m    Method
	name string
}{
	{MethodExtractionLibrary, "extraction_library"},
	{MethodTagScan, "tag_scan"},
	{MethodPatternScan, "pattern_scan"},
}

// MethodFromName returns the Method for a detector name, or 0 if unknown.
func MethodFromName(name string) Method {
	for _, mn := range methodNames {
		if mn.name == name {
			return mn.m
		}
	}
	return 0
}

// String renders the method set as "tag_scan+pattern_scan" style unions.
func (m Method) String() string {
	var parts []string
	for _, mn := range methodNames {
		if m&mn.m != 0 {
			parts = append(parts, mn.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "+")
}

// Has reports whether the set contains other.
func (m Method) Has(other Method) bool { return m&other != 0 }

// MarshalJSON renders the method set as its string form.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Candidate is one video reference proposed by a single detector before
// merging. URL is the identity key for deduplication.
type Candidate struct {
	URL       string
	Title     string
	Duration  int // seconds, 0 when unknown
	MediaType string
	Methods   Method
	// Extra carries platform-specific metadata (uploader, view count,
	// format ids). Never used for identity.
	Extra map[string]string
}

// MarshalJSON flattens Extra into the candidate object so the wire shape
// matches {"url", "title"?, "duration"?, "method", "type"?, ...extra}.
func (c Candidate) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, 5+len(c.Extra))
	for k, v := range c.Extra {
		obj[k] = v
	}
	obj["url"] = c.URL
	obj["method"] = c.Methods.String()
	if c.Title != "" {
		obj["title"] = c.Title
	}
	if c.Duration > 0 {
		obj["duration"] = c.Duration
	}
	if c.MediaType != "" {
		obj["type"] = c.MediaType
	}
	return json.Marshal(obj)
}

// SetExtra records a key/value pair, allocating the map on first use.
func (c *Candidate) SetExtra(key, value string) {
	if value == "" {
		return
	}
	if c.Extra == nil {
		c.Extra = make(map[string]string)
	}
	c.Extra[key] = value
}

// Detector is one discovery method. Detect inspects the shared page and
// returns raw candidates. A failed detector returns an error and zero
// candidates; it must never panic on malformed input.
type Detector interface {
	// Name returns the detector name (e.g., "tag_scan")
	Name() string

	// Detect finds video candidates on the fetched page
	Detect(ctx context.Context, page *fetch.Page) ([]Candidate, error)
}

// Error is a recoverable per-detector failure. The failing detector
// contributes zero candidates; the others still run.
type Error struct {
	Detector string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Detector, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// videoExtensions is the supported direct-file extension set.
var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".webm": true, ".mkv": true, ".m4v": true, ".3gp": true, ".ogv": true,
}

// videoHosts are the known video-platform hostnames. A URL on one of
// these hosts counts as a video reference even without a file extension.
var videoHosts = []string{
	"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com",
	"twitch.tv", "facebook.com", "instagram.com", "tiktok.com",
	"twitter.com", "x.com", "rumble.com", "bitchute.com",
}

// isVideoURL reports whether u points at a video file or a known
// video-platform page.
func isVideoURL(u *url.URL) bool {
	if videoExtensions[strings.ToLower(path.Ext(u.Path))] {
		return true
	}
	return isVideoHost(u.Hostname())
}

func isVideoHost(hostname string) bool {
	host := strings.ToLower(hostname)
	for _, domain := range videoHosts {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// resolveRef resolves a possibly-relative reference against the page's
// final URL. Returns nil for unparsable references.
func resolveRef(base *url.URL, ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil
	}
	return abs
}
