package detect

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// YouTubeResolver resolves YouTube video and playlist URLs through the
// kkdai/youtube client. Other hosts are reported as unsupported, which
// the aggregator records as a recoverable detector failure.
type YouTubeResolver struct {
	client youtube.Client
}

// NewYouTubeResolver returns the default production Resolver.
func NewYouTubeResolver() *YouTubeResolver {
	return &YouTubeResolver{}
}

func (r *YouTubeResolver) Resolve(ctx context.Context, rawURL string) ([]Candidate, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isYouTubeHost(u.Hostname()) {
		return nil, fmt.Errorf("unsupported host %q", u.Hostname())
	}

	if isPlaylistURL(u) {
		return r.resolvePlaylist(ctx, rawURL)
	}
	return r.resolveVideo(ctx, rawURL)
}

func (r *YouTubeResolver) resolveVideo(ctx context.Context, rawURL string) ([]Candidate, error) {
	video, err := r.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolve video: %w", err)
	}

	c := Candidate{
		URL:      watchURL(video.ID),
		Title:    video.Title,
		Duration: int(video.Duration.Seconds()),
	}
	c.SetExtra("uploader", video.Author)
	if video.Views > 0 {
		c.SetExtra("view_count", strconv.Itoa(video.Views))
	}
	if n := len(video.Formats); n > 0 {
		c.SetExtra("format_count", strconv.Itoa(n))
	}
	return []Candidate{c}, nil
}

func (r *YouTubeResolver) resolvePlaylist(ctx context.Context, rawURL string) ([]Candidate, error) {
	playlist, err := r.client.GetPlaylistContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolve playlist: %w", err)
	}

	candidates := make([]Candidate, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry == nil {
			continue
		}
		c := Candidate{
			URL:      watchURL(entry.ID),
			Title:    entry.Title,
			Duration: int(entry.Duration.Seconds()),
		}
		c.SetExtra("uploader", entry.Author)
		c.SetExtra("playlist", playlist.Title)
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func isYouTubeHost(hostname string) bool {
	switch strings.ToLower(hostname) {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// isPlaylistURL reports whether u names a playlist rather than a single
// video. A watch URL with a list param still resolves as a single video.
func isPlaylistURL(u *url.URL) bool {
	if strings.TrimSuffix(u.Path, "/") == "/playlist" {
		return true
	}
	return u.Query().Has("list") && !u.Query().Has("v")
}
