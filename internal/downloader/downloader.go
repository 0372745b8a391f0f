// Package downloader saves discovered video URLs to disk with progress
// reporting and retry on transient failures.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Downloader fetches video content over HTTP into an output directory.
type Downloader struct {
	// streamClient is used for streaming downloads without an overall
	// timeout; large files are bounded per-read instead
	streamClient *http.Client
	userAgent    string
	outputDir    string
	logger       *zap.Logger

	retryAttempts int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

// New creates a Downloader writing into outputDir.
func New(outputDir, userAgent string, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		streamClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		userAgent:     userAgent,
		outputDir:     outputDir,
		logger:        logger,
		retryAttempts: 3,
		retryDelay:    2 * time.Second,
		maxRetryDelay: 30 * time.Second,
	}
}

// Download fetches rawURL into the output directory. When filename is
// empty one is derived from the URL and response headers. Returns the
// path of the written file. progressFn may be nil; total is -1 when the
// server does not announce a length.
func (d *Downloader) Download(ctx context.Context, rawURL, filename string, progressFn func(downloaded, total int64)) (string, error) {
	var lastErr error
	delay := d.retryDelay

	for attempt := 0; attempt < d.retryAttempts; attempt++ {
		dest, err := d.downloadOnce(ctx, rawURL, filename, progressFn)
		if err == nil {
			return dest, nil
		}
		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		d.logger.Warn("download attempt failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > d.maxRetryDelay {
			delay = d.maxRetryDelay
		}
	}

	return "", fmt.Errorf("download failed: %w", lastErr)
}

// statusError marks HTTP statuses so retry can treat 5xx and 429 as
// transient and everything else as final.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.code)
}

func isRetryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Network-level errors are worth another attempt
	return true
}

func (d *Downloader) downloadOnce(ctx context.Context, rawURL, filename string, progressFn func(downloaded, total int64)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")

	resp, err := d.streamClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", &statusError{code: resp.StatusCode}
	}

	if filename == "" {
		filename = FilenameFor(resp.Request.URL.String(), resp.Header.Get("Content-Type"))
	}

	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	dest := filepath.Join(d.outputDir, filename)
	part := dest + ".part"

	out, err := os.Create(part)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	reader := &progressReader{
		r:          resp.Body,
		total:      resp.ContentLength,
		progressFn: progressFn,
	}

	_, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(part)
		return "", fmt.Errorf("write body: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(part)
		return "", fmt.Errorf("close file: %w", closeErr)
	}

	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return "", fmt.Errorf("finalize file: %w", err)
	}

	d.logger.Info("download completed",
		zap.String("url", rawURL),
		zap.String("file", dest))
	return dest, nil
}

// progressReader reports cumulative bytes read to a callback.
type progressReader struct {
	r          io.Reader
	read       int64
	total      int64
	progressFn func(downloaded, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		if p.progressFn != nil {
			p.progressFn(p.read, p.total)
		}
	}
	return n, err
}

// FilenameFor derives a safe filename from a video URL and its
// Content-Type, falling back to "video" plus a detected extension.
func FilenameFor(rawURL, contentType string) string {
	name := "video"
	ext := ""

	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "/" && base != "." {
			if i := strings.LastIndex(base, "."); i > 0 {
				name = base[:i]
				ext = strings.ToLower(base[i+1:])
			} else {
				name = base
			}
		}
	}

	if fromType := extFromContentType(contentType); fromType != "" {
		ext = fromType
	}
	if ext == "" {
		ext = "mp4"
	}

	name = SanitizeFilename(name)
	if name == "" {
		name = "video"
	}
	return name + "." + ext
}

func extFromContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !strings.HasPrefix(contentType, "video/") {
		return ""
	}
	switch ext := strings.TrimPrefix(contentType, "video/"); ext {
	case "quicktime":
		return "mov"
	case "x-msvideo":
		return "avi"
	case "x-matroska":
		return "mkv"
	case "ogg":
		return "ogv"
	case "mp4", "webm":
		return ext
	default:
		return "mp4"
	}
}

// SanitizeFilename removes or replaces characters that are invalid in
// filenames and caps the length so long titles still fit on disk.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(name)

	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")

	// Collapse runs of whitespace
	result = strings.Join(strings.Fields(result), " ")

	// Most filesystems limit filenames to 255 bytes; 60 runes leaves
	// room for multi-byte characters plus an extension.
	const maxRunes = 60
	runes := []rune(result)
	if len(runes) > maxRunes {
		result = string(runes[:maxRunes])
	}

	return strings.TrimSpace(result)
}
