// Package thumbnail generates preview images for downloaded videos by
// shelling out to ffmpeg/ffprobe.
package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Generator creates JPEG thumbnails from video files.
type Generator struct {
	ffmpegPath  string
	ffprobePath string
}

// New locates ffmpeg and ffprobe in PATH. Callers should treat an error
// as "thumbnails unavailable", not as a fatal condition.
func New() (*Generator, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &Generator{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
}

// Generate writes a thumbnail next to videoPath (same name, .jpg) and
// returns its path. The frame is taken 10% into the video so black
// lead-in frames are skipped.
func (g *Generator) Generate(ctx context.Context, videoPath string) (string, error) {
	offset := 1.0
	if dur, err := g.probeDuration(ctx, videoPath); err == nil && dur > 0 {
		offset = dur * 0.1
	}

	thumbPath := replaceExt(videoPath, ".jpg")

	cmd := exec.CommandContext(ctx, g.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(offset, 'f', 2, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", "scale=480:-2",
		"-q:v", "4",
		thumbPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, firstLine(out))
	}
	return thumbPath, nil
}

// probeDuration reads the container duration in seconds via ffprobe.
func (g *Generator) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, g.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if parsed.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	return strconv.ParseFloat(parsed.Format.Duration, 64)
}

func replaceExt(path, newExt string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + newExt
	}
	return path + newExt
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
