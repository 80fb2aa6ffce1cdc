package download

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Source fetches raw audio bytes for a media locator.
type Source interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// YtDlp downloads the audio track of a video with the yt-dlp CLI.
// Requires yt-dlp on PATH.
type YtDlp struct {
	binary  string
	tempDir string
	runner  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewYtDlp creates a downloader writing intermediate files to tempDir.
func NewYtDlp(tempDir string) *YtDlp {
	return &YtDlp{
		binary:  "yt-dlp",
		tempDir: tempDir,
		runner:  runCommand,
	}
}

// Fetch extracts the audio stream as mp3 and returns its bytes. The
// intermediate file is removed before returning.
func (y *YtDlp) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	outputPath := filepath.Join(y.tempDir, fmt.Sprintf("%s.mp3", uuid.New().String()))
	defer os.Remove(outputPath)

	output, err := y.runner(ctx, y.binary,
		"-x", // Extract audio
		"--audio-format", "mp3",
		"-o", outputPath,
		rawURL,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %v\nOutput: %s", err, string(output))
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read downloaded audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("yt-dlp produced an empty file for %s", rawURL)
	}
	return data, nil
}

var youtubeHost = regexp.MustCompile(`^(www\.|m\.)?youtube\.com$`)

// IsYouTubeURL reports whether raw is a plausible YouTube video URL.
func IsYouTubeURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := parsed.Hostname()
	return youtubeHost.MatchString(host) || host == "youtu.be"
}
