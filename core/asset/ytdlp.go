package asset

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"musicify/logger"
)

// MediaFetcher obtains a title and an audio stream for a remote media URL.
// The production adapter shells out to yt-dlp; tests substitute canned
// implementations.
type MediaFetcher interface {
	FetchTitle(ctx context.Context, url string) (string, error)
	FetchBestAudio(ctx context.Context, url, outputTemplate string) error
}

// YtdlpFetcher invokes the yt-dlp binary as a subprocess.
type YtdlpFetcher struct {
	binPath         string
	titleTimeout    time.Duration
	downloadTimeout time.Duration
}

// NewYtdlpFetcher creates a fetcher around the given yt-dlp binary path.
func NewYtdlpFetcher(binPath string, downloadTimeout time.Duration) *YtdlpFetcher {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YtdlpFetcher{
		binPath:         binPath,
		titleTimeout:    30 * time.Second,
		downloadTimeout: downloadTimeout,
	}
}

// FetchTitle runs yt-dlp in print-title-only mode and returns the last
// non-empty output line.
func (f *YtdlpFetcher) FetchTitle(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.titleTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binPath, "--no-playlist", "--print", "%(title)s", url)
	out, err := cmd.Output()
	if err != nil {
		return "", wrapExecErr("yt-dlp title fetch failed", err)
	}

	var title string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line != "" {
			title = line
		}
	}
	return title, nil
}

// FetchBestAudio downloads the best available audio stream for url into the
// given output template, e.g. "uploads/{trackId}.%(ext)s".
func (f *YtdlpFetcher) FetchBestAudio(ctx context.Context, url, outputTemplate string) error {
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()

	logger.Info("Downloading audio via yt-dlp",
		logger.String("url", url),
		logger.String("outputTemplate", outputTemplate),
	)

	cmd := exec.CommandContext(ctx, f.binPath,
		"-f", "bestaudio/best",
		"-o", outputTemplate,
		"--no-playlist",
		url,
	)
	if _, err := cmd.Output(); err != nil {
		return wrapExecErr("yt-dlp download failed", err)
	}
	return nil
}

// wrapExecErr attaches captured stderr to subprocess failures, which is
// where yt-dlp reports the actual cause.
func wrapExecErr(msg string, err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%s: %w: %s", msg, err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return fmt.Errorf("%s: %w", msg, err)
}
