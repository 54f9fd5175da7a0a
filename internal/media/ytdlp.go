package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// YtDlp drives the local yt-dlp binary for probing and fetching.
type YtDlp struct {
	binaryPath string
	timeout    time.Duration
}

func NewYtDlp(binaryPath string, timeout time.Duration) *YtDlp {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &YtDlp{binaryPath: binaryPath, timeout: timeout}
}

// Probe extracts metadata and the available formats without downloading.
func (y *YtDlp) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.binaryPath, "-J", "--no-warnings", url)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp probe failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	var info VideoInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// fetchArgs builds the yt-dlp invocation for a download. Kept separate from
// Fetch so the flag mapping stays testable without a binary.
func fetchArgs(url, formatExpr, destDir, container string) []string {
	args := []string{
		"-f", formatExpr,
		"-o", filepath.Join(destDir, "%(title)s.%(ext)s"),
		"--no-warnings",
	}
	switch container {
	case "mp4", "webm", "mkv":
		args = append(args, "--merge-output-format", container, "--embed-metadata")
	}
	return append(args, url)
}

// Fetch downloads the asset into destDir. The expression is passed through
// verbatim; the downloader performs any fallback and merging itself.
func (y *YtDlp) Fetch(ctx context.Context, url, formatExpr, destDir, container string) error {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.binaryPath, fetchArgs(url, formatExpr, destDir, container)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp fetch failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
