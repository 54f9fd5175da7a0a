package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFmpeg invokes the local ffmpeg binary to trim by stream copy. Its
// presence also determines merge capability, since the same tool muxes
// separate audio and video streams.
type FFmpeg struct {
	binaryPath string
}

func NewFFmpeg(binaryPath string) *FFmpeg {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &FFmpeg{binaryPath: binaryPath}
}

// Available reports whether the binary can be found on PATH.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.binaryPath)
	return err == nil
}

// trimArgs copies codecs without transcoding: seek to start, emit
// end-start seconds, overwrite the output.
func trimArgs(inputPath, outputPath string, start, end int) []string {
	return []string{
		"-i", inputPath,
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(end - start),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputPath,
	}
}

// Run trims [start, end) of inputPath into outputPath. On failure the
// returned error carries the tool's diagnostic output.
func (f *FFmpeg) Run(ctx context.Context, inputPath, outputPath string, start, end int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binaryPath, trimArgs(inputPath, outputPath, start, end)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg trim failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
