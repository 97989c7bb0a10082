package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ExtractFrame pulls a still frame out of a video with ffmpeg, scaled to fit
// maxDim, as JPEG. It seeks to 1s first to skip black lead-in frames; if the
// clip is shorter than that the seek yields nothing and it retries at 0s.
func ExtractFrame(ctx context.Context, ffmpegPath string, data []byte, maxDim int) ([]byte, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	dir, err := os.MkdirTemp("", "stockmeta-frame-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp video: %w", err)
	}

	frame, err := runExtract(ctx, ffmpegPath, in, dir, maxDim, 1)
	if err != nil {
		frame, err = runExtract(ctx, ffmpegPath, in, dir, maxDim, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract video frame: %w", err)
	}
	return frame, nil
}

func runExtract(ctx context.Context, ffmpegPath, in, dir string, maxDim, offsetSec int) ([]byte, error) {
	out := filepath.Join(dir, fmt.Sprintf("frame-%d.jpg", offsetSec))
	scale := fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", maxDim, maxDim)

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.Itoa(offsetSec),
		"-i", in,
		"-frames:v", "1",
		"-vf", scale,
		"-q:v", "4",
		"-y", out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v: %s", err, output)
	}

	frame, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("ffmpeg produced an empty frame")
	}
	return frame, nil
}
