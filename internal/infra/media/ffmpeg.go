// Package media wraps the external ffmpeg binary for audio extraction and
// final muxing. Codec internals stay inside ffmpeg; this layer only shells
// out and checks results.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"voxdub/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var (
	_ adapter.AudioExtractor = (*FFmpeg)(nil)
	_ adapter.Encoder        = (*FFmpeg)(nil)
)

type FFmpeg struct {
	binary string
	log    *zerolog.Logger
}

func NewFFmpeg(binary string, logger *zerolog.Logger) (*FFmpeg, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffLog := logger.With().Str("component", "FFmpeg").Logger()
	return &FFmpeg{binary: binary, log: &ffLog}, nil
}

// ExtractAudio pulls a 16kHz mono wav speech track out of the video,
// the input format speech recognition expects.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return err
	}
	return f.run(ctx,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
		"-y",
	)
}

// Encode muxes the original video stream with the dubbed audio track,
// dropping the source audio.
func (f *FFmpeg) Encode(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.run(ctx,
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outputPath,
		"-y",
	)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, f.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, lastLines(out))
	}
	return nil
}

// lastLines trims ffmpeg's verbose output down to the part that matters.
func lastLines(b []byte) []byte {
	const max = 400
	if len(b) > max {
		return b[len(b)-max:]
	}
	return b
}
