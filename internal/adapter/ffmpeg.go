package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// TranscodeOptions describes one ffmpeg pass producing an H.264/AAC mp4
type TranscodeOptions struct {
	Input            string
	Output           string
	VideoBitrateKbps int
	AudioBitrateKbps int
	CRF              int
}

// Transcoder defines the video toolchain operations to enable mocking
//
//go:generate mockgen -source=ffmpeg.go -destination=../mocks/ffmpeg.go -package=mocks -mock_names=Transcoder=MockTranscoder
type Transcoder interface {
	// Available reports whether both ffmpeg and ffprobe can be executed
	Available() bool

	// ProbeDuration returns the container duration in seconds
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// Transcode runs a single encoding pass
	Transcode(ctx context.Context, opts TranscodeOptions) error
}

// FFmpegTranscoder implements Transcoder by shelling out to ffmpeg and ffprobe
type FFmpegTranscoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegTranscoder creates a transcoder; empty paths are resolved from PATH
func NewFFmpegTranscoder(ffmpegPath, ffprobePath string) Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegTranscoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

func (t *FFmpegTranscoder) Available() bool {
	if _, err := exec.LookPath(t.ffmpegPath); err != nil {
		return false
	}
	_, err := exec.LookPath(t.ffprobePath)
	return err == nil
}

func (t *FFmpegTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath, //nolint:gosec,G204
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, opts TranscodeOptions) error {
	args := []string{
		"-y",
		"-i", opts.Input,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", strconv.Itoa(opts.CRF),
	}
	if opts.VideoBitrateKbps > 0 {
		args = append(args,
			"-b:v", fmt.Sprintf("%dk", opts.VideoBitrateKbps),
			"-maxrate", fmt.Sprintf("%dk", opts.VideoBitrateKbps),
			"-bufsize", fmt.Sprintf("%dk", opts.VideoBitrateKbps*2),
		)
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", opts.AudioBitrateKbps),
		"-movflags", "+faststart",
		opts.Output,
	)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...) //nolint:gosec,G204
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(msg))
	}
	return nil
}
