package compressor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
)

const (
	AUDIO_BITRATE_KBPS     = 128
	MIN_VIDEO_BITRATE_KBPS = 500
	VIDEO_CRF              = 28
	// SECOND_PASS_RATIO scales the bitrate of the retry pass
	SECOND_PASS_RATIO = 0.8
)

// VideoResult contains the result of video compression
type VideoResult struct {
	// Path of the output file. The caller must call Cleanup once done with it.
	Path string

	// ContentType is the MIME type of the output
	ContentType string

	OriginalSize int64
	SizeBytes    int64

	// BitrateKbps is the video bitrate of the last pass, zero when nothing was transcoded
	BitrateKbps int

	// Passes is the number of transcoding passes run
	Passes int

	// Unchanged is true when the input is returned as is
	Unchanged bool

	cleanup func()
}

// Cleanup removes the temporary files created for the result
func (r *VideoResult) Cleanup() {
	if r.cleanup != nil {
		r.cleanup()
	}
}

// VideoCompressor compresses videos toward a target size with ffmpeg
//
//go:generate mockgen -source=video.go -destination=../../mocks/video_compressor.go -package=mocks -mock_names=VideoCompressor=MockVideoCompressor
type VideoCompressor interface {
	// Available reports whether the transcoding toolchain is installed
	Available() bool

	// Compress transcodes r (size bytes, served as contentType) so that it fits targetSize when possible
	Compress(ctx context.Context, r io.Reader, size int64, contentType string, targetSize int64) (*VideoResult, error)
}

type videoCompressor struct {
	transcoder adapter.Transcoder
	fs         adapter.FileSystem
}

// NewVideoCompressor creates a video compressor
func NewVideoCompressor(transcoder adapter.Transcoder, fs adapter.FileSystem) VideoCompressor {
	return &videoCompressor{transcoder: transcoder, fs: fs}
}

func (c *videoCompressor) Available() bool {
	return c.transcoder.Available()
}

// TargetBitrateKbps computes the video bitrate that fits targetBytes over durationSeconds after audio
func TargetBitrateKbps(targetBytes int64, durationSeconds float64) int {
	if durationSeconds <= 0 {
		return MIN_VIDEO_BITRATE_KBPS
	}
	total := float64(targetBytes*8) / durationSeconds / 1000
	video := int(math.Floor(total)) - AUDIO_BITRATE_KBPS
	return max(video, MIN_VIDEO_BITRATE_KBPS)
}

func (c *videoCompressor) Compress(ctx context.Context, r io.Reader, size int64, contentType string, targetSize int64) (*VideoResult, error) {
	var temps []string
	cleanup := func() {
		for _, p := range temps {
			if err := c.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.WarnCtx(ctx, "Failed to remove temporary file", zap.String("path", p), zap.Error(err))
			}
		}
	}

	input, written, err := c.spool(r)
	if input != "" {
		temps = append(temps, input)
	}
	if err != nil {
		cleanup()
		return nil, err
	}
	if size <= 0 {
		size = written
	}

	if size <= targetSize {
		return &VideoResult{
			Path:         input,
			ContentType:  contentType,
			OriginalSize: size,
			SizeBytes:    size,
			Unchanged:    true,
			cleanup:      cleanup,
		}, nil
	}

	if !c.transcoder.Available() {
		cleanup()
		return nil, domain.ErrTranscoderUnavailable
	}

	duration, err := c.transcoder.ProbeDuration(ctx, input)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to probe duration: %w", err)
	}

	bitrate := TargetBitrateKbps(targetSize, duration)
	output := input + ".out.mp4"
	temps = append(temps, output)

	outSize, err := c.pass(ctx, input, output, bitrate)
	if err != nil {
		cleanup()
		return nil, err
	}
	passes := 1

	if outSize > targetSize && outSize < size {
		retryBitrate := int(float64(bitrate) * SECOND_PASS_RATIO)
		retry := input + ".retry.mp4"
		temps = append(temps, retry)

		retrySize, err := c.pass(ctx, input, retry, retryBitrate)
		if err != nil {
			cleanup()
			return nil, err
		}
		passes++
		output, outSize, bitrate = retry, retrySize, retryBitrate
	}

	logger.InfoCtx(ctx, "Video compression finished",
		zap.Int64("original_size", size),
		zap.Int64("compressed_size", outSize),
		zap.Int64("target_size", targetSize),
		zap.Float64("duration_seconds", duration),
		zap.Int("bitrate_kbps", bitrate),
		zap.Int("passes", passes),
	)

	// A transcode that grew the file is discarded in favor of the source
	if outSize >= size {
		return &VideoResult{
			Path:         input,
			ContentType:  contentType,
			OriginalSize: size,
			SizeBytes:    size,
			Passes:       passes,
			Unchanged:    true,
			cleanup:      cleanup,
		}, nil
	}

	return &VideoResult{
		Path:         output,
		ContentType:  domain.MimeMP4,
		OriginalSize: size,
		SizeBytes:    outSize,
		BitrateKbps:  bitrate,
		Passes:       passes,
		cleanup:      cleanup,
	}, nil
}

// spool copies r into a temporary file for ffmpeg to read
func (c *videoCompressor) spool(r io.Reader) (string, int64, error) {
	f, err := c.fs.CreateTemp(c.fs.TempDir(), "ff-media-compress-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := f.Name()

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return name, written, fmt.Errorf("failed to spool upload: %w", err)
	}
	return name, written, nil
}

func (c *videoCompressor) pass(ctx context.Context, input, output string, bitrate int) (int64, error) {
	err := c.transcoder.Transcode(ctx, adapter.TranscodeOptions{
		Input:            input,
		Output:           output,
		VideoBitrateKbps: bitrate,
		AudioBitrateKbps: AUDIO_BITRATE_KBPS,
		CRF:              VIDEO_CRF,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to transcode %s: %w", filepath.Base(input), err)
	}

	info, err := c.fs.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("failed to stat transcoded output: %w", err)
	}
	return info.Size(), nil
}
