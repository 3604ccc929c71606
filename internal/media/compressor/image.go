package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
)

var (
	// ErrUnsupportedImage is returned when the input cannot be decoded as an image
	ErrUnsupportedImage = errors.New("unsupported image format")
)

const (
	DEFAULT_MAX_DIMENSION       = 1920
	DEFAULT_TARGET_SIZE   int64 = 4 * domain.MB
	DEFAULT_START_QUALITY       = 0.9
	DEFAULT_MIN_QUALITY         = 0.1
	DEFAULT_QUALITY_STEP        = 0.1
)

// ImageConfig holds image compression settings
type ImageConfig struct {
	// MaxDimension bounds both width and height of the output
	MaxDimension int
	// TargetSize is the size the search stops at
	TargetSize int64
	// WorkerConcurrency bounds the number of images compressed at once
	WorkerConcurrency int
}

// ImageResult contains the result of image compression
type ImageResult struct {
	// Data is the output image; the original bytes when Compressed is false
	Data []byte

	// ContentType is the MIME type of Data
	ContentType string

	// OriginalSize is the size of the input in bytes
	OriginalSize int64

	// Width and Height of the encoded output
	Width  int
	Height int

	// Quality is the JPEG quality of the output in [0.1, 0.9]
	Quality float64

	// Compressed is false when no encoding was smaller than the input
	Compressed bool

	// Warning explains why the original was kept or why the target was missed
	Warning string
}

// ImageCompressor compresses images toward a target size
//
//go:generate mockgen -source=image.go -destination=../../mocks/image_compressor.go -package=mocks -mock_names=ImageCompressor=MockImageCompressor
type ImageCompressor interface {
	// Compress downscales and re-encodes data, never returning something larger than the input
	Compress(ctx context.Context, data []byte, contentType string) (*ImageResult, error)

	// Close gracefully shuts down the worker pool
	Close() error
}

type imageCompressor struct {
	config ImageConfig
	codec  adapter.ImageCodec
	pool   pond.ResultPool[*ImageResult]
}

// NewImageCompressor creates an image compressor with a bounded worker pool
func NewImageCompressor(cfg ImageConfig, codec adapter.ImageCodec) ImageCompressor {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = DEFAULT_MAX_DIMENSION
	}
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = DEFAULT_TARGET_SIZE
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}

	return &imageCompressor{
		config: cfg,
		codec:  codec,
		pool:   pond.NewResultPool[*ImageResult](cfg.WorkerConcurrency),
	}
}

func (c *imageCompressor) Compress(ctx context.Context, data []byte, contentType string) (*ImageResult, error) {
	task := c.pool.SubmitErr(func() (*ImageResult, error) {
		return c.compress(ctx, data, contentType)
	})
	return task.Wait()
}

func (c *imageCompressor) compress(ctx context.Context, data []byte, contentType string) (*ImageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := c.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), c.config.MaxDimension)
	if width != bounds.Dx() || height != bounds.Dy() {
		img = c.codec.Resize(img, width, height)
	}

	original := int64(len(data))
	var (
		best    []byte
		quality float64
	)

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := DEFAULT_START_QUALITY - float64(step)*DEFAULT_QUALITY_STEP
		if q < DEFAULT_MIN_QUALITY-1e-9 {
			break
		}
		q = math.Round(q*10) / 10

		var buf bytes.Buffer
		if err := c.codec.EncodeJPEG(&buf, img, int(math.Round(q*100))); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		best, quality = buf.Bytes(), q

		if int64(len(best)) <= c.config.TargetSize {
			break
		}
	}

	logger.DebugCtx(ctx, "Image compression finished",
		zap.String("format", format),
		zap.Int64("original_size", original),
		zap.Int("compressed_size", len(best)),
		zap.Float64("quality", quality),
		zap.Int("width", width),
		zap.Int("height", height),
	)

	if int64(len(best)) >= original {
		return &ImageResult{
			Data:         data,
			ContentType:  contentType,
			OriginalSize: original,
			Width:        bounds.Dx(),
			Height:       bounds.Dy(),
			Compressed:   false,
			Warning:      "compression did not reduce the file size, keeping the original",
		}, nil
	}

	result := &ImageResult{
		Data:         best,
		ContentType:  domain.MimeJPEG,
		OriginalSize: original,
		Width:        width,
		Height:       height,
		Quality:      quality,
		Compressed:   true,
	}
	if int64(len(best)) > c.config.TargetSize {
		result.Warning = fmt.Sprintf("could not reach %d bytes at the lowest quality", c.config.TargetSize)
	}
	return result, nil
}

func (c *imageCompressor) Close() error {
	c.pool.StopAndWait()
	return nil
}

// fitWithin scales width x height down to fit maxSide on both sides, keeping the aspect ratio. It never enlarges.
func fitWithin(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return width, height
	}
	if width >= height {
		return maxSide, int(math.Max(1, math.Round(float64(height)*float64(maxSide)/float64(width))))
	}
	return int(math.Max(1, math.Round(float64(width)*float64(maxSide)/float64(height)))), maxSide
}
