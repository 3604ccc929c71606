package adapter

import (
	"image"
	"image/jpeg"
	"io"

	// Register decoders for the formats accepted by the upload pipeline
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageCodec defines image decode, resize and encode operations to enable mocking
//
//go:generate mockgen -source=image.go -destination=../mocks/image.go -package=mocks -mock_names=ImageCodec=MockImageCodec
type ImageCodec interface {
	// Decode decodes any registered image format, returning the format name
	Decode(r io.Reader) (image.Image, string, error)
	// Resize scales img to exactly width x height
	Resize(img image.Image, width, height int) image.Image
	// EncodeJPEG encodes an image to JPEG format with quality in [1, 100]
	EncodeJPEG(w io.Writer, img image.Image, quality int) error
}

// RealImageCodec implements ImageCodec using image and golang.org/x/image
type RealImageCodec struct{}

// NewImageCodec creates a new real image codec
func NewImageCodec() ImageCodec {
	return &RealImageCodec{}
}

func (c *RealImageCodec) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

func (c *RealImageCodec) Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func (c *RealImageCodec) EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
