// Package codec decodes and encodes the image formats the pipeline supports:
// webp, jpg and png. Encoders form an explicit compile-time registry built
// once at startup; there is no runtime discovery.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"

	// Register the webp decoder with image.Decode; jpeg and png register
	// through the encoder imports above.
	_ "golang.org/x/image/webp"
)

// Fixed output qualities. Derivative output must be deterministic, so these
// are constants rather than configuration.
const (
	QualityDefault   = 82
	QualityThumbnail = 60
)

// Encoder encodes a decoded image to one output format.
type Encoder interface {
	// Encode writes img in the encoder's format.
	Encode(img image.Image) ([]byte, error)

	// ContentType returns the MIME type of the encoded output.
	ContentType() string
}

// Registry maps normalized output type names ("webp", "jpg", "png") to
// encoders. Built once and passed by reference into the render path.
type Registry map[string]Encoder

// NewRegistry builds the default encoder registry with fixed qualities.
func NewRegistry() Registry {
	return Registry{
		"webp": WebpEncoder{Quality: QualityDefault},
		"jpg":  JpegEncoder{Quality: QualityDefault},
		"png":  PngEncoder{},
	}
}

// Decode decodes image bytes, returning the image and the detected format
// name ("jpeg", "png" or "webp"). Decoding into raw pixels drops any EXIF or
// ICC payload, so every re-encode is metadata-free.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// WebpEncoder encodes lossy webp at a fixed quality, or losslessly when
// Lossless is set.
type WebpEncoder struct {
	Quality  int
	Lossless bool
}

func (e WebpEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := &webp.Options{Quality: float32(e.Quality), Lossless: e.Lossless}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (e WebpEncoder) ContentType() string { return "image/webp" }

// JpegEncoder encodes jpeg at a fixed quality.
type JpegEncoder struct {
	Quality int
}

func (e JpegEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (e JpegEncoder) ContentType() string { return "image/jpeg" }

// PngEncoder encodes png. PNG is lossless; there is no quality parameter.
type PngEncoder struct{}

func (e PngEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e PngEncoder) ContentType() string { return "image/png" }

// FormatExt maps a detected format name to its canonical file extension.
func FormatExt(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "bin"
	}
}

// FormatMime maps a detected format name to its canonical MIME type.
func FormatMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// EncoderForFormat returns the encoder used to re-persist an original in its
// native format during metadata stripping. Webp and png stay lossless; jpeg
// is re-encoded at a high fixed quality.
func EncoderForFormat(format string) (Encoder, error) {
	switch format {
	case "jpeg":
		return JpegEncoder{Quality: 92}, nil
	case "png":
		return PngEncoder{}, nil
	case "webp":
		return WebpEncoder{Lossless: true}, nil
	default:
		return nil, fmt.Errorf("no encoder for format %q", format)
	}
}
