package codec_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecms/mediacore/pkg/mediacore/codec"
)

func gradient(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	return img
}

func TestDecodeDetectsFormat(t *testing.T) {
	src := gradient(32, 24)

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, src, nil))

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{name: "jpeg", data: jpegBuf.Bytes(), format: "jpeg"},
		{name: "png", data: pngBuf.Bytes(), format: "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := codec.Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 24, img.Bounds().Dy())
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := codec.Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestEncodersRoundTrip(t *testing.T) {
	src := gradient(48, 48)

	tests := []struct {
		name        string
		encoder     codec.Encoder
		contentType string
		format      string
	}{
		{name: "webp", encoder: codec.WebpEncoder{Quality: codec.QualityDefault}, contentType: "image/webp", format: "webp"},
		{name: "jpg", encoder: codec.JpegEncoder{Quality: codec.QualityDefault}, contentType: "image/jpeg", format: "jpeg"},
		{name: "png", encoder: codec.PngEncoder{}, contentType: "image/png", format: "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.encoder.Encode(src)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.Equal(t, tt.contentType, tt.encoder.ContentType())

			img, format, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, 48, img.Bounds().Dx())
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	src := gradient(64, 40)
	enc := codec.WebpEncoder{Quality: codec.QualityDefault}

	first, err := enc.Encode(src)
	require.NoError(t, err)
	second, err := enc.Encode(src)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same pixels and quality must produce identical bytes")
}

func TestNewRegistry(t *testing.T) {
	reg := codec.NewRegistry()

	for _, name := range []string{"webp", "jpg", "png"} {
		_, ok := reg[name]
		assert.True(t, ok, "registry should contain %q", name)
	}
	_, ok := reg["gif"]
	assert.False(t, ok)
}

func TestFormatMappings(t *testing.T) {
	assert.Equal(t, "jpg", codec.FormatExt("jpeg"))
	assert.Equal(t, "webp", codec.FormatExt("webp"))
	assert.Equal(t, "bin", codec.FormatExt("tiff"))

	assert.Equal(t, "image/jpeg", codec.FormatMime("jpeg"))
	assert.Equal(t, "image/png", codec.FormatMime("png"))
	assert.Equal(t, "application/octet-stream", codec.FormatMime("tiff"))
}

func TestEncoderForFormat(t *testing.T) {
	for _, format := range []string{"jpeg", "png", "webp"} {
		enc, err := codec.EncoderForFormat(format)
		require.NoError(t, err)
		assert.NotNil(t, enc)
	}

	_, err := codec.EncoderForFormat("gif")
	assert.Error(t, err)
}
