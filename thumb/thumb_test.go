package thumb

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/esimov/markup"
)

func sampleImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestThumb_FormatFromExt(t *testing.T) {
	for name, want := range map[string]Format{
		"preview":      JPEG,
		"preview.jpg":  JPEG,
		"preview.JPEG": JPEG,
		"preview.png":  PNG,
		"preview.bmp":  BMP,
	} {
		got, err := FormatFromExt(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := FormatFromExt("preview.webp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestThumb_Size(t *testing.T) {
	scale := markup.DefaultThumbnail.Scale(&markup.Rect{Width: 400, Height: 200})

	size := Size(image.Rect(0, 0, 400, 200), markup.DefaultThumbnail)
	assert.Equal(t, int(math.Round(400*scale)), size.X)
	assert.Equal(t, int(math.Round(200*scale)), size.Y)

	size = Size(image.Rect(0, 0, 200, 200), markup.Thumbnail{Width: 100, Ratio: 1})
	assert.Equal(t, image.Pt(100, 100), size)

	// The preview is never smaller than a pixel.
	size = Size(image.Rect(0, 0, 1000, 1), markup.Thumbnail{Width: 1, Ratio: 1000})
	assert.Equal(t, 1, size.Y)
}

func TestThumb_Generate(t *testing.T) {
	want := Size(image.Rect(0, 0, 400, 200), markup.DefaultThumbnail)

	for _, format := range []Format{JPEG, PNG, BMP} {
		var out bytes.Buffer
		size, err := Generate(encodePNG(t, sampleImage(400, 200)), &out, format, markup.DefaultThumbnail)
		require.NoError(t, err, format)
		assert.Equal(t, want, size, format)

		var dec image.Image
		switch format {
		case JPEG:
			dec, err = jpeg.Decode(&out)
		case PNG:
			dec, err = png.Decode(&out)
		case BMP:
			dec, err = bmp.Decode(&out)
		}
		require.NoError(t, err, format)
		assert.Equal(t, want, dec.Bounds().Size(), format)
	}
}

func TestThumb_GenerateErrors(t *testing.T) {
	var out bytes.Buffer

	_, err := Generate(bytes.NewReader([]byte("not an image")), &out, PNG, markup.DefaultThumbnail)
	assert.Error(t, err)

	_, err = Generate(encodePNG(t, sampleImage(8, 8)), &out, Format(42), markup.DefaultThumbnail)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "Format(42)", Format(42).String())
}
