// Package thumb renders the gallery previews of edited images, sized with
// the same factor the annotation documents are rescaled by, so that the
// shapes of a document loaded for a thumbnail line up with its preview.
package thumb

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	"github.com/esimov/markup"
)

// ErrUnsupportedFormat is returned for image formats the previews can not be encoded to.
var ErrUnsupportedFormat = errors.New("thumb: unsupported image format")

// Format is the encoding of a generated preview.
type Format int

const (
	JPEG Format = iota
	PNG
	BMP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromExt returns the format matching the extension of a file name.
// A missing extension falls back to JPEG.
func FormatFromExt(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Size returns the dimensions of the preview of an image of the given size.
func Size(bounds image.Rectangle, t markup.Thumbnail) image.Point {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	scale := t.Scale(&markup.Rect{Width: w, Height: h})

	return image.Point{
		X: int(math.Max(1, math.Round(w*scale))),
		Y: int(math.Max(1, math.Round(h*scale))),
	}
}

// Resize returns the preview of img.
func Resize(img image.Image, t markup.Thumbnail) *image.NRGBA {
	size := Size(img.Bounds(), t)
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
}

// Generate decodes the image read from r and writes its preview to w.
// It returns the size of the preview.
func Generate(r io.Reader, w io.Writer, format Format, t markup.Thumbnail) (image.Point, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return image.Point{}, fmt.Errorf("thumb: could not decode the source image: %w", err)
	}
	if src.Bounds().Empty() {
		return image.Point{}, errors.New("thumb: empty source image")
	}
	dst := Resize(src, t)
	if err := Encode(w, dst, format); err != nil {
		return image.Point{}, err
	}
	return dst.Bounds().Size(), nil
}

// Encode encodes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}
