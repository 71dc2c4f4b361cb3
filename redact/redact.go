// Package redact finds the faces shown on an image and turns them into
// redaction shapes of the annotation document edited over it.
package redact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/esimov/markup"
	"github.com/esimov/markup/utils"
)

// ErrInvalidCascade is returned when the cascade file can not be unpacked.
var ErrInvalidCascade = errors.New("redact: invalid cascade file")

// Options holds the face detection parameters.
type Options struct {
	// MinSize and MaxSize bound the side of the detection window, in pixels
	// of the analyzed image. A zero MaxSize means the largest image side.
	MinSize int `yaml:"minSize"`
	MaxSize int `yaml:"maxSize"`

	// ShiftFactor is the step of the detection window relative to its size.
	ShiftFactor float64 `yaml:"shiftFactor"`
	// ScaleFactor is the growth of the detection window between two passes.
	ScaleFactor float64 `yaml:"scaleFactor"`

	// IoU is the intersection over union threshold used to merge detections.
	IoU float64 `yaml:"iou"`
	// Angle is the in-plane rotation of the faces, as a fraction of a full turn.
	Angle float64 `yaml:"angle"`
	// Quality is the minimum score of a reported face.
	Quality float32 `yaml:"quality"`

	// MaxDim is the largest side of the analyzed image. Larger images are
	// downscaled before the detection. Zero disables the downscaling.
	MaxDim int `yaml:"maxDim"`
}

// DefaultOptions is a setup tuned for portraits and group photos.
var DefaultOptions = Options{
	MinSize:     20,
	ShiftFactor: 0.1,
	ScaleFactor: 1.1,
	IoU:         0.2,
	Quality:     5,
	MaxDim:      1024,
}

// Detector locates faces with a pigo cascade classifier.
type Detector struct {
	Options
	classifier *pigo.Pigo
}

// NewDetector unpacks the cascade and returns a detector using opts.
// Zero fields of opts fall back to DefaultOptions.
func NewDetector(cascade []byte, opts Options) (*Detector, error) {
	if err := checkCascade(cascade); err != nil {
		return nil, err
	}
	classifier, err := unpack(cascade)
	if err != nil {
		return nil, err
	}
	return &Detector{Options: opts.withDefaults(), classifier: classifier}, nil
}

func (o Options) withDefaults() Options {
	if o.MinSize <= 0 {
		o.MinSize = DefaultOptions.MinSize
	}
	if o.ShiftFactor <= 0 {
		o.ShiftFactor = DefaultOptions.ShiftFactor
	}
	if o.ScaleFactor <= 1 {
		o.ScaleFactor = DefaultOptions.ScaleFactor
	}
	if o.IoU <= 0 {
		o.IoU = DefaultOptions.IoU
	}
	if o.Quality <= 0 {
		o.Quality = DefaultOptions.Quality
	}
	o.Angle = math.Max(0, math.Min(o.Angle, 1))
	return o
}

// checkCascade validates the layout of the cascade before handing it over to
// pigo, which does not bound check its input. A cascade is an 8 byte header
// followed by the tree depth, the number of trees and, for every tree, its
// node codes, leaf predictions and threshold.
func checkCascade(cascade []byte) error {
	if len(cascade) < 16 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidCascade, len(cascade))
	}
	depth := binary.LittleEndian.Uint32(cascade[8:])
	trees := binary.LittleEndian.Uint32(cascade[12:])
	if depth == 0 || depth > 16 || trees == 0 {
		return fmt.Errorf("%w: depth %d, %d trees", ErrInvalidCascade, depth, trees)
	}
	leaves := uint64(1) << depth
	tree := 4*leaves - 4 + 4*leaves + 4
	if need := 16 + uint64(trees)*tree; uint64(len(cascade)) < need {
		return fmt.Errorf("%w: truncated, %d of %d bytes", ErrInvalidCascade, len(cascade), need)
	}
	return nil
}

func unpack(cascade []byte) (classifier *pigo.Pigo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidCascade, r)
		}
	}()
	classifier, err = pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCascade, err)
	}
	return classifier, nil
}

// Detect returns the bounding boxes of the faces found on img, in the
// coordinates of img, ordered top to bottom and left to right.
func (d *Detector) Detect(img image.Image) []image.Rectangle {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil
	}

	var src *image.NRGBA
	ratio := 1.0
	if d.MaxDim > 0 && utils.Max(bounds.Dx(), bounds.Dy()) > d.MaxDim {
		src = imaging.Fit(img, d.MaxDim, d.MaxDim, imaging.Linear)
		ratio = float64(bounds.Dx()) / float64(src.Bounds().Dx())
	} else {
		src = imaging.Clone(img)
	}
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	maxSize := utils.Max(cols, rows)
	if d.MaxSize > 0 {
		maxSize = utils.Min(d.MaxSize, maxSize)
	}
	params := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: grayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains the row, column, scale and score of every window
	// classified as a face. Overlapping windows are then merged.
	dets := d.classifier.RunCascade(params, d.Angle)
	dets = d.classifier.ClusterDetections(dets, d.IoU)

	rects := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.Quality {
			continue
		}
		half := float64(det.Scale) / 2
		r := image.Rect(
			int(math.Round((float64(det.Col)-half)*ratio)),
			int(math.Round((float64(det.Row)-half)*ratio)),
			int(math.Round((float64(det.Col)+half)*ratio)),
			int(math.Round((float64(det.Row)+half)*ratio)),
		).Add(bounds.Min).Intersect(bounds)

		if !r.Empty() {
			rects = append(rects, r)
		}
	}
	slices.SortFunc(rects, func(a, b image.Rectangle) bool {
		if a.Min.Y != b.Min.Y {
			return a.Min.Y < b.Min.Y
		}
		return a.Min.X < b.Min.X
	})
	return rects
}

// Apply appends a redaction shape to doc for every face found on img and
// returns the number of faces.
func (d *Detector) Apply(doc *markup.Document, img image.Image) int {
	shapes := Shapes(d.Detect(img))
	doc.Redaction = append(doc.Redaction, shapes...)
	return len(shapes)
}

// Shapes returns the redaction shapes covering rects, each with a fresh id.
func Shapes(rects []image.Rectangle) []markup.Shape {
	shapes := make([]markup.Shape, 0, len(rects))
	for _, r := range rects {
		shapes = append(shapes, markup.Shape{
			"id":     uuid.NewString(),
			"x":      float64(r.Min.X),
			"y":      float64(r.Min.Y),
			"width":  float64(r.Dx()),
			"height": float64(r.Dy()),
		})
	}
	return shapes
}

// grayscale converts an image to grayscale mode and
// returns the pixel values as an one dimensional array.
func grayscale(src *image.NRGBA) []uint8 {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	gray := make([]uint8, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := src.PixOffset(x, y)
			r, g, b := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
			gray[y*width+x] = uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
		}
	}
	return gray
}
