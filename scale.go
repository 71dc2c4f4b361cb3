package markup

import "math"

// Thumbnail describes the preview canvas used to display a document
// authored against a full resolution canvas.
type Thumbnail struct {
	// Width is the reference width of the preview canvas.
	Width float64 `yaml:"width"`
	// Ratio is the aspect ratio of the preview canvas.
	Ratio float64 `yaml:"ratio"`
}

// DefaultThumbnail is the gallery preview canvas of the editor.
var DefaultThumbnail = Thumbnail{Width: 283, Ratio: 1.42}

// Scale returns the uniform factor mapping the geometry of a canvas cropped
// to crop onto the thumbnail canvas. It returns 1 when the crop is missing
// or degenerate. Zero fields of t fall back to DefaultThumbnail.
func (t Thumbnail) Scale(crop *Rect) float64 {
	if t.Width <= 0 {
		t.Width = DefaultThumbnail.Width
	}
	if t.Ratio <= 0 {
		t.Ratio = DefaultThumbnail.Ratio
	}
	if crop == nil || crop.Width == 0 || crop.Height == 0 {
		return 1
	}
	rt := crop.Width / crop.Height / t.Ratio
	scale := t.Width * rt / crop.Width

	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return 1
	}
	return scale
}

// ScaleToThumbnail rescales the annotation shapes so that the document can
// be displayed inside the thumbnail canvas t without re-authoring it. The
// font size of every shape is scaled, and so is the geometry of the shapes
// carrying an embedded background image. It returns the applied factor.
func (d *Document) ScaleToThumbnail(t Thumbnail) float64 {
	scale := t.Scale(d.Crop)
	if scale == 1 {
		return scale
	}
	for _, s := range d.Annotation {
		if s != nil {
			s.scale(scale)
		}
	}
	return scale
}
