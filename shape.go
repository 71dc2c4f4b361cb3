package markup

import (
	"encoding/json"
	"strings"
)

// Shape is a single editor shape, kept as the generic JSON object the editor
// produces so that every property survives a load and save cycle.
type Shape map[string]any

// Geometry properties rescaled together with an embedded background image.
var geometryKeys = []string{"width", "height", "x", "y"}

// ID returns the shape identifier, or an empty string if the shape has none.
func (s Shape) ID() string {
	id, _ := s["id"].(string)
	return id
}

// Number returns the numeric property key.
func (s Shape) Number(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// SetNumber sets the numeric property key.
func (s Shape) SetNumber(key string, v float64) {
	s[key] = v
}

// FontSize returns the font size of text shapes.
func (s Shape) FontSize() (float64, bool) {
	return s.Number("fontSize")
}

// BackgroundImage returns the image reference of sticker shapes.
func (s Shape) BackgroundImage() string {
	bg, _ := s["backgroundImage"].(string)
	return bg
}

// IsEmbedded reports whether the background image is embedded as a data URL.
func (s Shape) IsEmbedded() bool {
	return strings.HasPrefix(s.BackgroundImage(), "data:")
}

// IsBlob reports whether the background image is a temporary blob reference
// which has to be inlined before the shape is stored.
func (s Shape) IsBlob() bool {
	return strings.HasPrefix(s.BackgroundImage(), "blob:")
}

// scale multiplies the font size, and the geometry of shapes carrying an
// embedded background image, by f. Missing properties are left alone.
func (s Shape) scale(f float64) {
	if fs, ok := s.FontSize(); ok {
		s.SetNumber("fontSize", fs*f)
	}
	if !s.IsEmbedded() {
		return
	}
	for _, key := range geometryKeys {
		if v, ok := s.Number(key); ok {
			s.SetNumber(key, v*f)
		}
	}
}
