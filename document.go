package markup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/esimov/markup/layer"
	"github.com/esimov/markup/pictograph"
)

// ErrNotObject is returned when the decoded document is not a JSON object.
var ErrNotObject = errors.New("markup: document is not a JSON object")

// Keys of the editor image state handled by Document.
const (
	keyCrop       = "crop"
	keyAnnotation = "annotation"
	keyDecoration = "decoration"
	keyRedaction  = "redaction"
)

// Rect is the crop rectangle of the canvas the document was authored for.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is the persisted image state of the editor.
type Document struct {
	Crop       *Rect
	Annotation []Shape
	Decoration []Shape
	Redaction  []Shape

	// Extra holds every other property of the image state, untouched.
	Extra map[string]json.RawMessage
}

// New returns an empty document.
func New() *Document {
	return &Document{Annotation: []Shape{}}
}

// Decode parses a stored document. The escape markers found in object keys
// and string values are replaced by the characters they denote. Numbers are
// kept as json.Number so that none of them loses precision. An empty input
// yields an empty document.
//
// raw is read as UTF-8. Input which is not valid UTF-8 is taken to be a one
// byte per character buffer, as produced by pictograph.ToBytes.
func Decode(raw []byte) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return New(), nil
	}
	if !utf8.Valid(raw) {
		raw = []byte(pictograph.FromBytes(raw))
	}

	var tree any
	if err := unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("markup: decoding document: %w", err)
	}
	if tree == nil {
		return New(), nil
	}
	obj, ok := unescape(tree).(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("markup: decoding document: %w", err)
	}
	doc := New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("markup: decoding document: %w", err)
	}
	if doc.Annotation == nil {
		doc.Annotation = []Shape{}
	}
	return doc, nil
}

// unmarshal is json.Unmarshal decoding numbers as json.Number.
func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("invalid data after top-level value")
	}
	return nil
}

// unescape decodes the pictograph markers of every key and string held by v.
func unescape(v any) any {
	switch v := v.(type) {
	case string:
		return pictograph.Decode(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[pictograph.Decode(key)] = unescape(val)
		}
		return out
	case []any:
		for i, val := range v {
			v[i] = unescape(val)
		}
	}
	return v
}

// Encode returns the stored form of the document: its JSON representation
// with every character above U+007F escaped, one byte per character. The
// stored form is plain ASCII, so Decode reads it back unambiguously.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("markup: encoding document: %w", err)
	}
	return pictograph.ToASCII(string(data)), nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d Document) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(d.Extra)+4)
	for key, val := range d.Extra {
		obj[key] = val
	}
	if d.Crop != nil {
		obj[keyCrop] = d.Crop
	}
	if d.Annotation != nil {
		obj[keyAnnotation] = d.Annotation
	} else {
		obj[keyAnnotation] = []Shape{}
	}
	if d.Decoration != nil {
		obj[keyDecoration] = d.Decoration
	}
	if d.Redaction != nil {
		obj[keyRedaction] = d.Redaction
	}
	return json.Marshal(obj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*d = Document{}

	for key, val := range fields {
		var err error
		switch key {
		case keyCrop:
			err = json.Unmarshal(val, &d.Crop)
		case keyAnnotation:
			err = unmarshal(val, &d.Annotation)
		case keyDecoration:
			err = unmarshal(val, &d.Decoration)
		case keyRedaction:
			err = unmarshal(val, &d.Redaction)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = val
		}
		if err != nil {
			return fmt.Errorf("markup: invalid %q: %w", key, err)
		}
	}
	return nil
}

// Layers returns the shape stacks of the document.
func (d *Document) Layers() layer.Stacks[Shape] {
	return layer.Stacks[Shape]{
		Annotation: d.Annotation,
		Decoration: d.Decoration,
		Redaction:  d.Redaction,
	}
}

// SetLayers replaces the shape stacks of the document.
func (d *Document) SetLayers(s layer.Stacks[Shape]) {
	d.Annotation = s.Annotation
	d.Decoration = s.Decoration
	d.Redaction = s.Redaction
}

// Shape returns the shape with the given id along with its category.
func (d *Document) Shape(id string) (Shape, layer.Category, bool) {
	s := d.Layers()
	c, ok := s.Classify(id)
	if !ok {
		return nil, 0, false
	}
	seq := s.Get(c)
	return seq[layer.Index(seq, id)], c, true
}

// CanMoveBack reports whether the shape with the given id can be moved one
// step back within its category.
func (d *Document) CanMoveBack(id string) bool {
	s := d.Layers()
	c, ok := s.Classify(id)
	if !ok {
		return false
	}
	return !layer.IsAtBack(layer.Index(s.Get(c), id))
}

// MoveBack moves the shape with the given id one step back within its category.
func (d *Document) MoveBack(id string) (layer.Category, error) {
	s := d.Layers()
	c, err := s.MoveBack(id)
	if err != nil {
		return c, err
	}
	d.SetLayers(s)
	return c, nil
}
