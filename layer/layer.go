// Package layer maintains the stacking order (z-order) of annotation shapes.
//
// Shapes are grouped in three disjoint categories, each one an independently
// ordered sequence where index 0 is the back of the stack. The functions of
// this package are stateless: the caller owns the sequences and reassigns the
// returned ones to its live state.
package layer

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// ErrOutOfRange is returned when a move refers to an index outside the sequence.
var ErrOutOfRange = errors.New("layer: index out of range")

// ErrNotFound is returned when no category holds a shape with the requested id.
var ErrNotFound = errors.New("layer: shape not found")

// Identifier is implemented by anything carrying a shape id.
type Identifier interface {
	ID() string
}

// Category is one of the three shape groups kept by the editor.
type Category int

// Categories in precedence order.
const (
	Annotation Category = iota
	Decoration
	Redaction
)

// Lowest is the category with the lowest precedence.
const Lowest = Redaction

// categoryNames holds the editor state key of every category.
var categoryNames = [...]string{
	Annotation: "imageAnnotation",
	Decoration: "imageDecoration",
	Redaction:  "imageRedaction",
}

// Categories lists every category in precedence order.
func Categories() []Category {
	return []Category{Annotation, Decoration, Redaction}
}

// String returns the editor state key of the category.
func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory maps an editor state key, or its short form
// ("annotation", "decoration", "redaction"), to a Category.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "imageAnnotation", "annotation":
		return Annotation, true
	case "imageDecoration", "decoration":
		return Decoration, true
	case "imageRedaction", "redaction":
		return Redaction, true
	}
	return 0, false
}

// Stacks holds the ordered shape sequences of every category.
type Stacks[T Identifier] struct {
	Annotation []T
	Decoration []T
	Redaction  []T
}

// Get returns the sequence of category c.
func (s *Stacks[T]) Get(c Category) []T {
	switch c {
	case Annotation:
		return s.Annotation
	case Decoration:
		return s.Decoration
	case Redaction:
		return s.Redaction
	}
	return nil
}

// Set replaces the sequence of category c.
func (s *Stacks[T]) Set(c Category, seq []T) {
	switch c {
	case Annotation:
		s.Annotation = seq
	case Decoration:
		s.Decoration = seq
	case Redaction:
		s.Redaction = seq
	}
}

// All returns the shapes of every category, in precedence order.
func (s *Stacks[T]) All() []T {
	all := make([]T, 0, len(s.Annotation)+len(s.Decoration)+len(s.Redaction))
	all = append(all, s.Annotation...)
	all = append(all, s.Decoration...)
	return append(all, s.Redaction...)
}

// Classify returns the first category, in precedence order, holding a shape
// with the given id. The boolean is false if no category holds it.
func (s *Stacks[T]) Classify(id string) (Category, bool) {
	for _, c := range Categories() {
		if Index(s.Get(c), id) >= 0 {
			return c, true
		}
	}
	return 0, false
}

// ClassifyOr is like Classify but returns fallback when the id is unknown.
func (s *Stacks[T]) ClassifyOr(id string, fallback Category) Category {
	if c, ok := s.Classify(id); ok {
		return c
	}
	return fallback
}

// MoveBack moves the shape with the given id one step back within its own
// category and stores the reordered sequence. It returns the category of
// the shape.
func (s *Stacks[T]) MoveBack(id string) (Category, error) {
	c, ok := s.Classify(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	seq := s.Get(c)
	seq, err := MoveBack(seq, Index(seq, id))
	if err != nil {
		return c, err
	}
	s.Set(c, seq)
	return c, nil
}

// Index returns the position of the shape with the given id, or -1.
func Index[T Identifier](seq []T, id string) int {
	return slices.IndexFunc(seq, func(v T) bool {
		return v.ID() == id
	})
}

// IsAtBack reports whether the shape at index i is at the back of its
// stack, in which case it cannot be moved further back.
func IsAtBack(i int) bool {
	return i <= 0
}

// Move returns a copy of seq where the element at index from is removed
// and reinserted at index to. Both indexes must address existing elements.
func Move[T any](seq []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(seq) {
		return nil, fmt.Errorf("%w: from %d, length %d", ErrOutOfRange, from, len(seq))
	}
	if to < 0 || to >= len(seq) {
		return nil, fmt.Errorf("%w: to %d, length %d", ErrOutOfRange, to, len(seq))
	}
	out := slices.Clone(seq)
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v), nil
}

// MoveBack moves the element at index i one step towards the back of the stack.
func MoveBack[T any](seq []T, i int) ([]T, error) {
	if IsAtBack(i) {
		return nil, fmt.Errorf("%w: element %d is already at the back", ErrOutOfRange, i)
	}
	return Move(seq, i, i-1)
}

// MoveGrow reproduces the legacy reordering of the editor: when to is past
// the end of seq the sequence is first padded with zero values up to a
// length of to+1, then the element at from is moved to to. The padding
// slots are placeholders, not shapes. Callers should prefer Move.
//
// If from does not address an element or to is negative, seq is returned
// unchanged.
func MoveGrow[T any](seq []T, from, to int) []T {
	if from < 0 || from >= len(seq) || to < 0 {
		return seq
	}
	if to >= len(seq) {
		seq = append(seq, make([]T, to-len(seq)+1)...)
	}
	v := seq[from]
	seq = slices.Delete(seq, from, from+1)
	return slices.Insert(seq, to, v)
}

// Append adds v on top of the stack, at the last index.
func Append[T any](seq []T, v T) []T {
	return append(seq, v)
}
