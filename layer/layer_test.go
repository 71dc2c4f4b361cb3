package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape string

func (s shape) ID() string { return string(s) }

func TestLayer_Move(t *testing.T) {
	assert := assert.New(t)

	seq := []shape{"A", "B", "C"}
	out, err := Move(seq, 2, 0)
	require.NoError(t, err)
	assert.Equal([]shape{"C", "A", "B"}, out)
	// The input is left untouched.
	assert.Equal([]shape{"A", "B", "C"}, seq)

	out, err = Move(seq, 0, 2)
	require.NoError(t, err)
	assert.Equal([]shape{"B", "C", "A"}, out)

	out, err = Move(seq, 1, 1)
	require.NoError(t, err)
	assert.Equal(seq, out)

	_, err = Move(seq, 0, 5)
	assert.ErrorIs(err, ErrOutOfRange)
	_, err = Move(seq, -1, 0)
	assert.ErrorIs(err, ErrOutOfRange)
	_, err = Move([]shape{}, 0, 0)
	assert.ErrorIs(err, ErrOutOfRange)
}

func TestLayer_MoveBack(t *testing.T) {
	seq := []shape{"A", "B", "C"}

	out, err := MoveBack(seq, 2)
	require.NoError(t, err)
	assert.Equal(t, []shape{"A", "C", "B"}, out)

	_, err = MoveBack(seq, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLayer_MoveGrow(t *testing.T) {
	assert := assert.New(t)

	out := MoveGrow([]shape{"A", "B", "C"}, 2, 0)
	assert.Equal([]shape{"C", "A", "B"}, out)

	out = MoveGrow([]shape{"A", "B"}, 0, 5)
	assert.Len(out, 6)
	assert.Equal(shape("A"), out[5])
	assert.Equal(shape("B"), out[0])
	for _, v := range out[1:5] {
		assert.Equal(shape(""), v)
	}

	seq := []shape{"A"}
	assert.Equal(seq, MoveGrow(seq, 3, 0))
	assert.Equal(seq, MoveGrow(seq, 0, -1))
}

func TestLayer_IsAtBack(t *testing.T) {
	assert.True(t, IsAtBack(0))
	assert.True(t, IsAtBack(-1))
	assert.False(t, IsAtBack(1))
}

func TestLayer_Classify(t *testing.T) {
	assert := assert.New(t)

	s := &Stacks[shape]{
		Annotation: []shape{"a1", "dup"},
		Decoration: []shape{"d1", "dup"},
		Redaction:  []shape{"r1"},
	}

	testCases := []struct {
		id   string
		want Category
	}{
		{"a1", Annotation},
		{"d1", Decoration},
		{"r1", Redaction},
		{"dup", Annotation},
	}
	for _, tc := range testCases {
		c, ok := s.Classify(tc.id)
		assert.True(ok, tc.id)
		assert.Equal(tc.want, c, tc.id)
	}

	_, ok := s.Classify("missing")
	assert.False(ok)
	assert.Equal(Lowest, s.ClassifyOr("missing", Lowest))
	assert.Equal(Decoration, s.ClassifyOr("missing", Decoration))
	assert.Equal(Annotation, s.ClassifyOr("a1", Lowest))
}

func TestLayer_StacksMoveBack(t *testing.T) {
	assert := assert.New(t)

	s := &Stacks[shape]{
		Annotation: []shape{"a1"},
		Decoration: []shape{"d1", "d2", "d3"},
	}

	c, err := s.MoveBack("d3")
	require.NoError(t, err)
	assert.Equal(Decoration, c)
	assert.Equal([]shape{"d1", "d3", "d2"}, s.Decoration)

	_, err = s.MoveBack("a1")
	assert.ErrorIs(err, ErrOutOfRange)
	assert.Equal([]shape{"a1"}, s.Annotation)

	_, err = s.MoveBack("nope")
	assert.ErrorIs(err, ErrNotFound)

	assert.Equal([]shape{"a1", "d1", "d3", "d2"}, s.All())
}

func TestLayer_Category(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("imageAnnotation", Annotation.String())
	assert.Equal("imageRedaction", Redaction.String())
	assert.Equal("Category(7)", Category(7).String())

	for _, c := range Categories() {
		got, ok := ParseCategory(c.String())
		assert.True(ok)
		assert.Equal(c, got)
	}
	got, ok := ParseCategory("decoration")
	assert.True(ok)
	assert.Equal(Decoration, got)
	_, ok = ParseCategory("background")
	assert.False(ok)
}

func TestLayer_Append(t *testing.T) {
	seq := Append([]shape{"A"}, "B")
	assert.Equal(t, []shape{"A", "B"}, seq)
	assert.Equal(t, 1, Index(seq, "B"))
	assert.Equal(t, -1, Index(seq, "C"))
}
