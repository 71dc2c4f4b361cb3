package pictograph

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnencodable is returned by ToBytesStrict when the escaped text still
// holds a character which does not fit in a single byte.
var ErrUnencodable = errors.New("pictograph: character does not fit in a byte")

// latin1 maps every byte value to the code point of the same value.
var latin1 = charmap.ISO8859_1

// ToBytes escapes the pictographs of s and returns the escaped text as a
// buffer holding one byte per character.
//
// Characters above U+00FF that are not pictographs (CJK text, variation
// selectors, invalid UTF-8) are escaped with the same marker grammar
// instead of being truncated, so Decode(FromBytes(ToBytes(s))) == s for
// any s without literal marker text.
func ToBytes(s string) []byte {
	buf, err := toLatin1(escape(s, isResidual))
	if err != nil {
		// escape leaves only runes up to U+00FF behind.
		panic(err)
	}
	return buf
}

// ToBytesStrict is like ToBytes but rejects the input with ErrUnencodable
// if a character above U+00FF remains after the pictographs are escaped.
func ToBytesStrict(s string) ([]byte, error) {
	return toLatin1(Encode(s))
}

// ToASCII escapes every character of s above U+007F, pictographs and
// Latin-1 letters alike, and returns the escaped text as a buffer of 7-bit
// bytes. The buffer reads back the same whether it is taken as UTF-8 or as
// one byte per character, so Decode(string(ToASCII(s))) == s for any s
// without literal marker text.
func ToASCII(s string) []byte {
	return []byte(escape(s, isNonASCII))
}

// FromBytes builds a string by mapping every byte of buf to the character
// with the same code point. It is the exact inverse of the byte mapping
// performed by ToBytes.
func FromBytes(buf []byte) string {
	var sb strings.Builder
	sb.Grow(len(buf))
	for _, c := range buf {
		sb.WriteRune(latin1.DecodeByte(c))
	}
	return sb.String()
}

// isResidual reports whether r has to be escaped before the text can be
// stored one byte per character.
func isResidual(r rune) bool {
	return r > unicode.MaxLatin1 || IsPictograph(r)
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}

func toLatin1(s string) ([]byte, error) {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		c, ok := latin1.EncodeRune(r)
		if !ok || (r == utf8.RuneError && size == 1) {
			return nil, fmt.Errorf("%w: %U at offset %d", ErrUnencodable, r, i)
		}
		buf = append(buf, c)
		i += size
	}
	return buf, nil
}
