// Package pictograph makes strings carrying emoji and other pictographic
// symbols safe to store as single-byte buffers and to embed in JSON.
//
// Every pictograph is replaced by an escape marker of the form [e-<hex>],
// where <hex> is the lowercase hexadecimal code point. Decode reverses the
// transformation. ToBytes and FromBytes map the escaped text to and from
// a buffer holding one byte per character.
package pictograph

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	markerPrefix = "[e-"
	markerSuffix = "]"
)

// marker matches an escape marker. The hex digits are captured in group 1.
var marker = regexp.MustCompile(`\[e-([0-9a-fA-F]+)\]`)

// IsPictograph reports whether r belongs to the fixed set of symbol,
// emoji and pictograph ranges replaced by Encode.
func IsPictograph(r rune) bool {
	switch {
	// Miscellaneous Symbols and Pictographs
	case r >= 0x1F300 && r <= 0x1F5FF:
		return true
	// Emoticons
	case r >= 0x1F600 && r <= 0x1F64F:
		return true
	// Transport and Map Symbols
	case r >= 0x1F680 && r <= 0x1F6FF:
		return true
	// Supplemental Symbols and Pictographs, Extended-A and Extended-B
	case r >= 0x1F900 && r <= 0x1FAFF:
		return true
	// Miscellaneous Symbols
	case r >= 0x2600 && r <= 0x26FF:
		return true
	// Dingbats
	case r >= 0x2700 && r <= 0x27BF:
		return true
	// Regional indicators (flags)
	case r >= 0x1F1E6 && r <= 0x1F1FF:
		return true
	// Enclosed ideographic supplement
	case r >= 0x1F191 && r <= 0x1F251:
		return true
	// Mahjong, playing card and enclosed alphanumerics
	case r == 0x1F004 || r == 0x1F0CF || r == 0x1F18E:
		return true
	case r >= 0x1F170 && r <= 0x1F171:
		return true
	case r >= 0x1F17E && r <= 0x1F17F:
		return true
	// Arrows and geometric shapes
	case r >= 0x2934 && r <= 0x2935:
		return true
	case r >= 0x2B05 && r <= 0x2B07:
		return true
	case r == 0x2B1B || r == 0x2B1C || r == 0x2B50 || r == 0x2B55:
		return true
	case r == 0x25B6:
		return true
	// CJK symbols
	case r == 0x3030 || r == 0x303D || r == 0x3297 || r == 0x3299:
		return true
	// Copyright, registered, trademark
	case r == 0x00A9 || r == 0x00AE || r == 0x2122:
		return true
	// Circled M
	case r == 0x24C2:
		return true
	// Misc technical
	case r >= 0x23E9 && r <= 0x23EF:
		return true
	case r == 0x23F3:
		return true
	case r >= 0x23F8 && r <= 0x23FA:
		return true
	default:
		return false
	}
}

// Encode replaces every pictograph of s by its escape marker.
// All other characters are left untouched.
func Encode(s string) string {
	return escape(s, IsPictograph)
}

// Decode replaces every escape marker of s by the character it denotes.
// Markers whose value is not a valid Unicode scalar value are kept as
// literal text.
func Decode(s string) string {
	if !strings.Contains(s, markerPrefix) {
		return s
	}
	return marker.ReplaceAllStringFunc(s, func(m string) string {
		r, ok := parseMarker(m)
		if !ok {
			return m
		}
		return string(r)
	})
}

// escape rewrites the runes of s for which match returns true as markers.
// Invalid UTF-8 bytes are seen as utf8.RuneError; when match rejects
// RuneError they are copied through unchanged.
func escape(s string, match func(rune) bool) string {
	var (
		sb      strings.Builder
		escaped bool
	)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if match(r) {
			if !escaped {
				sb.Grow(len(s) + 16)
				sb.WriteString(s[:i])
				escaped = true
			}
			writeMarker(&sb, r)
		} else if escaped {
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	if !escaped {
		return s
	}
	return sb.String()
}

func writeMarker(sb *strings.Builder, r rune) {
	sb.WriteString(markerPrefix)
	sb.WriteString(strconv.FormatInt(int64(r), 16))
	sb.WriteString(markerSuffix)
}

// parseMarker returns the rune denoted by a marker matched by the marker
// expression.
func parseMarker(m string) (rune, bool) {
	hex := m[len(markerPrefix) : len(m)-len(markerSuffix)]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}
