package encoding

import (
	"unicode/utf16"
	"unicode/utf8"
)

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
	highMax      = 0xDBFF
	lowMin       = 0xDC00
)

// DecodeUnits converts UTF-16 code units to a Go string.
//
// Well-formed surrogate pairs become the supplementary character they encode.
// Unpaired surrogates cannot be represented in UTF-8, so they are written in
// their generalized three-byte form (WTF-8, lead byte 0xED). EncodeUnits
// recognizes that form and restores the original unit, which keeps arbitrary
// UTF-16 input lossless.
func DecodeUnits(units []uint16) string {
	buf := make([]byte, 0, len(units))

	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u < surrogateMin || u > surrogateMax:
			buf = utf8.AppendRune(buf, rune(u))
		case u <= highMax && i+1 < len(units) && isLow(units[i+1]):
			buf = utf8.AppendRune(buf, utf16.DecodeRune(rune(u), rune(units[i+1])))
			i++
		default:
			buf = appendSurrogate(buf, u)
		}
	}

	return string(buf)
}

// EncodeUnits converts a Go string to UTF-16 code units. Bytes that are
// neither UTF-8 nor a generalized surrogate sequence become U+FFFD.
func EncodeUnits(s string) []uint16 {
	units := make([]uint16, 0, len(s))

	for i := 0; i < len(s); {
		if u, ok := surrogateAt(s, i); ok {
			units = append(units, u)
			i += 3

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			units = append(units, uint16(hi), uint16(lo)) //nolint:gosec

			continue
		}
		units = append(units, uint16(r)) //nolint:gosec
	}

	return units
}

func isLow(u uint16) bool {
	return u >= lowMin && u <= surrogateMax
}

func appendSurrogate(buf []byte, u uint16) []byte {
	return append(buf,
		0xE0|byte(u>>12),
		0x80|byte(u>>6)&0x3F,
		0x80|byte(u)&0x3F,
	)
}

// surrogateAt reports whether s[i:] starts with a generalized surrogate
// sequence and returns the unit it encodes.
func surrogateAt(s string, i int) (uint16, bool) {
	if i+2 >= len(s) || s[i] != 0xED || s[i+1] < 0xA0 || s[i+1] > 0xBF || s[i+2]&0xC0 != 0x80 {
		return 0, false
	}

	return 0xD000 | uint16(s[i+1]&0x3F)<<6 | uint16(s[i+2]&0x3F), true
}
