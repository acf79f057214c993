package encoding

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escape renders text for the quoted value line of an STR file.
//
// The scheme is backslash based and never emits a raw quote, CR or LF:
//
//	\\  backslash        \"  double quote
//	\n  line feed        \r  carriage return
//	\t  tab
//	\uXXXX  any other C0 control, DEL, or an unpaired UTF-16 surrogate
//
// Everything else is copied as UTF-8. Invalid bytes that are not a
// generalized surrogate sequence are written as U+FFFD.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)

	for i := 0; i < len(s); {
		if u, ok := surrogateAt(s, i); ok {
			fmt.Fprintf(&sb, `\u%04X`, u)
			i += 3

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == '"':
			sb.WriteString(`\"`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7F:
			fmt.Fprintf(&sb, `\u%04X`, r)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// Unescape reverses Escape. It rejects unknown escapes, a trailing lone
// backslash and any unescaped double quote.
func Unescape(s string) (string, error) {
	return unescape(s, false)
}

// UnescapeLenient reverses Escape for hand-edited files: unknown escapes are
// kept literally and bare double quotes are accepted.
func UnescapeLenient(s string) (string, error) {
	return unescape(s, true)
}

func unescape(s string, lenient bool) (string, error) {
	if !strings.ContainsAny(s, `\"`) {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			if !lenient {
				return "", fmt.Errorf("unescaped quote at column %d", i+1)
			}
			sb.WriteByte(c)

			continue
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}

		if i+1 >= len(s) {
			if lenient {
				sb.WriteByte(c)
				continue
			}

			return "", fmt.Errorf("dangling backslash at column %d", i+1)
		}

		i++
		switch s[i] {
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'u':
			u, err := parseHex4(s, i+1)
			if err != nil {
				if lenient {
					sb.WriteString(`\u`)
					continue
				}

				return "", fmt.Errorf("bad \\u escape at column %d: %w", i, err)
			}
			i += 4

			// Join an escaped surrogate pair back into one character.
			if u >= surrogateMin && u <= highMax && strings.HasPrefix(s[i+1:], `\u`) {
				if lo, err := parseHex4(s, i+3); err == nil && isLow(lo) {
					sb.WriteString(DecodeUnits([]uint16{u, lo}))
					i += 6

					continue
				}
			}
			sb.WriteString(DecodeUnits([]uint16{u}))
		default:
			if !lenient {
				return "", fmt.Errorf("unknown escape \\%c at column %d", s[i], i)
			}
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}

	return sb.String(), nil
}

func parseHex4(s string, at int) (uint16, error) {
	if at+4 > len(s) {
		return 0, fmt.Errorf("need 4 hex digits")
	}
	v, err := strconv.ParseUint(s[at:at+4], 16, 16)
	if err != nil {
		return 0, err
	}

	return uint16(v), nil
}
