package format

import "strings"

var simpleEscapes = map[byte]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'?':  '?',
	'\'': '\'',
	'"':  '"',
}

// DecodeEscapes expands C-style backslash escapes in a raw command-line
// argument and returns the decoded string.
//
// Besides the single-letter escapes it understands \xHH (two hex digits) and
// \OOO (three digits 0-9, combined base 8 and truncated to a byte). A numeric
// escape with missing or out-of-range digits is copied literally, as is any
// unrecognised \c pair. A bare \0 ends the string: everything after it is
// dropped, matching the NUL-terminated behaviour of the registry tools.
func DecodeEscapes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		next := s[i+1]
		if r, ok := simpleEscapes[next]; ok {
			b.WriteByte(r)
			i++
			continue
		}

		if i+3 < len(s) {
			if v, ok := numericEscape(next, s[i+2], s[i+3]); ok {
				b.WriteByte(v)
				i += 3
				continue
			}
		}

		if next == '0' {
			return b.String()
		}

		// Unknown escape: keep the backslash, the next byte is copied on
		// the following iteration.
		b.WriteByte(c)
	}
	return b.String()
}

func numericEscape(lead, d2, d3 byte) (byte, bool) {
	if lead == 'x' {
		hi, ok1 := hexValue(d2)
		lo, ok2 := hexValue(d3)
		if ok1 && ok2 {
			return hi<<4 | lo, true
		}
		return 0, false
	}
	if isDecimal(lead) && isDecimal(d2) && isDecimal(d3) {
		v := int(lead-'0')*64 + int(d2-'0')*8 + int(d3-'0')
		return byte(v), true
	}
	return 0, false
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isDecimal(c byte) bool {
	return c >= '0' && c <= '9'
}
