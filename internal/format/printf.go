package format

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxField caps width and precision so a hostile template can not make us
// allocate arbitrarily large padding.
const maxField = 4096

// conv is a qualifier run split into its printf parts.
type conv struct {
	minus, plus, space, zero, alt, group bool

	width, prec       int
	hasWidth, hasPrec bool
	length            string
}

// parseQualifiers accepts qualifier runs in printf order: flags, width,
// precision, length modifier. Anything else (e.g. "l5" or "5-") is rejected
// so that it is never handed to a formatter.
func parseQualifiers(q string) (conv, bool) {
	var c conv
	i := 0
flags:
	for ; i < len(q); i++ {
		switch q[i] {
		case '-':
			c.minus = true
		case '+':
			c.plus = true
		case ' ':
			c.space = true
		case '0':
			c.zero = true
		case '#':
			c.alt = true
		case '\'':
			c.group = true
		default:
			break flags
		}
	}

	start := i
	for i < len(q) && isDecimal(q[i]) {
		i++
	}
	if i > start {
		w, err := strconv.Atoi(q[start:i])
		if err != nil || w > maxField {
			return c, false
		}
		c.width, c.hasWidth = w, true
	}

	if i < len(q) && q[i] == '.' {
		i++
		start = i
		for i < len(q) && isDecimal(q[i]) {
			i++
		}
		p := 0
		if i > start {
			var err error
			p, err = strconv.Atoi(q[start:i])
			if err != nil || p > maxField {
				return c, false
			}
		}
		c.prec, c.hasPrec = p, true
	}

	switch q[i:] {
	case "", "hh", "h", "l", "ll", "q", "j", "z", "t", "L":
		c.length = q[i:]
		return c, true
	}
	return c, false
}

// spec builds a Go fmt verb prefix from the parsed qualifiers, keeping only
// the flags the caller allows.
func (c conv) spec(minus, plus, space, zero, alt bool) string {
	var b strings.Builder
	b.WriteByte('%')
	if minus {
		b.WriteByte('-')
	}
	if plus {
		b.WriteByte('+')
	}
	if space {
		b.WriteByte(' ')
	}
	if zero {
		b.WriteByte('0')
	}
	if alt {
		b.WriteByte('#')
	}
	if c.hasWidth {
		b.WriteString(strconv.Itoa(c.width))
	}
	if c.hasPrec {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(c.prec))
	}
	return b.String()
}

func intBits(length string) uint {
	switch length {
	case "hh":
		return 8
	case "h":
		return 16
	case "":
		return 32
	}
	return 64
}

func truncSigned(n int64, bits uint) int64 {
	switch bits {
	case 8:
		return int64(int8(n))
	case 16:
		return int64(int16(n))
	case 32:
		return int64(int32(n))
	}
	return n
}

func truncUnsigned(n int64, bits uint) uint64 {
	if bits >= 64 {
		return uint64(n)
	}
	return uint64(n) & (1<<bits - 1)
}

func groupingPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// pad applies the field width to a sign and digit string: left-justified
// with '-', zero-filled between sign and digits with '0' unless a precision
// was given, space-filled on the left otherwise. Widths count bytes.
func (c conv) pad(sign, digits string) string {
	n := len(sign) + len(digits)
	if !c.hasWidth || n >= c.width {
		return sign + digits
	}
	fill := c.width - n
	switch {
	case c.minus:
		return sign + digits + strings.Repeat(" ", fill)
	case c.zero && !c.hasPrec:
		return sign + strings.Repeat("0", fill) + digits
	}
	return strings.Repeat(" ", fill) + sign + digits
}

// signOf returns the sign prefix printf puts in front of a decimal.
func (c conv) signOf(neg bool) string {
	switch {
	case neg:
		return "-"
	case c.plus:
		return "+"
	case c.space:
		return " "
	}
	return ""
}

// groupedDigits renders mag with thousands separators. Precision zeros are
// added in front without separators.
func (c conv) groupedDigits(mag uint64) string {
	if c.hasPrec && c.prec == 0 && mag == 0 {
		return ""
	}
	digits := groupingPrinter().Sprintf("%d", mag)
	if c.hasPrec {
		if plain := len(strconv.FormatUint(mag, 10)); plain < c.prec {
			digits = strings.Repeat("0", c.prec-plain) + digits
		}
	}
	return digits
}

// formatInteger renders n through an integer directive. Length modifiers
// select the C integer width; u, x, X and o reinterpret the value as
// unsigned at that width.
func formatInteger(d *directive, n int64) (string, bool) {
	c, ok := parseQualifiers(d.quals)
	if !ok {
		return "", false
	}
	bits := intBits(c.length)
	// An explicit zero precision prints no digits for zero, only the sign
	// or octal prefix, which fmt drops.
	zeroPrec := c.hasPrec && c.prec == 0

	switch d.verb {
	case 'd', 'i':
		v := truncSigned(n, bits)
		if c.group || (zeroPrec && v == 0) {
			mag := uint64(v)
			if v < 0 {
				mag = uint64(-v)
			}
			return c.pad(c.signOf(v < 0), c.groupedDigits(mag)), true
		}
		f := c.spec(c.minus, c.plus, c.space, c.zero, false) + "d"
		return fmt.Sprintf(f, v), true
	case 'u', 'x', 'X', 'o':
		v := truncUnsigned(n, bits)
		verb := d.verb
		if verb == 'u' {
			verb = 'd'
		}
		if c.group && verb == 'd' {
			return c.pad("", c.groupedDigits(v)), true
		}
		if zeroPrec && v == 0 {
			if verb == 'o' && c.alt {
				return c.pad("", "0"), true
			}
			return c.pad("", ""), true
		}
		// C prints a bare 0 for %#x of zero, Go would print 0x0.
		alt := c.alt && verb != 'd' && v != 0
		f := c.spec(c.minus, false, false, c.zero, alt) + string(verb)
		return fmt.Sprintf(f, v), true
	}
	return "", false
}

// formatString renders s through a string directive. Width and precision
// count bytes, as the registry tools always have. Length modifiers on %s
// name wide strings, which a text value is not, so they are refused.
func formatString(d *directive, s string) (string, bool) {
	c, ok := parseQualifiers(d.quals)
	if !ok || c.length != "" || d.verb != 's' {
		return "", false
	}
	if c.hasPrec && len(s) > c.prec {
		s = s[:c.prec]
	}
	c.zero, c.hasPrec = false, false
	return c.pad("", s), true
}

// formatValue dispatches on the directive type and formats v only when its
// tag agrees with it.
func formatValue(d *directive, v Value) (string, bool) {
	switch d.typ {
	case String:
		if v.Kind != KindString {
			return "", false
		}
		return formatString(d, v.Str)
	case Integer:
		if v.Kind != KindInteger {
			return "", false
		}
		return formatInteger(d, v.Int)
	case Float, Unknown, None:
		return "", false
	}
	return "", false
}
