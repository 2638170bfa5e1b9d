package format

import "strings"

// DirectiveType is the primitive type a printf conversion directive expects.
type DirectiveType int

const (
	None DirectiveType = iota
	Integer
	String
	Float
	Unknown
)

func (t DirectiveType) String() string {
	switch t {
	case None:
		return "none"
	case Integer:
		return "integer"
	case String:
		return "string"
	case Float:
		return "float"
	case Unknown:
		return "unknown"
	}
	return "invalid"
}

// qualifiers holds every character allowed between '%' and the type selector:
// flags, width, precision and length modifiers.
const qualifiers = "0123456789# -+'.lLhqjzt"

func isQualifier(c byte) bool {
	return strings.IndexByte(qualifiers, c) >= 0
}

func selectorType(c byte) DirectiveType {
	switch c {
	case 's':
		return String
	case 'd', 'i', 'u', 'x', 'X', 'o':
		return Integer
	case 'e', 'E', 'f', 'F', 'g', 'G', 'a', 'A':
		return Float
	}
	return Unknown
}

// directive is one conversion found in a template.
type directive struct {
	quals string // qualifier run between '%' and the selector
	verb  byte
	typ   DirectiveType
}

// segment is either literal text or a directive. Literal text already has
// escaped percent signs collapsed.
type segment struct {
	text string
	dir  *directive
}

// parseTemplate splits a template into literal and directive segments.
func parseTemplate(tmpl string) []segment {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}

		j := i + 1
		for j < len(tmpl) && isQualifier(tmpl[j]) {
			j++
		}
		if j >= len(tmpl) {
			// Unterminated directive: the rest is plain text.
			lit.WriteString(tmpl[i:])
			break
		}
		if tmpl[j] == '%' {
			// "%5%" prints a percent sign, like "%%".
			lit.WriteByte('%')
			i = j
			continue
		}

		flush()
		segs = append(segs, segment{dir: &directive{
			quals: tmpl[i+1 : j],
			verb:  tmpl[j],
			typ:   selectorType(tmpl[j]),
		}})
		i = j
	}
	flush()
	return segs
}

// Classify reports the type expected by the which-th (1-based) conversion
// directive in tmpl, and the total number of directives. "%%" is not a
// directive. When which is out of range the type is None.
func Classify(tmpl string, which int) (DirectiveType, int) {
	result := None
	n := 0
	for _, seg := range parseTemplate(tmpl) {
		if seg.dir == nil {
			continue
		}
		n++
		if n == which {
			result = seg.dir.typ
		}
	}
	return result, n
}
