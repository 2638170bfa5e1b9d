// Package format renders registry records through printf-style templates
// given on the command line.
//
// Templates are decoded once (DecodeEscapes), split into literal text and
// conversion directives, and paired with attribute names. A pair renders only
// when the directive type and the resolved attribute type agree; every other
// combination is skipped without output.
package format

import (
	"io"
	"strings"
)

// step is one compiled template/attribute pair.
type step struct {
	literal string // output for pairs that never substitute
	segs    []segment
	dir     *directive
	typ     DirectiveType
	attr    string
}

// Program is a compiled list of template/attribute pairs.
type Program struct {
	steps []step
}

// Compile pairs up raw command-line arguments as template, attribute,
// template, attribute, ... Escapes in templates are decoded here, once.
//
// A template without directives is a label: it is emitted as text and does
// not consume an attribute argument. A template with more than one directive
// is skipped together with its attribute. A final template without an
// attribute is emitted as text without substitution.
func Compile(args []string) *Program {
	p := &Program{}
	for i := 0; i < len(args); {
		tmpl := DecodeEscapes(args[i])
		typ, n := Classify(tmpl, 1)
		segs := parseTemplate(tmpl)

		switch {
		case n == 0:
			p.steps = append(p.steps, step{literal: literalText(segs)})
			i++
		case n > 1:
			i += 2
		case i+1 >= len(args):
			p.steps = append(p.steps, step{literal: literalText(segs)})
			i++
		default:
			p.steps = append(p.steps, step{segs: segs, dir: firstDirective(segs), typ: typ, attr: args[i+1]})
			i += 2
		}
	}
	return p
}

// Empty reports whether the program has nothing to render.
func (p *Program) Empty() bool {
	return p == nil || len(p.steps) == 0
}

// Render writes the output of every pair for one record. ordinal is the
// 1-based number of the record within the current scan.
func (p *Program) Render(w io.Writer, attrs Attributes, ordinal int) error {
	out := p.RenderString(attrs, ordinal)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out)
	return err
}

// RenderString is Render into a string.
func (p *Program) RenderString(attrs Attributes, ordinal int) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, st := range p.steps {
		if st.dir == nil {
			b.WriteString(st.literal)
			continue
		}
		if st.typ != String && st.typ != Integer {
			continue
		}
		v, ok := Resolve(attrs, st.attr, ordinal)
		if !ok {
			continue
		}
		text, ok := formatValue(st.dir, v)
		if !ok {
			continue
		}
		for _, seg := range st.segs {
			if seg.dir != nil {
				b.WriteString(text)
			} else {
				b.WriteString(seg.text)
			}
		}
	}
	return b.String()
}

func firstDirective(segs []segment) *directive {
	for _, seg := range segs {
		if seg.dir != nil {
			return seg.dir
		}
	}
	return nil
}

// literalText renders segments without substitution; directives are kept as
// written.
func literalText(segs []segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.dir != nil {
			b.WriteByte('%')
			b.WriteString(seg.dir.quals)
			b.WriteByte(seg.dir.verb)
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String()
}
