package classad

import (
	"strconv"
	"strings"
	"time"
)

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

type parser struct {
	src string
	pos int
}

// Parse reads a flat ClassAd of literal values.
func Parse(text string) (*Ad, error) {
	p := &parser{src: text}
	ad := &Ad{attrs: make(map[string]Value)}

	p.skipSpace()
	if !p.consume('[') {
		return nil, syntaxError(p.pos, "expected '['")
	}

	for {
		p.skipSpace()
		if p.consume(']') {
			break
		}
		if p.eof() {
			return nil, syntaxError(p.pos, "unterminated ad")
		}

		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume('=') {
			return nil, syntaxError(p.pos, "expected '=' after %s", name)
		}
		p.skipSpace()
		v, err := p.literal()
		if err != nil {
			return nil, err
		}
		ad.set(name, v)

		p.skipSpace()
		if p.consume(';') {
			continue
		}
		if p.consume(']') {
			break
		}
		return nil, syntaxError(p.pos, "expected ';' or ']' after %s", name)
	}

	p.skipSpace()
	if !p.eof() {
		return nil, syntaxError(p.pos, "trailing data")
	}
	return ad, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) ident() (string, error) {
	start := p.pos
	if p.eof() || !isIdentStart(p.src[p.pos]) {
		return "", syntaxError(p.pos, "expected attribute name")
	}
	for !p.eof() && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *parser) literal() (Value, error) {
	if p.eof() {
		return Value{}, syntaxError(p.pos, "expected value")
	}

	c := p.src[p.pos]
	switch {
	case c == '"':
		return p.quoted()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		start := p.pos
		word, _ := p.ident()
		switch strings.ToLower(word) {
		case "true":
			return Value{Kind: KindBoolean, Bool: true}, nil
		case "false":
			return Value{Kind: KindBoolean}, nil
		case "undefined":
			return Value{Kind: KindUndefined}, nil
		}
		return Value{}, syntaxError(start, "unsupported expression %q", word)
	}
	return Value{}, syntaxError(p.pos, "unexpected character %q", c)
}

func (p *parser) quoted() (Value, error) {
	start := p.pos
	p.pos++
	for !p.eof() {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return Value{}, syntaxError(start, "bad string literal: %v", err)
			}
			return Value{Kind: KindString, Str: s}, nil
		}
		p.pos++
	}
	return Value{}, syntaxError(start, "unterminated string")
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' || p.src[p.pos] == '+' {
		p.pos++
	}
	isReal := false
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.':
			isReal = true
		case c == 'e' || c == 'E':
			isReal = true
			if p.pos+1 < len(p.src) && (p.src[p.pos+1] == '-' || p.src[p.pos+1] == '+') {
				p.pos++
			}
		default:
			return p.numberValue(start, isReal)
		}
		p.pos++
	}
	return p.numberValue(start, isReal)
}

func (p *parser) numberValue(start int, isReal bool) (Value, error) {
	text := p.src[start:p.pos]
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, syntaxError(start, "bad real %q", text)
		}
		return Value{Kind: KindReal, Real: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, syntaxError(start, "bad integer %q", text)
	}
	return Value{Kind: KindInteger, Int: n}, nil
}
