package format

import "strings"

// OrdinalAttribute is the reserved attribute name that renders the 1-based
// number of the current match instead of a record attribute. Any name
// starting with it is treated the same way.
const OrdinalAttribute = "Njob"

// Attributes is the lookup surface of a parsed record.
type Attributes interface {
	// String returns the value of a text-typed attribute.
	String(name string) (string, bool)
	// Int returns the value of an integer-typed attribute.
	Int(name string) (int64, bool)
}

// Kind tags a Value.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
)

// Value is a resolved attribute: either text or a signed integer.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
}

// StringValue returns a text Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue returns an integer Value.
func IntValue(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// Resolve looks up name for rendering. The ordinal pseudo-attribute wins,
// then text attributes, then integer attributes. Float attributes are never
// resolved, so float directives can not be satisfied.
func Resolve(attrs Attributes, name string, ordinal int) (Value, bool) {
	if strings.HasPrefix(name, OrdinalAttribute) {
		return IntValue(int64(ordinal)), true
	}
	if attrs == nil {
		return Value{}, false
	}
	if s, ok := attrs.String(name); ok {
		return StringValue(s), true
	}
	if n, ok := attrs.Int(name); ok {
		return IntValue(n), true
	}
	return Value{}, false
}
