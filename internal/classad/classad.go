// Package classad converts registry entries to and from the ClassAd text
// form printed by the scan command.
//
// Only flat ads of literal values are supported:
//
//	[ BatchJobId = "123.0"; JobStatus = 2; CreateTime = 1700000000 ]
//
// Attribute names are case-insensitive.
package classad

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/jobreg/internal/models"
)

var (
	ErrSyntax   = errors.New("classad syntax error")
	ErrNilEntry = errors.New("nil registry entry")
)

// Attribute names used for registry entries.
const (
	AttrBatchJobID   = "BatchJobId"
	AttrJobStatus    = "JobStatus"
	AttrBlahJobName  = "BlahJobName"
	AttrCreateTime   = "CreateTime"
	AttrModifiedTime = "ModifiedTime"
	AttrUserTime     = "UserTime"
	AttrExitCode     = "ExitCode"
	AttrExitReason   = "ExitReason"
	AttrWorkerNode   = "WorkerNode"
	AttrUserPrefix   = "UserPrefix"
	AttrProxyFile    = "ProxyFile"
	AttrSubjectHash  = "SubjectHash"
)

// Marshal renders a registry entry as a ClassAd. Empty string attributes are
// left out.
func Marshal(e *models.Entry) (string, error) {
	if e == nil {
		return "", ErrNilEntry
	}

	var b strings.Builder
	b.WriteString("[ ")
	str := func(name, v string) {
		if v == "" {
			return
		}
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(strconv.Quote(v))
		b.WriteString("; ")
	}
	num := func(name string, v int64) {
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteString("; ")
	}

	str(AttrBatchJobID, e.BatchID)
	num(AttrJobStatus, int64(e.Status))
	str(AttrBlahJobName, e.BlahID)
	num(AttrCreateTime, unix(e.CreatedAt))
	num(AttrModifiedTime, unix(e.ModifiedAt))
	num(AttrUserTime, unix(e.UserTime))
	num(AttrExitCode, int64(e.ExitCode))
	str(AttrExitReason, e.ExitReason)
	str(AttrWorkerNode, e.WorkerNode)
	str(AttrUserPrefix, e.UserPrefix)
	str(AttrProxyFile, e.ProxyFile)
	str(AttrSubjectHash, e.SubjectHash)
	b.WriteString("]")
	return b.String(), nil
}

// Kind is the type of a literal attribute value.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
	KindReal
	KindBoolean
	KindUndefined
)

// Value is a parsed literal.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Real float64
	Bool bool
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	}
	return "undefined"
}

// Ad is a parsed ClassAd.
type Ad struct {
	names []string
	attrs map[string]Value
}

// Names returns the attribute names in the order they first appeared.
func (a *Ad) Names() []string {
	return append([]string(nil), a.names...)
}

// Lookup returns the raw value of an attribute.
func (a *Ad) Lookup(name string) (Value, bool) {
	v, ok := a.attrs[strings.ToLower(name)]
	return v, ok
}

// String returns a string-literal attribute.
func (a *Ad) String(name string) (string, bool) {
	v, ok := a.Lookup(name)
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Int returns an integer-literal attribute.
func (a *Ad) Int(name string) (int64, bool) {
	v, ok := a.Lookup(name)
	if !ok || v.Kind != KindInteger {
		return 0, false
	}
	return v.Int, true
}

// Real returns a real-literal attribute.
func (a *Ad) Real(name string) (float64, bool) {
	v, ok := a.Lookup(name)
	if !ok || v.Kind != KindReal {
		return 0, false
	}
	return v.Real, true
}

func (a *Ad) set(name string, v Value) {
	key := strings.ToLower(name)
	if _, ok := a.attrs[key]; !ok {
		a.names = append(a.names, name)
	}
	a.attrs[key] = v
}

func syntaxError(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, pos, fmt.Sprintf(format, args...))
}
