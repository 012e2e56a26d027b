// Package types defines the literal values a parse can materialize.
//
// Every literal in the expression tree is a fully constructed Value; the
// execution engine never converts text to values again. Numeric values are
// arbitrary precision so literal text round-trips without loss.
package types

import (
	"fmt"
	"math/big"
	"time"
)

// Kind tags the variant of a Value.
type Kind int

const (
	KindNothing Kind = iota
	KindInt
	KindDecimal
	KindBool
	KindString
	KindDuration
	KindFileSize
	KindDate
	KindRange
	KindGlob
	KindAny // Declared kind only: accepts every value
)

var kindNames = [...]string{
	KindNothing:  "nothing",
	KindInt:      "int",
	KindDecimal:  "decimal",
	KindBool:     "bool",
	KindString:   "string",
	KindDuration: "duration",
	KindFileSize: "filesize",
	KindDate:     "date",
	KindRange:    "range",
	KindGlob:     "glob",
	KindAny:      "any",
}

// String returns the lowercase kind name
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Value is a fully materialized literal value.
type Value interface {
	Kind() Kind
	String() string
}

// Nothing is the absence of a value (open range ends, empty stages).
type Nothing struct{}

func (Nothing) Kind() Kind     { return KindNothing }
func (Nothing) String() string { return "nothing" }

// Bool is a boolean literal.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// String is a text literal after escape processing.
type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Glob is an unexpanded glob pattern.
type Glob string

func (Glob) Kind() Kind       { return KindGlob }
func (g Glob) String() string { return string(g) }

// Int is an arbitrary precision integer.
type Int struct {
	V *big.Int
}

// NewInt wraps a machine integer.
func NewInt(v int64) Int {
	return Int{V: big.NewInt(v)}
}

// ParseInt parses decimal digits with an optional sign.
func ParseInt(text string) (Int, error) {
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Int{}, fmt.Errorf("invalid integer %q", text)
	}
	return Int{V: v}, nil
}

func (Int) Kind() Kind { return KindInt }
func (i Int) String() string {
	if i.V == nil {
		return "0"
	}
	return i.V.String()
}

// Date is a calendar date or timestamp.
type Date struct {
	Time     time.Time
	DateOnly bool // Written as YYYY-MM-DD
}

var dateLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.DateOnly, true},
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", false},
	{time.DateTime, false},
}

// ParseDate accepts YYYY-MM-DD, RFC 3339 and YYYY-MM-DDTHH:MM:SS.
func ParseDate(text string) (Date, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, text); err == nil {
			return Date{Time: t, DateOnly: l.dateOnly}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", text)
}

func (Date) Kind() Kind { return KindDate }
func (d Date) String() string {
	if d.DateOnly {
		return d.Time.Format(time.DateOnly)
	}
	return d.Time.Format(time.RFC3339Nano)
}

// Range is a numeric range; open ends are Nothing.
type Range struct {
	Start     Value
	End       Value
	Inclusive bool
}

func (Range) Kind() Kind { return KindRange }
func (r Range) String() string {
	op := ".."
	if !r.Inclusive {
		op = "..<"
	}
	return rangeEnd(r.Start) + op + rangeEnd(r.End)
}

func rangeEnd(v Value) string {
	if v == nil || v.Kind() == KindNothing {
		return ""
	}
	return v.String()
}

// Equal reports whether two values are the same literal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Int:
		return av.V.Cmp(b.(Int).V) == 0
	case Decimal:
		bv := b.(Decimal)
		return av.Scale == bv.Scale && av.Unscaled.Cmp(bv.Unscaled) == 0
	case Duration:
		return av.Nanos.Cmp(b.(Duration).Nanos) == 0
	case FileSize:
		return av.Bytes.Cmp(b.(FileSize).Bytes) == 0
	case Date:
		return av.Time.Equal(b.(Date).Time)
	case Range:
		bv := b.(Range)
		return av.Inclusive == bv.Inclusive && Equal(av.Start, bv.Start) && Equal(av.End, bv.End)
	default:
		return a == b
	}
}
