package types

import (
	"math/big"
	"strings"
)

// Unit table
//
// Numeric literals may carry a unit suffix that turns them into a Duration
// or a FileSize. Suffixes are case-insensitive and use fixed factors:
//
//   Duration (base unit: nanosecond)
//     ns  = 1
//     us  = 1000 ns
//     ms  = 1000 us
//     s   = 1000 ms      (alias: sec)
//     min = 60 s
//     hr  = 60 min
//     day = 24 hr
//     wk  = 7 day
//
//   FileSize (base unit: byte, binary multiples)
//     b  = 1
//     kb = 1024 b
//     mb = 1024 kb
//     gb = 1024 mb
//     tb = 1024 gb
//     pb = 1024 tb
//
// Precision:
//   - Values are arbitrary precision integers in the base unit.
//   - A decimal mantissa is multiplied exactly; a remainder smaller than one
//     base unit is truncated toward zero and reported by the caller.

// Unit is a recognized literal suffix.
type Unit struct {
	Name   string
	Kind   Kind // KindDuration or KindFileSize
	Factor *big.Int
}

// unitOrder lists units from largest to smallest per kind; formatting picks
// the first unit that divides the value exactly.
var unitOrder = []Unit{
	{"wk", KindDuration, nanos(7 * 24 * 3600 * 1_000_000_000)},
	{"day", KindDuration, nanos(24 * 3600 * 1_000_000_000)},
	{"hr", KindDuration, nanos(3600 * 1_000_000_000)},
	{"min", KindDuration, nanos(60 * 1_000_000_000)},
	{"s", KindDuration, nanos(1_000_000_000)},
	{"ms", KindDuration, nanos(1_000_000)},
	{"us", KindDuration, nanos(1_000)},
	{"ns", KindDuration, nanos(1)},

	{"pb", KindFileSize, pow1024(5)},
	{"tb", KindFileSize, pow1024(4)},
	{"gb", KindFileSize, pow1024(3)},
	{"mb", KindFileSize, pow1024(2)},
	{"kb", KindFileSize, pow1024(1)},
	{"b", KindFileSize, pow1024(0)},
}

var unitAliases = map[string]string{
	"sec": "s",
}

func nanos(n int64) *big.Int {
	return big.NewInt(n)
}

func pow1024(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(1024), big.NewInt(n), nil)
}

// LookupUnit resolves a suffix such as "kb" or "MS".
func LookupUnit(suffix string) (Unit, bool) {
	name := strings.ToLower(suffix)
	if alias, ok := unitAliases[name]; ok {
		name = alias
	}
	for _, u := range unitOrder {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// UnitNames returns every accepted suffix, aliases included.
func UnitNames() []string {
	names := make([]string, 0, len(unitOrder)+len(unitAliases))
	for _, u := range unitOrder {
		names = append(names, u.Name)
	}
	for alias := range unitAliases {
		names = append(names, alias)
	}
	return names
}

// Apply multiplies a numeric value by the unit factor. The boolean reports
// whether the product was exact; inexact products are truncated toward zero.
func (u Unit) Apply(n Value) (*big.Int, bool) {
	switch v := n.(type) {
	case Int:
		return new(big.Int).Mul(v.V, u.Factor), true
	case Decimal:
		r := v.Rat()
		r.Mul(r, new(big.Rat).SetInt(u.Factor))
		q := new(big.Int).Quo(r.Num(), r.Denom())
		return q, r.IsInt()
	default:
		return new(big.Int), false
	}
}

// Duration is a span of time in nanoseconds.
type Duration struct {
	Nanos *big.Int
}

func (Duration) Kind() Kind { return KindDuration }

// String renders the value in the largest unit that divides it exactly.
func (d Duration) String() string {
	return formatUnits(d.Nanos, KindDuration)
}

// FileSize is a byte count.
type FileSize struct {
	Bytes *big.Int
}

func (FileSize) Kind() Kind { return KindFileSize }

// String renders the value in the largest unit that divides it exactly.
func (f FileSize) String() string {
	return formatUnits(f.Bytes, KindFileSize)
}

func formatUnits(v *big.Int, kind Kind) string {
	if v == nil {
		v = new(big.Int)
	}
	var smallest Unit
	for _, u := range unitOrder {
		if u.Kind != kind {
			continue
		}
		smallest = u
		if v.Sign() == 0 {
			continue
		}
		q, r := new(big.Int).QuoRem(v, u.Factor, new(big.Int))
		if r.Sign() == 0 {
			return q.String() + u.Name
		}
	}
	return v.String() + smallest.Name
}
