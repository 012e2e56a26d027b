package types

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Decimal is an exact decimal number: Unscaled × 10^-Scale.
//
// The literal "1.50" is stored as Unscaled=150, Scale=2 so the trailing zero
// survives display. Exponents fold into the scale: "2.5e3" is 25 with Scale=-2.
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

// MaxExponent bounds the magnitude of a literal's exponent. Expanding a
// larger power of ten costs time and memory out of proportion to the text.
const MaxExponent = 4096

// ErrExponentRange is returned by ParseDecimal for exponents beyond
// MaxExponent.
var ErrExponentRange = errors.New("exponent out of range")

// ParseDecimal parses [+-]digits[.digits][e[+-]digits] without going through
// a binary floating point representation.
func ParseDecimal(text string) (Decimal, error) {
	mantissa, exp := text, int64(0)
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		e, err := strconv.ParseInt(text[i+1:], 10, 32)
		if err != nil {
			return Decimal{}, fmt.Errorf("invalid exponent in %q", text)
		}
		if e > MaxExponent || e < -MaxExponent {
			return Decimal{}, fmt.Errorf("%w in %q: limit is %d", ErrExponentRange, text, MaxExponent)
		}
		mantissa, exp = text[:i], e
	}

	sign := ""
	if mantissa != "" && (mantissa[0] == '-' || mantissa[0] == '+') {
		sign, mantissa = mantissa[:1], mantissa[1:]
	}

	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	digits := intPart + fracPart
	if digits == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q", text)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Decimal{}, fmt.Errorf("invalid decimal %q", text)
		}
	}

	unscaled, ok := new(big.Int).SetString(strings.TrimPrefix(sign, "+")+digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", text)
	}

	scale := int64(len(fracPart)) - exp
	if scale > 1<<30 || scale < -(1<<30) {
		return Decimal{}, fmt.Errorf("%w in %q", ErrExponentRange, text)
	}
	return Decimal{Unscaled: unscaled, Scale: int32(scale)}, nil
}

func (Decimal) Kind() Kind { return KindDecimal }

// String renders the exact digits with the stored scale.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}
	if d.Scale <= 0 {
		v := new(big.Int).Mul(d.Unscaled, pow10(int64(-d.Scale)))
		return v.String()
	}

	neg := d.Unscaled.Sign() < 0
	digits := new(big.Int).Abs(d.Unscaled).String()
	scale := int(d.Scale)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	out := digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	if neg {
		out = "-" + out
	}
	return out
}

// Rat returns the exact rational value.
func (d Decimal) Rat() *big.Rat {
	if d.Unscaled == nil {
		return new(big.Rat)
	}
	r := new(big.Rat).SetInt(d.Unscaled)
	if d.Scale > 0 {
		return r.Quo(r, new(big.Rat).SetInt(pow10(int64(d.Scale))))
	}
	return r.Mul(r, new(big.Rat).SetInt(pow10(int64(-d.Scale))))
}

// IsInteger reports whether the value has no fractional part.
func (d Decimal) IsInteger() bool {
	return d.Rat().IsInt()
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
