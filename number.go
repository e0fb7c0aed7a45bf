package symexpr

import (
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Kind identifies the representation of a Value. Numeric kinds are totally
// ordered by generality: once a computation introduces a more general kind,
// the result stays at least that general.
type Kind int8

const (
	KindInteger Kind = iota
	KindDouble
	KindImaginary
	KindComplex
	KindPrecise

	// Non-numeric kinds. They do not participate in promotion.
	KindBool
	KindString
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindImaginary:
		return "imaginary"
	case KindComplex:
		return "complex"
	case KindPrecise:
		return "precise"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	}
	return "invalid"
}

// Numeric reports whether values of this kind take part in arithmetic
// promotion.
func (k Kind) Numeric() bool {
	return k <= KindPrecise
}

// DefaultPrec is the precision, in bits, used for Precise values when no
// precision is configured.
const DefaultPrec = 64

// Value is a single numeric (or literal) value produced by evaluation. The
// zero Value is the integer 0.
type Value struct {
	kind Kind
	i    int64
	f    float64
	c    complex128
	p    *big.Float
	b    bool
	s    string
}

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInteger, i: n} }

// Float returns a double Value.
func Float(f float64) Value { return Value{kind: KindDouble, f: f} }

// Imag returns a pure imaginary Value with the given imaginary part.
func Imag(im float64) Value { return Value{kind: KindImaginary, c: complex(0, im)} }

// Cmplx returns a complex Value.
func Cmplx(c complex128) Value { return Value{kind: KindComplex, c: c} }

// Precise returns an arbitrary-precision Value. The argument is not copied.
func Precise(f *big.Float) Value { return Value{kind: KindPrecise, p: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// ParseValue parses a numeric literal in source form: integer, decimal,
// scientific notation, or radix-prefixed (0x, 0o, 0b). Literals that do not
// fit int64 or that carry a fractional part become Double.
func ParseValue(text string) (Value, error) {
	if len(text) > 2 && text[0] == '0' {
		base := 0
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseInt(text[2:], base, 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid radix literal %q: %w", text, err)
			}
			return Int(n), nil
		}
	}
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid numeric literal %q: %w", text, err)
	}
	return Float(f), nil
}

// Kind returns the representation kind of v.
func (v Value) Kind() Kind { return v.kind }

// Float64 converts v to a float64, discarding imaginary parts and precision
// beyond a double.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.i)
	case KindDouble:
		return v.f
	case KindImaginary, KindComplex:
		return real(v.c)
	case KindPrecise:
		f, _ := v.p.Float64()
		return f
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// Complex128 converts v to a complex128.
func (v Value) Complex128() complex128 {
	switch v.kind {
	case KindImaginary, KindComplex:
		return v.c
	default:
		return complex(v.Float64(), 0)
	}
}

// BigFloat converts v to a big.Float at the given precision. Imaginary parts
// are discarded.
func (v Value) BigFloat(prec uint) *big.Float {
	if v.kind == KindPrecise {
		return new(big.Float).SetPrec(prec).Set(v.p)
	}
	return big.NewFloat(v.Float64()).SetPrec(prec)
}

// Bool returns the boolean interpretation of v. Numbers are truthy when
// nonzero.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	case KindNull:
		return false
	default:
		return !v.IsZero()
	}
}

// Text returns the string payload of a string Value.
func (v Value) Text() string { return v.s }

// IsZero reports whether v is an exact numeric zero.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindInteger:
		return v.i == 0
	case KindDouble:
		return v.f == 0
	case KindImaginary, KindComplex:
		return v.c == 0
	case KindPrecise:
		return v.p.Sign() == 0
	}
	return false
}

// IsOne reports whether v is an exact numeric one.
func (v Value) IsOne() bool {
	switch v.kind {
	case KindInteger:
		return v.i == 1
	case KindDouble:
		return v.f == 1
	case KindImaginary, KindComplex:
		return v.c == 1
	case KindPrecise:
		return v.p.Cmp(oneFloat) == 0
	}
	return false
}

// IsInteger reports whether v is numerically an integer.
func (v Value) IsInteger() bool {
	switch v.kind {
	case KindInteger:
		return true
	case KindDouble:
		return v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0)
	case KindImaginary, KindComplex:
		return imag(v.c) == 0 && real(v.c) == math.Trunc(real(v.c))
	case KindPrecise:
		return v.p.IsInt()
	}
	return false
}

// Int64 returns v truncated to an int64.
func (v Value) Int64() int64 {
	if v.kind == KindInteger {
		return v.i
	}
	return int64(v.Float64())
}

// IsNegative reports whether v is a real number less than zero.
func (v Value) IsNegative() bool {
	switch v.kind {
	case KindInteger:
		return v.i < 0
	case KindDouble:
		return v.f < 0
	case KindPrecise:
		return v.p.Sign() < 0
	}
	return false
}

var oneFloat = big.NewFloat(1)

// promote returns a and b converted to their common kind, the more general of
// the two. Complex against Precise stays Precise only when both imaginary
// parts vanish; there is no arbitrary-precision complex representation.
func promote(a, b Value) (Value, Value, Kind) {
	k := a.kind
	if b.kind > k {
		k = b.kind
	}
	if k == KindPrecise && (a.kind == KindImaginary || a.kind == KindComplex || b.kind == KindImaginary || b.kind == KindComplex) {
		if imag(a.Complex128()) == 0 && imag(b.Complex128()) == 0 {
			k = KindPrecise
		} else {
			k = KindComplex
		}
	}
	if k == KindImaginary {
		// Sums and products of imaginaries leave the imaginary axis; compute
		// in the complex plane and let the operator narrow the result.
		k = KindComplex
	}
	return a, b, k
}

// narrow tags a complex result as Imaginary or Double when it lies on an
// axis, preserving the generality floor given by k.
func narrow(c complex128, k Kind) Value {
	if imag(c) == 0 && k <= KindComplex {
		if k <= KindDouble {
			return Float(real(c))
		}
		return Value{kind: KindComplex, c: c}
	}
	if real(c) == 0 && imag(c) != 0 {
		return Value{kind: KindImaginary, c: c}
	}
	return Value{kind: KindComplex, c: c}
}

// Add returns a + b under promotion.
func (a Value) Add(b Value) (Value, error) {
	if a.kind == KindString && b.kind == KindString {
		return Str(a.s + b.s), nil
	}
	if !a.kind.Numeric() || !b.kind.Numeric() {
		return Value{}, fmt.Errorf("cannot add %s and %s", a.kind, b.kind)
	}
	_, _, k := promote(a, b)
	switch k {
	case KindInteger:
		r := a.i + b.i
		// Overflow widens to double, continuing the promotion order.
		if (a.i > 0 && b.i > 0 && r < 0) || (a.i < 0 && b.i < 0 && r >= 0) {
			return Float(float64(a.i) + float64(b.i)), nil
		}
		return Int(r), nil
	case KindDouble:
		return Float(a.Float64() + b.Float64()), nil
	case KindPrecise:
		prec := precOf(a, b)
		r := new(big.Float).SetPrec(prec).Add(a.BigFloat(prec), b.BigFloat(prec))
		return Precise(r), nil
	default:
		return narrow(a.Complex128()+b.Complex128(), k), nil
	}
}

// Sub returns a - b under promotion.
func (a Value) Sub(b Value) (Value, error) {
	return a.Add(b.Neg())
}

// Neg returns -v.
func (v Value) Neg() Value {
	switch v.kind {
	case KindInteger:
		return Int(-v.i)
	case KindDouble:
		return Float(-v.f)
	case KindImaginary, KindComplex:
		return Value{kind: v.kind, c: -v.c}
	case KindPrecise:
		return Precise(new(big.Float).Neg(v.p))
	}
	return v
}

// Mul returns a * b under promotion.
func (a Value) Mul(b Value) (Value, error) {
	if !a.kind.Numeric() || !b.kind.Numeric() {
		return Value{}, fmt.Errorf("cannot multiply %s and %s", a.kind, b.kind)
	}
	_, _, k := promote(a, b)
	switch k {
	case KindInteger:
		if a.i == 0 || b.i == 0 {
			return Int(0), nil
		}
		r := a.i * b.i
		if (a.i == -1 && b.i == math.MinInt64) || (b.i == -1 && a.i == math.MinInt64) || r/b.i != a.i {
			return Float(float64(a.i) * float64(b.i)), nil
		}
		return Int(r), nil
	case KindDouble:
		return Float(a.Float64() * b.Float64()), nil
	case KindPrecise:
		prec := precOf(a, b)
		r := new(big.Float).SetPrec(prec).Mul(a.BigFloat(prec), b.BigFloat(prec))
		return Precise(r), nil
	default:
		return narrow(a.Complex128()*b.Complex128(), k), nil
	}
}

// Div returns a / b under promotion. Integer division yields a double unless
// the quotient is exact.
func (a Value) Div(b Value) (Value, error) {
	if !a.kind.Numeric() || !b.kind.Numeric() {
		return Value{}, fmt.Errorf("cannot divide %s and %s", a.kind, b.kind)
	}
	if b.IsZero() {
		return Value{}, &DomainError{X: b, Func: "/"}
	}
	_, _, k := promote(a, b)
	switch k {
	case KindInteger:
		if a.i%b.i == 0 {
			return Int(a.i / b.i), nil
		}
		return Float(float64(a.i) / float64(b.i)), nil
	case KindDouble:
		return Float(a.Float64() / b.Float64()), nil
	case KindPrecise:
		prec := precOf(a, b)
		r := new(big.Float).SetPrec(prec).Quo(a.BigFloat(prec), b.BigFloat(prec))
		return Precise(r), nil
	default:
		return narrow(a.Complex128()/b.Complex128(), k), nil
	}
}

// Mod returns a mod b. Both operands must be real.
func (a Value) Mod(b Value) (Value, error) {
	if !a.kind.Numeric() || !b.kind.Numeric() || a.kind >= KindImaginary && a.kind != KindPrecise || b.kind >= KindImaginary && b.kind != KindPrecise {
		return Value{}, fmt.Errorf("cannot take %s mod %s", a.kind, b.kind)
	}
	if b.IsZero() {
		return Value{}, &DomainError{X: b, Func: "%"}
	}
	if a.kind == KindInteger && b.kind == KindInteger {
		return Int(a.i % b.i), nil
	}
	return Float(math.Mod(a.Float64(), b.Float64())), nil
}

// Pow returns a raised to b. A zero base with a non-positive exponent is a
// domain error; a negative real base with a fractional exponent moves to the
// complex plane.
func (a Value) Pow(b Value) (Value, error) {
	if !a.kind.Numeric() || !b.kind.Numeric() {
		return Value{}, fmt.Errorf("cannot raise %s to %s", a.kind, b.kind)
	}
	if a.IsZero() {
		if b.IsZero() || b.IsNegative() {
			return Value{}, &DomainError{X: b, Func: "^"}
		}
		return Int(0), nil
	}
	_, _, k := promote(a, b)
	switch k {
	case KindInteger:
		if b.i >= 0 && b.i <= 62 {
			r := int64(1)
			x := a.i
			for n := b.i; n > 0; n-- {
				p := r * x
				if p/x != r {
					return Float(math.Pow(float64(a.i), float64(b.i))), nil
				}
				r = p
			}
			return Int(r), nil
		}
		return Float(math.Pow(float64(a.i), float64(b.i))), nil
	case KindDouble:
		bf, ef := a.Float64(), b.Float64()
		if bf < 0 && ef != math.Trunc(ef) {
			return narrow(cmplx.Pow(complex(bf, 0), complex(ef, 0)), KindComplex), nil
		}
		return Float(math.Pow(bf, ef)), nil
	case KindPrecise:
		prec := precOf(a, b)
		base := a.BigFloat(prec)
		if base.Signbit() {
			// bigfloat.Pow requires a non-negative base.
			return narrow(cmplx.Pow(a.Complex128(), b.Complex128()), KindComplex), nil
		}
		r := new(big.Float).SetPrec(prec)
		bigfloat.Pow(r, base, b.BigFloat(prec))
		return Precise(r), nil
	default:
		return narrow(cmplx.Pow(a.Complex128(), b.Complex128()), k), nil
	}
}

// Factorial returns v! for a non-negative integer v.
func (v Value) Factorial() (Value, error) {
	if !v.IsInteger() || v.IsNegative() {
		return Value{}, &DomainError{X: v, Func: "!"}
	}
	n := v.Int64()
	if n > 20 {
		// 21! overflows int64.
		r := 1.0
		for i := int64(2); i <= n; i++ {
			r *= float64(i)
		}
		return Float(r), nil
	}
	r := int64(1)
	for i := int64(2); i <= n; i++ {
		r *= i
	}
	return Int(r), nil
}

// Cmp compares two real values, returning -1, 0, or 1. Comparing complex
// values (with nonzero imaginary part) is an error.
func (a Value) Cmp(b Value) (int, error) {
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), nil
	}
	if !a.kind.Numeric() || !b.kind.Numeric() {
		return 0, fmt.Errorf("cannot compare %s and %s", a.kind, b.kind)
	}
	if imag(a.Complex128()) != 0 || imag(b.Complex128()) != 0 {
		return 0, fmt.Errorf("complex values are not ordered")
	}
	if a.kind == KindPrecise || b.kind == KindPrecise {
		prec := precOf(a, b)
		return a.BigFloat(prec).Cmp(b.BigFloat(prec)), nil
	}
	af, bf := a.Float64(), b.Float64()
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	}
	return 0, nil
}

// EqualValue reports whether two values are numerically (or structurally, for
// non-numeric kinds) equal.
func (a Value) EqualValue(b Value) bool {
	switch {
	case a.kind == KindBool || b.kind == KindBool:
		return a.kind == b.kind && a.b == b.b
	case a.kind == KindString || b.kind == KindString:
		return a.kind == b.kind && a.s == b.s
	case a.kind == KindNull || b.kind == KindNull:
		return a.kind == b.kind
	}
	if a.kind == KindPrecise || b.kind == KindPrecise {
		if imag(a.Complex128()) != 0 || imag(b.Complex128()) != 0 {
			return false
		}
		prec := precOf(a, b)
		return a.BigFloat(prec).Cmp(b.BigFloat(prec)) == 0
	}
	return a.Complex128() == b.Complex128()
}

func precOf(a, b Value) uint {
	var prec uint = DefaultPrec
	if a.kind == KindPrecise && a.p.Prec() > prec {
		prec = a.p.Prec()
	}
	if b.kind == KindPrecise && b.p.Prec() > prec {
		prec = b.p.Prec()
	}
	return prec
}

// String renders a value. Real kinds render in the source grammar, so that
// formatting a Literal re-parses to the same value. Imaginary and complex
// values carry an i suffix the grammar has no literal for; their renderings
// are stable canonical keys but do not re-parse to a Literal.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatFloat(v.f)
	case KindImaginary:
		return formatFloat(imag(v.c)) + "i"
	case KindComplex:
		re, im := real(v.c), imag(v.c)
		if im < 0 {
			return formatFloat(re) + " - " + formatFloat(-im) + "i"
		}
		return formatFloat(re) + " + " + formatFloat(im) + "i"
	case KindPrecise:
		return v.p.Text('g', -1)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.s)
	case KindNull:
		return "null"
	}
	return "?"
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return s
}
