package symexpr

import "math"

// TaylorSeries returns the degree-n Taylor polynomial of e in v about the
// point at. Derivatives are taken symbolically and evaluated at the point.
func TaylorSeries(e *Expr, v string, at Value, n int) (*Expr, error) {
	if v == "" {
		v = DefaultVar
	}
	ctx := NewContext()
	deriv := e
	fact := Int(1)
	var acc *Expr
	for k := 0; k <= n; k++ {
		if k > 0 {
			d, err := deriv.Diff(v)
			if err != nil {
				return nil, err
			}
			deriv = d
			f, err := fact.Mul(Int(int64(k)))
			if err != nil {
				return nil, err
			}
			fact = f
		}
		val, err := deriv.EvalValue(ctx, SetVal(v, at))
		if err != nil {
			return nil, err
		}
		c, err := val.Div(fact)
		if err != nil {
			return nil, err
		}
		if c.IsZero() {
			continue
		}
		var term *Expr
		switch {
		case k == 0:
			term = Lit(c)
		case at.IsZero():
			term = Mul(Lit(c), Pow(Var(v), IntLit(int64(k))))
		default:
			term = Mul(Lit(c), Pow(Group(Sub(Var(v), Lit(at))), IntLit(int64(k))))
		}
		if acc == nil {
			acc = term
			continue
		}
		acc = Add(acc, term)
	}
	if acc == nil {
		return IntLit(0), nil
	}
	return acc.Simplify(), nil
}

// MaclaurinSeries is the Taylor series about zero.
func MaclaurinSeries(e *Expr, v string, n int) (*Expr, error) {
	return TaylorSeries(e, v, Int(0), n)
}

// maxLHopital bounds repeated applications of L'Hopital's rule.
const maxLHopital = 6

// Limit computes the limit of e as v approaches at. Indeterminate quotients
// apply L'Hopital's rule a bounded number of times; other failures fall back
// to a two-sided numeric probe.
func Limit(e *Expr, v string, at Value) (Value, error) {
	if v == "" {
		v = DefaultVar
	}
	return limit(e.Simplify(), v, at, 0)
}

func limit(e *Expr, v string, at Value, depth int) (Value, error) {
	ctx := NewContext()
	r, err := e.EvalValue(ctx, SetVal(v, at))
	if err == nil && !isNaN(r) {
		return r, nil
	}
	if q := strip(e); q.kind == NodeDivide && depth < maxLHopital {
		nv, nerr := q.left.EvalValue(ctx, SetVal(v, at))
		dv, derr := q.right.EvalValue(ctx, SetVal(v, at))
		if nerr == nil && derr == nil && nv.IsZero() && dv.IsZero() {
			dn, err := q.left.Diff(v)
			if err != nil {
				return Value{}, err
			}
			dd, err := q.right.Diff(v)
			if err != nil {
				return Value{}, err
			}
			return limit(Div(dn, dd).Simplify(), v, at, depth+1)
		}
	}
	return probeLimit(e, v, at, ctx)
}

func isNaN(v Value) bool {
	switch v.Kind() {
	case KindDouble:
		return math.IsNaN(v.Float64())
	case KindImaginary, KindComplex:
		c := v.Complex128()
		return math.IsNaN(real(c)) || math.IsNaN(imag(c))
	}
	return false
}

// probeLimit samples e just left and right of the point and accepts when the
// two sides agree.
func probeLimit(e *Expr, v string, at Value, ctx *Context) (Value, error) {
	const h = 1e-7
	x := at.Float64()
	lo, loErr := e.EvalValue(ctx, SetVal(v, Float(x-h)))
	hi, hiErr := e.EvalValue(ctx, SetVal(v, Float(x+h)))
	if loErr != nil || hiErr != nil {
		return Value{}, &UnsupportedError{Op: "take the limit of", On: e.String()}
	}
	a, b := lo.Float64(), hi.Float64()
	if math.IsNaN(a) || math.IsNaN(b) || math.Abs(a-b) > 1e-4*(1+math.Abs(a)) {
		return Value{}, &UnsupportedError{Op: "take the limit of", On: e.String()}
	}
	return snapValue(Float((a + b) / 2)), nil
}

// Gauss-Legendre 5-point nodes and weights on [-1, 1].
var (
	glNodes   = [5]float64{-0.9061798459386640, -0.5384693101056831, 0, 0.5384693101056831, 0.9061798459386640}
	glWeights = [5]float64{0.2369268850561891, 0.4786286704993665, 0.5688888888888889, 0.4786286704993665, 0.2369268850561891}
)

const glPanels = 32

// DefiniteIntegral computes the integral of e in v from a to b. When a
// closed-form antiderivative is found it is evaluated at the bounds;
// otherwise the result is a composite Gauss-Legendre quadrature.
func DefiniteIntegral(e *Expr, v string, a, b Value) (Value, error) {
	if v == "" {
		v = DefaultVar
	}
	ctx := NewContext()
	if F, ok := e.integ(v, 0); ok {
		F = F.Simplify()
		fb, berr := F.EvalValue(ctx, SetVal(v, b))
		fa, aerr := F.EvalValue(ctx, SetVal(v, a))
		if berr == nil && aerr == nil {
			return fb.Sub(fa)
		}
	}
	lo, hi := a.Float64(), b.Float64()
	width := (hi - lo) / glPanels
	sum := 0.0
	for i := 0; i < glPanels; i++ {
		mid := lo + (float64(i)+0.5)*width
		half := width / 2
		for j, t := range glNodes {
			x := mid + half*t
			y, err := e.EvalValue(ctx, SetVal(v, Float(x)))
			if err != nil {
				return Value{}, err
			}
			sum += glWeights[j] * y.Float64() * half
		}
	}
	return Float(sum), nil
}

// Collect rewrites e as a dense polynomial node in v. It reports false when
// e is not polynomial in v, returning e unchanged.
func Collect(e *Expr, v string) (*Expr, bool) {
	p, ok := PolyFromExpr(e.Expand(), v)
	if !ok {
		return e, false
	}
	return p.Node(), true
}
