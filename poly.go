package symexpr

import (
	"math"
	"math/cmplx"
)

// Polynomial is a dense univariate polynomial over the numeric tower.
// Coeffs[i] multiplies Var^i; the slice carries no trailing zeros.
type Polynomial struct {
	Var    string
	Coeffs []Value
}

// NewPolynomial builds a polynomial with the given ascending coefficients.
func NewPolynomial(v string, coeffs ...Value) Polynomial {
	return Polynomial{Var: v, Coeffs: trimCoeffs(coeffs)}
}

func trimCoeffs(coeffs []Value) []Value {
	n := len(coeffs)
	for n > 0 && coeffs[n-1].IsZero() {
		n--
	}
	return coeffs[:n:n]
}

// Degree returns the degree, or -1 for the zero polynomial.
func (p Polynomial) Degree() int { return len(p.Coeffs) - 1 }

// Coefficient returns the coefficient of Var^i.
func (p Polynomial) Coefficient(i int) Value {
	if i < 0 || i >= len(p.Coeffs) {
		return Int(0)
	}
	return p.Coeffs[i]
}

// IsZero reports whether p has no terms.
func (p Polynomial) IsZero() bool { return len(p.Coeffs) == 0 }

// lead returns the leading coefficient.
func (p Polynomial) lead() Value {
	if p.IsZero() {
		return Int(0)
	}
	return p.Coeffs[len(p.Coeffs)-1]
}

// Add returns p + q.
func (p Polynomial) Add(q Polynomial) (Polynomial, error) {
	n := len(p.Coeffs)
	if len(q.Coeffs) > n {
		n = len(q.Coeffs)
	}
	out := make([]Value, n)
	for i := range out {
		v, err := p.Coefficient(i).Add(q.Coefficient(i))
		if err != nil {
			return Polynomial{}, err
		}
		out[i] = v
	}
	return NewPolynomial(p.Var, out...), nil
}

// Sub returns p - q.
func (p Polynomial) Sub(q Polynomial) (Polynomial, error) {
	return p.Add(q.Scale(Int(-1)))
}

// Scale returns p with every coefficient multiplied by c.
func (p Polynomial) Scale(c Value) Polynomial {
	out := make([]Value, len(p.Coeffs))
	for i, v := range p.Coeffs {
		r, err := v.Mul(c)
		if err != nil {
			r = Int(0)
		}
		out[i] = r
	}
	return NewPolynomial(p.Var, out...)
}

// Mul returns p * q.
func (p Polynomial) Mul(q Polynomial) (Polynomial, error) {
	if p.IsZero() || q.IsZero() {
		return Polynomial{Var: p.Var}, nil
	}
	out := make([]Value, len(p.Coeffs)+len(q.Coeffs)-1)
	for i := range out {
		out[i] = Int(0)
	}
	for i, a := range p.Coeffs {
		for j, b := range q.Coeffs {
			t, err := a.Mul(b)
			if err != nil {
				return Polynomial{}, err
			}
			s, err := out[i+j].Add(t)
			if err != nil {
				return Polynomial{}, err
			}
			out[i+j] = s
		}
	}
	return NewPolynomial(p.Var, out...), nil
}

// Div performs polynomial long division, returning quotient and remainder
// with deg rem < deg q.
func (p Polynomial) Div(q Polynomial) (quo, rem Polynomial, err error) {
	if q.IsZero() {
		return Polynomial{}, Polynomial{}, &DomainError{X: Int(0), Func: "polynomial division"}
	}
	rem = NewPolynomial(p.Var, p.Coeffs...)
	if p.Degree() < q.Degree() {
		return Polynomial{Var: p.Var}, rem, nil
	}
	qc := make([]Value, p.Degree()-q.Degree()+1)
	for i := range qc {
		qc[i] = Int(0)
	}
	for !rem.IsZero() && rem.Degree() >= q.Degree() {
		k := rem.Degree() - q.Degree()
		c, err := rem.lead().Div(q.lead())
		if err != nil {
			return Polynomial{}, Polynomial{}, err
		}
		qc[k] = c
		// rem -= c * x^k * q
		shifted := make([]Value, k+len(q.Coeffs))
		for i := range shifted {
			shifted[i] = Int(0)
		}
		for i, v := range q.Coeffs {
			t, err := v.Mul(c)
			if err != nil {
				return Polynomial{}, Polynomial{}, err
			}
			shifted[k+i] = t
		}
		rem, err = rem.Sub(NewPolynomial(p.Var, shifted...))
		if err != nil {
			return Polynomial{}, Polynomial{}, err
		}
		rem = rem.snap()
	}
	return NewPolynomial(p.Var, qc...), rem, nil
}

// snap zeroes coefficients that are only floating-point residue, which keeps
// the Euclidean algorithm terminating.
func (p Polynomial) snap() Polynomial {
	out := make([]Value, len(p.Coeffs))
	for i, v := range p.Coeffs {
		if v.Kind() == KindDouble && math.Abs(v.Float64()) < 1e-10 {
			out[i] = Int(0)
			continue
		}
		out[i] = v
	}
	return NewPolynomial(p.Var, out...)
}

// monic returns p divided by its leading coefficient.
func (p Polynomial) monic() Polynomial {
	if p.IsZero() || p.lead().IsOne() {
		return p
	}
	out := make([]Value, len(p.Coeffs))
	for i, v := range p.Coeffs {
		r, err := v.Div(p.lead())
		if err != nil {
			return p
		}
		out[i] = r
	}
	return NewPolynomial(p.Var, out...)
}

// GCD returns the monic greatest common divisor of p and q under the
// Euclidean algorithm.
func (p Polynomial) GCD(q Polynomial) (Polynomial, error) {
	a, b := p, q
	for !b.IsZero() {
		_, r, err := a.Div(b)
		if err != nil {
			return Polynomial{}, err
		}
		a, b = b, r.snap()
	}
	if a.IsZero() {
		return a, nil
	}
	return a.monic(), nil
}

// LCM returns the least common multiple of p and q.
func (p Polynomial) LCM(q Polynomial) (Polynomial, error) {
	g, err := p.GCD(q)
	if err != nil {
		return Polynomial{}, err
	}
	if g.IsZero() {
		return Polynomial{Var: p.Var}, nil
	}
	prod, err := p.Mul(q)
	if err != nil {
		return Polynomial{}, err
	}
	quo, _, err := prod.Div(g)
	return quo, err
}

// Eval evaluates p at x by Horner's rule.
func (p Polynomial) Eval(x Value) (Value, error) {
	acc := Int(0)
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		v, err := acc.Mul(x)
		if err != nil {
			return Value{}, err
		}
		acc, err = v.Add(p.Coeffs[i])
		if err != nil {
			return Value{}, err
		}
	}
	return acc, nil
}

// Derivative returns dp/dVar.
func (p Polynomial) Derivative() Polynomial {
	if p.Degree() < 1 {
		return Polynomial{Var: p.Var}
	}
	out := make([]Value, len(p.Coeffs)-1)
	for i := 1; i < len(p.Coeffs); i++ {
		v, err := p.Coeffs[i].Mul(Int(int64(i)))
		if err != nil {
			v = Int(0)
		}
		out[i-1] = v
	}
	return NewPolynomial(p.Var, out...)
}

// Integral returns the antiderivative of p with zero constant term.
func (p Polynomial) Integral() Polynomial {
	if p.IsZero() {
		return p
	}
	out := make([]Value, len(p.Coeffs)+1)
	out[0] = Int(0)
	for i, v := range p.Coeffs {
		r, err := v.Div(Int(int64(i + 1)))
		if err != nil {
			r = Int(0)
		}
		out[i+1] = r
	}
	return NewPolynomial(p.Var, out...)
}

// rootIterations and rootTol bound numeric root-finding so that inputs that
// never converge terminate with an error.
const (
	rootIterations = 500
	rootTol        = 1e-12
)

// Roots returns all complex roots of p, with multiplicity. Degrees through
// three solve in closed form; higher degrees use Durand-Kerner iteration and
// report failure to converge.
func (p Polynomial) Roots() ([]Value, error) {
	p = NewPolynomial(p.Var, p.Coeffs...)
	switch p.Degree() {
	case -1, 0:
		return nil, &SolveError{Var: p.Var, Reason: "no variable terms"}
	case 1:
		b, a := p.Coeffs[0], p.Coeffs[1]
		r, err := b.Neg().Div(a)
		if err != nil {
			return nil, err
		}
		return []Value{r}, nil
	case 2:
		return quadRoots(p.Coeffs[2].Complex128(), p.Coeffs[1].Complex128(), p.Coeffs[0].Complex128(), p), nil
	case 3:
		return cubicRoots(p), nil
	}
	return p.durandKerner()
}

func quadRoots(a, b, c complex128, p Polynomial) []Value {
	d := cmplx.Sqrt(b*b - 4*a*c)
	r1 := (-b + d) / (2 * a)
	r2 := (-b - d) / (2 * a)
	return []Value{p.tidyRoot(r1), p.tidyRoot(r2)}
}

func cubicRoots(p Polynomial) []Value {
	a := p.Coeffs[3].Complex128()
	b := p.Coeffs[2].Complex128()
	c := p.Coeffs[1].Complex128()
	d := p.Coeffs[0].Complex128()
	// Depressed cubic t^3 + pt + q with x = t - b/3a.
	sh := b / (3 * a)
	pp := c/a - sh*sh*3
	qq := 2*sh*sh*sh - sh*c/a + d/a
	u := cmplx.Sqrt(qq*qq/4 + pp*pp*pp/27)
	w := cube(-qq/2 + u)
	if w == 0 {
		w = cube(-qq/2 - u)
	}
	out := make([]Value, 0, 3)
	rot := complex(-0.5, math.Sqrt(3)/2)
	for i := 0; i < 3; i++ {
		t := w
		var v complex128
		if t == 0 {
			v = -sh
		} else {
			v = t - pp/(3*t) - sh
		}
		out = append(out, p.tidyRoot(v))
		w *= rot
	}
	return out
}

func cube(z complex128) complex128 {
	if z == 0 {
		return 0
	}
	return cmplx.Pow(z, complex(1.0/3, 0))
}

// durandKerner iterates all roots simultaneously.
func (p Polynomial) durandKerner() ([]Value, error) {
	m := p.monic()
	n := m.Degree()
	coeffs := make([]complex128, n+1)
	for i, v := range m.Coeffs {
		coeffs[i] = v.Complex128()
	}
	evalAt := func(z complex128) complex128 {
		acc := complex128(0)
		for i := n; i >= 0; i-- {
			acc = acc*z + coeffs[i]
		}
		return acc
	}
	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	z := complex128(1)
	for i := range roots {
		z *= seed
		roots[i] = z
	}
	for it := 0; it < rootIterations; it++ {
		moved := 0.0
		for i := range roots {
			num := evalAt(roots[i])
			den := complex128(1)
			for j := range roots {
				if j != i {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				den = complex(rootTol, 0)
			}
			d := num / den
			roots[i] -= d
			if cmplx.Abs(d) > moved {
				moved = cmplx.Abs(d)
			}
		}
		if moved < rootTol {
			out := make([]Value, n)
			for i, r := range roots {
				out[i] = p.tidyRoot(r)
			}
			return out, nil
		}
	}
	return nil, &SolveError{Var: p.Var, Reason: "root iteration did not converge"}
}

// tidyRoot snaps a root to the nearest exact integer when the polynomial
// confirms it, and drops negligible imaginary parts.
func (p Polynomial) tidyRoot(z complex128) Value {
	if math.Abs(imag(z)) < 1e-9 {
		r := real(z)
		n := math.Round(r)
		if math.Abs(r-n) < 1e-9 {
			if v, err := p.Eval(Int(int64(n))); err == nil && v.IsZero() {
				return Int(int64(n))
			}
		}
		return Float(r)
	}
	if math.Abs(real(z)) < 1e-9 {
		return Imag(imag(z))
	}
	return Cmplx(z)
}

// Factorize splits p into its leading coefficient, a linear factor per real
// root, and a quadratic factor per conjugate pair.
func (p Polynomial) Factorize() ([]Polynomial, error) {
	if p.Degree() < 1 {
		return []Polynomial{p}, nil
	}
	roots, err := p.Roots()
	if err != nil {
		return nil, err
	}
	var out []Polynomial
	if !p.lead().IsOne() {
		out = append(out, NewPolynomial(p.Var, p.lead()))
	}
	used := make([]bool, len(roots))
	for i, r := range roots {
		if used[i] {
			continue
		}
		switch r.Kind() {
		case KindInteger, KindDouble, KindPrecise:
			out = append(out, NewPolynomial(p.Var, r.Neg(), Int(1)))
		default:
			// Pair with the conjugate to get a real quadratic.
			z := r.Complex128()
			for j := i + 1; j < len(roots); j++ {
				if used[j] {
					continue
				}
				w := roots[j].Complex128()
				if math.Abs(real(w)-real(z)) < 1e-9 && math.Abs(imag(w)+imag(z)) < 1e-9 {
					used[j] = true
					break
				}
			}
			out = append(out, NewPolynomial(p.Var, Float(real(z)*real(z)+imag(z)*imag(z)), Float(-2*real(z)), Int(1)))
		}
		used[i] = true
	}
	return out, nil
}

// Expr converts p to an expression tree in ascending degree order.
func (p Polynomial) Expr() *Expr {
	var acc *Expr
	for i, c := range p.Coeffs {
		if c.IsZero() {
			continue
		}
		var t *Expr
		switch {
		case i == 0:
			t = Lit(c)
		case i == 1 && c.IsOne():
			t = Var(p.Var)
		case i == 1:
			t = Mul(Lit(c), Var(p.Var))
		case c.IsOne():
			t = Pow(Var(p.Var), IntLit(int64(i)))
		default:
			t = Mul(Lit(c), Pow(Var(p.Var), IntLit(int64(i))))
		}
		if acc == nil {
			acc = t
			continue
		}
		acc = Add(acc, t)
	}
	if acc == nil {
		return IntLit(0)
	}
	return acc
}

// Node converts p to a Polynomial AST node.
func (p Polynomial) Node() *Expr { return Poly(p.Var, p.Coeffs...) }

// polyExpr renders a Polynomial node as its expression form.
func (e *Expr) polyExpr() *Expr {
	return Polynomial{Var: e.name, Coeffs: trimCoeffs(e.coeffs)}.Expr()
}

// PolyFromExpr interprets e as a univariate polynomial in v. It reports
// false when e contains other variables, non-integer powers, or functions.
func PolyFromExpr(e *Expr, v string) (Polynomial, bool) {
	switch e.kind {
	case NodeLiteral:
		if !e.val.Kind().Numeric() {
			return Polynomial{}, false
		}
		if e.val.IsZero() {
			return Polynomial{Var: v}, true
		}
		return NewPolynomial(v, e.val), true
	case NodeVariable:
		if e.name != v {
			return Polynomial{}, false
		}
		return NewPolynomial(v, Int(0), Int(1)), true
	case NodeGroup:
		return PolyFromExpr(e.left, v)
	case NodeAdd, NodeSubtract:
		l, ok := PolyFromExpr(e.left, v)
		if !ok {
			return Polynomial{}, false
		}
		r, ok := PolyFromExpr(e.right, v)
		if !ok {
			return Polynomial{}, false
		}
		var out Polynomial
		var err error
		if e.kind == NodeAdd {
			out, err = l.Add(r)
		} else {
			out, err = l.Sub(r)
		}
		return out, err == nil
	case NodeMultiply:
		l, ok := PolyFromExpr(e.left, v)
		if !ok {
			return Polynomial{}, false
		}
		r, ok := PolyFromExpr(e.right, v)
		if !ok {
			return Polynomial{}, false
		}
		out, err := l.Mul(r)
		return out, err == nil
	case NodeDivide:
		l, ok := PolyFromExpr(e.left, v)
		if !ok {
			return Polynomial{}, false
		}
		r, ok := PolyFromExpr(e.right, v)
		if !ok || r.Degree() != 0 {
			return Polynomial{}, false
		}
		inv, err := Int(1).Div(r.Coeffs[0])
		if err != nil {
			return Polynomial{}, false
		}
		return l.Scale(inv), true
	case NodePow:
		if !e.right.IsLiteral() || e.right.val.Kind() != KindInteger {
			return Polynomial{}, false
		}
		n := e.right.val.Int64()
		if n < 0 || n > 64 {
			return Polynomial{}, false
		}
		b, ok := PolyFromExpr(e.left, v)
		if !ok {
			return Polynomial{}, false
		}
		out := NewPolynomial(v, Int(1))
		var err error
		for i := int64(0); i < n; i++ {
			out, err = out.Mul(b)
			if err != nil {
				return Polynomial{}, false
			}
		}
		return out, true
	case NodeUnary:
		if !e.prefix {
			return Polynomial{}, false
		}
		switch e.name {
		case "-":
			b, ok := PolyFromExpr(e.left, v)
			if !ok {
				return Polynomial{}, false
			}
			return b.Scale(Int(-1)), true
		case "+":
			return PolyFromExpr(e.left, v)
		}
		return Polynomial{}, false
	case NodePolynomial:
		if e.name != v && len(trimCoeffs(e.coeffs)) > 1 {
			return Polynomial{}, false
		}
		return NewPolynomial(v, e.coeffs...), true
	}
	return Polynomial{}, false
}
