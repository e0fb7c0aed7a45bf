package symexpr

// DefaultVar is the variable calculus operations use when none is named.
const DefaultVar = "x"

// Diff returns the derivative of e with respect to v, simplified. An empty v
// means DefaultVar. Node kinds with no differentiation rule are an
// UnsupportedError rather than a silent zero.
func (e *Expr) Diff(v string) (*Expr, error) {
	if v == "" {
		v = DefaultVar
	}
	d, err := e.diff(v)
	if err != nil {
		return nil, err
	}
	return d.Simplify(), nil
}

func (e *Expr) diff(v string) (*Expr, error) {
	switch e.kind {
	case NodeLiteral:
		if !e.val.Kind().Numeric() {
			return nil, &UnsupportedError{Op: "differentiate", On: "a " + e.val.Kind().String() + " literal"}
		}
		return IntLit(0), nil
	case NodeVariable:
		if e.name == v {
			return IntLit(1), nil
		}
		return IntLit(0), nil
	case NodeGroup:
		return e.left.diff(v)
	case NodeAdd, NodeSubtract:
		dl, err := e.left.diff(v)
		if err != nil {
			return nil, err
		}
		dr, err := e.right.diff(v)
		if err != nil {
			return nil, err
		}
		if e.kind == NodeAdd {
			return Add(dl, dr), nil
		}
		return Sub(dl, dr), nil
	case NodeMultiply:
		dl, err := e.left.diff(v)
		if err != nil {
			return nil, err
		}
		dr, err := e.right.diff(v)
		if err != nil {
			return nil, err
		}
		return Add(Mul(dl, e.right), Mul(e.left, dr)), nil
	case NodeDivide:
		dl, err := e.left.diff(v)
		if err != nil {
			return nil, err
		}
		dr, err := e.right.diff(v)
		if err != nil {
			return nil, err
		}
		num := Sub(Mul(dl, e.right), Mul(e.left, dr))
		return Div(num, Pow(e.right, IntLit(2))), nil
	case NodePow:
		return e.diffPow(v)
	case NodeUnary:
		if e.prefix {
			switch e.name {
			case "-":
				d, err := e.left.diff(v)
				if err != nil {
					return nil, err
				}
				return Neg(d), nil
			case "+":
				return e.left.diff(v)
			}
		} else if e.name == "%" {
			d, err := e.left.diff(v)
			if err != nil {
				return nil, err
			}
			return Div(d, IntLit(100)), nil
		}
		return nil, &UnsupportedError{Op: "differentiate", On: "the " + e.name + " operator"}
	case NodeCall:
		f := defaultFuncs[e.name]
		if f == nil {
			return nil, &UnsupportedError{Op: "differentiate", On: "a call to " + e.name}
		}
		if f.MaxArgs == 0 {
			// Named constants.
			return IntLit(0), nil
		}
		if len(e.list) == 1 && f.Deriv != nil {
			u := e.list[0]
			du, err := u.diff(v)
			if err != nil {
				return nil, err
			}
			return Mul(f.Deriv(u), du), nil
		}
		return nil, &UnsupportedError{Op: "differentiate", On: "a call to " + e.name}
	case NodePolynomial:
		if e.name == v {
			return Polynomial{Var: e.name, Coeffs: trimCoeffs(e.coeffs)}.Derivative().Expr(), nil
		}
		return IntLit(0), nil
	default:
		return nil, &UnsupportedError{Op: "differentiate", On: "a " + e.kind.String() + " node"}
	}
}

// diffPow handles the three power rule cases: constant exponent, constant
// base, and full logarithmic differentiation.
func (e *Expr) diffPow(v string) (*Expr, error) {
	f, g := e.left, e.right
	fv, gv := f.ContainsVar(v), g.ContainsVar(v)
	switch {
	case !fv && !gv:
		return IntLit(0), nil
	case !gv:
		df, err := f.diff(v)
		if err != nil {
			return nil, err
		}
		return Mul(Mul(g, Pow(f, Sub(g, IntLit(1)))), df), nil
	case !fv:
		dg, err := g.diff(v)
		if err != nil {
			return nil, err
		}
		return Mul(Mul(e, Call("ln", f)), dg), nil
	default:
		df, err := f.diff(v)
		if err != nil {
			return nil, err
		}
		dg, err := g.diff(v)
		if err != nil {
			return nil, err
		}
		return Mul(e, Add(Mul(dg, Call("ln", f)), Div(Mul(g, df), f))), nil
	}
}

// maxPartsDepth bounds recursive integration by parts.
const maxPartsDepth = 6

// Integrate returns an antiderivative of e with respect to v, simplified,
// with the constant of integration fixed at zero. An empty v means
// DefaultVar. Shapes with no integration rule return e unchanged; callers
// can detect partial support by comparing the result against the input.
func (e *Expr) Integrate(v string) *Expr {
	if v == "" {
		v = DefaultVar
	}
	out, ok := e.integ(v, 0)
	if !ok {
		return e
	}
	return out.Simplify()
}

func (e *Expr) integ(v string, depth int) (*Expr, bool) {
	if depth > maxPartsDepth {
		return nil, false
	}
	if !e.ContainsVar(v) {
		if e.kind == NodeLiteral && !e.val.Kind().Numeric() {
			return nil, false
		}
		return Mul(e, Var(v)), true
	}
	switch e.kind {
	case NodeVariable:
		return Div(Pow(Var(v), IntLit(2)), IntLit(2)), true
	case NodeGroup:
		return e.left.integ(v, depth)
	case NodeAdd, NodeSubtract:
		l, ok := e.left.integ(v, depth)
		if !ok {
			return nil, false
		}
		r, ok := e.right.integ(v, depth)
		if !ok {
			return nil, false
		}
		if e.kind == NodeAdd {
			return Add(l, r), true
		}
		return Sub(l, r), true
	case NodeUnary:
		if e.prefix {
			switch e.name {
			case "-":
				r, ok := e.left.integ(v, depth)
				if !ok {
					return nil, false
				}
				return Neg(r), true
			case "+":
				return e.left.integ(v, depth)
			}
		} else if e.name == "%" {
			r, ok := e.left.integ(v, depth)
			if !ok {
				return nil, false
			}
			return Div(r, IntLit(100)), true
		}
		return nil, false
	case NodeMultiply:
		if !e.left.ContainsVar(v) {
			r, ok := e.right.integ(v, depth)
			if !ok {
				return nil, false
			}
			return Mul(e.left, r), true
		}
		if !e.right.ContainsVar(v) {
			l, ok := e.left.integ(v, depth)
			if !ok {
				return nil, false
			}
			return Mul(l, e.right), true
		}
		if p, ok := PolyFromExpr(e, v); ok {
			return p.Integral().Expr(), true
		}
		// Integration by parts with u on the left.
		V, ok := e.right.integ(v, depth+1)
		if !ok {
			return nil, false
		}
		du, err := e.left.Diff(v)
		if err != nil {
			return nil, false
		}
		rest, ok := Mul(V, du).Simplify().integ(v, depth+1)
		if !ok {
			return nil, false
		}
		return Sub(Mul(e.left, V), rest), true
	case NodePow:
		if p, ok := PolyFromExpr(e, v); ok {
			return p.Integral().Expr(), true
		}
		b, x := e.left, e.right
		if x.IsLiteral() && b.ContainsVar(v) {
			a, ok := linearCoeff(b, v)
			if !ok {
				return nil, false
			}
			if x.val.Kind() == KindInteger && x.val.Int64() == -1 {
				return Div(Call("ln", b), Lit(a)), true
			}
			n1, err := x.val.Add(Int(1))
			if err != nil {
				return nil, false
			}
			d, err := n1.Mul(a)
			if err != nil || d.IsZero() {
				return nil, false
			}
			return Div(Pow(b, Lit(n1)), Lit(d)), true
		}
		if !b.ContainsVar(v) {
			a, ok := linearCoeff(x, v)
			if !ok {
				return nil, false
			}
			return Div(Pow(b, x), Mul(Lit(a), Call("ln", b))), true
		}
		return nil, false
	case NodeDivide:
		return e.integQuotient(v, depth)
	case NodeCall:
		f := defaultFuncs[e.name]
		if f == nil || f.Antideriv == nil || len(e.list) != 1 {
			return nil, false
		}
		u := e.list[0]
		a, ok := linearCoeff(u, v)
		if !ok {
			return nil, false
		}
		F := f.Antideriv(u)
		if a.IsOne() {
			return F, true
		}
		return Div(F, Lit(a)), true
	case NodePolynomial:
		if e.name == v {
			return Polynomial{Var: e.name, Coeffs: trimCoeffs(e.coeffs)}.Integral().Expr(), true
		}
		return nil, false
	}
	return nil, false
}

func (e *Expr) integQuotient(v string, depth int) (*Expr, bool) {
	num, den := e.left, e.right
	// A numerator proportional to the denominator's derivative integrates to
	// that ratio times ln of the denominator.
	if dd, err := den.Diff(v); err == nil && !dd.isZero() {
		ratio := Div(num, dd).Simplify()
		if !ratio.ContainsVar(v) {
			return Mul(ratio, Call("ln", den)), true
		}
	}
	np, ok1 := PolyFromExpr(num, v)
	dp, ok2 := PolyFromExpr(den, v)
	if ok1 && ok2 && !dp.IsZero() {
		if out, ok := integRational(np, dp, v); ok {
			return out, true
		}
	}
	// A literal power in the denominator moves up as a negative exponent.
	if den.kind == NodePow && den.right.IsLiteral() {
		return Mul(num, Pow(den.left, Lit(den.right.val.Neg()))).integ(v, depth+1)
	}
	return nil, false
}

// integRational integrates a ratio of polynomials: long division when the
// numerator's degree reaches the denominator's, partial fractions over
// distinct real roots otherwise.
func integRational(np, dp Polynomial, v string) (*Expr, bool) {
	if np.IsZero() {
		return IntLit(0), true
	}
	if np.Degree() >= dp.Degree() {
		quo, rem, err := np.Div(dp)
		if err != nil {
			return nil, false
		}
		out := quo.Integral().Expr()
		if rem.IsZero() {
			return out, true
		}
		rest, ok := integRational(rem, dp, v)
		if !ok {
			return nil, false
		}
		return Add(out, rest), true
	}
	roots, err := dp.Roots()
	if err != nil {
		return nil, false
	}
	for i, r := range roots {
		if r.Kind() != KindInteger && r.Kind() != KindDouble {
			return nil, false
		}
		for j := i + 1; j < len(roots); j++ {
			if closeRoots(r, roots[j]) {
				return nil, false
			}
		}
	}
	ddp := dp.Derivative()
	var acc *Expr
	for _, r := range roots {
		nv, err := np.Eval(r)
		if err != nil {
			return nil, false
		}
		dv, err := ddp.Eval(r)
		if err != nil || dv.IsZero() {
			return nil, false
		}
		a, err := nv.Div(dv)
		if err != nil {
			return nil, false
		}
		t := Mul(Lit(a), Call("ln", Sub(Var(v), Lit(r))))
		if acc == nil {
			acc = t
			continue
		}
		acc = Add(acc, t)
	}
	if acc == nil {
		return nil, false
	}
	return acc, true
}

func closeRoots(a, b Value) bool {
	if b.Kind() != KindInteger && b.Kind() != KindDouble {
		return false
	}
	d := a.Float64() - b.Float64()
	return d < 1e-9 && d > -1e-9
}

// linearCoeff reports the leading coefficient of an expression linear in v.
func linearCoeff(e *Expr, v string) (Value, bool) {
	p, ok := PolyFromExpr(e, v)
	if !ok || p.Degree() != 1 {
		return Value{}, false
	}
	return p.Coeffs[1], true
}
