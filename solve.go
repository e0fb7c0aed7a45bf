package symexpr

import "math"

// SolveError indicates that no solving strategy applied to an equation.
type SolveError struct {
	// Var is the variable being solved for.
	Var string
	// Reason describes the failure.
	Reason string
}

func (err *SolveError) Error() string {
	return "cannot solve for " + err.Var + ": " + err.Reason
}

// Solve finds the values of v for which e is zero. Solutions are returned as
// expressions; pure numeric solutions are Literal nodes.
func Solve(e *Expr, v string) ([]*Expr, error) {
	return solveEq(e.Simplify(), IntLit(0), v, 0)
}

// SolveEquation finds the values of v satisfying q.
func SolveEquation(q *Equation, v string) ([]*Expr, error) {
	return solveEq(q.LHS.Simplify(), q.RHS.Simplify(), v, 0)
}

// solveEq isolates v in lhs = t by peeling structure off lhs, falling back
// to polynomial root-finding when no isolation rule applies.
func solveEq(lhs, t *Expr, v string, depth int) ([]*Expr, error) {
	if depth > DefaultMaxDepth {
		return nil, &SolveError{Var: v, Reason: "equation too deep"}
	}
	lhs = strip(lhs)
	if !lhs.ContainsVar(v) {
		if !t.ContainsVar(v) {
			return nil, &SolveError{Var: v, Reason: "variable does not appear"}
		}
		lhs, t = t, lhs
		lhs = strip(lhs)
	}
	switch lhs.kind {
	case NodeVariable:
		if lhs.name == v && !t.ContainsVar(v) {
			return []*Expr{t.Simplify()}, nil
		}
	case NodeAdd:
		switch lv, rv := lhs.left.ContainsVar(v), lhs.right.ContainsVar(v); {
		case lv && !rv:
			return solveEq(lhs.left, Sub(t, lhs.right).Simplify(), v, depth+1)
		case rv && !lv:
			return solveEq(lhs.right, Sub(t, lhs.left).Simplify(), v, depth+1)
		}
	case NodeSubtract:
		switch lv, rv := lhs.left.ContainsVar(v), lhs.right.ContainsVar(v); {
		case lv && !rv:
			return solveEq(lhs.left, Add(t, lhs.right).Simplify(), v, depth+1)
		case rv && !lv:
			return solveEq(lhs.right, Sub(lhs.left, t).Simplify(), v, depth+1)
		}
	case NodeMultiply:
		lv, rv := lhs.left.ContainsVar(v), lhs.right.ContainsVar(v)
		switch {
		case lv && !rv:
			if !lhs.right.isZero() {
				return solveEq(lhs.left, Div(t, lhs.right).Simplify(), v, depth+1)
			}
		case rv && !lv:
			if !lhs.left.isZero() {
				return solveEq(lhs.right, Div(t, lhs.left).Simplify(), v, depth+1)
			}
		case lv && rv && t.isZero():
			// A*B = 0 solves each factor, keeping the factored form rather
			// than expanding.
			ls, lerr := solveEq(lhs.left, IntLit(0), v, depth+1)
			rs, rerr := solveEq(lhs.right, IntLit(0), v, depth+1)
			if lerr != nil && rerr != nil {
				break
			}
			return dedupe(append(ls, rs...)), nil
		}
	case NodeDivide:
		lv, rv := lhs.left.ContainsVar(v), lhs.right.ContainsVar(v)
		switch {
		case lv && !rv:
			return solveEq(lhs.left, Mul(t, lhs.right).Simplify(), v, depth+1)
		case rv && !lv:
			if !t.isZero() {
				return solveEq(lhs.right, Div(lhs.left, t).Simplify(), v, depth+1)
			}
		}
	case NodePow:
		if lhs.left.ContainsVar(v) && lhs.right.IsLiteral() && !lhs.right.ContainsVar(v) {
			n := lhs.right.val
			if t.isZero() && !n.IsNegative() && !n.IsZero() {
				return solveEq(lhs.left, IntLit(0), v, depth+1)
			}
			if n.Kind() == KindInteger && n.Int64() > 0 && !t.ContainsVar(v) {
				return solvePow(lhs.left, t, n.Int64(), v, depth)
			}
		}
	case NodeUnary:
		if lhs.prefix {
			switch lhs.name {
			case "-":
				return solveEq(lhs.left, Neg(t).Simplify(), v, depth+1)
			case "+":
				return solveEq(lhs.left, t, v, depth+1)
			}
		}
	case NodePolynomial:
		if lhs.name == v && !t.ContainsVar(v) {
			return solvePoly(Sub(lhs, t), v)
		}
	}
	// Polynomial fallback over the expanded residual.
	if sols, err := solvePoly(Sub(lhs, t), v); err == nil {
		return sols, nil
	}
	return nil, &SolveError{Var: v, Reason: "no isolation rule applies"}
}

// solvePow inverts base^n = t for a positive integer n, producing both real
// roots when n is even.
func solvePow(base, t *Expr, n int64, v string, depth int) ([]*Expr, error) {
	root := nthRoot(t, n)
	if n%2 == 1 {
		return solveEq(base, root, v, depth+1)
	}
	if t.IsLiteral() && t.val.IsNegative() {
		return nil, &SolveError{Var: v, Reason: "even power equals a negative value"}
	}
	pos, perr := solveEq(base, root, v, depth+1)
	neg, nerr := solveEq(base, Neg(root).Simplify(), v, depth+1)
	if perr != nil && nerr != nil {
		return nil, perr
	}
	return dedupe(append(pos, neg...)), nil
}

// nthRoot returns t^(1/n), folded to an exact literal when possible. For odd
// n and negative real t the root is the real one, not the principal complex
// root Pow would give.
func nthRoot(t *Expr, n int64) *Expr {
	if t.IsLiteral() {
		if n%2 == 1 && t.val.IsNegative() {
			if v, err := t.val.Neg().Pow(Float(1 / float64(n))); err == nil {
				return Lit(snapValue(v).Neg())
			}
		}
		if v, err := t.val.Pow(Float(1 / float64(n))); err == nil {
			return Lit(snapValue(v))
		}
	}
	return Pow(t, Div(IntLit(1), IntLit(n)))
}

// snapValue converts a double that is an exact integer to integer kind.
func snapValue(v Value) Value {
	if v.Kind() != KindDouble {
		return v
	}
	f := v.Float64()
	r := math.Round(f)
	if math.Abs(f-r) < 1e-9 && math.Abs(r) < 1e15 {
		return Int(int64(r))
	}
	return v
}

// solvePoly treats the residual as a univariate polynomial and hands off to
// root-finding.
func solvePoly(resid *Expr, v string) ([]*Expr, error) {
	p, ok := PolyFromExpr(resid.Expand(), v)
	if !ok {
		return nil, &SolveError{Var: v, Reason: "not a polynomial equation"}
	}
	if p.Degree() < 1 {
		return nil, &SolveError{Var: v, Reason: "no variable terms"}
	}
	roots, err := p.Roots()
	if err != nil {
		return nil, err
	}
	out := make([]*Expr, len(roots))
	for i, r := range roots {
		out[i] = Lit(r)
	}
	return dedupe(out), nil
}

func dedupe(sols []*Expr) []*Expr {
	seen := map[string]bool{}
	out := sols[:0]
	for _, s := range sols {
		key := s.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// SolveSystem solves simultaneous equations by isolating any variable in
// any equation, substituting into the rest, and recursing. It backtracks
// over (equation, variable, solution) choices and returns the first
// consistent assignment.
func SolveSystem(eqs []*Equation, vars []string) (map[string]*Expr, error) {
	if len(vars) == 0 {
		for _, q := range eqs {
			if !holdsTrivially(q) {
				return nil, &SolveError{Var: "", Reason: "inconsistent system"}
			}
		}
		return map[string]*Expr{}, nil
	}
	for _, q := range eqs {
		resid := q.Residual().Simplify()
		for _, v := range vars {
			if !resid.ContainsVar(v) {
				continue
			}
			sols, err := solveEq(resid, IntLit(0), v, 0)
			if err != nil {
				continue
			}
			rest := remainingVars(vars, v)
			for _, sol := range sols {
				reduced := substituteAll(eqs, q, v, sol)
				m, err := SolveSystem(reduced, rest)
				if err != nil {
					continue
				}
				b := sol
				for name, val := range m {
					b = b.SubstituteVar(name, val)
				}
				m[v] = b.Simplify()
				return m, nil
			}
		}
	}
	return nil, &SolveError{Var: vars[0], Reason: "no equation isolates a remaining variable"}
}

func holdsTrivially(q *Equation) bool {
	r := q.Residual().Simplify()
	if r.isZero() {
		return true
	}
	if r.IsLiteral() {
		f := r.val.Float64()
		return f < 1e-9 && f > -1e-9
	}
	return false
}

func remainingVars(vars []string, drop string) []string {
	out := make([]string, 0, len(vars)-1)
	for _, v := range vars {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func substituteAll(eqs []*Equation, skip *Equation, v string, sol *Expr) []*Equation {
	out := make([]*Equation, 0, len(eqs)-1)
	for _, q := range eqs {
		if q == skip {
			continue
		}
		out = append(out, &Equation{
			LHS: q.LHS.SubstituteVar(v, sol).Simplify(),
			RHS: q.RHS.SubstituteVar(v, sol).Simplify(),
		})
	}
	return out
}
