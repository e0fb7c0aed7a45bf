package symexpr

import (
	"math"
	"sort"
	"testing"
)

func polyEqual(p, q Polynomial) bool {
	if len(p.Coeffs) != len(q.Coeffs) {
		return false
	}
	for i := range p.Coeffs {
		if !p.Coeffs[i].EqualValue(q.Coeffs[i]) {
			return false
		}
	}
	return true
}

func TestNewPolynomial(t *testing.T) {
	p := NewPolynomial("x", Int(1), Int(2), Int(0), Int(0))
	if p.Degree() != 1 {
		t.Errorf("degree = %d, want 1 after trimming", p.Degree())
	}
	if !p.Coefficient(1).EqualValue(Int(2)) {
		t.Errorf("coefficient 1 = %v, want 2", p.Coefficient(1))
	}
	if !p.Coefficient(5).EqualValue(Int(0)) {
		t.Errorf("coefficient 5 = %v, want 0", p.Coefficient(5))
	}
	z := NewPolynomial("x", Int(0))
	if !z.IsZero() || z.Degree() != -1 {
		t.Errorf("zero polynomial has degree %d", z.Degree())
	}
}

func TestPolyArith(t *testing.T) {
	p := NewPolynomial("x", Int(1), Int(2))  // 1 + 2x
	q := NewPolynomial("x", Int(-1), Int(1)) // -1 + x

	sum, err := p.Add(q)
	if err != nil {
		t.Fatal(err)
	}
	if !polyEqual(sum, NewPolynomial("x", Int(0), Int(3))) {
		t.Errorf("p + q = %v", sum.Coeffs)
	}

	diff, err := p.Sub(q)
	if err != nil {
		t.Fatal(err)
	}
	if !polyEqual(diff, NewPolynomial("x", Int(2), Int(1))) {
		t.Errorf("p - q = %v", diff.Coeffs)
	}

	prod, err := p.Mul(q)
	if err != nil {
		t.Fatal(err)
	}
	// (1 + 2x)(-1 + x) = -1 - x + 2x^2
	if !polyEqual(prod, NewPolynomial("x", Int(-1), Int(-1), Int(2))) {
		t.Errorf("p * q = %v", prod.Coeffs)
	}

	if got := p.Scale(Int(3)); !polyEqual(got, NewPolynomial("x", Int(3), Int(6))) {
		t.Errorf("3p = %v", got.Coeffs)
	}
}

func TestPolyDiv(t *testing.T) {
	p := NewPolynomial("x", Int(1), Int(2), Int(1)) // (x+1)^2
	q := NewPolynomial("x", Int(1), Int(1))         // x+1
	quo, rem, err := p.Div(q)
	if err != nil {
		t.Fatal(err)
	}
	if !polyEqual(quo, q) {
		t.Errorf("quotient = %v, want x + 1", quo.Coeffs)
	}
	if !rem.IsZero() {
		t.Errorf("remainder = %v, want 0", rem.Coeffs)
	}

	quo, rem, err = NewPolynomial("x", Int(1), Int(0), Int(1)).Div(q)
	if err != nil {
		t.Fatal(err)
	}
	// x^2 + 1 = (x - 1)(x + 1) + 2
	if !polyEqual(quo, NewPolynomial("x", Int(-1), Int(1))) {
		t.Errorf("quotient = %v, want x - 1", quo.Coeffs)
	}
	if !polyEqual(rem, NewPolynomial("x", Int(2))) {
		t.Errorf("remainder = %v, want 2", rem.Coeffs)
	}

	if _, _, err := p.Div(Polynomial{Var: "x"}); err == nil {
		t.Error("dividing by the zero polynomial did not error")
	}
}

func TestPolyGCD(t *testing.T) {
	a := NewPolynomial("x", Int(-1), Int(0), Int(1)) // x^2 - 1
	b := NewPolynomial("x", Int(1), Int(2), Int(1))  // x^2 + 2x + 1
	g, err := a.GCD(b)
	if err != nil {
		t.Fatal(err)
	}
	if !polyEqual(g, NewPolynomial("x", Int(1), Int(1))) {
		t.Errorf("gcd = %v, want x + 1", g.Coeffs)
	}

	l, err := a.LCM(NewPolynomial("x", Int(1), Int(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !polyEqual(l, a) {
		t.Errorf("lcm = %v, want x^2 - 1", l.Coeffs)
	}
}

func TestPolyEval(t *testing.T) {
	p := NewPolynomial("x", Int(1), Int(3), Int(2)) // 2x^2 + 3x + 1
	v, err := p.Eval(Int(2))
	if err != nil {
		t.Fatal(err)
	}
	if !v.EqualValue(Int(15)) {
		t.Errorf("p(2) = %v, want 15", v)
	}
	v, err = p.Eval(Float(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v.Float64()-3) > 1e-12 {
		t.Errorf("p(0.5) = %v, want 3", v)
	}
}

func TestPolyCalculus(t *testing.T) {
	p := NewPolynomial("x", Int(0), Int(0), Int(1)) // x^2
	d := p.Derivative()
	if !polyEqual(d, NewPolynomial("x", Int(0), Int(2))) {
		t.Errorf("derivative = %v, want 2x", d.Coeffs)
	}
	if !polyEqual(d.Integral(), p) {
		t.Errorf("integral of derivative = %v, want x^2", d.Integral().Coeffs)
	}
	if !NewPolynomial("x", Int(7)).Derivative().IsZero() {
		t.Error("derivative of a constant is not zero")
	}
}

func rootFloats(t *testing.T, roots []Value) []float64 {
	t.Helper()
	out := make([]float64, len(roots))
	for i, r := range roots {
		if r.Kind() == KindImaginary || r.Kind() == KindComplex {
			t.Fatalf("unexpected complex root %v", r)
		}
		out[i] = r.Float64()
	}
	sort.Float64s(out)
	return out
}

func TestPolyRoots(t *testing.T) {
	t.Run("linear", func(t *testing.T) {
		roots, err := NewPolynomial("x", Int(4), Int(2)).Roots()
		if err != nil {
			t.Fatal(err)
		}
		if len(roots) != 1 || !roots[0].EqualValue(Int(-2)) {
			t.Errorf("roots = %v, want [-2]", roots)
		}
	})
	t.Run("quadratic", func(t *testing.T) {
		roots, err := NewPolynomial("x", Int(-6), Int(1), Int(1)).Roots()
		if err != nil {
			t.Fatal(err)
		}
		got := rootFloats(t, roots)
		if len(got) != 2 || got[0] != -3 || got[1] != 2 {
			t.Errorf("roots = %v, want [-3 2]", got)
		}
	})
	t.Run("imaginary pair", func(t *testing.T) {
		roots, err := NewPolynomial("x", Int(1), Int(0), Int(1)).Roots()
		if err != nil {
			t.Fatal(err)
		}
		if len(roots) != 2 {
			t.Fatalf("roots = %v", roots)
		}
		for _, r := range roots {
			if r.Kind() != KindImaginary {
				t.Errorf("root %v is not imaginary", r)
			}
		}
	})
	t.Run("cubic", func(t *testing.T) {
		roots, err := NewPolynomial("x", Int(-6), Int(11), Int(-6), Int(1)).Roots()
		if err != nil {
			t.Fatal(err)
		}
		got := rootFloats(t, roots)
		want := []float64{1, 2, 3}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-6 {
				t.Errorf("roots = %v, want %v", got, want)
			}
		}
	})
	t.Run("quartic", func(t *testing.T) {
		roots, err := NewPolynomial("x", Int(4), Int(0), Int(-5), Int(0), Int(1)).Roots()
		if err != nil {
			t.Fatal(err)
		}
		got := rootFloats(t, roots)
		want := []float64{-2, -1, 1, 2}
		if len(got) != 4 {
			t.Fatalf("roots = %v", got)
		}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-6 {
				t.Errorf("roots = %v, want %v", got, want)
			}
		}
	})
	t.Run("constant", func(t *testing.T) {
		if _, err := NewPolynomial("x", Int(5)).Roots(); err == nil {
			t.Error("constant polynomial has no roots but no error")
		}
	})
}

func TestPolyFactorize(t *testing.T) {
	p := NewPolynomial("x", Int(0), Int(-1), Int(0), Int(1)) // x^3 - x
	factors, err := p.Factorize()
	if err != nil {
		t.Fatal(err)
	}
	if len(factors) != 3 {
		t.Fatalf("got %d factors, want 3", len(factors))
	}
	prod := NewPolynomial("x", Int(1))
	for _, f := range factors {
		if f.Degree() != 1 {
			t.Errorf("factor %v is not linear", f.Coeffs)
		}
		prod, err = prod.Mul(f)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !polyEqual(prod, p) {
		t.Errorf("product of factors = %v, want %v", prod.Coeffs, p.Coeffs)
	}
}

func TestPolyFromExpr(t *testing.T) {
	cases := []struct {
		src  string
		want Polynomial
	}{
		{"x^2 + 2*x + 1", NewPolynomial("x", Int(1), Int(2), Int(1))},
		{"(x + 1)*(x - 2)", NewPolynomial("x", Int(-2), Int(-1), Int(1))},
		{"(x + 1)^3", NewPolynomial("x", Int(1), Int(3), Int(3), Int(1))},
		{"-x", NewPolynomial("x", Int(0), Int(-1))},
		{"x/2", NewPolynomial("x", Int(0), Float(0.5))},
		{"7", NewPolynomial("x", Int(7))},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatal(err)
			}
			p, ok := PolyFromExpr(e, "x")
			if !ok {
				t.Fatalf("%q did not convert", c.src)
			}
			if !polyEqual(p, c.want) {
				t.Errorf("%q = %v, want %v", c.src, p.Coeffs, c.want.Coeffs)
			}
		})
	}

	for _, src := range []string{"sin(x)", "x*y", "x^y", "x^(-1)", "2/x"} {
		t.Run("reject "+src, func(t *testing.T) {
			e, err := ParseString(src)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := PolyFromExpr(e, "x"); ok {
				t.Errorf("%q converted but should not", src)
			}
		})
	}
}

func TestPolyExpr(t *testing.T) {
	p := NewPolynomial("x", Int(-2), Int(0), Int(1))
	if got := p.Expr().String(); got != "-2 + x^2" {
		t.Errorf("expr = %q", got)
	}
	n := p.Node()
	if n.Kind() != NodePolynomial {
		t.Fatalf("node kind = %v", n.Kind())
	}
	back, ok := PolyFromExpr(n, "x")
	if !ok || !polyEqual(back, p) {
		t.Errorf("round trip = %v, want %v", back.Coeffs, p.Coeffs)
	}
	if !NewPolynomial("x").Expr().isZero() {
		t.Error("zero polynomial expr is not the zero literal")
	}
}
