package symexpr

import (
	"math"
	"testing"
)

// seriesAt evaluates a series expression with the variable bound to x.
func seriesAt(t *testing.T, s *Expr, x float64) float64 {
	t.Helper()
	v, err := s.EvalValue(NewContext(), SetVal("x", Float(x)))
	if err != nil {
		t.Fatalf("evaluating %q at %v: %v", s, x, err)
	}
	return v.Float64()
}

func TestMaclaurinSeries(t *testing.T) {
	cases := []struct {
		src  string
		n    int
		x    float64
		want float64
		tol  float64
	}{
		{"exp(x)", 4, 0.5, math.Exp(0.5), 1e-3},
		{"sin(x)", 5, 0.5, math.Sin(0.5), 1e-4},
		{"cos(x)", 6, 0.5, math.Cos(0.5), 1e-5},
		{"1/(1 - x)", 4, 0.2, 1 / 0.8, 1e-3},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatal(err)
			}
			s, err := MaclaurinSeries(e, "x", c.n)
			if err != nil {
				t.Fatal(err)
			}
			got := seriesAt(t, s, c.x)
			if math.Abs(got-c.want) > c.tol {
				t.Errorf("series of %q at %v = %v, want %v", c.src, c.x, got, c.want)
			}
		})
	}
}

func TestMaclaurinSeriesOddTermsVanish(t *testing.T) {
	e, err := ParseString("cos(x)")
	if err != nil {
		t.Fatal(err)
	}
	s, err := MaclaurinSeries(e, "x", 4)
	if err != nil {
		t.Fatal(err)
	}
	// cos is even, so the truncation is symmetric about zero.
	a, b := seriesAt(t, s, 0.3), seriesAt(t, s, -0.3)
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("series asymmetric: %v vs %v", a, b)
	}
}

func TestTaylorSeries(t *testing.T) {
	e, err := ParseString("ln(x)")
	if err != nil {
		t.Fatal(err)
	}
	s, err := TaylorSeries(e, "x", Int(1), 2)
	if err != nil {
		t.Fatal(err)
	}
	got := seriesAt(t, s, 1.1)
	if want := math.Log(1.1); math.Abs(got-want) > 1e-2 {
		t.Errorf("series of ln about 1 at 1.1 = %v, want %v", got, want)
	}
}

func TestTaylorSeriesDefaultVar(t *testing.T) {
	e, err := ParseString("x^2")
	if err != nil {
		t.Fatal(err)
	}
	s, err := TaylorSeries(e, "", Int(0), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := seriesAt(t, s, 4); got != 16 {
		t.Errorf("degree-3 series of x^2 at 4 = %v, want 16", got)
	}
}

func TestLimit(t *testing.T) {
	cases := []struct {
		src  string
		at   Value
		want float64
	}{
		{"x^2 + 1", Int(2), 5},
		{"sin(x)/x", Int(0), 1},
		{"(x^2 - 1)/(x - 1)", Int(1), 2},
		{"(1 - cos(x))/x^2", Int(0), 0.5},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatal(err)
			}
			v, err := Limit(e, "x", c.at)
			if err != nil {
				t.Fatalf("limit of %q: %v", c.src, err)
			}
			if math.Abs(v.Float64()-c.want) > 1e-6 {
				t.Errorf("limit of %q at %v = %v, want %v", c.src, c.at, v, c.want)
			}
		})
	}
}

func TestLimitDiverges(t *testing.T) {
	e, err := ParseString("1/x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Limit(e, "x", Int(0)); err == nil {
		t.Error("limit of 1/x at 0 did not error")
	}
}

func TestDefiniteIntegral(t *testing.T) {
	t.Run("closed form", func(t *testing.T) {
		e, err := ParseString("x^2")
		if err != nil {
			t.Fatal(err)
		}
		v, err := DefiniteIntegral(e, "x", Int(0), Int(3))
		if err != nil {
			t.Fatal(err)
		}
		if !v.EqualValue(Int(9)) {
			t.Errorf("integral of x^2 on [0,3] = %v, want 9", v)
		}
	})
	t.Run("trig", func(t *testing.T) {
		e, err := ParseString("sin(x)")
		if err != nil {
			t.Fatal(err)
		}
		v, err := DefiniteIntegral(e, "x", Int(0), Float(math.Pi))
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(v.Float64()-2) > 1e-9 {
			t.Errorf("integral of sin on [0,pi] = %v, want 2", v)
		}
	})
	t.Run("quadrature", func(t *testing.T) {
		e, err := ParseString("exp(-x^2)")
		if err != nil {
			t.Fatal(err)
		}
		v, err := DefiniteIntegral(e, "x", Int(0), Int(1))
		if err != nil {
			t.Fatal(err)
		}
		if want := 0.7468241328124271; math.Abs(v.Float64()-want) > 1e-8 {
			t.Errorf("integral of exp(-x^2) on [0,1] = %v, want %v", v, want)
		}
	})
}

func TestCollect(t *testing.T) {
	e, err := ParseString("(x + 1)*(x - 1)")
	if err != nil {
		t.Fatal(err)
	}
	p, ok := Collect(e, "x")
	if !ok {
		t.Fatal("did not collect")
	}
	if p.Kind() != NodePolynomial {
		t.Fatalf("collected kind = %v", p.Kind())
	}
	want := []int64{-1, 0, 1}
	coeffs := p.Coefficients()
	if len(coeffs) != len(want) {
		t.Fatalf("coefficients = %v", coeffs)
	}
	for i, w := range want {
		if !coeffs[i].EqualValue(Int(w)) {
			t.Errorf("coefficient %d = %v, want %v", i, coeffs[i], w)
		}
	}

	e, err = ParseString("sin(x)")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := Collect(e, "x"); ok || got != e {
		t.Error("sin(x) collected but should not")
	}
}
