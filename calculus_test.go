package symexpr

import (
	"math"
	"testing"
)

func TestDiff(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"7", "0"},
		{"y", "0"},
		{"x", "1"},
		{"x^2", "2*x"},
		{"x^3", "3*x^2"},
		{"x + x^2", "2*x + 1"},
		{"3*x", "3"},
		{"sin(x)", "cos(x)"},
		{"exp(x)", "exp(x)"},
		{"ln(x)", "1/x"},
		{"pi", "0"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.src, err)
			}
			d, err := e.Diff("x")
			if err != nil {
				t.Fatalf("differentiating %q: %v", c.src, err)
			}
			if got := d.String(); got != c.want {
				t.Errorf("d/dx %q = %q, want %q", c.src, got, c.want)
			}
		})
	}
}

func TestDiffCube(t *testing.T) {
	e, err := ParseString("x^3")
	if err != nil {
		t.Fatal(err)
	}
	d, err := e.Diff("")
	if err != nil {
		t.Fatal(err)
	}
	v, err := d.EvalValue(NewContext(SetVal("x", Int(2))))
	if err != nil {
		t.Fatal(err)
	}
	if !v.EqualValue(Int(12)) {
		t.Errorf("d/dx x^3 at 2 = %v, want 12", v)
	}
}

// atX evaluates e with x bound to the given point.
func atX(t *testing.T, e *Expr, x float64) float64 {
	t.Helper()
	v, err := e.EvalValue(NewContext(SetVal("x", Float(x))))
	if err != nil {
		t.Fatalf("evaluating %v at %v: %v", e, x, err)
	}
	return v.Float64()
}

func TestDiffNumeric(t *testing.T) {
	// Analytic derivatives against a central finite difference.
	srcs := []string{
		"x*sin(x)",
		"sin(x^2)",
		"cos(x)/x",
		"x^x",
		"2^x",
		"tan(x)",
		"sqrt(x)",
		"x*exp(x) + ln(x)",
		"sinh(x) + atan(x)",
	}
	const at, h = 1.3, 1e-6
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			e, err := ParseString(src)
			if err != nil {
				t.Fatalf("parsing %q: %v", src, err)
			}
			d, err := e.Diff("x")
			if err != nil {
				t.Fatalf("differentiating %q: %v", src, err)
			}
			got := atX(t, d, at)
			want := (atX(t, e, at+h) - atX(t, e, at-h)) / (2 * h)
			if math.Abs(got-want) > 1e-4*(1+math.Abs(want)) {
				t.Errorf("d/dx %q at %v = %v, finite difference %v", src, at, got, want)
			}
		})
	}
}

func TestDiffUnsupported(t *testing.T) {
	for _, src := range []string{`"a"`, "[1, 2]", "a < b", "n!"} {
		e, err := ParseString(src)
		if err != nil {
			t.Fatalf("parsing %q: %v", src, err)
		}
		if d, err := e.Diff("x"); err == nil {
			t.Errorf("differentiating %q gave %v", src, d)
		}
	}
}

func TestIntegrate(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"3", "3*x"},
		{"x", "x^2/2"},
		{"sin(x)", "-cos(x)"},
		{"1/x", "ln(x)"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.src, err)
			}
			if got := e.Integrate("x").String(); got != c.want {
				t.Errorf("integral of %q = %q, want %q", c.src, got, c.want)
			}
		})
	}
}

func TestIntegrateDiffRoundTrip(t *testing.T) {
	// Differentiating an antiderivative recovers the integrand.
	srcs := []string{
		"x",
		"x^2",
		"x^3 - 2*x + 5",
		"sin(x)",
		"exp(2x)",
		"cos(3x + 1)",
		"x*sin(x)",
		"x*exp(x)",
		"1/x",
		"1/(x^2 - 1)",
		"(x^2 + 1)/x",
	}
	const at = 2.5
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			e, err := ParseString(src)
			if err != nil {
				t.Fatalf("parsing %q: %v", src, err)
			}
			F := e.Integrate("x")
			if F.Equal(e) {
				t.Fatalf("no antiderivative found for %q", src)
			}
			d, err := F.Diff("x")
			if err != nil {
				t.Fatalf("differentiating %v: %v", F, err)
			}
			got := atX(t, d, at)
			want := atX(t, e, at)
			if math.Abs(got-want) > 1e-9*(1+math.Abs(want)) {
				t.Errorf("d/dx integral of %q at %v = %v, want %v", src, at, got, want)
			}
		})
	}
}

func TestIntegrateUnsupported(t *testing.T) {
	// Shapes with no rule come back unchanged.
	for _, src := range []string{"sin(sin(x))", "ln(x)*sin(x)", "exp(x^2)"} {
		e, err := ParseString(src)
		if err != nil {
			t.Fatalf("parsing %q: %v", src, err)
		}
		if got := e.Integrate("x"); !got.Equal(e) {
			t.Errorf("integral of %q = %v, want the input back", src, got)
		}
	}
}

func TestIntegrateDefaultVar(t *testing.T) {
	e, err := ParseString("x")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Integrate(""); got.String() != "x^2/2" {
		t.Errorf("integral with default variable = %v", got)
	}
}
