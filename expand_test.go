package symexpr

import "testing"

func TestExpand(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"(x + 1)*(x + 2)", "x^2 + 3*x + 2"},
		{"(x + 1)^2", "x^2 + 2*x + 1"},
		{"x*(x + 3)", "x^2 + 3*x"},
		{"(x + 1)*(x - 1)", "x^2 - 1"},
		{"-(x + 1)", "-x - 1"},
		{"(x^2 + x)/2", "x^2/2 + x/2"},
		{"x + 1", "x + 1"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.src, err)
			}
			if got := e.Expand().String(); got != c.want {
				t.Errorf("Expand(%q) = %q, want %q", c.src, got, c.want)
			}
		})
	}
}

func TestExpandCoefficients(t *testing.T) {
	e, err := ParseString("(x + 1)^3")
	if err != nil {
		t.Fatal(err)
	}
	p, ok := PolyFromExpr(e.Expand(), "x")
	if !ok {
		t.Fatal("expanded cube is not polynomial")
	}
	want := []int64{1, 3, 3, 1}
	if p.Degree() != 3 {
		t.Fatalf("degree %d", p.Degree())
	}
	for i, c := range want {
		if !p.Coefficient(i).EqualValue(Int(c)) {
			t.Errorf("coefficient of x^%d is %v, want %d", i, p.Coefficient(i), c)
		}
	}
}

func TestExpandDoesNotRefold(t *testing.T) {
	// The perfect-square rule must not undo an expansion.
	e, err := ParseString("(a + b)^2")
	if err != nil {
		t.Fatal(err)
	}
	out := e.Expand()
	if out.Kind() == NodePow {
		t.Errorf("Expand refolded to %v", out)
	}
}
