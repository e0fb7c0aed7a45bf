package symexpr

import (
	"errors"
	"math"
	"testing"
)

func evalValue(t *testing.T, src string, opts ...ContextOption) Value {
	t.Helper()
	e, err := ParseString(src)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	v, err := e.EvalValue(NewContext(opts...))
	if err != nil {
		t.Fatalf("evaluating %q: %v", src, err)
	}
	return v
}

func TestEvalValue(t *testing.T) {
	cases := []struct {
		src  string
		want Value
		opts []ContextOption
	}{
		{"1 + 2*3", Int(7), nil},
		{"2^10", Int(1024), nil},
		{"7 % 3", Int(1), nil},
		{"50%", Float(0.5), nil},
		{"5!", Int(120), nil},
		{"-2^2", Int(-4), nil},
		{"2x + 1", Int(7), []ContextOption{SetVal("x", Int(3))}},
		{"sin(0)", Float(0), nil},
		{"sqrt(16)", Int(4), nil},
		{"sqrt(-4)", Imag(2), nil},
		{"abs(-3)", Int(3), nil},
		{"floor(2.7)", Int(2), nil},
		{"max(1, 2.5, 2)", Float(2.5), nil},
		{"gcd(12, 18)", Int(6), nil},
		{"lcm(4, 6)", Int(12), nil},
		{"5 C 2", Int(10), nil},
		{"5 P 2", Int(20), nil},
		{"nCr(5, 2)", Int(10), nil},
		{"atan2(0, 1)", Float(0), nil},
		{"true && false", Bool(false), nil},
		{"1 < 2", Bool(true), nil},
		{"2 >= 2", Bool(true), nil},
		{"1 == 1.0", Bool(true), nil},
		{"\"a\" + \"b\"", Str("ab"), nil},
		{"null ?? 3", Int(3), nil},
		{"2 ?? x", Int(2), nil},
		{"true || x", Bool(true), nil},
		{"false && x", Bool(false), nil},
		{"6 & 3", Int(2), nil},
		{"6 | 3", Int(7), nil},
		{"1 << 4", Int(16), nil},
		{"!0", Bool(true), nil},
		{"~0", Int(-1), nil},
		{"x > 0 ? x : -x", Int(5), []ContextOption{SetVal("x", Int(-5))}},
		{"[10, 20][1]", Int(20), nil},
		{"{a: 1, b: 2}.b", Int(2), nil},
		{"{a: 1}[\"a\"]", Int(1), nil},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := evalValue(t, c.src, c.opts...)
			if !got.EqualValue(c.want) || got.Kind() != c.want.Kind() {
				t.Errorf("%q = %v (%v), want %v (%v)", c.src, got, got.Kind(), c.want, c.want.Kind())
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []string{
		"1/0",
		"0^0",
		"(-1)!",
		"1 << 64",
		"1.5 & 2",
		"-true",
		"i < 2i",
		"[1, 2][5]",
		"[1, 2].x",
	}
	ctx := NewContext(SetVal("i", Imag(1)))
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			e, err := ParseString(src)
			if err != nil {
				t.Fatalf("parsing %q: %v", src, err)
			}
			if v, err := e.EvalValue(ctx); err == nil {
				t.Errorf("%q evaluated to %v", src, v)
			}
			// Eval reports these rather than going symbolic.
			if r, err := e.Eval(ctx); err == nil {
				t.Errorf("%q Eval returned %v", src, r)
			}
		})
	}

	_, err := Var("nope").EvalValue(NewContext())
	var ne *NameError
	if !errors.As(err, &ne) || ne.Name != "nope" {
		t.Errorf("unbound variable: want NameError, got %v", err)
	}

	// Mutually recursive bindings terminate with an error.
	ctx = NewContext(SetVar("a", Var("b")), SetVar("b", Var("a")))
	if v, err := Var("a").EvalValue(ctx); err == nil {
		t.Errorf("cyclic binding evaluated to %v", v)
	}
}

func TestEvalPartial(t *testing.T) {
	e, err := ParseString("x + y + x")
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Eval(NewContext(), SetVal("x", Int(1)))
	if err != nil {
		t.Fatal(err)
	}
	// y remains free, so the result is symbolic with x substituted.
	want := Add(Var("y"), IntLit(2))
	if !got.Equal(want) {
		t.Errorf("partial evaluation gave %v, want %v", got, want)
	}

	got, err = e.Eval(NewContext(), SetVal("x", Int(1)), SetVal("y", Int(2)))
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsLiteral() || !got.Value().EqualValue(Int(4)) {
		t.Errorf("full evaluation gave %v", got)
	}
}

func TestEvalOptionsDoNotStick(t *testing.T) {
	ctx := NewContext()
	e := Var("x")
	if _, err := e.EvalValue(ctx, SetVal("x", Int(1))); err != nil {
		t.Fatal(err)
	}
	if _, err := e.EvalValue(ctx); err == nil {
		t.Error("per-call binding leaked into the context")
	}
}

func TestEvalPrecision(t *testing.T) {
	v := evalValue(t, "pi", Prec(128))
	if v.Kind() != KindPrecise {
		t.Fatalf("pi at 128 bits has kind %v", v.Kind())
	}
	if math.Abs(v.Float64()-math.Pi) > 1e-15 {
		t.Errorf("pi = %v", v)
	}
	v = evalValue(t, "exp(ln(2))", Prec(96))
	if math.Abs(v.Float64()-2) > 1e-12 {
		t.Errorf("exp(ln 2) = %v", v)
	}
}

func TestContextLookup(t *testing.T) {
	ctx := NewContext(SetVar("x", IntLit(3)))
	e, ok := ctx.Lookup("x")
	if !ok || !e.Equal(IntLit(3)) {
		t.Errorf("Lookup(x) = %v, %v", e, ok)
	}
	if _, ok := ctx.Lookup("y"); ok {
		t.Error("Lookup(y) found a binding")
	}
	if ctx.Func("sin") == nil {
		t.Error("default function table is missing sin")
	}
}
