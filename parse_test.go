package symexpr

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ungroup strips explicit grouping so that trees parsed from differently
// parenthesized sources can be compared for shape.
func ungroup(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	if e.kind == NodeGroup {
		return ungroup(e.left)
	}
	n := *e
	n.left = ungroup(e.left)
	n.right = ungroup(e.right)
	n.third = ungroup(e.third)
	if e.list != nil {
		n.list = make([]*Expr, len(e.list))
		for i, a := range e.list {
			n.list[i] = ungroup(a)
		}
	}
	return &n
}

func TestParseTrees(t *testing.T) {
	// Each case gives two sources which must parse to the same shape, the
	// second usually with the grouping spelled out.
	cases := []struct {
		name string
		a, b string
	}{
		{"add mul", "a+b*c", "a+(b*c)"},
		{"mul pow", "a*b^c", "a*(b^c)"},
		{"pow right", "a^b^c", "a^(b^c)"},
		{"sub left", "a-b-c", "(a-b)-c"},
		{"div left", "a/b/c", "(a/b)/c"},
		{"neg pow", "-x^2", "-(x^2)"},
		{"neg add", "-x+y", "(-x)+y"},
		{"implicit mul", "2x", "2*x"},
		{"implicit chain", "2x y", "2*(x*y)"},
		{"coef paren", "2(x+1)", "2*(x+1)"},
		{"div implicit", "1/2x", "1/(2*x)"},
		{"func implicit", "sin x", "sin(x)"},
		{"func implicit term", "sin 2x", "sin(2*x)"},
		{"coef func", "3 sin x", "3*sin(x)"},
		{"or keyword", "a or b", "a || b"},
		{"and keyword", "a and b", "a && b"},
		{"cmp eq", "a < b == c", "(a < b) == c"},
		{"shift add", "a << b + c", "a << (b + c)"},
		{"choose mul", "5 C 2 * 3", "(5 C 2) * 3"},
		{"ternary right", "a ? b : c ? d : e", "a ? b : (c ? d : e)"},
		{"coalesce or", "a ?? b || c", "a ?? (b || c)"},
		{"member index", "m.a[k]", "(m.a)[k]"},
		{"factorial pow", "n!^2", "(n!)^2"},
		{"percent add", "50% + 1", "(50%) + 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.a)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.a, err)
			}
			b, err := ParseString(c.b)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.b, err)
			}
			if !ungroup(a).Equal(ungroup(b)) {
				t.Errorf("%q parsed to %v, want shape of %q = %v", c.a, a, c.b, b)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		src  string
		want *Expr
	}{
		{"1+2*3", Add(IntLit(1), Mul(IntLit(2), IntLit(3)))},
		{"(x+1)", Group(Add(Var("x"), IntLit(1)))},
		{"-x^2", Neg(Pow(Var("x"), IntLit(2)))},
		{"5 % 2", Mod(IntLit(5), IntLit(2))},
		{"50%", Unary("%", IntLit(50), false)},
		{"n!", Unary("!", Var("n"), false)},
		{"2.5e2", FloatLit(250)},
		{"0x1f", IntLit(31)},
		{"true ? 1 : 0", Cond(Lit(Bool(true)), IntLit(1), IntLit(0))},
		{"x ?? 1", Rel("??", Var("x"), IntLit(1))},
		{`"ab" == 'ab'`, Rel("==", Lit(Str("ab")), Lit(Str("ab")))},
		{"[1, 2]", List(IntLit(1), IntLit(2))},
		{"{a: 1}", MapLit([]string{"a"}, []*Expr{IntLit(1)})},
		{"m.field", Member(Var("m"), "field")},
		{"v[0]", Index(Var("v"), IntLit(0))},
		{"max(1, 2, 3)", Call("max", IntLit(1), IntLit(2), IntLit(3))},
		{"pi", Call("pi")},
		{"atan2(y, x)", Call("atan2", Var("y"), Var("x"))},
		{"null", Lit(Null())},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.src, err)
			}
			if !got.Equal(c.want) {
				t.Errorf("parsing %q: want %v, got %v", c.src, c.want, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src  string
		err  error
		opts []ParseOption
	}{
		{"", &EmptyExpressionError{}, nil},
		{"1+", &EmptyExpressionError{}, nil},
		{"()", &EmptyExpressionError{}, nil},
		{"(1", &BracketError{}, nil},
		{"(1]", &BracketError{}, nil},
		{"1)", &TrailingError{}, nil},
		{"1,2", &TrailingError{}, nil},
		{"sin()", &CallError{}, nil},
		{"atan2(1)", &CallError{}, nil},
		{"a ? b", &OperatorError{}, nil},
		{"x.+", &OperatorError{}, nil},
		{"*x", &OperatorError{}, nil},
		{"1..2", &LexError{}, nil},
		{"{1: 2}", &LexError{}, nil},
		{"{a 1}", &SeparatorError{}, nil},
		{strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20), &DepthError{}, []ParseOption{MaxDepth(10)}},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := ParseString(c.src, c.opts...)
			if err == nil {
				t.Fatalf("parsing %q: expected error", c.src)
			}
			var ie InputError
			if !errors.As(err, &ie) {
				t.Errorf("parsing %q: error %v is not an InputError", c.src, err)
			} else if ie.Pos() <= 0 {
				t.Errorf("parsing %q: error %v has no position", c.src, err)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Errorf("parsing %q: want %T, got %T (%v)", c.src, c.err, err, err)
			}
		})
	}
}

func TestParseEquation(t *testing.T) {
	q, err := ParseEquationString("x = 3")
	if err != nil {
		t.Fatal(err)
	}
	if !q.LHS.Equal(Var("x")) || !q.RHS.Equal(IntLit(3)) || q.Implicit {
		t.Errorf("x = 3 parsed as %v (implicit %v)", q, q.Implicit)
	}

	q, err = ParseEquationString("x + 1")
	if err != nil {
		t.Fatal(err)
	}
	if !q.RHS.Equal(IntLit(0)) || !q.Implicit {
		t.Errorf("bare expression parsed as %v (implicit %v)", q, q.Implicit)
	}
	if !q.Residual().Equal(Sub(Add(Var("x"), IntLit(1)), IntLit(0))) {
		t.Errorf("residual is %v", q.Residual())
	}

	if _, err := ParseEquationString("x = 3 = 4"); err == nil {
		t.Error("x = 3 = 4 parsed")
	}
}

func TestParseCustomFuncs(t *testing.T) {
	fns := map[string]*Function{
		"f": {Name: "f", MinArgs: 1, MaxArgs: 1},
	}
	got, err := ParseString("f x + sin x", Funcs(fns))
	if err != nil {
		t.Fatal(err)
	}
	// With sin absent from the table, sin x is adjacency multiplication.
	want := Add(Call("f", Var("x")), Mul(Var("sin"), Var("x")))
	if !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	srcs := []string{
		"1 + 2*3",
		"-x^2",
		"a^b^c",
		"(x + 1)*(x - 1)",
		"sin(x)^2 + cos(x)^2",
		"x ?? 1",
		"a ? b : c",
		"a < b == c",
		"[1, x]",
		"{a: 1, b: x + 1}",
		"m.a[k]",
		"n!",
		"50%",
		"5 % 2",
		"x/2/y",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			e, err := ParseString(src)
			if err != nil {
				t.Fatalf("parsing %q: %v", src, err)
			}
			s := e.String()
			back, err := ParseString(s)
			if err != nil {
				t.Fatalf("reparsing %q (from %q): %v", s, src, err)
			}
			if !ungroup(back).Equal(ungroup(e)) {
				t.Errorf("%q rendered as %q which parses differently: %v", src, s, back)
			}
		})
	}
}
