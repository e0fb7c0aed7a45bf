package symexpr

import (
	"math"
	"math/big"
	"math/cmplx"

	"github.com/zephyrtronium/bigfloat"
)

// A Function describes a named function known to the parser and evaluator.
// Eval computes it on fully numeric arguments. Deriv and Antideriv, when
// non-nil, give the derivative and antiderivative with respect to the sole
// argument; the chain rule is applied by the caller.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic

	Eval func(args []Value, prec uint) (Value, error)

	// Deriv maps f(u) to f'(u) in terms of u. Nil if unknown.
	Deriv func(u *Expr) *Expr
	// Antideriv maps f(u) to F(u) with F' = f. Nil if none in closed form.
	Antideriv func(u *Expr) *Expr
}

// CanCall reports whether the function accepts n arguments.
func (f *Function) CanCall(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs < 0 || n <= f.MaxArgs
}

// real1 adapts a float64 function, with an optional complex continuation for
// arguments outside the real domain.
func real1(name string, fn func(float64) float64, cfn func(complex128) complex128) func([]Value, uint) (Value, error) {
	return func(args []Value, prec uint) (Value, error) {
		v := args[0]
		switch v.Kind() {
		case KindImaginary, KindComplex:
			if cfn == nil {
				return Value{}, &DomainError{X: v, Func: name}
			}
			return narrow(cfn(v.Complex128()), KindComplex), nil
		}
		x := v.Float64()
		r := fn(x)
		if math.IsNaN(r) && !math.IsNaN(x) {
			if cfn == nil {
				return Value{}, &DomainError{X: v, Func: name}
			}
			return narrow(cfn(complex(x, 0)), KindComplex), nil
		}
		if v.Kind() == KindPrecise {
			return Precise(big.NewFloat(r).SetPrec(prec)), nil
		}
		return Float(r), nil
	}
}

// big1 adapts a function with an arbitrary-precision implementation for
// Precise arguments and a float64 fallback otherwise. bfn follows the
// bigfloat convention of computing into its first argument.
func big1(name string, fn func(float64) float64, bfn func(z, x *big.Float) *big.Float, cfn func(complex128) complex128) func([]Value, uint) (Value, error) {
	flt := real1(name, fn, cfn)
	return func(args []Value, prec uint) (Value, error) {
		v := args[0]
		if v.Kind() == KindPrecise {
			x := v.BigFloat(prec)
			if x.Sign() <= 0 && name == "ln" {
				return flt(args, prec)
			}
			z := bfn(new(big.Float).SetPrec(prec), x)
			return Precise(z), nil
		}
		return flt(args, prec)
	}
}

func evalSqrt(args []Value, prec uint) (Value, error) {
	v := args[0]
	switch v.Kind() {
	case KindImaginary, KindComplex:
		return narrow(cmplx.Sqrt(v.Complex128()), KindComplex), nil
	case KindPrecise:
		x := v.BigFloat(prec)
		if x.Sign() >= 0 {
			return Precise(new(big.Float).SetPrec(prec).Sqrt(x)), nil
		}
		f, _ := x.Float64()
		return narrow(cmplx.Sqrt(complex(f, 0)), KindComplex), nil
	}
	x := v.Float64()
	if x < 0 {
		return narrow(cmplx.Sqrt(complex(x, 0)), KindComplex), nil
	}
	r := math.Sqrt(x)
	if v.Kind() == KindInteger && r == math.Trunc(r) {
		return Int(int64(r)), nil
	}
	return Float(r), nil
}

func evalAbs(args []Value, prec uint) (Value, error) {
	v := args[0]
	switch v.Kind() {
	case KindInteger:
		n := v.Int64()
		if n < 0 {
			n = -n
		}
		return Int(n), nil
	case KindImaginary, KindComplex:
		return Float(cmplx.Abs(v.Complex128())), nil
	case KindPrecise:
		return Precise(new(big.Float).SetPrec(prec).Abs(v.BigFloat(prec))), nil
	}
	return Float(math.Abs(v.Float64())), nil
}

func evalRound(name string, fn func(float64) float64) func([]Value, uint) (Value, error) {
	return func(args []Value, prec uint) (Value, error) {
		v := args[0]
		switch v.Kind() {
		case KindInteger:
			return v, nil
		case KindImaginary, KindComplex:
			return Value{}, &DomainError{X: v, Func: name}
		}
		return Int(int64(fn(v.Float64()))), nil
	}
}

func evalMinMax(name string, max bool) func([]Value, uint) (Value, error) {
	return func(args []Value, prec uint) (Value, error) {
		best := args[0]
		for _, v := range args[1:] {
			c, err := best.Cmp(v)
			if err != nil {
				return Value{}, &DomainError{X: v, Func: name}
			}
			if (max && c < 0) || (!max && c > 0) {
				best = v
			}
		}
		return best, nil
	}
}

func gcd64(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func evalGCD(args []Value, prec uint) (Value, error) {
	g := int64(0)
	for _, v := range args {
		if !v.IsInteger() {
			return Value{}, &DomainError{X: v, Func: "gcd"}
		}
		g = gcd64(g, v.Int64())
	}
	return Int(g), nil
}

func evalLCM(args []Value, prec uint) (Value, error) {
	l := int64(1)
	for _, v := range args {
		if !v.IsInteger() {
			return Value{}, &DomainError{X: v, Func: "lcm"}
		}
		n := v.Int64()
		if n == 0 {
			return Int(0), nil
		}
		l = l / gcd64(l, n) * n
		if l < 0 {
			l = -l
		}
	}
	return Int(l), nil
}

// perm and comb back both the nPr/nCr functions and the P and C operators.

func perm(n, r Value) (Value, error) {
	if !n.IsInteger() || !r.IsInteger() || n.IsNegative() || r.IsNegative() {
		return Value{}, &DomainError{X: n, Func: "P"}
	}
	ni, ri := n.Int64(), r.Int64()
	if ri > ni {
		return Int(0), nil
	}
	out := int64(1)
	for i := ni - ri + 1; i <= ni; i++ {
		out *= i
	}
	return Int(out), nil
}

func comb(n, r Value) (Value, error) {
	if !n.IsInteger() || !r.IsInteger() || n.IsNegative() || r.IsNegative() {
		return Value{}, &DomainError{X: n, Func: "C"}
	}
	ni, ri := n.Int64(), r.Int64()
	if ri > ni {
		return Int(0), nil
	}
	if ri > ni-ri {
		ri = ni - ri
	}
	out := int64(1)
	for i := int64(1); i <= ri; i++ {
		out = out * (ni - ri + i) / i
	}
	return Int(out), nil
}

func eval2(fn func(a, b Value) (Value, error)) func([]Value, uint) (Value, error) {
	return func(args []Value, prec uint) (Value, error) {
		return fn(args[0], args[1])
	}
}

// defaultFuncs is the function table used when no ParseOption or
// ContextOption overrides it.
var defaultFuncs = map[string]*Function{
	"pi": {Name: "pi", MinArgs: 0, MaxArgs: 0,
		Eval: func(args []Value, prec uint) (Value, error) {
			if prec > 53 {
				return Precise(bigfloat.Pi(new(big.Float).SetPrec(prec))), nil
			}
			return Float(math.Pi), nil
		},
	},
	"e": {Name: "e", MinArgs: 0, MaxArgs: 0,
		Eval: func(args []Value, prec uint) (Value, error) {
			if prec > 53 {
				one := big.NewFloat(1).SetPrec(prec)
				return Precise(bigfloat.Exp(new(big.Float).SetPrec(prec), one)), nil
			}
			return Float(math.E), nil
		},
	},

	"sin": {Name: "sin", MinArgs: 1, MaxArgs: 1,
		Eval:      real1("sin", math.Sin, cmplx.Sin),
		Deriv:     func(u *Expr) *Expr { return Call("cos", u) },
		Antideriv: func(u *Expr) *Expr { return Neg(Call("cos", u)) },
	},
	"cos": {Name: "cos", MinArgs: 1, MaxArgs: 1,
		Eval:      real1("cos", math.Cos, cmplx.Cos),
		Deriv:     func(u *Expr) *Expr { return Neg(Call("sin", u)) },
		Antideriv: func(u *Expr) *Expr { return Call("sin", u) },
	},
	"tan": {Name: "tan", MinArgs: 1, MaxArgs: 1,
		Eval:      real1("tan", math.Tan, cmplx.Tan),
		Deriv:     func(u *Expr) *Expr { return Div(IntLit(1), Pow(Call("cos", u), IntLit(2))) },
		Antideriv: func(u *Expr) *Expr { return Neg(Call("ln", Call("abs", Call("cos", u)))) },
	},
	"asin": {Name: "asin", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("asin", math.Asin, cmplx.Asin),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Call("sqrt", Sub(IntLit(1), Pow(u, IntLit(2))))) },
	},
	"acos": {Name: "acos", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("acos", math.Acos, cmplx.Acos),
		Deriv: func(u *Expr) *Expr { return Neg(Div(IntLit(1), Call("sqrt", Sub(IntLit(1), Pow(u, IntLit(2)))))) },
	},
	"atan": {Name: "atan", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("atan", math.Atan, cmplx.Atan),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Add(IntLit(1), Pow(u, IntLit(2)))) },
	},
	"sinh": {Name: "sinh", MinArgs: 1, MaxArgs: 1,
		Eval:      real1("sinh", math.Sinh, cmplx.Sinh),
		Deriv:     func(u *Expr) *Expr { return Call("cosh", u) },
		Antideriv: func(u *Expr) *Expr { return Call("cosh", u) },
	},
	"cosh": {Name: "cosh", MinArgs: 1, MaxArgs: 1,
		Eval:      real1("cosh", math.Cosh, cmplx.Cosh),
		Deriv:     func(u *Expr) *Expr { return Call("sinh", u) },
		Antideriv: func(u *Expr) *Expr { return Call("sinh", u) },
	},
	"tanh": {Name: "tanh", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("tanh", math.Tanh, cmplx.Tanh),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Pow(Call("cosh", u), IntLit(2))) },
	},
	"asinh": {Name: "asinh", MinArgs: 1, MaxArgs: 1,
		Eval: real1("asinh", math.Asinh, cmplx.Asinh),
	},
	"acosh": {Name: "acosh", MinArgs: 1, MaxArgs: 1,
		Eval: real1("acosh", math.Acosh, cmplx.Acosh),
	},
	"atanh": {Name: "atanh", MinArgs: 1, MaxArgs: 1,
		Eval: real1("atanh", math.Atanh, cmplx.Atanh),
	},

	"exp": {Name: "exp", MinArgs: 1, MaxArgs: 1,
		Eval:      big1("exp", math.Exp, bigfloat.Exp, cmplx.Exp),
		Deriv:     func(u *Expr) *Expr { return Call("exp", u) },
		Antideriv: func(u *Expr) *Expr { return Call("exp", u) },
	},
	"ln": {Name: "ln", MinArgs: 1, MaxArgs: 1,
		Eval:      big1("ln", math.Log, bigfloat.Log, cmplx.Log),
		Deriv:     func(u *Expr) *Expr { return Div(IntLit(1), u) },
		Antideriv: func(u *Expr) *Expr { return Sub(Mul(u, Call("ln", u)), u) },
	},
	"log": {Name: "log", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("log", math.Log10, nil),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Mul(u, Call("ln", IntLit(10)))) },
	},
	"log2": {Name: "log2", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("log2", math.Log2, nil),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Mul(u, Call("ln", IntLit(2)))) },
	},
	"log10": {Name: "log10", MinArgs: 1, MaxArgs: 1,
		Eval:  real1("log10", math.Log10, nil),
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Mul(u, Call("ln", IntLit(10)))) },
	},

	"sqrt": {Name: "sqrt", MinArgs: 1, MaxArgs: 1,
		Eval:  evalSqrt,
		Deriv: func(u *Expr) *Expr { return Div(IntLit(1), Mul(IntLit(2), Call("sqrt", u))) },
	},
	"cbrt": {Name: "cbrt", MinArgs: 1, MaxArgs: 1,
		Eval: real1("cbrt", math.Cbrt, nil),
	},
	"abs": {Name: "abs", MinArgs: 1, MaxArgs: 1, Eval: evalAbs},
	"sign": {Name: "sign", MinArgs: 1, MaxArgs: 1,
		Eval: func(args []Value, prec uint) (Value, error) {
			v := args[0]
			switch v.Kind() {
			case KindImaginary, KindComplex:
				return Value{}, &DomainError{X: v, Func: "sign"}
			}
			switch {
			case v.IsZero():
				return Int(0), nil
			case v.IsNegative():
				return Int(-1), nil
			}
			return Int(1), nil
		},
	},
	"floor": {Name: "floor", MinArgs: 1, MaxArgs: 1, Eval: evalRound("floor", math.Floor)},
	"ceil":  {Name: "ceil", MinArgs: 1, MaxArgs: 1, Eval: evalRound("ceil", math.Ceil)},
	"round": {Name: "round", MinArgs: 1, MaxArgs: 1, Eval: evalRound("round", math.Round)},

	"min": {Name: "min", MinArgs: 1, MaxArgs: -1, Eval: evalMinMax("min", false)},
	"max": {Name: "max", MinArgs: 1, MaxArgs: -1, Eval: evalMinMax("max", true)},
	"gcd": {Name: "gcd", MinArgs: 1, MaxArgs: -1, Eval: evalGCD},
	"lcm": {Name: "lcm", MinArgs: 1, MaxArgs: -1, Eval: evalLCM},

	"atan2": {Name: "atan2", MinArgs: 2, MaxArgs: 2,
		Eval: eval2(func(a, b Value) (Value, error) {
			return Float(math.Atan2(a.Float64(), b.Float64())), nil
		}),
	},
	"hypot": {Name: "hypot", MinArgs: 2, MaxArgs: 2,
		Eval: eval2(func(a, b Value) (Value, error) {
			return Float(math.Hypot(a.Float64(), b.Float64())), nil
		}),
	},
	"nPr": {Name: "nPr", MinArgs: 2, MaxArgs: 2, Eval: eval2(perm)},
	"nCr": {Name: "nCr", MinArgs: 2, MaxArgs: 2, Eval: eval2(comb)},

	"factorial": {Name: "factorial", MinArgs: 1, MaxArgs: 1,
		Eval: func(args []Value, prec uint) (Value, error) { return args[0].Factorial() },
	},
}

// DefaultFuncs returns a copy of the built-in function table, suitable for
// extending and passing to Funcs or WithFuncs.
func DefaultFuncs() map[string]*Function {
	out := make(map[string]*Function, len(defaultFuncs))
	for k, v := range defaultFuncs {
		out[k] = v
	}
	return out
}
