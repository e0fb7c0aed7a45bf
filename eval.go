package symexpr

import (
	"strconv"
)

// DomainError indicates an operation applied to a value outside its domain,
// like division by zero or the factorial of a negative number.
type DomainError struct {
	// X is the offending operand.
	X Value
	// Func is the operator or function that rejected it.
	Func string
}

func (err *DomainError) Error() string {
	return "cannot evaluate " + err.Func + " of " + err.X.String()
}

// NameError indicates a variable or function with no binding.
type NameError struct {
	// Name is the unbound name.
	Name string
	// Func is whether the name was used as a function.
	Func bool
}

func (err *NameError) Error() string {
	if err.Func {
		return "no function named " + err.Name
	}
	return "no value bound to " + err.Name
}

// UnsupportedError indicates an operation that has no meaning for its
// operands, like differentiating a string or evaluating a bare list.
type UnsupportedError struct {
	// Op is the operation that was attempted.
	Op string
	// On describes the operand.
	On string
}

func (err *UnsupportedError) Error() string {
	return "cannot " + err.Op + " " + err.On
}

// EvalError wraps an error with the subexpression that caused it.
type EvalError struct {
	Expr *Expr
	Err  error
}

func (err *EvalError) Error() string {
	return "evaluating " + err.Expr.String() + ": " + err.Err.Error()
}

func (err *EvalError) Unwrap() error { return err.Err }

// Context contains the options and bindings for evaluating expressions. The
// zero value is not useful; use NewContext.
type Context struct {
	vars  map[string]*Expr
	funcs map[string]*Function
	prec  uint
}

// ContextOption is an option for evaluation.
type ContextOption func(*Context)

// Prec sets the precision, in bits, of arbitrary-precision results. Settings
// above 53 also cause pi and e to evaluate at full precision.
func Prec(prec uint) ContextOption {
	return func(ctx *Context) { ctx.prec = prec }
}

// SetVar binds a variable to an expression.
func SetVar(name string, e *Expr) ContextOption {
	return func(ctx *Context) { ctx.vars[name] = e }
}

// SetVal binds a variable to a value.
func SetVal(name string, v Value) ContextOption {
	return func(ctx *Context) { ctx.vars[name] = Lit(v) }
}

// SetVars binds each variable in m.
func SetVars(m map[string]*Expr) ContextOption {
	return func(ctx *Context) {
		for k, v := range m {
			ctx.vars[k] = v
		}
	}
}

// WithFuncs sets the function table used for calls. The default is the
// package's built-in table.
func WithFuncs(fns map[string]*Function) ContextOption {
	return func(ctx *Context) { ctx.funcs = fns }
}

// NewContext creates an evaluation context.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{
		vars:  map[string]*Expr{},
		funcs: defaultFuncs,
		prec:  DefaultPrec,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Lookup returns the binding of a variable.
func (ctx *Context) Lookup(name string) (*Expr, bool) {
	e, ok := ctx.vars[name]
	return e, ok
}

// Func returns the named function, or nil.
func (ctx *Context) Func(name string) *Function { return ctx.funcs[name] }

// Prec returns the context's precision in bits.
func (ctx *Context) Prec() uint { return ctx.prec }

// Eval evaluates e under ctx. If every variable and call reduces to a value,
// the result is a single Literal; otherwise the result is the simplified
// expression with all bound variables substituted. Errors other than missing
// bindings, like division by zero, are reported rather than left symbolic.
func (e *Expr) Eval(ctx *Context, opts ...ContextOption) (*Expr, error) {
	if len(opts) > 0 {
		c := *ctx
		c.vars = make(map[string]*Expr, len(ctx.vars))
		for k, v := range ctx.vars {
			c.vars[k] = v
		}
		for _, opt := range opts {
			opt(&c)
		}
		ctx = &c
	}
	b := e
	for name, repl := range ctx.vars {
		b = b.SubstituteVar(name, repl)
	}
	v, err := b.evalValue(ctx, 0)
	switch err.(type) {
	case nil:
		return Lit(v), nil
	case *NameError, *UnsupportedError:
		return b.Simplify(), nil
	}
	return nil, err
}

// EvalValue evaluates e to a single value under ctx. Unbound variables are
// an error.
func (e *Expr) EvalValue(ctx *Context, opts ...ContextOption) (Value, error) {
	if len(opts) > 0 {
		c := *ctx
		c.vars = make(map[string]*Expr, len(ctx.vars))
		for k, v := range ctx.vars {
			c.vars[k] = v
		}
		for _, opt := range opts {
			opt(&c)
		}
		ctx = &c
	}
	return e.evalValue(ctx, 0)
}

// evalValue computes e numerically. depth bounds recursion through variable
// bindings, which may refer to each other.
func (e *Expr) evalValue(ctx *Context, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Value{}, &EvalError{Expr: e, Err: &UnsupportedError{Op: "evaluate", On: "cyclic binding"}}
	}
	switch e.kind {
	case NodeLiteral:
		return e.val, nil
	case NodeVariable:
		b, ok := ctx.vars[e.name]
		if !ok {
			return Value{}, &NameError{Name: e.name}
		}
		return b.evalValue(ctx, depth+1)
	case NodeAdd, NodeSubtract, NodeMultiply, NodeDivide, NodeModulo, NodePow:
		l, err := e.left.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		r, err := e.right.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		var v Value
		switch e.kind {
		case NodeAdd:
			v, err = l.Add(r)
		case NodeSubtract:
			v, err = l.Sub(r)
		case NodeMultiply:
			v, err = l.Mul(r)
		case NodeDivide:
			v, err = l.Div(r)
		case NodeModulo:
			v, err = l.Mod(r)
		case NodePow:
			v, err = l.Pow(r)
		}
		if err != nil {
			return Value{}, &EvalError{Expr: e, Err: err}
		}
		return v, nil
	case NodeUnary:
		return e.evalUnary(ctx, depth)
	case NodeRelational:
		return e.evalRel(ctx, depth)
	case NodeCall:
		f := ctx.funcs[e.name]
		if f == nil {
			return Value{}, &NameError{Name: e.name, Func: true}
		}
		args := make([]Value, len(e.list))
		for i, a := range e.list {
			v, err := a.evalValue(ctx, depth+1)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		if !f.CanCall(len(args)) {
			return Value{}, &EvalError{Expr: e, Err: &UnsupportedError{Op: "call", On: f.Name + " with " + strconv.Itoa(len(args)) + " arguments"}}
		}
		v, err := f.Eval(args, ctx.prec)
		if err != nil {
			return Value{}, &EvalError{Expr: e, Err: err}
		}
		return v, nil
	case NodeGroup:
		return e.left.evalValue(ctx, depth+1)
	case NodeConditional:
		t, err := e.left.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		if t.Bool() {
			return e.right.evalValue(ctx, depth+1)
		}
		return e.third.evalValue(ctx, depth+1)
	case NodeMember:
		obj := e.left.reduce(ctx)
		if obj.kind == NodeMap {
			for i, k := range obj.keys {
				if k == e.name {
					return obj.list[i].evalValue(ctx, depth+1)
				}
			}
		}
		return Value{}, &EvalError{Expr: e, Err: &UnsupportedError{Op: "access member", On: e.name}}
	case NodeIndex:
		obj := e.left.reduce(ctx)
		key, err := e.right.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		switch obj.kind {
		case NodeList:
			if !key.IsInteger() {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: key, Func: "index"}}
			}
			i := key.Int64()
			if i < 0 || i >= int64(len(obj.list)) {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: key, Func: "index"}}
			}
			return obj.list[i].evalValue(ctx, depth+1)
		case NodeMap:
			if key.Kind() == KindString {
				for i, k := range obj.keys {
					if k == key.Text() {
						return obj.list[i].evalValue(ctx, depth+1)
					}
				}
			}
			return Value{}, &EvalError{Expr: e, Err: &DomainError{X: key, Func: "index"}}
		}
		return Value{}, &EvalError{Expr: e, Err: &UnsupportedError{Op: "index", On: obj.kind.String()}}
	case NodeList, NodeMap:
		return Value{}, &UnsupportedError{Op: "evaluate", On: "a " + e.kind.String() + " as a single value"}
	case NodePolynomial:
		x, ok := ctx.vars[e.name]
		if !ok {
			return Value{}, &NameError{Name: e.name}
		}
		xv, err := x.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		acc := Int(0)
		for i := len(e.coeffs) - 1; i >= 0; i-- {
			acc, err = acc.Mul(xv)
			if err != nil {
				return Value{}, &EvalError{Expr: e, Err: err}
			}
			acc, err = acc.Add(e.coeffs[i])
			if err != nil {
				return Value{}, &EvalError{Expr: e, Err: err}
			}
		}
		return acc, nil
	default:
		panic("symexpr: invalid node kind " + e.kind.String())
	}
}

// reduce resolves e to a structural node through variable bindings and
// grouping, without numeric evaluation. It is used for member and index
// access on lists and maps.
func (e *Expr) reduce(ctx *Context) *Expr {
	for i := 0; i < DefaultMaxDepth; i++ {
		switch e.kind {
		case NodeGroup:
			e = e.left
		case NodeVariable:
			b, ok := ctx.vars[e.name]
			if !ok {
				return e
			}
			e = b
		default:
			return e
		}
	}
	return e
}

func (e *Expr) evalUnary(ctx *Context, depth int) (Value, error) {
	v, err := e.left.evalValue(ctx, depth+1)
	if err != nil {
		return Value{}, err
	}
	if e.prefix {
		switch e.name {
		case "-":
			if !v.Kind().Numeric() {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: v, Func: "-"}}
			}
			return v.Neg(), nil
		case "+":
			if !v.Kind().Numeric() {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: v, Func: "+"}}
			}
			return v, nil
		case "!":
			return Bool(!v.Bool()), nil
		case "~":
			if !v.IsInteger() {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: v, Func: "~"}}
			}
			return Int(^v.Int64()), nil
		}
	} else {
		switch e.name {
		case "!":
			r, err := v.Factorial()
			if err != nil {
				return Value{}, &EvalError{Expr: e, Err: err}
			}
			return r, nil
		case "%":
			r, err := v.Div(Int(100))
			if err != nil {
				return Value{}, &EvalError{Expr: e, Err: err}
			}
			return r, nil
		}
	}
	panic("symexpr: invalid unary operator " + e.name)
}

func (e *Expr) evalRel(ctx *Context, depth int) (Value, error) {
	// ?? and the logical connectives short-circuit on the left operand.
	switch e.name {
	case "??":
		l, err := e.left.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		if l.Kind() != KindNull {
			return l, nil
		}
		return e.right.evalValue(ctx, depth+1)
	case "||":
		l, err := e.left.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		if l.Bool() {
			return Bool(true), nil
		}
		r, err := e.right.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.Bool()), nil
	case "&&":
		l, err := e.left.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		if !l.Bool() {
			return Bool(false), nil
		}
		r, err := e.right.evalValue(ctx, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.Bool()), nil
	}
	l, err := e.left.evalValue(ctx, depth+1)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.evalValue(ctx, depth+1)
	if err != nil {
		return Value{}, err
	}
	switch e.name {
	case "==":
		return Bool(l.EqualValue(r)), nil
	case "!=":
		return Bool(!l.EqualValue(r)), nil
	case "<", ">", "<=", ">=":
		c, err := l.Cmp(r)
		if err != nil {
			return Value{}, &EvalError{Expr: e, Err: err}
		}
		switch e.name {
		case "<":
			return Bool(c < 0), nil
		case ">":
			return Bool(c > 0), nil
		case "<=":
			return Bool(c <= 0), nil
		default:
			return Bool(c >= 0), nil
		}
	case "&", "|", "<<", ">>":
		if !l.IsInteger() {
			return Value{}, &EvalError{Expr: e, Err: &DomainError{X: l, Func: e.name}}
		}
		if !r.IsInteger() {
			return Value{}, &EvalError{Expr: e, Err: &DomainError{X: r, Func: e.name}}
		}
		a, b := l.Int64(), r.Int64()
		switch e.name {
		case "&":
			return Int(a & b), nil
		case "|":
			return Int(a | b), nil
		case "<<":
			if b < 0 || b > 63 {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: r, Func: "<<"}}
			}
			return Int(a << uint(b)), nil
		default:
			if b < 0 || b > 63 {
				return Value{}, &EvalError{Expr: e, Err: &DomainError{X: r, Func: ">>"}}
			}
			return Int(a >> uint(b)), nil
		}
	case "P":
		v, err := perm(l, r)
		if err != nil {
			return Value{}, &EvalError{Expr: e, Err: err}
		}
		return v, nil
	case "C":
		v, err := comb(l, r)
		if err != nil {
			return Value{}, &EvalError{Expr: e, Err: err}
		}
		return v, nil
	}
	panic("symexpr: invalid relational operator " + e.name)
}
