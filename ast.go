package symexpr

import (
	"strconv"
	"strings"
)

// NodeKind discriminates the variants of Expr. The set is closed: every
// operation in this package switches exhaustively over it and panics on a
// kind it does not know, so a new variant cannot be added without teaching
// each operation about it.
type NodeKind int8

const (
	NodeNone NodeKind = iota

	NodeLiteral  // a numeric (or string/bool/null) value
	NodeVariable // a free symbol

	NodeAdd
	NodeSubtract
	NodeMultiply
	NodeDivide
	NodeModulo
	NodePow

	NodeUnary      // prefix or postfix unary operator
	NodeRelational // comparisons, logical and bitwise binary operators
	NodeCall       // named function application
	NodeGroup      // explicit parentheses
	NodeConditional
	NodeMember
	NodeIndex
	NodeList
	NodeMap
	NodePolynomial
)

func (k NodeKind) String() string {
	switch k {
	case NodeNone:
		return "None"
	case NodeLiteral:
		return "Literal"
	case NodeVariable:
		return "Variable"
	case NodeAdd:
		return "Add"
	case NodeSubtract:
		return "Subtract"
	case NodeMultiply:
		return "Multiply"
	case NodeDivide:
		return "Divide"
	case NodeModulo:
		return "Modulo"
	case NodePow:
		return "Pow"
	case NodeUnary:
		return "Unary"
	case NodeRelational:
		return "Relational"
	case NodeCall:
		return "Call"
	case NodeGroup:
		return "Group"
	case NodeConditional:
		return "Conditional"
	case NodeMember:
		return "Member"
	case NodeIndex:
		return "Index"
	case NodeList:
		return "List"
	case NodeMap:
		return "Map"
	case NodePolynomial:
		return "Polynomial"
	}
	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Expr is a node in the abstract syntax tree of an expression. Expressions
// are immutable: every transform returns a new tree and never modifies its
// receiver. Two trees never share mutable children.
type Expr struct {
	kind NodeKind

	// val is the payload of a Literal.
	val Value
	// name is the variable name, call target, unary/relational operator
	// text, or member field.
	name string
	// prefix distinguishes prefix from postfix unary operators.
	prefix bool

	left  *Expr
	right *Expr
	// third is the false branch of a Conditional.
	third *Expr
	// list holds call arguments, list elements, or map values.
	list []*Expr
	// keys holds map literal keys, parallel to list.
	keys []string
	// coeffs holds polynomial coefficients, ascending by degree.
	coeffs []Value
}

// Constructors. Each returns a fresh node and never simplifies; normal forms
// are the business of Simplify.

// Lit returns a literal node holding v.
func Lit(v Value) *Expr { return &Expr{kind: NodeLiteral, val: v} }

// IntLit returns a literal node holding the integer n.
func IntLit(n int64) *Expr { return Lit(Int(n)) }

// FloatLit returns a literal node holding the double f.
func FloatLit(f float64) *Expr { return Lit(Float(f)) }

// Var returns a variable node.
func Var(name string) *Expr { return &Expr{kind: NodeVariable, name: name} }

// Add returns l + r.
func Add(l, r *Expr) *Expr { return &Expr{kind: NodeAdd, left: l, right: r} }

// Sub returns l - r.
func Sub(l, r *Expr) *Expr { return &Expr{kind: NodeSubtract, left: l, right: r} }

// Mul returns l * r.
func Mul(l, r *Expr) *Expr { return &Expr{kind: NodeMultiply, left: l, right: r} }

// Div returns l / r.
func Div(l, r *Expr) *Expr { return &Expr{kind: NodeDivide, left: l, right: r} }

// Mod returns l % r.
func Mod(l, r *Expr) *Expr { return &Expr{kind: NodeModulo, left: l, right: r} }

// Pow returns l ^ r.
func Pow(l, r *Expr) *Expr { return &Expr{kind: NodePow, left: l, right: r} }

// Neg returns the prefix negation of x.
func Neg(x *Expr) *Expr { return Unary("-", x, true) }

// Unary returns a unary operator node.
func Unary(op string, x *Expr, prefix bool) *Expr {
	return &Expr{kind: NodeUnary, name: op, left: x, prefix: prefix}
}

// Rel returns a relational, logical, or bitwise binary node.
func Rel(op string, l, r *Expr) *Expr {
	return &Expr{kind: NodeRelational, name: op, left: l, right: r}
}

// Call returns a function call node.
func Call(name string, args ...*Expr) *Expr {
	return &Expr{kind: NodeCall, name: name, list: args}
}

// Group returns an explicit grouping of x.
func Group(x *Expr) *Expr { return &Expr{kind: NodeGroup, left: x} }

// Cond returns a conditional (ternary) node.
func Cond(test, ifTrue, ifFalse *Expr) *Expr {
	return &Expr{kind: NodeConditional, left: test, right: ifTrue, third: ifFalse}
}

// Member returns the member access obj.field.
func Member(obj *Expr, field string) *Expr {
	return &Expr{kind: NodeMember, left: obj, name: field}
}

// Index returns the index access obj[key].
func Index(obj, key *Expr) *Expr {
	return &Expr{kind: NodeIndex, left: obj, right: key}
}

// List returns a list literal node.
func List(items ...*Expr) *Expr { return &Expr{kind: NodeList, list: items} }

// MapLit returns a map literal node. keys and vals must have equal length.
func MapLit(keys []string, vals []*Expr) *Expr {
	if len(keys) != len(vals) {
		panic("symexpr: map literal keys and values differ in length")
	}
	return &Expr{kind: NodeMap, keys: keys, list: vals}
}

// Poly returns a polynomial node in variable v with the given coefficients,
// ascending by degree.
func Poly(v string, coeffs ...Value) *Expr {
	return &Expr{kind: NodePolynomial, name: v, coeffs: coeffs}
}

// Kind returns the node kind of e.
func (e *Expr) Kind() NodeKind { return e.kind }

// Left returns the left (or sole) child of e, or nil.
func (e *Expr) Left() *Expr { return e.left }

// Right returns the right child of e, or nil.
func (e *Expr) Right() *Expr { return e.right }

// Name returns the variable name, call target, operator text, or member
// field of e.
func (e *Expr) Name() string { return e.name }

// Value returns the literal payload of e. It is meaningful only for Literal
// nodes.
func (e *Expr) Value() Value { return e.val }

// Args returns the call arguments or list elements of e. The caller must not
// modify the result.
func (e *Expr) Args() []*Expr { return e.list }

// Coefficients returns the polynomial coefficients of e, ascending by
// degree. The caller must not modify the result.
func (e *Expr) Coefficients() []Value { return e.coeffs }

// IsLiteral reports whether e is a literal with a numeric value.
func (e *Expr) IsLiteral() bool {
	return e.kind == NodeLiteral && e.val.Kind().Numeric()
}

// isZero reports whether e is the exact literal zero.
func (e *Expr) isZero() bool { return e.kind == NodeLiteral && e.val.IsZero() }

// isOne reports whether e is the exact literal one.
func (e *Expr) isOne() bool { return e.kind == NodeLiteral && e.val.IsOne() }

// Equal reports structural equality of two trees.
func (e *Expr) Equal(o *Expr) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.kind != o.kind || e.name != o.name || e.prefix != o.prefix {
		return false
	}
	switch e.kind {
	case NodeLiteral:
		return e.val.EqualValue(o.val)
	case NodeVariable:
		return true
	case NodePolynomial:
		if len(e.coeffs) != len(o.coeffs) {
			return false
		}
		for i := range e.coeffs {
			if !e.coeffs[i].EqualValue(o.coeffs[i]) {
				return false
			}
		}
		return true
	case NodeMap:
		if len(e.keys) != len(o.keys) {
			return false
		}
		for i := range e.keys {
			if e.keys[i] != o.keys[i] {
				return false
			}
		}
	}
	if len(e.list) != len(o.list) {
		return false
	}
	for i := range e.list {
		if !e.list[i].Equal(o.list[i]) {
			return false
		}
	}
	return e.left.Equal(o.left) && e.right.Equal(o.right) && e.third.Equal(o.third)
}

// Substitute returns a copy of e with every subtree structurally equal to
// target replaced by repl. The receiver is unchanged.
func (e *Expr) Substitute(target, repl *Expr) *Expr {
	if e == nil {
		return nil
	}
	if e.Equal(target) {
		return repl
	}
	n := *e
	n.left = e.left.Substitute(target, repl)
	n.right = e.right.Substitute(target, repl)
	n.third = e.third.Substitute(target, repl)
	if e.list != nil {
		n.list = make([]*Expr, len(e.list))
		for i, a := range e.list {
			n.list[i] = a.Substitute(target, repl)
		}
	}
	return &n
}

// SubstituteVar replaces every occurrence of the named variable with repl.
func (e *Expr) SubstituteVar(name string, repl *Expr) *Expr {
	return e.Substitute(Var(name), repl)
}

// FreeVariables returns the set of unbound variable names in e.
func (e *Expr) FreeVariables() map[string]struct{} {
	out := map[string]struct{}{}
	e.collectVars(out)
	return out
}

func (e *Expr) collectVars(out map[string]struct{}) {
	if e == nil {
		return
	}
	if e.kind == NodeVariable {
		out[e.name] = struct{}{}
	}
	if e.kind == NodePolynomial {
		out[e.name] = struct{}{}
	}
	e.left.collectVars(out)
	e.right.collectVars(out)
	e.third.collectVars(out)
	for _, a := range e.list {
		a.collectVars(out)
	}
}

// ContainsVar reports whether the named variable occurs in e.
func (e *Expr) ContainsVar(name string) bool {
	if e == nil {
		return false
	}
	if (e.kind == NodeVariable || e.kind == NodePolynomial) && e.name == name {
		return true
	}
	if e.left.ContainsVar(name) || e.right.ContainsVar(name) || e.third.ContainsVar(name) {
		return true
	}
	for _, a := range e.list {
		if a.ContainsVar(name) {
			return true
		}
	}
	return false
}

// Rendering. String output is canonical: it is also the key used to decide
// whether two terms are like terms during simplification, and it re-parses
// to an equal tree for the supported grammar subset.

// precedence of a node for rendering purposes. Children with looser
// precedence than their parent are parenthesized.
func (e *Expr) precedence() int {
	switch e.kind {
	case NodeConditional:
		return 1
	case NodeRelational:
		return relPrec(e.name)
	case NodeAdd, NodeSubtract:
		return 10
	case NodeMultiply, NodeDivide, NodeModulo:
		return 11
	case NodePow:
		return 13
	case NodeUnary:
		if e.prefix {
			return 14
		}
		return 15
	case NodeMember, NodeIndex, NodeCall:
		return 15
	default:
		return 16
	}
}

func relPrec(op string) int {
	switch op {
	case "??":
		return 2
	case "||", "or":
		return 3
	case "&&", "and":
		return 4
	case "|":
		return 5
	case "&":
		return 6
	case "==", "!=":
		return 7
	case "<", ">", "<=", ">=":
		return 8
	case "<<", ">>":
		return 9
	case "P", "C":
		return 12
	}
	return 7
}

func (e *Expr) String() string {
	var b strings.Builder
	e.fmt(&b)
	return b.String()
}

func (e *Expr) child(b *strings.Builder, c *Expr, tighter bool) {
	need := c.precedence() < e.precedence()
	if tighter {
		need = c.precedence() <= e.precedence()
	}
	if need {
		b.WriteByte('(')
		c.fmt(b)
		b.WriteByte(')')
		return
	}
	c.fmt(b)
}

func (e *Expr) fmt(b *strings.Builder) {
	switch e.kind {
	case NodeLiteral:
		b.WriteString(e.val.String())
	case NodeVariable:
		b.WriteString(e.name)
	case NodeAdd:
		e.child(b, e.left, false)
		b.WriteString(" + ")
		e.child(b, e.right, true)
	case NodeSubtract:
		e.child(b, e.left, false)
		b.WriteString(" - ")
		e.child(b, e.right, true)
	case NodeMultiply:
		e.child(b, e.left, false)
		b.WriteByte('*')
		e.child(b, e.right, true)
	case NodeDivide:
		e.child(b, e.left, false)
		b.WriteByte('/')
		e.child(b, e.right, true)
	case NodeModulo:
		e.child(b, e.left, false)
		b.WriteString(" % ")
		e.child(b, e.right, true)
	case NodePow:
		// Right-associative: x^y^z prints without brackets on the right.
		e.child(b, e.left, true)
		b.WriteByte('^')
		e.child(b, e.right, false)
	case NodeUnary:
		if e.prefix {
			b.WriteString(e.name)
			e.child(b, e.left, false)
		} else {
			e.child(b, e.left, false)
			b.WriteString(e.name)
		}
	case NodeRelational:
		e.child(b, e.left, false)
		b.WriteByte(' ')
		b.WriteString(e.name)
		b.WriteByte(' ')
		e.child(b, e.right, true)
	case NodeCall:
		b.WriteString(e.name)
		b.WriteByte('(')
		for i, a := range e.list {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b)
		}
		b.WriteByte(')')
	case NodeGroup:
		b.WriteByte('(')
		e.left.fmt(b)
		b.WriteByte(')')
	case NodeConditional:
		e.child(b, e.left, true)
		b.WriteString(" ? ")
		e.right.fmt(b)
		b.WriteString(" : ")
		e.third.fmt(b)
	case NodeMember:
		e.child(b, e.left, false)
		b.WriteByte('.')
		b.WriteString(e.name)
	case NodeIndex:
		e.child(b, e.left, false)
		b.WriteByte('[')
		e.right.fmt(b)
		b.WriteByte(']')
	case NodeList:
		b.WriteByte('[')
		for i, a := range e.list {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b)
		}
		b.WriteByte(']')
	case NodeMap:
		b.WriteByte('{')
		for i, k := range e.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			e.list[i].fmt(b)
		}
		b.WriteByte('}')
	case NodePolynomial:
		e.polyExpr().fmt(b)
	default:
		panic("symexpr: invalid node kind " + e.kind.String())
	}
}
