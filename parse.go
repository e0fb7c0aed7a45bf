package symexpr

import (
	"errors"
	"io"
	"strings"
)

// DefaultMaxDepth is the parser recursion limit used when no MaxDepth option
// is given. It bounds the depth of the resulting tree, so that parsing
// adversarial input cannot exhaust the goroutine stack.
const DefaultMaxDepth = 512

// ParseOption is an option for parsing.
type ParseOption func(*parsectx)

// Funcs sets the function table the parser recognizes. Identifiers in the
// table parse as calls; all others parse as variables. The default table is
// DefaultFuncs.
func Funcs(fns map[string]*Function) ParseOption {
	return func(p *parsectx) { p.funcs = fns }
}

// MaxDepth sets the parser recursion limit.
func MaxDepth(n int) ParseOption {
	return func(p *parsectx) { p.max = n }
}

type parsectx struct {
	funcs map[string]*Function
	max   int
	depth int
}

func (p *parsectx) enter(col int) error {
	p.depth++
	if p.depth > p.max {
		return &DepthError{Col: col, Depth: p.max}
	}
	return nil
}

func (p *parsectx) leave() { p.depth-- }

// Parse parses an expression from src.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	p := &parsectx{funcs: defaultFuncs, max: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	scan := lex(src)
	n, err := parseterm(scan, p, exprprec)
	if err != nil {
		return nil, err
	}
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenEOF {
		return nil, &TrailingError{Col: tok.pos, Token: tok.text}
	}
	return n, nil
}

// ParseString parses an expression from src.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// Equation is a pair of expressions asserted equal.
type Equation struct {
	LHS *Expr
	RHS *Expr
	// Implicit marks an equation parsed from input with no = sign, whose
	// right-hand side defaults to zero.
	Implicit bool
}

// Residual returns LHS - RHS, the expression whose roots are the solutions
// of the equation.
func (q *Equation) Residual() *Expr { return Sub(q.LHS, q.RHS) }

func (q *Equation) String() string { return q.LHS.String() + " = " + q.RHS.String() }

// ParseEquation parses an equation of the form lhs = rhs. Input with no =
// sign parses as an equation with a zero right-hand side.
func ParseEquation(src io.RuneScanner, opts ...ParseOption) (*Equation, error) {
	p := &parsectx{funcs: defaultFuncs, max: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	scan := lex(src)
	lhs, err := parseterm(scan, p, exprprec)
	if err != nil {
		return nil, err
	}
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.kind == tokenEOF:
		return &Equation{LHS: lhs, RHS: IntLit(0), Implicit: true}, nil
	case tok.kind == tokenOp && tok.text == "=":
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		end, err := scan.next()
		if err != nil {
			return nil, err
		}
		if end.kind != tokenEOF {
			return nil, &TrailingError{Col: end.pos, Token: end.text}
		}
		return &Equation{LHS: lhs, RHS: rhs}, nil
	}
	return nil, &TrailingError{Col: tok.pos, Token: tok.text}
}

// ParseEquationString parses an equation from src.
func ParseEquationString(src string, opts ...ParseOption) (*Equation, error) {
	return ParseEquation(strings.NewReader(src), opts...)
}

// operator is a binary operator's parsing record.
type operator struct {
	prec  int8
	right bool
	kind  NodeKind
	text  string
}

// moreBinding reports whether an expression given by until op r op until
// parses as until op (r op until), i.e. whether r binds more strongly than
// its surroundings.
func (l operator) moreBinding(r operator) bool {
	if l.prec != r.prec {
		return l.prec > r.prec
	}
	return l.right
}

var binops = map[string]operator{
	"??":  {2, false, NodeRelational, "??"},
	"||":  {3, false, NodeRelational, "||"},
	"or":  {3, false, NodeRelational, "||"},
	"&&":  {4, false, NodeRelational, "&&"},
	"and": {4, false, NodeRelational, "&&"},
	"|":   {5, false, NodeRelational, "|"},
	"&":   {6, false, NodeRelational, "&"},
	"==":  {7, false, NodeRelational, "=="},
	"!=":  {7, false, NodeRelational, "!="},
	"<":   {8, false, NodeRelational, "<"},
	">":   {8, false, NodeRelational, ">"},
	"<=":  {8, false, NodeRelational, "<="},
	">=":  {8, false, NodeRelational, ">="},
	"<<":  {9, false, NodeRelational, "<<"},
	">>":  {9, false, NodeRelational, ">>"},
	"+":   {10, false, NodeAdd, "+"},
	"-":   {10, false, NodeSubtract, "-"},
	"*":   {11, false, NodeMultiply, "*"},
	"/":   {11, false, NodeDivide, "/"},
	"%":   {11, false, NodeModulo, "%"},
	"P":   {12, false, NodeRelational, "P"},
	"C":   {12, false, NodeRelational, "C"},
	"^":   {13, true, NodePow, "^"},
}

var (
	// exprprec parses an entire subexpression.
	exprprec = operator{prec: 0}
	// condprec is the precedence of the ternary conditional.
	condprec = operator{prec: 1, right: true}
	// unaryprec parses the operand of a prefix operator. It sits at additive
	// level so that -x^2 negates the whole power.
	unaryprec = operator{prec: 10, right: true}
	// termprec parses the right operand of an implicit multiplication or the
	// argument of an implicit function application.
	termprec = operator{prec: 11, right: true, kind: NodeMultiply, text: "*"}
)

func mkbin(op operator, l, r *Expr) *Expr {
	if op.kind == NodeRelational {
		return Rel(op.text, l, r)
	}
	return &Expr{kind: op.kind, left: l, right: r}
}

// startsOperand reports whether tok can begin an operand, which decides
// implicit multiplication and implicit call arguments.
func startsOperand(tok lexToken) bool {
	switch tok.kind {
	case tokenNum, tokenStr, tokenOpen:
		return true
	case tokenIdent:
		_, bin := binops[tok.text]
		return !bin
	case tokenOp:
		switch tok.text {
		case "-", "+", "!", "~":
			return true
		}
	}
	return false
}

// parseterm parses a subexpression, stopping when it reaches an operator
// that binds no more strongly than until.
func parseterm(scan *lexer, p *parsectx, until operator) (*Expr, error) {
	if err := p.enter(scan.rune); err != nil {
		return nil, err
	}
	defer p.leave()
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := scan.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return nil, err
		}
		switch tok.kind {
		case tokenEOF, tokenClose, tokenSep:
			scan.push(tok)
			return n, nil
		case tokenOp:
			switch tok.text {
			case "=":
				// Equations are handled above expression level.
				scan.push(tok)
				return n, nil
			case "?":
				if !condprec.moreBinding(until) {
					scan.push(tok)
					return n, nil
				}
				n, err = parsecond(scan, p, n, tok.pos)
				if err != nil {
					return nil, err
				}
				continue
			case "!":
				// Postfix factorial. The lexer munches != as one token, so a
				// bare ! after an operand is unambiguous.
				n = Unary("!", n, false)
				continue
			case ".":
				f, err := scan.next()
				if err != nil {
					return nil, err
				}
				if f.kind != tokenIdent {
					scan.push(f)
					return nil, &OperatorError{Col: tok.pos, Operator: "."}
				}
				n = Member(n, f.text)
				continue
			case "%":
				// Modulo when an operand follows, percent otherwise.
				nx, err := scan.next()
				if err != nil {
					return nil, err
				}
				scan.push(nx)
				if !startsOperand(nx) {
					n = Unary("%", n, false)
					continue
				}
			}
			op, ok := binops[tok.text]
			if !ok {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text}
			}
			if !op.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, op)
			if err != nil {
				return nil, err
			}
			n = mkbin(op, n, rhs)
		case tokenIdent:
			if op, ok := binops[tok.text]; ok {
				if !op.moreBinding(until) {
					scan.push(tok)
					return n, nil
				}
				rhs, err := parseterm(scan, p, op)
				if err != nil {
					return nil, err
				}
				n = mkbin(op, n, rhs)
				continue
			}
			// Adjacency is multiplication: 2x, x y, 3 sin x.
			if !termprec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			scan.push(tok)
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			n = Mul(n, rhs)
		case tokenNum, tokenStr:
			if !termprec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			scan.push(tok)
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			n = Mul(n, rhs)
		case tokenOpen:
			if tok.text == "[" {
				// Postfix index binds tightest.
				key, err := parseterm(scan, p, exprprec)
				if err != nil {
					return nil, err
				}
				end, err := scan.next()
				if err != nil {
					return nil, err
				}
				if end.kind != tokenClose || end.text != "]" {
					return nil, &BracketError{Col: end.pos, Left: "[", Right: end.text}
				}
				n = Index(n, key)
				continue
			}
			// ( or { after an operand multiplies: 2(x+1).
			if !termprec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			scan.push(tok)
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			n = Mul(n, rhs)
		default:
			panic("symexpr: invalid token " + tok.String())
		}
	}
}

// parsecond parses the branches of a conditional after its ? at qcol, with
// test already parsed.
func parsecond(scan *lexer, p *parsectx, test *Expr, qcol int) (*Expr, error) {
	ifTrue, err := parseterm(scan, p, exprprec)
	if err != nil {
		return nil, err
	}
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenSep || tok.text != ":" {
		scan.push(tok)
		return nil, &OperatorError{Col: qcol, Operator: "?"}
	}
	ifFalse, err := parseterm(scan, p, condprec)
	if err != nil {
		return nil, err
	}
	return Cond(test, ifTrue, ifFalse), nil
}

// parselhs parses a single operand, including prefix operators, brackets,
// and function calls.
func parselhs(scan *lexer, p *parsectx, until operator) (*Expr, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenEOF:
		scan.push(tok)
		return nil, &EmptyExpressionError{Col: tok.pos}
	case tokenNum:
		v, err := ParseValue(tok.text)
		if err != nil {
			return nil, &LexError{Text: tok.text, Kind: "number", Col: tok.pos}
		}
		return Lit(v), nil
	case tokenStr:
		return Lit(Str(tok.text)), nil
	case tokenIdent:
		switch tok.text {
		case "true":
			return Lit(Bool(true)), nil
		case "false":
			return Lit(Bool(false)), nil
		case "null":
			return Lit(Null()), nil
		}
		if f, ok := p.funcs[tok.text]; ok {
			return parsecall(scan, p, f, until)
		}
		return Var(tok.text), nil
	case tokenOp:
		switch tok.text {
		case "-", "+", "!", "~":
			x, err := parseterm(scan, p, unaryprec)
			if err != nil {
				return nil, err
			}
			return Unary(tok.text, x, true), nil
		}
		return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
	case tokenOpen:
		switch tok.text {
		case "(":
			n, err := parseterm(scan, p, exprprec)
			if err != nil {
				return nil, err
			}
			end, err := scan.next()
			if err != nil {
				return nil, err
			}
			if end.kind != tokenClose || end.text != ")" {
				return nil, &BracketError{Col: end.pos, Left: "(", Right: end.text}
			}
			return Group(n), nil
		case "[":
			return parselist(scan, p, tok)
		default:
			return parsemap(scan, p, tok)
		}
	case tokenClose:
		scan.push(tok)
		return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("symexpr: invalid token " + tok.String())
	}
}

// parsecall parses the arguments of f, either parenthesized or implied by
// adjacency.
func parsecall(scan *lexer, p *parsectx, f *Function, until operator) (*Expr, error) {
	tok, err := scan.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if !f.CanCall(0) {
				return nil, &CallError{Func: f.Name, Len: 0}
			}
			return Call(f.Name), nil
		}
		return nil, err
	}
	if tok.kind == tokenOpen && tok.text == "(" {
		args, end, err := parseargs(scan, p, tok)
		if err != nil {
			return nil, err
		}
		if !f.CanCall(len(args)) {
			return nil, &CallError{Col: end, Func: f.Name, Len: len(args)}
		}
		return Call(f.Name, args...), nil
	}
	scan.push(tok)
	if f.MaxArgs != 0 && startsOperand(tok) && termprec.moreBinding(until) {
		arg, err := parseterm(scan, p, termprec)
		if err != nil {
			return nil, err
		}
		if !f.CanCall(1) {
			return nil, &CallError{Col: tok.pos, Func: f.Name, Len: 1}
		}
		return Call(f.Name, arg), nil
	}
	if !f.CanCall(0) {
		return nil, &CallError{Col: tok.pos, Func: f.Name, Len: 0}
	}
	return Call(f.Name), nil
}

// parseargs parses a parenthesized, comma-separated argument list, with the
// open bracket already consumed. It returns the position of the closing
// bracket.
func parseargs(scan *lexer, p *parsectx, open lexToken) ([]*Expr, int, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, 0, err
	}
	if tok.kind == tokenClose && tok.text == ")" {
		return nil, tok.pos, nil
	}
	scan.push(tok)
	var args []*Expr
	for {
		n, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, n)
		tok, err := scan.next()
		if err != nil {
			return nil, 0, err
		}
		switch {
		case tok.kind == tokenSep && tok.text == ",":
			continue
		case tok.kind == tokenClose && tok.text == ")":
			return args, tok.pos, nil
		case tok.kind == tokenSep:
			return nil, 0, &SeparatorError{Col: tok.pos, Sep: tok.text}
		default:
			return nil, 0, &BracketError{Col: tok.pos, Left: open.text, Right: tok.text}
		}
	}
}

// parselist parses a list literal with the open bracket already consumed.
func parselist(scan *lexer, p *parsectx, open lexToken) (*Expr, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenClose && tok.text == "]" {
		return List(), nil
	}
	scan.push(tok)
	var items []*Expr
	for {
		n, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokenSep && tok.text == ",":
			continue
		case tok.kind == tokenClose && tok.text == "]":
			return List(items...), nil
		case tok.kind == tokenSep:
			return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
		default:
			return nil, &BracketError{Col: tok.pos, Left: open.text, Right: tok.text}
		}
	}
}

// parsemap parses a map literal with the open bracket already consumed. Keys
// are identifiers or strings.
func parsemap(scan *lexer, p *parsectx, open lexToken) (*Expr, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenClose && tok.text == "}" {
		return MapLit(nil, nil), nil
	}
	scan.push(tok)
	var keys []string
	var vals []*Expr
	for {
		key, err := scan.next()
		if err != nil {
			return nil, err
		}
		if key.kind != tokenIdent && key.kind != tokenStr {
			return nil, &LexError{Text: key.text, Kind: "map key", Col: key.pos}
		}
		sep, err := scan.next()
		if err != nil {
			return nil, err
		}
		if sep.kind != tokenSep || sep.text != ":" {
			return nil, &SeparatorError{Col: sep.pos, Sep: sep.text}
		}
		val, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key.text)
		vals = append(vals, val)
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokenSep && tok.text == ",":
			continue
		case tok.kind == tokenClose && tok.text == "}":
			return MapLit(keys, vals), nil
		case tok.kind == tokenSep:
			return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
		default:
			return nil, &BracketError{Col: tok.pos, Left: open.text, Right: tok.text}
		}
	}
}
