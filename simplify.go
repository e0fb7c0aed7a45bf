package symexpr

import "errors"

// maxSimplifyPasses caps the rewrite fixpoint. Rewriting is confluent for
// the rule set below, so the cap exists to bound adversarial input rather
// than normal use.
const maxSimplifyPasses = 16

// Simplify returns the algebraic normal form of e: like terms collected,
// like factors merged, identities removed, and the rewrite rules applied.
// Simplify is idempotent and never evaluates inexact arithmetic, so
// transcendental calls on literals stay symbolic.
func (e *Expr) Simplify() *Expr {
	out := e.simplify1()
	for i := 0; i < maxSimplifyPasses; i++ {
		next := out.simplify1()
		if next.Equal(out) {
			return out
		}
		out = next
	}
	return out
}

// mapChildren returns a copy of e with f applied to each child.
func (e *Expr) mapChildren(f func(*Expr) *Expr) *Expr {
	n := *e
	if e.left != nil {
		n.left = f(e.left)
	}
	if e.right != nil {
		n.right = f(e.right)
	}
	if e.third != nil {
		n.third = f(e.third)
	}
	if e.list != nil {
		n.list = make([]*Expr, len(e.list))
		for i, a := range e.list {
			n.list[i] = f(a)
		}
	}
	return &n
}

// simplify1 runs one bottom-up simplification pass.
func (e *Expr) simplify1() *Expr {
	if e == nil {
		return nil
	}
	n := e.mapChildren(func(c *Expr) *Expr { return c.simplify1() })
	switch n.kind {
	case NodeGroup:
		// Grouping is syntax only.
		n = n.left
	case NodeAdd, NodeSubtract:
		n = simplifySum(n)
	case NodeMultiply:
		n = simplifyProduct(n)
	case NodeDivide:
		n = simplifyQuotient(n)
	case NodeModulo:
		if n.left.IsLiteral() && n.right.IsLiteral() {
			if v, err := n.left.val.Mod(n.right.val); err == nil {
				n = Lit(v)
			}
		}
	case NodePow:
		n = simplifyPow(n)
	case NodeUnary:
		n = simplifyUnary(n)
	case NodeConditional:
		if n.left.kind == NodeLiteral {
			if n.left.val.Bool() {
				n = n.right
			} else {
				n = n.third
			}
		}
	case NodeRelational:
		n = foldRel(n)
	case NodeMember:
		if n.left.kind == NodeMap {
			for i, k := range n.left.keys {
				if k == n.name {
					n = n.left.list[i]
					break
				}
			}
		}
	case NodeIndex:
		if n.left.kind == NodeList && n.right.IsLiteral() && n.right.val.IsInteger() {
			i := n.right.val.Int64()
			if 0 <= i && i < int64(len(n.left.list)) {
				n = n.left.list[i]
			}
		}
	}
	for _, r := range exprRules {
		if out, ok := r.apply(n); ok {
			n = out
		}
	}
	return n
}

// foldCtx is the binding-free context used to fold fully literal nodes.
var foldCtx = &Context{vars: map[string]*Expr{}, funcs: defaultFuncs, prec: DefaultPrec}

func foldRel(e *Expr) *Expr {
	if e.left.kind != NodeLiteral || e.right.kind != NodeLiteral {
		return e
	}
	switch e.name {
	case "P", "C", "&", "|", "<<", ">>", "??", "==", "!=", "<", ">", "<=", ">=", "||", "&&":
		if v, err := e.evalRel(foldCtx, 0); err == nil {
			return Lit(v)
		}
	}
	return e
}

// errNonAlgebraic aborts term collection when a sum or product mixes in
// values that arithmetic rewriting must not touch, like strings.
var errNonAlgebraic = errors.New("non-algebraic operand")

// A term is a literal coefficient times an opaque factor. Terms with equal
// keys are like terms; the key is the factor's canonical rendering.
type term struct {
	coeff  Value
	factor *Expr
}

type termList struct {
	order    []string
	terms    map[string]*term
	constant Value
}

func newTermList() *termList {
	return &termList{terms: map[string]*term{}, constant: Int(0)}
}

func (tl *termList) add(coeff Value, factor *Expr) error {
	key := factor.String()
	if t, ok := tl.terms[key]; ok {
		c, err := t.coeff.Add(coeff)
		if err != nil {
			return err
		}
		t.coeff = c
		return nil
	}
	tl.order = append(tl.order, key)
	tl.terms[key] = &term{coeff: coeff, factor: factor}
	return nil
}

// collectSum walks an additive spine, accumulating terms. neg flips the sign
// of everything below.
func (tl *termList) collectSum(e *Expr, neg bool) error {
	switch e.kind {
	case NodeAdd:
		if err := tl.collectSum(e.left, neg); err != nil {
			return err
		}
		return tl.collectSum(e.right, neg)
	case NodeSubtract:
		if err := tl.collectSum(e.left, neg); err != nil {
			return err
		}
		return tl.collectSum(e.right, !neg)
	case NodeGroup:
		return tl.collectSum(e.left, neg)
	case NodeUnary:
		if e.prefix && e.name == "-" {
			return tl.collectSum(e.left, !neg)
		}
		if e.prefix && e.name == "+" {
			return tl.collectSum(e.left, neg)
		}
	case NodeLiteral:
		if !e.val.Kind().Numeric() {
			return errNonAlgebraic
		}
		v := e.val
		if neg {
			v = v.Neg()
		}
		c, err := tl.constant.Add(v)
		if err != nil {
			return err
		}
		tl.constant = c
		return nil
	}
	coeff, factor := splitCoeff(e)
	if !coeff.Kind().Numeric() {
		return errNonAlgebraic
	}
	if neg {
		coeff = coeff.Neg()
	}
	return tl.add(coeff, factor)
}

// splitCoeff divides a term into its literal coefficient and the rest.
// Products are canonicalized with the coefficient leading, so only the
// shapes produced by simplifyProduct need handling.
func splitCoeff(e *Expr) (Value, *Expr) {
	switch e.kind {
	case NodeMultiply:
		if e.left.IsLiteral() {
			return e.left.val, e.right
		}
		if e.right.IsLiteral() {
			return e.right.val, e.left
		}
	case NodeLiteral:
		return e.val, IntLit(1)
	}
	return Int(1), e
}

// reconstruct rebuilds the collected sum, keeping terms in the order they
// first appeared with the constant trailing.
func (tl *termList) reconstruct() *Expr {
	var acc *Expr
	join := func(coeff Value, factor *Expr) {
		if coeff.IsZero() {
			return
		}
		var t *Expr
		neg := coeff.IsNegative()
		mag := coeff
		if neg && acc != nil {
			mag = coeff.Neg()
		}
		switch {
		case factor.isOne():
			t = Lit(mag)
		case mag.IsOne():
			t = factor
		case mag.Kind() == KindInteger && mag.Int64() == -1:
			t = Neg(factor)
		default:
			t = Mul(Lit(mag), factor)
		}
		if acc == nil {
			acc = t
			return
		}
		if neg {
			acc = Sub(acc, t)
			return
		}
		acc = Add(acc, t)
	}
	for _, key := range tl.order {
		t := tl.terms[key]
		join(t.coeff, t.factor)
	}
	join(tl.constant, IntLit(1))
	if acc == nil {
		return IntLit(0)
	}
	return acc
}

func simplifySum(e *Expr) *Expr {
	tl := newTermList()
	if err := tl.collectSum(e, false); err != nil {
		return e
	}
	for _, r := range sumRules {
		r(tl)
	}
	return tl.reconstruct()
}

// A factorList collects a multiplicative spine into a literal coefficient
// and per-base exponents, keyed by the base's canonical rendering.
type factorList struct {
	order []string
	bases map[string]*Expr
	exps  map[string]*Expr
	coeff Value
}

func newFactorList() *factorList {
	return &factorList{bases: map[string]*Expr{}, exps: map[string]*Expr{}, coeff: Int(1)}
}

func (fl *factorList) add(base, exp *Expr) {
	key := base.String()
	if have, ok := fl.exps[key]; ok {
		if have.IsLiteral() && exp.IsLiteral() {
			if v, err := have.val.Add(exp.val); err == nil {
				fl.exps[key] = Lit(v)
				return
			}
		}
		fl.exps[key] = Add(have, exp)
		return
	}
	fl.order = append(fl.order, key)
	fl.bases[key] = base
	fl.exps[key] = exp
}

func (fl *factorList) collect(e *Expr) error {
	switch e.kind {
	case NodeMultiply:
		if err := fl.collect(e.left); err != nil {
			return err
		}
		return fl.collect(e.right)
	case NodeGroup:
		return fl.collect(e.left)
	case NodeUnary:
		if e.prefix && e.name == "-" {
			fl.coeff = fl.coeff.Neg()
			return fl.collect(e.left)
		}
	case NodeLiteral:
		if !e.val.Kind().Numeric() {
			return errNonAlgebraic
		}
		c, err := fl.coeff.Mul(e.val)
		if err != nil {
			return err
		}
		fl.coeff = c
		return nil
	case NodePow:
		fl.add(e.left, e.right)
		return nil
	}
	fl.add(e, IntLit(1))
	return nil
}

// reconstruct rebuilds the product with the coefficient leading and bases in
// first-appearance order.
func (fl *factorList) reconstruct() *Expr {
	if fl.coeff.IsZero() {
		return IntLit(0)
	}
	var acc *Expr
	for _, key := range fl.order {
		exp := fl.exps[key]
		if exp.isZero() {
			continue
		}
		f := fl.bases[key]
		if !exp.isOne() {
			f = Pow(f, exp)
		}
		if acc == nil {
			acc = f
			continue
		}
		acc = Mul(acc, f)
	}
	if acc == nil {
		return Lit(fl.coeff)
	}
	switch {
	case fl.coeff.IsOne():
		return acc
	case fl.coeff.Kind() == KindInteger && fl.coeff.Int64() == -1:
		return Neg(acc)
	}
	return Mul(Lit(fl.coeff), acc)
}

func simplifyProduct(e *Expr) *Expr {
	// Division inside a product lifts out so that quotient cancellation sees
	// the whole numerator: a*(b/c) becomes (a*b)/c.
	if e.left.kind == NodeDivide {
		return simplifyQuotient(Div(simplifyProduct(Mul(e.left.left, e.right)), e.left.right))
	}
	if e.right.kind == NodeDivide {
		return simplifyQuotient(Div(simplifyProduct(Mul(e.left, e.right.left)), e.right.right))
	}
	fl := newFactorList()
	if err := fl.collect(e); err != nil {
		return e
	}
	return fl.reconstruct()
}

func simplifyQuotient(e *Expr) *Expr {
	l, r := e.left, e.right
	// Nested quotients flatten first.
	if l.kind == NodeDivide {
		return simplifyQuotient(Div(l.left, simplifyProduct(Mul(l.right, r))))
	}
	if r.kind == NodeDivide {
		return simplifyQuotient(Div(simplifyProduct(Mul(l, r.right)), r.left))
	}
	if r.isOne() {
		return l
	}
	if l.isZero() && !r.isZero() {
		return IntLit(0)
	}
	if l.IsLiteral() && r.IsLiteral() {
		if v, err := l.val.Div(r.val); err == nil {
			if l.val.Kind() != KindInteger || r.val.Kind() != KindInteger || v.IsInteger() {
				return Lit(v)
			}
		}
	}
	num, den := newFactorList(), newFactorList()
	if err := num.collect(l); err != nil {
		return e
	}
	if err := den.collect(r); err != nil {
		return e
	}
	// Cancel shared bases with literal exponents.
	for _, key := range num.order {
		de, ok := den.exps[key]
		if !ok {
			continue
		}
		ne := num.exps[key]
		if !ne.IsLiteral() || !de.IsLiteral() {
			continue
		}
		c, err := ne.val.Cmp(de.val)
		if err != nil {
			continue
		}
		switch {
		case c == 0:
			num.exps[key] = IntLit(0)
			den.exps[key] = IntLit(0)
		case c > 0:
			d, err := ne.val.Sub(de.val)
			if err != nil {
				continue
			}
			num.exps[key] = Lit(d)
			den.exps[key] = IntLit(0)
		default:
			d, err := de.val.Sub(ne.val)
			if err != nil {
				continue
			}
			den.exps[key] = Lit(d)
			num.exps[key] = IntLit(0)
		}
	}
	// An integer coefficient ratio reduces by its gcd.
	if num.coeff.Kind() == KindInteger && den.coeff.Kind() == KindInteger && !den.coeff.IsZero() {
		g := gcd64(num.coeff.Int64(), den.coeff.Int64())
		if g > 1 {
			num.coeff = Int(num.coeff.Int64() / g)
			den.coeff = Int(den.coeff.Int64() / g)
		}
		if den.coeff.Int64() < 0 {
			num.coeff = num.coeff.Neg()
			den.coeff = den.coeff.Neg()
		}
	}
	nn, dd := num.reconstruct(), den.reconstruct()
	if dd.isOne() {
		return nn
	}
	return Div(nn, dd)
}

func simplifyPow(e *Expr) *Expr {
	b, x := e.left, e.right
	switch {
	case x.isZero():
		return IntLit(1)
	case x.isOne():
		return b
	case b.isOne():
		return IntLit(1)
	case b.isZero():
		if x.IsLiteral() && !x.val.IsNegative() && !x.val.IsZero() {
			return IntLit(0)
		}
	}
	// Exact integer powers fold.
	if b.IsLiteral() && x.IsLiteral() && b.val.Kind() == KindInteger && x.val.Kind() == KindInteger {
		n := x.val.Int64()
		if 0 <= n && n <= 62 {
			if v, err := b.val.Pow(x.val); err == nil {
				return Lit(v)
			}
		}
	}
	// (b^m)^n merges exponents.
	if b.kind == NodePow {
		inner := b.right
		if inner.IsLiteral() && x.IsLiteral() {
			if v, err := inner.val.Mul(x.val); err == nil {
				return Pow(b.left, Lit(v))
			}
		}
		return Pow(b.left, Mul(inner, x))
	}
	return e
}

func simplifyUnary(e *Expr) *Expr {
	x := e.left
	if e.prefix {
		switch e.name {
		case "+":
			return x
		case "-":
			switch {
			case x.IsLiteral():
				return Lit(x.val.Neg())
			case x.kind == NodeUnary && x.prefix && x.name == "-":
				return x.left
			case x.kind == NodeMultiply && x.left.IsLiteral():
				return Mul(Lit(x.left.val.Neg()), x.right)
			case x.kind == NodeSubtract:
				return Sub(x.right, x.left)
			}
		case "!":
			if x.kind == NodeLiteral {
				return Lit(Bool(!x.val.Bool()))
			}
			if x.kind == NodeUnary && x.prefix && x.name == "!" {
				return x.left
			}
		case "~":
			if x.kind == NodeUnary && x.prefix && x.name == "~" {
				return x.left
			}
		}
		return e
	}
	switch e.name {
	case "!":
		if x.IsLiteral() && x.val.IsInteger() && !x.val.IsNegative() && x.val.Int64() <= 20 {
			if v, err := x.val.Factorial(); err == nil {
				return Lit(v)
			}
		}
	case "%":
		if x.IsLiteral() {
			if v, err := x.val.Div(Int(100)); err == nil {
				return Lit(v)
			}
		}
	}
	return e
}

// The rewrite registry. Rules are tried in order on every node once per
// pass; the outer fixpoint loop reapplies them until nothing changes.

type exprRule struct {
	name  string
	apply func(*Expr) (*Expr, bool)
}

var exprRules = []exprRule{
	{"difference of squares", ruleDiffSquares},
	{"square of square root", ruleSqrtSquare},
	{"logarithm inverses", ruleLnExp},
}

// sumRules rewrite a collected term list in place before reconstruction.
var sumRules = []func(*termList){
	rulePythagorean,
	rulePerfectSquare,
	ruleSquareRecombine,
}

// ruleDiffSquares rewrites (a+b)*(a-b) to a^2 - b^2.
func ruleDiffSquares(e *Expr) (*Expr, bool) {
	if e.kind != NodeMultiply {
		return e, false
	}
	l, r := strip(e.left), strip(e.right)
	if l.kind == NodeSubtract && r.kind == NodeAdd {
		l, r = r, l
	}
	if l.kind != NodeAdd || r.kind != NodeSubtract {
		return e, false
	}
	if !l.left.Equal(r.left) || !l.right.Equal(r.right) {
		return e, false
	}
	return Sub(Pow(l.left, IntLit(2)), Pow(l.right, IntLit(2))), true
}

// ruleSqrtSquare rewrites sqrt(u)^2 to u and sqrt(u^2) to abs(u).
func ruleSqrtSquare(e *Expr) (*Expr, bool) {
	if e.kind == NodePow && e.right.IsLiteral() && e.right.val.EqualValue(Int(2)) {
		b := strip(e.left)
		if b.kind == NodeCall && b.name == "sqrt" && len(b.list) == 1 {
			return b.list[0], true
		}
	}
	if e.kind == NodeCall && e.name == "sqrt" && len(e.list) == 1 {
		a := strip(e.list[0])
		if a.kind == NodePow && a.right.IsLiteral() && a.right.val.EqualValue(Int(2)) {
			return Call("abs", a.left), true
		}
	}
	return e, false
}

// ruleLnExp rewrites ln(exp(u)) and exp(ln(u)) to u, ln(1) to 0, and ln(e)
// to 1.
func ruleLnExp(e *Expr) (*Expr, bool) {
	if e.kind != NodeCall || len(e.list) != 1 {
		return e, false
	}
	a := strip(e.list[0])
	switch e.name {
	case "ln":
		switch {
		case a.kind == NodeCall && a.name == "exp" && len(a.list) == 1:
			return a.list[0], true
		case a.kind == NodeCall && a.name == "e" && len(a.list) == 0:
			return IntLit(1), true
		case a.isOne():
			return IntLit(0), true
		}
	case "exp":
		if a.kind == NodeCall && a.name == "ln" && len(a.list) == 1 {
			return a.list[0], true
		}
		if a.isZero() {
			return IntLit(1), true
		}
	}
	return e, false
}

// rulePythagorean folds c*sin(u)^2 + c*cos(u)^2 into the constant c.
func rulePythagorean(tl *termList) {
	for _, key := range tl.order {
		t := tl.terms[key]
		u, ok := trigSquareArg(t.factor, "sin")
		if !ok {
			continue
		}
		other := Pow(Call("cos", u), IntLit(2))
		o, ok := tl.terms[other.String()]
		if !ok || !o.coeff.EqualValue(t.coeff) {
			continue
		}
		c, err := tl.constant.Add(t.coeff)
		if err != nil {
			continue
		}
		tl.constant = c
		t.coeff = Int(0)
		o.coeff = Int(0)
	}
}

func trigSquareArg(e *Expr, fn string) (*Expr, bool) {
	if e.kind != NodePow || !e.right.IsLiteral() || !e.right.val.EqualValue(Int(2)) {
		return nil, false
	}
	b := strip(e.left)
	if b.kind != NodeCall || b.name != fn || len(b.list) != 1 {
		return nil, false
	}
	return b.list[0], true
}

// rulePerfectSquare recognizes a^2 + 2ab + b^2 (and the subtracted form) as
// (a+b)^2 or (a-b)^2.
func rulePerfectSquare(tl *termList) {
	if !tl.constant.IsZero() {
		return
	}
	live := make([]*term, 0, 3)
	for _, key := range tl.order {
		if t := tl.terms[key]; !t.coeff.IsZero() {
			live = append(live, t)
		}
	}
	if len(live) != 3 {
		return
	}
	var squares []*term
	var cross *term
	for _, t := range live {
		if t.factor.kind == NodePow && t.factor.right.IsLiteral() && t.factor.right.val.EqualValue(Int(2)) && t.coeff.IsOne() {
			squares = append(squares, t)
			continue
		}
		cross = t
	}
	if len(squares) != 2 || cross == nil {
		return
	}
	ci := cross.coeff
	if ci.Kind() != KindInteger || (ci.Int64() != 2 && ci.Int64() != -2) {
		return
	}
	a, b := squares[0].factor.left, squares[1].factor.left
	ab := cross.factor
	if !ab.Equal(Mul(a, b)) && !ab.Equal(Mul(b, a)) {
		return
	}
	var sq *Expr
	if ci.Int64() == 2 {
		sq = Pow(Group(Add(a, b)), IntLit(2))
	} else {
		sq = Pow(Group(Sub(a, b)), IntLit(2))
	}
	squares[0].coeff = Int(0)
	squares[1].coeff = Int(0)
	cross.coeff = Int(1)
	cross.factor = sq
}

// ruleSquareRecombine rewrites (a-b)^2 + 4ab to (a+b)^2, and (a+b)^2 - 4ab
// to (a-b)^2.
func ruleSquareRecombine(tl *termList) {
	if !tl.constant.IsZero() {
		return
	}
	live := make([]*term, 0, 2)
	for _, key := range tl.order {
		if t := tl.terms[key]; !t.coeff.IsZero() {
			live = append(live, t)
		}
	}
	if len(live) != 2 {
		return
	}
	var sq, cross *term
	for _, t := range live {
		if t.factor.kind == NodePow && t.factor.right.IsLiteral() && t.factor.right.val.EqualValue(Int(2)) && t.coeff.IsOne() {
			sq = t
			continue
		}
		cross = t
	}
	if sq == nil || cross == nil {
		return
	}
	inner := strip(sq.factor.left)
	if inner.kind != NodeAdd && inner.kind != NodeSubtract {
		return
	}
	a, b := inner.left, inner.right
	if ab := cross.factor; !ab.Equal(Mul(a, b)) && !ab.Equal(Mul(b, a)) {
		return
	}
	ci := cross.coeff
	if ci.Kind() != KindInteger {
		return
	}
	switch {
	case inner.kind == NodeSubtract && ci.Int64() == 4:
		sq.factor = Pow(Group(Add(a, b)), IntLit(2))
	case inner.kind == NodeAdd && ci.Int64() == -4:
		sq.factor = Pow(Group(Sub(a, b)), IntLit(2))
	default:
		return
	}
	cross.coeff = Int(0)
}

// strip removes grouping.
func strip(e *Expr) *Expr {
	for e.kind == NodeGroup {
		e = e.left
	}
	return e
}
