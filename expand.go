package symexpr

// maxExpandPower caps how large an integer power of a sum Expand multiplies
// out.
const maxExpandPower = 8

// Expand distributes products over sums and multiplies out small integer
// powers of sums, then collects like terms. Unlike Simplify it grows the
// expression when the distributed form has more terms.
func (e *Expr) Expand() *Expr {
	out := e.expand1()
	for i := 0; i < maxSimplifyPasses; i++ {
		next := out.expand1()
		if next.Equal(out) {
			break
		}
		out = next
	}
	tl := newTermList()
	if err := tl.collectSum(out, false); err != nil {
		return out
	}
	return tl.reconstruct()
}

func isSum(e *Expr) bool { return e.kind == NodeAdd || e.kind == NodeSubtract }

func (e *Expr) expand1() *Expr {
	if e == nil {
		return nil
	}
	n := e.mapChildren(func(c *Expr) *Expr { return c.expand1() })
	switch n.kind {
	case NodeGroup:
		return n.left
	case NodeMultiply:
		l, r := strip(n.left), strip(n.right)
		if isSum(l) {
			return splitOver(l, func(t *Expr) *Expr { return Mul(t, r) })
		}
		if isSum(r) {
			return splitOver(r, func(t *Expr) *Expr { return Mul(l, t) })
		}
		return simplifyProduct(Mul(l, r))
	case NodeDivide:
		l := strip(n.left)
		if isSum(l) {
			return splitOver(l, func(t *Expr) *Expr { return Div(t, n.right) })
		}
	case NodePow:
		b := strip(n.left)
		if isSum(b) && n.right.IsLiteral() && n.right.val.Kind() == KindInteger {
			p := n.right.val.Int64()
			if 2 <= p && p <= maxExpandPower {
				out := b
				for i := int64(1); i < p; i++ {
					out = Mul(out, b)
				}
				return out
			}
		}
	case NodeUnary:
		if n.prefix && n.name == "-" {
			x := strip(n.left)
			if isSum(x) {
				return splitOver(x, Neg)
			}
		}
	}
	return n
}

// splitOver applies f to both halves of a sum, preserving the subtraction
// structure.
func splitOver(sum *Expr, f func(*Expr) *Expr) *Expr {
	if sum.kind == NodeSubtract {
		return Sub(f(sum.left), f(sum.right))
	}
	return Add(f(sum.left), f(sum.right))
}
