package back

import (
	"github.com/vrosnet/libfirm/compiler/ir"
)

type UserCounter interface {
	Users(n *ir.Node) int
}

// PatternIsRotl matches Add or Or of a left and a right shift of the same value
// which together form a left rotation of x by amount.
//
// Amounts match if both are constants summing up to the mode width,
// or if one is the negation of the other modulo the width:
// Minus(y) and y, Sub(a, b) and Sub(b, a), Sub(width, y) and y.
func PatternIsRotl(n *ir.Node) (x, amount *ir.Node, ok bool) {
	mode := n.Mode
	if !mode.IsInt() {
		return nil, nil, false
	}

	shl, shr := n.In[0], n.In[1]

	switch {
	case shl.Op == ir.OpShr && shr.Op == ir.OpShl:
		shl, shr = shr, shl
	case shl.Op == ir.OpShl && shr.Op == ir.OpShr:
	default:
		return nil, nil, false
	}

	x = shl.In[0]
	if x != shr.In[0] {
		return nil, nil, false
	}

	c1, c2 := shl.In[1], shr.In[1]

	if c1.IsConst() && c2.IsConst() {
		if c1.Const().Int+c2.Const().Int != int64(mode.Bits) {
			return nil, nil, false
		}

		return x, c1, true
	}

	if mode.ModuloShift != mode.Bits {
		return nil, nil, false
	}

	if !IsNegatedValue(c1, c2) && !IsWidthComplement(c1, c2, mode.Bits) && !IsWidthComplement(c2, c1, mode.Bits) {
		return nil, nil, false
	}

	return x, c1, true
}

// IsNegatedValue reports whether a == -b.
func IsNegatedValue(a, b *ir.Node) bool {
	if a.Op == ir.OpMinus && a.In[0] == b {
		return true
	}

	if b.Op == ir.OpMinus && b.In[0] == a {
		return true
	}

	if a.Op == ir.OpSub && b.Op == ir.OpSub {
		return a.In[0] == b.In[1] && a.In[1] == b.In[0]
	}

	return false
}

// IsWidthComplement reports whether a is Sub(width, b).
func IsWidthComplement(a, b *ir.Node, width int) bool {
	if a.Op != ir.OpSub || a.In[1] != b {
		return false
	}

	c := a.In[0]

	return c.IsConst() && c.Const().Int == int64(width)
}

// SkipDownconv skips integer conversions to a smaller or the same size.
func SkipDownconv(uc UserCounter, n *ir.Node, singleUser bool) *ir.Node {
	for n.Op == ir.OpConv {
		if singleUser && uc.Users(n) > 1 {
			break
		}

		op := n.In[0]
		if !op.Mode.IsIntOrRef() || n.Mode.Bits > op.Mode.Bits {
			break
		}

		n = op
	}

	return n
}

// SkipSameconv skips single user integer conversions between modes of the same size.
func SkipSameconv(uc UserCounter, n *ir.Node) *ir.Node {
	for n.Op == ir.OpConv {
		if uc.Users(n) > 1 {
			break
		}

		op := n.In[0]
		if !op.Mode.IsIntOrRef() || n.Mode.Bits != op.Mode.Bits {
			break
		}

		n = op
	}

	return n
}

// UpperBitsClean reports whether the bits of n above mode width
// are already the sign or zero extension of the lower part.
func UpperBitsClean(n *ir.Node, mode *ir.Mode) bool {
	switch n.Op {
	case ir.OpAnd:
		if !mode.Signed {
			return UpperBitsClean(n.In[0], mode) || UpperBitsClean(n.In[1], mode)
		}

		return UpperBitsClean(n.In[0], mode) && UpperBitsClean(n.In[1], mode)
	case ir.OpOr, ir.OpEor:
		return UpperBitsClean(n.In[0], mode) && UpperBitsClean(n.In[1], mode)
	case ir.OpShr:
		if mode.Signed {
			return false
		}

		if r := n.In[1]; r.IsConst() && r.Const().Int >= int64(32-mode.Bits) {
			return true
		}

		return UpperBitsClean(n.In[0], mode)
	case ir.OpShrs:
		return UpperBitsClean(n.In[0], mode)
	case ir.OpConst:
		v := n.Const().Int

		if mode.Signed {
			s := v >> (mode.Bits - 1)
			return s == 0 || s == -1
		}

		return uint64(v)>>mode.Bits == 0
	case ir.OpConv:
		op := n.In[0]
		src := op.Mode

		if src.IsFloat() {
			return true
		}

		if src.Bits >= n.Mode.Bits {
			return UpperBitsClean(op, mode)
		}

		return src.Bits <= mode.Bits && src.Signed == mode.Signed
	case ir.OpProj:
		pred := n.Pred()
		if pred.Op != ir.OpLoad {
			return false
		}

		lm := pred.Attr.(*ir.LoadAttr).Mode

		return lm.Bits <= mode.Bits && lm.Signed == mode.Signed
	}

	return false
}
