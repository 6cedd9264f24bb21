package ir

import "github.com/vrosnet/libfirm/compiler/tp"

func (g *Graph) NewBlock(preds ...*Node) *Node {
	return g.NewNode(nil, OpBlock, ModeBB, nil, preds...)
}

func (g *Graph) NewProj(pred *Node, mode *Mode, num int) *Node {
	return g.NewNode(pred.Block, OpProj, mode, num, pred)
}

func (g *Graph) NewPhi(block *Node, mode *Mode, in ...*Node) *Node {
	return g.NewNode(block, OpPhi, mode, nil, in...)
}

// NewConst creates an integer or reference constant in the start block.
func (g *Graph) NewConst(mode *Mode, v int64) *Node {
	return g.NewNode(g.StartBlock(), OpConst, mode, ConstAttr{Int: v})
}

func (g *Graph) NewFloatConst(mode *Mode, v float64) *Node {
	return g.NewNode(g.StartBlock(), OpConst, mode, ConstAttr{Float: v})
}

func (g *Graph) NewUnknown(mode *Mode) *Node {
	return g.NewNode(g.StartBlock(), OpUnknown, mode, nil)
}

func (g *Graph) NewAddress(ent *Entity) *Node {
	return g.NewNode(g.StartBlock(), OpAddress, ModeP, ent)
}

func (g *Graph) NewMember(block, ptr *Node, ent *Entity) *Node {
	return g.NewNode(block, OpMember, ModeP, ent, ptr)
}

func (g *Graph) NewBinop(block *Node, op Op, l, r *Node) *Node {
	return g.NewNode(block, op, l.Mode, nil, l, r)
}

func (g *Graph) NewAdd(block, l, r *Node) *Node  { return g.NewBinop(block, OpAdd, l, r) }
func (g *Graph) NewSub(block, l, r *Node) *Node  { return g.NewBinop(block, OpSub, l, r) }
func (g *Graph) NewMul(block, l, r *Node) *Node  { return g.NewBinop(block, OpMul, l, r) }
func (g *Graph) NewAnd(block, l, r *Node) *Node  { return g.NewBinop(block, OpAnd, l, r) }
func (g *Graph) NewOr(block, l, r *Node) *Node   { return g.NewBinop(block, OpOr, l, r) }
func (g *Graph) NewEor(block, l, r *Node) *Node  { return g.NewBinop(block, OpEor, l, r) }
func (g *Graph) NewShl(block, l, r *Node) *Node  { return g.NewBinop(block, OpShl, l, r) }
func (g *Graph) NewShr(block, l, r *Node) *Node  { return g.NewBinop(block, OpShr, l, r) }
func (g *Graph) NewShrs(block, l, r *Node) *Node { return g.NewBinop(block, OpShrs, l, r) }

func (g *Graph) NewNot(block, x *Node) *Node {
	return g.NewNode(block, OpNot, x.Mode, nil, x)
}

func (g *Graph) NewMinus(block, x *Node) *Node {
	return g.NewNode(block, OpMinus, x.Mode, nil, x)
}

func (g *Graph) NewConv(block, x *Node, mode *Mode) *Node {
	return g.NewNode(block, OpConv, mode, nil, x)
}

func (g *Graph) NewDiv(block, mem, l, r *Node, res *Mode) *Node {
	return g.NewNode(block, OpDiv, ModeT, DivAttr{ResMode: res}, mem, l, r)
}

func (g *Graph) NewCmp(block, l, r *Node, rel Relation) *Node {
	return g.NewNode(block, OpCmp, Modeb, rel, l, r)
}

func (g *Graph) NewCond(block, sel *Node) *Node {
	return g.NewNode(block, OpCond, ModeT, nil, sel)
}

func (g *Graph) NewJmp(block *Node) *Node {
	return g.NewNode(block, OpJmp, ModeX, nil)
}

func (g *Graph) NewSwitch(block, sel *Node, tab *SwitchTable) *Node {
	return g.NewNode(block, OpSwitch, ModeT, tab, sel)
}

func (g *Graph) NewLoad(block, mem, ptr *Node, mode *Mode) *Node {
	return g.NewNode(block, OpLoad, ModeT, &LoadAttr{Mode: mode}, mem, ptr)
}

func (g *Graph) NewStore(block, mem, ptr, val *Node) *Node {
	return g.NewNode(block, OpStore, ModeT, &StoreAttr{}, mem, ptr, val)
}

// NewCall creates a call of ptr with memory mem and arguments args.
func (g *Graph) NewCall(block, mem, ptr *Node, typ *tp.Func, args ...*Node) *Node {
	in := append([]*Node{mem, ptr}, args...)

	return g.NewNode(block, OpCall, ModeT, typ, in...)
}

func (g *Graph) NewReturn(block, mem *Node, res ...*Node) *Node {
	in := append([]*Node{mem}, res...)

	return g.NewNode(block, OpReturn, ModeX, nil, in...)
}

func (g *Graph) NewSync(block *Node, in ...*Node) *Node {
	return g.NewNode(block, OpSync, ModeM, nil, in...)
}

func (g *Graph) NewBuiltin(block, mem *Node, kind Builtin, typ *tp.Func, args ...*Node) *Node {
	in := append([]*Node{mem}, args...)

	return g.NewNode(block, OpBuiltin, ModeT, BuiltinAttr{Kind: kind, Type: typ}, in...)
}

func (g *Graph) NewCopyB(block, mem, dst, src *Node, size int) *Node {
	return g.NewNode(block, OpCopyB, ModeM, CopyBAttr{Size: size}, mem, dst, src)
}

func (g *Graph) NewPin(block, x *Node) *Node {
	return g.NewNode(block, OpPin, x.Mode, nil, x)
}

// Param returns the Proj of the i-th function argument.
func (g *Graph) Param(i int, mode *Mode) *Node {
	return g.NewProj(g.Args(), mode, i)
}

// Call operand positions.
const (
	CallMem = 0
	CallPtr = 1
	CallArg = 2
)

func CallArgs(call *Node) []*Node { return call.In[CallArg:] }

// Load and Store operand positions.
const (
	MemMem = 0
	MemPtr = 1
	MemVal = 2
)

// ReturnResults returns the returned values.
func ReturnResults(ret *Node) []*Node { return ret.In[1:] }

// ModeOf is the mode values of t are held in.
func ModeOf(t tp.Type) *Mode {
	switch t := t.(type) {
	case tp.Int:
		switch {
		case t.Bits == 8 && t.Signed:
			return ModeBs
		case t.Bits == 8:
			return ModeBu
		case t.Bits == 16 && t.Signed:
			return ModeHs
		case t.Bits == 16:
			return ModeHu
		case t.Bits == 32 && t.Signed:
			return ModeIs
		case t.Bits == 32:
			return ModeIu
		case t.Bits == 64 && t.Signed:
			return ModeLs
		case t.Bits == 64:
			return ModeLu
		}
	case tp.Float:
		if t.Bits == 32 {
			return ModeF
		}

		return ModeD
	case tp.Ptr, *tp.Func, tp.Struct, tp.Array:
		return ModeP
	}

	return nil
}
