package back

import (
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	IncSPAttr struct {
		Info

		// Offset is added to the stack size, so positive values grow the stack down.
		Offset int
		// Align is log2 of the stack alignment to keep.
		Align uint
	}
)

var (
	OpIncSP  = ir.RegisterOp("be_IncSP", 0)
	OpCopy   = ir.RegisterOp("be_Copy", 0)
	OpAnyVal = ir.RegisterOp("be_AnyVal", ir.OpFlagConstLike)
)

// NewIncSP adjusts the stack pointer register sp.
func NewIncSP(g *ir.Graph, sp *Register, block, old *ir.Node, offset int, align uint) *ir.Node {
	a := &IncSPAttr{
		Info:   *NewInfo([]*Req{sp.Single}, 1),
		Offset: offset,
		Align:  align,
	}

	a.Flags |= Ignore | NotSpillable
	a.Out[0] = OutInfo{Req: sp.Single, Reg: sp, Ignore: true}

	return g.NewNode(block, OpIncSP, sp.Cls.Mode, a, old)
}

func IncSPOffset(n *ir.Node) int {
	return n.Attr.(*IncSPAttr).Offset
}

// NewCopy copies op into a fresh register of the same class.
func NewCopy(g *ir.Graph, block, op *ir.Node) *ir.Node {
	cls := OutReq(op).Cls
	if cls == nil {
		Fatalf(op, "copy of a value without register class")
	}

	info := NewInfo([]*Req{cls.Req}, 1)
	info.SetOutReq(0, cls.Req)

	return g.NewNode(block, OpCopy, op.Mode, info, op)
}

// NewAnyVal is a value of class cls with undefined contents.
func NewAnyVal(g *ir.Graph, block *ir.Node, cls *RegClass) *ir.Node {
	info := NewInfo(nil, 1)
	info.SetOutReq(0, cls.Req)

	return g.NewNode(block, OpAnyVal, cls.Mode, info)
}
