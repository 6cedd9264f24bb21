package back

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

func TestCollectStackNodes(t *testing.T) {
	fn := &tp.Func{In: []tp.Type{i32}, Out: []tp.Type{i32}}

	g := ir.NewGraph(ir.NewEntity("f", fn))
	b := g.StartBlock()

	callee := g.NewAddress(ir.NewEntity("g", fn))

	c1 := g.NewCall(b, g.InitialMem(), callee, fn, g.Param(0, ir.ModeIs))
	m1 := g.NewProj(c1, ir.ModeM, ir.PnCallM)

	c2 := g.NewCall(b, m1, callee, fn, g.NewConst(ir.ModeIs, 1))
	m2 := g.NewProj(c2, ir.ModeM, ir.PnCallM)

	ret := g.NewReturn(b, m2, g.NewConst(ir.ModeIs, 0))
	g.EndBlock().AddIn(ret)

	s := CollectStackNodes(g)

	assert.Nil(t, s.Pred(c1))
	assert.Same(t, c1, s.Pred(c2))
	assert.Same(t, c2, s.Pred(ret))
}

func TestStackLayout(t *testing.T) {
	frame := ir.NewCompound("frame")
	local := frame.NewMember("x", tp.Float{Bits: 64})

	between := ir.NewCompound("between")

	args := ir.NewCompound("args")
	arg := args.NewMember("arg4", i32)
	arg.Offset = 4

	l := NewStackLayout(frame, between, args)
	l.Layout()

	assert.Equal(t, 0, l.Offset(local))
	assert.Equal(t, 8+4, l.Offset(arg))
	assert.Equal(t, 8+8, l.Size())

	assert.Panics(t, func() { l.Offset(ir.NewEntity("nowhere", i32)) })
}
