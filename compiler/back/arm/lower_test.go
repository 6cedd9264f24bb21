package arm

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

var (
	u32 = tp.Int{Bits: 32}
	i32 = tp.Int{Bits: 32, Signed: true}
	f32 = tp.Float{Bits: 32}
	f64 = tp.Float{Bits: 64}
)

func newFunc(name string, in, out []tp.Type) *ir.Graph {
	return ir.NewGraph(ir.NewEntity(name, &tp.Func{In: in, Out: out}))
}

func ret(g *ir.Graph, block, mem *ir.Node, res ...*ir.Node) *ir.Node {
	r := g.NewReturn(block, mem, res...)
	g.EndBlock().AddIn(r)

	return r
}

func lower(t *testing.T, g *ir.Graph, cfg Config) *Lowered {
	t.Helper()

	l, err := TransformGraph(context.Background(), g, cfg)
	require.NoError(t, err)

	return l
}

func find(g *ir.Graph, op ir.Op) (r []*ir.Node) {
	ir.Walk(g, func(n *ir.Node) {
		if n.Op == op {
			r = append(r, n)
		}
	}, nil)

	return r
}

func findOne(t *testing.T, g *ir.Graph, op ir.Op) *ir.Node {
	t.Helper()

	r := find(g, op)
	require.Len(t, r, 1, "%v nodes", op)

	return r[0]
}

// returned is the first value returned by the lowered function.
func returned(t *testing.T, l *Lowered) *ir.Node {
	t.Helper()

	r := findOne(t, l.Graph, OpReturn)
	require.Greater(t, len(r.In), ReturnFirstResult)

	return r.In[ReturnFirstResult]
}

// isParamReg reports whether n is the lowered start result carrying the i-th register parameter.
func isParamReg(n *ir.Node, i int) bool {
	return n.IsProjOf(OpStart) && n.ProjNum() == 2+i
}

// eval computes the value of a materialized constant.
func eval(t *testing.T, n *ir.Node) uint32 {
	t.Helper()

	a := AttrOf(n)
	require.NotNil(t, a, "%v", n)

	switch n.Op {
	case OpMov:
		require.Equal(t, ShfImm, a.Shift)
		return a.Imm.Uint32()
	case OpMvn:
		require.Equal(t, ShfImm, a.Shift)
		return ^a.Imm.Uint32()
	case OpOrr:
		return eval(t, n.In[0]) | a.Imm.Uint32()
	case OpBic:
		return eval(t, n.In[0]) &^ a.Imm.Uint32()
	}

	t.Fatalf("unexpected node in constant: %v", n)

	return 0
}

// chain is the number of instructions materializing a constant.
func chain(n *ir.Node) int {
	if n.Op == OpMov || n.Op == OpMvn {
		return 1
	}

	return 1 + chain(n.In[0])
}

func constFunc(v uint32) *ir.Graph {
	g := newFunc("const", nil, []tp.Type{u32})
	ret(g, g.StartBlock(), g.InitialMem(), g.NewConst(ir.ModeIu, int64(v)))

	return g
}

func TestConstMaterialization(t *testing.T) {
	for _, tc := range []struct {
		v     uint32
		op    ir.Op
		insns int
	}{
		{0, OpMov, 1},
		{0xff, OpMov, 1},
		{0x3fc, OpMov, 1},
		{0xffffff00, OpMvn, 1},
		{0xffffffff, OpMvn, 1},
		{0xff00ff00, OpOrr, 2},
		{0xfffff0ff, OpMvn, 1},
		{0x12345678, OpOrr, 4},
	} {
		l := lower(t, constFunc(tc.v), DefaultConfig())
		r := returned(t, l)

		assert.Equal(t, tc.op, r.Op, "%#x", tc.v)
		assert.Equal(t, tc.insns, chain(r), "%#x", tc.v)
		assert.Equal(t, tc.v, eval(t, r), "%#x", tc.v)
	}

	rnd := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		v := rnd.Uint32()

		r := returned(t, lower(t, constFunc(v), DefaultConfig()))
		require.Equal(t, v, eval(t, r), "%#x", v)

		up, down := valsFromWord(v).n, valsFromWord(^v).n
		require.Equal(t, min(up, down), chain(r), "%#x", v)
	}
}

func TestRotate(t *testing.T) {
	for x := int64(1); x < 32; x++ {
		g := newFunc("rotl", []tp.Type{u32}, []tp.Type{u32})
		b := g.StartBlock()
		a := g.Param(0, ir.ModeIu)

		rot := g.NewOr(b, g.NewShl(b, a, g.NewConst(ir.ModeIu, x)), g.NewShr(b, a, g.NewConst(ir.ModeIu, 32-x)))
		ret(g, b, g.InitialMem(), rot)

		l := lower(t, g, DefaultConfig())
		r := returned(t, l)

		require.Equal(t, OpMov, r.Op, "rotl %d", x)

		at := AttrOf(r)
		assert.Equal(t, ShfRORImm, at.Shift, "rotl %d", x)
		assert.EqualValues(t, 32-x, at.ShiftImm, "rotl %d", x)
		assert.True(t, isParamReg(r.In[MovRm], 0), "rotl %d", x)

		assert.Empty(t, find(l.Graph, OpOrr))
	}
}

func TestRotateZero(t *testing.T) {
	for _, x := range []int64{0, 32} {
		g := newFunc("rotl", []tp.Type{u32}, []tp.Type{u32})
		b := g.StartBlock()
		a := g.Param(0, ir.ModeIu)

		rot := g.NewOr(b, g.NewShl(b, a, g.NewConst(ir.ModeIu, x)), g.NewShr(b, a, g.NewConst(ir.ModeIu, 32-x)))
		ret(g, b, g.InitialMem(), rot)

		l := lower(t, g, DefaultConfig())

		assert.True(t, isParamReg(returned(t, l), 0), "rotl %d", x)

		for _, m := range find(l.Graph, OpMov) {
			assert.NotEqual(t, ShfRORImm, AttrOf(m).Shift, "rotl %d: %v", x, m)
		}
	}
}

func TestRotateVariable(t *testing.T) {
	g := newFunc("rotl", []tp.Type{u32, u32}, []tp.Type{u32})
	b := g.StartBlock()
	a := g.Param(0, ir.ModeIu)
	y := g.Param(1, ir.ModeIu)

	rot := g.NewAdd(b, g.NewShl(b, a, y), g.NewShr(b, a, g.NewSub(b, g.NewConst(ir.ModeIu, 32), y)))
	ret(g, b, g.InitialMem(), rot)

	r := returned(t, lower(t, g, DefaultConfig()))

	require.Equal(t, OpMov, r.Op)
	assert.Equal(t, ShfRORReg, AttrOf(r).Shift)
	assert.True(t, isParamReg(r.In[MovRm], 0))

	neg := r.In[MovRs]
	require.Equal(t, OpRsb, neg.Op, "rotate right by 32-y")
	assert.True(t, isParamReg(neg.In[0], 1))
	assert.EqualValues(t, 32, AttrOf(neg).Imm.Uint32())
}

func TestPack(t *testing.T) {
	for _, lowFirst := range []bool{true, false} {
		g := newFunc("pack", []tp.Type{u32, u32}, []tp.Type{u32})
		b := g.StartBlock()
		a := g.Param(0, ir.ModeIu)
		c := g.Param(1, ir.ModeIu)

		lo := g.NewAnd(b, a, g.NewConst(ir.ModeIu, 0xffff))
		hi := g.NewAnd(b, c, g.NewConst(ir.ModeIu, 0xffff0000))

		var or *ir.Node
		if lowFirst {
			or = g.NewOr(b, lo, hi)
		} else {
			or = g.NewOr(b, hi, lo)
		}

		ret(g, b, g.InitialMem(), or)

		r := returned(t, lower(t, g, DefaultConfig()))

		require.Equal(t, OpPkhbt, r.Op, "low first %v", lowFirst)
		assert.True(t, isParamReg(r.In[0], 0), "bottom half")
		assert.True(t, isParamReg(r.In[1], 1), "top half")
		assert.Equal(t, ShfReg, AttrOf(r).Shift)
	}
}

func mlaFunc(mulFirst bool) *ir.Graph {
	g := newFunc("mla", []tp.Type{u32, u32, u32}, []tp.Type{u32})
	b := g.StartBlock()

	mul := g.NewMul(b, g.Param(0, ir.ModeIu), g.Param(1, ir.ModeIu))
	acc := g.Param(2, ir.ModeIu)

	var add *ir.Node
	if mulFirst {
		add = g.NewAdd(b, mul, acc)
	} else {
		add = g.NewAdd(b, acc, mul)
	}

	ret(g, b, g.InitialMem(), add)

	return g
}

func TestMla(t *testing.T) {
	for _, mulFirst := range []bool{true, false} {
		r := returned(t, lower(t, mlaFunc(mulFirst), DefaultConfig()))

		require.Equal(t, OpMla, r.Op)
		require.Len(t, r.In, 3)
		assert.True(t, isParamReg(r.In[0], 0))
		assert.True(t, isParamReg(r.In[1], 1))
		assert.True(t, isParamReg(r.In[2], 2), "accumulator")

		assert.Equal(t, back.ReqClass, back.InfoOf(r).Out[0].Req.Kind())
	}

	r := returned(t, lower(t, mlaFunc(true), Config{Variant: V5T, FPU: FPUFPA}))

	require.Equal(t, OpMlaV5, r.Op)
	assert.Equal(t, back.ReqDifferent, back.InfoOf(r).Out[0].Req.Kind())
}

func mlsFunc() *ir.Graph {
	g := newFunc("mls", []tp.Type{u32, u32, u32}, []tp.Type{u32})
	b := g.StartBlock()

	mul := g.NewMul(b, g.Param(0, ir.ModeIu), g.Param(1, ir.ModeIu))
	sub := g.NewSub(b, g.Param(2, ir.ModeIu), mul)

	ret(g, b, g.InitialMem(), sub)

	return g
}

func TestMls(t *testing.T) {
	r := returned(t, lower(t, mlsFunc(), Config{Variant: V6T2, FPU: FPUFPA}))

	require.Equal(t, OpMls, r.Op)
	assert.True(t, isParamReg(r.In[2], 2))

	r = returned(t, lower(t, mlsFunc(), Config{Variant: V6, FPU: FPUFPA}))

	require.Equal(t, OpSub, r.Op)
	assert.True(t, isParamReg(r.In[0], 2))
	assert.Equal(t, OpMul, r.In[1].Op)

	r = returned(t, lower(t, mlsFunc(), Config{Variant: V5, FPU: FPUFPA}))

	require.Equal(t, OpSub, r.Op)
	assert.Equal(t, OpMulV5, r.In[1].Op)
}

func TestBinopFolding(t *testing.T) {
	g := newFunc("fold", []tp.Type{u32, u32}, []tp.Type{u32, u32, u32, u32})
	b := g.StartBlock()
	a := g.Param(0, ir.ModeIu)
	c := g.Param(1, ir.ModeIu)
	k := func(v int64) *ir.Node { return g.NewConst(ir.ModeIu, v) }

	ret(g, b, g.InitialMem(),
		g.NewAdd(b, k(0x3fc), a),
		g.NewSub(b, k(1), a),
		g.NewAdd(b, a, g.NewShl(b, c, k(3))),
		g.NewAnd(b, a, k(0xffffff00)),
	)

	l := lower(t, g, DefaultConfig())
	r := findOne(t, l.Graph, OpReturn)
	res := r.In[ReturnFirstResult:]

	add := res[0]
	require.Equal(t, OpAdd, add.Op)
	assert.Equal(t, ShfImm, AttrOf(add).Shift)
	assert.EqualValues(t, 0x3fc, AttrOf(add).Imm.Uint32())
	assert.True(t, isParamReg(add.In[0], 0))

	rsb := res[1]
	require.Equal(t, OpRsb, rsb.Op)
	assert.EqualValues(t, 1, AttrOf(rsb).Imm.Uint32())
	assert.True(t, isParamReg(rsb.In[0], 0))

	sh := res[2]
	require.Equal(t, OpAdd, sh.Op)
	assert.Equal(t, ShfLSLImm, AttrOf(sh).Shift)
	assert.EqualValues(t, 3, AttrOf(sh).ShiftImm)
	assert.True(t, isParamReg(sh.In[0], 0))
	assert.True(t, isParamReg(sh.In[1], 1))

	bic := res[3]
	require.Equal(t, OpBic, bic.Op)
	assert.EqualValues(t, 0xff, AttrOf(bic).Imm.Uint32())
}

func TestShiftModulo(t *testing.T) {
	g := newFunc("shift", []tp.Type{u32, u32}, []tp.Type{u32, u32, u32})
	b := g.StartBlock()
	a := g.Param(0, ir.ModeIu)
	y := g.Param(1, ir.ModeIu)

	ret(g, b, g.InitialMem(),
		g.NewShl(b, a, g.NewConst(ir.ModeIu, 33)),
		g.NewShr(b, a, g.NewConst(ir.ModeIu, 32)),
		g.NewShrs(b, a, y),
	)

	l := lower(t, g, DefaultConfig())
	res := findOne(t, l.Graph, OpReturn).In[ReturnFirstResult:]

	shl := res[0]
	require.Equal(t, OpMov, shl.Op)
	assert.Equal(t, ShfLSLImm, AttrOf(shl).Shift)
	assert.EqualValues(t, 1, AttrOf(shl).ShiftImm)

	assert.True(t, isParamReg(res[1], 0), "shift by 32 is modulo 32 zero")

	asr := res[2]
	require.Equal(t, OpMov, asr.Op)
	assert.Equal(t, ShfASRReg, AttrOf(asr).Shift)

	mask := asr.In[MovRs]
	require.Equal(t, OpAnd, mask.Op)
	assert.EqualValues(t, 31, AttrOf(mask).Imm.Uint32())
}

func TestNotOfShift(t *testing.T) {
	g := newFunc("mvn", []tp.Type{u32}, []tp.Type{u32})
	b := g.StartBlock()
	a := g.Param(0, ir.ModeIu)

	ret(g, b, g.InitialMem(), g.NewNot(b, g.NewShr(b, a, g.NewConst(ir.ModeIu, 4))))

	r := returned(t, lower(t, g, DefaultConfig()))

	require.Equal(t, OpMvn, r.Op)
	assert.Equal(t, ShfLSRImm, AttrOf(r).Shift)
	assert.EqualValues(t, 4, AttrOf(r).ShiftImm)
	assert.True(t, isParamReg(r.In[MovRm], 0))
}

func TestStackParams(t *testing.T) {
	g := newFunc("five", []tp.Type{i32, i32, i32, i32, i32}, []tp.Type{i32})
	b := g.StartBlock()

	sum := g.Param(0, ir.ModeIs)
	for i := 1; i < 5; i++ {
		sum = g.NewAdd(b, sum, g.Param(i, ir.ModeIs))
	}

	ret(g, b, g.InitialMem(), sum)

	l := lower(t, g, DefaultConfig())

	start := findOne(t, l.Graph, OpStart)
	info := back.InfoOf(start)

	require.Len(t, info.Out, 2+4+len(CalleeSaves))
	assert.Same(t, SP, info.Out[1].Reg)
	assert.True(t, info.Out[1].Ignore)

	for i, reg := range ParamRegs {
		assert.Same(t, reg.Single, info.Out[2+i].Req, "param %d", i)
	}

	for i, reg := range CalleeSaves {
		assert.Same(t, reg.Single, info.Out[6+i].Req, "callee save %v", reg)
	}

	ldr := findOne(t, l.Graph, OpLdr)
	a := AttrOf(ldr)

	require.NotNil(t, a.Entity)
	assert.True(t, a.FrameEntity)
	assert.Same(t, l.Layout.Args, a.Entity.Owner)
	assert.Equal(t, l.Layout.Frame.Size, l.Layout.Offset(a.Entity), "first stack param is right above the frame")
}

func TestReturnCalleeSaves(t *testing.T) {
	l := lower(t, constFunc(1), DefaultConfig())

	r := findOne(t, l.Graph, OpReturn)
	info := back.InfoOf(r)

	require.Len(t, r.In, ReturnFirstResult+1+len(CalleeSaves))
	assert.Same(t, SP.Single, info.In[ReturnSP])
	assert.Same(t, R0.Single, info.In[ReturnFirstResult])

	for i, reg := range CalleeSaves {
		in := r.In[ReturnFirstResult+1+i]

		assert.True(t, in.IsProjOf(OpStart), "%v", reg)
		assert.Same(t, reg.Single, info.In[ReturnFirstResult+1+i])
	}
}

func callFunc() (*ir.Graph, *ir.Entity) {
	callee := ir.NewEntity("callee", &tp.Func{In: []tp.Type{i32, i32, i32, i32, i32, i32}, Out: []tp.Type{i32}})

	g := newFunc("caller", []tp.Type{i32}, []tp.Type{i32})
	b := g.StartBlock()
	x := g.Param(0, ir.ModeIs)

	args := make([]*ir.Node, 6)
	for i := range args {
		args[i] = g.NewAdd(b, x, g.NewConst(ir.ModeIs, int64(i)))
	}

	call := g.NewCall(b, g.InitialMem(), g.NewAddress(callee), callee.Type.(*tp.Func), args...)
	mem := g.NewProj(call, ir.ModeM, ir.PnCallM)
	res := g.NewProj(g.NewProj(call, ir.ModeT, ir.PnCallResults), ir.ModeIs, 0)

	ret(g, b, mem, res)

	return g, callee
}

func TestCall(t *testing.T) {
	g, callee := callFunc()

	l := lower(t, g, DefaultConfig())

	bl := findOne(t, l.Graph, OpBl)
	a := AttrOf(bl)

	assert.Same(t, callee, a.Entity)

	require.Len(t, a.Out, PnBlFirstResult+len(CallerSaves))
	assert.Same(t, back.NoReq, a.Out[PnBlM].Req)
	assert.Same(t, SP, a.Out[PnBlStack].Reg)

	for _, reg := range CallerSaves {
		found := false

		for _, o := range a.Out {
			found = found || o.Req == reg.Single
		}

		assert.True(t, found, "%v is clobbered", reg)
	}

	for i, reg := range ParamRegs {
		assert.Same(t, reg.Single, a.In[2+i], "argument %d", i)
	}

	incsp := bl.In[1]
	require.Equal(t, back.OpIncSP, incsp.Op)
	assert.Equal(t, 8, back.IncSPOffset(incsp))

	stores := find(l.Graph, OpStr)
	require.Len(t, stores, 2)

	offsets := []int{AttrOf(stores[0]).Offset, AttrOf(stores[1]).Offset}
	assert.ElementsMatch(t, []int{0, 4}, offsets)

	for _, st := range stores {
		assert.Same(t, incsp, st.In[0], "stored relative to the adjusted stack")
	}

	require.Equal(t, ir.OpSync, bl.In[0].Op)

	var after *ir.Node
	for _, x := range l.Graph.End().In {
		if x.Op == back.OpIncSP {
			after = x
		}
	}

	require.NotNil(t, after, "stack restore is kept alive")
	assert.Equal(t, -8, back.IncSPOffset(after))

	res := returned(t, l)
	require.True(t, res.IsProjOf(OpBl))
	assert.Same(t, R0.Single, a.Out[res.ProjNum()].Req)

	r := findOne(t, l.Graph, OpReturn)
	assert.Same(t, after, r.In[ReturnSP], "return follows the call on the stack")
}

func TestCallIndirect(t *testing.T) {
	g := newFunc("indirect", []tp.Type{tp.Ptr{}}, nil)
	b := g.StartBlock()

	call := g.NewCall(b, g.InitialMem(), g.Param(0, ir.ModeP), &tp.Func{})
	ret(g, b, g.NewProj(call, ir.ModeM, ir.PnCallM))

	l := lower(t, g, DefaultConfig())

	c := findOne(t, l.Graph, OpLinkMovPC)
	a := AttrOf(c)

	assert.Nil(t, a.Entity)
	assert.True(t, isParamReg(c.In[a.Offset], 0))
	assert.Same(t, GP.Req, a.In[a.Offset])
}

func TestFloatParam(t *testing.T) {
	g := newFunc("fparam", []tp.Type{f64}, []tp.Type{f64})
	ret(g, g.StartBlock(), g.InitialMem(), g.Param(0, ir.ModeD))

	l := lower(t, g, DefaultConfig())

	r := returned(t, l)
	require.True(t, r.IsProjOf(OpLdf))

	ldf := r.Pred()
	assert.Equal(t, ir.ModeD, AttrOf(ldf).LoadMode)

	sync := ldf.In[1]
	require.Equal(t, ir.OpSync, sync.Op)
	require.Len(t, sync.In, 2)

	for i, st := range sync.In {
		require.Equal(t, OpStr, st.Op)
		assert.Equal(t, 4*i, AttrOf(st).Offset)
		assert.Same(t, AttrOf(ldf).Entity, AttrOf(st).Entity)
		assert.True(t, isParamReg(st.In[1], i))
	}

	assert.Same(t, l.Layout.Frame, AttrOf(ldf).Entity.Owner)
	assert.Same(t, F0.Single, back.InfoOf(findOne(t, l.Graph, OpReturn)).In[ReturnFirstResult])
}

func TestScratchSlotReused(t *testing.T) {
	g := newFunc("fparam", []tp.Type{f32}, []tp.Type{f32})
	ret(g, g.StartBlock(), g.InitialMem(), g.Param(0, ir.ModeF))

	for i := 0; i < 2; i++ {
		lower(t, g, DefaultConfig())
	}

	var n int

	for _, m := range g.FrameType.Members {
		if m.Name == scratchName {
			n++
		}
	}

	assert.Equal(t, 1, n)
}

func TestPhiLoop(t *testing.T) {
	g := newFunc("loop", []tp.Type{i32}, []tp.Type{i32})

	x := g.Param(0, ir.ModeIs)
	entry := g.NewJmp(g.StartBlock())

	header := g.NewBlock(entry)
	phi := g.NewPhi(header, ir.ModeIs, x, nil)
	inc := g.NewAdd(header, phi, g.NewConst(ir.ModeIs, 1))

	cmp := g.NewCmp(header, inc, g.NewConst(ir.ModeIs, 10), ir.RelLess)
	cond := g.NewCond(header, cmp)

	header.AddIn(g.NewProj(cond, ir.ModeX, ir.PnCondTrue))
	phi.SetIn(1, inc)

	exit := g.NewBlock(g.NewProj(cond, ir.ModeX, ir.PnCondFalse))
	ret(g, exit, g.InitialMem(), inc)

	l := lower(t, g, DefaultConfig())

	nphi := findOne(t, l.Graph, ir.OpPhi)
	add := nphi.In[1]

	require.Equal(t, OpAdd, add.Op)
	assert.Same(t, nphi, add.In[0], "loop is closed")
	assert.True(t, isParamReg(nphi.In[0], 0))

	b := findOne(t, l.Graph, OpB)
	assert.Equal(t, ir.RelLess, AttrOf(b).Relation)

	cmpn := b.In[0]
	require.Equal(t, OpCmp, cmpn.Op)
	assert.False(t, AttrOf(cmpn).Unsigned)

	ir.Walk(l.Graph, func(n *ir.Node) {
		for _, x := range n.In {
			assert.Same(t, l.Graph, x.Graph())
		}
	}, nil)
}

func TestTableComplete(t *testing.T) {
	assert.Empty(t, table.Missing())
	assert.NotPanics(t, func() { newTable() })
}

func TestUnsupported(t *testing.T) {
	for _, tc := range []struct {
		name string
		g    func() *ir.Graph
		cfg  Config
		err  error
	}{
		{"int_div", func() *ir.Graph {
			g := newFunc("div", []tp.Type{i32, i32}, []tp.Type{i32})
			b := g.StartBlock()

			div := g.NewDiv(b, g.InitialMem(), g.Param(0, ir.ModeIs), g.Param(1, ir.ModeIs), ir.ModeIs)
			ret(g, b, g.NewProj(div, ir.ModeM, ir.PnDivM), g.NewProj(div, ir.ModeIs, ir.PnDivRes))

			return g
		}, DefaultConfig(), back.ErrUnsupported},
		{"soft_float", func() *ir.Graph {
			g := newFunc("fadd", []tp.Type{f32, f32}, []tp.Type{f32})
			b := g.StartBlock()

			ret(g, b, g.InitialMem(), g.NewAdd(b, g.Param(0, ir.ModeF), g.Param(1, ir.ModeF)))

			return g
		}, Config{Variant: V7, FPU: FPUSoft}, back.ErrUnsupported},
		{"clz_v4", func() *ir.Graph {
			g := newFunc("clz", []tp.Type{u32}, []tp.Type{u32})
			b := g.StartBlock()

			clz := g.NewBuiltin(b, g.InitialMem(), ir.BuiltinClz, &tp.Func{In: []tp.Type{u32}, Out: []tp.Type{u32}}, g.Param(0, ir.ModeIu))
			ret(g, b, g.NewProj(clz, ir.ModeM, ir.PnBuiltinM), g.NewProj(clz, ir.ModeIu, ir.PnBuiltinRes))

			return g
		}, Config{Variant: V4, FPU: FPUFPA}, back.ErrUnsupported},
		{"float_to_int", func() *ir.Graph {
			g := newFunc("ftoi", []tp.Type{f64}, []tp.Type{i32})
			b := g.StartBlock()

			ret(g, b, g.InitialMem(), g.NewConv(b, g.Param(0, ir.ModeD), ir.ModeIs))

			return g
		}, DefaultConfig(), back.ErrUnsupported},
		{"wide_param", func() *ir.Graph {
			return newFunc("wide", []tp.Type{tp.Int{Bits: 64}}, nil)
		}, DefaultConfig(), ErrCallingConvention},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TransformGraph(context.Background(), tc.g(), tc.cfg)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestClz(t *testing.T) {
	g := newFunc("clz", []tp.Type{u32}, []tp.Type{u32})
	b := g.StartBlock()

	clz := g.NewBuiltin(b, g.InitialMem(), ir.BuiltinClz, &tp.Func{In: []tp.Type{u32}, Out: []tp.Type{u32}}, g.Param(0, ir.ModeIu))
	ret(g, b, g.NewProj(clz, ir.ModeM, ir.PnBuiltinM), g.NewProj(clz, ir.ModeIu, ir.PnBuiltinRes))

	l := lower(t, g, Config{Variant: V5T, FPU: FPUFPA})

	r := returned(t, l)
	require.Equal(t, OpClz, r.Op)
	assert.True(t, isParamReg(r.In[0], 0))

	mem := findOne(t, l.Graph, OpReturn).In[ReturnMem]
	assert.True(t, mem.IsProjOf(OpStart), "clz doesn't touch memory")
}
