package arm

import (
	"fmt"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

// newStackLayout creates the incoming argument area for stack passed parameters.
func (t *transformer) newStackLayout() *back.StackLayout {
	args := ir.NewCompound(t.Old.Name() + "_arg_type")

	for i := range t.cc.Params {
		p := &t.cc.Params[i]
		if !p.OnStack() {
			continue
		}

		p.Entity = args.NewMember(fmt.Sprintf("param_%d", i), p.Type)
		p.Entity.Offset = p.Offset
	}

	args.Layout()

	between := ir.NewCompound("arm_between_type")
	between.Layouted = true

	return back.NewStackLayout(t.Old.FrameType, between, args)
}

func (t *transformer) startOut(reg *back.Register) *back.StartOut {
	s, ok := t.startVals[reg]
	if !ok {
		s = &back.StartOut{}
		t.startVals[reg] = s
	}

	return s
}

// startValue is the value reg had at the function entry.
func (t *transformer) startValue(reg *back.Register) *ir.Node {
	t.Transform(t.Old.Start())

	return back.StartProj(t.New, t.startOut(reg))
}

func (t *transformer) initialMem() *ir.Node {
	t.Transform(t.Old.Start())

	return back.StartProj(t.New, &t.startMem)
}

func (t *transformer) genStart(n *ir.Node) *ir.Node {
	block := t.Block(n)

	outs := 2 + t.cc.NParamRegs + len(CalleeSaves)
	start := t.debug(n, NewStart(t.New, block, outs))

	o := 0

	back.MakeStartMem(&t.startMem, start, o)
	o++

	back.MakeStartOut(t.startOut(SP), start, o, SP, true)
	o++

	for _, p := range t.cc.Params {
		for _, reg := range [...]*back.Register{p.Reg0, p.Reg1} {
			if reg == nil {
				continue
			}

			back.MakeStartOut(t.startOut(reg), start, o, reg, false)
			o++
		}
	}

	t.calleeSavesPos = o

	info := back.InfoOf(start)

	for _, reg := range CalleeSaves {
		info.Out[o] = back.OutInfo{Req: reg.Single, Reg: reg}
		o++
	}

	if o != outs {
		back.Fatalf(n, "start has %d results, %d declared", o, outs)
	}

	return start
}

const scratchName = "arm_conv_scratch"

// scratchSlot is the frame location for moving values between register classes.
func (t *transformer) scratchSlot() *ir.Entity {
	if t.scratch != nil {
		return t.scratch
	}

	for _, m := range t.Old.FrameType.Members {
		if m.Name == scratchName {
			t.scratch = m
			return m
		}
	}

	t.scratch = t.Old.FrameType.NewMember(scratchName, tp.Float{Bits: 64})

	return t.scratch
}

func (t *transformer) intsToDouble(n, block, lo, hi *ir.Node) *ir.Node {
	g := t.New
	frame := t.Transform(t.Old.Frame())
	nomem := t.Transform(t.Old.NoMem())
	slot := t.scratchSlot()

	s0 := t.debug(n, NewStore(g, block, OpStr, frame, lo, nomem, ModeGP, slot, 0, true))
	s1 := t.debug(n, NewStore(g, block, OpStr, frame, hi, nomem, ModeGP, slot, 4, true))
	sync := g.NewSync(block, s0, s1)

	ldf := t.debug(n, NewLoad(g, block, OpLdf, frame, sync, ir.ModeD, slot, 0, true))

	return g.NewProj(ldf, ModeFP, PnLdfRes)
}

func (t *transformer) intToFloat(n, block, x *ir.Node) *ir.Node {
	g := t.New
	frame := t.Transform(t.Old.Frame())
	nomem := t.Transform(t.Old.NoMem())
	slot := t.scratchSlot()

	str := t.debug(n, NewStore(g, block, OpStr, frame, x, nomem, ModeGP, slot, 0, true))
	ldf := t.debug(n, NewLoad(g, block, OpLdf, frame, str, ir.ModeF, slot, 0, true))

	return g.NewProj(ldf, ModeFP, PnLdfRes)
}

func (t *transformer) floatToInt(n, block, x *ir.Node) *ir.Node {
	g := t.New
	frame := t.Transform(t.Old.Frame())
	nomem := t.Transform(t.Old.NoMem())
	slot := t.scratchSlot()

	stf := t.debug(n, NewStore(g, block, OpStf, frame, x, nomem, ir.ModeF, slot, 0, true))
	ldr := t.debug(n, NewLoad(g, block, OpLdr, frame, stf, ModeGP, slot, 0, true))

	return g.NewProj(ldr, ModeGP, PnLdrRes)
}

func (t *transformer) doubleToInts(n, block, x *ir.Node) (lo, hi *ir.Node) {
	g := t.New
	frame := t.Transform(t.Old.Frame())
	nomem := t.Transform(t.Old.NoMem())
	slot := t.scratchSlot()

	stf := t.debug(n, NewStore(g, block, OpStf, frame, x, nomem, ir.ModeD, slot, 0, true))
	l0 := t.debug(n, NewLoad(g, block, OpLdr, frame, stf, ModeGP, slot, 0, true))
	l1 := t.debug(n, NewLoad(g, block, OpLdr, frame, stf, ModeGP, slot, 4, true))

	return g.NewProj(l0, ModeGP, PnLdrRes), g.NewProj(l1, ModeGP, PnLdrRes)
}

func (t *transformer) genProjStart(n *ir.Node) *ir.Node {
	switch n.ProjNum() {
	case ir.PnStartM:
		return t.initialMem()
	case ir.PnStartFrame:
		return t.startValue(SP)
	case ir.PnStartArgs:
		return t.New.NewNode(t.Block(n), ir.OpBad, ir.ModeT, nil)
	}

	back.Fatalf(n, "unexpected Start proj %d", n.ProjNum())

	return nil
}

// genProjProjStart reads a function parameter.
func (t *transformer) genProjProjStart(n *ir.Node) *ir.Node {
	if n.Pred().ProjNum() != ir.PnStartArgs {
		back.Fatalf(n, "Proj of Start proj %d", n.Pred().ProjNum())
	}

	pn := n.ProjNum()
	if pn >= len(t.cc.Params) {
		back.Fatalf(n, "parameter %d of %d", pn, len(t.cc.Params))
	}

	block := t.Block(n)
	p := &t.cc.Params[pn]

	if p.Reg0 == nil {
		return t.loadParam(n, block, p, ir.ModeOf(p.Type))
	}

	v := t.startValue(p.Reg0)

	if _, ok := p.Type.(tp.Float); !ok && !p.Split {
		return v
	}

	switch {
	case p.Reg1 != nil:
		return t.intsToDouble(n, block, v, t.startValue(p.Reg1))
	case p.Split:
		return t.intsToDouble(n, block, v, t.loadParam(n, block, p, ModeGP))
	}

	return t.intToFloat(n, block, v)
}

// loadParam loads the stack resident part of parameter p.
func (t *transformer) loadParam(n, block *ir.Node, p *Slot, mode *ir.Mode) *ir.Node {
	g := t.New
	frame := t.Transform(t.Old.Frame())
	mem := t.initialMem()

	if mode.IsFloat() {
		t.needFPA(n)

		ld := t.debug(n, NewLoad(g, block, OpLdf, frame, mem, mode, p.Entity, 0, true))

		return g.NewProj(ld, ModeFP, PnLdfRes)
	}

	ld := t.debug(n, NewLoad(g, block, OpLdr, frame, mem, mode, p.Entity, 0, true))

	return g.NewProj(ld, ModeGP, PnLdrRes)
}

// stackPointerFor is the stack pointer value before stack consumer n.
func (t *transformer) stackPointerFor(n *ir.Node) *ir.Node {
	pred := t.stack.Pred(n)
	if pred == nil {
		return t.startValue(SP)
	}

	t.Transform(pred)

	if sp, ok := t.nodeToStack[pred]; ok {
		return sp
	}

	return t.stackPointerFor(pred)
}

func (t *transformer) genReturn(n *ir.Node) *ir.Node {
	block := t.Block(n)
	mem := t.Transform(n.In[0])
	sp := t.stackPointerFor(n)

	res := ir.ReturnResults(n)
	if len(res) != len(t.cc.Results) {
		back.Fatalf(n, "%d results returned, %d declared", len(res), len(t.cc.Results))
	}

	in := []*ir.Node{mem, sp}
	reqs := []*back.Req{back.NoReq, SP.Single}

	for i, r := range res {
		in = append(in, t.Transform(r))
		reqs = append(reqs, t.cc.Results[i].Reg0.Single)
	}

	start := t.Transform(t.Old.Start())

	for i, reg := range CalleeSaves {
		in = append(in, t.New.NewProj(start, reg.Cls.Mode, t.calleeSavesPos+i))
		reqs = append(reqs, reg.Single)
	}

	return t.debug(n, NewReturn(t.New, block, in, reqs))
}

// callConv is the calling convention of call site n.
// It lives until the function lowering ends.
func (t *transformer) callConv(n *ir.Node) *CallingConvention {
	if cc, ok := t.calls[n]; ok {
		return cc
	}

	cc, err := DecideCallingConvention(n.Attr.(*tp.Func))
	if err != nil {
		back.Unsupportedf(n, "%v", err)
	}

	t.calls[n] = cc

	return cc
}

func (t *transformer) genCall(n *ir.Node) *ir.Node {
	g := t.New
	block := t.Block(n)
	mem := t.Transform(n.In[ir.CallMem])
	cc := t.callConv(n)
	args := ir.CallArgs(n)

	if len(args) != len(cc.Params) {
		back.Fatalf(n, "%d arguments passed, %d declared", len(args), len(cc.Params))
	}

	sp := t.stackPointerFor(n)
	incsp := back.NewIncSP(g, SP, block, sp, cc.ParamStackSize, StackAlign)

	in := []*ir.Node{nil, incsp}
	reqs := []*back.Req{back.NoReq, SP.Single}

	var stores []*ir.Node

	for i, arg := range args {
		p := &cc.Params[i]
		v := t.Transform(arg)
		mode := arg.Mode

		var hi *ir.Node

		if mode.IsFloat() && p.Reg0 != nil {
			t.needFPA(n)

			if mode.Bits == 64 {
				v, hi = t.doubleToInts(n, block, v)
			} else {
				v = t.floatToInt(n, block, v)
			}
		}

		if p.Reg0 != nil {
			in = append(in, v)
			reqs = append(reqs, p.Reg0.Single)

			if hi == nil {
				continue
			}
		}

		if p.Reg1 != nil {
			in = append(in, hi)
			reqs = append(reqs, p.Reg1.Single)

			continue
		}

		op := OpStr

		switch {
		case hi != nil:
			v = hi
			mode = ModeGP
		case mode.IsFloat():
			op = OpStf
		}

		st := t.debug(n, NewStore(g, block, op, incsp, v, mem, mode, nil, p.Offset, true))
		stores = append(stores, st)
	}

	switch len(stores) {
	case 0:
		in[0] = mem
	case 1:
		in[0] = stores[0]
	default:
		in[0] = g.NewSync(block, stores...)
	}

	var ent *ir.Entity
	calleePos := 0

	if callee := n.In[ir.CallPtr]; callee.Op == ir.OpAddress {
		ent = callee.Entity()
	} else {
		calleePos = len(in)
		in = append(in, t.Transform(callee))
		reqs = append(reqs, GP.Req)
	}

	call := t.debug(n, NewCall(g, block, in, reqs, PnBlFirstResult+len(CallerSaves), ent, calleePos))

	info := back.InfoOf(call)
	info.Out[PnBlM] = back.OutInfo{Req: back.NoReq}
	info.Out[PnBlStack] = back.InfoOf(incsp).Out[0]

	for i, reg := range CallerSaves {
		info.Out[PnBlFirstResult+i].Req = reg.Single
	}

	stack := g.NewProj(call, ModeGP, PnBlStack)
	after := back.NewIncSP(g, SP, block, stack, -cc.ParamStackSize, 0)

	// the stack adjustment must survive even if nothing uses it
	g.KeepAlive(after)

	t.nodeToStack[n] = after

	return call
}

func (t *transformer) genProjCall(n *ir.Node) *ir.Node {
	if n.ProjNum() != ir.PnCallM {
		back.Fatalf(n, "unexpected Call proj %d", n.ProjNum())
	}

	call := t.Transform(n.Pred())

	return t.New.NewProj(call, ir.ModeM, PnBlM)
}

// genProjProjCall selects a call result from the clobbered registers.
func (t *transformer) genProjProjCall(n *ir.Node) *ir.Node {
	old := n.Pred().Pred()
	call := t.Transform(old)
	cc := t.callConv(old)

	pn := n.ProjNum()
	if pn >= len(cc.Results) {
		back.Fatalf(n, "result %d of %d", pn, len(cc.Results))
	}

	reg := cc.Results[pn].Reg0

	for i, o := range back.InfoOf(call).Out {
		if o.Req == reg.Single {
			return t.New.NewProj(call, reg.Cls.Mode, i)
		}
	}

	back.Fatalf(n, "no call result in %v", reg)

	return nil
}

func (t *transformer) genProjProj(n *ir.Node) *ir.Node {
	switch pp := n.Pred().Pred(); pp.Op {
	case ir.OpCall:
		return t.genProjProjCall(n)
	case ir.OpStart:
		return t.genProjProjStart(n)
	default:
		back.Fatalf(n, "unexpected Proj of Proj of %v", pp)
	}

	return nil
}

func (t *transformer) genProjLoad(n *ir.Node) *ir.Node {
	old := n.Pred()
	ld := t.Transform(old)

	switch ld.Op {
	case OpLdr:
		switch n.ProjNum() {
		case ir.PnLoadRes:
			return t.New.NewProj(ld, ModeGP, PnLdrRes)
		case ir.PnLoadM:
			return t.New.NewProj(ld, ir.ModeM, PnLdrM)
		}
	case OpLdf:
		switch n.ProjNum() {
		case ir.PnLoadRes:
			return t.New.NewProj(ld, ModeFP, PnLdfRes)
		case ir.PnLoadM:
			return t.New.NewProj(ld, ir.ModeM, PnLdfM)
		}
	}

	back.Fatalf(n, "unsupported Proj %d from %v", n.ProjNum(), ld)

	return nil
}

func (t *transformer) genProjStore(n *ir.Node) *ir.Node {
	if n.ProjNum() != ir.PnStoreM {
		back.Fatalf(n, "unsupported Proj %d from Store", n.ProjNum())
	}

	return t.Transform(n.Pred())
}

func (t *transformer) genProjDiv(n *ir.Node) *ir.Node {
	dvf := t.Transform(n.Pred())

	switch n.ProjNum() {
	case ir.PnDivM:
		return t.New.NewProj(dvf, ir.ModeM, PnDvfM)
	case ir.PnDivRes:
		return t.New.NewProj(dvf, ModeFP, PnDvfRes)
	}

	back.Fatalf(n, "unsupported Proj %d from Div", n.ProjNum())

	return nil
}

func (t *transformer) genProjBuiltin(n *ir.Node) *ir.Node {
	old := n.Pred()

	switch n.ProjNum() {
	case ir.PnBuiltinRes:
		return t.Transform(old)
	case ir.PnBuiltinM:
		// clz doesn't touch memory
		return t.Transform(old.In[0])
	}

	back.Fatalf(n, "unsupported Proj %d from Builtin", n.ProjNum())

	return nil
}

func (t *transformer) genProjAddST(n *ir.Node) *ir.Node {
	x := t.Transform(n.Pred())

	switch n.ProjNum() {
	case PnAddSTRes:
		return t.New.NewProj(x, ModeGP, PnAddSRes)
	case PnAddSTFlags:
		return t.New.NewProj(x, ModeFlags, PnAddSFlags)
	}

	back.Fatalf(n, "invalid proj number %d", n.ProjNum())

	return nil
}

func (t *transformer) genProjSubST(n *ir.Node) *ir.Node {
	x := t.Transform(n.Pred())

	switch n.ProjNum() {
	case PnSubSTRes:
		return t.New.NewProj(x, ModeGP, PnSubSRes)
	case PnSubSTFlags:
		return t.New.NewProj(x, ModeFlags, PnSubSFlags)
	}

	back.Fatalf(n, "invalid proj number %d", n.ProjNum())

	return nil
}

func (t *transformer) genProjUMulLT(n *ir.Node) *ir.Node {
	x := t.Transform(n.Pred())

	switch n.ProjNum() {
	case PnUMulLTLow:
		return t.New.NewProj(x, ModeGP, PnUMulLLow)
	case PnUMulLTHigh:
		return t.New.NewProj(x, ModeGP, PnUMulLHigh)
	}

	back.Fatalf(n, "invalid proj number %d", n.ProjNum())

	return nil
}
