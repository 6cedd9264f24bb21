package arm

import (
	"math/bits"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// transformer is the state of lowering one function.
	transformer struct {
		*back.Env[*transformer]

		cfg Config

		cc     *CallingConvention
		calls  map[*ir.Node]*CallingConvention
		stack  *back.StackOrder
		layout *back.StackLayout

		// nodeToStack maps source Calls to the stack pointer after them.
		nodeToStack map[*ir.Node]*ir.Node

		startMem       back.StartOut
		startVals      map[*back.Register]*back.StartOut
		calleeSavesPos int

		scratch *ir.Entity
	}

	matchFlags uint8

	// binopOps are the instruction and its reversed operands variant.
	binopOps [2]ir.Op
)

const (
	matchCommutative matchFlags = 1 << iota
	matchReverse
	matchSizeNeutral

	matchNone matchFlags = 0
)

var (
	addOps    = binopOps{OpAdd, OpAdd}
	andOps    = binopOps{OpAnd, OpAnd}
	bicOps    = binopOps{OpBic, OpBic}
	eorOps    = binopOps{OpEor, OpEor}
	orrOps    = binopOps{OpOrr, OpOrr}
	subRsbOps = binopOps{OpSub, OpRsb}
	pkhOps    = binopOps{OpPkhbt, OpPkhtb}
	addsOps   = binopOps{OpAddS, OpAddS}
	subsOps   = binopOps{OpSubS, OpRsbS}
)

func (t *transformer) g() *ir.Graph { return t.New }

func encodeConst(n *ir.Node) (Imm, bool) {
	if !n.IsConst() {
		return Imm{}, false
	}

	return EncodeImm(uint32(n.Const().Int))
}

func encodeNotConst(n *ir.Node) (Imm, bool) {
	if !n.IsConst() {
		return Imm{}, false
	}

	return EncodeImm(^uint32(n.Const().Int))
}

// foldable returns the operand of Mov n if it can be merged into its user.
func foldable(n *ir.Node) (Operand, bool) {
	if !IsMov(n) {
		return Operand{}, false
	}

	a := AttrOf(n)

	switch {
	case a.Shift == ShfImm, a.Shift.IsImmShift(), a.Shift.IsRegShift():
		return a.Operand(n), true
	case a.Shift == ShfInvalid:
		back.Fatalf(n, "invalid shift")
	}

	return Operand{}, false
}

// matchBinop chooses the cheapest operand form of binary operation op1 op op2.
func (t *transformer) matchBinop(op1, op2 *ir.Node, flags matchFlags, ops binopOps) (ir.Op, *ir.Node, Operand) {
	if flags&matchSizeNeutral != 0 {
		op1 = back.SkipDownconv(t, op1, true)
		op2 = back.SkipDownconv(t, op2, true)
	} else {
		op1 = back.SkipSameconv(t, op1)
		op2 = back.SkipSameconv(t, op2)
	}

	if imm, ok := encodeConst(op2); ok {
		return ops[0], t.Transform(op1), ImmOperand(imm)
	}

	new2 := t.Transform(op2)

	rev := 0
	if flags&matchReverse != 0 {
		rev = 1
	}

	swappable := flags&(matchCommutative|matchReverse) != 0

	if swappable {
		if imm, ok := encodeConst(op1); ok {
			return ops[rev], new2, ImmOperand(imm)
		}
	}

	new1 := t.Transform(op1)

	if o, ok := foldable(new2); ok {
		return ops[0], new1, o
	}

	if swappable {
		if o, ok := foldable(new1); ok {
			return ops[rev], new2, o
		}
	}

	return ops[0], new1, RegOperand(new2)
}

func (t *transformer) genIntBinopOps(n, op1, op2 *ir.Node, flags matchFlags, ops binopOps) *ir.Node {
	op, left, o := t.matchBinop(op1, op2, flags, ops)

	return t.debug(n, NewBinop(t.g(), t.Block(n), op, left, o))
}

func (t *transformer) genIntBinop(n *ir.Node, flags matchFlags, ops binopOps) *ir.Node {
	return t.genIntBinopOps(n, n.In[0], n.In[1], flags, ops)
}

func (t *transformer) debug(old, n *ir.Node) *ir.Node {
	n.Dbg = old.Dbg
	return n
}

// needFPA fails lowering of n if there is no floating point hardware.
func (t *transformer) needFPA(n *ir.Node) {
	if t.cfg.FPU != FPUFPA {
		back.Unsupportedf(n, "softfloat not lowered")
	}
}

// constValue materializes v by Mov and Orr or by Mvn and Bic, whichever is shorter.
func (t *transformer) constValue(n, block *ir.Node, v uint32) *ir.Node {
	up := valsFromWord(v)
	down := valsFromWord(^v)

	var r *ir.Node

	if down.n < up.n {
		r = t.debug(n, NewMov(t.g(), block, OpMvn, ImmOperand(down.imms[0])))

		for _, imm := range down.imms[1:down.n] {
			r = t.debug(n, NewBinop(t.g(), block, OpBic, r, ImmOperand(imm)))
		}

		return r
	}

	r = t.debug(n, NewMov(t.g(), block, OpMov, ImmOperand(up.imms[0])))

	for _, imm := range up.imms[1:up.n] {
		r = t.debug(n, NewBinop(t.g(), block, OpOrr, r, ImmOperand(imm)))
	}

	return r
}

func (t *transformer) zeroExtension(n, block, op *ir.Node, srcBits int) *ir.Node {
	switch srcBits {
	case 8:
		return t.debug(n, NewBinop(t.g(), block, OpAnd, op, ImmOperand(Imm{Value: 0xff})))
	case 16:
		l := t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(op, ShfLSLImm, 16)))

		return t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(l, ShfLSRImm, 16)))
	}

	back.Unsupportedf(n, "zero extension of %d bits", srcBits)

	return nil
}

func (t *transformer) signExtension(n, block, op *ir.Node, srcBits int) *ir.Node {
	w := uint8(32 - srcBits)

	l := t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(op, ShfLSLImm, w)))

	return t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(l, ShfASRImm, w)))
}

func (t *transformer) extension(n, block, op *ir.Node, mode *ir.Mode) *ir.Node {
	if mode.Bits == 32 {
		return op
	}

	if mode.Signed {
		return t.signExtension(n, block, op, mode.Bits)
	}

	return t.zeroExtension(n, block, op, mode.Bits)
}

// genRor rotates x right by amount, or by width minus amount if negate is set.
func (t *transformer) genRor(n, x, amount *ir.Node, negate bool) *ir.Node {
	block := t.Block(n)
	nx := t.Transform(x)

	if amount.IsConst() {
		v := amount.Const().Int
		if negate {
			v = 32 - v
		}

		// ror #0 encodes rrx
		if v&31 == 0 {
			return nx
		}

		return t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(nx, ShfRORImm, uint8(v&31))))
	}

	na := t.Transform(amount)
	if negate {
		na = t.debug(n, NewBinop(t.g(), block, OpRsb, na, ImmOperand(Imm{Value: 32})))
	}

	return t.debug(n, NewMov(t.g(), block, OpMov, ShiftRegOperand(nx, na, ShfRORReg)))
}

// matchRotl lowers left rotations written as a pair of shifts.
func (t *transformer) matchRotl(n *ir.Node) *ir.Node {
	if n.Mode.Bits != 32 {
		return nil
	}

	x, amount, ok := back.PatternIsRotl(n)
	if !ok {
		return nil
	}

	switch {
	case amount.Op == ir.OpMinus:
		return t.genRor(n, x, amount.In[0], false)
	case amount.Op == ir.OpSub && back.IsWidthComplement(amount, amount.In[1], 32):
		return t.genRor(n, x, amount.In[1], false)
	}

	return t.genRor(n, x, amount, true)
}

func isLowMask(n *ir.Node) bool {
	v := uint32(n.Const().Int)
	return bits.OnesCount32(v) == 16 && 31-bits.LeadingZeros32(v) == 15
}

func isHighMask(n *ir.Node) bool {
	v := uint32(n.Const().Int)
	return bits.OnesCount32(v) == 16 && bits.TrailingZeros32(v) == 16
}

// matchPkh lowers a combination of a low and a high halfword into one pack.
func (t *transformer) matchPkh(n *ir.Node) *ir.Node {
	left, right := n.In[0], n.In[1]
	if left.Op != ir.OpAnd || right.Op != ir.OpAnd {
		return nil
	}

	lc, rc := left.In[1], right.In[1]
	if !lc.IsConst() || !rc.IsConst() {
		return nil
	}

	if isHighMask(lc) {
		left, right = right, left
		lc = rc
	} else if !isHighMask(rc) {
		return nil
	}

	if !isLowMask(lc) {
		return nil
	}

	return t.genIntBinopOps(n, left.In[0], right.In[0], matchReverse, pkhOps)
}

func (t *transformer) genAdd(n *ir.Node) *ir.Node {
	if r := t.matchRotl(n); r != nil {
		return r
	}

	if n.Mode.IsInt() {
		if r := t.matchPkh(n); r != nil {
			return r
		}
	}

	left, right := n.In[0], n.In[1]

	if n.Mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewFloatBinop(t.g(), t.Block(n), OpAdf, t.Transform(left), t.Transform(right), n.Mode))
	}

	mul, other := left, right
	if mul.Op != ir.OpMul {
		mul, other = right, left
	}

	if mul.Op == ir.OpMul {
		block := t.Block(n)
		a := t.Transform(mul.In[0])
		b := t.Transform(mul.In[1])
		c := t.Transform(other)

		op := OpMla
		if t.cfg.Variant < V6 {
			op = OpMlaV5
		}

		return t.debug(n, NewMul(t.g(), block, op, a, b, c))
	}

	return t.genIntBinop(n, matchCommutative|matchSizeNeutral, addOps)
}

func (t *transformer) genSub(n *ir.Node) *ir.Node {
	left, right := n.In[0], n.In[1]

	if n.Mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewFloatBinop(t.g(), t.Block(n), OpSuf, t.Transform(left), t.Transform(right), n.Mode))
	}

	if right.Op == ir.OpMul && t.cfg.Variant >= V6T2 {
		block := t.Block(n)
		a := t.Transform(right.In[0])
		b := t.Transform(right.In[1])
		c := t.Transform(left)

		return t.debug(n, NewMul(t.g(), block, OpMls, a, b, c))
	}

	return t.genIntBinop(n, matchSizeNeutral|matchReverse, subRsbOps)
}

func (t *transformer) genMul(n *ir.Node) *ir.Node {
	block := t.Block(n)
	a := t.Transform(n.In[0])
	b := t.Transform(n.In[1])

	if n.Mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewFloatBinop(t.g(), block, OpMuf, a, b, n.Mode))
	}

	op := OpMul
	if t.cfg.Variant < V6 {
		op = OpMulV5
	}

	return t.debug(n, NewMul(t.g(), block, op, a, b))
}

func (t *transformer) genDiv(n *ir.Node) *ir.Node {
	mode := n.Attr.(ir.DivAttr).ResMode

	if !mode.IsFloat() {
		back.Unsupportedf(n, "integer division must be lowered to a call")
	}

	t.needFPA(n)

	block := t.Block(n)
	a := t.Transform(n.In[1])
	b := t.Transform(n.In[2])

	return t.debug(n, NewDvf(t.g(), block, a, b, mode))
}

func (t *transformer) genAnd(n *ir.Node) *ir.Node {
	left, right := n.In[0], n.In[1]

	switch {
	case right.Op == ir.OpNot:
		return t.genIntBinopOps(n, left, right.In[0], matchSizeNeutral, bicOps)
	case left.Op == ir.OpNot:
		return t.genIntBinopOps(n, right, left.In[0], matchSizeNeutral, bicOps)
	}

	if imm, ok := encodeNotConst(right); ok {
		block := t.Block(n)
		l := t.Transform(left)

		return t.debug(n, NewBinop(t.g(), block, OpBic, l, ImmOperand(imm)))
	}

	return t.genIntBinop(n, matchCommutative|matchSizeNeutral, andOps)
}

func (t *transformer) genOr(n *ir.Node) *ir.Node {
	if r := t.matchRotl(n); r != nil {
		return r
	}

	if r := t.matchPkh(n); r != nil {
		return r
	}

	return t.genIntBinop(n, matchCommutative|matchSizeNeutral, orrOps)
}

func (t *transformer) genEor(n *ir.Node) *ir.Node {
	return t.genIntBinop(n, matchCommutative|matchSizeNeutral, eorOps)
}

func canUseShiftConstant(v int64, mod ShiftMod) bool {
	if v >= 0 && v <= 31 {
		return true
	}

	return v == 32 && mod != ShfLSLReg && mod != ShfRORReg
}

// makeShift lowers a shift into Mov with a shifted operand.
func (t *transformer) makeShift(n *ir.Node, flags matchFlags, mod ShiftMod) *ir.Node {
	block := t.Block(n)
	op1, op2 := n.In[0], n.In[1]

	modulo := n.Mode.ModuloShift
	if modulo != 256 && modulo != 32 {
		back.Unsupportedf(n, "shift modulo %d", modulo)
	}

	if flags&matchSizeNeutral != 0 {
		op1 = back.SkipDownconv(t, op1, true)
		op2 = back.SkipDownconv(t, op2, true)
	}

	x := t.Transform(op1)

	if op2.IsConst() {
		v := op2.Const().Int
		if modulo == 32 {
			v &= 31
		}

		if v == 0 {
			return x
		}

		if canUseShiftConstant(v, mod) {
			return t.debug(n, NewMov(t.g(), block, OpMov, ShiftImmOperand(x, mod.ImmShift(), uint8(v))))
		}
	}

	amount := t.Transform(op2)

	// register shifts use 8 bits of the amount
	if modulo == 32 {
		amount = t.debug(n, NewBinop(t.g(), block, OpAnd, amount, ImmOperand(Imm{Value: 31})))
	}

	return t.debug(n, NewMov(t.g(), block, OpMov, ShiftRegOperand(x, amount, mod)))
}

func (t *transformer) genShl(n *ir.Node) *ir.Node {
	return t.makeShift(n, matchSizeNeutral, ShfLSLReg)
}

func (t *transformer) genShr(n *ir.Node) *ir.Node {
	return t.makeShift(n, matchNone, ShfLSRReg)
}

func (t *transformer) genShrs(n *ir.Node) *ir.Node {
	return t.makeShift(n, matchNone, ShfASRReg)
}

func (t *transformer) genNot(n *ir.Node) *ir.Node {
	block := t.Block(n)
	x := t.Transform(n.In[0])

	if o, ok := foldable(x); ok {
		return t.debug(n, NewMov(t.g(), block, OpMvn, o))
	}

	return t.debug(n, NewMov(t.g(), block, OpMvn, RegOperand(x)))
}

func (t *transformer) genMinus(n *ir.Node) *ir.Node {
	block := t.Block(n)
	x := t.Transform(n.In[0])

	if n.Mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewFloatUnop(t.g(), block, OpMnf, x, n.Mode))
	}

	return t.debug(n, NewBinop(t.g(), block, OpRsb, x, ImmOperand(Imm{})))
}

func (t *transformer) genConv(n *ir.Node) *ir.Node {
	block := t.Block(n)
	op := n.In[0]
	x := t.Transform(op)

	src, dst := op.Mode, n.Mode
	if src == dst {
		return x
	}

	if src.IsFloat() || dst.IsFloat() {
		t.needFPA(n)

		switch {
		case src.IsFloat() && dst.IsFloat():
			return t.debug(n, NewFloatUnop(t.g(), block, OpMvf, x, dst))
		case src.IsFloat():
			back.Unsupportedf(n, "conversion from float to int")
		case !src.Signed:
			back.Unsupportedf(n, "conversion from unsigned int to float")
		}

		return t.debug(n, NewFloatUnop(t.g(), block, OpFltX, x, dst))
	}

	if src.Bits == dst.Bits {
		return x
	}

	narrow := src
	if dst.Bits < src.Bits {
		narrow = dst
	}

	if back.UpperBitsClean(op, narrow) {
		return x
	}

	if narrow.Signed {
		return t.signExtension(n, block, x, narrow.Bits)
	}

	return t.zeroExtension(n, block, x, narrow.Bits)
}

func (t *transformer) genLoad(n *ir.Node) *ir.Node {
	a := n.Attr.(*ir.LoadAttr)
	if a.Unaligned {
		back.Unsupportedf(n, "unaligned Loads")
	}

	block := t.Block(n)
	ptr := t.Transform(n.In[ir.MemPtr])
	mem := t.Transform(n.In[ir.MemMem])

	op := OpLdr
	if a.Mode.IsFloat() {
		t.needFPA(n)

		op = OpLdf
	} else if !a.Mode.IsData() {
		back.Fatalf(n, "unsupported load mode %v", a.Mode)
	}

	return t.debug(n, NewLoad(t.g(), block, op, ptr, mem, a.Mode, nil, 0, false))
}

func (t *transformer) genStore(n *ir.Node) *ir.Node {
	a := n.Attr.(*ir.StoreAttr)
	if a.Unaligned {
		back.Unsupportedf(n, "unaligned Stores")
	}

	block := t.Block(n)
	ptr := t.Transform(n.In[ir.MemPtr])
	mem := t.Transform(n.In[ir.MemMem])
	val := n.In[ir.MemVal]
	nv := t.Transform(val)

	op := OpStr
	if val.Mode.IsFloat() {
		t.needFPA(n)

		op = OpStf
	} else if !val.Mode.IsData() {
		back.Fatalf(n, "unsupported store mode %v", val.Mode)
	}

	return t.debug(n, NewStore(t.g(), block, op, ptr, nv, mem, val.Mode, nil, 0, false))
}

func (t *transformer) genJmp(n *ir.Node) *ir.Node {
	return t.debug(n, NewJmp(t.g(), t.Block(n)))
}

func (t *transformer) genSwitch(n *ir.Node) *ir.Node {
	block := t.Block(n)
	sel := n.In[0]

	if sel.Mode.Bits != 32 {
		back.Fatalf(n, "switch selector mode %v", sel.Mode)
	}

	x := t.Transform(sel)

	tab := *n.Attr.(*ir.SwitchTable)
	tab.Entries = append([]ir.SwitchEntry(nil), tab.Entries...)

	return t.debug(n, NewSwitchJmp(t.g(), block, x, tab.Outs, &tab))
}

func (t *transformer) genCmp(n *ir.Node) *ir.Node {
	block := t.Block(n)
	l, r := n.In[0], n.In[1]
	mode := l.Mode

	if mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewCmfe(t.g(), block, t.Transform(l), t.Transform(r)))
	}

	if r.Mode.Bits != mode.Bits {
		back.Fatalf(n, "compare of %v and %v", mode, r.Mode)
	}

	nl := t.extension(n, block, t.Transform(l), mode)
	nr := t.extension(n, block, t.Transform(r), mode)

	return t.debug(n, NewCmp(t.g(), block, nl, nr, !mode.Signed))
}

func (t *transformer) genCond(n *ir.Node) *ir.Node {
	block := t.Block(n)
	sel := n.In[0]

	if sel.Op != ir.OpCmp {
		back.Fatalf(n, "Cond selector is %v, Cmp expected", sel.Op)
	}

	flags := t.Transform(sel)

	return t.debug(n, NewB(t.g(), block, flags, sel.Relation()))
}

func (t *transformer) genConst(n *ir.Node) *ir.Node {
	block := t.Block(n)

	if n.Mode.IsFloat() {
		t.needFPA(n)

		return t.debug(n, NewFConst(t.g(), block, n.Const().Float, n.Mode))
	}

	return t.constValue(n, block, uint32(n.Const().Int))
}

func (t *transformer) genUnknown(n *ir.Node) *ir.Node {
	block := t.Block(n)

	switch {
	case n.Mode.IsFloat():
		t.needFPA(n)

		return t.debug(n, NewFConst(t.g(), block, 0, n.Mode))
	case n.Mode.IsIntOrRef():
		return t.constValue(n, block, 0)
	}

	back.Fatalf(n, "unexpected Unknown mode %v", n.Mode)

	return nil
}

func (t *transformer) genAddress(n *ir.Node) *ir.Node {
	ent := n.Entity()
	if ent.TLS {
		back.Unsupportedf(n, "thread local storage")
	}

	return t.debug(n, NewAddress(t.g(), t.Block(n), ent, 0))
}

func (t *transformer) genMember(n *ir.Node) *ir.Node {
	ptr := n.In[0]
	if !ptr.IsProjOf(ir.OpStart) {
		back.Fatalf(n, "Member of %v must be lowered before", ptr)
	}

	block := t.Block(n)
	base := t.Transform(ptr)

	return t.debug(n, NewFrameAddr(t.g(), block, base, n.Entity(), 0))
}

func (t *transformer) genCopyB(n *ir.Node) *ir.Node {
	block := t.Block(n)
	mem := t.Transform(n.In[0])
	dst := t.Transform(n.In[1])
	src := t.Transform(n.In[2])

	g := t.g()
	dc := back.NewCopy(g, block, dst)
	sc := back.NewCopy(g, block, src)

	return t.debug(n, NewCopyB(g, block, dc, sc,
		back.NewAnyVal(g, block, GP),
		back.NewAnyVal(g, block, GP),
		back.NewAnyVal(g, block, GP),
		mem, n.Attr.(ir.CopyBAttr).Size))
}

func (t *transformer) genBuiltin(n *ir.Node) *ir.Node {
	a := n.Attr.(ir.BuiltinAttr)

	switch a.Kind {
	case ir.BuiltinClz:
		block := t.Block(n)
		x := t.Transform(n.In[1])

		if t.cfg.Variant < V5 {
			back.Unsupportedf(n, "clz needs v5")
		}

		return t.debug(n, NewClz(t.g(), block, x))
	}

	back.Unsupportedf(n, "builtin %v", a.Kind)

	return nil
}

func (t *transformer) genPhi(n *ir.Node) *ir.Node {
	req := back.NoReq

	switch {
	case n.Mode.IsIntOrRef():
		if n.Mode.Bits > 32 {
			back.Fatalf(n, "64-bit values must be lowered before")
		}

		req = GP.Req
	case n.Mode.IsFloat():
		req = FPA.Req
	}

	return t.TransformPhi(n, req)
}

func (t *transformer) genAddST(n *ir.Node) *ir.Node {
	op, left, o := t.matchBinop(n.In[0], n.In[1], matchCommutative|matchSizeNeutral, addsOps)

	return t.debug(n, NewFlagsBinop(t.g(), t.Block(n), op, left, o))
}

func (t *transformer) genSubST(n *ir.Node) *ir.Node {
	op, left, o := t.matchBinop(n.In[0], n.In[1], matchSizeNeutral|matchReverse, subsOps)

	return t.debug(n, NewFlagsBinop(t.g(), t.Block(n), op, left, o))
}

func (t *transformer) genCarry(n *ir.Node, op ir.Op) *ir.Node {
	block := t.Block(n)
	l := t.Transform(n.In[0])
	r := t.Transform(n.In[1])
	f := t.Transform(n.In[2])

	return t.debug(n, NewCarryBinop(t.g(), block, op, l, r, f))
}

func (t *transformer) genAdCT(n *ir.Node) *ir.Node { return t.genCarry(n, OpAdC) }

func (t *transformer) genSbCT(n *ir.Node) *ir.Node { return t.genCarry(n, OpSbC) }

func (t *transformer) genUMulLT(n *ir.Node) *ir.Node {
	block := t.Block(n)
	l := t.Transform(n.In[0])
	r := t.Transform(n.In[1])

	return t.debug(n, NewUMulL(t.g(), block, l, r))
}

func (t *transformer) genOrPlT(n *ir.Node) *ir.Node {
	block := t.Block(n)
	l := t.Transform(n.In[0])
	r := t.Transform(n.In[1])
	fv := t.Transform(n.In[2])
	f := t.Transform(n.In[3])

	return t.debug(n, NewOrPl(t.g(), block, l, r, fv, f))
}
