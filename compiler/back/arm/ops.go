package arm

import (
	"fmt"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// ShiftMod is the kind of the flexible second operand.
	ShiftMod uint8

	// Operand is the flexible second operand of data processing instructions:
	// an immediate, a register or a register shifted by an immediate or a register.
	Operand struct {
		Mod ShiftMod

		Imm   Imm
		Rm    *ir.Node
		Rs    *ir.Node
		Shift uint8
	}

	Attr struct {
		back.Info

		Shift    ShiftMod
		Imm      Imm
		ShiftImm uint8

		Entity      *ir.Entity
		Offset      int
		FrameEntity bool

		// LoadMode is the memory access or floating point operation mode.
		LoadMode *ir.Mode

		Relation ir.Relation
		Unsigned bool

		Table *ir.SwitchTable
		Size  int

		FConst float64
	}
)

const (
	ShfInvalid ShiftMod = iota
	ShfImm
	ShfReg
	ShfASRImm
	ShfASRReg
	ShfLSLImm
	ShfLSLReg
	ShfLSRImm
	ShfLSRReg
	ShfRORImm
	ShfRORReg
	ShfRRX
)

var shiftNames = []string{
	ShfInvalid: "invalid",
	ShfImm:     "imm",
	ShfReg:     "reg",
	ShfASRImm:  "asr #",
	ShfASRReg:  "asr",
	ShfLSLImm:  "lsl #",
	ShfLSLReg:  "lsl",
	ShfLSRImm:  "lsr #",
	ShfLSRReg:  "lsr",
	ShfRORImm:  "ror #",
	ShfRORReg:  "ror",
	ShfRRX:     "rrx",
}

// Data processing instructions.
var (
	OpAdd   = ir.RegisterOp("arm_Add", ir.OpFlagCommutative)
	OpAnd   = ir.RegisterOp("arm_And", ir.OpFlagCommutative)
	OpBic   = ir.RegisterOp("arm_Bic", 0)
	OpEor   = ir.RegisterOp("arm_Eor", ir.OpFlagCommutative)
	OpOrr   = ir.RegisterOp("arm_Orr", ir.OpFlagCommutative)
	OpSub   = ir.RegisterOp("arm_Sub", 0)
	OpRsb   = ir.RegisterOp("arm_Rsb", 0)
	OpPkhbt = ir.RegisterOp("arm_Pkhbt", 0)
	OpPkhtb = ir.RegisterOp("arm_Pkhtb", 0)
	OpMov   = ir.RegisterOp("arm_Mov", 0)
	OpMvn   = ir.RegisterOp("arm_Mvn", 0)

	OpAddS = ir.RegisterOp("arm_AddS", ir.OpFlagCommutative)
	OpSubS = ir.RegisterOp("arm_SubS", 0)
	OpRsbS = ir.RegisterOp("arm_RsbS", 0)
	OpAdC  = ir.RegisterOp("arm_AdC", ir.OpFlagCommutative)
	OpSbC  = ir.RegisterOp("arm_SbC", 0)
	OpOrPl = ir.RegisterOp("arm_OrPl", 0)
	OpCmp  = ir.RegisterOp("arm_Cmp", 0)
)

// Multiplication and bit counting.
var (
	OpMul   = ir.RegisterOp("arm_Mul", ir.OpFlagCommutative)
	OpMulV5 = ir.RegisterOp("arm_Mul_v5", ir.OpFlagCommutative)
	OpMla   = ir.RegisterOp("arm_Mla", 0)
	OpMlaV5 = ir.RegisterOp("arm_Mla_v5", 0)
	OpMls   = ir.RegisterOp("arm_Mls", 0)
	OpUMulL = ir.RegisterOp("arm_UMulL", ir.OpFlagCommutative)
	OpClz   = ir.RegisterOp("arm_Clz", 0)
)

// Memory.
var (
	OpLdr   = ir.RegisterOp("arm_Ldr", ir.OpFlagUsesMemory)
	OpStr   = ir.RegisterOp("arm_Str", ir.OpFlagUsesMemory)
	OpLdf   = ir.RegisterOp("arm_Ldf", ir.OpFlagUsesMemory)
	OpStf   = ir.RegisterOp("arm_Stf", ir.OpFlagUsesMemory)
	OpCopyB = ir.RegisterOp("arm_CopyB", ir.OpFlagUsesMemory)

	OpAddress   = ir.RegisterOp("arm_Address", ir.OpFlagConstLike)
	OpFrameAddr = ir.RegisterOp("arm_FrameAddr", 0)
)

// FPA floating point.
var (
	OpAdf    = ir.RegisterOp("arm_Adf", ir.OpFlagCommutative)
	OpSuf    = ir.RegisterOp("arm_Suf", 0)
	OpMuf    = ir.RegisterOp("arm_Muf", ir.OpFlagCommutative)
	OpDvf    = ir.RegisterOp("arm_Dvf", 0)
	OpMvf    = ir.RegisterOp("arm_Mvf", 0)
	OpMnf    = ir.RegisterOp("arm_Mnf", 0)
	OpFltX   = ir.RegisterOp("arm_FltX", 0)
	OpCmfe   = ir.RegisterOp("arm_Cmfe", 0)
	OpFConst = ir.RegisterOp("arm_fConst", ir.OpFlagConstLike)
)

// Control flow and ABI.
var (
	OpB         = ir.RegisterOp("arm_B", ir.OpFlagCF)
	OpJmp       = ir.RegisterOp("arm_Jmp", ir.OpFlagCF)
	OpSwitchJmp = ir.RegisterOp("arm_SwitchJmp", ir.OpFlagCF)
	OpStart     = ir.RegisterOp("arm_Start", 0)
	OpReturn    = ir.RegisterOp("arm_Return", ir.OpFlagCF)
	OpBl        = ir.RegisterOp("arm_Bl", ir.OpFlagUsesMemory)
	OpLinkMovPC = ir.RegisterOp("arm_LinkMovPC", ir.OpFlagUsesMemory)
)

// Result numbers of tuple nodes.
const (
	PnLdrRes = 0
	PnLdrM   = 1

	PnLdfRes = 0
	PnLdfM   = 1

	PnDvfRes = 0
	PnDvfM   = 1

	PnAddSRes   = 0
	PnAddSFlags = 1

	PnSubSRes   = 0
	PnSubSFlags = 1

	PnUMulLLow  = 0
	PnUMulLHigh = 1

	PnBFalse = 0
	PnBTrue  = 1

	PnBlM           = 0
	PnBlStack       = 1
	PnBlFirstResult = 2
)

// Operand positions.
const (
	MovRm = 0
	MovRs = 1

	ReturnMem         = 0
	ReturnSP          = 1
	ReturnFirstResult = 2
)

func (m ShiftMod) IsImmShift() bool {
	switch m {
	case ShfASRImm, ShfLSLImm, ShfLSRImm, ShfRORImm:
		return true
	}

	return false
}

func (m ShiftMod) IsRegShift() bool {
	switch m {
	case ShfASRReg, ShfLSLReg, ShfLSRReg, ShfRORReg:
		return true
	}

	return false
}

// ImmShift is the immediate shift counterpart of a register shift.
func (m ShiftMod) ImmShift() ShiftMod {
	if m.IsRegShift() {
		return m - 1
	}

	return m
}

func (m ShiftMod) String() string {
	if int(m) < len(shiftNames) {
		return shiftNames[m]
	}

	return fmt.Sprintf("shf%d", int(m))
}

func ImmOperand(i Imm) Operand { return Operand{Mod: ShfImm, Imm: i} }

func RegOperand(rm *ir.Node) Operand { return Operand{Mod: ShfReg, Rm: rm} }

func ShiftImmOperand(rm *ir.Node, mod ShiftMod, amount uint8) Operand {
	return Operand{Mod: mod, Rm: rm, Shift: amount}
}

func ShiftRegOperand(rm, rs *ir.Node, mod ShiftMod) Operand {
	return Operand{Mod: mod, Rm: rm, Rs: rs}
}

func (o Operand) inputs() []*ir.Node {
	switch {
	case o.Mod == ShfImm:
		return nil
	case o.Mod == ShfReg, o.Mod == ShfRRX, o.Mod.IsImmShift():
		return []*ir.Node{o.Rm}
	case o.Mod.IsRegShift():
		return []*ir.Node{o.Rm, o.Rs}
	}

	panic(fmt.Sprintf("invalid shifter operand: %v", o.Mod))
}

func (o Operand) String() string {
	switch {
	case o.Mod == ShfImm:
		return fmt.Sprintf("#0x%x", o.Imm.Uint32())
	case o.Mod.IsImmShift():
		return fmt.Sprintf("%v, %v%d", o.Rm, o.Mod, o.Shift)
	case o.Mod.IsRegShift():
		return fmt.Sprintf("%v, %v %v", o.Rm, o.Mod, o.Rs)
	default:
		return fmt.Sprintf("%v", o.Rm)
	}
}

// AttrOf returns the attribute of an arm node or nil.
func AttrOf(n *ir.Node) *Attr {
	a, _ := n.Attr.(*Attr)
	return a
}

func IsMov(n *ir.Node) bool { return n.Op == OpMov }

func newAttr(in []*back.Req, outs ...*back.Req) *Attr {
	a := &Attr{Info: *back.NewInfo(in, len(outs))}

	for i, r := range outs {
		a.SetOutReq(i, r)
	}

	return a
}

func gpReqs(n int) []*back.Req {
	r := make([]*back.Req, n)

	for i := range r {
		r[i] = GP.Req
	}

	return r
}

func newNode(g *ir.Graph, block *ir.Node, op ir.Op, mode *ir.Mode, a *Attr, in ...*ir.Node) *ir.Node {
	return g.NewNode(block, op, mode, a, in...)
}

func withOperand(a *Attr, o Operand) *Attr {
	a.Shift = o.Mod
	a.Imm = o.Imm
	a.ShiftImm = o.Shift

	return a
}

// NewBinop creates data processing instruction op with left and flexible operands.
func NewBinop(g *ir.Graph, block *ir.Node, op ir.Op, left *ir.Node, o Operand) *ir.Node {
	in := append([]*ir.Node{left}, o.inputs()...)

	a := withOperand(newAttr(gpReqs(len(in)), GP.Req), o)
	a.Flags |= back.Rematerializable

	return newNode(g, block, op, ModeGP, a, in...)
}

// NewMov creates Mov or Mvn of flexible operand o.
func NewMov(g *ir.Graph, block *ir.Node, op ir.Op, o Operand) *ir.Node {
	in := o.inputs()

	a := withOperand(newAttr(gpReqs(len(in)), GP.Req), o)
	a.Flags |= back.Rematerializable

	return newNode(g, block, op, ModeGP, a, in...)
}

// NewFlagsBinop creates AddS, SubS or RsbS producing a result and flags.
func NewFlagsBinop(g *ir.Graph, block *ir.Node, op ir.Op, left *ir.Node, o Operand) *ir.Node {
	in := append([]*ir.Node{left}, o.inputs()...)

	a := withOperand(newAttr(gpReqs(len(in)), GP.Req, FL.Single), o)
	a.Flags |= back.ModifyFlags
	a.SetOutReg(PnAddSFlags, FL)

	return newNode(g, block, op, ir.ModeT, a, in...)
}

// NewCarryBinop creates AdC or SbC consuming flags.
func NewCarryBinop(g *ir.Graph, block *ir.Node, op ir.Op, left, right, flags *ir.Node) *ir.Node {
	a := withOperand(newAttr([]*back.Req{GP.Req, GP.Req, FL.Single}, GP.Req), RegOperand(right))

	return newNode(g, block, op, ModeGP, a, left, right, flags)
}

// NewOrPl is Orr executed only if flags say plus, falseval otherwise.
func NewOrPl(g *ir.Graph, block *ir.Node, left, right, falseval, flags *ir.Node) *ir.Node {
	a := withOperand(newAttr([]*back.Req{GP.Req, GP.Req, GP.Req, FL.Single}, back.SameAsIn(GP, 2)), RegOperand(right))

	return newNode(g, block, OpOrPl, ModeGP, a, left, right, falseval, flags)
}

func NewCmp(g *ir.Graph, block *ir.Node, left, right *ir.Node, unsigned bool) *ir.Node {
	a := withOperand(newAttr(gpReqs(2), FL.Single), RegOperand(right))
	a.Unsigned = unsigned
	a.Flags |= back.ModifyFlags

	return newNode(g, block, OpCmp, ModeFlags, a, left, right)
}

// NewMul creates multiplications.
// Before v6 the result must not be the first operand.
func NewMul(g *ir.Graph, block *ir.Node, op ir.Op, in ...*ir.Node) *ir.Node {
	out := GP.Req
	if op == OpMulV5 || op == OpMlaV5 {
		out = back.DifferentFromIn(GP, 0)
	}

	a := newAttr(gpReqs(len(in)), out)
	a.Flags |= back.Rematerializable

	return newNode(g, block, op, ModeGP, a, in...)
}

func NewUMulL(g *ir.Graph, block *ir.Node, left, right *ir.Node) *ir.Node {
	a := newAttr(gpReqs(2), GP.Req, GP.Req)

	return newNode(g, block, OpUMulL, ir.ModeT, a, left, right)
}

func NewClz(g *ir.Graph, block *ir.Node, x *ir.Node) *ir.Node {
	return newNode(g, block, OpClz, ModeGP, newAttr(gpReqs(1), GP.Req), x)
}

// NewLoad creates Ldr or Ldf from ptr plus the offset of ent plus offset.
func NewLoad(g *ir.Graph, block *ir.Node, op ir.Op, ptr, mem *ir.Node, mode *ir.Mode, ent *ir.Entity, offset int, frame bool) *ir.Node {
	out := GP.Req
	if op == OpLdf {
		out = FPA.Req
	}

	a := newAttr([]*back.Req{GP.Req, back.NoReq}, out, back.NoReq)
	a.LoadMode = mode
	a.Entity = ent
	a.Offset = offset
	a.FrameEntity = frame

	return newNode(g, block, op, ir.ModeT, a, ptr, mem)
}

// NewStore creates Str or Stf.
func NewStore(g *ir.Graph, block *ir.Node, op ir.Op, ptr, val, mem *ir.Node, mode *ir.Mode, ent *ir.Entity, offset int, frame bool) *ir.Node {
	vr := GP.Req
	if op == OpStf {
		vr = FPA.Req
	}

	a := newAttr([]*back.Req{GP.Req, vr, back.NoReq}, back.NoReq)
	a.LoadMode = mode
	a.Entity = ent
	a.Offset = offset
	a.FrameEntity = frame

	return newNode(g, block, op, ir.ModeM, a, ptr, val, mem)
}

func NewCopyB(g *ir.Graph, block *ir.Node, dst, src, t0, t1, t2, mem *ir.Node, size int) *ir.Node {
	a := newAttr([]*back.Req{GP.Req, GP.Req, GP.Req, GP.Req, GP.Req, back.NoReq}, back.NoReq)
	a.Size = size

	return newNode(g, block, OpCopyB, ir.ModeM, a, dst, src, t0, t1, t2, mem)
}

func NewAddress(g *ir.Graph, block *ir.Node, ent *ir.Entity, offset int) *ir.Node {
	a := newAttr(nil, GP.Req)
	a.Entity = ent
	a.Offset = offset
	a.Flags |= back.Rematerializable

	return newNode(g, block, OpAddress, ModeGP, a)
}

func NewFrameAddr(g *ir.Graph, block *ir.Node, base *ir.Node, ent *ir.Entity, offset int) *ir.Node {
	a := newAttr(gpReqs(1), GP.Req)
	a.Entity = ent
	a.Offset = offset
	a.FrameEntity = true
	a.Flags |= back.Rematerializable

	return newNode(g, block, OpFrameAddr, ModeGP, a, base)
}

// NewFloatBinop creates Adf, Suf or Muf in mode.
func NewFloatBinop(g *ir.Graph, block *ir.Node, op ir.Op, left, right *ir.Node, mode *ir.Mode) *ir.Node {
	a := newAttr([]*back.Req{FPA.Req, FPA.Req}, FPA.Req)
	a.LoadMode = mode

	return newNode(g, block, op, ModeFP, a, left, right)
}

func NewDvf(g *ir.Graph, block *ir.Node, left, right *ir.Node, mode *ir.Mode) *ir.Node {
	a := newAttr([]*back.Req{FPA.Req, FPA.Req}, FPA.Req, back.NoReq)
	a.LoadMode = mode

	return newNode(g, block, OpDvf, ir.ModeT, a, left, right)
}

// NewFloatUnop creates Mvf or Mnf of a float or FltX of an integer.
func NewFloatUnop(g *ir.Graph, block *ir.Node, op ir.Op, x *ir.Node, mode *ir.Mode) *ir.Node {
	in := FPA.Req
	if op == OpFltX {
		in = GP.Req
	}

	a := newAttr([]*back.Req{in}, FPA.Req)
	a.LoadMode = mode

	return newNode(g, block, op, ModeFP, a, x)
}

func NewCmfe(g *ir.Graph, block *ir.Node, left, right *ir.Node) *ir.Node {
	a := newAttr([]*back.Req{FPA.Req, FPA.Req}, FL.Single)
	a.Flags |= back.ModifyFlags

	return newNode(g, block, OpCmfe, ModeFlags, a, left, right)
}

func NewFConst(g *ir.Graph, block *ir.Node, v float64, mode *ir.Mode) *ir.Node {
	a := newAttr(nil, FPA.Req)
	a.FConst = v
	a.LoadMode = mode
	a.Flags |= back.Rematerializable

	return newNode(g, block, OpFConst, ModeFP, a)
}

// NewB branches on flags by relation.
func NewB(g *ir.Graph, block *ir.Node, flags *ir.Node, rel ir.Relation) *ir.Node {
	a := newAttr([]*back.Req{FL.Single}, back.NoReq, back.NoReq)
	a.Relation = rel

	return newNode(g, block, OpB, ir.ModeT, a, flags)
}

func NewJmp(g *ir.Graph, block *ir.Node) *ir.Node {
	return newNode(g, block, OpJmp, ir.ModeX, newAttr(nil, back.NoReq))
}

func NewSwitchJmp(g *ir.Graph, block *ir.Node, sel *ir.Node, outs int, tab *ir.SwitchTable) *ir.Node {
	r := make([]*back.Req, outs)
	for i := range r {
		r[i] = back.NoReq
	}

	a := newAttr([]*back.Req{GP.Req}, r...)
	a.Table = tab

	return newNode(g, block, OpSwitchJmp, ir.ModeT, a, sel)
}

// NewStart creates the function entry with outs results.
// Their requirements are set by back.MakeStartOut.
func NewStart(g *ir.Graph, block *ir.Node, outs int) *ir.Node {
	a := &Attr{Info: *back.NewInfo(nil, outs)}
	a.Flags |= back.NotSpillable

	return newNode(g, block, OpStart, ir.ModeT, a)
}

func NewReturn(g *ir.Graph, block *ir.Node, in []*ir.Node, reqs []*back.Req) *ir.Node {
	a := newAttr(reqs, back.NoReq)

	return newNode(g, block, OpReturn, ir.ModeX, a, in...)
}

// NewCall creates Bl of ent or LinkMovPC of a register callee at position calleePos.
func NewCall(g *ir.Graph, block *ir.Node, in []*ir.Node, reqs []*back.Req, outs int, ent *ir.Entity, calleePos int) *ir.Node {
	a := &Attr{Info: *back.NewInfo(reqs, outs)}

	op := OpBl
	if ent != nil {
		a.Entity = ent
	} else {
		op = OpLinkMovPC
		a.Shift = ShfReg
		a.Offset = calleePos
	}

	return newNode(g, block, op, ir.ModeT, a, in...)
}

// Operand of a data processing node, which is the inputs after the first one.
func (a *Attr) Operand(n *ir.Node) Operand {
	o := Operand{Mod: a.Shift, Imm: a.Imm, Shift: a.ShiftImm}

	first := 1
	if n.Op == OpMov || n.Op == OpMvn {
		first = 0
	}

	if len(n.In) > first {
		o.Rm = n.In[first]
	}

	if o.Mod.IsRegShift() && len(n.In) > first+1 {
		o.Rs = n.In[first+1]
	}

	return o
}

// Input pseudo operations left by double word lowering.
var (
	OpAddST  = ir.RegisterOp("arm_AddS_t", ir.OpFlagCommutative)
	OpSubST  = ir.RegisterOp("arm_SubS_t", 0)
	OpAdCT   = ir.RegisterOp("arm_AdC_t", ir.OpFlagCommutative)
	OpSbCT   = ir.RegisterOp("arm_SbC_t", 0)
	OpUMulLT = ir.RegisterOp("arm_UMulL_t", ir.OpFlagCommutative)
	OpOrPlT  = ir.RegisterOp("arm_OrPl_t", 0)
)

// Result numbers of the pseudo operations.
const (
	PnAddSTRes   = 0
	PnAddSTFlags = 1

	PnSubSTRes   = 0
	PnSubSTFlags = 1

	PnUMulLTLow  = 0
	PnUMulLTHigh = 1
)

// String lists the attributes which are set.
func (a *Attr) String() string {
	var b []byte

	add := func(f string, args ...any) {
		if len(b) != 0 {
			b = append(b, ' ')
		}

		b = fmt.Appendf(b, f, args...)
	}

	switch {
	case a.Shift == ShfImm:
		add("#0x%x", a.Imm.Uint32())
	case a.Shift.IsImmShift():
		add("%v%d", a.Shift, a.ShiftImm)
	case a.Shift != ShfInvalid:
		add("%v", a.Shift)
	}

	if a.Entity != nil {
		add("%v%+d", a.Entity, a.Offset)
	} else if a.Offset != 0 {
		add("%+d", a.Offset)
	}

	if a.FrameEntity {
		add("frame")
	}

	if a.LoadMode != nil {
		add("%v", a.LoadMode)
	}

	if a.Relation != 0 {
		add("%v", a.Relation)
	}

	if a.Unsigned {
		add("unsigned")
	}

	if a.Table != nil {
		add("cases=%d", len(a.Table.Entries))
	}

	if a.Size != 0 {
		add("size=%d", a.Size)
	}

	if a.FConst != 0 {
		add("%g", a.FConst)
	}

	return string(b)
}
