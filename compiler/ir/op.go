package ir

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op uint16

	OpFlags uint8

	OpInfo struct {
		Name  string
		Flags OpFlags
	}
)

// Generic opcodes. The set is closed; targets append their own with RegisterOp.
const (
	OpBad Op = iota
	OpBlock
	OpStart
	OpEnd
	OpProj
	OpPhi
	OpConst
	OpAddress
	OpMember
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpEor
	OpNot
	OpMinus
	OpShl
	OpShr
	OpShrs
	OpConv
	OpCmp
	OpCond
	OpJmp
	OpSwitch
	OpLoad
	OpStore
	OpCall
	OpReturn
	OpSync
	OpNoMem
	OpBuiltin
	OpUnknown
	OpCopyB
	OpPin

	NumGenericOps
)

const MaxOps = 256

const (
	OpFlagCF OpFlags = 1 << iota
	OpFlagCommutative
	OpFlagConstLike
	OpFlagUsesMemory
)

var (
	ops = [MaxOps]OpInfo{
		OpBad:     {Name: "Bad"},
		OpBlock:   {Name: "Block"},
		OpStart:   {Name: "Start"},
		OpEnd:     {Name: "End"},
		OpProj:    {Name: "Proj"},
		OpPhi:     {Name: "Phi"},
		OpConst:   {Name: "Const", Flags: OpFlagConstLike},
		OpAddress: {Name: "Address", Flags: OpFlagConstLike},
		OpMember:  {Name: "Member"},
		OpAdd:     {Name: "Add", Flags: OpFlagCommutative},
		OpSub:     {Name: "Sub"},
		OpMul:     {Name: "Mul", Flags: OpFlagCommutative},
		OpDiv:     {Name: "Div", Flags: OpFlagUsesMemory},
		OpAnd:     {Name: "And", Flags: OpFlagCommutative},
		OpOr:      {Name: "Or", Flags: OpFlagCommutative},
		OpEor:     {Name: "Eor", Flags: OpFlagCommutative},
		OpNot:     {Name: "Not"},
		OpMinus:   {Name: "Minus"},
		OpShl:     {Name: "Shl"},
		OpShr:     {Name: "Shr"},
		OpShrs:    {Name: "Shrs"},
		OpConv:    {Name: "Conv"},
		OpCmp:     {Name: "Cmp"},
		OpCond:    {Name: "Cond", Flags: OpFlagCF},
		OpJmp:     {Name: "Jmp", Flags: OpFlagCF},
		OpSwitch:  {Name: "Switch", Flags: OpFlagCF},
		OpLoad:    {Name: "Load", Flags: OpFlagUsesMemory},
		OpStore:   {Name: "Store", Flags: OpFlagUsesMemory},
		OpCall:    {Name: "Call", Flags: OpFlagUsesMemory},
		OpReturn:  {Name: "Return", Flags: OpFlagCF},
		OpSync:    {Name: "Sync"},
		OpNoMem:   {Name: "NoMem"},
		OpBuiltin: {Name: "Builtin", Flags: OpFlagUsesMemory},
		OpUnknown: {Name: "Unknown", Flags: OpFlagConstLike},
		OpCopyB:   {Name: "CopyB", Flags: OpFlagUsesMemory},
		OpPin:     {Name: "Pin"},
	}

	nextOp = NumGenericOps
)

// RegisterOp allocates a new target opcode.
// It's meant to be called from package level var declarations only.
func RegisterOp(name string, flags OpFlags) Op {
	if nextOp == MaxOps {
		panic("too many opcodes")
	}

	op := nextOp
	nextOp++

	ops[op] = OpInfo{Name: name, Flags: flags}

	return op
}

func NumOps() int { return int(nextOp) }

// OpByName finds an opcode, generic or registered, by its name.
func OpByName(name string) (Op, bool) {
	for op := Op(0); op < nextOp; op++ {
		if ops[op].Name == name {
			return op, true
		}
	}

	return OpBad, false
}

func (op Op) Info() OpInfo { return ops[op] }

func (op Op) IsGeneric() bool { return op < NumGenericOps }

func (op Op) IsCF() bool { return ops[op].Flags&OpFlagCF != 0 }

func (op Op) IsCommutative() bool { return ops[op].Flags&OpFlagCommutative != 0 }

func (op Op) IsConstLike() bool { return ops[op].Flags&OpFlagConstLike != 0 }

func (op Op) String() string {
	if n := ops[op].Name; n != "" {
		return n
	}

	return fmt.Sprintf("op%d", uint16(op))
}

func (op Op) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder
	return e.AppendString(b, op.String())
}
