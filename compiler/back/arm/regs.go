package arm

import (
	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
)

var (
	ModeGP    = ir.ModeIu
	ModeFP    = ir.ModeD
	ModeFlags = &ir.Mode{Name: "arm_flags", Sort: ir.SortFlags}
)

var (
	GP = back.NewRegClass("gp", ModeGP,
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc")

	FPA = back.NewRegClass("fpa", ModeFP,
		"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7")

	FlagsClass = back.NewRegClass("flags", ModeFlags, "fl")
)

var (
	R0  = GP.Regs[0]
	R1  = GP.Regs[1]
	R2  = GP.Regs[2]
	R3  = GP.Regs[3]
	R4  = GP.Regs[4]
	R5  = GP.Regs[5]
	R6  = GP.Regs[6]
	R7  = GP.Regs[7]
	R8  = GP.Regs[8]
	R9  = GP.Regs[9]
	R10 = GP.Regs[10]
	R11 = GP.Regs[11]
	R12 = GP.Regs[12]
	SP  = GP.Regs[13]
	LR  = GP.Regs[14]
	PC  = GP.Regs[15]

	FP = R11

	F0 = FPA.Regs[0]
	F1 = FPA.Regs[1]

	FL = FlagsClass.Regs[0]
)

// StackAlign is log2 of the stack alignment at call sites.
const StackAlign = 3

var (
	// CalleeSaves are preserved across calls.
	CalleeSaves = []*back.Register{R4, R5, R6, R7, R8, R9, R10, R11, LR}

	// CallerSaves are destroyed by calls.
	CallerSaves = []*back.Register{
		R0, R1, R2, R3, LR,
		FPA.Regs[0], FPA.Regs[1], FPA.Regs[2], FPA.Regs[3],
		FPA.Regs[4], FPA.Regs[5], FPA.Regs[6], FPA.Regs[7],
	}

	ParamRegs  = []*back.Register{R0, R1, R2, R3}
	ResultRegs = []*back.Register{R0, R1, R2, R3}
	FResultReg = F0
)
