package back

import (
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// StartOut is a value the function receives in a register,
	// read as a result of the lowered Start node.
	StartOut struct {
		Pos  int
		Mode *ir.Mode

		start *ir.Node
		proj  *ir.Node
	}
)

// MakeStartOut declares result pos of the lowered start as arriving in reg.
func MakeStartOut(s *StartOut, start *ir.Node, pos int, reg *Register, ignore bool) {
	info := InfoOf(start)

	info.Out[pos] = OutInfo{Req: reg.Single, Reg: reg, Ignore: ignore}

	*s = StartOut{
		Pos:   pos,
		Mode:  reg.Cls.Mode,
		start: start,
	}
}

// MakeStartMem declares result pos of the lowered start as the initial memory.
func MakeStartMem(s *StartOut, start *ir.Node, pos int) {
	*s = StartOut{
		Pos:   pos,
		Mode:  ir.ModeM,
		start: start,
	}
}

// StartProj returns the value of s. It's created once per function.
func StartProj(g *ir.Graph, s *StartOut) *ir.Node {
	if s.start == nil {
		panic("start out is not declared")
	}

	if s.proj == nil {
		s.proj = g.NewProj(s.start, s.Mode, s.Pos)
	}

	return s.proj
}
