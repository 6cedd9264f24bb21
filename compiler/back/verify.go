package back

import (
	"github.com/vrosnet/libfirm/compiler/ir"
)

// VerifyGraph checks that every node with register requirements
// has exactly one requirement per operand and per result.
func VerifyGraph(g *ir.Graph) {
	ir.Walk(g, func(n *ir.Node) {
		info := InfoOf(n)
		if info == nil {
			return
		}

		if len(info.In) != len(n.In) {
			Fatalf(n, "%d operand requirements for %d operands", len(info.In), len(n.In))
		}

		if n.Mode != ir.ModeT && len(info.Out) != 1 {
			Fatalf(n, "%d result requirements for a single result node", len(info.Out))
		}

		for i, r := range info.In {
			if r == nil {
				Fatalf(n, "no requirement for operand %d", i)
			}
		}

		for i, o := range info.Out {
			if o.Req == nil {
				Fatalf(n, "no requirement for result %d", i)
			}
		}
	}, nil)
}
