package back

import (
	"fmt"

	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// TransformFunc lowers source node n and returns its replacement.
	// c is the per-function lowering context.
	TransformFunc[C any] func(c C, n *ir.Node) *ir.Node

	// Table maps opcodes to transform functions.
	// It's filled once per target before any graph is lowered.
	Table[C any] struct {
		ops   [ir.MaxOps]TransformFunc[C]
		projs [ir.MaxOps]TransformFunc[C]
	}
)

// handledByEngine are generic opcodes with a default transformation.
var handledByEngine = [...]ir.Op{ir.OpBlock, ir.OpEnd, ir.OpProj, ir.OpSync, ir.OpNoMem, ir.OpPin, ir.OpBad}

func (t *Table[C]) Set(op ir.Op, f TransformFunc[C]) {
	if t.ops[op] != nil {
		panic(fmt.Sprintf("transformer for %v is already set", op))
	}

	t.ops[op] = f
}

// SetProj sets the transform function for Projs of op.
func (t *Table[C]) SetProj(op ir.Op, f TransformFunc[C]) {
	if t.projs[op] != nil {
		panic(fmt.Sprintf("proj transformer for %v is already set", op))
	}

	t.projs[op] = f
}

func (t *Table[C]) Get(op ir.Op) TransformFunc[C] { return t.ops[op] }

func (t *Table[C]) GetProj(op ir.Op) TransformFunc[C] { return t.projs[op] }

// Missing lists generic opcodes without a transform function.
func (t *Table[C]) Missing() (r []ir.Op) {
outer:
	for op := ir.Op(0); op < ir.NumGenericOps; op++ {
		if t.ops[op] != nil {
			continue
		}

		for _, h := range handledByEngine {
			if h == op {
				continue outer
			}
		}

		r = append(r, op)
	}

	return r
}

// MustBeComplete panics if any generic opcode lacks a transform function.
func (t *Table[C]) MustBeComplete() {
	if m := t.Missing(); len(m) != 0 {
		panic(fmt.Sprintf("no transformers for %v", m))
	}
}
