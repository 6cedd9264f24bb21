package ir

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"

	"github.com/vrosnet/libfirm/compiler/tp"
)

type (
	Node struct {
		ID    int
		Op    Op
		Mode  *Mode
		In    []*Node
		Block *Node
		Attr  any
		Dbg   *DebugInfo

		graph *Graph
	}

	DebugInfo struct {
		File string
		Line int
	}

	ConstAttr struct {
		Int   int64
		Float float64
	}

	LoadAttr struct {
		Mode      *Mode
		Unaligned bool
		Volatile  bool
	}

	StoreAttr struct {
		Unaligned bool
		Volatile  bool
	}

	DivAttr struct {
		ResMode *Mode
	}

	CopyBAttr struct {
		Size int
	}

	BuiltinAttr struct {
		Kind Builtin
		Type *tp.Func
	}

	SwitchTable struct {
		Outs    int
		Entries []SwitchEntry
	}

	SwitchEntry struct {
		Min, Max int64
		Pn       int
	}

	Builtin int
)

// Proj numbers.
const (
	PnStartM = iota
	PnStartFrame
	PnStartArgs
)

const (
	PnLoadM = iota
	PnLoadRes
)

const (
	PnStoreM = iota
)

const (
	PnCallM = iota
	PnCallResults
)

const (
	PnDivM = iota
	PnDivRes
)

const (
	PnCondFalse = iota
	PnCondTrue
)

const (
	PnBuiltinM = iota
	PnBuiltinRes
)

const PnSwitchDefault = 0

const (
	BuiltinTrap Builtin = iota
	BuiltinClz
	BuiltinCtz
	BuiltinPopcount
)

func (n *Node) Graph() *Graph { return n.graph }

func (n *Node) AddIn(x *Node) {
	n.In = append(n.In, x)
}

func (n *Node) SetIn(i int, x *Node) {
	n.In[i] = x
}

// Pred is the tuple node a Proj selects from.
func (n *Node) Pred() *Node {
	if n.Op != OpProj {
		panic(fmt.Sprintf("not a proj: %v", n))
	}

	return n.In[0]
}

func (n *Node) ProjNum() int {
	return n.Attr.(int)
}

func (n *Node) Const() ConstAttr {
	return n.Attr.(ConstAttr)
}

func (n *Node) Entity() *Entity {
	return n.Attr.(*Entity)
}

func (n *Node) Relation() Relation {
	return n.Attr.(Relation)
}

func (n *Node) Is(op Op) bool { return n != nil && n.Op == op }

func (n *Node) IsConst() bool { return n.Is(OpConst) }

// IsProjOf reports whether n is a Proj of a node with opcode op.
func (n *Node) IsProjOf(op Op) bool {
	return n.Is(OpProj) && n.In[0].Op == op
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	if n.Op == OpProj {
		return fmt.Sprintf("%v%d[%d]", n.Op, n.ID, n.ProjNum())
	}

	return fmt.Sprintf("%v%d", n.Op, n.ID)
}

func (n *Node) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if n == nil {
		return e.AppendNil(b)
	}

	b = e.AppendMap(b, 3)
	b = e.AppendKeyInt(b, "id", n.ID)
	b = e.AppendKeyString(b, "op", n.Op.String())
	b = e.AppendKeyString(b, "mode", n.Mode.String())

	return b
}

func (d *DebugInfo) String() string {
	if d == nil {
		return ""
	}

	return fmt.Sprintf("%s:%d", d.File, d.Line)
}
