package ir

import (
	"github.com/vrosnet/libfirm/compiler/tp"
)

type (
	Graph struct {
		Entity *Entity

		// Frame holds the locals of the function.
		FrameType *Compound

		nodes   []*Node
		anchors [NumAnchors]*Node
	}

	Anchor int
)

const (
	AnchorEndBlock Anchor = iota
	AnchorStartBlock
	AnchorEnd
	AnchorStart
	AnchorFrame
	AnchorInitialMem
	AnchorArgs
	AnchorNoMem

	NumAnchors
)

// NewGraph creates a function graph with start and end anchors.
func NewGraph(ent *Entity) *Graph {
	g := NewEmptyGraph(ent)

	sb := g.NewNode(nil, OpBlock, ModeBB, nil)
	eb := g.NewNode(nil, OpBlock, ModeBB, nil)

	start := g.NewNode(sb, OpStart, ModeT, nil)
	end := g.NewNode(eb, OpEnd, ModeX, nil)

	g.anchors = [NumAnchors]*Node{
		AnchorStartBlock: sb,
		AnchorEndBlock:   eb,
		AnchorStart:      start,
		AnchorEnd:        end,
		AnchorFrame:      g.NewProj(start, ModeP, PnStartFrame),
		AnchorInitialMem: g.NewProj(start, ModeM, PnStartM),
		AnchorArgs:       g.NewProj(start, ModeT, PnStartArgs),
		AnchorNoMem:      g.NewNode(sb, OpNoMem, ModeM, nil),
	}

	return g
}

// NewEmptyGraph creates a graph without anchors.
// Anchors are expected to be set by SetAnchor.
func NewEmptyGraph(ent *Entity) *Graph {
	return &Graph{
		Entity:    ent,
		FrameType: NewCompound("frame"),
	}
}

func (g *Graph) Name() string {
	if g.Entity == nil {
		return ""
	}

	return g.Entity.Name
}

// Type is the function signature.
func (g *Graph) Type() *tp.Func {
	if g.Entity == nil {
		return nil
	}

	f, _ := g.Entity.Type.(*tp.Func)

	return f
}

func (g *Graph) NewNode(block *Node, op Op, mode *Mode, attr any, in ...*Node) *Node {
	n := &Node{
		ID:    len(g.nodes),
		Op:    op,
		Mode:  mode,
		Block: block,
		Attr:  attr,
		In:    in,
		graph: g,
	}

	g.nodes = append(g.nodes, n)

	return n
}

// Copy creates a node with the same opcode, mode, attribute, block and operands.
// Operands and block may belong to another graph.
func (g *Graph) Copy(n *Node) *Node {
	in := make([]*Node, len(n.In))
	copy(in, n.In)

	c := g.NewNode(n.Block, n.Op, n.Mode, n.Attr, in...)
	c.Dbg = n.Dbg

	return c
}

func (g *Graph) Node(id int) *Node { return g.nodes[id] }

// Len is the number of nodes ever created in g, which bounds node IDs.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Anchor(a Anchor) *Node { return g.anchors[a] }

func (g *Graph) SetAnchor(a Anchor, n *Node) { g.anchors[a] = n }

func (g *Graph) StartBlock() *Node { return g.anchors[AnchorStartBlock] }
func (g *Graph) EndBlock() *Node   { return g.anchors[AnchorEndBlock] }
func (g *Graph) Start() *Node      { return g.anchors[AnchorStart] }
func (g *Graph) End() *Node        { return g.anchors[AnchorEnd] }
func (g *Graph) Frame() *Node      { return g.anchors[AnchorFrame] }
func (g *Graph) InitialMem() *Node { return g.anchors[AnchorInitialMem] }
func (g *Graph) Args() *Node       { return g.anchors[AnchorArgs] }
func (g *Graph) NoMem() *Node      { return g.anchors[AnchorNoMem] }

// KeepAlive makes n reachable from End.
func (g *Graph) KeepAlive(n *Node) {
	end := g.End()

	for _, x := range end.In {
		if x == n {
			return
		}
	}

	end.AddIn(n)
}
