// Package stat collects shape statistics of function graphs.
package stat

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// DAG is a connected group of data nodes of one block.
	DAG struct {
		ID   int
		Root *ir.Node

		Roots int
		Nodes int
		Inner int

		// Tree is false if some node is an operand more than once.
		Tree bool

		// External is set if the root value is used in other blocks.
		External bool
	}

	Options uint8

	entry struct {
		DAG

		dead bool
		link *entry
	}

	counter struct {
		g    *ir.Graph
		opts Options

		entries []*entry
		byNode  []*entry
	}
)

const (
	// CopyConstants counts a constant operand into every DAG using it.
	CopyConstants Options = 1 << iota
	LoadIsLeaf
	CallIsLeaf

	DefaultOptions = CopyConstants | LoadIsLeaf | CallIsLeaf
)

// CountDAGs splits the data nodes of g into same-block DAGs.
// Memory and control edges are not followed, Phi nodes belong to no DAG.
func CountDAGs(ctx context.Context, g *ir.Graph, opts Options) []DAG {
	c := &counter{
		g:      g,
		opts:   opts,
		byNode: make([]*entry, g.Len()),
	}

	ir.Walk(g, nil, c.findRoots)
	ir.Walk(g, c.connect, nil)

	var r []DAG

	for _, e := range c.entries {
		if e.dead {
			continue
		}

		e.ID = len(r)
		r = append(r, e.DAG)
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("dags") {
		tr.Printw("dags", "func", g.Name(), "dags", len(r))

		for _, d := range r {
			tr.Printw("dag", "id", d.ID, "root", d.Root, "roots", d.Roots, "nodes", d.Nodes, "inner", d.Inner, "tree", d.Tree)
		}
	}

	return r
}

func (c *counter) entryOf(n *ir.Node) *entry {
	e := c.byNode[n.ID]
	if e == nil || e.link == nil {
		return e
	}

	for e.link != nil {
		e = e.link
	}

	c.byNode[n.ID] = e

	return e
}

func (c *counter) newEntry(n *ir.Node) *entry {
	e := &entry{DAG: DAG{
		Root:  n,
		Roots: 1,
		Nodes: 1,
		Tree:  true,
	}}

	c.entries = append(c.entries, e)
	c.byNode[n.ID] = e

	return e
}

// inBody reports whether n is in a block other than the start and end ones.
func (c *counter) inBody(n *ir.Node) bool {
	return n.Op != ir.OpBlock && n.Block != c.g.StartBlock() && n.Block != c.g.EndBlock()
}

// skipEdge reports whether operand x is not a data edge.
func (c *counter) skipEdge(x *ir.Node) bool {
	return x.Op == ir.OpPhi || x.Mode == ir.ModeX || x.Mode == ir.ModeM
}

func (c *counter) copied(x *ir.Node) bool {
	return c.opts&CopyConstants != 0 && x.Op.IsConstLike()
}

// findRoots makes every value used outside of its block a root.
func (c *counter) findRoots(n *ir.Node) {
	if !c.inBody(n) {
		return
	}

	for _, x := range n.In {
		if c.skipEdge(x) || c.copied(x) {
			continue
		}

		if x.Block == n.Block && n.Op != ir.OpPhi {
			continue
		}

		if !c.inBody(x) || c.entryOf(x) != nil {
			continue
		}

		e := c.newEntry(x)
		e.External = true
	}
}

func (c *counter) leaf(n *ir.Node) bool {
	switch {
	case c.opts&LoadIsLeaf != 0 && n.Op == ir.OpLoad:
		return true
	case c.opts&CallIsLeaf != 0 && n.Op == ir.OpCall:
		return true
	}

	return false
}

// connect runs users before operands, so a node joins the DAG of its first user.
func (c *counter) connect(n *ir.Node) {
	if !c.inBody(n) || n.Op == ir.OpPhi || n.Mode == ir.ModeX || n.Mode == ir.ModeM {
		return
	}

	if c.leaf(n) {
		return
	}

	e := c.entryOf(n)
	if e == nil {
		e = c.newEntry(n)
	}

	for _, x := range n.In {
		if c.skipEdge(x) {
			continue
		}

		if c.copied(x) {
			e.Nodes++
			e.Inner++

			continue
		}

		if x.Block != n.Block {
			continue
		}

		xe := c.entryOf(x)

		switch {
		case xe == nil:
			c.byNode[x.ID] = e
			e.Nodes++
			e.Inner++
		case xe == e:
			e.Tree = false
		default:
			e.Roots += xe.Roots
			e.Nodes += xe.Nodes
			e.Inner += xe.Inner
			e.Tree = e.Tree && xe.Tree
			e.External = e.External || xe.External

			xe.dead = true
			xe.link = e
		}
	}
}
