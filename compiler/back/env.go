package back

import (
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/set"
)

type (
	// Env is the state of lowering one function.
	// Nothing in it outlives the function.
	Env[C any] struct {
		Old *ir.Graph
		New *ir.Graph

		Tr tlog.Span

		tab *Table[C]
		ctx C

		cache []entry
		users []int

		work jobs
		seq  int
	}

	entry struct {
		state visitState

		// node is the placeholder while in progress and the result when done.
		node *ir.Node
	}

	visitState uint8

	jobs struct {
		heap.Heap[job]
	}

	job struct {
		n   *ir.Node
		seq int
	}
)

const (
	unvisited visitState = iota
	inProgress
	done
)

// NewEnv prepares lowering of g with transformers from tab.
// c is passed to every transform function.
func NewEnv[C any](ctx context.Context, g *ir.Graph, tab *Table[C], c C) *Env[C] {
	e := &Env[C]{
		Old: g,
		New: ir.NewEmptyGraph(g.Entity),
		Tr:  tlog.SpanFromContext(ctx),
		tab: tab,
		ctx: c,

		cache: make([]entry, g.Len()),
		users: make([]int, g.Len()),

		work: jobs{Heap: heap.Heap[job]{Less: jobsLess}},
	}

	e.New.FrameType = g.FrameType

	ir.Walk(g, nil, func(n *ir.Node) {
		for _, x := range n.In {
			e.users[x.ID]++
		}
	})

	return e
}

// Transform returns the replacement of source node n, lowering it if it wasn't yet.
// Nodes of the new graph are returned as is.
func (e *Env[C]) Transform(n *ir.Node) *ir.Node {
	if !e.source(n) {
		return n
	}

	switch en := e.cache[n.ID]; en.state {
	case done:
		return en.node
	case inProgress:
		if en.node != nil {
			return en.node
		}

		Fatalf(n, "cyclic dependency through %v", n.Op)
	}

	e.cache[n.ID].state = inProgress

	var nw *ir.Node

	if f := e.tab.ops[n.Op]; f != nil {
		nw = f(e.ctx, n)
	} else if nw = e.builtin(n); nw == nil {
		fatal(n, ErrNoTransformer, 1, "no transformer for %v", n.Op)
	}

	if nw == nil {
		Fatalf(n, "transformer for %v returned nothing", n.Op)
	}

	e.cache[n.ID] = entry{state: done, node: nw}

	if e.Tr.If("transform") {
		e.Tr.Printw("transformed", "old", n, "new", nw)
	}

	return nw
}

// IsTransformed reports whether n is lowered already.
func (e *Env[C]) IsTransformed(n *ir.Node) bool {
	return e.source(n) && e.cache[n.ID].state == done
}

// source reports whether n is a node of the graph being lowered.
func (e *Env[C]) source(n *ir.Node) bool {
	if n.Graph() != e.Old {
		return false
	}

	if n.ID >= len(e.cache) {
		Fatalf(n, "node created after lowering started")
	}

	return true
}

// Block returns the lowered block of n.
func (e *Env[C]) Block(n *ir.Node) *ir.Node {
	return e.Transform(n.Block)
}

// Users is the number of operand references to source node n.
func (e *Env[C]) Users(n *ir.Node) int {
	if !e.source(n) {
		return 0
	}

	return e.users[n.ID]
}

func (e *Env[C]) Enqueue(n *ir.Node) {
	if !e.source(n) || e.cache[n.ID].state != unvisited {
		return
	}

	e.seq++
	e.work.Push(job{n: n, seq: e.seq})
}

func (e *Env[C]) EnqueuePreds(n *ir.Node) {
	for _, x := range n.In {
		e.Enqueue(x)
	}
}

// Duplicate copies n into the new graph with lowered operands and block.
func (e *Env[C]) Duplicate(n *ir.Node) *ir.Node {
	in := make([]*ir.Node, len(n.In))

	for i, x := range n.In {
		in[i] = e.Transform(x)
	}

	var block *ir.Node
	if n.Block != nil {
		block = e.Block(n)
	}

	c := e.New.NewNode(block, n.Op, n.Mode, n.Attr, in...)
	c.Dbg = n.Dbg

	return c
}

// TransformPhi creates the Phi replacement with req on all operands and the result.
// Operands stay the source ones until the cycle fix,
// since they may be defined later in a loop.
func (e *Env[C]) TransformPhi(n *ir.Node, req *Req) *ir.Node {
	block := e.Block(n)

	mode := n.Mode
	if req.Cls != nil {
		mode = req.Cls.Mode
	}

	in := make([]*ir.Node, len(n.In))
	copy(in, n.In)

	phi := e.New.NewNode(block, ir.OpPhi, mode, nil, in...)
	phi.Dbg = n.Dbg

	info := NewInfo(make([]*Req, len(in)), 1)
	for i := range info.In {
		info.In[i] = req
	}

	info.SetOutReq(0, req)
	phi.Attr = info

	e.cache[n.ID].node = phi

	e.EnqueuePreds(n)

	return phi
}

func (e *Env[C]) builtin(n *ir.Node) *ir.Node {
	switch n.Op {
	case ir.OpBlock:
		return e.transformBlock(n)
	case ir.OpEnd:
		return e.transformEnd(n)
	case ir.OpProj:
		return e.transformProj(n)
	case ir.OpSync, ir.OpNoMem, ir.OpPin, ir.OpBad:
		return e.Duplicate(n)
	}

	return nil
}

func (e *Env[C]) transformBlock(n *ir.Node) *ir.Node {
	b := e.New.Copy(n)

	e.EnqueuePreds(n)

	return b
}

func (e *Env[C]) transformEnd(n *ir.Node) *ir.Node {
	block := e.Block(n)

	end := e.New.Copy(n)
	end.Block = block

	e.New.SetAnchor(ir.AnchorEnd, end)

	e.EnqueuePreds(n)

	return end
}

func (e *Env[C]) transformProj(n *ir.Node) *ir.Node {
	pred := n.Pred()

	f := e.tab.projs[pred.Op]
	if f == nil {
		if pred.Op == ir.OpProj {
			fatal(n, ErrNoTransformer, 1, "no transformer for %v -> %v -> %v", n, pred, pred.Pred())
		}

		fatal(n, ErrNoTransformer, 1, "no transformer for %v -> %v", n, pred)
	}

	return f(e.ctx, n)
}

// TransformGraph lowers the whole function and returns the new graph.
func (e *Env[C]) TransformGraph(ctx context.Context) (g *ir.Graph, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "transform graph", "func", e.Old.Name(), "nodes", e.Old.Len())
	defer tr.Finish("err", &err)

	defer Recover(&err)

	for a := ir.Anchor(0); a < ir.NumAnchors; a++ {
		old := e.Old.Anchor(a)
		if old == nil {
			continue
		}

		e.New.SetAnchor(a, e.Transform(old))
	}

	for e.work.Len() != 0 {
		j := e.work.Pop()

		e.Transform(j.n)
	}

	e.fixLoops()

	VerifyGraph(e.New)

	tr.Printw("lowered", "nodes", e.New.Len())

	return e.New, nil
}

// Free drops all per-function state.
func (e *Env[C]) Free() {
	e.cache = nil
	e.users = nil
	e.work.Data = nil

	var zero C
	e.ctx = zero
}

func (e *Env[C]) fixLoops() {
	seen := set.MakeBitmap(e.New.Len())

	for a := ir.NumAnchors - 1; a >= 0; a-- {
		if n := e.New.Anchor(a); n != nil {
			e.fix(n, &seen)
		}
	}
}

// fix replaces references to source nodes by their replacements.
func (e *Env[C]) fix(n *ir.Node, seen *set.Bitmap) {
	if seen.IsSet(n.ID) {
		return
	}

	seen.Set(n.ID)

	if n.Op != ir.OpBlock && n.Block != nil {
		n.Block = e.final(n.Block)

		e.fix(n.Block, seen)
	}

	for i, x := range n.In {
		x = e.final(x)
		n.In[i] = x

		e.fix(x, seen)
	}
}

func (e *Env[C]) final(n *ir.Node) *ir.Node {
	if !e.source(n) {
		return n
	}

	en := e.cache[n.ID]
	if en.state != done {
		Fatalf(n, "source node %v was never lowered", n)
	}

	return en.node
}

func jobsLess(d []job, i, j int) bool {
	if a, b := d[i].n.Op == ir.OpBlock, d[j].n.Op == ir.OpBlock; a && !b {
		return true
	} else if b && !a {
		return false
	}

	return d[i].seq < d[j].seq
}
