package ir

import "github.com/vrosnet/libfirm/compiler/set"

type WalkFunc func(n *Node)

// Walk visits every node reachable from the graph anchors.
// pre is called before the node's block and operands, post after. Either may be nil.
func Walk(g *Graph, pre, post WalkFunc) {
	w := walker{
		seen: set.MakeBitmap(g.Len()),
		pre:  pre,
		post: post,
	}

	w.walk(g.End())

	for _, a := range g.anchors {
		if a != nil {
			w.walk(a)
		}
	}
}

// WalkBlocks calls f for every block reachable from the end block through control predecessors.
func WalkBlocks(g *Graph, f WalkFunc) {
	seen := set.MakeBitmap(g.Len())

	var walk func(b *Node)

	walk = func(b *Node) {
		if seen.IsSet(b.ID) {
			return
		}

		seen.Set(b.ID)

		for _, cf := range b.In {
			if cf.Block != nil {
				walk(cf.Block)
			}
		}

		f(b)
	}

	walk(g.EndBlock())
	walk(g.StartBlock())
}

type walker struct {
	seen set.Bitmap

	pre, post WalkFunc
}

func (w *walker) walk(n *Node) {
	if w.seen.IsSet(n.ID) {
		return
	}

	w.seen.Set(n.ID)

	if w.pre != nil {
		w.pre(n)
	}

	if n.Block != nil && n.Block.graph == n.graph {
		w.walk(n.Block)
	}

	for _, x := range n.In {
		if x != nil && x.graph == n.graph {
			w.walk(x)
		}
	}

	if w.post != nil {
		w.post(n)
	}
}
