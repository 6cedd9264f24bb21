package back

import (
	"sort"

	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// StackOrder orders stack consuming nodes within their blocks.
	StackOrder struct {
		pred map[*ir.Node]*ir.Node
	}
)

// CollectStackNodes orders Calls and Returns of every block by their data dependencies.
func CollectStackNodes(g *ir.Graph) *StackOrder {
	blocks := map[*ir.Node][]*ir.Node{}
	var order []*ir.Node

	ir.Walk(g, nil, func(n *ir.Node) {
		switch n.Op {
		case ir.OpCall, ir.OpReturn:
		default:
			return
		}

		if _, ok := blocks[n.Block]; !ok {
			order = append(order, n.Block)
		}

		blocks[n.Block] = append(blocks[n.Block], n)
	})

	s := &StackOrder{pred: map[*ir.Node]*ir.Node{}}

	for _, b := range order {
		nodes := blocks[b]
		if len(nodes) < 2 {
			continue
		}

		d := depths{block: b, memo: map[*ir.Node]int{}}

		sort.Slice(nodes, func(i, j int) bool {
			di, dj := d.depth(nodes[i]), d.depth(nodes[j])
			if di != dj {
				return di < dj
			}

			return nodes[i].ID < nodes[j].ID
		})

		for i := 1; i < len(nodes); i++ {
			s.pred[nodes[i]] = nodes[i-1]
		}
	}

	return s
}

// Pred is the stack consuming node executed right before n in its block, or nil.
func (s *StackOrder) Pred(n *ir.Node) *ir.Node {
	return s.pred[n]
}

type depths struct {
	block *ir.Node
	memo  map[*ir.Node]int
}

// depth is the longest same-block dependency chain ending at n.
// A node depending on another one is always deeper.
func (d *depths) depth(n *ir.Node) int {
	if v, ok := d.memo[n]; ok {
		return v
	}

	d.memo[n] = 0

	r := 0

	for _, x := range n.In {
		if x.Block != d.block || x.Op == ir.OpPhi {
			continue
		}

		if v := d.depth(x) + 1; v > r {
			r = v
		}
	}

	d.memo[n] = r

	return r
}
