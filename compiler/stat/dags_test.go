package stat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

var i32 = tp.Int{Bits: 32, Signed: true}

// body makes a function with a single block after the start block.
func body(params ...tp.Type) (*ir.Graph, *ir.Node) {
	g := ir.NewGraph(ir.NewEntity("f", &tp.Func{In: params, Out: []tp.Type{i32}}))
	b := g.NewBlock(g.NewJmp(g.StartBlock()))

	return g, b
}

func ret(g *ir.Graph, block, mem, res *ir.Node) {
	g.EndBlock().AddIn(g.NewReturn(block, mem, res))
}

func TestDAGTree(t *testing.T) {
	g, b := body(i32, i32)

	a := g.NewAdd(b, g.Param(0, ir.ModeIs), g.Param(1, ir.ModeIs))
	m := g.NewMul(b, a, g.NewConst(ir.ModeIs, 7))
	ret(g, b, g.InitialMem(), m)

	dags := CountDAGs(context.Background(), g, DefaultOptions)
	require.Len(t, dags, 1)

	assert.Equal(t, DAG{ID: 0, Root: m, Roots: 1, Nodes: 3, Inner: 2, Tree: true}, dags[0])
}

func TestDAGShared(t *testing.T) {
	g, b := body(i32, i32)

	a := g.NewAdd(b, g.Param(0, ir.ModeIs), g.Param(1, ir.ModeIs))
	s := g.NewAdd(b, a, a)
	ret(g, b, g.InitialMem(), s)

	dags := CountDAGs(context.Background(), g, DefaultOptions)
	require.Len(t, dags, 1)

	assert.Same(t, s, dags[0].Root)
	assert.Equal(t, 2, dags[0].Nodes)
	assert.Equal(t, 1, dags[0].Inner)
	assert.False(t, dags[0].Tree)
}

func TestDAGCrossBlock(t *testing.T) {
	g, b1 := body(i32, i32)

	a := g.NewAdd(b1, g.Param(0, ir.ModeIs), g.Param(1, ir.ModeIs))
	b2 := g.NewBlock(g.NewJmp(b1))
	r := g.NewMul(b2, a, a)
	ret(g, b2, g.InitialMem(), r)

	dags := CountDAGs(context.Background(), g, DefaultOptions)
	require.Len(t, dags, 2)

	assert.Equal(t, DAG{ID: 0, Root: a, Roots: 1, Nodes: 1, Tree: true, External: true}, dags[0])
	assert.Equal(t, DAG{ID: 1, Root: r, Roots: 1, Nodes: 1, Tree: true}, dags[1])
}

func TestDAGLoad(t *testing.T) {
	build := func() (*ir.Graph, *ir.Node) {
		g, b := body(tp.Ptr{})

		ld := g.NewLoad(b, g.InitialMem(), g.Param(0, ir.ModeP), ir.ModeIs)
		v := g.NewProj(ld, ir.ModeIs, ir.PnLoadRes)
		r := g.NewAdd(b, v, g.NewConst(ir.ModeIs, 1))
		ret(g, b, g.NewProj(ld, ir.ModeM, ir.PnLoadM), r)

		return g, r
	}

	g, r := build()

	dags := CountDAGs(context.Background(), g, DefaultOptions)
	require.Len(t, dags, 1)
	assert.Equal(t, DAG{ID: 0, Root: r, Roots: 1, Nodes: 4, Inner: 3, Tree: true}, dags[0])

	// the load is reached through memory first and starts its own DAG, merged later
	g, r = build()

	dags = CountDAGs(context.Background(), g, 0)
	require.Len(t, dags, 1)
	assert.Equal(t, DAG{ID: 0, Root: r, Roots: 2, Nodes: 3, Inner: 1, Tree: true}, dags[0])
}

func TestDAGPhi(t *testing.T) {
	g := ir.NewGraph(ir.NewEntity("loop", &tp.Func{Out: []tp.Type{i32}}))

	entry := g.NewJmp(g.StartBlock())
	loop := g.NewBlock(entry)

	phi := g.NewPhi(loop, ir.ModeIs, g.NewConst(ir.ModeIs, 0))
	next := g.NewAdd(loop, phi, g.NewConst(ir.ModeIs, 1))

	loop.AddIn(g.NewJmp(loop))
	phi.AddIn(next)

	g.KeepAlive(loop)
	ret(g, loop, g.InitialMem(), phi)

	dags := CountDAGs(context.Background(), g, DefaultOptions)
	require.Len(t, dags, 1)

	d := dags[0]
	assert.Same(t, next, d.Root)
	assert.True(t, d.External)
	assert.Equal(t, 2, d.Nodes)
	assert.Equal(t, 1, d.Inner)
}
