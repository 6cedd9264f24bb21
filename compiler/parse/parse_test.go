package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/vrosnet/libfirm/compiler/back/arm"
	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

const program = `
target:
  variant: armv5
  fpu: soft

functions:
  - name: count
    params: [i32]
    results: [i32]
    blocks:
      - {name: loop, preds: [entry, back]}
      - {name: body, preds: [t]}
      - {name: exit, preds: [f]}
    nodes:
      - {name: n, op: Proj, mode: Is, in: [args], num: 0}
      - {name: zero, op: Const, mode: Is, value: 0}
      - {name: entry, op: Jmp}
      - {name: i, op: Phi, mode: Is, block: loop, in: [zero, next]}
      - {name: cmp, op: Cmp, block: loop, in: [i, n], relation: "<"}
      - {name: cond, op: Cond, block: loop, in: [cmp]}
      - {name: t, op: Proj, mode: X, block: loop, in: [cond], num: 1}
      - {name: f, op: Proj, mode: X, block: loop, in: [cond], num: 0}
      - {name: one, op: Const, mode: Is, value: 1}
      - {name: next, op: Add, mode: Is, block: body, in: [i, one]}
      - {name: back, op: Jmp, block: body}
      - {name: ret, op: Return, block: exit, in: [mem, i]}

  - name: main
    results: [i32]
    frame:
      - {name: tmp, type: i32}
    nodes:
      - {name: callee, op: Address, entity: count}
      - {name: ten, op: Const, mode: Is, value: 0xa}
      - {name: call, op: Call, in: [mem, callee, ten]}
      - {name: cm, op: Proj, mode: M, in: [call], num: 0}
      - {name: res, op: Proj, mode: T, in: [call], num: 1}
      - {name: r, op: Proj, mode: Is, in: [res], num: 0}
      - {name: slot, op: Member, in: [frame], entity: tmp}
      - {name: st, op: Store, in: [cm, slot, r]}
      - {name: sm, op: Proj, mode: M, in: [st], num: 0}
      - {name: ret, op: Return, in: [sm, r]}
`

func findOp(g *ir.Graph, op ir.Op) (r []*ir.Node) {
	ir.Walk(g, func(n *ir.Node) {
		if n.Op == op {
			r = append(r, n)
		}
	}, nil)

	return r
}

func TestParseProgram(t *testing.T) {
	ctx := context.Background()

	p, err := Parse(ctx, []byte(program))
	require.NoError(t, err)

	require.NotNil(t, p.Target)
	assert.Equal(t, arm.Config{Variant: arm.V5, FPU: arm.FPUSoft}, *p.Target)

	require.Len(t, p.Funcs, 2)

	count, main := p.Funcs[0], p.Funcs[1]

	assert.Equal(t, "count", count.Name())
	assert.Equal(t, &tp.Func{In: []tp.Type{tp.Int{Bits: 32, Signed: true}}, Out: []tp.Type{tp.Int{Bits: 32, Signed: true}}}, count.Type())

	phis := findOp(count, ir.OpPhi)
	require.Len(t, phis, 1)

	phi := phis[0]
	require.Len(t, phi.In, 2)
	assert.True(t, phi.In[0].IsConst())
	assert.Equal(t, ir.OpAdd, phi.In[1].Op)
	assert.Same(t, phi, phi.In[1].In[0])
	assert.Len(t, phi.Block.In, 2)

	cmp := findOp(count, ir.OpCmp)
	require.Len(t, cmp, 1)
	assert.Equal(t, ir.RelLess, cmp[0].Relation())
	assert.Equal(t, 19, cmp[0].Dbg.Line)

	calls := findOp(main, ir.OpCall)
	require.Len(t, calls, 1)
	assert.Same(t, count.Type(), calls[0].Attr)
	assert.Same(t, count.Entity, calls[0].In[ir.CallPtr].Entity())

	consts := findOp(main, ir.OpConst)
	require.Len(t, consts, 1)
	assert.Equal(t, int64(10), consts[0].Const().Int)

	members := findOp(main, ir.OpMember)
	require.Len(t, members, 1)
	assert.Equal(t, "tmp", members[0].Entity().Name)
	assert.Same(t, main.FrameType, members[0].Entity().Owner)

	assert.Len(t, main.EndBlock().In, 1)

	for _, g := range p.Funcs {
		_, err = arm.TransformGraph(ctx, g, *p.Target)
		assert.NoError(t, err, "lower %v", g.Name())
	}
}

func TestParseExternals(t *testing.T) {
	const text = `
functions:
  - name: f
    nodes:
      - {name: a, op: Address, entity: puts, sig: {params: [ptr], results: [i32]}, keep: true}
      - {name: b, op: Address, entity: puts}
      - {name: c, op: Address, entity: f}
      - {name: ret, op: Return, in: [mem]}
`

	p, err := Parse(context.Background(), []byte(text))
	require.NoError(t, err)
	require.Len(t, p.Funcs, 1)
	assert.Nil(t, p.Target)

	g := p.Funcs[0]

	addrs := findOp(g, ir.OpAddress)
	require.Len(t, addrs, 1)

	puts := addrs[0].Entity()
	assert.Equal(t, "puts", puts.Name)
	assert.Equal(t, &tp.Func{In: []tp.Type{tp.Ptr{}}, Out: []tp.Type{tp.Int{Bits: 32, Signed: true}}}, puts.Type)

	assert.Contains(t, g.End().In, addrs[0])
	assert.Contains(t, g.EndBlock().In, findOp(g, ir.OpReturn)[0])
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		text string
		err  error
		line int
	}{
		{
			name: "unknown_op",
			text: "functions:\n  - name: f\n    nodes:\n      - {name: x, op: Frob}\n",
			err:  ErrUnknownOp,
			line: 4,
		},
		{
			name: "unknown_operand",
			text: "functions:\n  - name: f\n    nodes:\n      - {name: j, op: Jmp}\n      - {name: x, op: Add, mode: Is, in: [y, y]}\n",
			err:  ErrUnknownName,
			line: 5,
		},
		{
			name: "phi_arity",
			text: "functions:\n  - name: f\n    blocks:\n      - {name: b, preds: [j]}\n    nodes:\n      - {name: j, op: Jmp}\n      - {name: c, op: Const, mode: Is, value: 1}\n      - {name: p, op: Phi, mode: Is, block: b, in: [c, c]}\n",
			err:  ErrBadNode,
			line: 8,
		},
		{
			name: "no_mode",
			text: "functions:\n  - name: f\n    nodes:\n      - {name: x, op: Add, in: [mem, mem]}\n",
			err:  ErrBadNode,
			line: 4,
		},
		{
			name: "implicit_op",
			text: "functions:\n  - name: f\n    nodes:\n      - {name: s, op: Start, mode: T}\n",
			err:  ErrBadNode,
			line: 4,
		},
		{
			name: "indirect_call_without_sig",
			text: "functions:\n  - name: f\n    nodes:\n      - {name: p, op: Proj, mode: P, in: [args], num: 0}\n      - {name: c, op: Call, in: [mem, p]}\n",
			err:  ErrBadNode,
			line: 5,
		},
		{
			name: "duplicate_func",
			text: "functions:\n  - name: f\n  - name: f\n",
			err:  ErrBadNode,
			line: 3,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(ctx, []byte(tc.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.err)

			var se SyntaxError
			if assert.True(t, errors.As(err, &se), "%v", err) {
				assert.Equal(t, tc.line, se.Line)
			}
		})
	}
}

func TestParseBadTypes(t *testing.T) {
	ctx := context.Background()

	_, err := Parse(ctx, []byte("functions:\n  - name: f\n    params: [i7]\n"))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Parse(ctx, []byte("functions:\n  - name: f\n    nodes:\n      - {name: x, op: Const, mode: Qq, value: 1}\n"))
	assert.Error(t, err)

	_, err = Parse(ctx, []byte("target: {variant: z80}\n"))
	assert.ErrorIs(t, err, arm.ErrUnknownTarget)
}

func TestParseType(t *testing.T) {
	for s, exp := range map[string]tp.Type{
		"i8":  tp.Int{Bits: 8, Signed: true},
		"u16": tp.Int{Bits: 16},
		"u64": tp.Int{Bits: 64},
		"f32": tp.Float{Bits: 32},
		"ptr": tp.Ptr{},
	} {
		got, err := ParseType(s)
		require.NoError(t, err, s)
		assert.Equal(t, exp, got, s)
	}

	for _, s := range []string{"", "i", "x32", "i24", "f16"} {
		_, err := ParseType(s)
		assert.ErrorIs(t, err, ErrUnknownType, s)
	}
}
