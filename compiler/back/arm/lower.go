package arm

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// Lowered is a function after instruction selection.
	Lowered struct {
		Graph  *ir.Graph
		Layout *back.StackLayout
	}
)

var table = newTable()

func newTable() *back.Table[*transformer] {
	t := &back.Table[*transformer]{}

	t.Set(ir.OpAdd, (*transformer).genAdd)
	t.Set(ir.OpSub, (*transformer).genSub)
	t.Set(ir.OpMul, (*transformer).genMul)
	t.Set(ir.OpDiv, (*transformer).genDiv)
	t.Set(ir.OpAnd, (*transformer).genAnd)
	t.Set(ir.OpOr, (*transformer).genOr)
	t.Set(ir.OpEor, (*transformer).genEor)
	t.Set(ir.OpNot, (*transformer).genNot)
	t.Set(ir.OpMinus, (*transformer).genMinus)
	t.Set(ir.OpShl, (*transformer).genShl)
	t.Set(ir.OpShr, (*transformer).genShr)
	t.Set(ir.OpShrs, (*transformer).genShrs)
	t.Set(ir.OpConv, (*transformer).genConv)

	t.Set(ir.OpConst, (*transformer).genConst)
	t.Set(ir.OpUnknown, (*transformer).genUnknown)
	t.Set(ir.OpAddress, (*transformer).genAddress)
	t.Set(ir.OpMember, (*transformer).genMember)
	t.Set(ir.OpPhi, (*transformer).genPhi)

	t.Set(ir.OpLoad, (*transformer).genLoad)
	t.Set(ir.OpStore, (*transformer).genStore)
	t.Set(ir.OpCopyB, (*transformer).genCopyB)
	t.Set(ir.OpBuiltin, (*transformer).genBuiltin)

	t.Set(ir.OpCmp, (*transformer).genCmp)
	t.Set(ir.OpCond, (*transformer).genCond)
	t.Set(ir.OpJmp, (*transformer).genJmp)
	t.Set(ir.OpSwitch, (*transformer).genSwitch)

	t.Set(ir.OpStart, (*transformer).genStart)
	t.Set(ir.OpReturn, (*transformer).genReturn)
	t.Set(ir.OpCall, (*transformer).genCall)

	t.Set(OpAddST, (*transformer).genAddST)
	t.Set(OpSubST, (*transformer).genSubST)
	t.Set(OpAdCT, (*transformer).genAdCT)
	t.Set(OpSbCT, (*transformer).genSbCT)
	t.Set(OpUMulLT, (*transformer).genUMulLT)
	t.Set(OpOrPlT, (*transformer).genOrPlT)

	t.SetProj(ir.OpStart, (*transformer).genProjStart)
	t.SetProj(ir.OpProj, (*transformer).genProjProj)
	t.SetProj(ir.OpCall, (*transformer).genProjCall)
	t.SetProj(ir.OpLoad, (*transformer).genProjLoad)
	t.SetProj(ir.OpStore, (*transformer).genProjStore)
	t.SetProj(ir.OpDiv, (*transformer).genProjDiv)
	t.SetProj(ir.OpBuiltin, (*transformer).genProjBuiltin)
	t.SetProj(ir.OpCond, (*transformer).genProjBranch)
	t.SetProj(ir.OpSwitch, (*transformer).genProjBranch)

	t.SetProj(OpAddST, (*transformer).genProjAddST)
	t.SetProj(OpSubST, (*transformer).genProjSubST)
	t.SetProj(OpUMulLT, (*transformer).genProjUMulLT)

	t.MustBeComplete()

	return t
}

// genProjBranch keeps the control flow proj numbers, which match between B, SwitchJmp and their sources.
func (t *transformer) genProjBranch(n *ir.Node) *ir.Node {
	return t.Duplicate(n)
}

// TransformGraph selects ARM instructions for g.
// g itself is left unchanged except for its frame type,
// which gets the conversion scratch slot if any is needed.
func TransformGraph(ctx context.Context, g *ir.Graph, cfg Config) (l *Lowered, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "arm lower", "func", g.Name(), "variant", cfg.Variant, "fpu", cfg.FPU)
	defer tr.Finish("err", &err)

	cc, err := DecideCallingConvention(g.Type())
	if err != nil {
		return nil, errors.Wrap(err, "%v", g.Name())
	}

	t := &transformer{
		cfg:         cfg,
		cc:          cc,
		calls:       map[*ir.Node]*CallingConvention{},
		stack:       back.CollectStackNodes(g),
		nodeToStack: map[*ir.Node]*ir.Node{},
		startVals:   map[*back.Register]*back.StartOut{},
	}

	t.Env = back.NewEnv(ctx, g, table, t)

	defer func() {
		for _, c := range t.calls {
			c.Free()
		}

		cc.Free()
		t.Env.Free()
	}()

	t.layout = t.newStackLayout()

	ng, err := t.Env.TransformGraph(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "%v", g.Name())
	}

	t.layout.Layout()

	if tr.If("arm_layout") {
		tr.Printw("stack layout", "frame", t.layout.Frame.Size, "args", t.layout.Args.Size, "total", t.layout.Size())
	}

	return &Lowered{Graph: ng, Layout: t.layout}, nil
}
